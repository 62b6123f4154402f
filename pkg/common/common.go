package common

import (
	"hash/fnv"
	"strings"
	"sync"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
)

const (
	NA = "N/A"
)

var (
	idNode     *snowflake.Node
	idNodeOnce sync.Once
	nodeSeed   = "tienda"
)

// SetNodeSeed selects the snowflake node from an application id. It must be
// called before the first NextID call to take effect.
func SetNodeSeed(appid string) {
	if strings.TrimSpace(appid) != "" {
		nodeSeed = appid
	}
}

// NextID returns a time ordered unique int64
func NextID() int64 {
	idNodeOnce.Do(func() {
		h := fnv.New32a()
		_, _ = h.Write([]byte(nodeSeed))
		node, err := snowflake.NewNode(int64(h.Sum32() % 1024))
		if err != nil {
			zap.S().Errorf("snowflake node init error %s", err.Error())
			node, _ = snowflake.NewNode(1)
		}
		idNode = node
	})
	return idNode.Generate().Int64()
}

func IfEmptyStr(src string, defval string) string {
	if src == "" {
		return defval
	}
	return src
}

// Mask hides all but a few characters of a credential for logging.
func Mask(value string) string {
	if value == "" {
		return "undefined"
	}
	if len(value) <= 10 {
		return value[:min(3, len(value))] + "***"
	}
	return value[:6] + "..." + value[len(value)-4:]
}

// TokenLabel classifies a Mercado Pago access token by prefix.
func TokenLabel(token string) string {
	switch {
	case token == "":
		return "missing"
	case strings.HasPrefix(token, "TEST-"):
		return "TEST-*"
	case strings.HasPrefix(token, "APP_USR-"):
		return "APP_USR-* (prod)"
	default:
		return "unknown-format"
	}
}
