package webhook

import (
	"bytes"
	"net/url"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var jsonc = jsoniter.ConfigCompatibleWithStandardLibrary

// Scalar is a loosely typed JSON value. Present is false for a missing
// key and for JSON null.
type Scalar struct {
	Present  bool
	IsString bool
	Text     string // string content, or the literal for numbers and booleans
}

func (s *Scalar) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*s = Scalar{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	s.Present = true
	switch data[0] {
	case '"':
		var v string
		if err := jsonc.Unmarshal(data, &v); err != nil {
			return nil
		}
		s.IsString = true
		s.Text = v
	case '{', '[':
		// objects and arrays carry no usable scalar
	default:
		s.Text = string(data)
	}
	return nil
}

type envelopeData struct {
	ID Scalar `json:"id"`
}

// Envelope is the subset of a notification body used for inference.
type Envelope struct {
	Type   Scalar
	Action Scalar
	ID     Scalar
	DataID Scalar
}

// ParseEnvelope never fails: a body that is not a JSON object, or a field
// with an unexpected shape, simply leaves the field absent.
func ParseEnvelope(body []byte) Envelope {
	var env Envelope
	var fields map[string]jsoniter.RawMessage
	if len(bytes.TrimSpace(body)) == 0 || jsonc.Unmarshal(body, &fields) != nil {
		return env
	}
	decode := func(key string, dst *Scalar) {
		if raw, ok := fields[key]; ok {
			_ = jsonc.Unmarshal(raw, dst)
		}
	}
	decode("type", &env.Type)
	decode("action", &env.Action)
	decode("id", &env.ID)
	if raw, ok := fields["data"]; ok {
		var d envelopeData
		if jsonc.Unmarshal(raw, &d) == nil {
			env.DataID = d.ID
		}
	}
	return env
}

type Kind int

const (
	KindUnresolved Kind = iota
	KindPayment
	KindMerchantOrder
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindPayment:
		return "payment"
	case KindMerchantOrder:
		return "merchant_order"
	case KindOther:
		return "other"
	default:
		return "unresolved"
	}
}

// Notification is the inferred event. Type keeps the raw provider type
// for logging; it is empty when Kind is KindUnresolved.
type Notification struct {
	Kind Kind
	Type string
	ID   string
}

func queryScalar(q url.Values, key string) Scalar {
	if !q.Has(key) {
		return Scalar{}
	}
	return Scalar{Present: true, IsString: true, Text: q.Get(key)}
}

// firstPresent mirrors a chain of null-coalescing lookups.
func firstPresent(values ...Scalar) Scalar {
	for _, v := range values {
		if v.Present {
			return v
		}
	}
	return Scalar{}
}

// Resolve infers kind and id from body and query.
//
// kind: body.type, query.type, query.topic (first present; must be a
// non-empty string), then "payment" when body.action mentions payment.
// id: body.data.id, body.id, query data.id, query id (first present).
func Resolve(env Envelope, query url.Values) Notification {
	var typ string
	raw := firstPresent(env.Type, queryScalar(query, "type"), queryScalar(query, "topic"))
	if raw.IsString && raw.Text != "" {
		typ = raw.Text
	} else if env.Action.IsString && strings.Contains(env.Action.Text, "payment") {
		typ = "payment"
	}

	id := firstPresent(env.DataID, env.ID, queryScalar(query, "data.id"), queryScalar(query, "id")).Text

	if typ == "" || id == "" || id == "undefined" {
		return Notification{Kind: KindUnresolved}
	}

	n := Notification{Type: typ, ID: id}
	switch typ {
	case "payment":
		n.Kind = KindPayment
	case "merchant_order":
		n.Kind = KindMerchantOrder
	default:
		n.Kind = KindOther
	}
	return n
}
