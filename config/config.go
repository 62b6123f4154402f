package config

import (
	"os"
	"path"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// SysConfig system configuration
type SysConfig struct {
	Appid    string `yaml:"appid"`
	Location string `yaml:"location"`
	Workdir  string `yaml:"workdir"`
	Debug    bool   `yaml:"debug"`
}

// WebConfig web server configuration
type WebConfig struct {
	Host             string `yaml:"host"`
	Port             int    `yaml:"port"`
	PublicBackendURL string `yaml:"public_backend_url"` // also feeds the CORS origin list
	FrontendURL      string `yaml:"frontend_url"`       // back-urls and CORS origin list
	JwtSecret        string `yaml:"jwt_secret"`         // when set, checkout requires a bearer JWT
}

// DBConfig database configuration
type DBConfig struct {
	Type     string `yaml:"type"` // postgres or sqlite
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Passwd   string `yaml:"passwd"`
	MaxConn  int    `yaml:"max_conn"`
	IdleConn int    `yaml:"idle_conn"`
	Debug    bool   `yaml:"debug"`
}

// LogConfig logger configuration
type LogConfig struct {
	Mode       string `yaml:"mode"` // production or development
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

// MercadoPagoConfig payment provider configuration
type MercadoPagoConfig struct {
	AccessToken     string `yaml:"access_token"`
	PublicKey       string `yaml:"public_key"`
	WebhookToken    string `yaml:"webhook_token"`
	NotificationURL string `yaml:"notification_url"`
	Currency        string `yaml:"currency"`
	ApiBase         string `yaml:"api_base"`
	TimeoutSec      int    `yaml:"timeout_sec"`
	WebhookLogDays  int    `yaml:"webhook_log_days"`
}

type AppConfig struct {
	System      SysConfig         `yaml:"system"`
	Web         WebConfig         `yaml:"web"`
	Database    DBConfig          `yaml:"database"`
	Logger      LogConfig         `yaml:"logger"`
	MercadoPago MercadoPagoConfig `yaml:"mercadopago"`
}

func (c *AppConfig) GetLogDir() string {
	return path.Join(c.System.Workdir, "logs")
}

// AllowedOrigins returns the de-duplicated CORS origin list built from
// FrontendURL and PublicBackendURL (both may be comma separated).
func (c *AppConfig) AllowedOrigins() []string {
	seen := make(map[string]bool)
	var origins []string
	for _, raw := range []string{c.Web.FrontendURL, c.Web.PublicBackendURL} {
		for _, o := range strings.Split(raw, ",") {
			o = strings.TrimSpace(o)
			if o == "" || seen[o] {
				continue
			}
			seen[o] = true
			origins = append(origins, o)
		}
	}
	return origins
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "Tienda",
		Location: "America/Argentina/Buenos_Aires",
		Workdir:  "/var/tienda",
		Debug:    true,
	},
	Web: WebConfig{
		Host: "0.0.0.0",
		Port: 1337,
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "tienda",
		User:     "postgres",
		Passwd:   "postgres",
		MaxConn:  100,
		IdleConn: 10,
		Debug:    false,
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: false,
		Filename:   "/var/tienda/logs/tienda.log",
	},
	MercadoPago: MercadoPagoConfig{
		Currency:       "ARS",
		ApiBase:        "https://api.mercadopago.com",
		TimeoutSec:     0,
		WebhookLogDays: 90,
	},
}

// LoadConfig reads the YAML file when it exists, falls back to the
// defaults otherwise, and applies environment overrides last.
func LoadConfig(cfile string) (*AppConfig, error) {
	cfg := *DefaultAppConfig
	if cfile != "" {
		data, err := os.ReadFile(cfile)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, errors.Wrapf(err, "parse config %s", cfile)
			}
		case os.IsNotExist(err):
		default:
			return nil, errors.Wrapf(err, "read config %s", cfile)
		}
	}
	cfg.applyEnv(os.Getenv)
	if cfg.MercadoPago.Currency == "" {
		cfg.MercadoPago.Currency = "ARS"
	}
	return &cfg, nil
}

func (c *AppConfig) applyEnv(getenv func(string) string) {
	setString := func(name string, dst *string) {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			*dst = v
		}
	}
	setInt := func(name string, dst *int) {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			if n, err := cast.ToIntE(v); err == nil {
				*dst = n
			}
		}
	}

	setString("TIENDA_WEB_HOST", &c.Web.Host)
	setInt("TIENDA_WEB_PORT", &c.Web.Port)
	setString("TIENDA_JWT_SECRET", &c.Web.JwtSecret)
	setString("PUBLIC_BACKEND_URL", &c.Web.PublicBackendURL)
	setString("FRONTEND_URL", &c.Web.FrontendURL)

	setString("TIENDA_DB_TYPE", &c.Database.Type)
	setString("TIENDA_DB_HOST", &c.Database.Host)
	setInt("TIENDA_DB_PORT", &c.Database.Port)
	setString("TIENDA_DB_NAME", &c.Database.Name)
	setString("TIENDA_DB_USER", &c.Database.User)
	setString("TIENDA_DB_PASSWD", &c.Database.Passwd)

	setString("TIENDA_LOGGER_MODE", &c.Logger.Mode)
	if v := strings.TrimSpace(getenv("TIENDA_LOGGER_FILE_ENABLE")); v != "" {
		c.Logger.FileEnable = cast.ToBool(v)
	}

	setString("MERCADOPAGO_ACCESS_TOKEN", &c.MercadoPago.AccessToken)
	setString("MERCADOPAGO_PUBLIC_KEY", &c.MercadoPago.PublicKey)
	setString("MERCADOPAGO_WEBHOOK_TOKEN", &c.MercadoPago.WebhookToken)
	setString("MERCADOPAGO_NOTIFICATION_URL", &c.MercadoPago.NotificationURL)
	setString("MERCADOPAGO_CURRENCY", &c.MercadoPago.Currency)
}
