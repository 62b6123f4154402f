// Package webserver owns the echo instance and the /api route group.
package webserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bjo163/tienda/config"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

const (
	ApiPrefix        = "/api"
	OrderTokenHeader = "X-Order-Token"
	// MaxBodyBytes caps request bodies on every route but the webhook,
	// which must acknowledge whatever the provider sends.
	MaxBodyBytes = "1M"
	WebhookPath  = "/mercadopago/webhook"
)

// echoValidator adapts validator/v10 to echo.Validator.
type echoValidator struct {
	validate *validator.Validate
}

func (v *echoValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

type WebServer struct {
	root *echo.Echo
	api  *echo.Group
	addr string
	auth echo.MiddlewareFunc
}

func NewWebServer(cfg *config.AppConfig) *WebServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &echoValidator{validate: validator.New()}
	e.HTTPErrorHandler = HTTPErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.BodyLimitWithConfig(middleware.BodyLimitConfig{
		Limit: MaxBodyBytes,
		Skipper: func(c echo.Context) bool {
			return c.Path() == ApiPrefix+WebhookPath
		},
	}))
	e.Use(requestLogger())

	if origins := cfg.AllowedOrigins(); len(origins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders: []string{
				echo.HeaderOrigin,
				echo.HeaderContentType,
				echo.HeaderAccept,
				echo.HeaderAuthorization,
				OrderTokenHeader,
			},
		}))
	} else {
		zap.S().Warn("no CORS origins configured, cross-origin requests will be rejected by browsers")
	}

	s := &WebServer{
		root: e,
		api:  e.Group(ApiPrefix),
		addr: fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port),
	}
	if cfg.Web.JwtSecret != "" {
		s.auth = jwtMiddleware(cfg.Web.JwtSecret)
	}
	return s
}

func jwtMiddleware(secret string) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(secret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(jwt.RegisteredClaims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			zap.L().Debug("jwt rejected", zap.Error(err), zap.String("namespace", "http"))
			return echo.NewHTTPError(http.StatusUnauthorized, "Missing or invalid credentials")
		},
	})
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
				zap.String("request_id", v.RequestID),
				zap.String("namespace", "http"),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			zap.L().Info("request", fields...)
			return nil
		},
	})
}

// Echo exposes the router, mostly for tests.
func (s *WebServer) Echo() *echo.Echo {
	return s.root
}

func (s *WebServer) ApiGET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	s.api.GET(path, h, m...)
}

func (s *WebServer) ApiPOST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	s.api.POST(path, h, m...)
}

// ApiMatch registers one handler for several methods.
func (s *WebServer) ApiMatch(methods []string, path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	s.api.Match(methods, path, h, m...)
}

// Authenticated returns the bearer JWT middleware, or nothing when no
// secret is configured.
func (s *WebServer) Authenticated() []echo.MiddlewareFunc {
	if s.auth == nil {
		return nil
	}
	return []echo.MiddlewareFunc{s.auth}
}

// Start blocks until the server stops. A graceful Shutdown is not an error.
func (s *WebServer) Start() error {
	zap.S().Infof("Starting web server at %s", s.addr)
	err := s.root.Start(s.addr)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *WebServer) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.root.Shutdown(ctx)
}
