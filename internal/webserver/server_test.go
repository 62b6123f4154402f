package webserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bjo163/tienda/config"
	"github.com/bjo163/tienda/internal/apperr"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.AppConfig {
	cfg := *config.DefaultAppConfig
	return &cfg
}

func serve(s *WebServer, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func TestCORS(t *testing.T) {
	t.Run("configured origin is allowed", func(t *testing.T) {
		cfg := testConfig()
		cfg.Web.FrontendURL = "https://shop.example, https://admin.example"
		s := NewWebServer(cfg)
		s.ApiGET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

		req := httptest.NewRequest(http.MethodOptions, "/api/ping", nil)
		req.Header.Set(echo.HeaderOrigin, "https://admin.example")
		req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodGet)
		rec := serve(s, req)

		assert.Equal(t, "https://admin.example", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
		assert.Contains(t, rec.Header().Get(echo.HeaderAccessControlAllowHeaders), OrderTokenHeader)
	})

	t.Run("no origins means no CORS headers", func(t *testing.T) {
		s := NewWebServer(testConfig())
		s.ApiGET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

		req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
		req.Header.Set(echo.HeaderOrigin, "https://evil.example")
		rec := serve(s, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	})
}

func TestUnknownRouteUsesErrorShape(t *testing.T) {
	s := NewWebServer(testConfig())
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/nope", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, ErrorDetail{Status: 404, Name: "NotFound", Message: "Not Found"}, body.Error)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestToBody(t *testing.T) {
	body := ToBody(apperr.InsufficientStock("insufficient stock for product %d", 3))
	assert.Equal(t, ErrorDetail{Status: 400, Name: "InsufficientStock", Message: "insufficient stock for product 3"}, body.Error)

	body = ToBody(apperr.NotFound("product not found: 9").WithStatus(http.StatusBadRequest))
	assert.Equal(t, 400, body.Error.Status)
	assert.Equal(t, "NotFound", body.Error.Name)

	body = ToBody(errors.New("pq: password authentication failed"))
	assert.Equal(t, 500, body.Error.Status)
	assert.NotContains(t, body.Error.Message, "pq")
}

func TestAuthenticated(t *testing.T) {
	handler := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }

	t.Run("open without secret", func(t *testing.T) {
		s := NewWebServer(testConfig())
		assert.Empty(t, s.Authenticated())
		s.ApiPOST("/secure", handler, s.Authenticated()...)
		rec := serve(s, httptest.NewRequest(http.MethodPost, "/api/secure", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("bearer token required with secret", func(t *testing.T) {
		cfg := testConfig()
		cfg.Web.JwtSecret = "s3cret"
		s := NewWebServer(cfg)
		s.ApiPOST("/secure", handler, s.Authenticated()...)

		rec := serve(s, httptest.NewRequest(http.MethodPost, "/api/secure", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		var body ErrorBody
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Unauthorized", body.Error.Name)

		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}).SignedString([]byte("s3cret"))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/secure", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
		rec = serve(s, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
