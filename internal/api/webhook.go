package api

import (
	"io"
	"net/http"

	"github.com/bjo163/tienda/internal/webhook"
	"github.com/bjo163/tienda/internal/webserver"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// MaxWebhookBody is how much of a notification body is read. Larger
// bodies are dropped and the notification is resolved from the query.
const MaxWebhookBody = 64 << 10

type ackResponse struct {
	OK bool `json:"ok"`
}

func (h *Handlers) registerWebhookRoutes(s *webserver.WebServer) {
	s.ApiMatch([]string{http.MethodPost, http.MethodGet}, webserver.WebhookPath, h.mercadoPagoWebhook)
}

// mercadoPagoWebhook answers with a bare ok flag; the provider only looks
// at the status code to decide whether to redeliver.
func (h *Handlers) mercadoPagoWebhook(c echo.Context) error {
	if err := h.webhook.Authorize(c.QueryParam("token")); err != nil {
		zap.L().Warn("webhook rejected: bad token",
			zap.String("remote_ip", c.RealIP()),
			zap.String("namespace", "webhook"))
		return c.JSON(http.StatusUnauthorized, ackResponse{OK: false})
	}

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, MaxWebhookBody+1))
	switch {
	case err != nil:
		// treat an unreadable body like an empty one; the query may still resolve
		zap.L().Warn("webhook body unreadable", zap.Error(err), zap.String("namespace", "webhook"))
		body = nil
	case len(body) > MaxWebhookBody:
		zap.L().Warn("webhook body too large, ignored",
			zap.Int("limit", MaxWebhookBody),
			zap.String("namespace", "webhook"))
		body = nil
	}

	n := webhook.Resolve(webhook.ParseEnvelope(body), c.QueryParams())
	if n.Kind == webhook.KindUnresolved {
		zap.L().Debug("webhook without type or id acknowledged", zap.String("namespace", "webhook"))
	}
	if err := h.webhook.Handle(c.Request().Context(), n); err != nil {
		return c.JSON(http.StatusInternalServerError, ackResponse{OK: false})
	}
	return c.JSON(http.StatusOK, ackResponse{OK: true})
}
