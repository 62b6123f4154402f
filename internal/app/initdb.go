package app

import (
	"strings"

	"github.com/bjo163/tienda/pkg/common"
	"go.uber.org/zap"
)

// logProviderConfig reports which Mercado Pago credentials are loaded
// without revealing them. A missing token only warns: checkout fails at
// call time instead.
func (a *Application) logProviderConfig() {
	mp := a.appConfig.MercadoPago
	accessToken := strings.TrimSpace(mp.AccessToken)

	zap.L().Info("mercadopago access token",
		zap.String("token", common.Mask(accessToken)),
		zap.String("kind", common.TokenLabel(accessToken)),
		zap.String("currency", a.mp.Currency()),
		zap.String("namespace", "mercadopago"))
	zap.L().Info("mercadopago public key",
		zap.String("key", common.Mask(strings.TrimSpace(mp.PublicKey))),
		zap.String("namespace", "mercadopago"))

	if accessToken == "" {
		zap.L().Warn("MERCADOPAGO_ACCESS_TOKEN is not set, checkout will fail", zap.String("namespace", "mercadopago"))
	}
	if a.mp.NotificationURL() == "" {
		zap.L().Warn("no notification url resolvable, webhooks rely on the provider panel setting",
			zap.String("namespace", "mercadopago"))
	}
	if strings.TrimSpace(mp.WebhookToken) == "" {
		zap.L().Warn("webhook token not configured, notifications are accepted unauthenticated",
			zap.String("namespace", "webhook"))
	}
}
