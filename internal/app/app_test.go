package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bjo163/tienda/config"
	"github.com/bjo163/tienda/internal/domain"
	"github.com/bjo163/tienda/internal/webserver"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeMercadoPago serves the three provider endpoints the application calls.
type fakeMercadoPago struct {
	orderID     atomic.Int64
	preferences atomic.Int32
	lastPref    atomic.Value // raw JSON of the last preference request
}

func (f *fakeMercadoPago) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/checkout/preferences":
		body, _ := io.ReadAll(r.Body)
		f.lastPref.Store(string(body))
		n := f.preferences.Add(1)
		fmt.Fprintf(w, `{"id":"pref-%d","init_point":"https://mp/init","sandbox_init_point":"https://mp/sandbox"}`, n)
	case r.Method == http.MethodGet && r.URL.Path == "/v1/payments/777":
		fmt.Fprintf(w, `{"id":777,"status":"approved","external_reference":"%d","payment_method_id":"visa",
			"transaction_amount":200,"currency_id":"ARS","date_created":"2024-03-01T10:00:00.000-03:00"}`, f.orderID.Load())
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"resource not found"}`))
	}
}

type fixture struct {
	app *Application
	srv *webserver.WebServer
	mp  *fakeMercadoPago
}

func setup(t *testing.T) *fixture {
	mp := &fakeMercadoPago{}
	mpServer := httptest.NewServer(mp)
	t.Cleanup(mpServer.Close)

	cfg := *config.DefaultAppConfig
	cfg.Web.PublicBackendURL = "https://api.shop.example"
	cfg.Web.FrontendURL = "https://shop.example"
	cfg.MercadoPago.AccessToken = "TEST-0123456789"
	cfg.MercadoPago.WebhookToken = "hook"
	cfg.MercadoPago.ApiBase = mpServer.URL
	cfg.MercadoPago.TimeoutSec = 5

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	a := NewApplication(&cfg)
	a.OverrideDB(db)
	require.NoError(t, a.MigrateDB(false))
	a.Start()
	t.Cleanup(a.Release)

	require.NoError(t, db.Create(&domain.Product{ID: 7, Name: "Mate", Slug: "mate", Price: 100, Stock: 5}).Error)

	srv := webserver.NewWebServer(&cfg)
	a.MountRoutes(srv)
	return &fixture{app: a, srv: srv, mp: mp}
}

func (f *fixture) do(method, target, body string, headers ...string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	f.srv.Echo().ServeHTTP(rec, req)
	return rec
}

func TestCheckoutToPaidOrder(t *testing.T) {
	f := setup(t)

	rec := f.do(http.MethodPost, "/api/ordenes/checkout",
		`{"items":[{"productId":7,"quantity":2}],"cliente":{"name":"Ana","lastname":"Diaz","email":"ana@x.com","phone":"1"},"shippingInfo":{"city":"Rosario"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res struct {
		OrderID      int64  `json:"orderId"`
		OrderToken   string `json:"orderToken"`
		PreferenceID string `json:"preferenceId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "pref-1", res.PreferenceID)

	var pref map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(f.mp.lastPref.Load().(string)), &pref))
	assert.Equal(t, strconv.FormatInt(res.OrderID, 10), pref["external_reference"])
	assert.Equal(t, "https://api.shop.example/api/mercadopago/webhook?token=hook", pref["notification_url"])

	f.mp.orderID.Store(res.OrderID)
	rec = f.do(http.MethodPost, "/api/mercadopago/webhook?token=hook", `{"type":"payment","data":{"id":"777"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	// replayed delivery converges on the same rows
	rec = f.do(http.MethodPost, "/api/mercadopago/webhook?token=hook", `{"action":"payment.updated","data":{"id":777}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var count int64
	require.NoError(t, f.app.DB().Model(&domain.Payment{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	rec = f.do(http.MethodGet, fmt.Sprintf("/api/ordenes/%d/public-status", res.OrderID), "", webserver.OrderTokenHeader, res.OrderToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var view struct {
		Estado   string `json:"estado"`
		Payments []struct {
			PaymentID string   `json:"paymentId"`
			Estado    string   `json:"estado"`
			Amount    *float64 `json:"amount"`
		} `json:"payments"`
		ShippingInfo map[string]string `json:"shippingInfo"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, string(domain.OrderPaid), view.Estado)
	require.Len(t, view.Payments, 1)
	assert.Equal(t, "777", view.Payments[0].PaymentID)
	assert.Equal(t, string(domain.PaymentApproved), view.Payments[0].Estado)
	assert.Equal(t, 200.0, *view.Payments[0].Amount)
	assert.Equal(t, "Rosario", view.ShippingInfo["city"])
}

func TestPurgeWebhookLog(t *testing.T) {
	f := setup(t)
	db := f.app.DB()

	old := &domain.WebhookEvent{Kind: "payment", ResourceID: "1", Outcome: domain.WebhookProcessed}
	require.NoError(t, db.Create(old).Error)
	require.NoError(t, db.Model(old).Update("created_at", time.Now().AddDate(0, 0, -200)).Error)
	require.NoError(t, db.Create(&domain.WebhookEvent{Kind: "payment", ResourceID: "2", Outcome: domain.WebhookProcessed}).Error)

	f.app.PurgeWebhookLog()

	var left []domain.WebhookEvent
	require.NoError(t, db.WithContext(context.Background()).Find(&left).Error)
	require.Len(t, left, 1)
	assert.Equal(t, "2", left[0].ResourceID)
}

func TestLogFilename(t *testing.T) {
	cfg := *config.DefaultAppConfig
	cfg.Logger.Filename = ""
	cfg.System.Workdir = "/srv/tienda"
	assert.Equal(t, "/srv/tienda/logs/tienda.log", logFilename(&cfg))

	cfg.Logger.Filename = "/tmp/x.log"
	assert.Equal(t, "/tmp/x.log", logFilename(&cfg))
}

func TestProviderCurrencyDefault(t *testing.T) {
	f := setup(t)
	assert.Equal(t, "ARS", f.app.mp.Currency())
}

func TestJobsScheduled(t *testing.T) {
	f := setup(t)
	require.NotNil(t, f.app.Scheduler())
	assert.Len(t, f.app.Scheduler().Entries(), 1)
	assert.NotNil(t, f.app.Store())
}
