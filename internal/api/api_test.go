package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/bjo163/tienda/config"
	"github.com/bjo163/tienda/internal/catalog"
	"github.com/bjo163/tienda/internal/checkout"
	"github.com/bjo163/tienda/internal/customer"
	"github.com/bjo163/tienda/internal/domain"
	"github.com/bjo163/tienda/internal/mercadopago"
	"github.com/bjo163/tienda/internal/orderstatus"
	"github.com/bjo163/tienda/internal/repository"
	"github.com/bjo163/tienda/internal/webhook"
	"github.com/bjo163/tienda/internal/webserver"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMP stands in for the Mercado Pago client on both the checkout and
// the webhook side.
type fakeMP struct {
	prefErr  error
	payments map[string]*mercadopago.Payment
}

func (f *fakeMP) CreatePreference(_ context.Context, req mercadopago.PreferenceRequest) (*mercadopago.Preference, error) {
	if f.prefErr != nil {
		return nil, f.prefErr
	}
	return &mercadopago.Preference{
		ID:               "pref-" + strconv.FormatInt(req.OrderID, 10),
		InitPoint:        "https://mp/init",
		SandboxInitPoint: "https://mp/sandbox",
	}, nil
}

func (f *fakeMP) FetchPayment(_ context.Context, id string) (*mercadopago.Payment, error) {
	p, ok := f.payments[id]
	if !ok {
		return nil, &mercadopago.APIError{StatusCode: 404, Message: "not found"}
	}
	cp := *p
	return &cp, nil
}

func (f *fakeMP) FetchMerchantOrder(context.Context, string) (*mercadopago.MerchantOrder, error) {
	return &mercadopago.MerchantOrder{}, nil
}

type fixture struct {
	srv   *webserver.WebServer
	store *repository.MemoryStore
	mp    *fakeMP
}

func setup(t *testing.T, secret string) *fixture {
	store := repository.NewMemoryStore()
	cat := int64(3)
	store.PutCategory(domain.Category{ID: 3, Name: "Yerba", Slug: "yerba"})
	store.PutProduct(domain.Product{ID: 7, Name: "Mate", Slug: "mate", Price: 100, Stock: 5, CategoryID: &cat})
	store.PutProduct(domain.Product{ID: 8, Name: "Bombilla", Slug: "bombilla", Price: 20, Stock: 1})

	mp := &fakeMP{payments: map[string]*mercadopago.Payment{}}
	registry := customer.NewRegistry(store.Customers())
	h := NewHandlers(
		registry,
		catalog.NewService(store.Products(), store.Categories()),
		checkout.NewService(store.Products(), registry, store.Orders(), mp),
		orderstatus.NewService(store.Orders(), store.Products(), store.Payments()),
		webhook.NewReconciler(secret, mp, store.Orders(), store.Payments(), store.WebhookEvents()),
	)

	cfg := *config.DefaultAppConfig
	srv := webserver.NewWebServer(&cfg)
	h.Register(srv)
	return &fixture{srv: srv, store: store, mp: mp}
}

func (f *fixture) do(method, target, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	f.srv.Echo().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) webserver.ErrorDetail {
	var body webserver.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.Error
}

func (f *fixture) checkout(t *testing.T) (int64, string) {
	rec := f.do(http.MethodPost, "/api/ordenes/checkout",
		`{"items":[{"productId":7,"quantity":2}],"cliente":{"name":"Ana","lastname":"Diaz","email":"ana@x.com","phone":"1"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res checkout.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res.OrderID, res.OrderToken
}

func TestCustomers(t *testing.T) {
	f := setup(t, "")

	rec := f.do(http.MethodPost, "/api/clientes/public", `{"name":" Ana ","lastname":"Diaz","email":"ANA@X.com","phone":"1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ana@x.com", body["email"])
	assert.Equal(t, "Ana", body["name"])
	assert.NotContains(t, body, "createdAt")

	rec = f.do(http.MethodPost, "/api/clientes/public", `{"name":"Ana","lastname":"Diaz","email":"ana@x.com"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, webserver.ErrorDetail{Status: 400, Name: "InvalidInput", Message: "phone is required"}, errorOf(t, rec))

	rec = f.do(http.MethodGet, "/api/clientes/public", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].([]interface{})
	require.Len(t, data, 1)
	row := data[0].(map[string]interface{})
	assert.Equal(t, "ana@x.com", row["email"])
	assert.Contains(t, row, "createdAt")
	assert.Contains(t, row, "updatedAt")

	rec = f.do(http.MethodPost, "/api/clientes/public", `{"name":"Ana","lastname":"Diaz","email":"ana@x.com","phone":1234}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "1234", decodeBody(t, rec)["phone"])
}

func TestCatalog(t *testing.T) {
	f := setup(t, "")

	rec := f.do(http.MethodGet, "/api/productos?categoria=3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Len(t, body["data"], 1)
	pag := body["meta"].(map[string]interface{})["pagination"].(map[string]interface{})
	assert.Equal(t, 1.0, pag["total"])
	assert.Equal(t, float64(catalog.DefaultPageSize), pag["pageSize"])

	rec = f.do(http.MethodGet, "/api/productos?page=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodGet, "/api/productos/8", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bombilla", decodeBody(t, rec)["slug"])

	rec = f.do(http.MethodGet, "/api/productos/99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = f.do(http.MethodGet, "/api/productos/x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodGet, "/api/categorias", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["data"], 1)
	rec = f.do(http.MethodGet, "/api/categorias/3", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCheckoutAndPublicStatus(t *testing.T) {
	f := setup(t, "")
	orderID, token := f.checkout(t)

	t.Run("header token", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/api/ordenes/"+strconv.FormatInt(orderID, 10)+"/public-status", "", webserver.OrderTokenHeader, token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		body := decodeBody(t, rec)
		assert.Equal(t, float64(orderID), body["id"])
		assert.Equal(t, string(domain.OrderPendingPayment), body["estado"])
		assert.NotContains(t, rec.Body.String(), "publicTokenHash")
	})

	t.Run("query token", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/api/ordenes/"+strconv.FormatInt(orderID, 10)+"/public-status?token="+token, "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	cases := []struct {
		name   string
		target string
		header string
		status int
	}{
		{"missing token", "/api/ordenes/" + strconv.FormatInt(orderID, 10) + "/public-status", "", 401},
		{"wrong token", "/api/ordenes/" + strconv.FormatInt(orderID, 10) + "/public-status", "deadbeef", 403},
		{"unknown order", "/api/ordenes/424242/public-status", token, 404},
		{"bad id", "/api/ordenes/abc/public-status", token, 400},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var rec *httptest.ResponseRecorder
			if tc.header == "" {
				rec = f.do(http.MethodGet, tc.target, "")
			} else {
				rec = f.do(http.MethodGet, tc.target, "", webserver.OrderTokenHeader, tc.header)
			}
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.status, errorOf(t, rec).Status)
		})
	}
}

func TestCheckoutErrors(t *testing.T) {
	f := setup(t, "")

	rec := f.do(http.MethodPost, "/api/ordenes/checkout", `{"items":[{"productId":8,"quantity":3}],"clienteId":1}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "insufficient stock for product 8", errorOf(t, rec).Message)

	rec = f.do(http.MethodPost, "/api/ordenes/checkout", `{"items":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	f.mp.prefErr = errors.New("connection refused")
	rec = f.do(http.MethodPost, "/api/ordenes/checkout",
		`{"items":[{"productId":7,"quantity":1}],"cliente":{"name":"Ana","lastname":"Diaz","email":"ana@x.com","phone":"1"}}`)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	e := errorOf(t, rec)
	assert.Equal(t, "UpstreamError", e.Name)
	assert.Contains(t, e.Message, "errorId=")
	assert.NotContains(t, e.Message, "refused")
}

func TestWebhook(t *testing.T) {
	f := setup(t, "hook-secret")
	orderID, token := f.checkout(t)

	f.mp.payments["555"] = &mercadopago.Payment{
		ID:                "555",
		Status:            "approved",
		ExternalReference: mercadopago.ID(strconv.FormatInt(orderID, 10)),
		PaymentMethodID:   "visa",
	}

	rec := f.do(http.MethodPost, "/api/mercadopago/webhook?token=wrong", `{"type":"payment","data":{"id":"555"}}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"ok":false}`, rec.Body.String())
	assert.Zero(t, f.store.CountPayments())

	for i := 0; i < 2; i++ {
		rec = f.do(http.MethodPost, "/api/mercadopago/webhook?token=hook-secret", `{"type":"payment","data":{"id":555}}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	}
	assert.Equal(t, 1, f.store.CountPayments())

	rec = f.do(http.MethodGet, "/api/ordenes/"+strconv.FormatInt(orderID, 10)+"/public-status", "", webserver.OrderTokenHeader, token)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, string(domain.OrderPaid), body["estado"])
	payments := body["payments"].([]interface{})
	require.Len(t, payments, 1)
	assert.Equal(t, "555", payments[0].(map[string]interface{})["paymentId"])

	t.Run("query driven ping", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/api/mercadopago/webhook?token=hook-secret&topic=payment&id=555", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unresolvable is acknowledged", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/mercadopago/webhook?token=hook-secret", `{"type":"payment","data":{"id":"undefined"}}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		rec = f.do(http.MethodPost, "/api/mercadopago/webhook?token=hook-secret", `not json`)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("oversized body is acknowledged", func(t *testing.T) {
		big := `{"type":"payment","data":{"id":"missing"},"pad":"` + strings.Repeat("x", 2<<20) + `"}`
		rec := f.do(http.MethodPost, "/api/mercadopago/webhook?token=hook-secret", big)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"ok":true}`, rec.Body.String())

		// the query still resolves when the body is dropped
		rec = f.do(http.MethodPost, "/api/mercadopago/webhook?token=hook-secret&type=payment&data.id=555", big)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, f.store.CountPayments())
	})

	t.Run("other routes keep the body limit", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/clientes/public", `{"name":"`+strings.Repeat("x", 2<<20)+`"}`)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("provider failure asks for redelivery", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/mercadopago/webhook?token=hook-secret", `{"type":"payment","data":{"id":"missing"}}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"ok":false}`, rec.Body.String())
	})
}
