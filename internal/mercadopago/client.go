// Package mercadopago is a small client for the three Mercado Pago calls
// the checkout needs: create a preference, fetch a payment and fetch a
// merchant order.
package mercadopago

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bjo163/tienda/pkg/common"
	"github.com/guonaihong/gout"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL  = "https://api.mercadopago.com"
	DefaultCurrency = "ARS"
	WebhookPath     = "/api/mercadopago/webhook"
)

// ErrMissingAccessToken is returned by every call when no access token is configured.
var ErrMissingAccessToken = errors.New("missing required configuration: MERCADOPAGO_ACCESS_TOKEN")

// Config is captured once at start-up; the client never reads the environment.
type Config struct {
	AccessToken      string
	WebhookToken     string
	NotificationURL  string // explicit override
	Currency         string
	PublicBackendURL string
	FrontendURL      string
	BaseURL          string
	Timeout          time.Duration // zero means no client-side timeout
}

// APIError is a non-2xx answer from the provider.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

type Client struct {
	cfg  Config
	http *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

func NewClient(cfg Config, opts ...Option) *Client {
	cfg.AccessToken = strings.TrimSpace(cfg.AccessToken)
	cfg.WebhookToken = strings.TrimSpace(cfg.WebhookToken)
	cfg.NotificationURL = strings.TrimSpace(cfg.NotificationURL)
	cfg.Currency = common.IfEmptyStr(strings.TrimSpace(cfg.Currency), DefaultCurrency)
	cfg.BaseURL = strings.TrimRight(common.IfEmptyStr(strings.TrimSpace(cfg.BaseURL), DefaultBaseURL), "/")
	c := &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Currency returns the configured ISO currency.
func (c *Client) Currency() string {
	return c.cfg.Currency
}

// NotificationURL returns the explicit override, or PUBLIC_BACKEND_URL
// resolved against the webhook path with the shared secret as token query.
// Empty when neither is configured.
func (c *Client) NotificationURL() string {
	if c.cfg.NotificationURL != "" {
		return c.cfg.NotificationURL
	}
	base := strings.TrimSpace(c.cfg.PublicBackendURL)
	if base == "" {
		return ""
	}
	baseURL, err := url.Parse(base)
	if err != nil || baseURL.Scheme == "" || baseURL.Host == "" {
		zap.L().Warn("invalid public backend url, notification_url omitted",
			zap.String("url", base), zap.String("namespace", "mercadopago"))
		return ""
	}
	u := baseURL.ResolveReference(&url.URL{Path: WebhookPath})
	if c.cfg.WebhookToken != "" {
		q := u.Query()
		q.Set("token", c.cfg.WebhookToken)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// BackURLs returns the hosted checkout return pages, nil without FRONTEND_URL.
func (c *Client) BackURLs() *BackURLs {
	frontend := strings.TrimSpace(c.cfg.FrontendURL)
	if frontend == "" {
		return nil
	}
	base := strings.TrimRight(frontend, "/")
	return &BackURLs{
		Success: base + "/checkout/success",
		Failure: base + "/checkout/failure",
		Pending: base + "/checkout/pending",
	}
}

// CreatePreference registers the order items with the provider and returns
// the hosted checkout redirect URLs.
func (c *Client) CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error) {
	payload := preferencePayload{
		Items:             make([]preferenceItem, 0, len(req.Items)),
		ExternalReference: strconv.FormatInt(req.OrderID, 10),
		Metadata:          map[string]interface{}{"order_id": req.OrderID},
		NotificationURL:   c.NotificationURL(),
		Payer:             req.Payer,
	}
	for _, it := range req.Items {
		payload.Items = append(payload.Items, preferenceItem{
			Title:      it.Title,
			Quantity:   max(1, it.Quantity),
			UnitPrice:  common.RoundMoney(it.UnitPrice),
			CurrencyID: c.cfg.Currency,
		})
	}
	if back := c.BackURLs(); back != nil {
		payload.BackURLs = back
		payload.AutoReturn = "approved"
	}

	var pref Preference
	if err := c.do(ctx, http.MethodPost, "/checkout/preferences", payload, &pref, nil); err != nil {
		return nil, err
	}
	return &pref, nil
}

func (c *Client) FetchPayment(ctx context.Context, id string) (*Payment, error) {
	var p Payment
	var raw []byte
	if err := c.do(ctx, http.MethodGet, "/v1/payments/"+url.PathEscape(id), nil, &p, &raw); err != nil {
		return nil, err
	}
	p.Raw = raw
	return &p, nil
}

func (c *Client) FetchMerchantOrder(ctx context.Context, id string) (*MerchantOrder, error) {
	var mo MerchantOrder
	if err := c.do(ctx, http.MethodGet, "/merchant_orders/"+url.PathEscape(id), nil, &mo, nil); err != nil {
		return nil, err
	}
	return &mo, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, raw *[]byte) error {
	if c.cfg.AccessToken == "" {
		return ErrMissingAccessToken
	}

	var text string
	var code int
	g := gout.New(c.http)
	flow := g.GET(c.cfg.BaseURL + path)
	if method == http.MethodPost {
		flow = g.POST(c.cfg.BaseURL + path).SetJSON(body)
	}
	err := flow.WithContext(ctx).
		SetHeader(gout.H{"Authorization": "Bearer " + c.cfg.AccessToken}).
		BindBody(&text).
		Code(&code).
		Do()
	if err != nil {
		return errors.Wrapf(err, "mercadopago %s %s", method, path)
	}

	if code < 200 || code > 299 {
		return &APIError{StatusCode: code, Message: errorMessage(code, text)}
	}

	if raw != nil {
		*raw = []byte(text)
	}
	if out == nil || strings.TrimSpace(text) == "" {
		return nil
	}
	if err := jsonc.UnmarshalFromString(text, out); err != nil {
		return errors.Wrapf(err, "decode mercadopago %s response", path)
	}
	return nil
}

// errorMessage picks message, error or error_message from a JSON body,
// else the raw body, else a generic text with the status code.
func errorMessage(code int, text string) string {
	var body map[string]interface{}
	if err := jsonc.UnmarshalFromString(text, &body); err == nil {
		for _, key := range []string{"message", "error", "error_message"} {
			if msg := strings.TrimSpace(cast.ToString(body[key])); msg != "" {
				return msg
			}
		}
	}
	if strings.TrimSpace(text) != "" {
		return text
	}
	return fmt.Sprintf("Mercado Pago API error (%d)", code)
}
