package mercadopago

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	jsoniter "github.com/json-iterator/go"
	"github.com/mitchellh/mapstructure"
)

var jsonc = jsoniter.ConfigCompatibleWithStandardLibrary

// ID is a provider identifier. The API sends ids as JSON numbers or
// strings depending on the resource; both decode to the same string.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*id = ""
		return nil
	case data[0] == '"':
		var s string
		if err := jsonc.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	default:
		var n json.Number
		if err := jsonc.Unmarshal(data, &n); err != nil {
			return err
		}
		*id = ID(n.String())
		return nil
	}
}

func (id ID) String() string {
	return string(id)
}

// Item is a preference line as the checkout sees it.
type Item struct {
	Title     string
	Quantity  int
	UnitPrice float64
}

type Phone struct {
	Number string `json:"number,omitempty"`
}

type Payer struct {
	Name    string `json:"name,omitempty"`
	Surname string `json:"surname,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   *Phone `json:"phone,omitempty"`
}

// PreferenceRequest input of CreatePreference
type PreferenceRequest struct {
	OrderID int64
	Payer   *Payer
	Items   []Item
}

type Preference struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

type BackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

type preferenceItem struct {
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id,omitempty"`
}

type preferencePayload struct {
	Items             []preferenceItem       `json:"items"`
	ExternalReference string                 `json:"external_reference"`
	Metadata          map[string]interface{} `json:"metadata"`
	NotificationURL   string                 `json:"notification_url,omitempty"`
	BackURLs          *BackURLs              `json:"back_urls,omitempty"`
	AutoReturn        string                 `json:"auto_return,omitempty"`
	Payer             *Payer                 `json:"payer,omitempty"`
}

// Payment is the subset of /v1/payments/{id} the reconciler reads. Raw
// keeps the whole response body for auditing.
type Payment struct {
	ID                ID                     `json:"id"`
	Status            string                 `json:"status"`
	ExternalReference ID                     `json:"external_reference"`
	Metadata          map[string]interface{} `json:"metadata"`
	PaymentMethodID   string                 `json:"payment_method_id"`
	PaymentTypeID     string                 `json:"payment_type_id"`
	TransactionAmount *float64               `json:"transaction_amount"`
	CurrencyID        string                 `json:"currency_id"`
	DateCreated       string                 `json:"date_created"`
	DateLastUpdated   string                 `json:"date_last_updated"`

	Raw []byte `json:"-"`
}

// Method is payment_method_id, then payment_type_id, then "unknown".
func (p *Payment) Method() string {
	switch {
	case p.PaymentMethodID != "":
		return p.PaymentMethodID
	case p.PaymentTypeID != "":
		return p.PaymentTypeID
	default:
		return "unknown"
	}
}

func (p *Payment) CreatedAt() *time.Time {
	return parseDate(p.DateCreated)
}

func (p *Payment) UpdatedAt() *time.Time {
	return parseDate(p.DateLastUpdated)
}

// OrderID resolves the owning order: external_reference first, then
// metadata order_id, then metadata orderId. Only positive integers count.
func (p *Payment) OrderID() (int64, bool) {
	if ref := strings.TrimSpace(p.ExternalReference.String()); ref != "" {
		if f, err := strconv.ParseFloat(ref, 64); err == nil {
			if id, ok := positiveInt(f); ok {
				return id, true
			}
		}
	}

	raw, ok := p.Metadata["order_id"]
	if !ok || raw == nil {
		raw = p.Metadata["orderId"]
	}
	if raw == nil {
		return 0, false
	}
	var f float64
	if err := mapstructure.WeakDecode(raw, &f); err != nil {
		return 0, false
	}
	return positiveInt(f)
}

func positiveInt(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	n := math.Trunc(f)
	if n < 1 || n > math.MaxInt64 {
		return 0, false
	}
	return int64(n), true
}

type MerchantOrderPayment struct {
	ID     ID     `json:"id"`
	Status string `json:"status"`
}

type MerchantOrder struct {
	ID                ID                     `json:"id"`
	ExternalReference ID                     `json:"external_reference"`
	PreferenceID      string                 `json:"preference_id"`
	Payments          []MerchantOrderPayment `json:"payments"`
}

func parseDate(s string) *time.Time {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return nil
	}
	return &t
}
