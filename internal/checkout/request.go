package checkout

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/bjo163/tienda/internal/customer"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cast"
)

var jsonc = jsoniter.ConfigCompatibleWithStandardLibrary

// FlexInt is a JSON value that should hold a positive integer. Set
// records that the key was present and not null, so field precedence
// stops at the first present key even when its value is unusable.
type FlexInt struct {
	Set   bool
	Value int64 // zero when the value is not a finite number > 0 after truncation
}

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*f = FlexInt{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	f.Set = true

	var v interface{}
	if err := jsonc.Unmarshal(data, &v); err != nil {
		return nil
	}
	var num float64
	switch x := v.(type) {
	case float64:
		num = x
	case string:
		n, err := cast.ToFloat64E(strings.TrimSpace(x))
		if err != nil {
			return nil
		}
		num = n
	default:
		return nil
	}
	if math.IsNaN(num) || math.IsInf(num, 0) {
		return nil
	}
	if n := math.Trunc(num); n >= 1 && n <= math.MaxInt64 {
		f.Value = int64(n)
	}
	return nil
}

// first returns the value of the first present field.
func first(fields ...FlexInt) int64 {
	for _, f := range fields {
		if f.Set {
			return f.Value
		}
	}
	return 0
}

// ItemInput accepts the aliases storefronts send for a line.
type ItemInput struct {
	ProductID  FlexInt `json:"productId"`
	ProductoID FlexInt `json:"productoId"`
	Producto   FlexInt `json:"producto"`
	Quantity   FlexInt `json:"quantity"`
	Qty        FlexInt `json:"qty"`
}

type CustomerInput struct {
	ID FlexInt `json:"id"`
	customer.Input
}

// Request is the checkout body. Items stays raw so that a malformed list
// degrades to "no items" instead of a decode failure.
type Request struct {
	Items        json.RawMessage `json:"items"`
	ClienteID    FlexInt         `json:"clienteId"`
	Cliente      *CustomerInput  `json:"cliente"`
	ShippingInfo json.RawMessage `json:"shippingInfo"`
	Shipping     json.RawMessage `json:"shipping"`
}

// Line is a normalized item.
type Line struct {
	ProductID int64
	Quantity  int
}

// rawItems decodes the items array; anything but an array yields nil.
func (r *Request) rawItems() []json.RawMessage {
	var list []json.RawMessage
	if len(r.Items) == 0 || jsonc.Unmarshal(r.Items, &list) != nil {
		return nil
	}
	return list
}

// lines keeps only the entries with a positive product id and quantity.
func lines(raw []json.RawMessage) []Line {
	out := make([]Line, 0, len(raw))
	for _, msg := range raw {
		var it ItemInput
		if jsonc.Unmarshal(msg, &it) != nil {
			continue
		}
		pid := first(it.ProductID, it.ProductoID, it.Producto)
		qty := first(it.Quantity, it.Qty)
		if pid <= 0 || qty <= 0 || qty > math.MaxInt32 {
			continue
		}
		out = append(out, Line{ProductID: pid, Quantity: int(qty)})
	}
	return out
}

// customerID is clienteId, falling back to cliente.id.
func (r *Request) customerID() int64 {
	if r.ClienteID.Set {
		return r.ClienteID.Value
	}
	if r.Cliente != nil {
		return first(r.Cliente.ID)
	}
	return 0
}

// shipping is shippingInfo, falling back to shipping; JSON null counts as absent.
func (r *Request) shipping() json.RawMessage {
	for _, v := range []json.RawMessage{r.ShippingInfo, r.Shipping} {
		if t := bytes.TrimSpace(v); len(t) > 0 && !bytes.Equal(t, []byte("null")) {
			return t
		}
	}
	return nil
}
