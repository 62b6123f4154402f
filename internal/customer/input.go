package customer

import (
	"bytes"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cast"
)

var jsonc = jsoniter.ConfigCompatibleWithStandardLibrary

// Field is a customer attribute as sent by storefronts. Strings are kept,
// non-zero numbers and true are rendered as text, anything else is empty
// and therefore reported as missing.
type Field string

func (f *Field) UnmarshalJSON(data []byte) error {
	*f = ""
	var v interface{}
	if len(bytes.TrimSpace(data)) == 0 || jsonc.Unmarshal(data, &v) != nil {
		return nil
	}
	switch x := v.(type) {
	case string:
		*f = Field(x)
	case float64:
		if x != 0 {
			*f = Field(cast.ToString(x))
		}
	case bool:
		if x {
			*f = Field(cast.ToString(x))
		}
	}
	return nil
}

// Input is the public customer payload. Field order is the order in
// which missing fields are reported.
type Input struct {
	Name     Field `json:"name" validate:"required"`
	Lastname Field `json:"lastname" validate:"required"`
	Email    Field `json:"email" validate:"required"`
	Phone    Field `json:"phone" validate:"required"`
}

// Normalize trims every field and lower-cases the email.
func (in Input) Normalize() Input {
	return Input{
		Name:     Field(strings.TrimSpace(string(in.Name))),
		Lastname: Field(strings.TrimSpace(string(in.Lastname))),
		Email:    Field(strings.ToLower(strings.TrimSpace(string(in.Email)))),
		Phone:    Field(strings.TrimSpace(string(in.Phone))),
	}
}
