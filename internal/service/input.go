package service

import (
	"bytes"
	"encoding/json"
	"strings"

	"commust/internal/model"

	"github.com/shopspring/decimal"
)

// OptionalInt is an integer that may be left empty. It accepts a JSON number,
// a numeric string, "" or null, and form text.
type OptionalInt struct {
	Value int
	Set   bool
}

func IntOf(v int) OptionalInt { return OptionalInt{Value: v, Set: true} }

func (o OptionalInt) Ptr() *int {
	if !o.Set {
		return nil
	}
	v := o.Value
	return &v
}

func (o *OptionalInt) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" {
		*o = OptionalInt{}
		return nil
	}
	n, err := model.ParseStock(s)
	if err != nil {
		return err
	}
	*o = OptionalInt{Value: n, Set: true}
	return nil
}

func (o *OptionalInt) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*o = OptionalInt{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		return o.UnmarshalText([]byte(s))
	}
	return o.UnmarshalText(b)
}

func (o OptionalInt) MarshalJSON() ([]byte, error) {
	if !o.Set {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// OptionalDecimal is a price that may be left empty.
type OptionalDecimal struct {
	Value decimal.Decimal
	Set   bool
}

func DecimalOf(s string) OptionalDecimal {
	return OptionalDecimal{Value: decimal.RequireFromString(s), Set: true}
}

func (o *OptionalDecimal) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" {
		*o = OptionalDecimal{}
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}
	*o = OptionalDecimal{Value: d, Set: true}
	return nil
}

func (o *OptionalDecimal) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*o = OptionalDecimal{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		return o.UnmarshalText([]byte(s))
	}
	return o.UnmarshalText(b)
}

func (o OptionalDecimal) MarshalJSON() ([]byte, error) {
	if !o.Set {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// ProductInput is the create and edit payload for a product and its metadata.
// Every save replaces the managed metadata: empty fields remove their keys.
type ProductInput struct {
	Title       string `json:"title" form:"title" validate:"required,max=255"`
	Excerpt     string `json:"excerpt" form:"excerpt"`
	Status      string `json:"status" form:"status" validate:"omitempty,oneof=draft publish private"`
	ProductType string `json:"product_type" form:"product_type" validate:"omitempty,oneof=simple variable"`

	SKU          string          `json:"sku" form:"sku" validate:"max=100"`
	RegularPrice OptionalDecimal `json:"regular_price" form:"regular_price"`
	SalePrice    OptionalDecimal `json:"sale_price" form:"sale_price"`
	Stock        OptionalInt     `json:"stock" form:"stock"`

	AttributeNames  []string `json:"attributes_names" form:"attributes_names" validate:"dive,required,max=100"`
	AttributeValues []string `json:"attributes_values" form:"attributes_values"`

	// Custom keys. An empty value deletes the key.
	Meta map[string]string `json:"meta" validate:"omitempty,dive,keys,meta_key,endkeys"`
}
