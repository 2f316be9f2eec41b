package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductInputDecodesOptionalFields(t *testing.T) {
	body := `{
		"title": "Mug",
		"regular_price": "12.50",
		"sale_price": "",
		"stock": "7.0",
		"meta": {"color": "blue"}
	}`
	var in ProductInput
	require.NoError(t, json.Unmarshal([]byte(body), &in))

	assert.True(t, in.RegularPrice.Set)
	assert.Equal(t, "12.5", in.RegularPrice.Value.String())
	assert.False(t, in.SalePrice.Set)
	require.NotNil(t, in.Stock.Ptr())
	assert.Equal(t, 7, *in.Stock.Ptr())

	var empty ProductInput
	require.NoError(t, json.Unmarshal([]byte(`{"title":"x","stock":null,"regular_price":3}`), &empty))
	assert.Nil(t, empty.Stock.Ptr())
	assert.Equal(t, "3", empty.RegularPrice.Value.String())

	var bad ProductInput
	assert.Error(t, json.Unmarshal([]byte(`{"stock":"2.5"}`), &bad))
}

func TestOptionalMarshal(t *testing.T) {
	raw, err := json.Marshal(struct {
		A OptionalInt     `json:"a"`
		B OptionalInt     `json:"b"`
		C OptionalDecimal `json:"c"`
	}{A: IntOf(4), C: DecimalOf("1.25")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":4,"b":null,"c":"1.25"}`, string(raw))
}
