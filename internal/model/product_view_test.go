package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func metas(kv ...string) []PostMeta {
	out := make([]PostMeta, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, PostMeta{MetaKey: kv[i], MetaValue: kv[i+1]})
	}
	return out
}

func TestBuildProductViewPrice(t *testing.T) {
	p := &Product{Title: "Mug"}

	tests := []struct {
		name  string
		metas []PostMeta
		want  string
	}{
		{"sale wins", metas(MetaRegularPrice, "10", MetaSalePrice, "8"), "8"},
		{"regular only", metas(MetaRegularPrice, "10"), "10"},
		{"decimal", metas(MetaRegularPrice, "10.50"), "10.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, issues := BuildProductView(p, tt.metas)
			assert.Empty(t, issues)
			require.NotNil(t, v.Price)
			assert.Equal(t, tt.want, v.Price.String())
		})
	}

	v, _ := BuildProductView(p, nil)
	assert.Nil(t, v.Price)
}

func TestBuildProductViewStock(t *testing.T) {
	p := &Product{BaseModel: BaseModel{ID: uuid.New()}, Title: "Mug", Status: StatusPublish}

	v, issues := BuildProductView(p, metas(
		MetaSKU, "MUG-1",
		MetaStock, "5.0",
		MetaManageStock, "true",
		MetaStockStatus, "instock",
		"color", "blue",
	))

	assert.Empty(t, issues)
	assert.Equal(t, p.ID, v.ID)
	assert.Equal(t, "MUG-1", v.SKU)
	require.NotNil(t, v.Stock)
	assert.Equal(t, 5, *v.Stock)
	assert.True(t, v.ManageStock)
	require.NotNil(t, v.StockStatus)
	assert.Equal(t, InStock, *v.StockStatus)
	assert.Equal(t, map[string]string{"color": "blue"}, v.Meta)
	assert.NotNil(t, v.Attributes)
}

func TestBuildProductViewReportsCorruptValues(t *testing.T) {
	v, issues := BuildProductView(&Product{}, metas(
		MetaStock, "lots",
		MetaRegularPrice, "ten",
		MetaStockStatus, "maybe",
		MetaAttributes, "{not json",
		"_internal", "hidden",
	))

	assert.Nil(t, v.Stock)
	assert.Nil(t, v.Price)
	assert.Nil(t, v.StockStatus)
	assert.Empty(t, v.Attributes)
	assert.Nil(t, v.Meta)
	assert.Len(t, issues, 4)
}

func TestParseStock(t *testing.T) {
	n, err := ParseStock("3")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = ParseStock("2.5")
	assert.Error(t, err)
	_, err = ParseStock("")
	assert.Error(t, err)
}
