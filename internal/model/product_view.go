package model

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductView is the display and edit projection of a product and its metadata.
type ProductView struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Excerpt     string     `json:"excerpt"`
	Status      string     `json:"status"`
	ProductType string     `json:"product_type"`
	Slug        string     `json:"slug"`
	AuthorID    *uuid.UUID `json:"author_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	SKU          string             `json:"sku,omitempty"`
	RegularPrice *decimal.Decimal   `json:"regular_price,omitempty"`
	SalePrice    *decimal.Decimal   `json:"sale_price,omitempty"`
	Price        *decimal.Decimal   `json:"price,omitempty"`
	Stock        *int               `json:"stock,omitempty"`
	ManageStock  bool               `json:"manage_stock"`
	StockStatus  *StockStatus       `json:"stock_status,omitempty"`
	Attributes   []ProductAttribute `json:"attributes"`
	Meta         map[string]string  `json:"meta,omitempty"`
}

// MetaIssue describes a stored value that could not be interpreted.
type MetaIssue struct {
	Key   string
	Value string
	Err   error
}

func (i MetaIssue) Error() string {
	return fmt.Sprintf("meta %s=%q: %v", i.Key, i.Value, i.Err)
}

// BuildProductView projects a product row and its metadata into a ProductView.
// Values that fail to parse are left out of the view and reported as issues.
func BuildProductView(p *Product, metas []PostMeta) (ProductView, []MetaIssue) {
	v := ProductView{
		ID:          p.ID,
		Title:       p.Title,
		Excerpt:     p.Excerpt,
		Status:      p.Status,
		ProductType: p.ProductType,
		Slug:        p.Slug,
		AuthorID:    p.AuthorID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Attributes:  []ProductAttribute{},
	}
	var issues []MetaIssue
	bad := func(key, value string, err error) {
		issues = append(issues, MetaIssue{Key: key, Value: value, Err: err})
	}

	for key, value := range MetaMap(metas) {
		switch key {
		case MetaSKU:
			v.SKU = value
		case MetaRegularPrice:
			if d, err := decimal.NewFromString(value); err != nil {
				bad(key, value, err)
			} else {
				v.RegularPrice = &d
			}
		case MetaSalePrice:
			if d, err := decimal.NewFromString(value); err != nil {
				bad(key, value, err)
			} else {
				v.SalePrice = &d
			}
		case MetaStock:
			if n, err := ParseStock(value); err != nil {
				bad(key, value, err)
			} else {
				v.Stock = &n
			}
		case MetaManageStock:
			if b, err := strconv.ParseBool(value); err != nil {
				bad(key, value, err)
			} else {
				v.ManageStock = b
			}
		case MetaStockStatus:
			if s, err := ParseStockStatus(value); err != nil {
				bad(key, value, err)
			} else {
				v.StockStatus = &s
			}
		case MetaAttributes:
			attrs, err := DecodeAttributes(value)
			if err != nil {
				bad(key, value, err)
			}
			v.Attributes = attrs
		default:
			if IsReservedMetaKey(key) {
				continue
			}
			if v.Meta == nil {
				v.Meta = make(map[string]string)
			}
			v.Meta[key] = value
		}
	}

	switch {
	case v.SalePrice != nil:
		v.Price = v.SalePrice
	case v.RegularPrice != nil:
		v.Price = v.RegularPrice
	}
	return v, issues
}

// ParseStock reads a stored stock quantity. Whole decimals such as "5.0" are accepted.
func ParseStock(value string) (int, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() {
		return 0, fmt.Errorf("stock %q is not a whole number", value)
	}
	return int(d.IntPart()), nil
}
