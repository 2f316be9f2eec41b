package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Known metadata keys. Keys with a leading underscore are reserved for the catalog itself.
const (
	MetaSKU          = "_sku"
	MetaRegularPrice = "_regular_price"
	MetaSalePrice    = "_sale_price"
	MetaStock        = "_stock"
	MetaManageStock  = "_manage_stock"
	MetaStockStatus  = "_stock_status"
	MetaAttributes   = "_product_attributes"
)

// PostMeta is one (product, key, value) entry of the product metadata store.
type PostMeta struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_postmetas_product_key,priority:1" json:"product_id"`
	MetaKey   string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_postmetas_product_key,priority:2" json:"meta_key"`
	MetaValue string    `gorm:"type:text;not null;default:''" json:"meta_value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Product *Product `gorm:"foreignKey:ProductID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

func (PostMeta) TableName() string {
	return "postmetas"
}

// IsReservedMetaKey reports whether key belongs to the catalog's own namespace.
func IsReservedMetaKey(key string) bool {
	return strings.HasPrefix(key, "_")
}

// MetaMap indexes entries by key. Later entries win on duplicate keys.
func MetaMap(metas []PostMeta) map[string]string {
	m := make(map[string]string, len(metas))
	for _, pm := range metas {
		m[pm.MetaKey] = pm.MetaValue
	}
	return m
}
