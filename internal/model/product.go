package model

import (
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

const (
	StatusDraft   = "draft"
	StatusPublish = "publish"
	StatusPrivate = "private"

	TypeSimple   = "simple"
	TypeVariable = "variable"
)

type Product struct {
	BaseModel
	Title       string `gorm:"type:varchar(255);not null" json:"title"`
	Excerpt     string `gorm:"type:text" json:"excerpt"`
	Status      string `gorm:"type:varchar(20);not null;default:draft" json:"status"`
	ProductType string `gorm:"type:varchar(20);not null;default:simple" json:"product_type"`
	Slug        string `gorm:"type:varchar(320);uniqueIndex" json:"slug"`

	AuthorID *uuid.UUID `gorm:"type:uuid;index" json:"author_id,omitempty"`
	Author   *User      `gorm:"foreignKey:AuthorID;references:ID;constraint:OnDelete:SET NULL" json:"author,omitempty"`

	// Relasi
	Metas []PostMeta `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"-"`
}

// MakeSlug derives the product slug from its title and id.
func MakeSlug(title string, id uuid.UUID) string {
	return slug.Make(title + " " + id.String())
}

// BeforeCreate fills the id, defaults and slug so the slug can embed the id.
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if err := p.BaseModel.BeforeCreate(tx); err != nil {
		return err
	}
	if p.Status == "" {
		p.Status = StatusDraft
	}
	if p.ProductType == "" {
		p.ProductType = TypeSimple
	}
	if p.Slug == "" {
		p.Slug = MakeSlug(p.Title, p.ID)
	}
	return nil
}
