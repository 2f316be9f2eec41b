package model

import "gorm.io/gorm"

// Migrate creates or updates the catalog tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&User{}, &Product{}, &PostMeta{})
}
