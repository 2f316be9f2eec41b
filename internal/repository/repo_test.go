package repository

import (
	"context"
	"testing"

	"commust/internal/model"
	"commust/pkg/database"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	require.NoError(t, model.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func createProduct(t *testing.T, db *gorm.DB, title string) *model.Product {
	t.Helper()
	p := &model.Product{Title: title}
	require.NoError(t, NewProductRepo(db).Create(context.Background(), p))
	return p
}
