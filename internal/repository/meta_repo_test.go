package repository

import (
	"context"
	"errors"
	"testing"

	"commust/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMetaUpsertGetDelete(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	p := createProduct(t, db, "Mug")
	repo := NewMetaRepo(db)

	_, found, err := repo.Get(ctx, p.ID, model.MetaSKU)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, repo.Upsert(ctx, p.ID, model.MetaSKU, "MUG-1"))
	require.NoError(t, repo.Upsert(ctx, p.ID, model.MetaSKU, "MUG-2"))

	v, found, err := repo.Get(ctx, p.ID, model.MetaSKU)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "MUG-2", v)

	var n int64
	require.NoError(t, db.Model(&model.PostMeta{}).Where("product_id = ?", p.ID).Count(&n).Error)
	assert.EqualValues(t, 1, n, "upsert must not duplicate a key")

	require.NoError(t, repo.Delete(ctx, p.ID, model.MetaSKU))
	_, found, err = repo.Get(ctx, p.ID, model.MetaSKU)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMetaUpsertMany(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	p := createProduct(t, db, "Mug")
	other := createProduct(t, db, "Plate")
	repo := NewMetaRepo(db)

	require.NoError(t, repo.UpsertMany(ctx, p.ID, map[string]string{
		model.MetaStock:       "5",
		model.MetaStockStatus: "instock",
	}))
	require.NoError(t, repo.UpsertMany(ctx, p.ID, map[string]string{
		model.MetaStock:       "0",
		model.MetaStockStatus: "outofstock",
		model.MetaManageStock: "true",
	}))
	require.NoError(t, repo.Upsert(ctx, other.ID, model.MetaStock, "9"))

	metas, err := repo.FindByProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		model.MetaManageStock: "true",
		model.MetaStock:       "0",
		model.MetaStockStatus: "outofstock",
	}, model.MetaMap(metas))

	byProduct, err := repo.FindByProducts(ctx, []uuid.UUID{p.ID, other.ID})
	require.NoError(t, err)
	assert.Len(t, byProduct[p.ID], 3)
	assert.Len(t, byProduct[other.ID], 1)

	require.NoError(t, repo.DeleteKeys(ctx, p.ID, model.MetaStock, model.MetaManageStock))
	metas, err = repo.FindByProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, metas, 1)
}

func TestMetaWithTxRollsBack(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	p := createProduct(t, db, "Mug")
	repo := NewMetaRepo(db)
	boom := errors.New("boom")

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := repo.WithTx(tx).Upsert(ctx, p.ID, model.MetaSKU, "X"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, found, err := repo.Get(ctx, p.ID, model.MetaSKU)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMetaCascadeOnProductDelete(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	p := createProduct(t, db, "Mug")
	repo := NewMetaRepo(db)
	require.NoError(t, repo.UpsertMany(ctx, p.ID, map[string]string{model.MetaSKU: "A", "color": "red"}))

	require.NoError(t, NewProductRepo(db).Delete(ctx, p.ID))

	metas, err := repo.FindByProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, metas)
}
