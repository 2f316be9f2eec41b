package repository

import (
	"context"
	"errors"
	"sort"
	"time"

	"commust/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MetaRepository is the product metadata (postmeta) store.
type MetaRepository interface {
	Get(ctx context.Context, productID uuid.UUID, key string) (string, bool, error)
	Upsert(ctx context.Context, productID uuid.UUID, key, value string) error
	Delete(ctx context.Context, productID uuid.UUID, key string) error
	// UpsertMany writes every pair with a single INSERT .. ON CONFLICT statement.
	UpsertMany(ctx context.Context, productID uuid.UUID, values map[string]string) error
	DeleteKeys(ctx context.Context, productID uuid.UUID, keys ...string) error
	DeleteByProduct(ctx context.Context, productID uuid.UUID) error
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]model.PostMeta, error)
	FindByProducts(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID][]model.PostMeta, error)
	// WithTx returns a repository bound to an open transaction.
	WithTx(tx *gorm.DB) MetaRepository
}

type metaRepo struct {
	db *gorm.DB
}

func NewMetaRepo(db *gorm.DB) MetaRepository {
	return &metaRepo{db}
}

func (r *metaRepo) WithTx(tx *gorm.DB) MetaRepository {
	return &metaRepo{tx}
}

func (r *metaRepo) Get(ctx context.Context, productID uuid.UUID, key string) (string, bool, error) {
	var pm model.PostMeta
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND meta_key = ?", productID, key).
		Take(&pm).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return pm.MetaValue, true, nil
}

func (r *metaRepo) Upsert(ctx context.Context, productID uuid.UUID, key, value string) error {
	return r.UpsertMany(ctx, productID, map[string]string{key: value})
}

func (r *metaRepo) UpsertMany(ctx context.Context, productID uuid.UUID, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	// Rows are always written in key order.
	sort.Strings(keys)

	now := time.Now()
	rows := make([]model.PostMeta, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, model.PostMeta{
			ProductID: productID,
			MetaKey:   k,
			MetaValue: values[k],
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}, {Name: "meta_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"meta_value", "updated_at"}),
	}).Create(&rows).Error
}

func (r *metaRepo) Delete(ctx context.Context, productID uuid.UUID, key string) error {
	return r.DeleteKeys(ctx, productID, key)
}

func (r *metaRepo) DeleteKeys(ctx context.Context, productID uuid.UUID, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("product_id = ? AND meta_key IN ?", productID, keys).
		Delete(&model.PostMeta{}).Error
}

func (r *metaRepo) DeleteByProduct(ctx context.Context, productID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("product_id = ?", productID).Delete(&model.PostMeta{}).Error
}

func (r *metaRepo) FindByProduct(ctx context.Context, productID uuid.UUID) ([]model.PostMeta, error) {
	var metas []model.PostMeta
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("meta_key ASC").
		Find(&metas).Error
	return metas, err
}

func (r *metaRepo) FindByProducts(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID][]model.PostMeta, error) {
	out := make(map[uuid.UUID][]model.PostMeta, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	var metas []model.PostMeta
	if err := r.db.WithContext(ctx).
		Where("product_id IN ?", productIDs).
		Order("meta_key ASC").
		Find(&metas).Error; err != nil {
		return nil, err
	}
	for _, pm := range metas {
		out[pm.ProductID] = append(out[pm.ProductID], pm)
	}
	return out, nil
}
