package service

import (
	"context"
	"fmt"
	"strconv"

	"commust/internal/applog"
	"commust/internal/model"
	"commust/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockPolicy keeps _stock, _manage_stock and _stock_status consistent and answers availability questions.
type StockPolicy interface {
	// Apply writes the stock keys for qty inside tx. A nil qty means stock is not managed.
	Apply(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty *int) error
	// CheckAvailability rejects a request for requested more units when inCart are already reserved by the cart.
	CheckAvailability(ctx context.Context, productID uuid.UUID, requested, inCart int) error
}

type stockPolicy struct {
	metaRepo repository.MetaRepository
}

func NewStockPolicy(metaRepo repository.MetaRepository) StockPolicy {
	return &stockPolicy{metaRepo: metaRepo}
}

// StockMetaFor returns the metadata writes that represent qty.
func StockMetaFor(qty *int) (upserts map[string]string, deletes []string) {
	if qty == nil {
		return map[string]string{
			model.MetaManageStock: strconv.FormatBool(false),
			model.MetaStockStatus: model.OnBackorder.String(),
		}, []string{model.MetaStock}
	}
	status := model.OutOfStock
	if *qty > 0 {
		status = model.InStock
	}
	return map[string]string{
		model.MetaManageStock: strconv.FormatBool(true),
		model.MetaStockStatus: status.String(),
		model.MetaStock:       strconv.Itoa(*qty),
	}, nil
}

func (p *stockPolicy) Apply(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty *int) error {
	repo := p.metaRepo
	if tx != nil {
		repo = repo.WithTx(tx)
	}
	upserts, deletes := StockMetaFor(qty)
	if err := repo.UpsertMany(ctx, productID, upserts); err != nil {
		return fmt.Errorf("write stock meta: %w", err)
	}
	if err := repo.DeleteKeys(ctx, productID, deletes...); err != nil {
		return fmt.Errorf("clear stock meta: %w", err)
	}
	return nil
}

func (p *stockPolicy) CheckAvailability(ctx context.Context, productID uuid.UUID, requested, inCart int) error {
	raw, found, err := p.metaRepo.Get(ctx, productID, model.MetaStockStatus)
	if err != nil {
		return err
	}
	// No stock policy recorded for this product.
	if !found {
		return nil
	}

	status, err := model.ParseStockStatus(raw)
	if err != nil {
		p.corrupt(productID, model.MetaStockStatus, raw, err)
		return ErrCorruptMetadata
	}

	switch status {
	case model.OutOfStock:
		return ErrOutOfStock
	case model.OnBackorder:
		return nil
	}

	rawStock, found, err := p.metaRepo.Get(ctx, productID, model.MetaStock)
	if err != nil {
		return err
	}
	if !found {
		p.corrupt(productID, model.MetaStock, "", fmt.Errorf("missing while %s", status))
		return ErrCorruptMetadata
	}
	stock, err := model.ParseStock(rawStock)
	if err != nil {
		p.corrupt(productID, model.MetaStock, rawStock, err)
		return ErrCorruptMetadata
	}

	if stock < 0 {
		stock = 0
	}
	available := stock - inCart
	if requested > available {
		if available < 0 {
			available = 0
		}
		return fmt.Errorf("%w: only %d more can be added", ErrInsufficientStock, available)
	}
	return nil
}

func (p *stockPolicy) corrupt(productID uuid.UUID, key, value string, err error) {
	applog.L().Warn().
		Err(err).
		Str("product_id", productID.String()).
		Str("meta_key", key).
		Str("meta_value", value).
		Msg("corrupt stock metadata")
}
