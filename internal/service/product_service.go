package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"commust/internal/applog"
	"commust/internal/events"
	"commust/internal/model"
	"commust/internal/repository"
	"commust/pkg/validator"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductEdit is the edit form payload: the view plus the raw metadata rows.
type ProductEdit struct {
	Product model.ProductView `json:"product"`
	Meta    []model.PostMeta  `json:"meta"`
}

type ProductService interface {
	Create(ctx context.Context, in *ProductInput, actor events.Actor) (*model.ProductView, error)
	Update(ctx context.Context, id uuid.UUID, in *ProductInput, actor events.Actor) (*model.ProductView, error)
	Delete(ctx context.Context, id uuid.UUID, actor events.Actor) error
	Get(ctx context.Context, id uuid.UUID) (*model.ProductView, error)
	GetBySlug(ctx context.Context, slug string) (*model.ProductView, error)
	GetForEdit(ctx context.Context, id uuid.UUID) (*ProductEdit, error)
	List(ctx context.Context, f repository.ProductFilter) ([]model.ProductView, error)
}

type productService struct {
	productRepo repository.ProductRepository
	metaRepo    repository.MetaRepository
	stock       StockPolicy
	db          *gorm.DB
	publisher   events.Publisher
}

func NewProductService(pRepo repository.ProductRepository, mRepo repository.MetaRepository, stock StockPolicy, db *gorm.DB, pub events.Publisher) ProductService {
	if pub == nil {
		pub = events.Nop()
	}
	return &productService{
		productRepo: pRepo,
		metaRepo:    mRepo,
		stock:       stock,
		db:          db,
		publisher:   pub,
	}
}

func (s *productService) validate(in *ProductInput) ([]model.ProductAttribute, error) {
	if err := validator.FirstError(in); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}
	attrs, err := model.BuildAttributes(in.AttributeNames, in.AttributeValues)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}
	return attrs, nil
}

func (s *productService) Create(ctx context.Context, in *ProductInput, actor events.Actor) (*model.ProductView, error) {
	attrs, err := s.validate(in)
	if err != nil {
		return nil, err
	}

	product := &model.Product{
		Title:       strings.TrimSpace(in.Title),
		Excerpt:     in.Excerpt,
		Status:      in.Status,
		ProductType: in.ProductType,
	}
	product.CreatedBy = actor.ID
	product.UpdatedBy = actor.ID
	if id, err := uuid.Parse(actor.ID); err == nil {
		product.AuthorID = &id
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.productRepo.WithTx(tx).Create(ctx, product); err != nil {
			return err
		}
		return s.writeMeta(ctx, tx, product.ID, in, attrs)
	})
	if err != nil {
		return nil, err
	}

	view, err := s.Get(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	s.publish(events.ProductEvent{
		Type:    events.ProductCreated,
		Product: *view,
		Actor:   actor,
		Message: fmt.Sprintf("%s created product '%s'", actor.Name, view.Title),
	})
	return view, nil
}

func (s *productService) Update(ctx context.Context, id uuid.UUID, in *ProductInput, actor events.Actor) (*model.ProductView, error) {
	attrs, err := s.validate(in)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := s.productRepo.WithTx(tx)
		existing, err := products.LockByID(ctx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		if err != nil {
			return err
		}

		existing.Title = strings.TrimSpace(in.Title)
		existing.Excerpt = in.Excerpt
		if in.Status != "" {
			existing.Status = in.Status
		}
		if in.ProductType != "" {
			existing.ProductType = in.ProductType
		}
		existing.UpdatedBy = actor.ID

		if err := products.Update(ctx, existing); err != nil {
			return err
		}
		return s.writeMeta(ctx, tx, existing.ID, in, attrs)
	})
	if err != nil {
		return nil, err
	}

	view, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(events.ProductEvent{
		Type:    events.ProductUpdated,
		Product: *view,
		Actor:   actor,
		Message: fmt.Sprintf("%s updated product '%s'", actor.Name, view.Title),
	})
	return view, nil
}

// writeMeta replaces the product's managed metadata inside tx.
func (s *productService) writeMeta(ctx context.Context, tx *gorm.DB, productID uuid.UUID, in *ProductInput, attrs []model.ProductAttribute) error {
	upserts := make(map[string]string)
	var deletes []string

	set := func(key, value string) {
		if value == "" {
			deletes = append(deletes, key)
			return
		}
		upserts[key] = value
	}

	set(model.MetaSKU, strings.TrimSpace(in.SKU))
	if in.RegularPrice.Set {
		set(model.MetaRegularPrice, in.RegularPrice.Value.String())
	} else {
		set(model.MetaRegularPrice, "")
	}
	if in.SalePrice.Set {
		set(model.MetaSalePrice, in.SalePrice.Value.String())
	} else {
		set(model.MetaSalePrice, "")
	}

	if attrs == nil {
		set(model.MetaAttributes, "")
	} else {
		encoded, err := model.EncodeAttributes(attrs)
		if err != nil {
			return err
		}
		set(model.MetaAttributes, encoded)
	}

	for key, value := range in.Meta {
		set(key, value)
	}

	metas := s.metaRepo.WithTx(tx)
	if err := metas.UpsertMany(ctx, productID, upserts); err != nil {
		return fmt.Errorf("write product meta: %w", err)
	}
	if err := metas.DeleteKeys(ctx, productID, deletes...); err != nil {
		return fmt.Errorf("delete product meta: %w", err)
	}
	return s.stock.Apply(ctx, tx, productID, in.Stock.Ptr())
}

func (s *productService) Delete(ctx context.Context, id uuid.UUID, actor events.Actor) error {
	view, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.productRepo.WithTx(tx).LockByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}
		if err := s.metaRepo.WithTx(tx).DeleteByProduct(ctx, id); err != nil {
			return err
		}
		err := s.productRepo.WithTx(tx).Delete(ctx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return err
	})
	if err != nil {
		return err
	}

	s.publish(events.ProductEvent{
		Type:    events.ProductDeleted,
		Product: *view,
		Actor:   actor,
		Message: fmt.Sprintf("%s deleted product '%s'", actor.Name, view.Title),
	})
	return nil
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*model.ProductView, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.view(ctx, product)
}

func (s *productService) GetBySlug(ctx context.Context, slug string) (*model.ProductView, error) {
	product, err := s.productRepo.FindBySlug(ctx, slug)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.view(ctx, product)
}

func (s *productService) GetForEdit(ctx context.Context, id uuid.UUID) (*ProductEdit, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	metas, err := s.metaRepo.FindByProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	view := buildView(product, metas)
	return &ProductEdit{Product: view, Meta: metas}, nil
}

func (s *productService) List(ctx context.Context, f repository.ProductFilter) ([]model.ProductView, error) {
	products, err := s.productRepo.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	metas, err := s.metaRepo.FindByProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	views := make([]model.ProductView, 0, len(products))
	for i := range products {
		views = append(views, buildView(&products[i], metas[products[i].ID]))
	}
	return views, nil
}

func (s *productService) view(ctx context.Context, product *model.Product) (*model.ProductView, error) {
	metas, err := s.metaRepo.FindByProduct(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	v := buildView(product, metas)
	return &v, nil
}

// buildView projects the product and logs any metadata that could not be read.
func buildView(product *model.Product, metas []model.PostMeta) model.ProductView {
	v, issues := model.BuildProductView(product, metas)
	for _, issue := range issues {
		applog.L().Warn().
			Err(issue.Err).
			Str("product_id", product.ID.String()).
			Str("meta_key", issue.Key).
			Str("meta_value", issue.Value).
			Msg("corrupt product metadata")
	}
	return v
}

// publish hands the event to the publisher off the request path.
func (s *productService) publish(ev events.ProductEvent) {
	ev.At = time.Now().UTC()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.publisher.Publish(ctx, ev); err != nil {
			applog.L().Error().Err(err).Str("event", ev.Type).Str("product_id", ev.Product.ID.String()).Msg("publish catalog event")
		}
	}()
}
