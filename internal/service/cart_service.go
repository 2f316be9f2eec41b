package service

import (
	"context"
	"errors"

	"commust/internal/applog"
	"commust/internal/model"
	"commust/internal/repository"
	"commust/internal/session"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CartResult is the cart after a mutation, with the values mirrored into cookies.
type CartResult struct {
	State *model.CartState
	Hash  string
	Count int
	// Slug of the product touched by Add, for the redirect back to its page.
	Slug string
}

type CartLine struct {
	Key         string             `json:"key"`
	ProductID   uuid.UUID          `json:"product_id"`
	Title       string             `json:"title"`
	Slug        string             `json:"slug"`
	Quantity    int                `json:"quantity"`
	Price       *decimal.Decimal   `json:"price,omitempty"`
	Subtotal    *decimal.Decimal   `json:"subtotal,omitempty"`
	StockStatus *model.StockStatus `json:"stock_status,omitempty"`
}

// CartView is the rendered cart. Errors are the flash messages consumed by this view.
type CartView struct {
	Items  []CartLine      `json:"items"`
	Count  int             `json:"count"`
	Hash   string          `json:"hash"`
	Total  decimal.Decimal `json:"total"`
	Errors []string        `json:"errors"`
}

type CartService interface {
	Add(ctx context.Context, sc session.Context, productID uuid.UUID, qty int) (*CartResult, error)
	Update(ctx context.Context, sc session.Context, key string, qty int) (*CartResult, error)
	Remove(ctx context.Context, sc session.Context, key string) (*CartResult, error)
	Show(ctx context.Context, sc session.Context) (*CartView, error)
	// TakeErrors returns and clears the session's pending flash errors.
	TakeErrors(ctx context.Context, sc session.Context) ([]string, error)
}

// MaxLineQuantity bounds the quantity of a single cart line.
const MaxLineQuantity = 10000

type cartService struct {
	store       session.Store
	productRepo repository.ProductRepository
	metaRepo    repository.MetaRepository
	stock       StockPolicy
	newKey      func() string
}

func NewCartService(store session.Store, pRepo repository.ProductRepository, mRepo repository.MetaRepository, stock StockPolicy) CartService {
	return &cartService{
		store:       store,
		productRepo: pRepo,
		metaRepo:    mRepo,
		stock:       stock,
		newKey:      uuid.NewString,
	}
}

func (s *cartService) result(sc session.Context, state *model.CartState) *CartResult {
	return &CartResult{State: state, Hash: state.Hash(sc.VisitorID), Count: state.Count()}
}

// reject records a validation failure as a flash error and persists it. The cart lines are untouched.
func (s *cartService) reject(ctx context.Context, sc session.Context, state *model.CartState, cause error) (*CartResult, error) {
	state.AddError(cause.Error())
	if err := s.store.Save(ctx, sc.StoreKey, state); err != nil {
		return nil, err
	}
	return s.result(sc, state), cause
}

// Add puts qty units of a product in the cart, merging with an existing line.
// An id with no product row fails with ErrProductNotFound; a product without
// stock metadata is always addable.
func (s *cartService) Add(ctx context.Context, sc session.Context, productID uuid.UUID, qty int) (*CartResult, error) {
	if qty < 1 {
		return nil, invalid("quantity must be at least 1")
	}
	if qty > MaxLineQuantity {
		return nil, invalid("quantity must be at most %d", MaxLineQuantity)
	}
	product, err := s.productRepo.FindByID(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}

	state, err := s.store.Load(ctx, sc.StoreKey)
	if err != nil {
		return nil, err
	}

	inCart := state.QuantityOf(productID)
	if inCart+qty > MaxLineQuantity {
		return nil, invalid("a cart line holds at most %d units", MaxLineQuantity)
	}
	if err := s.stock.CheckAvailability(ctx, productID, qty, inCart); err != nil {
		if !IsValidation(err) {
			return nil, err
		}
		res, rerr := s.reject(ctx, sc, state, err)
		if res != nil {
			res.Slug = product.Slug
		}
		return res, rerr
	}

	state.Add(productID, qty, s.newKey())
	if err := s.store.Save(ctx, sc.StoreKey, state); err != nil {
		return nil, err
	}
	res := s.result(sc, state)
	res.Slug = product.Slug
	return res, nil
}

// Update sets the line's quantity. Positive quantities are checked against stock;
// zero is stored and the line stays until removed.
func (s *cartService) Update(ctx context.Context, sc session.Context, key string, qty int) (*CartResult, error) {
	if qty < 0 {
		return nil, invalid("quantity must not be negative")
	}
	if qty > MaxLineQuantity {
		return nil, invalid("quantity must be at most %d", MaxLineQuantity)
	}
	state, err := s.store.Load(ctx, sc.StoreKey)
	if err != nil {
		return nil, err
	}
	line, ok := state.Line(key)
	if !ok {
		return s.result(sc, state), nil
	}

	if qty > 0 {
		others := state.QuantityOf(line.ProductID) - line.Quantity
		if err := s.stock.CheckAvailability(ctx, line.ProductID, qty, others); err != nil {
			if !IsValidation(err) {
				return nil, err
			}
			return s.reject(ctx, sc, state, err)
		}
	}

	state.SetQuantity(key, qty)
	if err := s.store.Save(ctx, sc.StoreKey, state); err != nil {
		return nil, err
	}
	return s.result(sc, state), nil
}

func (s *cartService) Remove(ctx context.Context, sc session.Context, key string) (*CartResult, error) {
	state, err := s.store.Load(ctx, sc.StoreKey)
	if err != nil {
		return nil, err
	}
	if !state.Remove(key) {
		return s.result(sc, state), nil
	}
	if err := s.store.Save(ctx, sc.StoreKey, state); err != nil {
		return nil, err
	}
	return s.result(sc, state), nil
}

func (s *cartService) Show(ctx context.Context, sc session.Context) (*CartView, error) {
	state, err := s.store.Load(ctx, sc.StoreKey)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(state.Items))
	for _, it := range state.Items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	metas, err := s.metaRepo.FindByProducts(ctx, ids)
	if err != nil {
		return nil, err
	}

	view := &CartView{
		Items: make([]CartLine, 0, len(state.Items)),
		Count: state.Count(),
		Hash:  state.Hash(sc.VisitorID),
		Total: decimal.Zero,
	}
	for _, it := range state.Items {
		product, ok := products[it.ProductID]
		if !ok {
			applog.L().Info().
				Str("product_id", it.ProductID.String()).
				Str("line_key", it.Key).
				Msg("cart line refers to a deleted product")
			continue
		}
		pv := buildView(&product, metas[it.ProductID])
		line := CartLine{
			Key:         it.Key,
			ProductID:   it.ProductID,
			Title:       pv.Title,
			Slug:        pv.Slug,
			Quantity:    it.Quantity,
			Price:       pv.Price,
			StockStatus: pv.StockStatus,
		}
		if pv.Price != nil {
			sub := pv.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
			line.Subtotal = &sub
			view.Total = view.Total.Add(sub)
		}
		view.Items = append(view.Items, line)
	}
	return view, nil
}

func (s *cartService) TakeErrors(ctx context.Context, sc session.Context) ([]string, error) {
	state, err := s.store.Load(ctx, sc.StoreKey)
	if err != nil {
		return nil, err
	}
	errs := state.TakeErrors()
	if len(errs) == 0 {
		return nil, nil
	}
	if err := s.store.Save(ctx, sc.StoreKey, state); err != nil {
		return nil, err
	}
	return errs, nil
}
