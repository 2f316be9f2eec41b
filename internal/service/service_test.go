package service

import (
	"context"
	"testing"
	"time"

	"commust/internal/events"
	"commust/internal/model"
	"commust/internal/repository"
	"commust/internal/session"
	"commust/pkg/database"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	products repository.ProductRepository
	metas    repository.MetaRepository
	stock    StockPolicy
	store    session.Store
	events   chanPublisher
	catalog  ProductService
	cart     CartService
}

type chanPublisher chan events.ProductEvent

func (c chanPublisher) Publish(_ context.Context, ev events.ProductEvent) error {
	c <- ev
	return nil
}

func (c chanPublisher) next(t *testing.T) events.ProductEvent {
	t.Helper()
	select {
	case ev := <-c:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event published")
		return events.ProductEvent{}
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	require.NoError(t, model.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	f := &fixture{
		db:       db,
		products: repository.NewProductRepo(db),
		metas:    repository.NewMetaRepo(db),
		store:    session.NewMemoryStore(time.Hour),
		events:   make(chanPublisher, 16),
	}
	f.stock = NewStockPolicy(f.metas)
	f.catalog = NewProductService(f.products, f.metas, f.stock, db, f.events)
	f.cart = NewCartService(f.store, f.products, f.metas, f.stock)
	return f
}

// product creates a product directly and sets its metadata.
func (f *fixture) product(t *testing.T, title string, meta map[string]string) *model.Product {
	t.Helper()
	ctx := context.Background()
	p := &model.Product{Title: title}
	require.NoError(t, f.products.Create(ctx, p))
	require.NoError(t, f.metas.UpsertMany(ctx, p.ID, meta))
	return p
}

// author stores a user that products can reference and returns it as an event actor.
func (f *fixture) author(t *testing.T) events.Actor {
	t.Helper()
	u := &model.User{Email: "ann@example.com", FullName: "Ann", Role: model.RoleAdmin}
	require.NoError(t, u.SetPassword("secret"))
	require.NoError(t, repository.NewUserRepo(f.db).Create(context.Background(), u))
	return events.Actor{ID: u.ID.String(), Name: u.FullName, Email: u.Email}
}

func (f *fixture) meta(t *testing.T, p *model.Product) map[string]string {
	t.Helper()
	metas, err := f.metas.FindByProduct(context.Background(), p.ID)
	require.NoError(t, err)
	return model.MetaMap(metas)
}
