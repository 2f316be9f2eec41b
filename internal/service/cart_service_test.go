package service

import (
	"context"
	"math"
	"testing"

	"commust/internal/model"
	"commust/internal/session"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func visitor() session.Context {
	return session.Context{StoreKey: "store-1", VisitorID: "visitor-1"}
}

func TestCartAddMergesQuantities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sc := visitor()
	p := f.product(t, "Mug", nil)

	var res *CartResult
	var err error
	for _, n := range []int{1, 2, 3} {
		res, err = f.cart.Add(ctx, sc, p.ID, n)
		require.NoError(t, err)
	}

	require.Equal(t, 1, res.Count)
	assert.Equal(t, 6, res.State.Items[0].Quantity)
	assert.Equal(t, p.Slug, res.Slug)
	assert.Equal(t, res.State.Hash(sc.VisitorID), res.Hash)

	stored, err := f.store.Load(ctx, sc.StoreKey)
	require.NoError(t, err)
	assert.Equal(t, res.State.Items, stored.Items)
}

func TestCartAddOutOfStockLeavesCartUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sc := visitor()
	ok := f.product(t, "Plate", nil)
	out := f.product(t, "Mug", map[string]string{model.MetaStockStatus: "outofstock", model.MetaStock: "0"})

	before, err := f.cart.Add(ctx, sc, ok.ID, 1)
	require.NoError(t, err)

	res, err := f.cart.Add(ctx, sc, out.ID, 1)
	require.ErrorIs(t, err, ErrOutOfStock)
	require.NotNil(t, res)
	assert.Equal(t, before.Hash, res.Hash)
	assert.Equal(t, out.Slug, res.Slug)

	stored, err := f.store.Load(ctx, sc.StoreKey)
	require.NoError(t, err)
	assert.Equal(t, before.State.Items, stored.Items)
	assert.Len(t, stored.Errors, 1)

	errs, err := f.cart.TakeErrors(ctx, sc)
	require.NoError(t, err)
	assert.Equal(t, []string{ErrOutOfStock.Error()}, errs)

	errs, err = f.cart.TakeErrors(ctx, sc)
	require.NoError(t, err)
	assert.Empty(t, errs)
}

func TestCartAddRespectsStockAlreadyInCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sc := visitor()
	p := f.product(t, "Mug", map[string]string{model.MetaStockStatus: "instock", model.MetaStock: "3"})

	_, err := f.cart.Add(ctx, sc, p.ID, 2)
	require.NoError(t, err)

	_, err = f.cart.Add(ctx, sc, p.ID, 2)
	require.ErrorIs(t, err, ErrInsufficientStock)

	res, err := f.cart.Add(ctx, sc, p.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, res.State.QuantityOf(p.ID))
}

func TestCartAddRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Mug", nil)

	_, err := f.cart.Add(ctx, visitor(), p.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.cart.Add(ctx, visitor(), uuid.New(), 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCartAddCorruptStockIsRecoverable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Mug", map[string]string{model.MetaStockStatus: "instock", model.MetaStock: "n/a"})

	res, err := f.cart.Add(ctx, visitor(), p.ID, 1)
	require.ErrorIs(t, err, ErrCorruptMetadata)
	assert.Equal(t, 0, res.Count)
}

func TestCartUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sc := visitor()
	p := f.product(t, "Mug", map[string]string{model.MetaStockStatus: "instock", model.MetaStock: "3"})

	res, err := f.cart.Add(ctx, sc, p.ID, 1)
	require.NoError(t, err)
	key := res.State.Items[0].Key

	res, err = f.cart.Update(ctx, sc, key, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, res.State.Items[0].Quantity)

	res, err = f.cart.Update(ctx, sc, key, 4)
	require.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 3, res.State.Items[0].Quantity)

	res, err = f.cart.Update(ctx, sc, key, 0)
	require.NoError(t, err)
	require.Equal(t, 1, res.Count, "zero quantity lines stay until removed")
	assert.Equal(t, 0, res.State.Items[0].Quantity)

	before := res.Hash
	res, err = f.cart.Update(ctx, sc, "missing", 2)
	require.NoError(t, err)
	assert.Equal(t, before, res.Hash)
}

func TestCartRemove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sc := visitor()
	a := f.product(t, "A", nil)
	b := f.product(t, "B", nil)

	_, err := f.cart.Add(ctx, sc, a.ID, 1)
	require.NoError(t, err)
	res, err := f.cart.Add(ctx, sc, b.ID, 1)
	require.NoError(t, err)

	same, err := f.cart.Remove(ctx, sc, "unknown")
	require.NoError(t, err)
	assert.Equal(t, res.Hash, same.Hash)
	assert.Equal(t, 2, same.Count)

	res, err = f.cart.Remove(ctx, sc, res.State.Items[0].Key)
	require.NoError(t, err)
	require.Equal(t, 1, res.Count)
	assert.Equal(t, b.ID, res.State.Items[0].ProductID)
}

func TestCartShowDropsDeletedProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sc := visitor()
	a := f.product(t, "A", map[string]string{model.MetaRegularPrice: "10", model.MetaSalePrice: "7.5"})
	b := f.product(t, "B", map[string]string{model.MetaRegularPrice: "4"})
	c := f.product(t, "C", nil)

	for _, p := range []*model.Product{a, b, c} {
		_, err := f.cart.Add(ctx, sc, p.ID, 2)
		require.NoError(t, err)
	}
	require.NoError(t, f.products.Delete(ctx, b.ID))

	view, err := f.cart.Show(ctx, sc)
	require.NoError(t, err)
	require.Len(t, view.Items, 2)
	assert.Equal(t, 3, view.Count)
	assert.Equal(t, "A", view.Items[0].Title)
	assert.Equal(t, "15", view.Items[0].Subtotal.String())
	assert.Nil(t, view.Items[1].Price)
	assert.Equal(t, "15", view.Total.String())
}

func TestCartShowEmpty(t *testing.T) {
	f := newFixture(t)
	view, err := f.cart.Show(context.Background(), visitor())
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Equal(t, (&model.CartState{}).Hash("visitor-1"), view.Hash)
}

func TestCartUpdateRejectsNegativeQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sc := visitor()
	p := f.product(t, "Mug", map[string]string{model.MetaStockStatus: "instock", model.MetaStock: "3"})

	res, err := f.cart.Add(ctx, sc, p.ID, 1)
	require.NoError(t, err)
	key := res.State.Items[0].Key

	_, err = f.cart.Update(ctx, sc, key, -7)
	require.ErrorIs(t, err, ErrInvalidInput)

	stored, err := f.store.Load(ctx, sc.StoreKey)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Items[0].Quantity)
	assert.Empty(t, stored.Errors)
}

func TestCartQuantityBounds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sc := visitor()
	limited := f.product(t, "Mug", map[string]string{model.MetaStockStatus: "instock", model.MetaStock: "3"})
	open := f.product(t, "Plate", nil)

	_, err := f.cart.Add(ctx, sc, limited.ID, 2)
	require.NoError(t, err)

	_, err = f.cart.Add(ctx, sc, limited.ID, math.MaxInt)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.cart.Add(ctx, sc, open.ID, MaxLineQuantity)
	require.NoError(t, err)
	_, err = f.cart.Add(ctx, sc, open.ID, 1)
	require.ErrorIs(t, err, ErrInvalidInput)

	res, err := f.cart.Update(ctx, sc, "any", MaxLineQuantity+1)
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Nil(t, res)

	stored, err := f.store.Load(ctx, sc.StoreKey)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.QuantityOf(limited.ID))
	assert.Equal(t, MaxLineQuantity, stored.QuantityOf(open.ID))
}
