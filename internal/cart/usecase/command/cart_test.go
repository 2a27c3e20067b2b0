package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	cartdomain "github.com/nayher/commerce-backend/internal/cart/domain"
	catalogdomain "github.com/nayher/commerce-backend/internal/catalog/domain"
	"github.com/nayher/commerce-backend/pkg/apperr"
)

type fakeCartRepo struct {
	carts map[primitive.ObjectID]*cartdomain.Cart
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{carts: map[primitive.ObjectID]*cartdomain.Cart{}}
}

func (f *fakeCartRepo) FindByUser(ctx context.Context, userID primitive.ObjectID) (*cartdomain.Cart, error) {
	cart, ok := f.carts[userID]
	if !ok {
		return nil, apperr.New(apperr.CodeNotFound, "Cart not found")
	}
	cp := *cart
	cp.Items = append([]cartdomain.CartItem(nil), cart.Items...)
	return &cp, nil
}

func (f *fakeCartRepo) Save(ctx context.Context, cart *cartdomain.Cart) error {
	if cart.ID.IsZero() {
		cart.ID = primitive.NewObjectID()
	}
	cp := *cart
	cp.Items = append([]cartdomain.CartItem(nil), cart.Items...)
	f.carts[cart.UserID] = &cp
	return nil
}

type fakeProductFinder struct {
	products map[primitive.ObjectID]*catalogdomain.Product
}

func newFakeProductFinder(products ...*catalogdomain.Product) *fakeProductFinder {
	f := &fakeProductFinder{products: map[primitive.ObjectID]*catalogdomain.Product{}}
	for _, p := range products {
		f.products[p.ID] = p
	}
	return f
}

func (f *fakeProductFinder) FindByID(ctx context.Context, id primitive.ObjectID) (*catalogdomain.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, apperr.New(apperr.CodeNotFound, "Product not found")
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProductFinder) Create(ctx context.Context, p *catalogdomain.Product) error { return nil }
func (f *fakeProductFinder) List(ctx context.Context, filter catalogdomain.ProductFilter) ([]catalogdomain.Product, int64, error) {
	return nil, 0, nil
}
func (f *fakeProductFinder) Update(ctx context.Context, p *catalogdomain.Product) error { return nil }
func (f *fakeProductFinder) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	return nil
}
func (f *fakeProductFinder) CountActiveInCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error) {
	return 0, nil
}
func (f *fakeProductFinder) FindOldestActiveInCategory(ctx context.Context, categoryID, exclude primitive.ObjectID) (*catalogdomain.Product, error) {
	return nil, apperr.New(apperr.CodeNotFound, "Product not found")
}
func (f *fakeProductFinder) UpdateRating(ctx context.Context, id primitive.ObjectID, rating catalogdomain.Rating) error {
	return nil
}

func stockedProduct(stock int) *catalogdomain.Product {
	return &catalogdomain.Product{
		ID:       primitive.NewObjectID(),
		Name:     "Organic Cotton Onesie",
		Price:    499,
		Stock:    stock,
		Status:   catalogdomain.StatusAvailable,
		IsActive: true,
	}
}

func TestAddItem(t *testing.T) {
	ctx := context.Background()
	userID := primitive.NewObjectID()

	t.Run("adds a new line with a price snapshot", func(t *testing.T) {
		carts := newFakeCartRepo()
		product := stockedProduct(5)
		handler := NewAddItemHandler(carts, newFakeProductFinder(product))

		err := handler.Handle(ctx, AddItemCommand{UserID: userID, ProductID: product.ID, Quantity: 2, Size: "0-3m"})
		require.NoError(t, err)

		cart, err := carts.FindByUser(ctx, userID)
		require.NoError(t, err)
		require.Len(t, cart.Items, 1)
		assert.Equal(t, 2, cart.Items[0].Quantity)
		assert.Equal(t, 499.0, cart.Items[0].Price)
		assert.Equal(t, "0-3m", cart.Items[0].Size)
	})

	t.Run("merges lines on product, color and size", func(t *testing.T) {
		carts := newFakeCartRepo()
		product := stockedProduct(5)
		handler := NewAddItemHandler(carts, newFakeProductFinder(product))

		require.NoError(t, handler.Handle(ctx, AddItemCommand{UserID: userID, ProductID: product.ID, Quantity: 2}))
		require.NoError(t, handler.Handle(ctx, AddItemCommand{UserID: userID, ProductID: product.ID, Quantity: 3}))

		cart, _ := carts.FindByUser(ctx, userID)
		require.Len(t, cart.Items, 1)
		assert.Equal(t, 5, cart.Items[0].Quantity)
	})

	t.Run("different variants stay separate lines", func(t *testing.T) {
		carts := newFakeCartRepo()
		product := stockedProduct(10)
		handler := NewAddItemHandler(carts, newFakeProductFinder(product))

		require.NoError(t, handler.Handle(ctx, AddItemCommand{UserID: userID, ProductID: product.ID, Quantity: 1, Color: "sage"}))
		require.NoError(t, handler.Handle(ctx, AddItemCommand{UserID: userID, ProductID: product.ID, Quantity: 1, Color: "clay"}))

		cart, _ := carts.FindByUser(ctx, userID)
		assert.Len(t, cart.Items, 2)
	})

	t.Run("merged quantity cannot exceed stock", func(t *testing.T) {
		carts := newFakeCartRepo()
		product := stockedProduct(5)
		handler := NewAddItemHandler(carts, newFakeProductFinder(product))

		require.NoError(t, handler.Handle(ctx, AddItemCommand{UserID: userID, ProductID: product.ID, Quantity: 2}))
		err := handler.Handle(ctx, AddItemCommand{UserID: userID, ProductID: product.ID, Quantity: 4})
		require.Error(t, err)
		assert.True(t, apperr.IsCode(err, apperr.CodeUnavailable))
		assert.Equal(t, "Only 5 items available in stock", apperr.MessageOf(err))

		cart, _ := carts.FindByUser(ctx, userID)
		assert.Equal(t, 2, cart.Items[0].Quantity)
	})

	t.Run("rejects quantity below one", func(t *testing.T) {
		product := stockedProduct(5)
		handler := NewAddItemHandler(newFakeCartRepo(), newFakeProductFinder(product))
		err := handler.Handle(ctx, AddItemCommand{UserID: userID, ProductID: product.ID, Quantity: 0})
		assert.True(t, apperr.IsCode(err, apperr.CodeInvalidArgument))
	})

	t.Run("rejects inactive and non-available products", func(t *testing.T) {
		inactive := stockedProduct(5)
		inactive.IsActive = false
		discontinued := stockedProduct(5)
		discontinued.Status = catalogdomain.StatusDiscontinued
		handler := NewAddItemHandler(newFakeCartRepo(), newFakeProductFinder(inactive, discontinued))

		err := handler.Handle(ctx, AddItemCommand{UserID: userID, ProductID: inactive.ID, Quantity: 1})
		assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))

		err = handler.Handle(ctx, AddItemCommand{UserID: userID, ProductID: discontinued.ID, Quantity: 1})
		assert.True(t, apperr.IsCode(err, apperr.CodeUnavailable))
	})
}

func TestUpdateItem(t *testing.T) {
	ctx := context.Background()
	userID := primitive.NewObjectID()

	setup := func(t *testing.T, stock int) (*fakeCartRepo, *catalogdomain.Product, *UpdateItemHandler) {
		t.Helper()
		carts := newFakeCartRepo()
		product := stockedProduct(stock)
		finder := newFakeProductFinder(product)
		require.NoError(t, NewAddItemHandler(carts, finder).Handle(ctx,
			AddItemCommand{UserID: userID, ProductID: product.ID, Quantity: 1}))
		return carts, product, NewUpdateItemHandler(carts, finder)
	}

	t.Run("sets the quantity", func(t *testing.T) {
		carts, product, handler := setup(t, 5)
		require.NoError(t, handler.Handle(ctx, UpdateItemCommand{UserID: userID, ProductID: product.ID, Quantity: 4}))

		cart, _ := carts.FindByUser(ctx, userID)
		assert.Equal(t, 4, cart.Items[0].Quantity)
	})

	t.Run("rejects quantity above stock", func(t *testing.T) {
		_, product, handler := setup(t, 5)
		err := handler.Handle(ctx, UpdateItemCommand{UserID: userID, ProductID: product.ID, Quantity: 6})
		require.Error(t, err)
		assert.True(t, apperr.IsCode(err, apperr.CodeUnavailable))
		assert.Equal(t, "Only 5 items available in stock", apperr.MessageOf(err))
	})

	t.Run("missing line is not found", func(t *testing.T) {
		_, _, handler := setup(t, 5)
		err := handler.Handle(ctx, UpdateItemCommand{UserID: userID, ProductID: primitive.NewObjectID(), Quantity: 1})
		assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
	})
}

func TestRemoveItem(t *testing.T) {
	ctx := context.Background()
	userID := primitive.NewObjectID()

	carts := newFakeCartRepo()
	product := stockedProduct(5)
	finder := newFakeProductFinder(product)
	require.NoError(t, NewAddItemHandler(carts, finder).Handle(ctx,
		AddItemCommand{UserID: userID, ProductID: product.ID, Quantity: 2}))

	handler := NewRemoveItemHandler(carts)

	require.NoError(t, handler.Handle(ctx, RemoveItemCommand{UserID: userID, ProductID: product.ID}))
	cart, _ := carts.FindByUser(ctx, userID)
	assert.Empty(t, cart.Items)

	// Removing again, or from a user without a cart, is a no-op.
	require.NoError(t, handler.Handle(ctx, RemoveItemCommand{UserID: userID, ProductID: product.ID}))
	require.NoError(t, handler.Handle(ctx, RemoveItemCommand{UserID: primitive.NewObjectID(), ProductID: product.ID}))
}

func TestClearCart(t *testing.T) {
	ctx := context.Background()
	userID := primitive.NewObjectID()

	carts := newFakeCartRepo()
	product := stockedProduct(5)
	require.NoError(t, NewAddItemHandler(carts, newFakeProductFinder(product)).Handle(ctx,
		AddItemCommand{UserID: userID, ProductID: product.ID, Quantity: 2}))

	handler := NewClearCartHandler(carts)
	require.NoError(t, handler.Handle(ctx, ClearCartCommand{UserID: userID}))

	cart, _ := carts.FindByUser(ctx, userID)
	assert.Empty(t, cart.Items)

	require.NoError(t, handler.Handle(ctx, ClearCartCommand{UserID: primitive.NewObjectID()}))
}
