package query

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

func (f *fakeCartRepo) FindByUser(ctx context.Context, userID primitive.ObjectID) (*cartdomain.Cart, error) {
	cart, ok := f.carts[userID]
	if !ok {
		return nil, apperr.New(apperr.CodeNotFound, "Cart not found")
	}
	return cart, nil
}

func (f *fakeCartRepo) Save(ctx context.Context, cart *cartdomain.Cart) error {
	f.carts[cart.UserID] = cart
	return nil
}

type fakeProductRepo struct {
	products map[primitive.ObjectID]*catalogdomain.Product
}

func (f *fakeProductRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*catalogdomain.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, apperr.New(apperr.CodeNotFound, "Product not found")
	}
	return p, nil
}

func (f *fakeProductRepo) Create(ctx context.Context, p *catalogdomain.Product) error { return nil }
func (f *fakeProductRepo) List(ctx context.Context, filter catalogdomain.ProductFilter) ([]catalogdomain.Product, int64, error) {
	return nil, 0, nil
}
func (f *fakeProductRepo) Update(ctx context.Context, p *catalogdomain.Product) error { return nil }
func (f *fakeProductRepo) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	return nil
}
func (f *fakeProductRepo) CountActiveInCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error) {
	return 0, nil
}
func (f *fakeProductRepo) FindOldestActiveInCategory(ctx context.Context, categoryID, exclude primitive.ObjectID) (*catalogdomain.Product, error) {
	return nil, apperr.New(apperr.CodeNotFound, "Product not found")
}
func (f *fakeProductRepo) UpdateRating(ctx context.Context, id primitive.ObjectID, rating catalogdomain.Rating) error {
	return nil
}

func TestGetCart(t *testing.T) {
	ctx := context.Background()
	userID := primitive.NewObjectID()

	t.Run("missing cart hydrates as empty", func(t *testing.T) {
		handler := NewGetCartHandler(
			&fakeCartRepo{carts: map[primitive.ObjectID]*cartdomain.Cart{}},
			&fakeProductRepo{products: map[primitive.ObjectID]*catalogdomain.Product{}},
		)
		cart, err := handler.Handle(ctx, GetCartQuery{UserID: userID})
		require.NoError(t, err)
		assert.Empty(t, cart.Items)
		assert.Zero(t, cart.Subtotal)
	})

	t.Run("joins current product data and drops dead lines", func(t *testing.T) {
		live := &catalogdomain.Product{
			ID:       primitive.NewObjectID(),
			Name:     "Hooded Bath Towel",
			Price:    799,
			Stock:    4,
			Status:   catalogdomain.StatusAvailable,
			IsActive: true,
			Images:   []catalogdomain.ProductImage{{URL: "https://cdn.example.com/towel.jpg"}},
		}
		retired := &catalogdomain.Product{
			ID:       primitive.NewObjectID(),
			Name:     "Old Towel",
			IsActive: false,
		}
		carts := &fakeCartRepo{carts: map[primitive.ObjectID]*cartdomain.Cart{
			userID: {
				UserID: userID,
				Items: []cartdomain.CartItem{
					{ProductID: live.ID, Quantity: 2, Price: 749},
					{ProductID: retired.ID, Quantity: 1, Price: 500},
					{ProductID: primitive.NewObjectID(), Quantity: 1, Price: 300},
				},
			},
		}}
		products := &fakeProductRepo{products: map[primitive.ObjectID]*catalogdomain.Product{
			live.ID:    live,
			retired.ID: retired,
		}}

		cart, err := NewGetCartHandler(carts, products).Handle(ctx, GetCartQuery{UserID: userID})
		require.NoError(t, err)
		require.Len(t, cart.Items, 1)

		item := cart.Items[0]
		assert.Equal(t, "Hooded Bath Towel", item.Product.Name)
		assert.Equal(t, "https://cdn.example.com/towel.jpg", item.Product.Image)
		// Snapshot price is reported, subtotal uses the current price.
		assert.Equal(t, 749.0, item.Price)
		assert.Equal(t, 1598.0, item.Subtotal)
		assert.Equal(t, 2, cart.TotalItems)
		assert.Equal(t, 1598.0, cart.Subtotal)
	})
}
