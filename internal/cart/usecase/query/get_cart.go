package query

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	cartdomain "github.com/nayher/commerce-backend/internal/cart/domain"
	catalogdomain "github.com/nayher/commerce-backend/internal/catalog/domain"
	"github.com/nayher/commerce-backend/pkg/apperr"
	"github.com/nayher/commerce-backend/pkg/logger"
)

type GetCartQuery struct {
	UserID primitive.ObjectID
}

type GetCartHandler struct {
	carts    cartdomain.CartRepository
	products catalogdomain.ProductRepository
}

func NewGetCartHandler(carts cartdomain.CartRepository, products catalogdomain.ProductRepository) *GetCartHandler {
	return &GetCartHandler{carts: carts, products: products}
}

// Handle returns the user's cart joined with current product data. A user
// without a cart gets an empty one. Lines whose product disappeared or was
// deactivated are dropped from the view.
func (h *GetCartHandler) Handle(ctx context.Context, q GetCartQuery) (*cartdomain.PopulatedCart, error) {
	cart, err := h.carts.FindByUser(ctx, q.UserID)
	if err != nil {
		if apperr.IsCode(err, apperr.CodeNotFound) {
			return &cartdomain.PopulatedCart{
				UserID: q.UserID,
				Items:  []cartdomain.PopulatedItem{},
			}, nil
		}
		return nil, err
	}

	populated := &cartdomain.PopulatedCart{
		ID:        cart.ID,
		UserID:    cart.UserID,
		Items:     make([]cartdomain.PopulatedItem, 0, len(cart.Items)),
		UpdatedAt: cart.UpdatedAt,
	}
	for _, item := range cart.Items {
		product, err := h.products.FindByID(ctx, item.ProductID)
		if err != nil {
			if apperr.IsCode(err, apperr.CodeNotFound) {
				logger.Warn(ctx).
					Str("product_id", item.ProductID.Hex()).
					Msg("Dropping cart item for missing product")
				continue
			}
			return nil, err
		}
		if !product.IsActive {
			continue
		}

		subtotal := product.Price * float64(item.Quantity)
		populated.Items = append(populated.Items, cartdomain.PopulatedItem{
			Product: cartdomain.ItemProduct{
				ID:     product.ID,
				Name:   product.Name,
				Price:  product.Price,
				Image:  product.FirstImageURL(),
				Stock:  product.Stock,
				Status: product.Status,
			},
			Quantity: item.Quantity,
			Price:    item.Price,
			Color:    item.Color,
			Size:     item.Size,
			AddedAt:  item.AddedAt,
			Subtotal: subtotal,
		})
		populated.TotalItems += item.Quantity
		populated.Subtotal += subtotal
	}
	return populated, nil
}
