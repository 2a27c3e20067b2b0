package command

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	cartdomain "github.com/nayher/commerce-backend/internal/cart/domain"
	catalogdomain "github.com/nayher/commerce-backend/internal/catalog/domain"
	"github.com/nayher/commerce-backend/pkg/apperr"
	"github.com/nayher/commerce-backend/pkg/logger"
)

type AddItemCommand struct {
	UserID    primitive.ObjectID
	ProductID primitive.ObjectID
	Quantity  int
	Color     string
	Size      string
}

type AddItemHandler struct {
	carts    cartdomain.CartRepository
	products catalogdomain.ProductRepository
}

func NewAddItemHandler(carts cartdomain.CartRepository, products catalogdomain.ProductRepository) *AddItemHandler {
	return &AddItemHandler{carts: carts, products: products}
}

// Handle adds a product variant to the user's cart, merging with an existing
// line for the same (product, color, size).
func (h *AddItemHandler) Handle(ctx context.Context, cmd AddItemCommand) error {
	if cmd.Quantity < 1 {
		return apperr.New(apperr.CodeInvalidArgument, "Quantity must be at least 1")
	}

	product, err := h.products.FindByID(ctx, cmd.ProductID)
	if err != nil {
		return err
	}
	if !product.IsActive {
		return apperr.New(apperr.CodeNotFound, "Product not found")
	}
	if product.Status != catalogdomain.StatusAvailable {
		return apperr.New(apperr.CodeUnavailable, "Product is not available for purchase")
	}

	cart, err := h.carts.FindByUser(ctx, cmd.UserID)
	if err != nil {
		if !apperr.IsCode(err, apperr.CodeNotFound) {
			return err
		}
		cart = &cartdomain.Cart{UserID: cmd.UserID}
	}

	if idx := cart.FindItem(cmd.ProductID, cmd.Color, cmd.Size); idx >= 0 {
		merged := cart.Items[idx].Quantity + cmd.Quantity
		if merged > product.Stock {
			return apperr.Newf(apperr.CodeUnavailable, "Only %d items available in stock", product.Stock)
		}
		cart.Items[idx].Quantity = merged
	} else {
		if cmd.Quantity > product.Stock {
			return apperr.Newf(apperr.CodeUnavailable, "Only %d items available in stock", product.Stock)
		}
		cart.Items = append(cart.Items, cartdomain.CartItem{
			ProductID: product.ID,
			Quantity:  cmd.Quantity,
			Price:     product.Price,
			Color:     cmd.Color,
			Size:      cmd.Size,
			AddedAt:   time.Now(),
		})
	}

	if err := h.carts.Save(ctx, cart); err != nil {
		return err
	}

	logger.Info(ctx).
		Str("user_id", cmd.UserID.Hex()).
		Str("product_id", cmd.ProductID.Hex()).
		Int("quantity", cmd.Quantity).
		Msg("Item added to cart")
	return nil
}
