package command

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	cartdomain "github.com/nayher/commerce-backend/internal/cart/domain"
	catalogdomain "github.com/nayher/commerce-backend/internal/catalog/domain"
	"github.com/nayher/commerce-backend/pkg/apperr"
)

type UpdateItemCommand struct {
	UserID    primitive.ObjectID
	ProductID primitive.ObjectID
	Quantity  int
	Color     string
	Size      string
}

type UpdateItemHandler struct {
	carts    cartdomain.CartRepository
	products catalogdomain.ProductRepository
}

func NewUpdateItemHandler(carts cartdomain.CartRepository, products catalogdomain.ProductRepository) *UpdateItemHandler {
	return &UpdateItemHandler{carts: carts, products: products}
}

// Handle sets the quantity of an existing cart line.
func (h *UpdateItemHandler) Handle(ctx context.Context, cmd UpdateItemCommand) error {
	if cmd.Quantity < 1 {
		return apperr.New(apperr.CodeInvalidArgument, "Quantity must be at least 1")
	}

	cart, err := h.carts.FindByUser(ctx, cmd.UserID)
	if err != nil {
		return err
	}
	idx := cart.FindItem(cmd.ProductID, cmd.Color, cmd.Size)
	if idx < 0 {
		return apperr.New(apperr.CodeNotFound, "Item not found in cart")
	}

	product, err := h.products.FindByID(ctx, cmd.ProductID)
	if err != nil {
		return err
	}
	if cmd.Quantity > product.Stock {
		return apperr.Newf(apperr.CodeUnavailable, "Only %d items available in stock", product.Stock)
	}

	cart.Items[idx].Quantity = cmd.Quantity
	return h.carts.Save(ctx, cart)
}
