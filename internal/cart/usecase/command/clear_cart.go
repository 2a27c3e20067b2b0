package command

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	cartdomain "github.com/nayher/commerce-backend/internal/cart/domain"
	"github.com/nayher/commerce-backend/pkg/apperr"
)

type ClearCartCommand struct {
	UserID primitive.ObjectID
}

type ClearCartHandler struct {
	carts cartdomain.CartRepository
}

func NewClearCartHandler(carts cartdomain.CartRepository) *ClearCartHandler {
	return &ClearCartHandler{carts: carts}
}

// Handle empties the user's cart. Clearing a missing cart is a no-op.
func (h *ClearCartHandler) Handle(ctx context.Context, cmd ClearCartCommand) error {
	cart, err := h.carts.FindByUser(ctx, cmd.UserID)
	if err != nil {
		if apperr.IsCode(err, apperr.CodeNotFound) {
			return nil
		}
		return err
	}
	cart.Items = []cartdomain.CartItem{}
	return h.carts.Save(ctx, cart)
}
