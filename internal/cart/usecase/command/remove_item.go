package command

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	cartdomain "github.com/nayher/commerce-backend/internal/cart/domain"
	"github.com/nayher/commerce-backend/pkg/apperr"
)

type RemoveItemCommand struct {
	UserID    primitive.ObjectID
	ProductID primitive.ObjectID
	Color     string
	Size      string
}

type RemoveItemHandler struct {
	carts cartdomain.CartRepository
}

func NewRemoveItemHandler(carts cartdomain.CartRepository) *RemoveItemHandler {
	return &RemoveItemHandler{carts: carts}
}

// Handle removes a cart line. Removing an absent line is a no-op.
func (h *RemoveItemHandler) Handle(ctx context.Context, cmd RemoveItemCommand) error {
	cart, err := h.carts.FindByUser(ctx, cmd.UserID)
	if err != nil {
		if apperr.IsCode(err, apperr.CodeNotFound) {
			return nil
		}
		return err
	}

	idx := cart.FindItem(cmd.ProductID, cmd.Color, cmd.Size)
	if idx < 0 {
		return nil
	}
	cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	return h.carts.Save(ctx, cart)
}
