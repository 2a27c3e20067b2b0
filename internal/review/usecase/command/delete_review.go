package command

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nayher/commerce-backend/internal/review/domain"
	"github.com/nayher/commerce-backend/pkg/apperr"
)

type DeleteReviewCommand struct {
	ReviewID primitive.ObjectID
	UserID   primitive.ObjectID
	IsAdmin  bool
}

type DeleteReviewHandler struct {
	reviews domain.ReviewRepository
	syncer  *RatingSyncer
}

func NewDeleteReviewHandler(reviews domain.ReviewRepository, syncer *RatingSyncer) *DeleteReviewHandler {
	return &DeleteReviewHandler{reviews: reviews, syncer: syncer}
}

// Handle removes a review. Owners delete their own; admins delete any.
// Anonymous reviews have no owner, so only an admin may remove them.
func (h *DeleteReviewHandler) Handle(ctx context.Context, cmd DeleteReviewCommand) error {
	review, err := h.reviews.FindByID(ctx, cmd.ReviewID)
	if err != nil {
		return err
	}
	if !cmd.IsAdmin && (review.UserID.IsZero() || review.UserID != cmd.UserID) {
		return apperr.New(apperr.CodeForbidden, "Not allowed to delete this review")
	}

	if err := h.reviews.Delete(ctx, cmd.ReviewID); err != nil {
		return err
	}
	h.syncer.Sync(ctx, review.ProductID)
	return nil
}
