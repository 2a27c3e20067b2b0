package command

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nayher/commerce-backend/internal/review/domain"
	"github.com/nayher/commerce-backend/pkg/logger"
)

type ApproveReviewCommand struct {
	ReviewID primitive.ObjectID
	Approved bool
}

type ApproveReviewHandler struct {
	reviews domain.ReviewRepository
	syncer  *RatingSyncer
}

func NewApproveReviewHandler(reviews domain.ReviewRepository, syncer *RatingSyncer) *ApproveReviewHandler {
	return &ApproveReviewHandler{reviews: reviews, syncer: syncer}
}

// Handle flips a review's moderation state and refreshes the product rating.
func (h *ApproveReviewHandler) Handle(ctx context.Context, cmd ApproveReviewCommand) (*domain.Review, error) {
	review, err := h.reviews.FindByID(ctx, cmd.ReviewID)
	if err != nil {
		return nil, err
	}
	review.IsApproved = cmd.Approved
	if err := h.reviews.Update(ctx, review); err != nil {
		return nil, err
	}

	h.syncer.Sync(ctx, review.ProductID)
	logger.Info(ctx).
		Str("review_id", review.ID.Hex()).
		Bool("approved", cmd.Approved).
		Msg("Review moderation updated")
	return review, nil
}
