package command

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nayher/commerce-backend/internal/review/domain"
	"github.com/nayher/commerce-backend/pkg/apperr"
)

type UpdateReviewCommand struct {
	ReviewID primitive.ObjectID
	UserID   primitive.ObjectID
	Rating   int
	Title    string
	Comment  string
}

type UpdateReviewHandler struct {
	reviews domain.ReviewRepository
	syncer  *RatingSyncer
}

func NewUpdateReviewHandler(reviews domain.ReviewRepository, syncer *RatingSyncer) *UpdateReviewHandler {
	return &UpdateReviewHandler{reviews: reviews, syncer: syncer}
}

// Handle edits the caller's own review. Edits drop the approval so the review
// goes back through moderation.
func (h *UpdateReviewHandler) Handle(ctx context.Context, cmd UpdateReviewCommand) (*domain.Review, error) {
	if cmd.Rating < 1 || cmd.Rating > 5 {
		return nil, apperr.New(apperr.CodeInvalidArgument, "Rating must be between 1 and 5")
	}
	if strings.TrimSpace(cmd.Comment) == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "Comment is required")
	}

	review, err := h.reviews.FindByID(ctx, cmd.ReviewID)
	if err != nil {
		return nil, err
	}
	if review.UserID.IsZero() || review.UserID != cmd.UserID {
		return nil, apperr.New(apperr.CodeForbidden, "Not allowed to edit this review")
	}

	review.Rating = cmd.Rating
	review.Title = strings.TrimSpace(cmd.Title)
	review.Comment = strings.TrimSpace(cmd.Comment)
	review.IsApproved = false

	if err := h.reviews.Update(ctx, review); err != nil {
		return nil, err
	}
	h.syncer.Sync(ctx, review.ProductID)
	return review, nil
}
