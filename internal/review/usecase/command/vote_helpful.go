package command

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nayher/commerce-backend/internal/review/domain"
)

type VoteHelpfulCommand struct {
	ReviewID primitive.ObjectID
}

type VoteHelpfulHandler struct {
	reviews domain.ReviewRepository
}

func NewVoteHelpfulHandler(reviews domain.ReviewRepository) *VoteHelpfulHandler {
	return &VoteHelpfulHandler{reviews: reviews}
}

// Handle bumps a review's helpful counter.
func (h *VoteHelpfulHandler) Handle(ctx context.Context, cmd VoteHelpfulCommand) (*domain.Review, error) {
	review, err := h.reviews.FindByID(ctx, cmd.ReviewID)
	if err != nil {
		return nil, err
	}
	review.HelpfulCount++
	if err := h.reviews.Update(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}
