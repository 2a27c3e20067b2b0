package query

import (
	"context"

	"github.com/nayher/commerce-backend/internal/review/domain"
)

type ListAllReviewsQuery struct {
	Filter domain.ReviewFilter
}

type ListAllReviewsResult struct {
	Reviews    []*domain.Review `json:"reviews"`
	Pagination Pagination       `json:"pagination"`
}

type ListAllReviewsHandler struct {
	reviews domain.ReviewRepository
}

func NewListAllReviewsHandler(reviews domain.ReviewRepository) *ListAllReviewsHandler {
	return &ListAllReviewsHandler{reviews: reviews}
}

// Handle lists reviews across products for moderation.
func (h *ListAllReviewsHandler) Handle(ctx context.Context, q ListAllReviewsQuery) (*ListAllReviewsResult, error) {
	filter := q.Filter
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 10
	}

	reviews, total, err := h.reviews.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if reviews == nil {
		reviews = []*domain.Review{}
	}

	pages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	return &ListAllReviewsResult{
		Reviews: reviews,
		Pagination: Pagination{
			Current: filter.Page,
			Pages:   pages,
			Total:   total,
			HasNext: filter.Page < pages,
			HasPrev: filter.Page > 1,
		},
	}, nil
}
