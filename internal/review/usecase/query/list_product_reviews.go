package query

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nayher/commerce-backend/internal/review/domain"
)

type ListProductReviewsQuery struct {
	ProductID primitive.ObjectID
	Page      int
	Limit     int
}

type Pagination struct {
	Current int   `json:"current"`
	Pages   int   `json:"pages"`
	Total   int64 `json:"total"`
	HasNext bool  `json:"hasNext"`
	HasPrev bool  `json:"hasPrev"`
}

type ListProductReviewsResult struct {
	Reviews    []*domain.Review   `json:"reviews"`
	Statistics *domain.Statistics `json:"statistics"`
	Pagination Pagination         `json:"pagination"`
}

type ListProductReviewsHandler struct {
	reviews domain.ReviewRepository
}

func NewListProductReviewsHandler(reviews domain.ReviewRepository) *ListProductReviewsHandler {
	return &ListProductReviewsHandler{reviews: reviews}
}

// Handle returns a product's approved reviews plus its rating statistics.
func (h *ListProductReviewsHandler) Handle(ctx context.Context, q ListProductReviewsQuery) (*ListProductReviewsResult, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 {
		limit = 10
	}

	reviews, total, err := h.reviews.List(ctx, domain.ReviewFilter{
		ProductID:    &q.ProductID,
		ApprovedOnly: true,
		Page:         page,
		Limit:        limit,
	})
	if err != nil {
		return nil, err
	}
	if reviews == nil {
		reviews = []*domain.Review{}
	}

	stats, err := h.reviews.Stats(ctx, q.ProductID)
	if err != nil {
		return nil, err
	}

	pages := int((total + int64(limit) - 1) / int64(limit))
	return &ListProductReviewsResult{
		Reviews:    reviews,
		Statistics: stats,
		Pagination: Pagination{
			Current: page,
			Pages:   pages,
			Total:   total,
			HasNext: page < pages,
			HasPrev: page > 1,
		},
	}, nil
}
