package command

import (
	"context"
	"math"

	"go.mongodb.org/mongo-driver/bson/primitive"

	catalogdomain "github.com/nayher/commerce-backend/internal/catalog/domain"
	"github.com/nayher/commerce-backend/internal/review/domain"
	"github.com/nayher/commerce-backend/pkg/logger"
)

// RatingSyncer recomputes a product's rating aggregate from its approved
// reviews. Every review mutation funnels through it.
type RatingSyncer struct {
	reviews  domain.ReviewRepository
	products catalogdomain.ProductRepository
}

func NewRatingSyncer(reviews domain.ReviewRepository, products catalogdomain.ProductRepository) *RatingSyncer {
	return &RatingSyncer{reviews: reviews, products: products}
}

// Sync writes the current aggregate onto the product. Failures are logged, not
// returned; the reviews collection stays the source of truth.
func (s *RatingSyncer) Sync(ctx context.Context, productID primitive.ObjectID) {
	stats, err := s.reviews.Stats(ctx, productID)
	if err != nil {
		logger.Warn(ctx).Err(err).Str("product_id", productID.Hex()).Msg("Failed to aggregate product rating")
		return
	}
	rating := catalogdomain.Rating{
		Average: math.Round(stats.Average*10) / 10,
		Count:   stats.Count,
	}
	if err := s.products.UpdateRating(ctx, productID, rating); err != nil {
		logger.Warn(ctx).Err(err).Str("product_id", productID.Hex()).Msg("Failed to update product rating")
	}
}
