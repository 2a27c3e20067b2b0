package command

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	catalogdomain "github.com/nayher/commerce-backend/internal/catalog/domain"
	orderdomain "github.com/nayher/commerce-backend/internal/order/domain"
	"github.com/nayher/commerce-backend/internal/review/domain"
	"github.com/nayher/commerce-backend/pkg/apperr"
	"github.com/nayher/commerce-backend/pkg/logger"
)

type CreateReviewCommand struct {
	ProductID primitive.ObjectID
	// UserID is zero for anonymous reviews.
	UserID        primitive.ObjectID
	ReviewerName  string
	ReviewerEmail string
	Rating        int
	Title         string
	Comment       string
}

type CreateReviewHandler struct {
	reviews  domain.ReviewRepository
	products catalogdomain.ProductRepository
	orders   orderdomain.OrderRepository
	syncer   *RatingSyncer
}

func NewCreateReviewHandler(
	reviews domain.ReviewRepository,
	products catalogdomain.ProductRepository,
	orders orderdomain.OrderRepository,
	syncer *RatingSyncer,
) *CreateReviewHandler {
	return &CreateReviewHandler{reviews: reviews, products: products, orders: orders, syncer: syncer}
}

// Handle creates a review. Any visitor may review; signed-in reviewers are
// limited to one review per product and can earn the verified purchase badge
// when a delivered order contains the product. New reviews are visible
// immediately; moderation acts after the fact, and edits drop the approval.
func (h *CreateReviewHandler) Handle(ctx context.Context, cmd CreateReviewCommand) (*domain.Review, error) {
	if cmd.Rating < 1 || cmd.Rating > 5 {
		return nil, apperr.New(apperr.CodeInvalidArgument, "Rating must be between 1 and 5")
	}
	if strings.TrimSpace(cmd.ReviewerName) == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "Reviewer name is required")
	}
	if strings.TrimSpace(cmd.Title) == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "Title is required")
	}
	if strings.TrimSpace(cmd.Comment) == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "Comment is required")
	}

	product, err := h.products.FindByID(ctx, cmd.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, apperr.New(apperr.CodeNotFound, "Product not found")
	}

	review := &domain.Review{
		ProductID:     cmd.ProductID,
		UserID:        cmd.UserID,
		ReviewerName:  strings.TrimSpace(cmd.ReviewerName),
		ReviewerEmail: strings.TrimSpace(cmd.ReviewerEmail),
		Rating:        cmd.Rating,
		Title:         strings.TrimSpace(cmd.Title),
		Comment:       strings.TrimSpace(cmd.Comment),
		IsApproved:    true,
	}
	if !cmd.UserID.IsZero() {
		review.IsVerifiedPurchase = h.hasDeliveredOrder(ctx, cmd.UserID, cmd.ProductID)
	}
	if err := h.reviews.Create(ctx, review); err != nil {
		return nil, err
	}

	h.syncer.Sync(ctx, cmd.ProductID)
	logger.Info(ctx).
		Str("product_id", cmd.ProductID.Hex()).
		Int("rating", cmd.Rating).
		Bool("anonymous", cmd.UserID.IsZero()).
		Msg("Review created")
	return review, nil
}

func (h *CreateReviewHandler) hasDeliveredOrder(ctx context.Context, userID, productID primitive.ObjectID) bool {
	filter := orderdomain.OrderFilter{
		UserID: &userID,
		Status: orderdomain.StatusDelivered,
		Limit:  50,
	}
	orders, _, err := h.orders.List(ctx, filter)
	if err != nil {
		logger.Warn(ctx).Err(err).Msg("Failed to check purchase history")
		return false
	}
	for _, order := range orders {
		for _, item := range order.Items {
			if item.ProductID == productID {
				return true
			}
		}
	}
	return false
}
