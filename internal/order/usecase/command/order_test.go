package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	catalogdomain "github.com/nayher/commerce-backend/internal/catalog/domain"
	"github.com/nayher/commerce-backend/internal/order/domain"
	"github.com/nayher/commerce-backend/pkg/apperr"
)

type fakeProductRepo struct {
	products map[primitive.ObjectID]*catalogdomain.Product
}

func newFakeProductRepo(products ...*catalogdomain.Product) *fakeProductRepo {
	f := &fakeProductRepo{products: map[primitive.ObjectID]*catalogdomain.Product{}}
	for _, p := range products {
		f.products[p.ID] = p
	}
	return f
}

func (f *fakeProductRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*catalogdomain.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, apperr.New(apperr.CodeNotFound, "Product not found")
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProductRepo) Create(ctx context.Context, p *catalogdomain.Product) error { return nil }
func (f *fakeProductRepo) List(ctx context.Context, filter catalogdomain.ProductFilter) ([]catalogdomain.Product, int64, error) {
	return nil, 0, nil
}
func (f *fakeProductRepo) Update(ctx context.Context, p *catalogdomain.Product) error { return nil }
func (f *fakeProductRepo) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	return nil
}
func (f *fakeProductRepo) CountActiveInCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error) {
	return 0, nil
}
func (f *fakeProductRepo) FindOldestActiveInCategory(ctx context.Context, categoryID, exclude primitive.ObjectID) (*catalogdomain.Product, error) {
	return nil, apperr.New(apperr.CodeNotFound, "Product not found")
}
func (f *fakeProductRepo) UpdateRating(ctx context.Context, id primitive.ObjectID, rating catalogdomain.Rating) error {
	return nil
}

type fakeOrderRepo struct {
	orders map[primitive.ObjectID]*domain.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[primitive.ObjectID]*domain.Order{}}
}

func (f *fakeOrderRepo) Create(ctx context.Context, order *domain.Order) error {
	for _, existing := range f.orders {
		if existing.OrderNumber == order.OrderNumber {
			return apperr.New(apperr.CodeConflict, "Order number already exists")
		}
	}
	order.ID = primitive.NewObjectID()
	order.CreatedAt = time.Now()
	cp := *order
	f.orders[order.ID] = &cp
	return nil
}

func (f *fakeOrderRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, apperr.New(apperr.CodeNotFound, "Order not found")
	}
	cp := *order
	return &cp, nil
}

func (f *fakeOrderRepo) FindByOrderNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	for _, order := range f.orders {
		if order.OrderNumber == orderNumber {
			cp := *order
			return &cp, nil
		}
	}
	return nil, apperr.New(apperr.CodeNotFound, "Order not found")
}

func (f *fakeOrderRepo) FindByTransactionID(ctx context.Context, transactionID string) (*domain.Order, error) {
	for _, order := range f.orders {
		if order.Payment.TransactionID == transactionID {
			cp := *order
			return &cp, nil
		}
	}
	return nil, apperr.New(apperr.CodeNotFound, "Order not found")
}

func (f *fakeOrderRepo) List(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, int64, error) {
	var out []*domain.Order
	for _, order := range f.orders {
		if filter.UserID != nil && order.UserID != *filter.UserID {
			continue
		}
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		cp := *order
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

func (f *fakeOrderRepo) Update(ctx context.Context, order *domain.Order) error {
	if _, ok := f.orders[order.ID]; !ok {
		return apperr.New(apperr.CodeNotFound, "Order not found")
	}
	cp := *order
	f.orders[order.ID] = &cp
	return nil
}

func seedOrder(t *testing.T, repo *fakeOrderRepo, userID primitive.ObjectID, status string) *domain.Order {
	t.Helper()
	handler := NewCreateOrderHandler(repo, newFakeProductRepo(), "NYH")
	order, err := handler.Handle(context.Background(), CreateOrderCommand{
		UserID: userID,
		Items: []domain.OrderItem{{
			ProductID: primitive.NewObjectID(),
			Name:      "Knit Baby Booties",
			Price:     349,
			Quantity:  1,
		}},
		Subtotal: 349,
		Total:    349,
		Status:   status,
		Payment:  domain.PaymentInfo{Method: domain.PaymentMethodCOD, Status: "pending"},
	})
	require.NoError(t, err)
	return order
}

func TestCreateOrder(t *testing.T) {
	ctx := context.Background()
	repo := newFakeOrderRepo()
	handler := NewCreateOrderHandler(repo, newFakeProductRepo(), "NYH")

	t.Run("assigns an order number and persists", func(t *testing.T) {
		order := seedOrder(t, repo, primitive.NewObjectID(), domain.StatusPending)
		assert.Regexp(t, `^NYH\d{6}[0-9A-Z]{6}$`, order.OrderNumber)
		assert.False(t, order.ID.IsZero())
	})

	t.Run("rejects empty orders", func(t *testing.T) {
		_, err := handler.Handle(ctx, CreateOrderCommand{UserID: primitive.NewObjectID()})
		assert.True(t, apperr.IsCode(err, apperr.CodeInvalidArgument))
	})

	t.Run("rejects unknown statuses", func(t *testing.T) {
		_, err := handler.Handle(ctx, CreateOrderCommand{
			UserID: primitive.NewObjectID(),
			Items:  []domain.OrderItem{{ProductID: primitive.NewObjectID(), Quantity: 1}},
			Status: "returned",
		})
		assert.True(t, apperr.IsCode(err, apperr.CodeInvalidArgument))
	})

	t.Run("stock validation guards direct orders", func(t *testing.T) {
		product := &catalogdomain.Product{
			ID:       primitive.NewObjectID(),
			Name:     "Organic Cotton Onesie",
			Stock:    2,
			Status:   catalogdomain.StatusAvailable,
			IsActive: true,
		}
		handler := NewCreateOrderHandler(newFakeOrderRepo(), newFakeProductRepo(product), "NYH")

		_, err := handler.Handle(ctx, CreateOrderCommand{
			UserID:        primitive.NewObjectID(),
			Items:         []domain.OrderItem{{ProductID: product.ID, Name: product.Name, Price: 599, Quantity: 3}},
			ValidateStock: true,
		})
		require.Error(t, err)
		assert.True(t, apperr.IsCode(err, apperr.CodeUnavailable))
		assert.Equal(t, "Only 2 items available in stock", apperr.MessageOf(err))

		order, err := handler.Handle(ctx, CreateOrderCommand{
			UserID:        primitive.NewObjectID(),
			Items:         []domain.OrderItem{{ProductID: product.ID, Name: product.Name, Price: 599, Quantity: 2}},
			ValidateStock: true,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPending, order.Status)
	})
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	userID := primitive.NewObjectID()

	t.Run("moves through the lifecycle", func(t *testing.T) {
		repo := newFakeOrderRepo()
		order := seedOrder(t, repo, userID, domain.StatusPending)
		handler := NewUpdateStatusHandler(repo)

		updated, err := handler.Handle(ctx, UpdateStatusCommand{OrderID: order.ID, Status: domain.StatusConfirmed})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusConfirmed, updated.Status)

		updated, err = handler.Handle(ctx, UpdateStatusCommand{
			OrderID:        order.ID,
			Status:         domain.StatusShipped,
			TrackingNumber: "AWB123456789",
		})
		require.NoError(t, err)
		assert.Equal(t, "AWB123456789", updated.TrackingNumber)

		updated, err = handler.Handle(ctx, UpdateStatusCommand{OrderID: order.ID, Status: domain.StatusDelivered})
		require.NoError(t, err)
		require.NotNil(t, updated.DeliveredAt)
		assert.WithinDuration(t, time.Now(), *updated.DeliveredAt, time.Minute)
	})

	t.Run("rejects unknown statuses", func(t *testing.T) {
		repo := newFakeOrderRepo()
		order := seedOrder(t, repo, userID, domain.StatusPending)
		_, err := NewUpdateStatusHandler(repo).Handle(ctx, UpdateStatusCommand{OrderID: order.ID, Status: "lost"})
		assert.True(t, apperr.IsCode(err, apperr.CodeInvalidArgument))
	})

	t.Run("terminal orders are frozen", func(t *testing.T) {
		repo := newFakeOrderRepo()
		handler := NewUpdateStatusHandler(repo)

		delivered := seedOrder(t, repo, userID, domain.StatusDelivered)
		_, err := handler.Handle(ctx, UpdateStatusCommand{OrderID: delivered.ID, Status: domain.StatusProcessing})
		assert.True(t, apperr.IsCode(err, apperr.CodeConflict))

		cancelled := seedOrder(t, repo, userID, domain.StatusCancelled)
		_, err = handler.Handle(ctx, UpdateStatusCommand{OrderID: cancelled.ID, Status: domain.StatusConfirmed})
		assert.True(t, apperr.IsCode(err, apperr.CodeConflict))
	})
}

func TestCancelOrder(t *testing.T) {
	ctx := context.Background()
	owner := primitive.NewObjectID()

	t.Run("owner can cancel a pending order", func(t *testing.T) {
		repo := newFakeOrderRepo()
		order := seedOrder(t, repo, owner, domain.StatusPending)

		cancelled, err := NewCancelOrderHandler(repo).Handle(ctx, CancelOrderCommand{OrderID: order.ID, UserID: owner})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, cancelled.Status)
	})

	t.Run("strangers cannot cancel", func(t *testing.T) {
		repo := newFakeOrderRepo()
		order := seedOrder(t, repo, owner, domain.StatusPending)

		_, err := NewCancelOrderHandler(repo).Handle(ctx, CancelOrderCommand{OrderID: order.ID, UserID: primitive.NewObjectID()})
		assert.True(t, apperr.IsCode(err, apperr.CodeForbidden))
	})

	t.Run("admins can cancel any order", func(t *testing.T) {
		repo := newFakeOrderRepo()
		order := seedOrder(t, repo, owner, domain.StatusConfirmed)

		cancelled, err := NewCancelOrderHandler(repo).Handle(ctx, CancelOrderCommand{
			OrderID: order.ID,
			UserID:  primitive.NewObjectID(),
			IsAdmin: true,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, cancelled.Status)
	})

	t.Run("shipped orders can still be cancelled", func(t *testing.T) {
		repo := newFakeOrderRepo()
		order := seedOrder(t, repo, owner, domain.StatusShipped)

		cancelled, err := NewCancelOrderHandler(repo).Handle(ctx, CancelOrderCommand{OrderID: order.ID, UserID: owner})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, cancelled.Status)
	})

	t.Run("delivered orders cannot be cancelled", func(t *testing.T) {
		repo := newFakeOrderRepo()
		order := seedOrder(t, repo, owner, domain.StatusDelivered)

		_, err := NewCancelOrderHandler(repo).Handle(ctx, CancelOrderCommand{OrderID: order.ID, UserID: owner})
		assert.True(t, apperr.IsCode(err, apperr.CodeConflict))
	})
}
