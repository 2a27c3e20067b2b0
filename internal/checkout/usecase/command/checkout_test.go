package command

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	cartdomain "github.com/nayher/commerce-backend/internal/cart/domain"
	catalogdomain "github.com/nayher/commerce-backend/internal/catalog/domain"
	"github.com/nayher/commerce-backend/internal/checkout/domain"
	orderdomain "github.com/nayher/commerce-backend/internal/order/domain"
	ordercommand "github.com/nayher/commerce-backend/internal/order/usecase/command"
	userdomain "github.com/nayher/commerce-backend/internal/user/domain"
	"github.com/nayher/commerce-backend/pkg/apperr"
)

type fakeGateway struct {
	sessions   map[string]*domain.Session
	lastParams *domain.CreateSessionParams
	err        error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{sessions: map[string]*domain.Session{}}
}

func (g *fakeGateway) CreateSession(ctx context.Context, params domain.CreateSessionParams) (*domain.Session, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.lastParams = &params
	session := &domain.Session{
		ID:       "cs_test_123",
		URL:      "https://checkout.example.com/cs_test_123",
		Metadata: params.Metadata,
	}
	g.sessions[session.ID] = session
	return session, nil
}

func (g *fakeGateway) RetrieveSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	if g.err != nil {
		return nil, g.err
	}
	session, ok := g.sessions[sessionID]
	if !ok {
		return nil, apperr.New(apperr.CodeUpstream, "Payment service unavailable")
	}
	return session, nil
}

type fakeCartRepo struct {
	carts map[primitive.ObjectID]*cartdomain.Cart
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{carts: map[primitive.ObjectID]*cartdomain.Cart{}}
}

func (f *fakeCartRepo) FindByUser(ctx context.Context, userID primitive.ObjectID) (*cartdomain.Cart, error) {
	cart, ok := f.carts[userID]
	if !ok {
		return nil, apperr.New(apperr.CodeNotFound, "Cart not found")
	}
	cp := *cart
	cp.Items = append([]cartdomain.CartItem(nil), cart.Items...)
	return &cp, nil
}

func (f *fakeCartRepo) Save(ctx context.Context, cart *cartdomain.Cart) error {
	if cart.ID.IsZero() {
		cart.ID = primitive.NewObjectID()
	}
	cp := *cart
	cp.Items = append([]cartdomain.CartItem(nil), cart.Items...)
	f.carts[cart.UserID] = &cp
	return nil
}

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
	orders map[primitive.ObjectID]*orderdomain.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[primitive.ObjectID]*orderdomain.Order{}}
}

func (f *fakeOrderRepo) Create(ctx context.Context, order *orderdomain.Order) error {
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

func (f *fakeOrderRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*orderdomain.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, apperr.New(apperr.CodeNotFound, "Order not found")
	}
	cp := *order
	return &cp, nil
}

func (f *fakeOrderRepo) FindByOrderNumber(ctx context.Context, orderNumber string) (*orderdomain.Order, error) {
	for _, order := range f.orders {
		if order.OrderNumber == orderNumber {
			cp := *order
			return &cp, nil
		}
	}
	return nil, apperr.New(apperr.CodeNotFound, "Order not found")
}

func (f *fakeOrderRepo) FindByTransactionID(ctx context.Context, transactionID string) (*orderdomain.Order, error) {
	for _, order := range f.orders {
		if order.Payment.TransactionID == transactionID {
			cp := *order
			return &cp, nil
		}
	}
	return nil, apperr.New(apperr.CodeNotFound, "Order not found")
}

func (f *fakeOrderRepo) List(ctx context.Context, filter orderdomain.OrderFilter) ([]*orderdomain.Order, int64, error) {
	var out []*orderdomain.Order
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

func (f *fakeOrderRepo) Update(ctx context.Context, order *orderdomain.Order) error {
	if _, ok := f.orders[order.ID]; !ok {
		return apperr.New(apperr.CodeNotFound, "Order not found")
	}
	cp := *order
	f.orders[order.ID] = &cp
	return nil
}

type fakeUserRepo struct {
	users map[string]*userdomain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*userdomain.User{}}
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*userdomain.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, apperr.New(apperr.CodeNotFound, "User not found")
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*userdomain.User, error) {
	u, ok := f.users[email]
	if !ok {
		return nil, apperr.New(apperr.CodeNotFound, "User not found")
	}
	return u, nil
}

func (f *fakeUserRepo) Create(ctx context.Context, user *userdomain.User) error {
	user.ID = primitive.NewObjectID()
	f.users[user.Email] = user
	return nil
}

func (f *fakeUserRepo) FindOrCreateGuest(ctx context.Context, email string) (*userdomain.User, error) {
	if u, ok := f.users[email]; ok {
		return u, nil
	}
	u := &userdomain.User{ID: primitive.NewObjectID(), Email: email, Name: email, Role: userdomain.RoleUser, IsGuest: true, IsActive: true}
	f.users[email] = u
	return u, nil
}

func testTotals() Totals {
	return Totals{FreeShippingThreshold: 999, ShippingFlatFee: 49, TaxRate: 0.05}
}

func availableProduct(price float64, stock int) *catalogdomain.Product {
	return &catalogdomain.Product{
		ID:       primitive.NewObjectID(),
		Name:     "Bamboo Muslin Swaddle",
		Price:    price,
		Stock:    stock,
		Status:   catalogdomain.StatusAvailable,
		IsActive: true,
	}
}

func seedCart(t *testing.T, carts *fakeCartRepo, userID primitive.ObjectID, product *catalogdomain.Product, qty int) {
	t.Helper()
	require.NoError(t, carts.Save(context.Background(), &cartdomain.Cart{
		UserID: userID,
		Items:  []cartdomain.CartItem{{ProductID: product.ID, Quantity: qty, Price: product.Price}},
	}))
}

func TestCreateSession(t *testing.T) {
	ctx := context.Background()
	userID := primitive.NewObjectID()

	t.Run("requires an email", func(t *testing.T) {
		handler := NewCreateSessionHandler(newFakeCartRepo(), newFakeProductRepo(), newFakeGateway(), testTotals(), "https://shop.example.com")
		_, err := handler.Handle(ctx, CreateSessionCommand{UserID: userID})
		assert.True(t, apperr.IsCode(err, apperr.CodeInvalidArgument))
	})

	t.Run("rejects an empty cart", func(t *testing.T) {
		handler := NewCreateSessionHandler(newFakeCartRepo(), newFakeProductRepo(), newFakeGateway(), testTotals(), "https://shop.example.com")
		_, err := handler.Handle(ctx, CreateSessionCommand{UserID: userID, Email: "amaya@example.com"})
		require.Error(t, err)
		assert.Equal(t, "Cart is empty", apperr.MessageOf(err))
	})

	t.Run("rejects quantities above stock", func(t *testing.T) {
		carts := newFakeCartRepo()
		product := availableProduct(500, 2)
		seedCart(t, carts, userID, product, 3)

		handler := NewCreateSessionHandler(carts, newFakeProductRepo(product), newFakeGateway(), testTotals(), "https://shop.example.com")
		_, err := handler.Handle(ctx, CreateSessionCommand{UserID: userID, Email: "amaya@example.com"})
		require.Error(t, err)
		assert.Equal(t, "Only 2 items available in stock", apperr.MessageOf(err))
	})

	t.Run("opens a session with totals and snapshot", func(t *testing.T) {
		carts := newFakeCartRepo()
		gatewayFake := newFakeGateway()
		product := availableProduct(1000, 10)
		seedCart(t, carts, userID, product, 2)

		handler := NewCreateSessionHandler(carts, newFakeProductRepo(product), gatewayFake, testTotals(), "https://shop.example.com")
		result, err := handler.Handle(ctx, CreateSessionCommand{UserID: userID, Email: "amaya@example.com"})
		require.NoError(t, err)
		assert.Equal(t, "cs_test_123", result.SessionID)
		assert.NotEmpty(t, result.URL)

		params := gatewayFake.lastParams
		require.NotNil(t, params)
		// 2000 subtotal clears the free shipping threshold; 5% tax applies.
		assert.Equal(t, 0.0, params.ShippingFee)
		assert.Equal(t, 100.0, params.Tax)
		assert.Equal(t, "2000.00", params.Metadata[domain.MetadataKeySubtotal])

		var lines []domain.LineItem
		require.NoError(t, json.Unmarshal([]byte(params.Metadata[domain.MetadataKeyCart]), &lines))
		require.Len(t, lines, 1)
		assert.Equal(t, product.ID.Hex(), lines[0].ProductID)
		assert.Equal(t, 2, lines[0].Quantity)
	})

	t.Run("guests check out with client-supplied items", func(t *testing.T) {
		gatewayFake := newFakeGateway()
		product := availableProduct(1000, 10)

		handler := NewCreateSessionHandler(newFakeCartRepo(), newFakeProductRepo(product), gatewayFake, testTotals(), "https://shop.example.com")
		result, err := handler.Handle(ctx, CreateSessionCommand{
			Email: "visitor@example.com",
			Items: []SessionItem{{ProductID: product.ID, Quantity: 2}},
		})
		require.NoError(t, err)
		assert.Equal(t, "cs_test_123", result.SessionID)

		params := gatewayFake.lastParams
		require.NotNil(t, params)
		assert.Equal(t, "visitor@example.com", params.Email)
		assert.True(t, strings.HasPrefix(params.Metadata[domain.MetadataKeyUserID], "guest-"))

		var lines []domain.LineItem
		require.NoError(t, json.Unmarshal([]byte(params.Metadata[domain.MetadataKeyCart]), &lines))
		require.Len(t, lines, 1)
		// The catalog price wins over anything the client could claim.
		assert.Equal(t, 1000.0, lines[0].Price)
	})

	t.Run("guest items are stock-checked against the catalog", func(t *testing.T) {
		product := availableProduct(1000, 2)
		handler := NewCreateSessionHandler(newFakeCartRepo(), newFakeProductRepo(product), newFakeGateway(), testTotals(), "https://shop.example.com")
		_, err := handler.Handle(ctx, CreateSessionCommand{
			Email: "visitor@example.com",
			Items: []SessionItem{{ProductID: product.ID, Quantity: 3}},
		})
		require.Error(t, err)
		assert.True(t, apperr.IsCode(err, apperr.CodeUnavailable))
		assert.Equal(t, "Only 2 items available in stock", apperr.MessageOf(err))
	})

	t.Run("guest without items has an empty cart", func(t *testing.T) {
		handler := NewCreateSessionHandler(newFakeCartRepo(), newFakeProductRepo(), newFakeGateway(), testTotals(), "https://shop.example.com")
		_, err := handler.Handle(ctx, CreateSessionCommand{Email: "visitor@example.com"})
		require.Error(t, err)
		assert.Equal(t, "Cart is empty", apperr.MessageOf(err))
	})

	t.Run("charges flat shipping below the threshold", func(t *testing.T) {
		carts := newFakeCartRepo()
		gatewayFake := newFakeGateway()
		product := availableProduct(300, 10)
		seedCart(t, carts, userID, product, 2)

		handler := NewCreateSessionHandler(carts, newFakeProductRepo(product), gatewayFake, testTotals(), "https://shop.example.com")
		_, err := handler.Handle(ctx, CreateSessionCommand{UserID: userID, Email: "amaya@example.com"})
		require.NoError(t, err)
		assert.Equal(t, 49.0, gatewayFake.lastParams.ShippingFee)
		assert.Equal(t, 30.0, gatewayFake.lastParams.Tax)
	})
}

func paidSession(t *testing.T, userID primitive.ObjectID, product *catalogdomain.Product, qty int) *domain.Session {
	t.Helper()
	lines := []domain.LineItem{{
		ProductID: product.ID.Hex(),
		Name:      product.Name,
		Price:     product.Price,
		Quantity:  qty,
	}}
	cartJSON, err := json.Marshal(lines)
	require.NoError(t, err)

	subtotal := product.Price * float64(qty)
	return &domain.Session{
		ID:            "cs_test_paid",
		PaymentStatus: domain.PaymentStatusPaid,
		CustomerEmail: "amaya@example.com",
		Metadata: map[string]string{
			domain.MetadataKeyUserID:   userID.Hex(),
			domain.MetadataKeyEmail:    "amaya@example.com",
			domain.MetadataKeyCart:     string(cartJSON),
			domain.MetadataKeySubtotal: strconv.FormatFloat(subtotal, 'f', 2, 64),
			domain.MetadataKeyShipping: "0.00",
			domain.MetadataKeyTax:      "100.00",
		},
	}
}

func TestVerifyPayment(t *testing.T) {
	ctx := context.Background()
	userID := primitive.NewObjectID()

	newHandler := func(gatewayFake *fakeGateway, orders *fakeOrderRepo, users *fakeUserRepo, carts *fakeCartRepo) *VerifyPaymentHandler {
		createOrder := ordercommand.NewCreateOrderHandler(orders, newFakeProductRepo(), "NYH")
		return NewVerifyPaymentHandler(gatewayFake, orders, users, carts, createOrder, testTotals(), nil)
	}

	t.Run("requires a session id", func(t *testing.T) {
		handler := newHandler(newFakeGateway(), newFakeOrderRepo(), newFakeUserRepo(), newFakeCartRepo())
		_, err := handler.Handle(ctx, VerifyPaymentCommand{})
		assert.True(t, apperr.IsCode(err, apperr.CodeInvalidArgument))
	})

	t.Run("unpaid session creates no order", func(t *testing.T) {
		gatewayFake := newFakeGateway()
		product := availableProduct(1000, 10)
		session := paidSession(t, userID, product, 2)
		session.PaymentStatus = "unpaid"
		gatewayFake.sessions[session.ID] = session
		orders := newFakeOrderRepo()

		handler := newHandler(gatewayFake, orders, newFakeUserRepo(), newFakeCartRepo())
		result, err := handler.Handle(ctx, VerifyPaymentCommand{SessionID: session.ID})
		require.NoError(t, err)
		assert.Nil(t, result.Order)
		assert.False(t, result.Created)
		assert.Equal(t, "unpaid", result.PaymentStatus)
		assert.Empty(t, orders.orders)
	})

	t.Run("paid session materializes the order and clears the cart", func(t *testing.T) {
		gatewayFake := newFakeGateway()
		product := availableProduct(1000, 10)
		session := paidSession(t, userID, product, 2)
		gatewayFake.sessions[session.ID] = session

		orders := newFakeOrderRepo()
		users := newFakeUserRepo()
		carts := newFakeCartRepo()

		handler := newHandler(gatewayFake, orders, users, carts)
		result, err := handler.Handle(ctx, VerifyPaymentCommand{SessionID: session.ID})
		require.NoError(t, err)
		assert.True(t, result.Created)

		order := result.Order
		assert.Equal(t, 2000.0, order.Subtotal)
		assert.Equal(t, 0.0, order.ShippingFee)
		assert.Equal(t, 100.0, order.Tax)
		assert.Equal(t, 2100.0, order.Total)
		assert.Equal(t, orderdomain.StatusConfirmed, order.Status)
		assert.Equal(t, session.ID, order.Payment.TransactionID)
		require.Len(t, order.Items, 1)
		assert.Equal(t, product.ID, order.Items[0].ProductID)

		account, err := users.FindByEmail(ctx, "amaya@example.com")
		require.NoError(t, err)
		assert.True(t, account.IsGuest)
		assert.Equal(t, account.ID, order.UserID)

		cart, err := carts.FindByUser(ctx, account.ID)
		require.NoError(t, err)
		assert.Empty(t, cart.Items)
	})

	t.Run("totals are recomputed from the snapshot", func(t *testing.T) {
		gatewayFake := newFakeGateway()
		product := availableProduct(1000, 10)
		session := paidSession(t, userID, product, 2)
		delete(session.Metadata, domain.MetadataKeySubtotal)
		delete(session.Metadata, domain.MetadataKeyShipping)
		delete(session.Metadata, domain.MetadataKeyTax)
		session.AmountTotal = 210000
		gatewayFake.sessions[session.ID] = session

		handler := newHandler(gatewayFake, newFakeOrderRepo(), newFakeUserRepo(), newFakeCartRepo())
		result, err := handler.Handle(ctx, VerifyPaymentCommand{SessionID: session.ID})
		require.NoError(t, err)

		order := result.Order
		assert.Equal(t, 2000.0, order.Subtotal)
		assert.Equal(t, 0.0, order.ShippingFee)
		assert.Equal(t, 100.0, order.Tax)
		assert.Equal(t, order.Subtotal+order.ShippingFee+order.Tax, order.Total)
	})

	t.Run("order follows the payer, not the polling caller", func(t *testing.T) {
		gatewayFake := newFakeGateway()
		product := availableProduct(1000, 10)
		session := paidSession(t, userID, product, 2)
		session.Metadata[domain.MetadataKeyUserID] = "guest-abc"
		gatewayFake.sessions[session.ID] = session

		users := newFakeUserRepo()
		handler := newHandler(gatewayFake, newFakeOrderRepo(), users, newFakeCartRepo())
		result, err := handler.Handle(ctx, VerifyPaymentCommand{SessionID: session.ID, Email: "mallory@example.com"})
		require.NoError(t, err)

		payer, err := users.FindByEmail(ctx, "amaya@example.com")
		require.NoError(t, err)
		assert.Equal(t, payer.ID, result.Order.UserID)
		_, err = users.FindByEmail(ctx, "mallory@example.com")
		assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
	})

	t.Run("session account is reused when it exists", func(t *testing.T) {
		gatewayFake := newFakeGateway()
		product := availableProduct(1000, 10)
		session := paidSession(t, userID, product, 2)
		gatewayFake.sessions[session.ID] = session

		users := newFakeUserRepo()
		require.NoError(t, users.Create(ctx, &userdomain.User{Email: "registered@example.com"}))
		owner, err := users.FindByEmail(ctx, "registered@example.com")
		require.NoError(t, err)
		session.Metadata[domain.MetadataKeyUserID] = owner.ID.Hex()

		handler := newHandler(gatewayFake, newFakeOrderRepo(), users, newFakeCartRepo())
		result, err := handler.Handle(ctx, VerifyPaymentCommand{SessionID: session.ID})
		require.NoError(t, err)
		assert.Equal(t, owner.ID, result.Order.UserID)
	})

	t.Run("verifying twice returns the same order", func(t *testing.T) {
		gatewayFake := newFakeGateway()
		product := availableProduct(1000, 10)
		session := paidSession(t, userID, product, 2)
		gatewayFake.sessions[session.ID] = session

		orders := newFakeOrderRepo()
		handler := newHandler(gatewayFake, orders, newFakeUserRepo(), newFakeCartRepo())

		first, err := handler.Handle(ctx, VerifyPaymentCommand{SessionID: session.ID})
		require.NoError(t, err)
		second, err := handler.Handle(ctx, VerifyPaymentCommand{SessionID: session.ID})
		require.NoError(t, err)

		assert.True(t, first.Created)
		assert.False(t, second.Created)
		assert.Equal(t, first.Order.ID, second.Order.ID)
		assert.Len(t, orders.orders, 1)
	})

	t.Run("gateway failure surfaces as upstream", func(t *testing.T) {
		gatewayFake := newFakeGateway()
		gatewayFake.err = apperr.New(apperr.CodeUpstream, "Payment service unavailable")
		handler := newHandler(gatewayFake, newFakeOrderRepo(), newFakeUserRepo(), newFakeCartRepo())

		_, err := handler.Handle(ctx, VerifyPaymentCommand{SessionID: "cs_test_paid"})
		require.Error(t, err)
		assert.True(t, apperr.IsCode(err, apperr.CodeUpstream))
	})
}
