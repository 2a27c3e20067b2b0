package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nayher/commerce-backend/internal/middleware"
	"github.com/nayher/commerce-backend/internal/order/domain"
	"github.com/nayher/commerce-backend/internal/order/usecase/command"
	"github.com/nayher/commerce-backend/internal/order/usecase/query"
	"github.com/nayher/commerce-backend/pkg/apperr"
	"github.com/nayher/commerce-backend/pkg/logger"
)

// OrderHandler handles HTTP requests for orders
type OrderHandler struct {
	createOrder  *command.CreateOrderHandler
	updateStatus *command.UpdateStatusHandler
	cancelOrder  *command.CancelOrderHandler
	getOrder     *query.GetOrderHandler
	listOrders   *query.ListOrdersHandler

	authOnly  func(http.HandlerFunc) http.HandlerFunc
	adminOnly func(http.HandlerFunc) http.HandlerFunc

	requestCounter *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

func NewOrderHandler(
	createOrder *command.CreateOrderHandler,
	updateStatus *command.UpdateStatusHandler,
	cancelOrder *command.CancelOrderHandler,
	getOrder *query.GetOrderHandler,
	listOrders *query.ListOrdersHandler,
	authOnly func(http.HandlerFunc) http.HandlerFunc,
	adminOnly func(http.HandlerFunc) http.HandlerFunc,
) *OrderHandler {
	requestCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_service_requests_total",
			Help: "Total number of requests to the order service",
		},
		[]string{"method", "endpoint", "status"},
	)
	requestLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "order_service_request_duration_seconds",
			Help:    "Duration of order service requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
	prometheus.MustRegister(requestCounter)
	prometheus.MustRegister(requestLatency)

	return &OrderHandler{
		createOrder:    createOrder,
		updateStatus:   updateStatus,
		cancelOrder:    cancelOrder,
		getOrder:       getOrder,
		listOrders:     listOrders,
		authOnly:       authOnly,
		adminOnly:      adminOnly,
		requestCounter: requestCounter,
		requestLatency: requestLatency,
	}
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (h *OrderHandler) metrics(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		duration := time.Since(start).Seconds()
		h.requestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(rw.statusCode)).Inc()
		h.requestLatency.WithLabelValues(r.Method, endpoint).Observe(duration)
	}
}

func (h *OrderHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/orders", h.metrics("/api/orders", h.authOnly(h.ListMyOrders))).Methods("GET")
	router.HandleFunc("/api/orders", h.metrics("/api/orders", h.authOnly(h.CreateOrder))).Methods("POST")
	router.HandleFunc("/api/orders/{id}", h.metrics("/api/orders/{id}", h.authOnly(h.GetOrder))).Methods("GET")
	router.HandleFunc("/api/orders/{id}/cancel", h.metrics("/api/orders/{id}/cancel", h.authOnly(h.CancelOrder))).Methods("POST")

	router.HandleFunc("/api/admin/orders", h.metrics("/api/admin/orders", h.adminOnly(h.ListAllOrders))).Methods("GET")
	router.HandleFunc("/api/admin/orders/{id}/status", h.metrics("/api/admin/orders/{id}/status", h.adminOnly(h.UpdateStatus))).Methods("PUT")
}

type createOrderRequest struct {
	Items []struct {
		ProductID string  `json:"productId"`
		Name      string  `json:"name"`
		Price     float64 `json:"price"`
		Quantity  int     `json:"quantity"`
		Image     string  `json:"image"`
		Color     string  `json:"color"`
		Size      string  `json:"size"`
	} `json:"items"`
	Subtotal        float64                `json:"subtotal"`
	ShippingFee     float64                `json:"shippingFee"`
	Tax             float64                `json:"tax"`
	Total           float64                `json:"total"`
	ShippingAddress domain.ShippingAddress `json:"shippingAddress"`
	Notes           string                 `json:"notes"`
}

// CreateOrder handles POST /api/orders (cash-on-delivery checkout)
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFrom(r.Context())
	if !ok {
		respondJSON(w, http.StatusUnauthorized, Response{Success: false, Message: "Authorization required"})
		return
	}
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return
	}

	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		productID, err := primitive.ObjectIDFromHex(it.ProductID)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, Response{Success: false, Message: "Invalid product id"})
			return
		}
		items = append(items, domain.OrderItem{
			ProductID: productID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
			Image:     it.Image,
			Color:     it.Color,
			Size:      it.Size,
		})
	}

	order, err := h.createOrder.Handle(r.Context(), command.CreateOrderCommand{
		UserID:      userID,
		Items:       items,
		Subtotal:    req.Subtotal,
		ShippingFee: req.ShippingFee,
		Tax:         req.Tax,
		Total:       req.Total,
		Status:      domain.StatusPending,
		Payment: domain.PaymentInfo{
			Method: domain.PaymentMethodCOD,
			Status: "pending",
		},
		ShippingAddress: req.ShippingAddress,
		Notes:           req.Notes,
		ValidateStock:   true,
	})
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to create order")
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, Response{Success: true, Message: "Order placed successfully", Data: order})
}

// GetOrder handles GET /api/orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFrom(r.Context())
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		respondJSON(w, http.StatusNotFound, Response{Success: false, Message: "Order not found"})
		return
	}
	order, err := h.getOrder.Handle(r.Context(), query.GetOrderQuery{
		OrderID: id,
		UserID:  userID,
		IsAdmin: middleware.IsAdmin(r.Context()),
	})
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Data: order})
}

// ListMyOrders handles GET /api/orders
func (h *OrderHandler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFrom(r.Context())
	if !ok {
		respondJSON(w, http.StatusUnauthorized, Response{Success: false, Message: "Authorization required"})
		return
	}
	filter := filterFromQuery(r)
	filter.UserID = &userID

	result, err := h.listOrders.Handle(r.Context(), query.ListOrdersQuery{Filter: filter})
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Data: result})
}

// ListAllOrders handles GET /api/admin/orders
func (h *OrderHandler) ListAllOrders(w http.ResponseWriter, r *http.Request) {
	result, err := h.listOrders.Handle(r.Context(), query.ListOrdersQuery{Filter: filterFromQuery(r)})
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Data: result})
}

type updateStatusRequest struct {
	Status         string `json:"status"`
	TrackingNumber string `json:"trackingNumber"`
}

// UpdateStatus handles PUT /api/admin/orders/{id}/status
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		respondJSON(w, http.StatusNotFound, Response{Success: false, Message: "Order not found"})
		return
	}
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return
	}
	order, err := h.updateStatus.Handle(r.Context(), command.UpdateStatusCommand{
		OrderID:        id,
		Status:         req.Status,
		TrackingNumber: req.TrackingNumber,
	})
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to update order status")
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Message: "Order status updated", Data: order})
}

// CancelOrder handles POST /api/orders/{id}/cancel
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFrom(r.Context())
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		respondJSON(w, http.StatusNotFound, Response{Success: false, Message: "Order not found"})
		return
	}
	order, err := h.cancelOrder.Handle(r.Context(), command.CancelOrderCommand{
		OrderID: id,
		UserID:  userID,
		IsAdmin: middleware.IsAdmin(r.Context()),
	})
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Message: "Order cancelled", Data: order})
}

func filterFromQuery(r *http.Request) domain.OrderFilter {
	q := r.URL.Query()
	filter := domain.OrderFilter{Status: q.Get("status")}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	return filter
}

func respondAppError(w http.ResponseWriter, err error) {
	respondJSON(w, apperr.HTTPStatus(err), Response{Success: false, Message: apperr.MessageOf(err)})
}

func respondJSON(w http.ResponseWriter, status int, payload Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
