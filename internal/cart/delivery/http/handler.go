package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nayher/commerce-backend/internal/cart/usecase/command"
	"github.com/nayher/commerce-backend/internal/cart/usecase/query"
	"github.com/nayher/commerce-backend/internal/middleware"
	"github.com/nayher/commerce-backend/pkg/apperr"
	"github.com/nayher/commerce-backend/pkg/logger"
)

// CartHandler handles HTTP requests for the authenticated user's cart
type CartHandler struct {
	addItem    *command.AddItemHandler
	updateItem *command.UpdateItemHandler
	removeItem *command.RemoveItemHandler
	clearCart  *command.ClearCartHandler
	getCart    *query.GetCartHandler

	authOnly func(http.HandlerFunc) http.HandlerFunc

	requestCounter *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

func NewCartHandler(
	addItem *command.AddItemHandler,
	updateItem *command.UpdateItemHandler,
	removeItem *command.RemoveItemHandler,
	clearCart *command.ClearCartHandler,
	getCart *query.GetCartHandler,
	authOnly func(http.HandlerFunc) http.HandlerFunc,
) *CartHandler {
	requestCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_service_requests_total",
			Help: "Total number of requests to the cart service",
		},
		[]string{"method", "endpoint", "status"},
	)
	requestLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cart_service_request_duration_seconds",
			Help:    "Duration of cart service requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
	prometheus.MustRegister(requestCounter)
	prometheus.MustRegister(requestLatency)

	return &CartHandler{
		addItem:        addItem,
		updateItem:     updateItem,
		removeItem:     removeItem,
		clearCart:      clearCart,
		getCart:        getCart,
		authOnly:       authOnly,
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

func (h *CartHandler) metrics(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		duration := time.Since(start).Seconds()
		h.requestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(rw.statusCode)).Inc()
		h.requestLatency.WithLabelValues(r.Method, endpoint).Observe(duration)
	}
}

func (h *CartHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/cart", h.metrics("/api/cart", h.authOnly(h.GetCart))).Methods("GET")
	router.HandleFunc("/api/cart/items", h.metrics("/api/cart/items", h.authOnly(h.AddItem))).Methods("POST")
	router.HandleFunc("/api/cart/items/{productId}", h.metrics("/api/cart/items/{productId}", h.authOnly(h.UpdateItem))).Methods("PUT")
	router.HandleFunc("/api/cart/items/{productId}", h.metrics("/api/cart/items/{productId}", h.authOnly(h.RemoveItem))).Methods("DELETE")
	router.HandleFunc("/api/cart", h.metrics("/api/cart", h.authOnly(h.ClearCart))).Methods("DELETE")
}

// GetCart handles GET /api/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFrom(r.Context())
	if !ok {
		respondJSON(w, http.StatusUnauthorized, Response{Success: false, Message: "Authorization required"})
		return
	}
	cart, err := h.getCart.Handle(r.Context(), query.GetCartQuery{UserID: userID})
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to load cart")
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Data: cart})
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Color     string `json:"color"`
	Size      string `json:"size"`
}

// AddItem handles POST /api/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFrom(r.Context())
	if !ok {
		respondJSON(w, http.StatusUnauthorized, Response{Success: false, Message: "Authorization required"})
		return
	}
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return
	}
	productID, err := primitive.ObjectIDFromHex(req.ProductID)
	if err != nil {
		respondJSON(w, http.StatusNotFound, Response{Success: false, Message: "Product not found"})
		return
	}

	if err := h.addItem.Handle(r.Context(), command.AddItemCommand{
		UserID:    userID,
		ProductID: productID,
		Quantity:  req.Quantity,
		Color:     req.Color,
		Size:      req.Size,
	}); err != nil {
		respondAppError(w, err)
		return
	}
	h.respondCart(w, r, userID, "Item added to cart")
}

type updateItemRequest struct {
	Quantity int    `json:"quantity"`
	Color    string `json:"color"`
	Size     string `json:"size"`
}

// UpdateItem handles PUT /api/cart/items/{productId}
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFrom(r.Context())
	if !ok {
		respondJSON(w, http.StatusUnauthorized, Response{Success: false, Message: "Authorization required"})
		return
	}
	productID, err := primitive.ObjectIDFromHex(mux.Vars(r)["productId"])
	if err != nil {
		respondJSON(w, http.StatusNotFound, Response{Success: false, Message: "Product not found"})
		return
	}
	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return
	}

	if err := h.updateItem.Handle(r.Context(), command.UpdateItemCommand{
		UserID:    userID,
		ProductID: productID,
		Quantity:  req.Quantity,
		Color:     req.Color,
		Size:      req.Size,
	}); err != nil {
		respondAppError(w, err)
		return
	}
	h.respondCart(w, r, userID, "Cart item updated")
}

// RemoveItem handles DELETE /api/cart/items/{productId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFrom(r.Context())
	if !ok {
		respondJSON(w, http.StatusUnauthorized, Response{Success: false, Message: "Authorization required"})
		return
	}
	productID, err := primitive.ObjectIDFromHex(mux.Vars(r)["productId"])
	if err != nil {
		respondJSON(w, http.StatusNotFound, Response{Success: false, Message: "Product not found"})
		return
	}

	q := r.URL.Query()
	if err := h.removeItem.Handle(r.Context(), command.RemoveItemCommand{
		UserID:    userID,
		ProductID: productID,
		Color:     q.Get("color"),
		Size:      q.Get("size"),
	}); err != nil {
		respondAppError(w, err)
		return
	}
	h.respondCart(w, r, userID, "Item removed from cart")
}

// ClearCart handles DELETE /api/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFrom(r.Context())
	if !ok {
		respondJSON(w, http.StatusUnauthorized, Response{Success: false, Message: "Authorization required"})
		return
	}
	if err := h.clearCart.Handle(r.Context(), command.ClearCartCommand{UserID: userID}); err != nil {
		respondAppError(w, err)
		return
	}
	h.respondCart(w, r, userID, "Cart cleared")
}

// respondCart renders the freshly populated cart after a mutation.
func (h *CartHandler) respondCart(w http.ResponseWriter, r *http.Request, userID primitive.ObjectID, message string) {
	cart, err := h.getCart.Handle(r.Context(), query.GetCartQuery{UserID: userID})
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to reload cart")
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Message: message, Data: cart})
}

func respondAppError(w http.ResponseWriter, err error) {
	respondJSON(w, apperr.HTTPStatus(err), Response{Success: false, Message: apperr.MessageOf(err)})
}

func respondJSON(w http.ResponseWriter, status int, payload Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
