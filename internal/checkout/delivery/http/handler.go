package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nayher/commerce-backend/internal/checkout/usecase/command"
	"github.com/nayher/commerce-backend/internal/middleware"
	"github.com/nayher/commerce-backend/pkg/apperr"
	"github.com/nayher/commerce-backend/pkg/logger"
)

// CheckoutHandler handles HTTP requests for hosted checkout
type CheckoutHandler struct {
	createSession *command.CreateSessionHandler
	verifyPayment *command.VerifyPaymentHandler

	optionalAuth func(http.HandlerFunc) http.HandlerFunc

	requestCounter *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

func NewCheckoutHandler(
	createSession *command.CreateSessionHandler,
	verifyPayment *command.VerifyPaymentHandler,
	optionalAuth func(http.HandlerFunc) http.HandlerFunc,
) *CheckoutHandler {
	requestCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_service_requests_total",
			Help: "Total number of requests to the checkout service",
		},
		[]string{"method", "endpoint", "status"},
	)
	requestLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "checkout_service_request_duration_seconds",
			Help:    "Duration of checkout service requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
	prometheus.MustRegister(requestCounter)
	prometheus.MustRegister(requestLatency)

	return &CheckoutHandler{
		createSession:  createSession,
		verifyPayment:  verifyPayment,
		optionalAuth:   optionalAuth,
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

func (h *CheckoutHandler) metrics(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		duration := time.Since(start).Seconds()
		h.requestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(rw.statusCode)).Inc()
		h.requestLatency.WithLabelValues(r.Method, endpoint).Observe(duration)
	}
}

func (h *CheckoutHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/checkout/session", h.metrics("/api/checkout/session", h.optionalAuth(h.CreateSession))).Methods("POST")
	router.HandleFunc("/api/checkout/verify", h.metrics("/api/checkout/verify", h.optionalAuth(h.VerifyPayment))).Methods("POST")
}

type sessionItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Color     string `json:"selectedColor"`
	Size      string `json:"selectedSize"`
}

type createSessionRequest struct {
	Email      string               `json:"email"`
	GuestEmail string               `json:"guestEmail"`
	CartItems  []sessionItemRequest `json:"cartItems"`
}

// CreateSession handles POST /api/checkout/session. Works for guests too:
// without a principal the client-supplied cart items are used.
func (h *CheckoutHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return
	}

	// Authenticated email wins over the explicit guest email, which wins
	// over the generic one.
	email := middleware.EmailFrom(r.Context())
	if email == "" {
		email = req.GuestEmail
	}
	if email == "" {
		email = req.Email
	}

	cmd := command.CreateSessionCommand{Email: email}
	if userID, ok := middleware.UserIDFrom(r.Context()); ok {
		cmd.UserID = userID
	} else {
		for _, item := range req.CartItems {
			productID, err := primitive.ObjectIDFromHex(item.ProductID)
			if err != nil {
				respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid product id"})
				return
			}
			cmd.Items = append(cmd.Items, command.SessionItem{
				ProductID: productID,
				Quantity:  item.Quantity,
				Color:     item.Color,
				Size:      item.Size,
			})
		}
	}

	result, err := h.createSession.Handle(r.Context(), cmd)
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to create checkout session")
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, Response{Success: true, Data: result})
}

type verifyPaymentRequest struct {
	SessionID string `json:"sessionId"`
}

// VerifyPayment handles POST /api/checkout/verify
func (h *CheckoutHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req verifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return
	}

	result, err := h.verifyPayment.Handle(r.Context(), command.VerifyPaymentCommand{
		SessionID: req.SessionID,
		Email:     middleware.EmailFrom(r.Context()),
	})
	if err != nil {
		logger.Error(r.Context()).Err(err).Str("session_id", req.SessionID).Msg("Payment verification failed")
		respondAppError(w, err)
		return
	}

	if result.Order == nil {
		respondJSON(w, http.StatusOK, Response{Success: false, Message: "Payment has not been completed", Data: result})
		return
	}

	message := "Order already confirmed"
	status := http.StatusOK
	if result.Created {
		message = "Payment verified and order created"
		status = http.StatusCreated
	}
	respondJSON(w, status, Response{Success: true, Message: message, Data: result})
}

func respondAppError(w http.ResponseWriter, err error) {
	respondJSON(w, apperr.HTTPStatus(err), Response{Success: false, Message: apperr.MessageOf(err)})
}

func respondJSON(w http.ResponseWriter, status int, payload Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
