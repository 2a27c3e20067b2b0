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
	"github.com/nayher/commerce-backend/internal/review/domain"
	"github.com/nayher/commerce-backend/internal/review/usecase/command"
	"github.com/nayher/commerce-backend/internal/review/usecase/query"
	userdomain "github.com/nayher/commerce-backend/internal/user/domain"
	"github.com/nayher/commerce-backend/pkg/apperr"
	"github.com/nayher/commerce-backend/pkg/logger"
)

// ReviewHandler handles HTTP requests for product reviews
type ReviewHandler struct {
	createReview *command.CreateReviewHandler
	updateReview *command.UpdateReviewHandler
	deleteReview *command.DeleteReviewHandler
	approve      *command.ApproveReviewHandler
	voteHelpful  *command.VoteHelpfulHandler

	listProduct *query.ListProductReviewsHandler
	listAll     *query.ListAllReviewsHandler

	users userdomain.UserRepository

	authOnly     func(http.HandlerFunc) http.HandlerFunc
	adminOnly    func(http.HandlerFunc) http.HandlerFunc
	optionalAuth func(http.HandlerFunc) http.HandlerFunc

	requestCounter *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

func NewReviewHandler(
	createReview *command.CreateReviewHandler,
	updateReview *command.UpdateReviewHandler,
	deleteReview *command.DeleteReviewHandler,
	approve *command.ApproveReviewHandler,
	voteHelpful *command.VoteHelpfulHandler,
	listProduct *query.ListProductReviewsHandler,
	listAll *query.ListAllReviewsHandler,
	users userdomain.UserRepository,
	authOnly func(http.HandlerFunc) http.HandlerFunc,
	adminOnly func(http.HandlerFunc) http.HandlerFunc,
	optionalAuth func(http.HandlerFunc) http.HandlerFunc,
) *ReviewHandler {
	requestCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_service_requests_total",
			Help: "Total number of requests to the review service",
		},
		[]string{"method", "endpoint", "status"},
	)
	requestLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "review_service_request_duration_seconds",
			Help:    "Duration of review service requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
	prometheus.MustRegister(requestCounter)
	prometheus.MustRegister(requestLatency)

	return &ReviewHandler{
		createReview:   createReview,
		updateReview:   updateReview,
		deleteReview:   deleteReview,
		approve:        approve,
		voteHelpful:    voteHelpful,
		listProduct:    listProduct,
		listAll:        listAll,
		users:          users,
		authOnly:       authOnly,
		adminOnly:      adminOnly,
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

func (h *ReviewHandler) metrics(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		duration := time.Since(start).Seconds()
		h.requestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(rw.statusCode)).Inc()
		h.requestLatency.WithLabelValues(r.Method, endpoint).Observe(duration)
	}
}

func (h *ReviewHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/products/{productId}/reviews", h.metrics("/api/products/{productId}/reviews", h.ListProductReviews)).Methods("GET")
	router.HandleFunc("/api/products/{productId}/reviews", h.metrics("/api/products/{productId}/reviews", h.optionalAuth(h.CreateReview))).Methods("POST")
	router.HandleFunc("/api/reviews/{id}", h.metrics("/api/reviews/{id}", h.authOnly(h.UpdateReview))).Methods("PUT")
	router.HandleFunc("/api/reviews/{id}", h.metrics("/api/reviews/{id}", h.authOnly(h.DeleteReview))).Methods("DELETE")
	router.HandleFunc("/api/reviews/{id}/helpful", h.metrics("/api/reviews/{id}/helpful", h.VoteHelpful)).Methods("POST")

	router.HandleFunc("/api/admin/reviews", h.metrics("/api/admin/reviews", h.adminOnly(h.ListAllReviews))).Methods("GET")
	router.HandleFunc("/api/admin/reviews/{id}/approve", h.metrics("/api/admin/reviews/{id}/approve", h.adminOnly(h.ApproveReview))).Methods("PUT")
}

type reviewRequest struct {
	ReviewerName  string `json:"reviewerName"`
	ReviewerEmail string `json:"reviewerEmail"`
	Rating        int    `json:"rating"`
	Title         string `json:"title"`
	Comment       string `json:"comment"`
}

// CreateReview handles POST /api/products/{productId}/reviews. Signed-in
// callers review under their account; anonymous visitors supply a reviewer
// name and optional email in the body.
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	productID, err := primitive.ObjectIDFromHex(mux.Vars(r)["productId"])
	if err != nil {
		respondJSON(w, http.StatusNotFound, Response{Success: false, Message: "Product not found"})
		return
	}
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return
	}

	cmd := command.CreateReviewCommand{
		ProductID:     productID,
		ReviewerName:  req.ReviewerName,
		ReviewerEmail: req.ReviewerEmail,
		Rating:        req.Rating,
		Title:         req.Title,
		Comment:       req.Comment,
	}
	if userID, ok := middleware.UserIDFrom(r.Context()); ok {
		cmd.UserID = userID
		cmd.ReviewerEmail = middleware.EmailFrom(r.Context())
		cmd.ReviewerName = cmd.ReviewerEmail
		if account, err := h.users.FindByID(r.Context(), userID); err == nil {
			cmd.ReviewerName = account.Name
		}
	}

	review, err := h.createReview.Handle(r.Context(), cmd)
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to create review")
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, Response{Success: true, Message: "Review created", Data: review})
}

// UpdateReview handles PUT /api/reviews/{id}
func (h *ReviewHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFrom(r.Context())
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		respondJSON(w, http.StatusNotFound, Response{Success: false, Message: "Review not found"})
		return
	}
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return
	}

	review, err := h.updateReview.Handle(r.Context(), command.UpdateReviewCommand{
		ReviewID: id,
		UserID:   userID,
		Rating:   req.Rating,
		Title:    req.Title,
		Comment:  req.Comment,
	})
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Message: "Review updated", Data: review})
}

// DeleteReview handles DELETE /api/reviews/{id}
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFrom(r.Context())
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		respondJSON(w, http.StatusNotFound, Response{Success: false, Message: "Review not found"})
		return
	}
	if err := h.deleteReview.Handle(r.Context(), command.DeleteReviewCommand{
		ReviewID: id,
		UserID:   userID,
		IsAdmin:  middleware.IsAdmin(r.Context()),
	}); err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Message: "Review deleted"})
}

// VoteHelpful handles POST /api/reviews/{id}/helpful
func (h *ReviewHandler) VoteHelpful(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		respondJSON(w, http.StatusNotFound, Response{Success: false, Message: "Review not found"})
		return
	}
	review, err := h.voteHelpful.Handle(r.Context(), command.VoteHelpfulCommand{ReviewID: id})
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Data: review})
}

// ListProductReviews handles GET /api/products/{productId}/reviews
func (h *ReviewHandler) ListProductReviews(w http.ResponseWriter, r *http.Request) {
	productID, err := primitive.ObjectIDFromHex(mux.Vars(r)["productId"])
	if err != nil {
		respondJSON(w, http.StatusNotFound, Response{Success: false, Message: "Product not found"})
		return
	}
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	result, err := h.listProduct.Handle(r.Context(), query.ListProductReviewsQuery{
		ProductID: productID,
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Data: result})
}

// ListAllReviews handles GET /api/admin/reviews
func (h *ReviewHandler) ListAllReviews(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.ReviewFilter{ApprovedOnly: q.Get("approved") == "true"}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	if raw := q.Get("product"); raw != "" {
		if productID, err := primitive.ObjectIDFromHex(raw); err == nil {
			filter.ProductID = &productID
		}
	}

	result, err := h.listAll.Handle(r.Context(), query.ListAllReviewsQuery{Filter: filter})
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Data: result})
}

type approveRequest struct {
	Approved bool `json:"approved"`
}

// ApproveReview handles PUT /api/admin/reviews/{id}/approve
func (h *ReviewHandler) ApproveReview(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		respondJSON(w, http.StatusNotFound, Response{Success: false, Message: "Review not found"})
		return
	}
	req := approveRequest{Approved: true}
	if r.Body != nil && r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
			return
		}
	}

	review, err := h.approve.Handle(r.Context(), command.ApproveReviewCommand{
		ReviewID: id,
		Approved: req.Approved,
	})
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Message: "Review moderation updated", Data: review})
}

func respondAppError(w http.ResponseWriter, err error) {
	respondJSON(w, apperr.HTTPStatus(err), Response{Success: false, Message: apperr.MessageOf(err)})
}

func respondJSON(w http.ResponseWriter, status int, payload Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
