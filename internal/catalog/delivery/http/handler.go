package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nayher/commerce-backend/internal/catalog/domain"
	"github.com/nayher/commerce-backend/internal/catalog/usecase/command"
	"github.com/nayher/commerce-backend/internal/catalog/usecase/query"
	"github.com/nayher/commerce-backend/internal/middleware"
	"github.com/nayher/commerce-backend/pkg/apperr"
	"github.com/nayher/commerce-backend/pkg/logger"
)

// CatalogHandler handles HTTP requests for products and categories
type CatalogHandler struct {
	createProduct *command.CreateProductHandler
	updateProduct *command.UpdateProductHandler
	deleteProduct *command.DeleteProductHandler

	createCategory *command.CreateCategoryHandler
	updateCategory *command.UpdateCategoryHandler
	deleteCategory *command.DeleteCategoryHandler

	getProduct     *query.GetProductHandler
	listProducts   *query.ListProductsHandler
	getCategory    *query.GetCategoryHandler
	listCategories *query.ListCategoriesHandler

	adminOnly func(http.HandlerFunc) http.HandlerFunc
	cache     *middleware.Cache

	requestCounter *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

func NewCatalogHandler(
	createProduct *command.CreateProductHandler,
	updateProduct *command.UpdateProductHandler,
	deleteProduct *command.DeleteProductHandler,
	createCategory *command.CreateCategoryHandler,
	updateCategory *command.UpdateCategoryHandler,
	deleteCategory *command.DeleteCategoryHandler,
	getProduct *query.GetProductHandler,
	listProducts *query.ListProductsHandler,
	getCategory *query.GetCategoryHandler,
	listCategories *query.ListCategoriesHandler,
	adminOnly func(http.HandlerFunc) http.HandlerFunc,
	cache *middleware.Cache,
) *CatalogHandler {
	requestCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_service_requests_total",
			Help: "Total number of requests to the catalog service",
		},
		[]string{"method", "endpoint", "status"},
	)
	requestLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_service_request_duration_seconds",
			Help:    "Duration of catalog service requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
	prometheus.MustRegister(requestCounter)
	prometheus.MustRegister(requestLatency)

	return &CatalogHandler{
		createProduct:  createProduct,
		updateProduct:  updateProduct,
		deleteProduct:  deleteProduct,
		createCategory: createCategory,
		updateCategory: updateCategory,
		deleteCategory: deleteCategory,
		getProduct:     getProduct,
		listProducts:   listProducts,
		getCategory:    getCategory,
		listCategories: listCategories,
		adminOnly:      adminOnly,
		cache:          cache,
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

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (h *CatalogHandler) metrics(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		duration := time.Since(start).Seconds()
		h.requestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(rw.statusCode)).Inc()
		h.requestLatency.WithLabelValues(r.Method, endpoint).Observe(duration)
	}
}

func (h *CatalogHandler) RegisterRoutes(router *mux.Router) {
	// Public routes
	router.HandleFunc("/api/products", h.metrics("/api/products", h.cache.Wrap(h.ListProducts))).Methods("GET")
	router.HandleFunc("/api/products/category/{slug}", h.metrics("/api/products/category/{slug}", h.cache.Wrap(h.ListProductsByCategory))).Methods("GET")
	router.HandleFunc("/api/products/{id}", h.metrics("/api/products/{id}", h.cache.Wrap(h.GetProduct))).Methods("GET")
	router.HandleFunc("/api/categories", h.metrics("/api/categories", h.cache.Wrap(h.ListCategories))).Methods("GET")
	router.HandleFunc("/api/categories/{id}", h.metrics("/api/categories/{id}", h.cache.Wrap(h.GetCategory))).Methods("GET")

	// Admin routes
	router.HandleFunc("/api/products", h.metrics("/api/products", h.adminOnly(h.CreateProduct))).Methods("POST")
	router.HandleFunc("/api/products/{id}", h.metrics("/api/products/{id}", h.adminOnly(h.UpdateProduct))).Methods("PUT")
	router.HandleFunc("/api/products/{id}", h.metrics("/api/products/{id}", h.adminOnly(h.DeleteProduct))).Methods("DELETE")
	router.HandleFunc("/api/categories", h.metrics("/api/categories", h.adminOnly(h.CreateCategory))).Methods("POST")
	router.HandleFunc("/api/categories/{id}", h.metrics("/api/categories/{id}", h.adminOnly(h.UpdateCategory))).Methods("PUT")
	router.HandleFunc("/api/categories/{id}", h.metrics("/api/categories/{id}", h.adminOnly(h.DeleteCategory))).Methods("DELETE")
}

type productRequest struct {
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Price       float64               `json:"price"`
	Stock       int                   `json:"stock"`
	Status      string                `json:"status"`
	SKU         string                `json:"sku"`
	Tags        []string              `json:"tags"`
	Colors      []string              `json:"colors"`
	Sizes       []string              `json:"sizes"`
	Materials   []string              `json:"materials"`
	Images      []domain.ProductImage `json:"images"`
	Category    string                `json:"category"`
	IsFeatured  bool                  `json:"isFeatured"`
}

// CreateProduct handles POST /api/products
func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return
	}
	categoryID, err := primitive.ObjectIDFromHex(req.Category)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid category id"})
		return
	}

	cmd := command.CreateProductCommand{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		SKU:         req.SKU,
		Tags:        req.Tags,
		Colors:      req.Colors,
		Sizes:       req.Sizes,
		Materials:   req.Materials,
		Images:      req.Images,
		CategoryID:  categoryID,
		IsFeatured:  req.IsFeatured,
	}
	if creator, ok := middleware.UserIDFrom(r.Context()); ok {
		cmd.CreatedBy = creator
	}

	product, err := h.createProduct.Handle(r.Context(), cmd)
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to create product")
		respondAppError(w, err)
		return
	}

	h.cache.Invalidate(r)
	respondJSON(w, http.StatusCreated, Response{Success: true, Message: "Product created successfully", Data: product})
}

// UpdateProduct handles PUT /api/products/{id}
func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		respondJSON(w, http.StatusNotFound, Response{Success: false, Error: "Product not found"})
		return
	}
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return
	}
	categoryID, err := primitive.ObjectIDFromHex(req.Category)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid category id"})
		return
	}

	product, err := h.updateProduct.Handle(r.Context(), command.UpdateProductCommand{
		ProductID:   id,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Status:      req.Status,
		Tags:        req.Tags,
		Colors:      req.Colors,
		Sizes:       req.Sizes,
		Materials:   req.Materials,
		Images:      req.Images,
		CategoryID:  categoryID,
		IsFeatured:  req.IsFeatured,
	})
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to update product")
		respondAppError(w, err)
		return
	}

	h.cache.Invalidate(r)
	respondJSON(w, http.StatusOK, Response{Success: true, Message: "Product updated successfully", Data: product})
}

// DeleteProduct handles DELETE /api/products/{id}
func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		respondJSON(w, http.StatusNotFound, Response{Success: false, Error: "Product not found"})
		return
	}
	if err := h.deleteProduct.Handle(r.Context(), command.DeleteProductCommand{ProductID: id}); err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to delete product")
		respondAppError(w, err)
		return
	}
	h.cache.Invalidate(r)
	respondJSON(w, http.StatusOK, Response{Success: true, Message: "Product deleted successfully"})
}

// GetProduct handles GET /api/products/{id}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		respondJSON(w, http.StatusNotFound, Response{Success: false, Error: "Product not found"})
		return
	}
	result, err := h.getProduct.Handle(r.Context(), query.GetProductQuery{ID: id})
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Data: result})
}

// ListProducts handles GET /api/products
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		respondAppError(w, err)
		return
	}
	result, err := h.listProducts.Handle(r.Context(), query.ListProductsQuery{Filter: filter})
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Data: result})
}

// ListProductsByCategory handles GET /api/products/category/{slug}
func (h *CatalogHandler) ListProductsByCategory(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		respondAppError(w, err)
		return
	}
	result, err := h.listProducts.Handle(r.Context(), query.ListProductsQuery{
		Filter:       filter,
		CategorySlug: mux.Vars(r)["slug"],
	})
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Data: result})
}

type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
	ClearImage  bool   `json:"clearImage"`
}

// CreateCategory handles POST /api/categories
func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return
	}
	category, err := h.createCategory.Handle(r.Context(), command.CreateCategoryCommand{
		Name:        req.Name,
		Description: req.Description,
		Image:       req.Image,
	})
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to create category")
		respondAppError(w, err)
		return
	}
	h.cache.Invalidate(r)
	respondJSON(w, http.StatusCreated, Response{Success: true, Message: "Category created successfully", Data: category})
}

// UpdateCategory handles PUT /api/categories/{id}
func (h *CatalogHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		respondJSON(w, http.StatusNotFound, Response{Success: false, Error: "Category not found"})
		return
	}
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return
	}
	category, err := h.updateCategory.Handle(r.Context(), command.UpdateCategoryCommand{
		CategoryID:  id,
		Name:        req.Name,
		Description: req.Description,
		Image:       req.Image,
		ClearImage:  req.ClearImage,
	})
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to update category")
		respondAppError(w, err)
		return
	}
	h.cache.Invalidate(r)
	respondJSON(w, http.StatusOK, Response{Success: true, Message: "Category updated successfully", Data: category})
}

// DeleteCategory handles DELETE /api/categories/{id}
func (h *CatalogHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		respondJSON(w, http.StatusNotFound, Response{Success: false, Error: "Category not found"})
		return
	}
	if err := h.deleteCategory.Handle(r.Context(), command.DeleteCategoryCommand{CategoryID: id}); err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to delete category")
		respondAppError(w, err)
		return
	}
	h.cache.Invalidate(r)
	respondJSON(w, http.StatusOK, Response{Success: true, Message: "Category deleted successfully"})
}

// GetCategory handles GET /api/categories/{id} (hex id or slug)
func (h *CatalogHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	result, err := h.getCategory.Handle(r.Context(), query.GetCategoryQuery{IDOrSlug: mux.Vars(r)["id"]})
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Data: result})
}

// ListCategories handles GET /api/categories
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	result, err := h.listCategories.Handle(r.Context(), query.ListCategoriesQuery{})
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Data: result})
}

func filterFromQuery(r *http.Request) (domain.ProductFilter, error) {
	q := r.URL.Query()
	filter := domain.ProductFilter{
		Search:       q.Get("search"),
		Status:       q.Get("status"),
		FeaturedOnly: q.Get("featured") == "true",
		Sort:         q.Get("sort"),
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))

	if raw := q.Get("category"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return filter, apperr.New(apperr.CodeInvalidArgument, "Invalid category id")
		}
		filter.CategoryID = &id
	}
	if raw := q.Get("minPrice"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			filter.MinPrice = &v
		}
	}
	if raw := q.Get("maxPrice"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			filter.MaxPrice = &v
		}
	}
	return filter, nil
}

func respondAppError(w http.ResponseWriter, err error) {
	respondJSON(w, apperr.HTTPStatus(err), Response{Success: false, Message: apperr.MessageOf(err)})
}

func respondJSON(w http.ResponseWriter, status int, payload Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
