package upload

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/nayher/commerce-backend/pkg/logger"
	"github.com/nayher/commerce-backend/pkg/storage"
)

const maxUploadSize = 5 << 20 // 5 MB

// Handler accepts product image uploads and stores them in the media bucket.
type Handler struct {
	store     storage.Store
	adminOnly func(http.HandlerFunc) http.HandlerFunc
}

func NewHandler(store storage.Store, adminOnly func(http.HandlerFunc) http.HandlerFunc) *Handler {
	return &Handler{store: store, adminOnly: adminOnly}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/admin/uploads", h.adminOnly(h.Upload)).Methods("POST")
}

// Upload handles POST /api/admin/uploads
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "File too large, maximum size is 5MB",
		})
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "Image file is required",
		})
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "Only image files are allowed",
		})
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "Failed to read upload",
		})
		return
	}

	key := fmt.Sprintf("products/%s/%s%s",
		time.Now().Format("2006/01"),
		uuid.NewString(),
		strings.ToLower(filepath.Ext(header.Filename)),
	)
	url, err := h.store.Put(r.Context(), key, data, contentType)
	if err != nil {
		logger.Error(r.Context()).Err(err).Str("key", key).Msg("Failed to store upload")
		respondJSON(w, http.StatusBadGateway, map[string]any{
			"success": false,
			"message": "Failed to store upload",
		})
		return
	}

	logger.Info(r.Context()).Str("key", key).Int("size", len(data)).Msg("Image uploaded")
	respondJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"data":    map[string]string{"url": url},
	})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
