// Package handler exposes the LIS services over HTTP.
package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/biotechlab/lis-backend/internal/lis/service"
	"github.com/biotechlab/lis-backend/pkg/errors"
	"github.com/biotechlab/lis-backend/pkg/httputil"
	"github.com/biotechlab/lis-backend/pkg/logger"
)

// BrandHandler handles brand endpoints
type BrandHandler struct {
	service *service.BrandService
	logger  *logger.Logger
}

// NewBrandHandler creates a new brand handler
func NewBrandHandler(svc *service.BrandService, log *logger.Logger) *BrandHandler {
	return &BrandHandler{
		service: svc,
		logger:  log,
	}
}

type brandRequest struct {
	Name string `json:"name" validate:"required"`
}

// Create registers a new brand
func (h *BrandHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req brandRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	brand, err := h.service.AddBrand(r.Context(), req.Name)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, brand)
}

// List lists all brands
func (h *BrandHandler) List(w http.ResponseWriter, r *http.Request) {
	brands, err := h.service.ListBrands(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, brands)
}

// Get gets a brand by ID
func (h *BrandHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	brand, err := h.service.GetBrand(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, brand)
}

// Update renames a brand
func (h *BrandHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req brandRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	brand, err := h.service.UpdateBrand(r.Context(), id, req.Name)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, brand)
}

// Delete removes a brand
func (h *BrandHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.service.DeleteBrand(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// GenerateCode mints the next item code for a brand
// GET /brands/code?brand=Bioxene
func (h *BrandHandler) GenerateCode(w http.ResponseWriter, r *http.Request) {
	brandName := r.URL.Query().Get("brand")
	if brandName == "" {
		httputil.Error(w, errors.BadRequest("brand query parameter is required"))
		return
	}

	code, err := h.service.GenerateItemCode(r.Context(), brandName)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]string{"item_code": code})
}

// pathID parses a numeric {id} URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, errors.BadRequest("invalid " + name)
	}
	return id, nil
}
