package handler

import (
	"net/http"
	"time"

	"github.com/biotechlab/lis-backend/internal/lis/service"
	"github.com/biotechlab/lis-backend/pkg/actor"
	"github.com/biotechlab/lis-backend/pkg/httputil"
	"github.com/biotechlab/lis-backend/pkg/logger"
)

// PurchaseHandler handles purchase order endpoints
type PurchaseHandler struct {
	service *service.PurchaseService
	logger  *logger.Logger
}

// NewPurchaseHandler creates a new purchase handler
func NewPurchaseHandler(svc *service.PurchaseService, log *logger.Logger) *PurchaseHandler {
	return &PurchaseHandler{
		service: svc,
		logger:  log,
	}
}

type purchaseOrderRequest struct {
	ItemName      string     `json:"item_name" validate:"required"`
	Brand         string     `json:"brand" validate:"required"`
	Quantity      int        `json:"quantity" validate:"required,gt=0"`
	CostPrice     float64    `json:"cost_price" validate:"gte=0"`
	RetailPrice   float64    `json:"retail_price" validate:"gte=0"`
	PackSize      *string    `json:"pack_size,omitempty"`
	ExpiryDate    *time.Time `json:"expiry_date,omitempty"`
	POPIReference *string    `json:"po_pi_reference,omitempty"`
	LocationID    int64      `json:"location_id" validate:"required"`
}

// Create records a stock intake
func (h *PurchaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req purchaseOrderRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	order, err := h.service.CreateOrder(r.Context(), service.CreateOrderInput{
		ItemName:      req.ItemName,
		Brand:         req.Brand,
		Quantity:      req.Quantity,
		CostPrice:     req.CostPrice,
		RetailPrice:   req.RetailPrice,
		PackSize:      req.PackSize,
		ExpiryDate:    req.ExpiryDate,
		POPIReference: req.POPIReference,
		LocationID:    req.LocationID,
	}, actor.FromContext(r.Context()))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, order)
}

// List lists all purchase orders
func (h *PurchaseHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListOrders(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, orders)
}

// Get gets a purchase order by ID
func (h *PurchaseHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	order, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, order)
}

// Delete reverses an intake, removing the order and its counterpart item
func (h *PurchaseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.service.DeleteOrder(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}
