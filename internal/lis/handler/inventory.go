package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/biotechlab/lis-backend/internal/lis/service"
	"github.com/biotechlab/lis-backend/pkg/actor"
	"github.com/biotechlab/lis-backend/pkg/httputil"
	"github.com/biotechlab/lis-backend/pkg/logger"
)

// InventoryHandler handles inventory endpoints
type InventoryHandler struct {
	service *service.InventoryService
	logger  *logger.Logger
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(svc *service.InventoryService, log *logger.Logger) *InventoryHandler {
	return &InventoryHandler{
		service: svc,
		logger:  log,
	}
}

type locationQuantityRequest struct {
	LocationID int64 `json:"location_id" validate:"required"`
	Quantity   int   `json:"quantity" validate:"gte=0"`
}

type itemRequest struct {
	ItemName      string                    `json:"item_name" validate:"required"`
	Brand         string                    `json:"brand" validate:"required"`
	CostPrice     float64                   `json:"cost_price" validate:"gte=0"`
	RetailPrice   float64                   `json:"retail_price" validate:"gte=0"`
	LotNumber     *string                   `json:"lot_number,omitempty"`
	PackSize      *string                   `json:"pack_size,omitempty"`
	ExpiryDate    *time.Time                `json:"expiry_date,omitempty"`
	Note          *string                   `json:"note,omitempty"`
	POPIReference *string                   `json:"po_pi_reference,omitempty"`
	InvoiceNumber *string                   `json:"invoice_number,omitempty"`
	// On update, omitting locations keeps the item's current stock
	// placement; providing the list replaces it entirely.
	Locations []locationQuantityRequest `json:"locations"`
}

func (req *itemRequest) locations() []service.LocationQuantity {
	if req.Locations == nil {
		return nil
	}
	out := make([]service.LocationQuantity, len(req.Locations))
	for i, l := range req.Locations {
		out[i] = service.LocationQuantity{LocationID: l.LocationID, Quantity: l.Quantity}
	}
	return out
}

// Create creates a new inventory item with its stock placement
func (h *InventoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	item, err := h.service.CreateItem(r.Context(), service.CreateItemInput{
		ItemName:      req.ItemName,
		Brand:         req.Brand,
		CostPrice:     req.CostPrice,
		RetailPrice:   req.RetailPrice,
		LotNumber:     req.LotNumber,
		PackSize:      req.PackSize,
		ExpiryDate:    req.ExpiryDate,
		Note:          req.Note,
		POPIReference: req.POPIReference,
		InvoiceNumber: req.InvoiceNumber,
		Locations:     req.locations(),
	}, actor.FromContext(r.Context()))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, item)
}

// List lists all inventory items with their location breakdowns
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListItems(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, items)
}

// Get gets an item by its code
func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	itemCode := chi.URLParam(r, "itemCode")

	item, err := h.service.GetItem(r.Context(), itemCode)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, item)
}

// Update updates an item's details and optionally replaces its ledger
func (h *InventoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	itemCode := chi.URLParam(r, "itemCode")

	var req itemRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	item, err := h.service.UpdateItem(r.Context(), itemCode, service.UpdateItemInput{
		ItemName:      req.ItemName,
		Brand:         req.Brand,
		CostPrice:     req.CostPrice,
		RetailPrice:   req.RetailPrice,
		LotNumber:     req.LotNumber,
		PackSize:      req.PackSize,
		ExpiryDate:    req.ExpiryDate,
		Note:          req.Note,
		POPIReference: req.POPIReference,
		InvoiceNumber: req.InvoiceNumber,
		Locations:     req.locations(),
	}, actor.FromContext(r.Context()))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, item)
}

// Delete removes an item and its ledger
func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	itemCode := chi.URLParam(r, "itemCode")

	if err := h.service.DeleteItem(r.Context(), itemCode); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// Alerts lists items at or below the low-stock threshold
func (h *InventoryHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.StockAlerts(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, items)
}

// Highest lists the items with the most stock
func (h *InventoryHandler) Highest(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	items, err := h.service.HighestStock(r.Context(), limit)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, items)
}

// Lowest lists the items with the least stock
func (h *InventoryHandler) Lowest(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	items, err := h.service.LowestStock(r.Context(), limit)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, items)
}

// Expiring lists items expiring within the requested number of days
// GET /inventory/expiring?days=30
func (h *InventoryHandler) Expiring(w http.ResponseWriter, r *http.Request) {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))

	items, err := h.service.ExpiringStock(r.Context(), days)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, items)
}
