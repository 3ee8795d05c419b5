package handler

import (
	"net/http"
	"time"

	"github.com/biotechlab/lis-backend/internal/lis/service"
	"github.com/biotechlab/lis-backend/pkg/actor"
	"github.com/biotechlab/lis-backend/pkg/httputil"
	"github.com/biotechlab/lis-backend/pkg/logger"
)

// TransactionHandler handles sales endpoints
type TransactionHandler struct {
	service *service.TransactionService
	logger  *logger.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(svc *service.TransactionService, log *logger.Logger) *TransactionHandler {
	return &TransactionHandler{
		service: svc,
		logger:  log,
	}
}

type saleLineRequest struct {
	ItemCode   string `json:"item_code" validate:"required"`
	LocationID int64  `json:"location_id" validate:"required"`
	Quantity   int    `json:"quantity" validate:"required,gt=0"`
}

type saleRequest struct {
	InvoiceReference string            `json:"invoice_reference" validate:"required"`
	CustomerName     string            `json:"customer_name" validate:"required"`
	TransactionDate  *time.Time        `json:"transaction_date,omitempty"`
	Lines            []saleLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// Create records a sale
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	lines := make([]service.SaleLine, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = service.SaleLine{
			ItemCode:   l.ItemCode,
			LocationID: l.LocationID,
			Quantity:   l.Quantity,
		}
	}

	sale, err := h.service.CreateSale(r.Context(), service.CreateSaleInput{
		InvoiceReference: req.InvoiceReference,
		CustomerName:     req.CustomerName,
		TransactionDate:  req.TransactionDate,
		Lines:            lines,
	}, actor.FromContext(r.Context()))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, sale)
}

// List lists all sales
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	sales, err := h.service.ListSales(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, sales)
}

// Get gets a sale with its lines
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	sale, err := h.service.GetSale(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, sale)
}

// Delete reverses a sale, returning its stock
func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.service.DeleteSale(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// Dashboard returns sales aggregates for a period
// GET /transactions/dashboard?period=daily&date=2026-03-15
func (h *TransactionHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	date := r.URL.Query().Get("date")

	stats, err := h.service.Dashboard(r.Context(), period, date)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, stats)
}
