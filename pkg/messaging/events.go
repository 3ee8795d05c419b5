package messaging

import (
	"time"

	"github.com/google/uuid"
)

// Event types published by the service
const (
	EventStockAdjusted    = "inventory.stock.adjusted"
	EventLowStock         = "inventory.stock.low"
	EventItemCreated      = "inventory.item.created"
	EventItemDeleted      = "inventory.item.deleted"
	EventPurchaseRecorded = "purchasing.order.recorded"
	EventPurchaseReversed = "purchasing.order.reversed"
	EventSaleRecorded     = "sales.transaction.recorded"
	EventSaleReversed     = "sales.transaction.reversed"
	EventUserRegistered   = "identity.user.registered"
)

// Exchange is the topic exchange all service events are published to.
const Exchange = "lis.events"

// Event represents a domain event published to the message broker
type Event struct {
	ID            string      `json:"id"`
	Type          string      `json:"type"`
	Source        string      `json:"source"`
	Timestamp     time.Time   `json:"timestamp"`
	CorrelationID string      `json:"correlation_id,omitempty"`
	Data          interface{} `json:"data"`
}

// NewEvent creates a new event with generated ID and current timestamp
func NewEvent(eventType, source string, data interface{}) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    source,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// StockAdjustedData is the payload for stock adjustment events.
type StockAdjustedData struct {
	ItemCode    string `json:"item_code"`
	ItemName    string `json:"item_name"`
	LocationID  int64  `json:"location_id"`
	Delta       int    `json:"delta"`
	NewTotal    int    `json:"new_total"`
	Reason      string `json:"reason"`
	PerformedBy string `json:"performed_by"`
}

// LowStockData is the payload for low stock alerts.
type LowStockData struct {
	ItemCode  string `json:"item_code"`
	ItemName  string `json:"item_name"`
	Quantity  int    `json:"quantity"`
	Threshold int    `json:"threshold"`
}

// SaleRecordedData is the payload for recorded sale events.
type SaleRecordedData struct {
	InvoiceReference string  `json:"invoice_reference"`
	CustomerName     string  `json:"customer_name"`
	LineCount        int     `json:"line_count"`
	TotalRetailPrice float64 `json:"total_retail_price"`
	SoldBy           string  `json:"sold_by"`
}

// PurchaseRecordedData is the payload for recorded purchase order events.
type PurchaseRecordedData struct {
	ItemCode   string `json:"item_code"`
	ItemName   string `json:"item_name"`
	Quantity   int    `json:"quantity"`
	ReceivedBy string `json:"received_by"`
}
