package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/biotechlab/lis-backend/internal/lis/events"
	"github.com/biotechlab/lis-backend/internal/lis/repository"
	"github.com/biotechlab/lis-backend/pkg/actor"
	"github.com/biotechlab/lis-backend/pkg/errors"
	"github.com/biotechlab/lis-backend/pkg/logger"
	"github.com/biotechlab/lis-backend/pkg/messaging"
)

// TransactionService handles multi-line sales. A sale deducts stock from the
// per-location ledger line by line inside one transaction: if any line cannot
// be satisfied, nothing is deducted and no sale is recorded.
type TransactionService struct {
	store             repository.Store
	publisher         *events.Publisher
	logger            *logger.Logger
	lowStockThreshold int
}

// NewTransactionService creates a new transaction service
func NewTransactionService(store repository.Store, publisher *events.Publisher, log *logger.Logger, lowStockThreshold int) *TransactionService {
	return &TransactionService{
		store:             store,
		publisher:         publisher,
		logger:            log,
		lowStockThreshold: lowStockThreshold,
	}
}

// SaleLine is one requested deduction: an item quantity from one location.
type SaleLine struct {
	ItemCode   string
	LocationID int64
	Quantity   int
}

// CreateSaleInput describes one sale.
type CreateSaleInput struct {
	InvoiceReference string
	CustomerName     string
	TransactionDate  *time.Time
	Lines            []SaleLine
}

// SaleWithLines is a sale header together with its lines.
type SaleWithLines struct {
	*repository.CustomerTransaction
	Lines []*repository.SoldItem `json:"lines"`
}

// CreateSale records a sale. Each line takes a row lock on its ledger entry
// before checking availability, so two concurrent sales of the same stock
// serialize and the second sees what the first left behind.
func (s *TransactionService) CreateSale(ctx context.Context, input CreateSaleInput, by *actor.Actor) (*SaleWithLines, error) {
	if strings.TrimSpace(input.InvoiceReference) == "" {
		return nil, errors.BadRequest("invoice reference must not be empty")
	}
	if len(input.Lines) == 0 {
		return nil, errors.BadRequest("sale must have at least one line")
	}
	for _, line := range input.Lines {
		if line.Quantity <= 0 {
			return nil, errors.BadRequest("line quantity must be positive")
		}
	}

	var (
		header   *repository.CustomerTransaction
		sold     []*repository.SoldItem
		adjusted []*repository.Inventory
	)
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		if _, err := tx.GetTransactionByInvoice(ctx, input.InvoiceReference); err == nil {
			return errors.Conflict("invoice reference already used: " + input.InvoiceReference)
		} else if !isNotFound(err) {
			return err
		}

		sold = nil
		adjusted = nil
		total := 0.0

		for _, line := range input.Lines {
			item, err := tx.GetInventoryByCode(ctx, line.ItemCode)
			if err != nil {
				return err
			}

			entry, err := tx.GetItemLocationForUpdate(ctx, line.ItemCode, line.LocationID)
			if err != nil {
				return err
			}
			if entry.Quantity < line.Quantity {
				return errors.InsufficientStock(line.ItemCode, entry.Quantity, line.Quantity)
			}

			if err := tx.SetItemLocationQuantity(ctx, entry.ID, entry.Quantity-line.Quantity); err != nil {
				return err
			}

			newTotal, err := syncQuantity(ctx, tx, line.ItemCode)
			if err != nil {
				return err
			}
			item.Quantity = newTotal
			adjusted = append(adjusted, item)

			total += item.RetailPrice * float64(line.Quantity)
			sold = append(sold, &repository.SoldItem{
				ItemCode:    item.ItemCode,
				ItemName:    item.ItemName,
				Brand:       item.Brand,
				LotNumber:   item.LotNumber,
				LocationID:  line.LocationID,
				Quantity:    line.Quantity,
				RetailPrice: item.RetailPrice,
			})
		}

		date := time.Now()
		if input.TransactionDate != nil {
			date = *input.TransactionDate
		}

		header = &repository.CustomerTransaction{
			InvoiceReference: input.InvoiceReference,
			CustomerName:     input.CustomerName,
			TotalRetailPrice: total,
			SoldBy:           by.FullName(),
			TransactionDate:  date,
		}
		if err := tx.CreateTransaction(ctx, header); err != nil {
			return err
		}

		for _, item := range sold {
			item.TransactionID = header.ID
			if err := tx.CreateSoldItem(ctx, item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.PublishSaleRecorded(ctx, messaging.SaleRecordedData{
		InvoiceReference: header.InvoiceReference,
		CustomerName:     header.CustomerName,
		LineCount:        len(sold),
		TotalRetailPrice: header.TotalRetailPrice,
		SoldBy:           header.SoldBy,
	})
	for i, item := range adjusted {
		s.publisher.PublishStockAdjusted(ctx, messaging.StockAdjustedData{
			ItemCode:    item.ItemCode,
			ItemName:    item.ItemName,
			LocationID:  sold[i].LocationID,
			Delta:       -sold[i].Quantity,
			NewTotal:    item.Quantity,
			Reason:      "sale",
			PerformedBy: header.SoldBy,
		})
		if item.Quantity <= s.lowStockThreshold {
			s.publisher.PublishLowStock(ctx, messaging.LowStockData{
				ItemCode:  item.ItemCode,
				ItemName:  item.ItemName,
				Quantity:  item.Quantity,
				Threshold: s.lowStockThreshold,
			})
		}
	}

	s.logger.Info().
		Str("invoice_reference", header.InvoiceReference).
		Int("lines", len(sold)).
		Float64("total", header.TotalRetailPrice).
		Msg("sale recorded")

	return &SaleWithLines{CustomerTransaction: header, Lines: sold}, nil
}

// GetSale gets a sale with its lines
func (s *TransactionService) GetSale(ctx context.Context, id int64) (*SaleWithLines, error) {
	header, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	lines, err := s.store.ListSoldItems(ctx, id)
	if err != nil {
		return nil, err
	}
	return &SaleWithLines{CustomerTransaction: header, Lines: lines}, nil
}

// ListSales lists all sale headers
func (s *TransactionService) ListSales(ctx context.Context) ([]*repository.CustomerTransaction, error) {
	return s.store.ListTransactions(ctx)
}

// DeleteSale reverses a sale: each line's quantity is returned to the
// location it was taken from, then the sale is removed. Lines whose item no
// longer exists are skipped.
func (s *TransactionService) DeleteSale(ctx context.Context, id int64) error {
	var (
		header *repository.CustomerTransaction
		lines  []*repository.SoldItem
	)
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		var err error
		header, err = tx.GetTransaction(ctx, id)
		if err != nil {
			return err
		}
		lines, err = tx.ListSoldItems(ctx, id)
		if err != nil {
			return err
		}

		for _, line := range lines {
			if _, err := tx.GetInventoryByCode(ctx, line.ItemCode); err != nil {
				if isNotFound(err) {
					continue
				}
				return err
			}
			if err := tx.UpsertItemLocation(ctx, line.ItemCode, line.LocationID, line.Quantity); err != nil {
				return err
			}
			if _, err := syncQuantity(ctx, tx, line.ItemCode); err != nil {
				return err
			}
		}

		return tx.DeleteTransaction(ctx, id)
	})
	if err != nil {
		return err
	}

	s.publisher.PublishSaleReversed(ctx, messaging.SaleRecordedData{
		InvoiceReference: header.InvoiceReference,
		CustomerName:     header.CustomerName,
		LineCount:        len(lines),
		TotalRetailPrice: header.TotalRetailPrice,
		SoldBy:           header.SoldBy,
	})
	s.logger.Info().Str("invoice_reference", header.InvoiceReference).Msg("sale reversed")
	return nil
}

// DashboardStats are the sales aggregates for one reporting period.
type DashboardStats struct {
	Period           string  `json:"period"`
	From             string  `json:"from"`
	To               string  `json:"to"`
	TransactionCount int64   `json:"transaction_count"`
	TotalQuantity    int64   `json:"total_quantity"`
	TotalRevenue     float64 `json:"total_revenue"`
}

// Dashboard aggregates sales for a daily, monthly, or yearly period. The
// date selects which day, month, or year; when empty, the current one.
// Both period boundaries are inclusive.
func (s *TransactionService) Dashboard(ctx context.Context, period, date string) (*DashboardStats, error) {
	from, to, err := periodBounds(period, date, time.Now())
	if err != nil {
		return nil, err
	}

	stats, err := s.store.SalesStatsBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	return &DashboardStats{
		Period:           period,
		From:             from.Format("2006-01-02"),
		To:               to.Format("2006-01-02"),
		TransactionCount: stats.TransactionCount,
		TotalQuantity:    stats.TotalQuantity,
		TotalRevenue:     stats.TotalRevenue,
	}, nil
}

// periodBounds resolves a reporting period to its inclusive time range.
func periodBounds(period, date string, now time.Time) (time.Time, time.Time, error) {
	switch period {
	case "daily":
		day := now
		if date != "" {
			var err error
			day, err = time.Parse("2006-01-02", date)
			if err != nil {
				return time.Time{}, time.Time{}, errors.BadRequest("invalid date, expected YYYY-MM-DD")
			}
		}
		from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(0, 0, 1).Add(-time.Nanosecond), nil

	case "monthly":
		month := now
		if date != "" {
			var err error
			month, err = time.Parse("2006-01", date)
			if err != nil {
				return time.Time{}, time.Time{}, errors.BadRequest("invalid date, expected YYYY-MM")
			}
		}
		from := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(0, 1, 0).Add(-time.Nanosecond), nil

	case "yearly":
		year := now
		if date != "" {
			var err error
			year, err = time.Parse("2006", date)
			if err != nil {
				return time.Time{}, time.Time{}, errors.BadRequest("invalid date, expected YYYY")
			}
		}
		from := time.Date(year.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(1, 0, 0).Add(-time.Nanosecond), nil

	default:
		return time.Time{}, time.Time{}, errors.BadRequest(fmt.Sprintf("unknown period %q, expected daily, monthly, or yearly", period))
	}
}
