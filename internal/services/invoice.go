package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/go-pos/internal/apperr"
	"github.com/diewo77/go-pos/internal/events"
	"github.com/diewo77/go-pos/internal/logger"
	"github.com/diewo77/go-pos/internal/models"
	"github.com/diewo77/go-pos/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LineItem is one requested line of a new invoice.
type LineItem struct {
	ProductID uint  `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

// InvoiceDetails is an invoice with its items in insertion order.
type InvoiceDetails struct {
	Invoice   *models.Invoice      `json:"invoice"`
	Items     []models.InvoiceItem `json:"items"`
	ItemCount int                  `json:"item_count"`
}

// InvoiceService runs the invoice workflow: creation with stock deduction,
// cancellation with stock restoration, and invoice reads. Each mutating call
// is one transaction; nothing is published until it commits.
type InvoiceService struct {
	db  *gorm.DB
	bus events.Publisher
	now Clock
}

func NewInvoiceService(db *gorm.DB, bus events.Publisher) *InvoiceService {
	if bus == nil {
		bus = events.Nop{}
	}
	return &InvoiceService{db: db, bus: bus, now: time.Now}
}

// WithClock replaces the time source used for invoice dates and "today".
func (s *InvoiceService) WithClock(now Clock) *InvoiceService {
	s.now = now
	return s
}

// CreateInvoice validates every line against current stock, then persists
// the header and items and decrements stock in caller order. Lines for the
// same product are kept as separate items but their quantities are summed
// for the stock check. Any failure leaves the database unchanged.
func (s *InvoiceService) CreateInvoice(ctx context.Context, customerID *uint, lines []LineItem) (*models.Invoice, error) {
	if err := checkLines(lines); err != nil {
		return nil, err
	}

	batch := uuid.NewString()
	var invoice *models.Invoice
	var changes []events.Event
	err := repository.WithTx(ctx, s.db, func(repos *repository.Repositories) error {
		if customerID != nil {
			c, err := repos.Customers.Get(ctx, *customerID)
			if err != nil {
				return err
			}
			if c == nil {
				return apperr.ErrCustomerNotFound
			}
		}

		prices, err := validateStock(ctx, repos.Products, lines)
		if err != nil {
			return err
		}

		inv := &models.Invoice{
			CustomerID: customerID,
			Date:       s.now().UTC(),
			Status:     models.InvoiceStatusPending,
		}
		if err := repos.Invoices.Create(ctx, inv); err != nil {
			return err
		}

		var total int64
		for _, line := range lines {
			item := models.InvoiceItem{
				InvoiceID: inv.ID,
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				UnitPrice: prices[line.ProductID],
			}
			item.TotalPrice = item.LineTotal()
			if err := repos.Invoices.CreateItem(ctx, &item); err != nil {
				return err
			}
			note := repository.StockNote{Reason: models.ReasonSale, InvoiceID: &inv.ID, BatchID: batch}
			p, err := repos.Products.AdjustQuantity(ctx, line.ProductID, line.Quantity, models.StockDecrease, note)
			if err != nil {
				return err
			}
			total += item.TotalPrice
			inv.Items = append(inv.Items, item)
			changes = append(changes, events.StockChanged{
				ProductID: p.ID, Before: p.Quantity + line.Quantity, After: p.Quantity, Reason: models.ReasonSale,
			})
		}

		if err := repos.Invoices.UpdateTotal(ctx, inv.ID, total); err != nil {
			return err
		}
		inv.TotalAmount = total
		invoice = inv
		return nil
	})
	if err != nil {
		logger.Error("create invoice failed", err)
		return nil, err
	}

	logger.Info("invoice %d created: %d items, total %d", invoice.ID, len(invoice.Items), invoice.TotalAmount)
	s.bus.Publish(append(changes, events.InvoiceCreated{
		InvoiceID: invoice.ID, TotalAmount: invoice.TotalAmount, ItemCount: len(invoice.Items),
	})...)
	return invoice, nil
}

func checkLines(lines []LineItem) error {
	if len(lines) == 0 {
		return apperr.ErrEmptyInvoice
	}
	for i, line := range lines {
		if line.ProductID == 0 {
			return apperr.Invalid(fmt.Sprintf("lines[%d].product_id", i), "required")
		}
		if line.Quantity <= 0 {
			return apperr.Invalid(fmt.Sprintf("lines[%d].quantity", i), "must be positive")
		}
	}
	return nil
}

// validateStock checks that every product exists and that the summed demand
// per product fits the quantity on hand. It returns the unit price of each
// product as read during validation.
func validateStock(ctx context.Context, products repository.ProductRepository, lines []LineItem) (map[uint]int64, error) {
	demand := make(map[uint]int64, len(lines))
	order := make([]uint, 0, len(lines))
	for _, line := range lines {
		if _, seen := demand[line.ProductID]; !seen {
			order = append(order, line.ProductID)
		}
		demand[line.ProductID] += line.Quantity
	}

	prices := make(map[uint]int64, len(order))
	for _, id := range order {
		p, err := products.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("product %d: %w", id, apperr.ErrProductNotFound)
		}
		if !p.CanFulfil(demand[id]) {
			return nil, &apperr.InsufficientStockError{ProductID: id, Available: p.Quantity, Requested: demand[id]}
		}
		prices[id] = p.Price
	}
	return prices, nil
}

// CancelInvoice restores the stock of every item and deletes the invoice.
// Items whose product no longer exists are skipped.
func (s *InvoiceService) CancelInvoice(ctx context.Context, id uint) error {
	batch := uuid.NewString()
	var changes []events.Event
	restored := 0
	err := repository.WithTx(ctx, s.db, func(repos *repository.Repositories) error {
		inv, err := repos.Invoices.Get(ctx, id)
		if err != nil {
			return err
		}
		if inv == nil {
			return apperr.ErrInvoiceNotFound
		}
		items, err := repos.Invoices.Items(ctx, id)
		if err != nil {
			return err
		}
		for _, item := range items {
			note := repository.StockNote{Reason: models.ReasonCancellation, InvoiceID: &inv.ID, BatchID: batch}
			p, err := repos.Products.AdjustQuantity(ctx, item.ProductID, item.Quantity, models.StockIncrease, note)
			if errors.Is(err, apperr.ErrProductNotFound) {
				logger.Warn("cancel invoice %d: product %d no longer exists, skipping restock", id, item.ProductID)
				continue
			}
			if err != nil {
				return err
			}
			restored++
			changes = append(changes, events.StockChanged{
				ProductID: p.ID, Before: p.Quantity - item.Quantity, After: p.Quantity, Reason: models.ReasonCancellation,
			})
		}
		deleted, err := repos.Invoices.Delete(ctx, id)
		if err != nil {
			return err
		}
		if !deleted {
			return apperr.ErrInvoiceNotFound
		}
		return nil
	})
	if err != nil {
		if !apperr.IsNotFound(err) {
			logger.Error("cancel invoice %d failed", err, id)
		}
		return err
	}

	logger.Info("invoice %d cancelled, %d items restocked", id, restored)
	s.bus.Publish(append(changes, events.InvoiceCancelled{InvoiceID: id, Restored: restored})...)
	return nil
}

// CompleteInvoice moves a pending invoice to COMPLETED.
func (s *InvoiceService) CompleteInvoice(ctx context.Context, id uint) (*models.Invoice, error) {
	var out *models.Invoice
	err := repository.WithTx(ctx, s.db, func(repos *repository.Repositories) error {
		inv, err := repos.Invoices.Get(ctx, id)
		if err != nil {
			return err
		}
		if inv == nil {
			return apperr.ErrInvoiceNotFound
		}
		if !inv.IsPending() {
			return apperr.ErrInvalidStatus
		}
		if err := repos.Invoices.UpdateStatus(ctx, id, models.InvoiceStatusCompleted); err != nil {
			return err
		}
		inv.Status = models.InvoiceStatusCompleted
		out = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.bus.Publish(events.InvoiceCompleted{InvoiceID: id})
	return out, nil
}

// GetInvoice returns the invoice header, or nil when it does not exist.
func (s *InvoiceService) GetInvoice(ctx context.Context, id uint) (*models.Invoice, error) {
	return repository.NewInvoiceRepository(s.db).Get(ctx, id)
}

// GetInvoiceWithDetails returns the invoice with its items in insertion order,
// or ErrInvoiceNotFound.
func (s *InvoiceService) GetInvoiceWithDetails(ctx context.Context, id uint) (*InvoiceDetails, error) {
	inv, err := repository.NewInvoiceRepository(s.db).GetWithItems(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, apperr.ErrInvoiceNotFound
	}
	items := inv.Items
	if items == nil {
		items = []models.InvoiceItem{}
	}
	return &InvoiceDetails{Invoice: inv, Items: items, ItemCount: len(items)}, nil
}

// CalculateTotal sums the stored line totals of an invoice.
func (s *InvoiceService) CalculateTotal(ctx context.Context, id uint) (int64, error) {
	repo := repository.NewInvoiceRepository(s.db)
	inv, err := repo.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	if inv == nil {
		return 0, apperr.ErrInvoiceNotFound
	}
	return repo.SumItems(ctx, id)
}

func (s *InvoiceService) ListInvoices(ctx context.Context, page, perPage int) (repository.Page[models.Invoice], error) {
	return repository.NewInvoiceRepository(s.db).Paginate(ctx, page, perPage)
}

// InvoicesByDateRange returns invoices dated on any calendar day from
// startDay through endDay inclusive, in startDay's location.
func (s *InvoiceService) InvoicesByDateRange(ctx context.Context, startDay, endDay time.Time) ([]models.Invoice, error) {
	from := startOfDay(startDay)
	to := startOfDay(endDay.In(startDay.Location())).AddDate(0, 0, 1)
	if !to.After(from) {
		return nil, apperr.Invalid("end", "must not be before start")
	}
	return repository.NewInvoiceRepository(s.db).ListByDateRange(ctx, from, to)
}

// TodayInvoices returns the invoices dated on the current calendar day.
func (s *InvoiceService) TodayInvoices(ctx context.Context) ([]models.Invoice, error) {
	from, to := dayRange(s.now())
	return repository.NewInvoiceRepository(s.db).ListByDateRange(ctx, from, to)
}

// SearchInvoices matches a numeric query against invoice ids. Any other
// query matches nothing.
func (s *InvoiceService) SearchInvoices(ctx context.Context, query string) ([]models.Invoice, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(query), 10, 64)
	if err != nil || id == 0 {
		return []models.Invoice{}, nil
	}
	inv, err := repository.NewInvoiceRepository(s.db).Get(ctx, uint(id))
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return []models.Invoice{}, nil
	}
	return []models.Invoice{*inv}, nil
}
