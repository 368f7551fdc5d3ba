package services

import (
	"context"
	"time"

	"github.com/diewo77/go-pos/internal/apperr"
	"github.com/diewo77/go-pos/internal/models"
	"github.com/diewo77/go-pos/internal/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DailyReport aggregates the invoices of one calendar day.
type DailyReport struct {
	Date          string           `json:"date"`
	TotalSales    int64            `json:"total_sales"`
	TotalInvoices int              `json:"total_invoices"`
	Average       decimal.Decimal  `json:"average_invoice"`
	Invoices      []models.Invoice `json:"invoices"`
}

// DayTotal is one row of a monthly breakdown.
type DayTotal struct {
	Date       string `json:"date"`
	TotalSales int64  `json:"total_sales"`
	Invoices   int    `json:"invoices"`
}

type MonthlyReport struct {
	Year          int             `json:"year"`
	Month         int             `json:"month"`
	Start         string          `json:"start"`
	End           string          `json:"end"`
	TotalSales    int64           `json:"total_sales"`
	TotalInvoices int             `json:"total_invoices"`
	Average       decimal.Decimal `json:"average_invoice"`
	// Days holds only the days with at least one invoice, in date order.
	Days []DayTotal `json:"days"`
}

// DashboardSummary backs the dashboard tiles.
type DashboardSummary struct {
	Date           string          `json:"date"`
	DailySales     int64           `json:"daily_sales"`
	Receipts       int             `json:"receipts"`
	AverageReceipt decimal.Decimal `json:"average_receipt"`
	LowStockCount  int64           `json:"low_stock_count"`
}

// ReportService is read-only. Day boundaries follow the location of the
// time passed in.
type ReportService struct {
	db        *gorm.DB
	threshold int64
}

func NewReportService(db *gorm.DB, threshold int64) *ReportService {
	return &ReportService{db: db, threshold: threshold}
}

func average(total int64, count int) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(total).Div(decimal.NewFromInt(int64(count))).Round(2)
}

func sumTotals(invoices []models.Invoice) int64 {
	var total int64
	for _, inv := range invoices {
		total += inv.TotalAmount
	}
	return total
}

func (s *ReportService) DailySales(ctx context.Context, day time.Time) (*DailyReport, error) {
	from, to := dayRange(day)
	invoices, err := repository.NewInvoiceRepository(s.db).ListByDateRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	total := sumTotals(invoices)
	return &DailyReport{
		Date:          from.Format(dateLayout),
		TotalSales:    total,
		TotalInvoices: len(invoices),
		Average:       average(total, len(invoices)),
		Invoices:      invoices,
	}, nil
}

func (s *ReportService) MonthlySales(ctx context.Context, year int, month time.Month, loc *time.Location) (*MonthlyReport, error) {
	if month < time.January || month > time.December {
		return nil, apperr.Invalid("month", "must be between 1 and 12")
	}
	if loc == nil {
		loc = time.UTC
	}
	from, to := monthRange(year, month, loc)
	invoices, err := repository.NewInvoiceRepository(s.db).ListByDateRange(ctx, from, to)
	if err != nil {
		return nil, err
	}

	// ListByDateRange returns invoices oldest first, so days come out ordered.
	var days []DayTotal
	for _, inv := range invoices {
		date := inv.Date.In(loc).Format(dateLayout)
		if n := len(days); n == 0 || days[n-1].Date != date {
			days = append(days, DayTotal{Date: date})
		}
		last := &days[len(days)-1]
		last.TotalSales += inv.TotalAmount
		last.Invoices++
	}
	if days == nil {
		days = []DayTotal{}
	}

	total := sumTotals(invoices)
	return &MonthlyReport{
		Year:          year,
		Month:         int(month),
		Start:         from.Format(dateLayout),
		End:           to.AddDate(0, 0, -1).Format(dateLayout),
		TotalSales:    total,
		TotalInvoices: len(invoices),
		Average:       average(total, len(invoices)),
		Days:          days,
	}, nil
}

// DashboardSummary reports day's sales plus the number of products at or
// below threshold, or the configured default when threshold is not positive.
func (s *ReportService) DashboardSummary(ctx context.Context, day time.Time, threshold int64) (*DashboardSummary, error) {
	daily, err := s.DailySales(ctx, day)
	if err != nil {
		return nil, err
	}
	if threshold <= 0 {
		threshold = s.threshold
	}
	low, err := repository.NewProductRepository(s.db).CountLowStock(ctx, threshold)
	if err != nil {
		return nil, err
	}
	return &DashboardSummary{
		Date:           daily.Date,
		DailySales:     daily.TotalSales,
		Receipts:       daily.TotalInvoices,
		AverageReceipt: daily.Average,
		LowStockCount:  low,
	}, nil
}
