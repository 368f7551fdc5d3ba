// Package jobs runs periodic background work: the end of day sales summary
// and the low stock scan.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/diewo77/go-pos/internal/logger"
	"github.com/diewo77/go-pos/internal/models"
	"github.com/diewo77/go-pos/internal/services"
	"github.com/robfig/cron/v3"
)

// Reporter produces the daily sales summary.
type Reporter interface {
	DailySales(ctx context.Context, day time.Time) (*services.DailyReport, error)
}

// StockScanner lists products at or below a threshold.
type StockScanner interface {
	LowStock(ctx context.Context, threshold int64) ([]models.Product, error)
}

type Scheduler struct {
	cron      *cron.Cron
	reports   Reporter
	stock     StockScanner
	threshold int64
	loc       *time.Location
	now       func() time.Time
}

// New schedules both jobs on spec, a standard five field cron expression
// evaluated in loc.
func New(spec string, reports Reporter, stock StockScanner, threshold int64, loc *time.Location) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	s := &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		reports:   reports,
		stock:     stock,
		threshold: threshold,
		loc:       loc,
		now:       time.Now,
	}
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("jobs: invalid schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) run() {
	ctx := context.Background()
	if _, err := s.DailyReport(ctx); err != nil {
		logger.Error("daily report job failed", err)
	}
	if _, err := s.LowStockScan(ctx); err != nil {
		logger.Error("low stock job failed", err)
	}
}

// DailyReport logs and returns the sales summary for the current day.
func (s *Scheduler) DailyReport(ctx context.Context) (*services.DailyReport, error) {
	day := s.now().In(s.loc)
	report, err := s.reports.DailySales(ctx, day)
	if err != nil {
		return nil, err
	}
	logger.Info("daily sales %s: %d invoices, total %d, average %s",
		report.Date, report.TotalInvoices, report.TotalSales, report.Average.StringFixed(2))
	return report, nil
}

// LowStockScan logs every product at or below the configured threshold.
func (s *Scheduler) LowStockScan(ctx context.Context) ([]models.Product, error) {
	products, err := s.stock.LowStock(ctx, s.threshold)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		logger.Warn("low stock: product %d %q has %d left", p.ID, p.Name, p.Quantity)
	}
	return products, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Info("background jobs started (%d scheduled)", len(s.cron.Entries()))
}

// Stop halts the scheduler and waits for a running job to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}
