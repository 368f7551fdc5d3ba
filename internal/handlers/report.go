package handlers

import (
	"net/http"
	"time"

	"github.com/diewo77/go-pos/httpx"
	"github.com/diewo77/go-pos/internal/apperr"
	"github.com/diewo77/go-pos/internal/services"
)

type ReportHandler struct {
	svc *services.ReportService
	loc *time.Location
	now func() time.Time
}

func NewReportHandler(svc *services.ReportService, loc *time.Location) *ReportHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportHandler{svc: svc, loc: loc, now: time.Now}
}

func (h *ReportHandler) today() time.Time { return h.now().In(h.loc) }

// Daily serves GET /reports/daily?date=YYYY-MM-DD.
func (h *ReportHandler) Daily(w http.ResponseWriter, r *http.Request) {
	day, err := queryDate(r, "date", h.today(), h.loc)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	report, err := h.svc.DailySales(r.Context(), day)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

// Monthly serves GET /reports/monthly?year=&month=, defaulting to the current month.
func (h *ReportHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	now := h.today()
	year, err := queryInt(r, "year")
	if err != nil {
		httpx.Error(w, err)
		return
	}
	month, err := queryInt(r, "month")
	if err != nil {
		httpx.Error(w, err)
		return
	}
	if year == 0 {
		year = int64(now.Year())
	}
	if month == 0 {
		month = int64(now.Month())
	}
	if year < 1 || year > 9999 {
		httpx.Error(w, apperr.Invalid("year", "out of range"))
		return
	}
	report, err := h.svc.MonthlySales(r.Context(), int(year), time.Month(month), h.loc)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

// Summary serves GET /reports/summary?date=&threshold=.
func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	day, err := queryDate(r, "date", h.today(), h.loc)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	threshold, err := queryInt(r, "threshold")
	if err != nil {
		httpx.Error(w, err)
		return
	}
	summary, err := h.svc.DashboardSummary(r.Context(), day, threshold)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}
