package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/diewo77/go-pos/httpx"
	"github.com/diewo77/go-pos/internal/services"
)

type InvoiceHandler struct {
	svc *services.InvoiceService
	loc *time.Location
}

// NewInvoiceHandler serves invoices. Dates in query strings are read in loc.
func NewInvoiceHandler(svc *services.InvoiceService, loc *time.Location) *InvoiceHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &InvoiceHandler{svc: svc, loc: loc}
}

// List supports ?q= (invoice number), ?from=&to= (inclusive days),
// ?today=1, and falls back to a paginated listing.
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	switch {
	case strings.TrimSpace(q.Get("q")) != "":
		invoices, err := h.svc.SearchInvoices(r.Context(), q.Get("q"))
		if err != nil {
			httpx.Error(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"items": invoices, "total": len(invoices)})
	case q.Get("from") != "" || q.Get("to") != "":
		from, err := queryDate(r, "from", time.Now().In(h.loc), h.loc)
		if err != nil {
			httpx.Error(w, err)
			return
		}
		to, err := queryDate(r, "to", from, h.loc)
		if err != nil {
			httpx.Error(w, err)
			return
		}
		invoices, err := h.svc.InvoicesByDateRange(r.Context(), from, to)
		if err != nil {
			httpx.Error(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"items": invoices, "total": len(invoices)})
	case q.Get("today") == "1" || q.Get("today") == "true":
		invoices, err := h.svc.TodayInvoices(r.Context())
		if err != nil {
			httpx.Error(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"items": invoices, "total": len(invoices)})
	default:
		page, perPage := pageParams(r)
		result, err := h.svc.ListInvoices(r.Context(), page, perPage)
		if err != nil {
			httpx.Error(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, result)
	}
}

func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input struct {
		CustomerID *uint               `json:"customer_id"`
		Lines      []services.LineItem `json:"lines"`
	}
	if !decode(w, r, &input) {
		return
	}
	inv, err := h.svc.CreateInvoice(r.Context(), input.CustomerID, input.Lines)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	details, err := h.svc.GetInvoiceWithDetails(r.Context(), id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, details)
}

func (h *InvoiceHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	if err := h.svc.CancelInvoice(r.Context(), id); err != nil {
		httpx.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *InvoiceHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	inv, err := h.svc.CompleteInvoice(r.Context(), id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}
