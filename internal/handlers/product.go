package handlers

import (
	"net/http"
	"strings"

	"github.com/diewo77/go-pos/httpx"
	"github.com/diewo77/go-pos/internal/apperr"
	"github.com/diewo77/go-pos/internal/models"
	"github.com/diewo77/go-pos/internal/services"
)

type ProductHandler struct {
	svc *services.ProductService
}

func NewProductHandler(svc *services.ProductService) *ProductHandler {
	return &ProductHandler{svc: svc}
}

// List paginates products, or searches them when ?q= is given.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		products, err := h.svc.SearchProducts(r.Context(), q)
		if err != nil {
			httpx.Error(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"items": products, "total": len(products)})
		return
	}
	page, perPage := pageParams(r)
	result, err := h.svc.PaginateProducts(r.Context(), page, perPage)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.ProductInput
	if !decode(w, r, &input) {
		return
	}
	p, err := h.svc.CreateProduct(r.Context(), input)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	p, err := h.svc.GetProduct(r.Context(), id)
	h.writeProduct(w, p, err)
}

func (h *ProductHandler) GetByBarcode(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetByBarcode(r.Context(), r.PathValue("barcode"))
	h.writeProduct(w, p, err)
}

func (h *ProductHandler) writeProduct(w http.ResponseWriter, p *models.Product, err error) {
	if err == nil && p == nil {
		err = apperr.ErrProductNotFound
	}
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *ProductHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	threshold, err := queryInt(r, "threshold")
	if err != nil {
		httpx.Error(w, err)
		return
	}
	products, err := h.svc.LowStock(r.Context(), threshold)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"items":     products,
		"total":     len(products),
		"threshold": h.svc.Threshold(threshold),
	})
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	var input struct {
		Name       string `json:"name"`
		CategoryID *uint  `json:"category_id"`
	}
	if !decode(w, r, &input) {
		return
	}
	p, err := h.svc.UpdateProduct(r.Context(), id, input.Name, input.CategoryID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *ProductHandler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	var input struct {
		Price int64 `json:"price"`
	}
	if !decode(w, r, &input) {
		return
	}
	p, err := h.svc.UpdatePrice(r.Context(), id, input.Price)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

// AdjustStock applies a manual correction: {"delta": 5, "direction": "increase"}.
func (h *ProductHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	var input struct {
		Delta     int64                 `json:"delta"`
		Direction models.StockDirection `json:"direction"`
	}
	if !decode(w, r, &input) {
		return
	}
	p, err := h.svc.AdjustQuantity(r.Context(), id, input.Delta, input.Direction)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	if err := h.svc.DeleteProduct(r.Context(), id); err != nil {
		httpx.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Movements lists the stock history of ?product_id=.
func (h *ProductHandler) Movements(w http.ResponseWriter, r *http.Request) {
	id, err := queryInt(r, "product_id")
	if err == nil && id <= 0 {
		err = apperr.Invalid("product_id", "required")
	}
	if err != nil {
		httpx.Error(w, err)
		return
	}
	movements, err := h.svc.StockHistory(r.Context(), uint(id))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": movements, "total": len(movements)})
}
