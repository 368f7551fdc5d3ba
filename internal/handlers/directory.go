package handlers

import (
	"net/http"
	"strings"

	"github.com/diewo77/go-pos/httpx"
	"github.com/diewo77/go-pos/internal/apperr"
	"github.com/diewo77/go-pos/internal/models"
	"github.com/diewo77/go-pos/internal/services"
)

type CategoryHandler struct {
	svc *services.CategoryService
}

func NewCategoryHandler(svc *services.CategoryService) *CategoryHandler {
	return &CategoryHandler{svc: svc}
}

type categoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.ListCategories(r.Context())
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": categories, "total": len(categories)})
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input categoryInput
	if !decode(w, r, &input) {
		return
	}
	c, err := h.svc.CreateCategory(r.Context(), input.Name, input.Description)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	var input categoryInput
	if !decode(w, r, &input) {
		return
	}
	c, err := h.svc.UpdateCategory(r.Context(), id, input.Name, input.Description)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	if err := h.svc.DeleteCategory(r.Context(), id); err != nil {
		httpx.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type CustomerHandler struct {
	svc *services.CustomerService
}

func NewCustomerHandler(svc *services.CustomerService) *CustomerHandler {
	return &CustomerHandler{svc: svc}
}

// List paginates customers. ?phone= or ?name= look up a single customer.
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		c   *models.Customer
		err error
	)
	switch {
	case strings.TrimSpace(q.Get("phone")) != "":
		c, err = h.svc.GetByPhone(r.Context(), q.Get("phone"))
	case strings.TrimSpace(q.Get("name")) != "":
		c, err = h.svc.GetByName(r.Context(), q.Get("name"))
	default:
		page, perPage := pageParams(r)
		result, err := h.svc.ListCustomers(r.Context(), page, perPage)
		if err != nil {
			httpx.Error(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, result)
		return
	}
	if err != nil {
		httpx.Error(w, err)
		return
	}
	items := []models.Customer{}
	if c != nil {
		items = append(items, *c)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})
}

func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.CustomerInput
	if !decode(w, r, &input) {
		return
	}
	c, err := h.svc.CreateCustomer(r.Context(), input)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	c, err := h.svc.GetCustomer(r.Context(), id)
	if err == nil && c == nil {
		err = apperr.ErrCustomerNotFound
	}
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	var input services.CustomerInput
	if !decode(w, r, &input) {
		return
	}
	c, err := h.svc.UpdateCustomer(r.Context(), id, input)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	if err := h.svc.DeleteCustomer(r.Context(), id); err != nil {
		httpx.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
