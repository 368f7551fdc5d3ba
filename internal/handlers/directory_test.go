package handlers

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/diewo77/go-pos/internal/models"
	"github.com/diewo77/go-pos/internal/services"
)

func TestCategoryLifecycle(t *testing.T) {
	db := setupTestDB(t)
	h := NewCategoryHandler(services.NewCategoryService(db))

	w := httptest.NewRecorder()
	h.Create(w, newRequest(http.MethodPost, "/categories", `{"name":"Snacks","description":"Salty"}`))
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	var c models.Category
	decodeBody(t, w, &c)

	w = httptest.NewRecorder()
	h.Create(w, newRequest(http.MethodPost, "/categories", `{"name":"Snacks"}`))
	if w.Code != http.StatusConflict || errorCode(t, w) != "category_already_exists" {
		t.Fatalf("duplicate: got %d %s", w.Code, w.Body.String())
	}

	id := strconv.Itoa(int(c.ID))
	w = httptest.NewRecorder()
	h.Update(w, newRequest(http.MethodPost, "/categories/"+id, `{"name":"Crisps","description":"Salty"}`, "id", id))
	decodeBody(t, w, &c)
	if w.Code != http.StatusOK || c.Name != "Crisps" {
		t.Fatalf("update: got %d %+v", w.Code, c)
	}

	w = httptest.NewRecorder()
	h.Delete(w, newRequest(http.MethodPost, "/categories/"+id+"/delete", "", "id", id))
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204 got %d", w.Code)
	}

	w = httptest.NewRecorder()
	h.List(w, newRequest(http.MethodGet, "/categories", ""))
	var list struct {
		Total int `json:"total"`
	}
	decodeBody(t, w, &list)
	if list.Total != 0 {
		t.Fatalf("expected no categories, got %d", list.Total)
	}
}

func TestCustomerLookupAndDelete(t *testing.T) {
	db := setupTestDB(t)
	h := NewCustomerHandler(services.NewCustomerService(db))

	w := httptest.NewRecorder()
	h.Create(w, newRequest(http.MethodPost, "/customers", `{"name":"Ana","phone":"555-0101","email":"ana@example.com"}`))
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	var c models.Customer
	decodeBody(t, w, &c)

	w = httptest.NewRecorder()
	h.Create(w, newRequest(http.MethodPost, "/customers", `{"name":"Bob","email":"not-an-email"}`))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad email: expected 400 got %d", w.Code)
	}

	var found struct {
		Items []models.Customer `json:"items"`
		Total int64             `json:"total"`
	}
	w = httptest.NewRecorder()
	h.List(w, newRequest(http.MethodGet, "/customers?phone=555-0101", ""))
	decodeBody(t, w, &found)
	if found.Total != 1 || found.Items[0].ID != c.ID {
		t.Fatalf("phone lookup: %+v", found)
	}
	w = httptest.NewRecorder()
	h.List(w, newRequest(http.MethodGet, "/customers?name=Nobody", ""))
	decodeBody(t, w, &found)
	if found.Total != 0 {
		t.Fatalf("name lookup: expected no match, got %+v", found)
	}

	id := strconv.Itoa(int(c.ID))
	w = httptest.NewRecorder()
	h.Delete(w, newRequest(http.MethodPost, "/customers/"+id+"/delete", "", "id", id))
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204 got %d", w.Code)
	}
	w = httptest.NewRecorder()
	h.Get(w, newRequest(http.MethodGet, "/customers/"+id, "", "id", id))
	if w.Code != http.StatusNotFound || errorCode(t, w) != "customer_not_found" {
		t.Fatalf("get deleted: got %d %s", w.Code, w.Body.String())
	}
}
