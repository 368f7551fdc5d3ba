package handlers

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/diewo77/go-pos/internal/models"
	"github.com/diewo77/go-pos/internal/services"
)

func TestProductCreateAndList(t *testing.T) {
	db := setupTestDB(t)
	h := NewProductHandler(services.NewProductService(db, nil, 10))

	w := httptest.NewRecorder()
	h.Create(w, newRequest(http.MethodPost, "/products", `{"name":"Cola","barcode":"5449000000996","price":150,"quantity":24}`))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	var created models.Product
	decodeBody(t, w, &created)
	if created.ID == 0 || created.Quantity != 24 {
		t.Fatalf("unexpected product: %+v", created)
	}

	w = httptest.NewRecorder()
	h.List(w, newRequest(http.MethodGet, "/products?page=1&per_page=5", ""))
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200 got %d", w.Code)
	}
	var page struct {
		Items []models.Product `json:"items"`
		Total int64            `json:"total"`
		Page  int              `json:"page"`
	}
	decodeBody(t, w, &page)
	if page.Total != 1 || len(page.Items) != 1 || page.Page != 1 {
		t.Fatalf("unexpected page: %+v", page)
	}

	w = httptest.NewRecorder()
	h.List(w, newRequest(http.MethodGet, "/products?q=col", ""))
	decodeBody(t, w, &page)
	if len(page.Items) != 1 {
		t.Fatalf("search: expected 1 match got %d", len(page.Items))
	}
}

func TestProductCreateErrors(t *testing.T) {
	db := setupTestDB(t)
	h := NewProductHandler(services.NewProductService(db, nil, 10))
	seedProduct(t, db, "Water", "111", 80, 5)

	cases := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"duplicate barcode", `{"name":"Other","barcode":"111","price":10,"quantity":1}`, http.StatusConflict, "barcode_already_exists"},
		{"missing name", `{"barcode":"222","price":10,"quantity":1}`, http.StatusBadRequest, "validation_failed"},
		{"negative quantity", `{"name":"X","barcode":"333","price":10,"quantity":-1}`, http.StatusBadRequest, "validation_failed"},
		{"unknown field", `{"name":"X","barcode":"444","price":10,"colour":"red"}`, http.StatusBadRequest, "invalid_json"},
		{"malformed", `{"name":`, http.StatusBadRequest, "invalid_json"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.Create(w, newRequest(http.MethodPost, "/products", tc.body))
			if w.Code != tc.status {
				t.Fatalf("expected %d got %d body=%s", tc.status, w.Code, w.Body.String())
			}
			if got := errorCode(t, w); got != tc.code {
				t.Fatalf("expected code %q got %q", tc.code, got)
			}
		})
	}
}

func TestProductGetAndBarcode(t *testing.T) {
	db := setupTestDB(t)
	h := NewProductHandler(services.NewProductService(db, nil, 10))
	p := seedProduct(t, db, "Bread", "9001", 250, 3)

	w := httptest.NewRecorder()
	h.Get(w, newRequest(http.MethodGet, "/products/x", "", "id", strconv.Itoa(int(p.ID))))
	if w.Code != http.StatusOK {
		t.Fatalf("get: expected 200 got %d", w.Code)
	}

	w = httptest.NewRecorder()
	h.Get(w, newRequest(http.MethodGet, "/products/999", "", "id", "999"))
	if w.Code != http.StatusNotFound || errorCode(t, w) != "product_not_found" {
		t.Fatalf("missing: got %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	h.Get(w, newRequest(http.MethodGet, "/products/abc", "", "id", "abc"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad id: expected 400 got %d", w.Code)
	}

	w = httptest.NewRecorder()
	h.GetByBarcode(w, newRequest(http.MethodGet, "/products/barcode/9001", "", "barcode", "9001"))
	var got models.Product
	decodeBody(t, w, &got)
	if w.Code != http.StatusOK || got.ID != p.ID {
		t.Fatalf("barcode lookup: got %d %+v", w.Code, got)
	}
}

func TestProductAdjustStockAndMovements(t *testing.T) {
	db := setupTestDB(t)
	h := NewProductHandler(services.NewProductService(db, nil, 10))
	p := seedProduct(t, db, "Milk", "42", 120, 4)
	id := strconv.Itoa(int(p.ID))

	w := httptest.NewRecorder()
	h.AdjustStock(w, newRequest(http.MethodPost, "/products/"+id+"/stock", `{"delta":6,"direction":"increase"}`, "id", id))
	var updated models.Product
	decodeBody(t, w, &updated)
	if w.Code != http.StatusOK || updated.Quantity != 10 {
		t.Fatalf("increase: got %d %+v", w.Code, updated)
	}

	w = httptest.NewRecorder()
	h.AdjustStock(w, newRequest(http.MethodPost, "/products/"+id+"/stock", `{"delta":11,"direction":"decrease"}`, "id", id))
	if w.Code != http.StatusConflict || errorCode(t, w) != "insufficient_stock" {
		t.Fatalf("overdraw: got %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	h.Movements(w, newRequest(http.MethodGet, "/stock-movements?product_id="+id, ""))
	var history struct {
		Items []models.StockMovement `json:"items"`
	}
	decodeBody(t, w, &history)
	if w.Code != http.StatusOK || len(history.Items) != 1 {
		t.Fatalf("movements: got %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	h.Movements(w, newRequest(http.MethodGet, "/stock-movements", ""))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("movements without product: expected 400 got %d", w.Code)
	}
}

func TestProductLowStockAndDelete(t *testing.T) {
	db := setupTestDB(t)
	h := NewProductHandler(services.NewProductService(db, nil, 10))
	low := seedProduct(t, db, "Eggs", "7", 300, 2)
	seedProduct(t, db, "Rice", "8", 500, 50)

	w := httptest.NewRecorder()
	h.LowStock(w, newRequest(http.MethodGet, "/products/low-stock", ""))
	var resp struct {
		Items     []models.Product `json:"items"`
		Threshold int64            `json:"threshold"`
	}
	decodeBody(t, w, &resp)
	if len(resp.Items) != 1 || resp.Items[0].ID != low.ID || resp.Threshold != 10 {
		t.Fatalf("low stock: %+v", resp)
	}

	id := strconv.Itoa(int(low.ID))
	w = httptest.NewRecorder()
	h.Delete(w, newRequest(http.MethodPost, "/products/"+id+"/delete", "", "id", id))
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204 got %d", w.Code)
	}
	w = httptest.NewRecorder()
	h.Delete(w, newRequest(http.MethodPost, "/products/"+id+"/delete", "", "id", id))
	if w.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404 got %d", w.Code)
	}
}
