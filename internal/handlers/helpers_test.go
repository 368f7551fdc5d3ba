package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/diewo77/go-pos/internal/db/dbtest"
	"github.com/diewo77/go-pos/internal/logger"
	"github.com/diewo77/go-pos/internal/models"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	logger.SetOutput(io.Discard)
	return dbtest.Open(t)
}

// newRequest builds a request with optional JSON body and path values given as key, value pairs.
func newRequest(method, target, body string, pathValues ...string) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(pathValues); i += 2 {
		req.SetPathValue(pathValues[i], pathValues[i+1])
	}
	return req
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error string `json:"error"`
	}
	decodeBody(t, w, &resp)
	return resp.Error
}

func seedProduct(t *testing.T, gdb *gorm.DB, name, barcode string, price, qty int64) models.Product {
	t.Helper()
	p := models.Product{Name: name, Barcode: barcode, Price: price, Quantity: qty}
	if err := gdb.Create(&p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p
}
