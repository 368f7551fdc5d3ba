package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/diewo77/go-pos/internal/apperr"
	"github.com/diewo77/go-pos/internal/logger"
	"github.com/diewo77/go-pos/validation"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	var body []byte
	var err error
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			// best-effort error response; avoid writing partial JSON
			http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	} else {
		body = []byte("null")
	}
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		// nothing we can do at this point
		_ = err
	}
}

func JSONError(w http.ResponseWriter, status int, msg string, details any) {
	JSON(w, status, ErrorResponse{Error: msg, Details: details})
}

// errorCodes names the entity errors clients can branch on.
var errorCodes = []struct {
	err  error
	code string
}{
	{apperr.ErrProductNotFound, "product_not_found"},
	{apperr.ErrInvoiceNotFound, "invoice_not_found"},
	{apperr.ErrCustomerNotFound, "customer_not_found"},
	{apperr.ErrCategoryNotFound, "category_not_found"},
	{apperr.ErrUserNotFound, "user_not_found"},
	{apperr.ErrDuplicateBarcode, "barcode_already_exists"},
	{apperr.ErrDuplicateCategory, "category_already_exists"},
	{apperr.ErrDuplicateUsername, "username_already_exists"},
	{apperr.ErrProductInUse, "product_in_use"},
	{apperr.ErrCustomerInUse, "customer_in_use"},
	{apperr.ErrInvalidCredentials, "invalid_credentials"},
	{apperr.ErrEmptyInvoice, "empty_invoice"},
	{apperr.ErrInvalidStatus, "invalid_status"},
}

// Status maps an error to its HTTP status and a machine readable code.
func Status(err error) (int, string) {
	code := ""
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			code = c.code
			break
		}
	}
	var status int
	switch apperr.Kind(err) {
	case apperr.ErrNotFound:
		status = http.StatusNotFound
		code = fallback(code, "not_found")
	case apperr.ErrInvalidArgument:
		status = http.StatusBadRequest
		code = fallback(code, "invalid_argument")
	case apperr.ErrInsufficientStock:
		status = http.StatusConflict
		code = "insufficient_stock"
	case apperr.ErrConflict:
		status = http.StatusConflict
		code = fallback(code, "conflict")
	case apperr.ErrStorage:
		status = http.StatusInternalServerError
		code = "storage_failure"
	default:
		status = http.StatusInternalServerError
		code = "internal_error"
	}
	if errors.Is(err, apperr.ErrInvalidCredentials) {
		status = http.StatusUnauthorized
	}
	return status, code
}

func fallback(code, def string) string {
	if code == "" {
		return def
	}
	return code
}

// Error writes err as a JSON error response.
func Error(w http.ResponseWriter, err error) {
	var violations validation.Violations
	if errors.As(err, &violations) {
		JSONError(w, http.StatusBadRequest, "validation_failed", violations)
		return
	}
	var invalid *apperr.ValidationError
	if errors.As(err, &invalid) {
		JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{invalid.Field: invalid.Message})
		return
	}
	status, code := Status(err)
	var stock *apperr.InsufficientStockError
	if errors.As(err, &stock) {
		JSONError(w, status, code, map[string]any{
			"product_id": stock.ProductID,
			"available":  stock.Available,
			"requested":  stock.Requested,
		})
		return
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", err)
	}
	JSONError(w, status, code, nil)
}
