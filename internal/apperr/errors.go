// Package apperr defines the error taxonomy shared by repositories, services
// and HTTP handlers. Every error returned across a package boundary matches
// exactly one kind with errors.Is.
package apperr

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Error kinds.
var (
	ErrNotFound          = errors.New("pos: not found")
	ErrInvalidArgument   = errors.New("pos: invalid argument")
	ErrInsufficientStock = errors.New("pos: insufficient stock")
	ErrConflict          = errors.New("pos: conflict")
	ErrStorage           = errors.New("pos: storage failure")
)

// Entity errors. Each one unwraps to its kind.
var (
	ErrProductNotFound  = newError(ErrNotFound, "pos: product not found")
	ErrInvoiceNotFound  = newError(ErrNotFound, "pos: invoice not found")
	ErrCustomerNotFound = newError(ErrNotFound, "pos: customer not found")
	ErrCategoryNotFound = newError(ErrNotFound, "pos: category not found")
	ErrUserNotFound     = newError(ErrNotFound, "pos: user not found")

	ErrDuplicateBarcode  = newError(ErrConflict, "pos: barcode already exists")
	ErrDuplicateCategory = newError(ErrConflict, "pos: category name already exists")
	ErrDuplicateUsername = newError(ErrConflict, "pos: username already exists")
	ErrProductInUse      = newError(ErrConflict, "pos: product is referenced by invoices")
	ErrCustomerInUse     = newError(ErrConflict, "pos: customer is referenced by invoices")

	ErrInvalidCredentials = newError(ErrInvalidArgument, "pos: invalid username or password")
	ErrEmptyInvoice       = newError(ErrInvalidArgument, "pos: invoice has no lines")
	ErrInvalidStatus      = newError(ErrInvalidArgument, "pos: invalid invoice status transition")
)

var kinds = []error{ErrNotFound, ErrInvalidArgument, ErrInsufficientStock, ErrConflict, ErrStorage}

type kindError struct {
	kind error
	msg  string
}

func newError(kind error, msg string) error { return &kindError{kind: kind, msg: msg} }

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

// ValidationError reports an invalid input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("pos: invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidArgument }

// Invalid builds a ValidationError for field.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// InsufficientStockError carries the quantities involved in a rejected decrement.
type InsufficientStockError struct {
	ProductID uint
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("pos: insufficient stock for product %d: available %d, requested %d",
		e.ProductID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// Storage wraps a driver or engine error as a storage failure.
func Storage(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStorage) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStorage, err)
}

// FromDB classifies an error returned by gorm. Errors that already carry a
// kind pass through unchanged. notFound replaces gorm.ErrRecordNotFound and
// may be nil, in which case ErrNotFound is used.
func FromDB(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case Kind(err) != nil:
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		if notFound == nil {
			return ErrNotFound
		}
		return notFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	default:
		return Storage(err)
	}
}

// Kind returns the kind err belongs to, or nil when err is unclassified.
func Kind(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }
