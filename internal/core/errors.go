package core

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrProductNotFound        = fmt.Errorf("product %w", ErrNotFound)
	ErrProductInactive        = errors.New("product is inactive")
	ErrInvalidQuantity        = errors.New("quantity must be a positive integer")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrInvalidAmount          = errors.New("amount must be positive")
	ErrInsufficientBalance    = errors.New("insufficient cash balance")
	ErrConcurrentModification = errors.New("record was modified concurrently")
	ErrDuplicateItem          = errors.New("duplicate item in batch")
	ErrDuplicateSKU           = errors.New("sku already exists in this store")
	ErrDuplicateUsername      = errors.New("username already taken")
	ErrCustomerRequired       = errors.New("a customer is required when the sale leaves a due amount")
	ErrForbidden              = errors.New("operation not permitted for this user")
	ErrBusy                   = errors.New("store is busy, retry shortly")
	ErrInvalidInput           = errors.New("invalid input")
	ErrInvalidCredentials     = errors.New("invalid username or password")
)

// InsufficientStockError carries the figures behind a rejected stock-out.
// errors.Is(err, ErrInsufficientStock) matches it.
type InsufficientStockError struct {
	ProductID   uuid.UUID
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: available %d, requested %d", e.ProductName, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// invalidf wraps ErrInvalidInput with a formatted message.
func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
