package cart

import (
	"errors"
	"fmt"
)

var (
	// ErrItemNotFound is returned when an operation names an unknown line.
	ErrItemNotFound = errors.New("cart item not found")
	// ErrWrongPlan is returned when an item belongs to another trip plan.
	ErrWrongPlan = errors.New("item belongs to a different trip plan")
	// ErrOutOfStock is returned when an item declares no remaining stock.
	ErrOutOfStock = errors.New("item is out of stock")
	// ErrNegativeAdjustment is returned for negative taxes or discount.
	ErrNegativeAdjustment = errors.New("taxes and discount cannot be negative")
)

// DuplicateLineItemError is returned when a line cannot be merged with an
// existing line of the same service package, or when its ID is already
// used by a different line.
type DuplicateLineItemError struct {
	ItemID      string
	ServiceID   string
	PackageType string
	Reason      string
}

func (e *DuplicateLineItemError) Error() string {
	return fmt.Sprintf("duplicate cart line %s (%s/%s): %s", e.ItemID, e.ServiceID, e.PackageType, e.Reason)
}

// StockExceededError is only returned under the strict stock policy.
type StockExceededError struct {
	ItemID    string
	Requested int
	Available int
}

func (e *StockExceededError) Error() string {
	return fmt.Sprintf("cart line %s: requested %d but only %d available", e.ItemID, e.Requested, e.Available)
}
