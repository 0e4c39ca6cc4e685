package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness conflict on insert.
	ErrAlreadyExists = errors.New("already exists")
	// ErrEmptyCart is returned when checkout is attempted with no items.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidInput flags a rejected create/update payload.
	ErrInvalidInput = errors.New("invalid input")
)

// CartCapError is returned when an additive cart update would push an
// item past the per-item quantity cap. The cart is left unchanged.
type CartCapError struct {
	ProductName string
	Current     int
	Attempted   int
	Cap         int
}

func (e *CartCapError) Error() string {
	return fmt.Sprintf(
		"cannot add %d of %s: %d already in bag, limit is %d per item",
		e.Attempted, e.ProductName, e.Current, e.Cap,
	)
}

// FulfillmentError reports a failed order fulfillment after the partial
// order has been rolled back. The customer is asked to contact support.
type FulfillmentError struct {
	ProductID string
	Err       error
}

func (e *FulfillmentError) Error() string {
	return fmt.Sprintf("order fulfillment failed on product %s: %v", e.ProductID, e.Err)
}

func (e *FulfillmentError) Unwrap() error {
	return e.Err
}
