// Package apperrors defines the error taxonomy shared by the booking
// engine, the tenant router and the HTTP layer. Sentinel values let
// handlers translate failures into status codes with errors.Is, while
// the richer types carry enough detail for logging.
package apperrors

import (
	"errors"
	"fmt"
)

// ErrConnection is returned when a tenant database stays unreachable
// after retries have been exhausted.
var ErrConnection = errors.New("database unreachable")

// ErrCapacityExceeded is returned when a reservation targets a slot that
// is full or blocked. This is an expected user-facing condition and is
// never retried automatically.
var ErrCapacityExceeded = errors.New("slot no longer available")

// ErrInvalidTransition is returned when a booking status change is not
// permitted from the booking's current state.
var ErrInvalidTransition = errors.New("invalid booking transition")

// ErrNotFound is returned when a referenced tenant, shop, slot or
// booking does not exist.
var ErrNotFound = errors.New("not found")

// ErrPricePolicy is returned when a price edit falls outside the shop's
// discount policy, or price editing is disabled for the shop.
var ErrPricePolicy = errors.New("price edit not permitted")

// ConnectionError wraps the underlying dial/ping failure for a tenant
// database.
type ConnectionError struct {
	Database string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("database %s unreachable: %v", e.Database, e.Err)
}

func (e *ConnectionError) Unwrap() error { return ErrConnection }

// InvalidTransitionError names the attempted and current states.
type InvalidTransitionError struct {
	Current   string
	Attempted string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition booking from %s to %s", e.Current, e.Attempted)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// NotFoundError names the missing entity kind.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string { return e.Entity + " not found" }

func (e *NotFoundError) Unwrap() error { return ErrNotFound }
