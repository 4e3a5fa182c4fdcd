package order

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is; the concrete types below carry the details the
// routing layer puts in user-facing messages.
var (
	ErrNotFound               = errors.New("order not found")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrCancellationNotAllowed = errors.New("cancellation not allowed")
	ErrValidation             = errors.New("validation failed")
)

type InsufficientStockError struct {
	ProductID string
	Name      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
		e.displayName(), e.Requested, e.Available)
}

func (e *InsufficientStockError) displayName() string {
	if e.Name != "" {
		return e.Name
	}
	return e.ProductID
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

type InvalidTransitionError struct {
	From, To Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %q to %q", e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

type CancellationNotAllowedError struct {
	Current Status
}

func (e *CancellationNotAllowedError) Error() string {
	return fmt.Sprintf("only pending orders can be cancelled; order is %q", e.Current)
}

func (e *CancellationNotAllowedError) Unwrap() error { return ErrCancellationNotAllowed }

type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
