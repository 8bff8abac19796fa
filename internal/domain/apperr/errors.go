// Package apperr defines the error taxonomy shared by the core services. The
// HTTP layer translates these into user-facing responses; nothing here is
// fatal to the process.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a referenced entity is absent.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates malformed or out-of-range input.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicatePendingRequest indicates a pending stock request already
	// exists for the same medicine and requester.
	ErrDuplicatePendingRequest = errors.New("duplicate pending request")

	// ErrInvalidTransition indicates a stock request state change that the
	// workflow does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrUnauthorized indicates a missing or unverifiable credential.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the actor's role does not permit the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrStockConflict indicates a conditional stock update lost to a
	// concurrent writer. Callers treat it as insufficient stock after
	// rolling back any partial work.
	ErrStockConflict = errors.New("stock update conflict")
)

// InsufficientStockError reports a sale line that asked for more than is on
// hand. It carries the payload the client renders: the medicine's name and the
// quantity actually available.
type InsufficientStockError struct {
	MedicineName string
	Requested    int64
	Available    int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: requested %d, available %d", e.MedicineName, e.Requested, e.Available)
}

// IsInsufficientStock reports whether err wraps an InsufficientStockError and
// returns it when so.
func IsInsufficientStock(err error) (*InsufficientStockError, bool) {
	var ise *InsufficientStockError
	if errors.As(err, &ise) {
		return ise, true
	}
	return nil, false
}

// NotFoundf wraps ErrNotFound with a formatted description.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

// Validationf wraps ErrValidation with a formatted description.
func Validationf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrValidation)...)
}
