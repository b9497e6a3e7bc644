/*
errors.go - Centralized error types for the reservation engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers classify failures with errors.Is / errors.As or with KindOf,
  which maps every failure onto the fixed taxonomy below.

ERROR KINDS:
  validation_error       Malformed or missing input (codes below)
  capacity_exceeded      Guest count above the room type capacity
  room_count_invalid     Room count outside the type or ratio limits
  not_found              Room type or reservation absent
  room_type_unavailable  Room type exists but is withdrawn from sale
  conflict               Not enough inventory for the window
  not_cancellable        Cancellation window closed or already cancelled
  invalid_transition     Status does not allow the change (confirm twice,
                         modify a cancelled reservation)
  duplicate              Generated reference collided (retried internally)
  unavailable            Store or lock unreachable / timed out (retryable)

VALIDATION CODES:
  missing_field, invalid_format, invalid_date_range, past_date

ORDERING GUARANTEE:
  Every business-rule and validation failure is detected before any
  persistence write. Only duplicate and unavailable can occur during or
  after the write, and both mean "retry the whole admission".

SEE ALSO:
  - validate.go: produces RuleError
  - admission.go: produces ConflictError
  - lifecycle.go: produces NotCancellableError
*/
package booking

import (
	"context"
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the parent of every malformed-input failure.
	ErrValidation = errors.New("validation error")

	// ErrCapacityExceeded is returned when guests exceed the room type capacity.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrRoomCountInvalid is returned when the room count breaks a type or ratio rule.
	ErrRoomCountInvalid = errors.New("room count invalid")

	// ErrInvalidWindow is returned when check-out is not after check-in.
	ErrInvalidWindow = errors.New("check-out must be after check-in")

	ErrRoomTypeNotFound    = errors.New("room type not found")
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrRoomTypeUnavailable is returned for a room type withdrawn from sale.
	// It is distinct from not-found.
	ErrRoomTypeUnavailable = errors.New("room type not available for booking")

	// ErrConflict is returned when inventory is insufficient for the window.
	ErrConflict = errors.New("insufficient inventory")

	// ErrNotCancellable is returned when cancellation policy forbids the change.
	ErrNotCancellable = errors.New("reservation not cancellable")

	// ErrInvalidTransition is returned for lifecycle moves the state machine forbids.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrDuplicateReference is returned by stores when a reference already exists.
	ErrDuplicateReference = errors.New("duplicate reservation reference")

	// ErrUnavailable is returned when the store or lock cannot be reached in time.
	ErrUnavailable = errors.New("reservation store unavailable")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

type Code string

const (
	CodeMissingField     Code = "missing_field"
	CodeInvalidFormat    Code = "invalid_format"
	CodeInvalidDateRange Code = "invalid_date_range"
	CodePastDate         Code = "past_date"
	CodeCapacityExceeded Code = "capacity_exceeded"
	CodeRoomCountInvalid Code = "room_count_invalid"
)

// RuleError reports the first failing validation or policy rule.
type RuleError struct {
	Code    Code
	Field   string
	Message string
}

func (e *RuleError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *RuleError) Unwrap() error {
	switch e.Code {
	case CodeCapacityExceeded:
		return ErrCapacityExceeded
	case CodeRoomCountInvalid:
		return ErrRoomCountInvalid
	default:
		return ErrValidation
	}
}

func ruleErr(code Code, field, format string, args ...any) *RuleError {
	return &RuleError{Code: code, Field: field, Message: fmt.Sprintf(format, args...)}
}

// ConflictError explains a rejected admission.
type ConflictError struct {
	RoomTypeID RoomTypeID
	Window     Window
	Requested  int
	Available  int

	// Earliest reservation occupying an over-committed night, when known.
	Reference      Reference
	ConflictWindow *Window
}

func (e *ConflictError) Error() string {
	msg := fmt.Sprintf("insufficient inventory for %s %s: requested %d, available %d",
		e.RoomTypeID, e.Window, e.Requested, e.Available)
	if e.Reference != "" && e.ConflictWindow != nil {
		msg += fmt.Sprintf(" (conflicts with %s %s)", e.Reference, e.ConflictWindow)
	}
	return msg
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// NotCancellableError explains why a cancellation was refused.
type NotCancellableError struct {
	Reference Reference
	Reason    string
}

func (e *NotCancellableError) Error() string {
	return fmt.Sprintf("reservation %s not cancellable: %s", e.Reference, e.Reason)
}

func (e *NotCancellableError) Unwrap() error {
	return ErrNotCancellable
}

// unavailable wraps infrastructure failures so callers see a retryable kind.
func unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
}

// storeErr passes domain errors through and turns everything else,
// including context timeouts, into ErrUnavailable.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrRoomTypeNotFound) ||
		errors.Is(err, ErrReservationNotFound) ||
		errors.Is(err, ErrDuplicateReference) ||
		IsClientError(err) {
		return err
	}
	return unavailable(op, err)
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

type Kind string

const (
	KindValidation          Kind = "validation_error"
	KindCapacityExceeded    Kind = "capacity_exceeded"
	KindRoomCountInvalid    Kind = "room_count_invalid"
	KindNotFound            Kind = "not_found"
	KindRoomTypeUnavailable Kind = "room_type_unavailable"
	KindConflict            Kind = "conflict"
	KindNotCancellable      Kind = "not_cancellable"
	KindInvalidTransition   Kind = "invalid_transition"
	KindDuplicate           Kind = "duplicate"
	KindUnavailable         Kind = "unavailable"
	KindInternal            Kind = "internal"
)

// KindOf maps any error returned by this package onto the taxonomy.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCapacityExceeded):
		return KindCapacityExceeded
	case errors.Is(err, ErrRoomCountInvalid):
		return KindRoomCountInvalid
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidWindow):
		return KindValidation
	case IsNotFound(err):
		return KindNotFound
	case errors.Is(err, ErrRoomTypeUnavailable):
		return KindRoomTypeUnavailable
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrNotCancellable):
		return KindNotCancellable
	case errors.Is(err, ErrInvalidTransition):
		return KindInvalidTransition
	case errors.Is(err, ErrDuplicateReference):
		return KindDuplicate
	case IsRetryable(err):
		return KindUnavailable
	default:
		return KindInternal
	}
}

// IsRetryable returns true if the whole admission might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUnavailable) ||
		errors.Is(err, ErrDuplicateReference) ||
		errors.Is(err, context.DeadlineExceeded)
}

// IsClientError returns true if the caller can fix the request.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidWindow) ||
		errors.Is(err, ErrCapacityExceeded) ||
		errors.Is(err, ErrRoomCountInvalid) ||
		errors.Is(err, ErrRoomTypeUnavailable) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrNotCancellable) ||
		errors.Is(err, ErrInvalidTransition)
}

// IsNotFound returns true if the error indicates a missing room type or reservation.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRoomTypeNotFound) ||
		errors.Is(err, ErrReservationNotFound)
}

// CodeOf returns the rule code of a RuleError, or "".
func CodeOf(err error) Code {
	var re *RuleError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}
