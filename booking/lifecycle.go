/*
lifecycle.go - Reservation state machine

STATES:
  ┌─────────┐  Confirm   ┌───────────┐
  │ pending │ ─────────▶ │ confirmed │
  └─────────┘            └───────────┘
       │                       │
       │ Cancel                │ Cancel (check-in >= cutoff away)
       ▼                       ▼
  ┌──────────────────────────────────┐
  │            cancelled             │  terminal, never counts as occupied
  └──────────────────────────────────┘

  Delete removes a reservation in any state. It is administrative and
  bypasses every other check.

  Admitted bookings are confirmed immediately; pending only exists for holds
  the caller explicitly asks for.
*/
package booking

import (
	"fmt"
	"time"
)

// DefaultCancelCutoff is how far ahead of check-in a cancellation must happen.
const DefaultCancelCutoff = 24 * time.Hour

// CanCancel checks the cutoff rule: check-in (midnight UTC) must be at least
// cutoff after now.
func CanCancel(r Reservation, now time.Time, cutoff time.Duration) error {
	if r.Status == StatusCancelled {
		return &NotCancellableError{Reference: r.Reference, Reason: "already cancelled"}
	}
	if until := r.Window.CheckIn.Time.Sub(now); until < cutoff {
		return &NotCancellableError{
			Reference: r.Reference,
			Reason: fmt.Sprintf("check-in %s is less than %s away",
				r.Window.CheckIn, cutoff),
		}
	}
	return nil
}

func CanConfirm(r Reservation) error {
	if r.Status != StatusPending {
		return fmt.Errorf("%w: cannot confirm %s reservation %s", ErrInvalidTransition, r.Status, r.Reference)
	}
	return nil
}

func CanModify(r Reservation) error {
	if r.Status == StatusCancelled {
		return fmt.Errorf("%w: reservation %s is cancelled", ErrInvalidTransition, r.Reference)
	}
	return nil
}

// cancelled returns a copy of r in the cancelled state. Actor and reason
// are optional.
func cancelled(r Reservation, at time.Time, actor, reason *string) Reservation {
	r.Status = StatusCancelled
	r.CancelledAt = &at
	r.CancelledBy = actor
	r.CancelReason = reason
	r.UpdatedAt = at
	return r
}

func confirmed(r Reservation, at time.Time) Reservation {
	r.Status = StatusConfirmed
	r.UpdatedAt = at
	return r
}
