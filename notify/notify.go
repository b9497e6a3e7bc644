// Package notify provides booking.Notifier implementations that do not need
// external infrastructure, and the guest-facing message text.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/warp/lodging-engine/booking"
	"github.com/warp/lodging-engine/logger"
)

// MessageBuilder renders the guest-facing text of an event.
type MessageBuilder struct {
	event booking.Event
}

func NewMessageBuilder(e booking.Event) *MessageBuilder {
	return &MessageBuilder{event: e}
}

func (b *MessageBuilder) Subject() string {
	r := b.event.Reservation
	switch b.event.Kind {
	case booking.EventCreated:
		if r.Status == booking.StatusPending {
			return fmt.Sprintf("Reservation %s is on hold", r.Reference)
		}
		return fmt.Sprintf("Reservation %s confirmed", r.Reference)
	case booking.EventConfirmed:
		return fmt.Sprintf("Reservation %s confirmed", r.Reference)
	case booking.EventUpdated:
		return fmt.Sprintf("Reservation %s updated", r.Reference)
	case booking.EventCancelled:
		return fmt.Sprintf("Reservation %s cancelled", r.Reference)
	case booking.EventDeleted:
		return fmt.Sprintf("Reservation %s removed", r.Reference)
	default:
		return fmt.Sprintf("Reservation %s", r.Reference)
	}
}

func (b *MessageBuilder) Build() string {
	r := b.event.Reservation
	p := r.Pricing

	var sb strings.Builder
	fmt.Fprintf(&sb, "Dear %s,\n\n", r.Guest.Name)
	fmt.Fprintf(&sb, "%s.\n\n", b.Subject())
	fmt.Fprintf(&sb, "Room type: %s\n", b.event.RoomTypeName)
	fmt.Fprintf(&sb, "Check-in:  %s\n", r.Window.CheckIn)
	fmt.Fprintf(&sb, "Check-out: %s\n", r.Window.CheckOut)
	fmt.Fprintf(&sb, "Rooms: %d, guests: %d\n", r.Rooms, r.Guests)
	fmt.Fprintf(&sb, "%d night(s) x %s = %s\n", p.Nights, p.PerNight.StringFixed(2), p.Base.StringFixed(2))
	if p.Discount.IsPositive() {
		fmt.Fprintf(&sb, "Discount: -%s\n", p.Discount.StringFixed(2))
	}
	fmt.Fprintf(&sb, "Tax: %s\n", p.Tax.StringFixed(2))
	fmt.Fprintf(&sb, "Total: %s\n", p.Total.StringFixed(2))
	if r.Status == booking.StatusCancelled && r.CancelReason != nil {
		fmt.Fprintf(&sb, "Reason: %s\n", *r.CancelReason)
	}
	return sb.String()
}

// =============================================================================
// NOTIFIERS
// =============================================================================

// LogNotifier writes each rendered message to a logger. It stands in for a
// mailer in development.
type LogNotifier struct {
	Log logger.Logger
}

func (n LogNotifier) Notify(_ context.Context, e booking.Event) error {
	if e.Reservation.Guest.Email == "" {
		return fmt.Errorf("reservation %s has no guest email", e.Reservation.Reference)
	}
	mb := NewMessageBuilder(e)
	n.Log.Info("to=%s subject=%q\n%s", e.Reservation.Guest.Email, mb.Subject(), mb.Build())
	return nil
}

// Multi fans an event out to every notifier. All are attempted; failures
// are joined.
type Multi []booking.Notifier

func (m Multi) Notify(ctx context.Context, e booking.Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
