package notify_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/lodging-engine/booking"
	"github.com/warp/lodging-engine/logger"
	"github.com/warp/lodging-engine/notify"
)

func event(kind booking.EventKind, status booking.Status) booking.Event {
	w := booking.Window{
		CheckIn:  booking.NewDate(2025, time.March, 1),
		CheckOut: booking.NewDate(2025, time.March, 3),
	}
	rt := booking.RoomType{NightlyRate: booking.NewMoney(3500)}
	return booking.Event{
		Kind:         kind,
		RoomTypeName: "Deluxe",
		Reservation: booking.Reservation{
			Reference: "RSV-0000ABCD",
			Window:    w,
			Rooms:     1,
			Guests:    2,
			Guest:     booking.Guest{Name: "Ada Lovelace", Email: "ada@example.com"},
			Pricing:   booking.PriceStay(rt, w, 1, booking.NewMoney(0), booking.MustParseMoney("0.12")),
			Status:    status,
		},
	}
}

func TestMessageBuilder(t *testing.T) {
	mb := notify.NewMessageBuilder(event(booking.EventCreated, booking.StatusConfirmed))

	assert.Equal(t, "Reservation RSV-0000ABCD confirmed", mb.Subject())
	body := mb.Build()
	assert.Contains(t, body, "Dear Ada Lovelace")
	assert.Contains(t, body, "2 night(s) x 3500.00 = 7000.00")
	assert.Contains(t, body, "Tax: 840.00")
	assert.Contains(t, body, "Total: 7840.00")
	assert.NotContains(t, body, "Discount")
}

func TestMessageBuilder_Hold(t *testing.T) {
	mb := notify.NewMessageBuilder(event(booking.EventCreated, booking.StatusPending))
	assert.Equal(t, "Reservation RSV-0000ABCD is on hold", mb.Subject())
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := notify.LogNotifier{Log: logger.New(&buf, logger.InfoLevel, "Notify")}

	require.NoError(t, n.Notify(context.Background(), event(booking.EventCancelled, booking.StatusCancelled)))
	assert.Contains(t, buf.String(), "[Notify] INFO to=ada@example.com")
	assert.Contains(t, buf.String(), "cancelled")

	noEmail := event(booking.EventCreated, booking.StatusConfirmed)
	noEmail.Reservation.Guest.Email = ""
	assert.Error(t, n.Notify(context.Background(), noEmail))
}

type failing struct{ calls *int }

func (f failing) Notify(context.Context, booking.Event) error {
	*f.calls++
	return errors.New("down")
}

func TestMulti_AttemptsAll(t *testing.T) {
	calls := 0
	m := notify.Multi{failing{&calls}, booking.NopNotifier{}, failing{&calls}}

	err := m.Notify(context.Background(), event(booking.EventCreated, booking.StatusConfirmed))

	assert.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.NoError(t, notify.Multi{booking.NopNotifier{}}.Notify(context.Background(), booking.Event{}))
}
