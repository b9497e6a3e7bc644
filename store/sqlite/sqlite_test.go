package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/lodging-engine/booking"
	"github.com/warp/lodging-engine/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(filepath.Join(t.TempDir(), "lodging.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	maxRooms := 2
	require.NoError(t, s.SaveRoomType(context.Background(), booking.RoomType{
		ID:          "deluxe",
		Name:        "Deluxe",
		NightlyRate: booking.NewMoney(3500),
		MaxGuests:   6,
		MaxRooms:    &maxRooms,
		TotalRooms:  2,
		Available:   true,
	}))
	return s
}

func window(in, out int) booking.Window {
	return booking.Window{
		CheckIn:  booking.NewDate(2025, time.March, in),
		CheckOut: booking.NewDate(2025, time.March, out),
	}
}

func reservation(ref string, in, out, rooms int) booking.Reservation {
	now := time.Date(2025, time.February, 1, 10, 0, 0, 0, time.UTC)
	w := window(in, out)
	rt := booking.RoomType{NightlyRate: booking.NewMoney(3500)}
	return booking.Reservation{
		Reference:  booking.Reference(ref),
		RoomTypeID: "deluxe",
		Window:     w,
		Guests:     2,
		Children:   1,
		Rooms:      rooms,
		Guest:      booking.Guest{Name: "Ada Lovelace", Email: "ada@example.com", Phone: "5551234567"},
		Pricing:    booking.PriceStay(rt, w, rooms, booking.NewMoney(100), booking.MustParseMoney("0.12")),
		Status:     booking.StatusConfirmed,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestCatalog_RoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	rt, err := s.RoomType(ctx, "deluxe")
	require.NoError(t, err)
	assert.Equal(t, "Deluxe", rt.Name)
	assert.True(t, rt.NightlyRate.Equal(booking.NewMoney(3500)))
	require.NotNil(t, rt.MaxRooms)
	assert.Equal(t, 2, *rt.MaxRooms)

	rt.Available = false
	rt.MaxRooms = nil
	require.NoError(t, s.SaveRoomType(ctx, rt))

	all, err := s.RoomTypes(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].Available)
	assert.Nil(t, all[0].MaxRooms)

	_, err = s.RoomType(ctx, "penthouse")
	assert.ErrorIs(t, err, booking.ErrRoomTypeNotFound)
}

func TestReservation_RoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	r := reservation("RSV-A", 1, 3, 1)

	require.NoError(t, s.Insert(ctx, r))
	got, err := s.Get(ctx, "RSV-A")
	require.NoError(t, err)

	assert.Equal(t, r.Window, got.Window)
	assert.Equal(t, r.Guest, got.Guest)
	assert.Equal(t, 1, got.Children)
	assert.True(t, got.Pricing.Total.Equal(r.Pricing.Total))
	assert.True(t, got.Pricing.TaxRate.Equal(r.Pricing.TaxRate))
	assert.True(t, got.CreatedAt.Equal(r.CreatedAt))
	assert.Nil(t, got.CancelledAt)

	assert.ErrorIs(t, s.Insert(ctx, r), booking.ErrDuplicateReference)

	_, err = s.Get(ctx, "RSV-NOPE")
	assert.ErrorIs(t, err, booking.ErrReservationNotFound)
}

func TestOverlapping_HalfOpenAndStatus(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	cancelled := reservation("RSV-C", 1, 5, 1)
	cancelled.Status = booking.StatusCancelled
	require.NoError(t, s.Insert(ctx, reservation("RSV-A", 1, 3, 1)))
	require.NoError(t, s.Insert(ctx, reservation("RSV-B", 3, 5, 1)))
	require.NoError(t, s.Insert(ctx, cancelled))

	got, err := s.Overlapping(ctx, "deluxe", window(2, 3))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, booking.Reference("RSV-A"), got[0].Reference)

	got, err = s.Overlapping(ctx, "deluxe", window(1, 5))
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestUpdateDeleteAndPending(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	r := reservation("RSV-A", 1, 3, 1)
	r.Status = booking.StatusPending
	require.NoError(t, s.Insert(ctx, r))

	pending, err := s.PendingCreatedBefore(ctx, r.CreatedAt.Add(time.Minute))
	require.NoError(t, err)
	assert.Len(t, pending, 1)
	pending, err = s.PendingCreatedBefore(ctx, r.CreatedAt)
	require.NoError(t, err)
	assert.Empty(t, pending)

	by, reason := "system", "hold expired"
	at := r.CreatedAt.Add(time.Hour)
	r.Status, r.CancelledAt, r.CancelledBy, r.CancelReason = booking.StatusCancelled, &at, &by, &reason
	require.NoError(t, s.Update(ctx, r))

	got, err := s.Get(ctx, "RSV-A")
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCancelled, got.Status)
	require.NotNil(t, got.CancelledAt)
	assert.True(t, got.CancelledAt.Equal(at))
	assert.Equal(t, "hold expired", *got.CancelReason)

	require.NoError(t, s.Delete(ctx, "RSV-A"))
	assert.ErrorIs(t, s.Delete(ctx, "RSV-A"), booking.ErrReservationNotFound)
	assert.ErrorIs(t, s.Update(ctx, r), booking.ErrReservationNotFound)
}

func TestWithTx_RollbackOnError(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, "deluxe", func(tx booking.Store) error {
		if err := tx.Insert(ctx, reservation("RSV-A", 1, 3, 1)); err != nil {
			return err
		}
		got, err := tx.Overlapping(ctx, "deluxe", window(1, 3))
		if err != nil {
			return err
		}
		assert.Len(t, got, 1, "writes are visible inside the transaction")
		return boom
	})

	assert.ErrorIs(t, err, boom)
	_, err = s.Get(ctx, "RSV-A")
	assert.ErrorIs(t, err, booking.ErrReservationNotFound)
}

func TestService_NoOversellOnSQLite(t *testing.T) {
	// GIVEN: Deluxe with 2 rooms backed by SQLite
	// WHEN: 10 concurrent single-room bookings for the same window
	// THEN: Exactly 2 are stored

	s := newStore(t)
	svc := booking.NewService(booking.ServiceOptions{
		Catalog: s,
		Store:   s,
		Clock:   booking.FixedClock{At: time.Date(2025, time.February, 1, 10, 0, 0, 0, time.UTC)},
		Config:  booking.DefaultConfig(),
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Book(context.Background(), booking.BookRequest{
				RoomTypeID: "deluxe",
				CheckIn:    "2025-03-01",
				CheckOut:   "2025-03-03",
				Guests:     2,
				GuestName:  "Ada Lovelace",
				Email:      "ada@example.com",
				Phone:      "5551234567",
			})
			if err != nil && !errors.Is(err, booking.ErrConflict) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := s.Overlapping(context.Background(), "deluxe", window(1, 3))
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
