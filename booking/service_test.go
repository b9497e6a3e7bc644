package booking_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/lodging-engine/booking"
	"github.com/warp/lodging-engine/booking/store"
	"github.com/warp/lodging-engine/logger"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type movableClock struct {
	mu sync.Mutex
	at time.Time
}

func (c *movableClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.at
}

func (c *movableClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.at = c.at.Add(d)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []booking.Event
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, e booking.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
	return n.err
}

func (n *recordingNotifier) Kinds() []booking.EventKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	var kinds []booking.EventKind
	for _, e := range n.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

// pausingStore parks the first plain Get it serves after being armed until
// release is closed. Reads inside transactions are not affected.
type pausingStore struct {
	*store.TxMemory
	armed   atomic.Bool
	reached chan struct{}
	release chan struct{}
}

func newPausingStore() *pausingStore {
	return &pausingStore{
		TxMemory: store.NewTxMemory(),
		reached:  make(chan struct{}),
		release:  make(chan struct{}),
	}
}

func (p *pausingStore) Get(ctx context.Context, ref booking.Reference) (booking.Reservation, error) {
	r, err := p.TxMemory.Get(ctx, ref)
	if p.armed.CompareAndSwap(true, false) {
		close(p.reached)
		<-p.release
	}
	return r, err
}

// versionedCache always misses at a fixed version and records Puts.
type versionedCache struct {
	mu      sync.Mutex
	version int64
	puts    []int64
	getErr  error
}

func (c *versionedCache) Get(context.Context, booking.RoomTypeID, string, booking.Date, any) (int64, bool, error) {
	return c.version, false, c.getErr
}

func (c *versionedCache) Put(_ context.Context, _ booking.RoomTypeID, _ string, _ booking.Date, version int64, _ any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.puts = append(c.puts, version)
	return nil
}

func (c *versionedCache) Invalidate(context.Context, booking.RoomTypeID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.version++
	return nil
}

type failingLocker struct{}

func (failingLocker) Lock(context.Context, string) (booking.Unlock, error) {
	return nil, errors.New("connection refused")
}

type fixture struct {
	svc      *booking.Service
	store    *store.TxMemory
	notifier *recordingNotifier
	clock    *movableClock
}

func newFixture(t *testing.T, mod ...func(*booking.ServiceOptions)) *fixture {
	t.Helper()
	mem := store.NewTxMemory()
	require.NoError(t, mem.SaveRoomType(context.Background(), deluxe()))

	f := &fixture{
		store:    mem,
		notifier: &recordingNotifier{},
		clock:    &movableClock{at: testClock.At},
	}
	opts := booking.ServiceOptions{
		Catalog:  mem,
		Store:    mem,
		Notifier: f.notifier,
		Clock:    f.clock,
		Config:   booking.DefaultConfig(),
	}
	for _, m := range mod {
		m(&opts)
	}
	f.svc = booking.NewService(opts)
	return f
}

func bookRequest(in, out string, rooms int) booking.BookRequest {
	req := validRequest()
	req.CheckIn, req.CheckOut, req.Rooms = in, out, rooms
	return req
}

func strPtr(s string) *string { return &s }

// =============================================================================
// BOOKING
// =============================================================================

func TestBook_DeluxeScenario(t *testing.T) {
	// GIVEN: Deluxe with 2 rooms at 3500, 12% tax
	// WHEN: A books 1 room for 03-01..03-03, B asks 2 rooms for 03-02..03-04,
	//       C asks 1 room for 03-03..03-05
	// THEN: A priced 7840, B conflicts with 1 available, C is admitted

	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Book(ctx, bookRequest("2025-03-01", "2025-03-03", 1))
	require.NoError(t, err)
	assert.Equal(t, booking.StatusConfirmed, a.Status)
	assert.True(t, a.Pricing.Base.Equal(money("7000")))
	assert.True(t, a.Pricing.Tax.Equal(money("840")))
	assert.True(t, a.Pricing.Total.Equal(money("7840")))
	assert.Regexp(t, `^RSV-[0-9A-F]{8}$`, string(a.Reference))

	_, err = f.svc.Book(ctx, bookRequest("2025-03-02", "2025-03-04", 2))
	var ce *booking.ConflictError
	require.True(t, errors.As(err, &ce), "expected conflict, got %v", err)
	assert.Equal(t, 1, ce.Available)
	assert.Equal(t, a.Reference, ce.Reference)

	_, err = f.svc.Book(ctx, bookRequest("2025-03-03", "2025-03-05", 1))
	require.NoError(t, err)

	assert.Equal(t, 2, f.store.Len())
	assert.Equal(t, []booking.EventKind{booking.EventCreated, booking.EventCreated}, f.notifier.Kinds())
}

func TestNewService_ZeroTaxRateIsKeptAndLogged(t *testing.T) {
	// GIVEN: A service built without a Config
	// WHEN: A stay is quoted
	// THEN: Durations fall back to defaults, tax stays 0 and the start-up log says so

	var buf bytes.Buffer
	mem := store.NewTxMemory()
	require.NoError(t, mem.SaveRoomType(context.Background(), deluxe()))
	svc := booking.NewService(booking.ServiceOptions{
		Catalog: mem,
		Store:   mem,
		Clock:   testClock,
		Logger:  logger.New(&buf, logger.InfoLevel, "Booking"),
	})

	cfg := svc.Config()
	assert.Equal(t, booking.DefaultCancelCutoff, cfg.CancelCutoff)
	assert.True(t, cfg.TaxRate.IsZero())
	assert.Contains(t, buf.String(), "tax rate is 0")

	b, err := svc.Quote(context.Background(), booking.QuoteRequest{
		RoomTypeID: "deluxe", CheckIn: "2025-03-01", CheckOut: "2025-03-03",
	})
	require.NoError(t, err)
	assert.True(t, b.Total.Equal(booking.NewMoney(7000)), "total %s", b.Total)
}

func TestBook_DefaultsToOneRoom(t *testing.T) {
	f := newFixture(t)

	r, err := f.svc.Book(context.Background(), bookRequest("2025-03-01", "2025-03-02", 0))

	require.NoError(t, err)
	assert.Equal(t, 1, r.Rooms)
}

func TestBook_UnknownAndWithdrawnRoomTypes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := validRequest()
	req.RoomTypeID = "penthouse"
	_, err := f.svc.Book(ctx, req)
	assert.ErrorIs(t, err, booking.ErrRoomTypeNotFound)
	assert.Equal(t, booking.KindNotFound, booking.KindOf(err))

	closed := deluxe()
	closed.ID, closed.Available = "closed", false
	require.NoError(t, f.store.SaveRoomType(ctx, closed))
	req.RoomTypeID = "closed"
	_, err = f.svc.Book(ctx, req)
	assert.ErrorIs(t, err, booking.ErrRoomTypeUnavailable)
}

func TestBook_ValidationBeforeLookup(t *testing.T) {
	// An invalid request against an unknown type reports the field error.
	f := newFixture(t)
	req := validRequest()
	req.RoomTypeID = "penthouse"
	req.Phone = "1"

	_, err := f.svc.Book(context.Background(), req)

	assert.Equal(t, booking.CodeInvalidFormat, booking.CodeOf(err))
	assert.Equal(t, 0, f.store.Len())
}

func TestBook_ConcurrentRequestsNeverOversell(t *testing.T) {
	// GIVEN: 2 rooms
	// WHEN: 20 concurrent bookings of 1 room for the same window
	// THEN: Exactly 2 succeed, the rest conflict

	f := newFixture(t)
	var ok, conflicts atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Book(context.Background(), bookRequest("2025-03-10", "2025-03-12", 1))
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, booking.ErrConflict):
				conflicts.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(2), ok.Load())
	assert.Equal(t, int32(18), conflicts.Load())
}

func TestBook_ReferenceCollisionRetried(t *testing.T) {
	var n atomic.Int32
	f := newFixture(t, func(o *booking.ServiceOptions) {
		o.NewReference = func() booking.Reference {
			// First two calls collide with the same reference.
			if n.Add(1) <= 2 {
				return "RSV-SAME"
			}
			return booking.Reference(fmt.Sprintf("RSV-%04d", n.Load()))
		}
	})
	ctx := context.Background()

	first, err := f.svc.Book(ctx, bookRequest("2025-03-01", "2025-03-02", 1))
	require.NoError(t, err)
	second, err := f.svc.Book(ctx, bookRequest("2025-03-05", "2025-03-06", 1))
	require.NoError(t, err)

	assert.Equal(t, booking.Reference("RSV-SAME"), first.Reference)
	assert.NotEqual(t, first.Reference, second.Reference)
}

func TestBook_ReferenceCollisionExhausted(t *testing.T) {
	f := newFixture(t, func(o *booking.ServiceOptions) {
		o.NewReference = func() booking.Reference { return "RSV-SAME" }
	})
	ctx := context.Background()

	_, err := f.svc.Book(ctx, bookRequest("2025-03-01", "2025-03-02", 1))
	require.NoError(t, err)
	_, err = f.svc.Book(ctx, bookRequest("2025-03-05", "2025-03-06", 1))

	assert.ErrorIs(t, err, booking.ErrUnavailable)
	assert.True(t, booking.IsRetryable(err))
	assert.Equal(t, 1, f.store.Len())
}

func TestBook_LockFailureIsUnavailable(t *testing.T) {
	f := newFixture(t, func(o *booking.ServiceOptions) { o.Locker = failingLocker{} })

	_, err := f.svc.Book(context.Background(), bookRequest("2025-03-01", "2025-03-02", 1))

	assert.ErrorIs(t, err, booking.ErrUnavailable)
	assert.Equal(t, booking.KindUnavailable, booking.KindOf(err))
	assert.Equal(t, 0, f.store.Len())
}

func TestBook_NotifierFailureDoesNotFailBooking(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("smtp down")

	r, err := f.svc.Book(context.Background(), bookRequest("2025-03-01", "2025-03-02", 1))

	require.NoError(t, err)
	stored, err := f.svc.Get(context.Background(), r.Reference)
	require.NoError(t, err)
	assert.Equal(t, r.Reference, stored.Reference)
}

// =============================================================================
// READS
// =============================================================================

func TestQuote_NoSideEffects(t *testing.T) {
	f := newFixture(t)

	b, err := f.svc.Quote(context.Background(), booking.QuoteRequest{
		RoomTypeID: "deluxe", CheckIn: "2025-03-01", CheckOut: "2025-03-03",
	})

	require.NoError(t, err)
	assert.True(t, b.Total.Equal(money("7840")))
	assert.Equal(t, 0, f.store.Len())
}

func TestAvailability_TwoSemantics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Book(ctx, bookRequest("2025-03-01", "2025-03-03", 1))
	require.NoError(t, err)

	free, err := f.svc.RangeFree(ctx, "deluxe", window(2, 4))
	require.NoError(t, err)
	assert.False(t, free)

	rooms, err := f.svc.AvailableRooms(ctx, "deluxe", window(2, 4))
	require.NoError(t, err)
	assert.Equal(t, 1, rooms)

	start := march(1)
	inv, err := f.svc.InventoryCalendar(ctx, "deluxe", &start)
	require.NoError(t, err)
	assert.Equal(t, 1, inv[0].Available)

	blk, err := f.svc.BlockingCalendar(ctx, "deluxe", &start)
	require.NoError(t, err)
	assert.False(t, blk[0].Free)
	assert.True(t, blk[2].Free)

	_, err = f.svc.InventoryCalendar(ctx, "penthouse", nil)
	assert.ErrorIs(t, err, booking.ErrRoomTypeNotFound)
}

func TestCalendar_DefaultsToToday(t *testing.T) {
	f := newFixture(t)

	days, err := f.svc.BlockingCalendar(context.Background(), "deluxe", nil)

	require.NoError(t, err)
	assert.Equal(t, "2025-02-01", days[0].Date.String())
}

func TestCalendar_PutUnderVersionOfMiss(t *testing.T) {
	// GIVEN: a cache that misses at version 7
	// WHEN: both calendars are rendered, then the cache becomes unreadable
	// THEN: each is stored under 7; nothing is stored after a failed read

	cache := &versionedCache{version: 7}
	f := newFixture(t, func(o *booking.ServiceOptions) { o.Cache = cache })
	ctx := context.Background()

	_, err := f.svc.BlockingCalendar(ctx, "deluxe", nil)
	require.NoError(t, err)
	_, err = f.svc.InventoryCalendar(ctx, "deluxe", nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 7}, cache.puts)

	cache.getErr = errors.New("connection refused")
	_, err = f.svc.InventoryCalendar(ctx, "deluxe", nil)
	require.NoError(t, err)
	assert.Len(t, cache.puts, 2)
}

// =============================================================================
// MODIFICATION
// =============================================================================

func TestUpdate_AddRoomExcludesSelf(t *testing.T) {
	// GIVEN: A holds 1 of 2 rooms
	// WHEN: A is updated to 2 rooms for the same window
	// THEN: Admitted and re-priced at the booked rate

	f := newFixture(t)
	ctx := context.Background()
	a, err := f.svc.Book(ctx, bookRequest("2025-03-01", "2025-03-03", 1))
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, a.Reference, booking.UpdateRequest{Rooms: intPtr(2)})

	require.NoError(t, err)
	assert.Equal(t, 2, updated.Rooms)
	assert.True(t, updated.Pricing.Base.Equal(money("14000")))
	assert.True(t, updated.Pricing.Total.Equal(money("15680")))
}

func TestUpdate_FrozenRate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, err := f.svc.Book(ctx, bookRequest("2025-03-01", "2025-03-03", 1))
	require.NoError(t, err)

	pricier := deluxe()
	pricier.NightlyRate = booking.NewMoney(9000)
	require.NoError(t, f.store.SaveRoomType(ctx, pricier))

	updated, err := f.svc.Update(ctx, a.Reference, booking.UpdateRequest{CheckOut: strPtr("2025-03-04")})

	require.NoError(t, err)
	assert.Equal(t, 3, updated.Pricing.Nights)
	assert.True(t, updated.Pricing.Base.Equal(money("10500")))
}

func TestUpdate_ConflictLeavesReservationUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, err := f.svc.Book(ctx, bookRequest("2025-03-01", "2025-03-03", 1))
	require.NoError(t, err)
	_, err = f.svc.Book(ctx, bookRequest("2025-03-05", "2025-03-07", 2))
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, a.Reference, booking.UpdateRequest{
		CheckIn: strPtr("2025-03-05"), CheckOut: strPtr("2025-03-06"),
	})
	assert.ErrorIs(t, err, booking.ErrConflict)

	stored, err := f.svc.Get(ctx, a.Reference)
	require.NoError(t, err)
	assert.Equal(t, window(1, 3), stored.Window)
}

func TestUpdate_FieldRulesReapplied(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, err := f.svc.Book(ctx, bookRequest("2025-03-01", "2025-03-03", 1))
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, a.Reference, booking.UpdateRequest{GuestName: strPtr("HAL 9000")})
	assert.Equal(t, booking.CodeInvalidFormat, booking.CodeOf(err))

	_, err = f.svc.Update(ctx, a.Reference, booking.UpdateRequest{Guests: intPtr(4)})
	assert.ErrorIs(t, err, booking.ErrRoomCountInvalid)

	updated, err := f.svc.Update(ctx, a.Reference, booking.UpdateRequest{Email: strPtr("grace@example.com")})
	require.NoError(t, err)
	assert.Equal(t, "grace@example.com", updated.Guest.Email)
	assert.True(t, updated.Pricing.Total.Equal(a.Pricing.Total))
}

func TestUpdate_UnknownReservation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Update(context.Background(), "RSV-NOPE", booking.UpdateRequest{Rooms: intPtr(1)})

	assert.ErrorIs(t, err, booking.ErrReservationNotFound)
}

func TestUpdate_RebuiltFromLatestState(t *testing.T) {
	// GIVEN: A holds 1 of 2 rooms on 03-01..03-03, and a guest-name change
	//        for A has read it but not yet written
	// WHEN: meanwhile A moves to 03-10..03-12 and is confirmed, and C takes
	//       both rooms on 03-01..03-03
	// THEN: the name change lands on the moved, confirmed A and 03-01 is
	//       never committed beyond 2 rooms

	ps := newPausingStore()
	ctx := context.Background()
	require.NoError(t, ps.SaveRoomType(ctx, deluxe()))
	f := newFixture(t, func(o *booking.ServiceOptions) {
		o.Catalog = ps
		o.Store = ps
	})

	req := bookRequest("2025-03-01", "2025-03-03", 1)
	req.Hold = true
	a, err := f.svc.Book(ctx, req)
	require.NoError(t, err)

	ps.armed.Store(true)
	done := make(chan error, 1)
	go func() {
		_, err := f.svc.Update(ctx, a.Reference, booking.UpdateRequest{GuestName: strPtr("Grace Hopper")})
		done <- err
	}()
	<-ps.reached

	_, err = f.svc.Update(ctx, a.Reference, booking.UpdateRequest{
		CheckIn:  strPtr("2025-03-10"),
		CheckOut: strPtr("2025-03-12"),
	})
	require.NoError(t, err)
	_, err = f.svc.Confirm(ctx, a.Reference)
	require.NoError(t, err)
	c, err := f.svc.Book(ctx, bookRequest("2025-03-01", "2025-03-03", 2))
	require.NoError(t, err)

	close(ps.release)
	require.NoError(t, <-done)

	got, err := f.svc.Get(ctx, a.Reference)
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", got.Guest.Name)
	assert.Equal(t, "[2025-03-10, 2025-03-12)", got.Window.String())
	assert.Equal(t, booking.StatusConfirmed, got.Status)

	w, err := booking.NewWindow(booking.NewDate(2025, time.March, 1), booking.NewDate(2025, time.March, 3))
	require.NoError(t, err)
	existing, err := ps.Overlapping(ctx, "deluxe", w)
	require.NoError(t, err)
	require.Len(t, existing, 1)
	assert.Equal(t, c.Reference, existing[0].Reference)
	assert.Equal(t, 0, booking.ComputeOccupancy(w, existing, "").Available(2))
}

// =============================================================================
// LIFECYCLE
// =============================================================================

func TestCancel_Cutoff(t *testing.T) {
	// GIVEN: Now is 02-01 10:00
	// WHEN: Cancelling a stay that starts 02-02 (14h away) and one on 03-01
	// THEN: The first is refused, the second is cancelled

	f := newFixture(t)
	ctx := context.Background()
	soon, err := f.svc.Book(ctx, bookRequest("2025-02-02", "2025-02-03", 1))
	require.NoError(t, err)
	later, err := f.svc.Book(ctx, bookRequest("2025-03-01", "2025-03-03", 1))
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, soon.Reference, nil, nil)
	assert.ErrorIs(t, err, booking.ErrNotCancellable)
	assert.Equal(t, booking.KindNotCancellable, booking.KindOf(err))

	cancelled, err := f.svc.Cancel(ctx, later.Reference, strPtr("front-desk"), strPtr("guest request"))
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, "front-desk", *cancelled.CancelledBy)

	_, err = f.svc.Cancel(ctx, later.Reference, nil, nil)
	assert.ErrorIs(t, err, booking.ErrNotCancellable)
}

func TestCancel_ExactlyAtCutoff(t *testing.T) {
	// GIVEN: A stay checking in 03-01 00:00 UTC
	// WHEN: Cancelling one nanosecond inside the 24h cutoff, then exactly on it
	// THEN: The first is refused, the second succeeds

	f := newFixture(t)
	ctx := context.Background()
	a, err := f.svc.Book(ctx, bookRequest("2025-03-01", "2025-03-03", 1))
	require.NoError(t, err)

	cutoff := time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC)
	f.clock.Advance(cutoff.Sub(f.clock.Now()) + time.Nanosecond)
	_, err = f.svc.Cancel(ctx, a.Reference, nil, nil)
	require.ErrorIs(t, err, booking.ErrNotCancellable)

	f.clock.Advance(-time.Nanosecond)
	got, err := f.svc.Cancel(ctx, a.Reference, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCancelled, got.Status)
}

func TestCancel_FreesInventory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, err := f.svc.Book(ctx, bookRequest("2025-03-01", "2025-03-03", 2))
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, a.Reference, nil, nil)
	require.NoError(t, err)

	_, err = f.svc.Book(ctx, bookRequest("2025-03-01", "2025-03-03", 2))
	assert.NoError(t, err)
	assert.Contains(t, f.notifier.Kinds(), booking.EventCancelled)
}

func TestUpdate_CancelledReservationRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, err := f.svc.Book(ctx, bookRequest("2025-03-01", "2025-03-03", 1))
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, a.Reference, nil, nil)
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, a.Reference, booking.UpdateRequest{Rooms: intPtr(2)})

	assert.ErrorIs(t, err, booking.ErrInvalidTransition)
	assert.Equal(t, booking.KindInvalidTransition, booking.KindOf(err))
}

func TestHold_ConfirmAndExpire(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := bookRequest("2025-03-01", "2025-03-03", 1)
	req.Hold = true
	kept, err := f.svc.Book(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusPending, kept.Status)

	dropped, err := f.svc.Book(ctx, req)
	require.NoError(t, err)

	confirmed, err := f.svc.Confirm(ctx, kept.Reference)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusConfirmed, confirmed.Status)

	_, err = f.svc.Confirm(ctx, kept.Reference)
	assert.ErrorIs(t, err, booking.ErrInvalidTransition)
	assert.Equal(t, booking.KindInvalidTransition, booking.KindOf(err))

	// Holds count toward inventory until they expire.
	_, err = f.svc.Book(ctx, req)
	require.ErrorIs(t, err, booking.ErrConflict)

	f.clock.Advance(time.Hour)
	n, err := f.svc.ExpireHolds(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	expired, err := f.svc.Get(ctx, dropped.Reference)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCancelled, expired.Status)
	assert.Equal(t, booking.SystemActor, *expired.CancelledBy)

	_, err = f.svc.Book(ctx, req)
	assert.NoError(t, err)
}

func TestDelete_AnyStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, err := f.svc.Book(ctx, bookRequest("2025-02-02", "2025-02-03", 1))
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, a.Reference))

	_, err = f.svc.Get(ctx, a.Reference)
	assert.ErrorIs(t, err, booking.ErrReservationNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, a.Reference), booking.ErrReservationNotFound)
}
