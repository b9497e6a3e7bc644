/*
service.go - Reservation lifecycle orchestration

PURPOSE:
  The Service is the engine's only entry point. It wires the pure pieces
  (validation, occupancy, admission, pricing) to the collaborators (catalog,
  store, locker, notifier, calendar cache).

BOOKING FLOW:
  ┌──────────┐   ┌─────────┐   ┌────────┐   ┌──────────────────────────────┐
  │ validate │──▶│ lookup  │──▶│ policy │──▶│ lock(room type)              │
  │ rules 1-6│   │room type│   │ 7-9    │   │  WithTx:                     │
  └──────────┘   └─────────┘   └────────┘   │   Overlapping -> Admit ->    │
                                            │   Insert                     │
                                            └──────────────────────────────┘
                                                          │
                                                          ▼
                                           invalidate cache, notify (async-safe,
                                           failures logged and swallowed)

RETRIES:
  A reference collision (ErrDuplicateReference) re-runs the whole admission
  with a fresh reference, up to MaxAttempts. Store timeouts and lock
  failures surface as ErrUnavailable and are never treated as admission.

SEE ALSO:
  - admission.go: Admit / IsRangeFree / calendars
  - lifecycle.go: state transitions and cancellation cutoff
*/
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/lodging-engine/logger"
)

const (
	ViewBlocking  = "blocking"
	ViewInventory = "inventory"

	// SystemActor cancels expired holds.
	SystemActor = "system"
)

// Config holds the policy constants of the Service. TaxRate has no
// fallback: the zero value prices untaxed, so callers start from
// DefaultConfig and override.
type Config struct {
	TaxRate      decimal.Decimal
	Rules        Rules
	CancelCutoff time.Duration
	HoldTTL      time.Duration
	StoreTimeout time.Duration
	MaxAttempts  int
}

func DefaultConfig() Config {
	return Config{
		TaxRate:      decimal.RequireFromString("0.12"),
		Rules:        DefaultRules(),
		CancelCutoff: DefaultCancelCutoff,
		HoldTTL:      30 * time.Minute,
		StoreTimeout: 5 * time.Second,
		MaxAttempts:  3,
	}
}

// ServiceOptions lists the collaborators of a Service. Catalog and Store are
// required; the rest default to in-process or no-op implementations.
type ServiceOptions struct {
	Catalog  Catalog
	Store    TxStore
	Locker   Locker
	Notifier Notifier
	Cache    CalendarCache
	Clock    Clock
	Logger   logger.Logger
	Config   Config

	// NewReference generates reservation references.
	NewReference func() Reference
}

type Service struct {
	catalog  Catalog
	store    TxStore
	locker   Locker
	notifier Notifier
	cache    CalendarCache
	clock    Clock
	log      logger.Logger
	cfg      Config
	newRef   func() Reference

	validator *Validator
}

func NewService(opts ServiceOptions) *Service {
	cfg := opts.Config
	def := DefaultConfig()
	if cfg.CancelCutoff == 0 {
		cfg.CancelCutoff = def.CancelCutoff
	}
	if cfg.HoldTTL == 0 {
		cfg.HoldTTL = def.HoldTTL
	}
	if cfg.StoreTimeout == 0 {
		cfg.StoreTimeout = def.StoreTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}

	s := &Service{
		catalog:  opts.Catalog,
		store:    opts.Store,
		locker:   opts.Locker,
		notifier: opts.Notifier,
		cache:    opts.Cache,
		clock:    opts.Clock,
		log:      opts.Logger,
		cfg:      cfg,
		newRef:   opts.NewReference,
	}
	if s.locker == nil {
		s.locker = NewLocalLocker()
	}
	if s.notifier == nil {
		s.notifier = NopNotifier{}
	}
	if s.clock == nil {
		s.clock = SystemClock{}
	}
	if s.log == nil {
		s.log = logger.Discard{}
	}
	if s.newRef == nil {
		s.newRef = NewReference
	}
	if cfg.TaxRate.IsZero() {
		s.log.Info("tax rate is 0; stays are priced untaxed")
	}
	s.validator = NewValidator(cfg.Rules, s.clock)
	return s
}

// Config returns the effective configuration.
func (s *Service) Config() Config { return s.cfg }

// NewReference returns a short random reference such as RSV-7F3A9C21.
func NewReference() Reference {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return Reference("RSV-" + strings.ToUpper(id[:8]))
}

// =============================================================================
// BOOKING
// =============================================================================

// Book validates, admits, prices and persists a reservation.
func (s *Service) Book(ctx context.Context, req BookRequest) (Reservation, error) {
	w, phone, err := s.validator.ValidateRequest(req)
	if err != nil {
		return Reservation{}, err
	}

	rooms := req.Rooms
	if rooms == 0 {
		rooms = 1
	}

	rt, err := s.bookableRoomType(ctx, req.RoomTypeID)
	if err != nil {
		return Reservation{}, err
	}
	if err := s.validator.ValidatePolicy(rt, req.Guests, rooms); err != nil {
		return Reservation{}, err
	}

	now := s.clock.Now().UTC()
	status := StatusConfirmed
	if req.Hold {
		status = StatusPending
	}
	children := 0
	if req.Children != nil {
		children = *req.Children
	}

	r := Reservation{
		RoomTypeID: rt.ID,
		Window:     w,
		Guests:     req.Guests,
		Children:   children,
		Rooms:      rooms,
		Guest: Guest{
			Name:  strings.TrimSpace(req.GuestName),
			Email: strings.TrimSpace(req.Email),
			Phone: phone,
		},
		SpecialRequest: strings.TrimSpace(req.SpecialRequest),
		Pricing:        PriceStay(rt, w, rooms, req.Discount, s.cfg.TaxRate),
		Status:         status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	for attempt := 1; ; attempt++ {
		r.Reference = s.newRef()
		err = s.admit(ctx, rt, w, rooms, "", func(tx Store) error {
			return tx.Insert(ctx, r)
		})
		if !errors.Is(err, ErrDuplicateReference) {
			break
		}
		s.log.Debug("reference %s collided (attempt %d/%d)", r.Reference, attempt, s.cfg.MaxAttempts)
		if attempt >= s.cfg.MaxAttempts {
			return Reservation{}, unavailable("book", err)
		}
	}
	if err != nil {
		return Reservation{}, err
	}

	s.log.Info("booked %s: %s %s x%d total=%s", r.Reference, rt.ID, w, rooms, r.Pricing.Total)
	s.afterWrite(ctx, EventCreated, r, rt.Name)
	return r, nil
}

// admit is the critical section: under the room type lock and inside one
// store transaction it loads overlapping reservations, decides, and writes.
func (s *Service) admit(ctx context.Context, rt RoomType, w Window, rooms int, exclude Reference, write func(Store) error) error {
	return s.locked(ctx, rt.ID, func(tx Store) error {
		existing, err := tx.Overlapping(ctx, rt.ID, w)
		if err != nil {
			return err
		}
		if _, err := Admit(rt, w, rooms, existing, exclude); err != nil {
			return err
		}
		return write(tx)
	})
}

// locked runs fn under the room type lock inside one store transaction.
func (s *Service) locked(ctx context.Context, id RoomTypeID, fn func(Store) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	unlock, err := s.locker.Lock(ctx, LockKey(id))
	if err != nil {
		return unavailable("admission lock", err)
	}
	defer unlock()

	return storeErr("admit", s.store.WithTx(ctx, id, fn))
}

// =============================================================================
// READ-ONLY OPERATIONS
// =============================================================================

// Quote prices a stay without committing anything.
func (s *Service) Quote(ctx context.Context, q QuoteRequest) (Breakdown, error) {
	if q.RoomTypeID == "" {
		return Breakdown{}, ruleErr(CodeMissingField, "room_type_id", "room_type_id is required")
	}
	w, err := CheckDates(q.CheckIn, q.CheckOut, Today(s.clock))
	if err != nil {
		return Breakdown{}, err
	}
	rooms := q.Rooms
	if rooms == 0 {
		rooms = 1
	}
	rt, err := s.bookableRoomType(ctx, q.RoomTypeID)
	if err != nil {
		return Breakdown{}, err
	}
	if err := CheckRoomCount(rt, rooms, 0, s.validator.Rules.GuestsPerRoom); err != nil {
		return Breakdown{}, err
	}
	return PriceStay(rt, w, rooms, q.Discount, s.cfg.TaxRate), nil
}

// RangeFree is the single-room existence check for a window.
func (s *Service) RangeFree(ctx context.Context, id RoomTypeID, w Window) (bool, error) {
	if _, err := s.roomType(ctx, id); err != nil {
		return false, err
	}
	existing, err := s.overlapping(ctx, id, w)
	if err != nil {
		return false, err
	}
	return IsRangeFree(w, existing), nil
}

// AvailableRooms is the inventory-aware probe: rooms free on every night of w.
func (s *Service) AvailableRooms(ctx context.Context, id RoomTypeID, w Window) (int, error) {
	rt, err := s.roomType(ctx, id)
	if err != nil {
		return 0, err
	}
	existing, err := s.overlapping(ctx, id, w)
	if err != nil {
		return 0, err
	}
	return ComputeOccupancy(w, existing, "").Available(rt.TotalRooms), nil
}

// BlockingCalendar renders the single-room calendar. A nil start means today.
func (s *Service) BlockingCalendar(ctx context.Context, id RoomTypeID, start *Date) ([]BlockingDay, error) {
	from := s.calendarStart(start)
	if _, err := s.roomType(ctx, id); err != nil {
		return nil, err
	}

	var days []BlockingDay
	ver, hit := s.cacheGet(ctx, id, ViewBlocking, from, &days)
	if hit {
		return days, nil
	}
	existing, err := s.overlapping(ctx, id, Horizon(from, CalendarHorizon))
	if err != nil {
		return nil, err
	}
	days = BlockingCalendar(from, existing)
	s.cachePut(ctx, id, ViewBlocking, from, ver, days)
	return days, nil
}

// InventoryCalendar renders the per-night availability calendar.
func (s *Service) InventoryCalendar(ctx context.Context, id RoomTypeID, start *Date) ([]InventoryDay, error) {
	from := s.calendarStart(start)
	rt, err := s.roomType(ctx, id)
	if err != nil {
		return nil, err
	}

	var days []InventoryDay
	ver, hit := s.cacheGet(ctx, id, ViewInventory, from, &days)
	if hit {
		return days, nil
	}
	existing, err := s.overlapping(ctx, id, Horizon(from, CalendarHorizon))
	if err != nil {
		return nil, err
	}
	days = InventoryCalendar(rt, from, existing)
	s.cachePut(ctx, id, ViewInventory, from, ver, days)
	return days, nil
}

func (s *Service) Get(ctx context.Context, ref Reference) (Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	r, err := s.store.Get(ctx, ref)
	return r, storeErr("get reservation", err)
}

func (s *Service) RoomTypes(ctx context.Context) ([]RoomType, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	rts, err := s.catalog.RoomTypes(ctx)
	return rts, storeErr("list room types", err)
}

func (s *Service) RoomType(ctx context.Context, id RoomTypeID) (RoomType, error) {
	return s.roomType(ctx, id)
}

// SaveRoomType adds or replaces a catalog entry and drops its cached calendars.
// Existing reservations keep their frozen pricing.
func (s *Service) SaveRoomType(ctx context.Context, rt RoomType) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	if err := s.catalog.SaveRoomType(ctx, rt); err != nil {
		return storeErr("save room type", err)
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(context.WithoutCancel(ctx), rt.ID); err != nil {
			s.log.Error("calendar cache invalidate %s: %v", rt.ID, err)
		}
	}
	s.log.Info("saved room type %s (%d rooms at %s)", rt.ID, rt.TotalRooms, rt.NightlyRate)
	return nil
}

// Today is the current date on the service clock.
func (s *Service) Today() Date { return Today(s.clock) }

// =============================================================================
// MODIFICATION
// =============================================================================

// Update changes a reservation. The change is rebuilt from the stored copy
// under the room type lock, so it never writes back a window, room count or
// status that another writer has since replaced. When the window or room
// count changes the full admission runs again with the reservation's own
// occupancy excluded. A failed check leaves the stored reservation untouched.
func (s *Service) Update(ctx context.Context, ref Reference, req UpdateRequest) (Reservation, error) {
	cur, err := s.Get(ctx, ref)
	if err != nil {
		return Reservation{}, err
	}
	if err := CanModify(cur); err != nil {
		return Reservation{}, err
	}

	rt, err := s.roomType(ctx, cur.RoomTypeID)
	if err != nil {
		return Reservation{}, err
	}
	// Reject bad input before queueing on the lock.
	if _, _, err := s.modified(rt, cur, req); err != nil {
		return Reservation{}, err
	}

	var next Reservation
	err = s.locked(ctx, rt.ID, func(tx Store) error {
		stored, err := tx.Get(ctx, ref)
		if err != nil {
			return err
		}
		if err := CanModify(stored); err != nil {
			return err
		}
		merged, readmit, err := s.modified(rt, stored, req)
		if err != nil {
			return err
		}
		if readmit {
			existing, err := tx.Overlapping(ctx, rt.ID, merged.Window)
			if err != nil {
				return err
			}
			if _, err := Admit(rt, merged.Window, merged.Rooms, existing, ref); err != nil {
				return err
			}
			merged.Pricing = reprice(stored.Pricing, stored.Rooms, merged.Window, merged.Rooms)
		}
		merged.UpdatedAt = s.clock.Now().UTC()
		next = merged
		return tx.Update(ctx, next)
	})
	if err != nil {
		return Reservation{}, err
	}

	s.log.Info("updated %s: %s x%d", ref, next.Window, next.Rooms)
	s.afterWrite(ctx, EventUpdated, next, rt.Name)
	return next, nil
}

// modified applies req to base and checks the result against the field and
// room type rules. readmit reports whether the window or room count moved.
func (s *Service) modified(rt RoomType, base Reservation, req UpdateRequest) (Reservation, bool, error) {
	next, datesChanged, err := s.merge(base, req)
	if err != nil {
		return Reservation{}, false, err
	}
	if err := s.validator.ValidatePolicy(rt, next.Guests, next.Rooms); err != nil {
		return Reservation{}, false, err
	}
	return next, datesChanged || next.Rooms != base.Rooms, nil
}

// merge applies req to cur and re-runs the field rules on the result.
func (s *Service) merge(cur Reservation, req UpdateRequest) (Reservation, bool, error) {
	next := cur
	merged := BookRequest{
		RoomTypeID:     cur.RoomTypeID,
		CheckIn:        cur.Window.CheckIn.String(),
		CheckOut:       cur.Window.CheckOut.String(),
		Guests:         cur.Guests,
		Children:       &cur.Children,
		Rooms:          cur.Rooms,
		GuestName:      cur.Guest.Name,
		Email:          cur.Guest.Email,
		Phone:          cur.Guest.Phone,
		SpecialRequest: cur.SpecialRequest,
	}
	datesChanged := false
	if req.CheckIn != nil && *req.CheckIn != merged.CheckIn {
		merged.CheckIn, datesChanged = *req.CheckIn, true
	}
	if req.CheckOut != nil && *req.CheckOut != merged.CheckOut {
		merged.CheckOut, datesChanged = *req.CheckOut, true
	}
	if req.Guests != nil {
		merged.Guests = *req.Guests
	}
	if req.Children != nil {
		merged.Children = req.Children
	}
	if req.Rooms != nil {
		merged.Rooms = *req.Rooms
	}
	if req.GuestName != nil {
		merged.GuestName = *req.GuestName
	}
	if req.Email != nil {
		merged.Email = *req.Email
	}
	if req.Phone != nil {
		merged.Phone = *req.Phone
	}
	if req.SpecialRequest != nil {
		merged.SpecialRequest = *req.SpecialRequest
	}

	v := s.validator
	if err := v.CheckRequired(merged); err != nil {
		return Reservation{}, false, err
	}
	if err := CheckGuestName(merged.GuestName); err != nil {
		return Reservation{}, false, err
	}
	phone, err := CheckPhone(merged.Phone)
	if err != nil {
		return Reservation{}, false, err
	}
	if err := v.CheckEmail(merged.Email); err != nil {
		return Reservation{}, false, err
	}
	if err := CheckChildren(merged.Children, merged.Guests); err != nil {
		return Reservation{}, false, err
	}
	if err := CheckSpecialRequest(merged.SpecialRequest, v.Rules.MaxSpecialRequestWords); err != nil {
		return Reservation{}, false, err
	}
	if datesChanged {
		w, err := CheckDates(merged.CheckIn, merged.CheckOut, Today(s.clock))
		if err != nil {
			return Reservation{}, false, err
		}
		next.Window = w
	}

	next.Guests = merged.Guests
	next.Children = *merged.Children
	next.Rooms = merged.Rooms
	next.Guest = Guest{
		Name:  strings.TrimSpace(merged.GuestName),
		Email: strings.TrimSpace(merged.Email),
		Phone: phone,
	}
	next.SpecialRequest = strings.TrimSpace(merged.SpecialRequest)
	return next, datesChanged, nil
}

// reprice keeps the booked per-room rate, discount and tax rate, so catalog
// price changes never leak into an existing reservation.
func reprice(old Breakdown, oldRooms int, w Window, rooms int) Breakdown {
	perRoom := old.PerNight
	if oldRooms > 0 {
		perRoom = old.PerNight.Div(decimal.NewFromInt(int64(oldRooms)))
	}
	perNight := perRoom.Mul(decimal.NewFromInt(int64(rooms)))
	return Price(Nights(w.CheckIn.Time, w.CheckOut.Time), perNight, old.Discount, old.TaxRate)
}

// Confirm moves a hold to confirmed.
func (s *Service) Confirm(ctx context.Context, ref Reference) (Reservation, error) {
	var out Reservation
	err := s.transition(ctx, ref, func(r Reservation, now time.Time) (Reservation, error) {
		if err := CanConfirm(r); err != nil {
			return Reservation{}, err
		}
		out = confirmed(r, now)
		return out, nil
	})
	if err != nil {
		return Reservation{}, err
	}
	s.afterWrite(ctx, EventConfirmed, out, s.roomTypeName(ctx, out.RoomTypeID))
	return out, nil
}

// Cancel cancels a reservation whose check-in is at least the cutoff away.
// Actor and reason may be nil.
func (s *Service) Cancel(ctx context.Context, ref Reference, actor, reason *string) (Reservation, error) {
	return s.cancel(ctx, ref, actor, reason, true)
}

func (s *Service) cancel(ctx context.Context, ref Reference, actor, reason *string, enforceCutoff bool) (Reservation, error) {
	var out Reservation
	err := s.transition(ctx, ref, func(r Reservation, now time.Time) (Reservation, error) {
		if enforceCutoff {
			if err := CanCancel(r, now, s.cfg.CancelCutoff); err != nil {
				return Reservation{}, err
			}
		} else if r.Status == StatusCancelled {
			return Reservation{}, &NotCancellableError{Reference: r.Reference, Reason: "already cancelled"}
		}
		out = cancelled(r, now, actor, reason)
		return out, nil
	})
	if err != nil {
		return Reservation{}, err
	}
	s.log.Info("cancelled %s", ref)
	s.afterWrite(ctx, EventCancelled, out, s.roomTypeName(ctx, out.RoomTypeID))
	return out, nil
}

// Delete hard-removes a reservation in any status. Administrative only.
func (s *Service) Delete(ctx context.Context, ref Reference) error {
	r, err := s.Get(ctx, ref)
	if err != nil {
		return err
	}
	if err := s.inTx(ctx, r.RoomTypeID, func(tx Store) error {
		return tx.Delete(ctx, ref)
	}); err != nil {
		return err
	}
	s.log.Info("deleted %s", ref)
	s.afterWrite(ctx, EventDeleted, r, s.roomTypeName(ctx, r.RoomTypeID))
	return nil
}

// ExpireHolds cancels pending reservations older than the hold TTL. It
// returns how many were cancelled; individual failures are logged.
func (s *Service) ExpireHolds(ctx context.Context) (int, error) {
	cutoff := s.clock.Now().UTC().Add(-s.cfg.HoldTTL)

	qctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	holds, err := s.store.PendingCreatedBefore(qctx, cutoff)
	cancel()
	if err != nil {
		return 0, storeErr("list holds", err)
	}

	actor, reason := SystemActor, "hold expired"
	expired := 0
	for _, h := range holds {
		if _, err := s.cancel(ctx, h.Reference, &actor, &reason, false); err != nil {
			s.log.Error("expire hold %s: %v", h.Reference, err)
			continue
		}
		expired++
	}
	return expired, nil
}

// transition loads, changes and stores one reservation atomically.
func (s *Service) transition(ctx context.Context, ref Reference, change func(Reservation, time.Time) (Reservation, error)) error {
	cur, err := s.Get(ctx, ref)
	if err != nil {
		return err
	}
	return s.inTx(ctx, cur.RoomTypeID, func(tx Store) error {
		stored, err := tx.Get(ctx, ref)
		if err != nil {
			return err
		}
		next, err := change(stored, s.clock.Now().UTC())
		if err != nil {
			return err
		}
		return tx.Update(ctx, next)
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Service) inTx(ctx context.Context, id RoomTypeID, fn func(Store) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	return storeErr("transaction", s.store.WithTx(ctx, id, fn))
}

func (s *Service) roomType(ctx context.Context, id RoomTypeID) (RoomType, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	rt, err := s.catalog.RoomType(ctx, id)
	if err != nil {
		return RoomType{}, storeErr("room type lookup", err)
	}
	return rt, nil
}

// bookableRoomType also rejects types withdrawn from sale.
func (s *Service) bookableRoomType(ctx context.Context, id RoomTypeID) (RoomType, error) {
	rt, err := s.roomType(ctx, id)
	if err != nil {
		return RoomType{}, err
	}
	if !rt.Available {
		return RoomType{}, fmt.Errorf("%w: %s", ErrRoomTypeUnavailable, id)
	}
	return rt, nil
}

func (s *Service) roomTypeName(ctx context.Context, id RoomTypeID) string {
	rt, err := s.roomType(ctx, id)
	if err != nil {
		return string(id)
	}
	return rt.Name
}

func (s *Service) overlapping(ctx context.Context, id RoomTypeID, w Window) ([]Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	rs, err := s.store.Overlapping(ctx, id, w)
	return rs, storeErr("overlapping reservations", err)
}

func (s *Service) calendarStart(start *Date) Date {
	if start != nil {
		return *start
	}
	return Today(s.clock)
}

// cacheGet returns the version to Put under after a miss; -1 means the
// cache could not be read and nothing should be stored.
func (s *Service) cacheGet(ctx context.Context, id RoomTypeID, view string, start Date, dst any) (int64, bool) {
	if s.cache == nil {
		return -1, false
	}
	ver, hit, err := s.cache.Get(ctx, id, view, start, dst)
	if err != nil {
		s.log.Error("calendar cache get %s/%s: %v", id, view, err)
		return -1, false
	}
	return ver, hit
}

func (s *Service) cachePut(ctx context.Context, id RoomTypeID, view string, start Date, ver int64, v any) {
	if s.cache == nil || ver < 0 {
		return
	}
	if err := s.cache.Put(ctx, id, view, start, ver, v); err != nil {
		s.log.Error("calendar cache put %s/%s: %v", id, view, err)
	}
}

// afterWrite runs once a write is committed. Nothing here can change the
// outcome of the operation.
func (s *Service) afterWrite(ctx context.Context, kind EventKind, r Reservation, roomTypeName string) {
	ctx = context.WithoutCancel(ctx)
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, r.RoomTypeID); err != nil {
			s.log.Error("calendar cache invalidate %s: %v", r.RoomTypeID, err)
		}
	}

	nctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	event := Event{Kind: kind, Reservation: r, RoomTypeName: roomTypeName, At: s.clock.Now().UTC()}
	if err := s.notifier.Notify(nctx, event); err != nil {
		s.log.Error("notify %s %s: %v", kind, r.Reference, err)
	}
}
