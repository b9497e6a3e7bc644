// Package store provides in-memory Catalog and TxStore implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/lodging-engine/booking"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu           sync.RWMutex
	roomTypes    map[booking.RoomTypeID]booking.RoomType
	reservations map[booking.Reference]booking.Reservation
}

func NewMemory() *Memory {
	return &Memory{
		roomTypes:    make(map[booking.RoomTypeID]booking.RoomType),
		reservations: make(map[booking.Reference]booking.Reservation),
	}
}

// -----------------------------------------------------------------------------
// Catalog
// -----------------------------------------------------------------------------

func (m *Memory) RoomType(_ context.Context, id booking.RoomTypeID) (booking.RoomType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rt, ok := m.roomTypes[id]
	if !ok {
		return booking.RoomType{}, booking.ErrRoomTypeNotFound
	}
	return rt, nil
}

func (m *Memory) RoomTypes(_ context.Context) ([]booking.RoomType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]booking.RoomType, 0, len(m.roomTypes))
	for _, rt := range m.roomTypes {
		out = append(out, rt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) SaveRoomType(_ context.Context, rt booking.RoomType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roomTypes[rt.ID] = rt
	return nil
}

// -----------------------------------------------------------------------------
// Reservations
// -----------------------------------------------------------------------------

func (m *Memory) Overlapping(_ context.Context, id booking.RoomTypeID, w booking.Window) ([]booking.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.overlappingLocked(id, w), nil
}

func (m *Memory) Get(_ context.Context, ref booking.Reference) (booking.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getLocked(ref)
}

func (m *Memory) Insert(_ context.Context, r booking.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertLocked(r)
}

func (m *Memory) Update(_ context.Context, r booking.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateLocked(r)
}

func (m *Memory) Delete(_ context.Context, ref booking.Reference) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteLocked(ref)
}

func (m *Memory) PendingCreatedBefore(_ context.Context, t time.Time) ([]booking.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pendingLocked(t), nil
}

// Len returns the number of stored reservations in any status.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.reservations)
}

func (m *Memory) overlappingLocked(id booking.RoomTypeID, w booking.Window) []booking.Reservation {
	var out []booking.Reservation
	for _, r := range m.reservations {
		if r.RoomTypeID == id && r.Status.Occupies() && r.Window.Overlaps(w) {
			out = append(out, r)
		}
	}
	sortByCheckIn(out)
	return out
}

func (m *Memory) getLocked(ref booking.Reference) (booking.Reservation, error) {
	r, ok := m.reservations[ref]
	if !ok {
		return booking.Reservation{}, booking.ErrReservationNotFound
	}
	return r, nil
}

func (m *Memory) insertLocked(r booking.Reservation) error {
	if _, ok := m.reservations[r.Reference]; ok {
		return booking.ErrDuplicateReference
	}
	m.reservations[r.Reference] = r
	return nil
}

func (m *Memory) updateLocked(r booking.Reservation) error {
	if _, ok := m.reservations[r.Reference]; !ok {
		return booking.ErrReservationNotFound
	}
	m.reservations[r.Reference] = r
	return nil
}

func (m *Memory) deleteLocked(ref booking.Reference) error {
	if _, ok := m.reservations[ref]; !ok {
		return booking.ErrReservationNotFound
	}
	delete(m.reservations, ref)
	return nil
}

func (m *Memory) pendingLocked(t time.Time) []booking.Reservation {
	var out []booking.Reservation
	for _, r := range m.reservations {
		if r.Status == booking.StatusPending && r.CreatedAt.Before(t) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func sortByCheckIn(rs []booking.Reservation) {
	sort.Slice(rs, func(i, j int) bool {
		if !rs[i].Window.CheckIn.Equal(rs[j].Window.CheckIn) {
			return rs[i].Window.CheckIn.Before(rs[j].Window.CheckIn)
		}
		return rs[i].Reference < rs[j].Reference
	})
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn within a transaction. For the memory store this is a
// snapshot of the reservations plus rollback on error. All scopes are
// serialized, which is stricter than per-room-type.
func (tm *TxMemory) WithTx(ctx context.Context, _ booking.RoomTypeID, fn func(booking.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tm.mu.Lock()
	defer tm.mu.Unlock()

	snapshot := tm.snapshot()
	if err := fn(&txMemoryView{parent: tm}); err != nil {
		tm.reservations = snapshot
		return err
	}
	return nil
}

func (tm *TxMemory) snapshot() map[booking.Reference]booking.Reservation {
	cp := make(map[booking.Reference]booking.Reservation, len(tm.reservations))
	for k, v := range tm.reservations {
		cp[k] = v
	}
	return cp
}

// txMemoryView runs against the parent while its write lock is held.
type txMemoryView struct {
	parent *TxMemory
}

func (tv *txMemoryView) Overlapping(_ context.Context, id booking.RoomTypeID, w booking.Window) ([]booking.Reservation, error) {
	return tv.parent.overlappingLocked(id, w), nil
}

func (tv *txMemoryView) Get(_ context.Context, ref booking.Reference) (booking.Reservation, error) {
	return tv.parent.getLocked(ref)
}

func (tv *txMemoryView) Insert(_ context.Context, r booking.Reservation) error {
	return tv.parent.insertLocked(r)
}

func (tv *txMemoryView) Update(_ context.Context, r booking.Reservation) error {
	return tv.parent.updateLocked(r)
}

func (tv *txMemoryView) Delete(_ context.Context, ref booking.Reference) error {
	return tv.parent.deleteLocked(ref)
}

func (tv *txMemoryView) PendingCreatedBefore(_ context.Context, t time.Time) ([]booking.Reservation, error) {
	return tv.parent.pendingLocked(t), nil
}
