/*
store.go - Collaborator interfaces consumed by the engine

PURPOSE:
  Defines the boundary between the reservation engine and its external
  collaborators: the room type catalog, reservation persistence, the
  admission lock, notification dispatch and the optional calendar cache.

KEY INTERFACES:
  Catalog:       Room type lookup by stable ID
  Store:         Reservation persistence and overlap queries
  TxStore:       Store + atomic scope keyed by room type
  Locker:        Mutual exclusion around admission, keyed by room type
  Notifier:      Fire-and-forget event dispatch
  CalendarCache: Stale-tolerant cache for display calendars

ATOMICITY:
  Admission is "Overlapping -> Admit -> Insert/Update" inside one Locker
  scope and one WithTx call. Display reads take neither.

IMPLEMENTATIONS:
  - booking/store/memory.go: In-memory, for tests and demos
  - store/sqlite: Embedded SQLite
  - store/gormdb: PostgreSQL through gorm (row lock on the room type)
  - store/redisstore: Redis lock, calendar cache and event publisher

OWNERSHIP:
  Store handles are opened and closed by the caller (cmd/server). The engine
  never holds ambient connection state.
*/
package booking

import (
	"context"
	"time"
)

// =============================================================================
// CATALOG
// =============================================================================

type Catalog interface {
	// RoomType returns ErrRoomTypeNotFound when id is unknown.
	RoomType(ctx context.Context, id RoomTypeID) (RoomType, error)

	RoomTypes(ctx context.Context) ([]RoomType, error)

	SaveRoomType(ctx context.Context, rt RoomType) error
}

// =============================================================================
// STORE
// =============================================================================

type Store interface {
	// Overlapping returns pending and confirmed reservations of the room type
	// whose window shares at least one night with w.
	Overlapping(ctx context.Context, id RoomTypeID, w Window) ([]Reservation, error)

	// Get returns ErrReservationNotFound when ref is unknown.
	Get(ctx context.Context, ref Reference) (Reservation, error)

	// Insert returns ErrDuplicateReference when ref already exists.
	Insert(ctx context.Context, r Reservation) error

	// Update replaces a reservation. Returns ErrReservationNotFound when absent.
	Update(ctx context.Context, r Reservation) error

	// Delete hard-removes a reservation regardless of status.
	Delete(ctx context.Context, ref Reference) error

	// PendingCreatedBefore lists holds created before t.
	PendingCreatedBefore(ctx context.Context, t time.Time) ([]Reservation, error)
}

// TxStore wraps Store with an atomic scope.
type TxStore interface {
	Store

	// WithTx runs fn atomically. Implementations serialize scopes for the
	// same room type. If fn returns an error nothing fn wrote is kept.
	WithTx(ctx context.Context, id RoomTypeID, fn func(Store) error) error
}

// =============================================================================
// LOCKING
// =============================================================================

// Unlock releases a lock obtained from a Locker.
type Unlock func()

type Locker interface {
	// Lock blocks until key is held or ctx is done.
	Lock(ctx context.Context, key string) (Unlock, error)
}

// =============================================================================
// NOTIFICATION
// =============================================================================

type EventKind string

const (
	EventCreated   EventKind = "reservation.created"
	EventUpdated   EventKind = "reservation.updated"
	EventConfirmed EventKind = "reservation.confirmed"
	EventCancelled EventKind = "reservation.cancelled"
	EventDeleted   EventKind = "reservation.deleted"
)

// Event is a finalized reservation snapshot plus the room type name.
type Event struct {
	Kind         EventKind
	Reservation  Reservation
	RoomTypeName string
	At           time.Time
}

// Notifier errors are logged and swallowed by the Service.
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Event) error { return nil }

// =============================================================================
// CALENDAR CACHE
// =============================================================================

// CalendarCache stores rendered calendars. Entries may be stale; Invalidate
// is called after every committed write for the room type.
//
// Get reports the cache version it looked under, hit or miss. A calendar
// computed after that miss is Put under the same version, so an Invalidate
// in between leaves it unreachable instead of serving it until expiry.
type CalendarCache interface {
	Get(ctx context.Context, id RoomTypeID, view string, start Date, dst any) (version int64, hit bool, err error)
	Put(ctx context.Context, id RoomTypeID, view string, start Date, version int64, v any) error
	Invalidate(ctx context.Context, id RoomTypeID) error
}
