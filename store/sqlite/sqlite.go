/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements booking.Catalog and booking.TxStore using SQLite. The same
  schema runs on PostgreSQL through store/gormdb.

INTERFACES IMPLEMENTED:
  booking.Catalog: Room type lookup and upsert
  booking.TxStore: Reservation persistence with atomic admission scope

KEY TABLES:
  room_types:   Catalog (rate, capacity, inventory, sale flag)
  reservations: One row per reservation, pricing snapshot inlined

INDEXES:
  - idx_reservations_type_window: Overlap query (hot path of admission)
  - idx_reservations_status_created: Hold expiry sweep

DATES:
  check_in / check_out are stored as YYYY-MM-DD text, so lexical comparison
  is calendar comparison and the overlap predicate is index friendly:

    check_in < :out AND check_out > :in

CONCURRENCY:
  A single connection is used and transactions begin IMMEDIATE, so an
  admission scope holds the database write lock from its first read. WithTx
  also serializes scopes in-process.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/lodging.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). Migrate is exported for the CLI.

SEE ALSO:
  - booking/store.go: Interface definitions
  - booking/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/lodging-engine/booking"
)

// Store implements booking.Catalog and booking.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate creates the database schema.
func (s *Store) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS room_types (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		nightly_rate TEXT NOT NULL,
		max_guests INTEGER NOT NULL DEFAULT 0,
		max_rooms INTEGER,
		total_rooms INTEGER NOT NULL,
		available BOOLEAN NOT NULL DEFAULT TRUE,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS reservations (
		reference TEXT PRIMARY KEY,
		room_type_id TEXT NOT NULL REFERENCES room_types(id),
		check_in TEXT NOT NULL,
		check_out TEXT NOT NULL,
		guests INTEGER NOT NULL,
		children INTEGER NOT NULL DEFAULT 0,
		rooms INTEGER NOT NULL,
		guest_name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT NOT NULL,
		special_request TEXT NOT NULL DEFAULT '',
		nights INTEGER NOT NULL,
		per_night TEXT NOT NULL,
		base TEXT NOT NULL,
		discount TEXT NOT NULL,
		tax_rate TEXT NOT NULL,
		tax TEXT NOT NULL,
		total TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		cancelled_at TEXT,
		cancelled_by TEXT,
		cancel_reason TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_reservations_type_window
		ON reservations(room_type_id, check_in, check_out);
	CREATE INDEX IF NOT EXISTS idx_reservations_status_created
		ON reservations(status, created_at);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// CATALOG (booking.Catalog interface)
// =============================================================================

const roomTypeColumns = `id, name, nightly_rate, max_guests, max_rooms, total_rooms, available`

func (s *Store) RoomType(ctx context.Context, id booking.RoomTypeID) (booking.RoomType, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+roomTypeColumns+` FROM room_types WHERE id = ?`, id)
	rt, err := scanRoomType(row)
	if errors.Is(err, sql.ErrNoRows) {
		return booking.RoomType{}, booking.ErrRoomTypeNotFound
	}
	return rt, err
}

func (s *Store) RoomTypes(ctx context.Context) ([]booking.RoomType, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+roomTypeColumns+` FROM room_types ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query room types: %w", err)
	}
	defer rows.Close()

	var out []booking.RoomType
	for rows.Next() {
		rt, err := scanRoomType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

// SaveRoomType inserts or replaces a room type.
func (s *Store) SaveRoomType(ctx context.Context, rt booking.RoomType) error {
	var maxRooms sql.NullInt64
	if rt.MaxRooms != nil {
		maxRooms = sql.NullInt64{Int64: int64(*rt.MaxRooms), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO room_types (id, name, nightly_rate, max_guests, max_rooms, total_rooms, available, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			nightly_rate = excluded.nightly_rate,
			max_guests = excluded.max_guests,
			max_rooms = excluded.max_rooms,
			total_rooms = excluded.total_rooms,
			available = excluded.available,
			updated_at = excluded.updated_at
	`,
		rt.ID, rt.Name, rt.NightlyRate.String(), rt.MaxGuests, maxRooms,
		rt.TotalRooms, rt.Available, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save room type: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRoomType(row scanner) (booking.RoomType, error) {
	var (
		rt       booking.RoomType
		rate     string
		maxRooms sql.NullInt64
	)
	if err := row.Scan(&rt.ID, &rt.Name, &rate, &rt.MaxGuests, &maxRooms, &rt.TotalRooms, &rt.Available); err != nil {
		return booking.RoomType{}, err
	}
	rt.NightlyRate = booking.MustParseMoney(rate)
	if maxRooms.Valid {
		n := int(maxRooms.Int64)
		rt.MaxRooms = &n
	}
	return rt, nil
}

// =============================================================================
// RESERVATIONS (booking.Store interface)
// =============================================================================

func (s *Store) Overlapping(ctx context.Context, id booking.RoomTypeID, w booking.Window) ([]booking.Reservation, error) {
	return overlapping(ctx, s.db, id, w)
}

func (s *Store) Get(ctx context.Context, ref booking.Reference) (booking.Reservation, error) {
	return get(ctx, s.db, ref)
}

func (s *Store) Insert(ctx context.Context, r booking.Reservation) error {
	return insert(ctx, s.db, r)
}

func (s *Store) Update(ctx context.Context, r booking.Reservation) error {
	return update(ctx, s.db, r)
}

func (s *Store) Delete(ctx context.Context, ref booking.Reference) error {
	return remove(ctx, s.db, ref)
}

func (s *Store) PendingCreatedBefore(ctx context.Context, t time.Time) ([]booking.Reservation, error) {
	return pendingBefore(ctx, s.db, t)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a database transaction. Every read and write
// made through the booking.Store handed to fn uses the transaction.
func (s *Store) WithTx(ctx context.Context, _ booking.RoomTypeID, fn func(booking.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) Overlapping(ctx context.Context, id booking.RoomTypeID, w booking.Window) ([]booking.Reservation, error) {
	return overlapping(ctx, ts.tx, id, w)
}

func (ts *txStore) Get(ctx context.Context, ref booking.Reference) (booking.Reservation, error) {
	return get(ctx, ts.tx, ref)
}

func (ts *txStore) Insert(ctx context.Context, r booking.Reservation) error {
	return insert(ctx, ts.tx, r)
}

func (ts *txStore) Update(ctx context.Context, r booking.Reservation) error {
	return update(ctx, ts.tx, r)
}

func (ts *txStore) Delete(ctx context.Context, ref booking.Reference) error {
	return remove(ctx, ts.tx, ref)
}

func (ts *txStore) PendingCreatedBefore(ctx context.Context, t time.Time) ([]booking.Reservation, error) {
	return pendingBefore(ctx, ts.tx, t)
}

// =============================================================================
// QUERIES
// =============================================================================

const reservationColumns = `reference, room_type_id, check_in, check_out, guests, children, rooms,
	guest_name, email, phone, special_request,
	nights, per_night, base, discount, tax_rate, tax, total,
	status, created_at, updated_at, cancelled_at, cancelled_by, cancel_reason`

func overlapping(ctx context.Context, q querier, id booking.RoomTypeID, w booking.Window) ([]booking.Reservation, error) {
	return queryReservations(ctx, q, `
		SELECT `+reservationColumns+` FROM reservations
		WHERE room_type_id = ?
		  AND status IN ('pending', 'confirmed')
		  AND check_in < ? AND check_out > ?
		ORDER BY check_in, reference
	`, id, w.CheckOut.String(), w.CheckIn.String())
}

func pendingBefore(ctx context.Context, q querier, t time.Time) ([]booking.Reservation, error) {
	return queryReservations(ctx, q, `
		SELECT `+reservationColumns+` FROM reservations
		WHERE status = 'pending' AND created_at < ?
		ORDER BY created_at
	`, formatTime(t))
}

func get(ctx context.Context, q querier, ref booking.Reference) (booking.Reservation, error) {
	row := q.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE reference = ?`, ref)
	r, err := scanReservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return booking.Reservation{}, booking.ErrReservationNotFound
	}
	return r, err
}

func insert(ctx context.Context, q querier, r booking.Reservation) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO reservations (`+reservationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, reservationArgs(r)...)
	if err != nil {
		if isUniqueConstraintError(err) {
			return booking.ErrDuplicateReference
		}
		return fmt.Errorf("failed to insert reservation: %w", err)
	}
	return nil
}

func update(ctx context.Context, q querier, r booking.Reservation) error {
	args := reservationArgs(r)
	res, err := q.ExecContext(ctx, `
		UPDATE reservations SET
			room_type_id = ?, check_in = ?, check_out = ?, guests = ?, children = ?, rooms = ?,
			guest_name = ?, email = ?, phone = ?, special_request = ?,
			nights = ?, per_night = ?, base = ?, discount = ?, tax_rate = ?, tax = ?, total = ?,
			status = ?, created_at = ?, updated_at = ?, cancelled_at = ?, cancelled_by = ?, cancel_reason = ?
		WHERE reference = ?
	`, append(args[1:], args[0])...)
	if err != nil {
		return fmt.Errorf("failed to update reservation: %w", err)
	}
	return expectOne(res, booking.ErrReservationNotFound)
}

func remove(ctx context.Context, q querier, ref booking.Reference) error {
	res, err := q.ExecContext(ctx, `DELETE FROM reservations WHERE reference = ?`, ref)
	if err != nil {
		return fmt.Errorf("failed to delete reservation: %w", err)
	}
	return expectOne(res, booking.ErrReservationNotFound)
}

func queryReservations(ctx context.Context, q querier, query string, args ...any) ([]booking.Reservation, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reservations: %w", err)
	}
	defer rows.Close()

	var out []booking.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func reservationArgs(r booking.Reservation) []any {
	var cancelledAt sql.NullString
	if r.CancelledAt != nil {
		cancelledAt = sql.NullString{String: formatTime(*r.CancelledAt), Valid: true}
	}
	p := r.Pricing
	return []any{
		r.Reference, r.RoomTypeID, r.Window.CheckIn.String(), r.Window.CheckOut.String(),
		r.Guests, r.Children, r.Rooms,
		r.Guest.Name, r.Guest.Email, r.Guest.Phone, r.SpecialRequest,
		p.Nights, p.PerNight.String(), p.Base.String(), p.Discount.String(),
		p.TaxRate.String(), p.Tax.String(), p.Total.String(),
		r.Status, formatTime(r.CreatedAt), formatTime(r.UpdatedAt),
		cancelledAt, nullString(r.CancelledBy), nullString(r.CancelReason),
	}
}

func scanReservation(row scanner) (booking.Reservation, error) {
	var (
		r                                             booking.Reservation
		checkIn, checkOut                             string
		perNight, base, discount, taxRate, tax, total string
		createdAt, updatedAt                          string
		cancelledAt, cancelledBy, cancelReason        sql.NullString
	)
	err := row.Scan(
		&r.Reference, &r.RoomTypeID, &checkIn, &checkOut, &r.Guests, &r.Children, &r.Rooms,
		&r.Guest.Name, &r.Guest.Email, &r.Guest.Phone, &r.SpecialRequest,
		&r.Pricing.Nights, &perNight, &base, &discount, &taxRate, &tax, &total,
		&r.Status, &createdAt, &updatedAt, &cancelledAt, &cancelledBy, &cancelReason,
	)
	if err != nil {
		return booking.Reservation{}, err
	}

	in, err := booking.ParseDate(checkIn)
	if err != nil {
		return booking.Reservation{}, fmt.Errorf("reservation %s: bad check_in %q: %w", r.Reference, checkIn, err)
	}
	out, err := booking.ParseDate(checkOut)
	if err != nil {
		return booking.Reservation{}, fmt.Errorf("reservation %s: bad check_out %q: %w", r.Reference, checkOut, err)
	}
	r.Window = booking.Window{CheckIn: in, CheckOut: out}

	r.Pricing.PerNight = booking.MustParseMoney(perNight)
	r.Pricing.Base = booking.MustParseMoney(base)
	r.Pricing.Discount = booking.MustParseMoney(discount)
	r.Pricing.TaxRate = booking.MustParseMoney(taxRate)
	r.Pricing.Tax = booking.MustParseMoney(tax)
	r.Pricing.Total = booking.MustParseMoney(total)

	r.CreatedAt = parseTime(createdAt)
	r.UpdatedAt = parseTime(updatedAt)
	if cancelledAt.Valid {
		t := parseTime(cancelledAt.String)
		r.CancelledAt = &t
	}
	if cancelledBy.Valid {
		r.CancelledBy = &cancelledBy.String
	}
	if cancelReason.Valid {
		r.CancelReason = &cancelReason.String
	}
	return r, nil
}

// Helper functions

// formatTime uses a fixed-width layout so stored timestamps sort lexically.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z")
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "PRIMARY KEY"))
}
