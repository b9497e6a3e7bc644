/*
Package gormdb provides a gorm-backed implementation of the storage interfaces.

PURPOSE:
  The production store. Runs on PostgreSQL; the same models run on SQLite
  through gorm.io/driver/sqlite for tests and single-node deployments.

INTERFACES IMPLEMENTED:
  booking.Catalog: Room type lookup and upsert
  booking.TxStore: Reservation persistence with atomic admission scope

ADMISSION SCOPE:
  On PostgreSQL, WithTx opens a transaction and takes a row lock on the
  room type before fn runs:

    SELECT ... FROM room_types WHERE id = $1 FOR UPDATE

  Every admission for that type queues behind the lock, so "read overlapping
  -> decide -> insert" is serialized per room type across processes while
  other types proceed in parallel. SQLite has no row locks; scopes are
  serialized in-process instead.

ERRORS:
  gorm.ErrRecordNotFound   -> booking.ErrRoomTypeNotFound / ErrReservationNotFound
  gorm.ErrDuplicatedKey    -> booking.ErrDuplicateReference (TranslateError on)
*/
package gormdb

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormLogger "gorm.io/gorm/logger"

	"github.com/warp/lodging-engine/booking"
)

// =============================================================================
// MODELS
// =============================================================================

type RoomType struct {
	ID          string          `gorm:"primaryKey;type:varchar(64)"`
	Name        string          `gorm:"type:varchar(128);not null"`
	NightlyRate decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	MaxGuests   int             `gorm:"not null"`
	MaxRooms    *int
	TotalRooms  int  `gorm:"not null"`
	Available   bool `gorm:"not null"`
	UpdatedAt   time.Time
}

func (RoomType) TableName() string { return "room_types" }

type Reservation struct {
	Reference      string `gorm:"primaryKey;type:varchar(32)"`
	RoomTypeID     string `gorm:"type:varchar(64);not null;index:idx_reservations_type_window,priority:1"`
	CheckIn        string `gorm:"type:varchar(10);not null;index:idx_reservations_type_window,priority:2"`
	CheckOut       string `gorm:"type:varchar(10);not null;index:idx_reservations_type_window,priority:3"`
	Guests         int    `gorm:"not null"`
	Children       int    `gorm:"not null"`
	Rooms          int    `gorm:"not null"`
	GuestName      string `gorm:"type:varchar(128);not null"`
	Email          string `gorm:"type:varchar(254);not null"`
	Phone          string `gorm:"type:varchar(16);not null"`
	SpecialRequest string `gorm:"type:text"`

	Nights   int             `gorm:"not null"`
	PerNight decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Base     decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Discount decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	TaxRate  decimal.Decimal `gorm:"type:numeric(6,4);not null"`
	Tax      decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Total    decimal.Decimal `gorm:"type:numeric(14,2);not null"`

	Status       string    `gorm:"type:varchar(16);not null;index:idx_reservations_status_created,priority:1"`
	CreatedAt    time.Time `gorm:"autoCreateTime:false;index:idx_reservations_status_created,priority:2"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime:false"`
	CancelledAt  *time.Time
	CancelledBy  *string `gorm:"type:varchar(64)"`
	CancelReason *string `gorm:"type:text"`
}

func (Reservation) TableName() string { return "reservations" }

// =============================================================================
// STORE
// =============================================================================

type Store struct {
	db *gorm.DB

	// serializes WithTx on dialects without row locks
	mu *sync.Mutex
}

// New wraps an open gorm handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db, mu: &sync.Mutex{}}
}

// NewGormLogger drops record-not-found noise and reports slow queries.
func NewGormLogger(level gormLogger.LogLevel) gormLogger.Interface {
	return gormLogger.New(
		log.New(os.Stderr, "[gorm] ", log.LstdFlags|log.Lmsgprefix),
		gormLogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		},
	)
}

// OpenPostgres connects to PostgreSQL.
func OpenPostgres(dsn string, lg gormLogger.Interface) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: lg, TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect postgres: %w", err)
	}
	return New(db), nil
}

// OpenSQLite opens a SQLite database through gorm. A single connection is
// used so an open transaction never races another writer.
func OpenSQLite(path string, lg gormLogger.Interface) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: lg, TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return New(db), nil
}

// Migrate creates or updates the schema.
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&RoomType{}, &Reservation{})
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) rowLocks() bool {
	return s.db.Dialector.Name() == "postgres"
}

// =============================================================================
// CATALOG
// =============================================================================

func (s *Store) RoomType(ctx context.Context, id booking.RoomTypeID) (booking.RoomType, error) {
	var row RoomType
	err := s.db.WithContext(ctx).First(&row, "id = ?", string(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return booking.RoomType{}, booking.ErrRoomTypeNotFound
	}
	if err != nil {
		return booking.RoomType{}, err
	}
	return row.toDomain(), nil
}

func (s *Store) RoomTypes(ctx context.Context) ([]booking.RoomType, error) {
	var rows []RoomType
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]booking.RoomType, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (s *Store) SaveRoomType(ctx context.Context, rt booking.RoomType) error {
	row := roomTypeRow(rt)
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&row).Error
}

// =============================================================================
// RESERVATIONS
// =============================================================================

func (s *Store) Overlapping(ctx context.Context, id booking.RoomTypeID, w booking.Window) ([]booking.Reservation, error) {
	var rows []Reservation
	err := s.db.WithContext(ctx).
		Where("room_type_id = ? AND status IN ?", string(id),
			[]string{string(booking.StatusPending), string(booking.StatusConfirmed)}).
		Where("check_in < ? AND check_out > ?", w.CheckOut.String(), w.CheckIn.String()).
		Order("check_in, reference").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDomainAll(rows)
}

func (s *Store) Get(ctx context.Context, ref booking.Reference) (booking.Reservation, error) {
	var row Reservation
	err := s.db.WithContext(ctx).First(&row, "reference = ?", string(ref)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return booking.Reservation{}, booking.ErrReservationNotFound
	}
	if err != nil {
		return booking.Reservation{}, err
	}
	return row.toDomain()
}

func (s *Store) Insert(ctx context.Context, r booking.Reservation) error {
	row := reservationRow(r)
	err := s.db.WithContext(ctx).Create(&row).Error
	if isDuplicate(err) {
		return booking.ErrDuplicateReference
	}
	return err
}

func (s *Store) Update(ctx context.Context, r booking.Reservation) error {
	row := reservationRow(r)
	res := s.db.WithContext(ctx).
		Model(&Reservation{}).
		Where("reference = ?", row.Reference).
		Select("*").Omit("reference", "created_at").
		Updates(&row)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return booking.ErrReservationNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, ref booking.Reference) error {
	res := s.db.WithContext(ctx).Delete(&Reservation{}, "reference = ?", string(ref))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return booking.ErrReservationNotFound
	}
	return nil
}

func (s *Store) PendingCreatedBefore(ctx context.Context, t time.Time) ([]booking.Reservation, error) {
	var rows []Reservation
	err := s.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", string(booking.StatusPending), t.UTC()).
		Order("created_at").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDomainAll(rows)
}

// WithTx runs fn in a database transaction holding the room type lock.
func (s *Store) WithTx(ctx context.Context, id booking.RoomTypeID, fn func(booking.Store) error) error {
	if !s.rowLocks() {
		s.mu.Lock()
		defer s.mu.Unlock()
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.rowLocks() {
			var rt RoomType
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Select("id").First(&rt, "id = ?", string(id)).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return booking.ErrRoomTypeNotFound
			}
			if err != nil {
				return fmt.Errorf("lock room type %s: %w", id, err)
			}
		}
		return fn(&Store{db: tx, mu: s.mu})
	})
}

// =============================================================================
// CONVERSION
// =============================================================================

func roomTypeRow(rt booking.RoomType) RoomType {
	return RoomType{
		ID:          string(rt.ID),
		Name:        rt.Name,
		NightlyRate: rt.NightlyRate,
		MaxGuests:   rt.MaxGuests,
		MaxRooms:    rt.MaxRooms,
		TotalRooms:  rt.TotalRooms,
		Available:   rt.Available,
	}
}

func (r RoomType) toDomain() booking.RoomType {
	return booking.RoomType{
		ID:          booking.RoomTypeID(r.ID),
		Name:        r.Name,
		NightlyRate: r.NightlyRate,
		MaxGuests:   r.MaxGuests,
		MaxRooms:    r.MaxRooms,
		TotalRooms:  r.TotalRooms,
		Available:   r.Available,
	}
}

func reservationRow(r booking.Reservation) Reservation {
	p := r.Pricing
	row := Reservation{
		Reference:      string(r.Reference),
		RoomTypeID:     string(r.RoomTypeID),
		CheckIn:        r.Window.CheckIn.String(),
		CheckOut:       r.Window.CheckOut.String(),
		Guests:         r.Guests,
		Children:       r.Children,
		Rooms:          r.Rooms,
		GuestName:      r.Guest.Name,
		Email:          r.Guest.Email,
		Phone:          r.Guest.Phone,
		SpecialRequest: r.SpecialRequest,
		Nights:         p.Nights,
		PerNight:       p.PerNight,
		Base:           p.Base,
		Discount:       p.Discount,
		TaxRate:        p.TaxRate,
		Tax:            p.Tax,
		Total:          p.Total,
		Status:         string(r.Status),
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
		CancelledBy:    r.CancelledBy,
		CancelReason:   r.CancelReason,
	}
	if r.CancelledAt != nil {
		at := r.CancelledAt.UTC()
		row.CancelledAt = &at
	}
	return row
}

func (r Reservation) toDomain() (booking.Reservation, error) {
	in, err := booking.ParseDate(r.CheckIn)
	if err != nil {
		return booking.Reservation{}, fmt.Errorf("reservation %s: bad check_in %q: %w", r.Reference, r.CheckIn, err)
	}
	out, err := booking.ParseDate(r.CheckOut)
	if err != nil {
		return booking.Reservation{}, fmt.Errorf("reservation %s: bad check_out %q: %w", r.Reference, r.CheckOut, err)
	}

	res := booking.Reservation{
		Reference:  booking.Reference(r.Reference),
		RoomTypeID: booking.RoomTypeID(r.RoomTypeID),
		Window:     booking.Window{CheckIn: in, CheckOut: out},
		Guests:     r.Guests,
		Children:   r.Children,
		Rooms:      r.Rooms,
		Guest: booking.Guest{
			Name:  r.GuestName,
			Email: r.Email,
			Phone: r.Phone,
		},
		SpecialRequest: r.SpecialRequest,
		Pricing: booking.Breakdown{
			Nights:   r.Nights,
			PerNight: r.PerNight,
			Base:     r.Base,
			Discount: r.Discount,
			TaxRate:  r.TaxRate,
			Tax:      r.Tax,
			Total:    r.Total,
		},
		Status:       booking.Status(r.Status),
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
		CancelledBy:  r.CancelledBy,
		CancelReason: r.CancelReason,
	}
	if r.CancelledAt != nil {
		at := r.CancelledAt.UTC()
		res.CancelledAt = &at
	}
	return res, nil
}

func toDomainAll(rows []Reservation) ([]booking.Reservation, error) {
	out := make([]booking.Reservation, 0, len(rows))
	for _, row := range rows {
		r, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key")
}
