/*
Package booking provides the reservation allocation and pricing engine.

PURPOSE:
  This package decides whether a lodging reservation can be admitted against
  the physical inventory of a room type, prices the stay, and drives the
  reservation lifecycle (create, confirm, modify, cancel, delete).

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: decimal amounts in a single currency
  - RoomType: catalog entry with inventory and guest policy
  - Reservation: the central entity, with a frozen pricing snapshot
  - Status: pending, confirmed, cancelled

DESIGN PRINCIPLES:
  1. Precision: money uses decimal.Decimal, never float64
  2. Stable keys: every business rule is keyed by RoomTypeID, never by display name
  3. Frozen pricing: a persisted reservation keeps the breakdown it was booked with
  4. Half-open windows: a stay occupies [CheckIn, CheckOut), check-out night is free

SEE ALSO:
  - occupancy.go: per-night occupancy accounting
  - admission.go: admission decision and availability calendars
  - pricing.go: price breakdown
  - service.go: lifecycle orchestration
*/
package booking

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY
// =============================================================================

// Money is an amount in the property's single currency.
type Money = decimal.Decimal

// NewMoney returns a whole-unit amount.
func NewMoney(units int64) Money { return decimal.NewFromInt(units) }

// MustParseMoney parses a decimal string, returning zero on malformed input.
func MustParseMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

// RoomTypeID is the stable identity of a room type. Rules are keyed by it.
type RoomTypeID string

// Reference is the guest-facing reservation identity.
type Reference string

// =============================================================================
// ROOM TYPE - Read-only catalog entry
// =============================================================================

type RoomType struct {
	ID          RoomTypeID
	Name        string
	NightlyRate Money

	// MaxGuests caps the guest count of a single reservation. Zero means unbounded.
	MaxGuests int

	// MaxRooms caps the rooms of a single reservation. Nil means unbounded.
	MaxRooms *int

	// TotalRooms is the physical inventory of this type.
	TotalRooms int

	// Available is false when the type is withdrawn from sale.
	Available bool
}

// =============================================================================
// RESERVATION
// =============================================================================

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Occupies reports whether a reservation in this status counts toward inventory.
func (s Status) Occupies() bool {
	return s == StatusPending || s == StatusConfirmed
}

type Guest struct {
	Name  string
	Email string
	Phone string
}

type Reservation struct {
	Reference  Reference
	RoomTypeID RoomTypeID
	Window     Window

	Guests   int
	Children int
	Rooms    int

	Guest          Guest
	SpecialRequest string

	Pricing Breakdown
	Status  Status

	CreatedAt    time.Time
	UpdatedAt    time.Time
	CancelledAt  *time.Time
	CancelledBy  *string
	CancelReason *string
}

// =============================================================================
// REQUESTS - Unvalidated caller input
// =============================================================================

// BookRequest is the raw input of a booking. Dates are YYYY-MM-DD strings and
// are parsed by the validator so malformed input is reported in rule order.
type BookRequest struct {
	RoomTypeID     RoomTypeID `validate:"required"`
	CheckIn        string     `validate:"required"`
	CheckOut       string     `validate:"required"`
	Guests         int        `validate:"required,gt=0"`
	Children       *int
	Rooms          int
	GuestName      string `validate:"required"`
	Email          string `validate:"required"`
	Phone          string `validate:"required"`
	SpecialRequest string
	Discount       Money

	// Hold creates the reservation as pending instead of confirmed.
	Hold bool
}

// UpdateRequest changes an existing reservation. Nil fields are left unchanged.
type UpdateRequest struct {
	CheckIn        *string
	CheckOut       *string
	Guests         *int
	Children       *int
	Rooms          *int
	GuestName      *string
	Email          *string
	Phone          *string
	SpecialRequest *string
}

// QuoteRequest asks for a price breakdown without committing anything.
type QuoteRequest struct {
	RoomTypeID RoomTypeID
	CheckIn    string
	CheckOut   string
	Rooms      int
	Discount   Money
}
