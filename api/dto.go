/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the booking domain model from the external API contract: money travels as
  decimal strings, dates as YYYY-MM-DD, timestamps as RFC 3339.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Room types:
    RoomTypeDTO, AvailabilityDTO, CalendarDTO
  Reservations:
    CreateReservationRequest, UpdateReservationRequest,
    CancelReservationRequest, ReservationDTO, PricingDTO
  Quotes:
    QuoteRequest
  Admin / scenarios:
    ExpiryRunDTO, ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Struct tags (go-playground/validator) only reject bodies that cannot be
  mapped onto a booking request at all. Business rules, including missing
  required booking fields, are checked by the booking package so failures
  are reported in rule order.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/roomtype.go: RoomTypeJSON used for catalog writes
*/
package api

import (
	"time"

	"github.com/warp/lodging-engine/booking"
)

// =============================================================================
// ROOM TYPES
// =============================================================================

// RoomTypeDTO represents a room type in API responses.
type RoomTypeDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	NightlyRate string `json:"nightly_rate"`
	MaxGuests   int    `json:"max_guests,omitempty"`
	MaxRooms    *int   `json:"max_rooms,omitempty"`
	TotalRooms  int    `json:"total_rooms"`
	Available   bool   `json:"available"`
}

// AvailabilityDTO answers both availability questions for one window.
type AvailabilityDTO struct {
	RoomTypeID string `json:"room_type_id"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`

	// Free is the single-room view: no active reservation overlaps.
	Free bool `json:"free"`

	// AvailableRooms is the inventory view: rooms free on every night.
	AvailableRooms int `json:"available_rooms"`
}

type CalendarDTO struct {
	RoomTypeID string `json:"room_type_id"`
	View       string `json:"view"`
	Start      string `json:"start"`
	Days       any    `json:"days"`
}

type BlockingDayDTO struct {
	Date string `json:"date"`
	Free bool   `json:"free"`
}

type InventoryDayDTO struct {
	Date      string `json:"date"`
	Booked    int    `json:"booked"`
	Available int    `json:"available"`
}

// =============================================================================
// RESERVATIONS
// =============================================================================

// CreateReservationRequest is the request to book a stay.
type CreateReservationRequest struct {
	RoomTypeID     string `json:"room_type_id"`
	CheckIn        string `json:"check_in"`
	CheckOut       string `json:"check_out"`
	Guests         int    `json:"guests"`
	Children       *int   `json:"children,omitempty"`
	Rooms          int    `json:"rooms,omitempty" validate:"gte=0"`
	GuestName      string `json:"guest_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	SpecialRequest string `json:"special_request,omitempty"`

	// Hold books the stay as pending; it expires unless confirmed.
	Hold bool `json:"hold,omitempty"`
}

// AdminReservationRequest books on a guest's behalf. Only staff may set a
// discount; the public endpoint ignores one.
type AdminReservationRequest struct {
	CreateReservationRequest
	Discount string `json:"discount,omitempty" validate:"omitempty,numeric"`
}

// UpdateReservationRequest changes a reservation. Omitted fields are kept.
type UpdateReservationRequest struct {
	CheckIn        *string `json:"check_in,omitempty"`
	CheckOut       *string `json:"check_out,omitempty"`
	Guests         *int    `json:"guests,omitempty"`
	Children       *int    `json:"children,omitempty"`
	Rooms          *int    `json:"rooms,omitempty"`
	GuestName      *string `json:"guest_name,omitempty"`
	Email          *string `json:"email,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	SpecialRequest *string `json:"special_request,omitempty"`
}

type CancelReservationRequest struct {
	Actor  *string `json:"actor,omitempty" validate:"omitempty,max=100"`
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// PricingDTO is the frozen price breakdown of a reservation or quote.
type PricingDTO struct {
	Nights   int    `json:"nights"`
	PerNight string `json:"per_night"`
	Base     string `json:"base"`
	Discount string `json:"discount"`
	TaxRate  string `json:"tax_rate"`
	Tax      string `json:"tax"`
	Total    string `json:"total"`
}

// ReservationDTO represents a reservation in API responses.
type ReservationDTO struct {
	Reference      string     `json:"reference"`
	RoomTypeID     string     `json:"room_type_id"`
	CheckIn        string     `json:"check_in"`
	CheckOut       string     `json:"check_out"`
	Guests         int        `json:"guests"`
	Children       int        `json:"children"`
	Rooms          int        `json:"rooms"`
	GuestName      string     `json:"guest_name"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	SpecialRequest string     `json:"special_request,omitempty"`
	Pricing        PricingDTO `json:"pricing"`
	Status         string     `json:"status"`
	CreatedAt      string     `json:"created_at"`
	UpdatedAt      string     `json:"updated_at"`
	CancelledAt    *string    `json:"cancelled_at,omitempty"`
	CancelledBy    *string    `json:"cancelled_by,omitempty"`
	CancelReason   *string    `json:"cancel_reason,omitempty"`
}

// =============================================================================
// QUOTES
// =============================================================================

type QuoteRequest struct {
	RoomTypeID string `json:"room_type_id"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
	Rooms      int    `json:"rooms,omitempty" validate:"gte=0"`
	Discount   string `json:"discount,omitempty" validate:"omitempty,numeric"`
}

// =============================================================================
// ADMIN / SCENARIOS
// =============================================================================

// ExpiryRunDTO records one hold expiry pass.
type ExpiryRunDTO struct {
	RanAt   string `json:"ran_at"`
	Expired int    `json:"expired"`
	Error   string `json:"error,omitempty"`
}

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toRoomTypeDTO(rt booking.RoomType) RoomTypeDTO {
	return RoomTypeDTO{
		ID:          string(rt.ID),
		Name:        rt.Name,
		NightlyRate: rt.NightlyRate.StringFixed(2),
		MaxGuests:   rt.MaxGuests,
		MaxRooms:    rt.MaxRooms,
		TotalRooms:  rt.TotalRooms,
		Available:   rt.Available,
	}
}

func toPricingDTO(b booking.Breakdown) PricingDTO {
	return PricingDTO{
		Nights:   b.Nights,
		PerNight: b.PerNight.StringFixed(2),
		Base:     b.Base.StringFixed(2),
		Discount: b.Discount.StringFixed(2),
		TaxRate:  b.TaxRate.String(),
		Tax:      b.Tax.StringFixed(2),
		Total:    b.Total.StringFixed(2),
	}
}

func toReservationDTO(r booking.Reservation) ReservationDTO {
	dto := ReservationDTO{
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
		Pricing:        toPricingDTO(r.Pricing),
		Status:         string(r.Status),
		CreatedAt:      r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      r.UpdatedAt.Format(time.RFC3339),
		CancelledBy:    r.CancelledBy,
		CancelReason:   r.CancelReason,
	}
	if r.CancelledAt != nil {
		at := r.CancelledAt.Format(time.RFC3339)
		dto.CancelledAt = &at
	}
	return dto
}

func toBlockingDTOs(days []booking.BlockingDay) []BlockingDayDTO {
	out := make([]BlockingDayDTO, len(days))
	for i, d := range days {
		out[i] = BlockingDayDTO{Date: d.Date.String(), Free: d.Free}
	}
	return out
}

func toInventoryDTOs(days []booking.InventoryDay) []InventoryDayDTO {
	out := make([]InventoryDayDTO, len(days))
	for i, d := range days {
		out[i] = InventoryDayDTO{Date: d.Date.String(), Booked: d.Booked, Available: d.Available}
	}
	return out
}

func (req CreateReservationRequest) toBooking() booking.BookRequest {
	return booking.BookRequest{
		RoomTypeID:     booking.RoomTypeID(req.RoomTypeID),
		CheckIn:        req.CheckIn,
		CheckOut:       req.CheckOut,
		Guests:         req.Guests,
		Children:       req.Children,
		Rooms:          req.Rooms,
		GuestName:      req.GuestName,
		Email:          req.Email,
		Phone:          req.Phone,
		SpecialRequest: req.SpecialRequest,
		Hold:           req.Hold,
	}
}

func (req AdminReservationRequest) toBooking() booking.BookRequest {
	b := req.CreateReservationRequest.toBooking()
	b.Discount = booking.MustParseMoney(req.Discount)
	return b
}

func (req UpdateReservationRequest) toBooking() booking.UpdateRequest {
	return booking.UpdateRequest{
		CheckIn:        req.CheckIn,
		CheckOut:       req.CheckOut,
		Guests:         req.Guests,
		Children:       req.Children,
		Rooms:          req.Rooms,
		GuestName:      req.GuestName,
		Email:          req.Email,
		Phone:          req.Phone,
		SpecialRequest: req.SpecialRequest,
	}
}

func (req QuoteRequest) toBooking() booking.QuoteRequest {
	return booking.QuoteRequest{
		RoomTypeID: booking.RoomTypeID(req.RoomTypeID),
		CheckIn:    req.CheckIn,
		CheckOut:   req.CheckOut,
		Rooms:      req.Rooms,
		Discount:   booking.MustParseMoney(req.Discount),
	}
}
