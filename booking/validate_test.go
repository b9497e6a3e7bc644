package booking_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/lodging-engine/booking"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// today is 2025-02-01 in every test.
var testClock = booking.FixedClock{At: time.Date(2025, time.February, 1, 10, 0, 0, 0, time.UTC)}

func intPtr(n int) *int { return &n }

func deluxe() booking.RoomType {
	return booking.RoomType{
		ID:          "deluxe",
		Name:        "Deluxe",
		NightlyRate: booking.NewMoney(3500),
		MaxGuests:   6,
		MaxRooms:    intPtr(2),
		TotalRooms:  2,
		Available:   true,
	}
}

func validRequest() booking.BookRequest {
	return booking.BookRequest{
		RoomTypeID: "deluxe",
		CheckIn:    "2025-03-01",
		CheckOut:   "2025-03-03",
		Guests:     2,
		Rooms:      1,
		GuestName:  "Ada Lovelace",
		Email:      "ada@example.com",
		Phone:      "555-123-4567",
	}
}

func newValidator() *booking.Validator {
	return booking.NewValidator(booking.DefaultRules(), testClock)
}

// =============================================================================
// RULE ORDER
// =============================================================================

func TestValidateRequest_Valid(t *testing.T) {
	w, phone, err := newValidator().ValidateRequest(validRequest())

	require.NoError(t, err)
	assert.Equal(t, "5551234567", phone)
	assert.Equal(t, "[2025-03-01, 2025-03-03)", w.String())
}

func TestValidateRequest_FirstFailureWins(t *testing.T) {
	tests := []struct {
		name  string
		mod   func(*booking.BookRequest)
		code  booking.Code
		field string
	}{
		{"missing room type", func(r *booking.BookRequest) { r.RoomTypeID = "" }, booking.CodeMissingField, "room_type_id"},
		{"missing guests", func(r *booking.BookRequest) { r.Guests = 0 }, booking.CodeMissingField, "guests"},
		{"negative guests", func(r *booking.BookRequest) { r.Guests = -1 }, booking.CodeInvalidFormat, "guests"},
		{"missing email", func(r *booking.BookRequest) { r.Email = "" }, booking.CodeMissingField, "email"},
		{"name with digits", func(r *booking.BookRequest) { r.GuestName = "R2D2" }, booking.CodeInvalidFormat, "guest_name"},
		{"short phone", func(r *booking.BookRequest) { r.Phone = "12345" }, booking.CodeInvalidFormat, "phone"},
		{"letters in phone", func(r *booking.BookRequest) { r.Phone = "555123456x" }, booking.CodeInvalidFormat, "phone"},
		{"bad email", func(r *booking.BookRequest) { r.Email = "not-an-email" }, booking.CodeInvalidFormat, "email"},
		{"children above guests", func(r *booking.BookRequest) { r.Children = intPtr(3) }, booking.CodeInvalidFormat, "children"},
		{"negative children", func(r *booking.BookRequest) { r.Children = intPtr(-1) }, booking.CodeInvalidFormat, "children"},
		{"long special request", func(r *booking.BookRequest) {
			r.SpecialRequest = strings.Repeat("word ", 101)
		}, booking.CodeInvalidFormat, "special_request"},
		{"bad check-in", func(r *booking.BookRequest) { r.CheckIn = "03/01/2025" }, booking.CodeInvalidFormat, "check_in"},
		{"inverted range", func(r *booking.BookRequest) { r.CheckOut = "2025-02-27" }, booking.CodeInvalidDateRange, "check_out"},
		{"same day", func(r *booking.BookRequest) { r.CheckOut = r.CheckIn }, booking.CodeInvalidDateRange, "check_out"},
		{"past check-in", func(r *booking.BookRequest) {
			r.CheckIn, r.CheckOut = "2025-01-30", "2025-02-02"
		}, booking.CodePastDate, "check_in"},
		{"name checked before phone", func(r *booking.BookRequest) {
			r.GuestName, r.Phone = "R2D2", "1"
		}, booking.CodeInvalidFormat, "guest_name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mod(&req)

			_, _, err := newValidator().ValidateRequest(req)

			var re *booking.RuleError
			require.True(t, errors.As(err, &re), "expected RuleError, got %v", err)
			assert.Equal(t, tt.code, re.Code)
			assert.Equal(t, tt.field, re.Field)
			assert.Equal(t, booking.KindValidation, booking.KindOf(err))
		})
	}
}

func TestValidateRequest_CheckInTodayAllowed(t *testing.T) {
	req := validRequest()
	req.CheckIn, req.CheckOut = "2025-02-01", "2025-02-02"

	_, _, err := newValidator().ValidateRequest(req)

	assert.NoError(t, err)
}

func TestValidateRequest_SpecialRequestAtLimit(t *testing.T) {
	req := validRequest()
	req.SpecialRequest = strings.TrimSpace(strings.Repeat("word ", 100))

	_, _, err := newValidator().ValidateRequest(req)

	assert.NoError(t, err)
}

// =============================================================================
// POLICY RULES
// =============================================================================

func TestValidatePolicy(t *testing.T) {
	v := newValidator()
	rt := deluxe()

	t.Run("capacity", func(t *testing.T) {
		err := v.ValidatePolicy(rt, 7, 2)
		assert.ErrorIs(t, err, booking.ErrCapacityExceeded)
		assert.Equal(t, booking.KindCapacityExceeded, booking.KindOf(err))
	})

	t.Run("type maximum", func(t *testing.T) {
		err := v.ValidatePolicy(rt, 2, 3)
		assert.ErrorIs(t, err, booking.ErrRoomCountInvalid)
	})

	t.Run("ratio", func(t *testing.T) {
		// 4 guests at 3 per room need 2 rooms
		err := v.ValidatePolicy(rt, 4, 1)
		assert.ErrorIs(t, err, booking.ErrRoomCountInvalid)
		assert.Equal(t, booking.KindRoomCountInvalid, booking.KindOf(err))
		assert.NoError(t, v.ValidatePolicy(rt, 4, 2))
	})

	t.Run("zero rooms", func(t *testing.T) {
		assert.ErrorIs(t, v.ValidatePolicy(rt, 1, 0), booking.ErrRoomCountInvalid)
	})

	t.Run("unbounded type", func(t *testing.T) {
		open := booking.RoomType{ID: "hall", Name: "Hall", TotalRooms: 50, Available: true}
		assert.NoError(t, v.ValidatePolicy(open, 30, 10))
	})
}

func TestRoomsNeeded(t *testing.T) {
	assert.Equal(t, 1, booking.RoomsNeeded(3, 3))
	assert.Equal(t, 2, booking.RoomsNeeded(4, 3))
	assert.Equal(t, 0, booking.RoomsNeeded(0, 3))
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "5551234567", booking.NormalizePhone(" (555) 123.4567 "))
}
