/*
validate.go - Field and policy rules for reservation requests

PURPOSE:
  Each rule is an independent pure predicate. A creation request is checked
  in a fixed order and the first failure is reported, so a client always
  sees exactly one actionable error.

RULE ORDER:
  1. Required fields present            missing_field
  2. Guest name has no digits           invalid_format
  3. Phone is exactly 10 digits         invalid_format
     Email is well formed               invalid_format
  4. 0 <= children <= guests            invalid_format
  5. Special request word ceiling       invalid_format
  6. Dates parse, ordered, not past     invalid_format / invalid_date_range / past_date
  --- room type lookup happens here ---
  7. Guests within type capacity        capacity_exceeded
  8. Rooms within type maximum          room_count_invalid
  9. Rooms cover guests at the ratio    room_count_invalid

  Rules 1-6 need only the request; 7-9 need the RoomType, which is looked up
  by stable ID so renaming a type can never bypass its limits.

LIBRARIES:
  go-playground/validator handles presence and email syntax; the remaining
  rules are domain predicates.
*/
package booking

import (
	"errors"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const (
	// DefaultGuestsPerRoom is the observed guests-per-room ratio.
	DefaultGuestsPerRoom = 3

	// DefaultMaxSpecialRequestWords caps free-text requests.
	DefaultMaxSpecialRequestWords = 100
)

// Rules holds the policy constants the validator enforces.
type Rules struct {
	GuestsPerRoom          int
	MaxSpecialRequestWords int
}

func DefaultRules() Rules {
	return Rules{
		GuestsPerRoom:          DefaultGuestsPerRoom,
		MaxSpecialRequestWords: DefaultMaxSpecialRequestWords,
	}
}

// Validator applies Rules. It is safe for concurrent use.
type Validator struct {
	Rules Rules
	Clock Clock

	v *validator.Validate
}

func NewValidator(rules Rules, clock Clock) *Validator {
	if rules.GuestsPerRoom <= 0 {
		rules.GuestsPerRoom = DefaultGuestsPerRoom
	}
	if rules.MaxSpecialRequestWords <= 0 {
		rules.MaxSpecialRequestWords = DefaultMaxSpecialRequestWords
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Validator{Rules: rules, Clock: clock, v: validator.New()}
}

// =============================================================================
// REQUEST-LEVEL CHECKS
// =============================================================================

// ValidateRequest runs rules 1-6 and returns the parsed window and the
// normalized phone number.
func (v *Validator) ValidateRequest(req BookRequest) (Window, string, error) {
	if err := v.CheckRequired(req); err != nil {
		return Window{}, "", err
	}
	if err := CheckGuestName(req.GuestName); err != nil {
		return Window{}, "", err
	}
	phone, err := CheckPhone(req.Phone)
	if err != nil {
		return Window{}, "", err
	}
	if err := v.CheckEmail(req.Email); err != nil {
		return Window{}, "", err
	}
	if err := CheckChildren(req.Children, req.Guests); err != nil {
		return Window{}, "", err
	}
	if err := CheckSpecialRequest(req.SpecialRequest, v.Rules.MaxSpecialRequestWords); err != nil {
		return Window{}, "", err
	}
	w, err := CheckDates(req.CheckIn, req.CheckOut, Today(v.Clock))
	if err != nil {
		return Window{}, "", err
	}
	return w, phone, nil
}

// ValidatePolicy runs rules 7-9 against the looked-up room type.
func (v *Validator) ValidatePolicy(rt RoomType, guests, rooms int) error {
	if err := CheckCapacity(rt, guests); err != nil {
		return err
	}
	return CheckRoomCount(rt, rooms, guests, v.Rules.GuestsPerRoom)
}

// CheckRequired reports the first absent required field.
func (v *Validator) CheckRequired(req BookRequest) error {
	err := v.v.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		f := fieldErrs[0]
		name := fieldName(f.Field())
		if f.Tag() != "required" {
			return ruleErr(CodeInvalidFormat, name, "%s must satisfy %s=%s", name, f.Tag(), f.Param())
		}
		return ruleErr(CodeMissingField, name, "%s is required", name)
	}
	return ruleErr(CodeMissingField, "", "%v", err)
}

// CheckEmail rejects malformed addresses.
func (v *Validator) CheckEmail(email string) error {
	if err := v.v.Var(strings.TrimSpace(email), "required,email"); err != nil {
		return ruleErr(CodeInvalidFormat, "email", "email address is not valid")
	}
	return nil
}

// =============================================================================
// INDIVIDUAL RULES
// =============================================================================

// CheckGuestName rejects names containing digits.
func CheckGuestName(name string) error {
	for _, r := range name {
		if unicode.IsDigit(r) {
			return ruleErr(CodeInvalidFormat, "guest_name", "guest name must not contain digits")
		}
	}
	return nil
}

// NormalizePhone strips common separators from a phone number.
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '.', '(', ')':
			return -1
		}
		return r
	}, strings.TrimSpace(phone))
}

// CheckPhone requires exactly 10 digits after normalization.
func CheckPhone(phone string) (string, error) {
	n := NormalizePhone(phone)
	if len(n) != 10 {
		return "", ruleErr(CodeInvalidFormat, "phone", "phone must be exactly 10 digits")
	}
	for _, r := range n {
		if r < '0' || r > '9' {
			return "", ruleErr(CodeInvalidFormat, "phone", "phone must be exactly 10 digits")
		}
	}
	return n, nil
}

// CheckChildren requires 0 <= children <= guests when children is given.
func CheckChildren(children *int, guests int) error {
	if children == nil {
		return nil
	}
	if *children < 0 || *children > guests {
		return ruleErr(CodeInvalidFormat, "children", "children must be between 0 and %d", guests)
	}
	return nil
}

// CheckSpecialRequest enforces the word ceiling on free text.
func CheckSpecialRequest(text string, maxWords int) error {
	if text == "" {
		return nil
	}
	if n := len(strings.Fields(text)); n > maxWords {
		return ruleErr(CodeInvalidFormat, "special_request",
			"special request has %d words, limit is %d", n, maxWords)
	}
	return nil
}

// CheckDates parses both dates, requires checkOut > checkIn and rejects a
// check-in before today.
func CheckDates(checkIn, checkOut string, today Date) (Window, error) {
	in, err := ParseDate(checkIn)
	if err != nil {
		return Window{}, ruleErr(CodeInvalidFormat, "check_in", "check-in must be YYYY-MM-DD")
	}
	out, err := ParseDate(checkOut)
	if err != nil {
		return Window{}, ruleErr(CodeInvalidFormat, "check_out", "check-out must be YYYY-MM-DD")
	}
	w, err := NewWindow(in, out)
	if err != nil {
		return Window{}, ruleErr(CodeInvalidDateRange, "check_out", "check-out must be after check-in")
	}
	if in.Before(today) {
		return Window{}, ruleErr(CodePastDate, "check_in", "check-in %s is in the past", in)
	}
	return w, nil
}

// CheckCapacity enforces the per-type guest capacity.
func CheckCapacity(rt RoomType, guests int) error {
	if rt.MaxGuests > 0 && guests > rt.MaxGuests {
		return ruleErr(CodeCapacityExceeded, "guests",
			"%s allows at most %d guests, requested %d", rt.Name, rt.MaxGuests, guests)
	}
	return nil
}

// CheckRoomCount enforces rooms >= 1, the per-type maximum, and the
// guests-per-room ratio.
func CheckRoomCount(rt RoomType, rooms, guests, guestsPerRoom int) error {
	if rooms < 1 {
		return ruleErr(CodeRoomCountInvalid, "rooms", "at least one room is required")
	}
	if rt.MaxRooms != nil && rooms > *rt.MaxRooms {
		return ruleErr(CodeRoomCountInvalid, "rooms",
			"%s allows at most %d rooms per reservation, requested %d", rt.Name, *rt.MaxRooms, rooms)
	}
	if need := RoomsNeeded(guests, guestsPerRoom); rooms < need {
		return ruleErr(CodeRoomCountInvalid, "rooms",
			"%d guests need at least %d rooms", guests, need)
	}
	return nil
}

// RoomsNeeded is ceil(guests / guestsPerRoom).
func RoomsNeeded(guests, guestsPerRoom int) int {
	if guests <= 0 || guestsPerRoom <= 0 {
		return 0
	}
	return (guests + guestsPerRoom - 1) / guestsPerRoom
}

var fieldNames = map[string]string{
	"RoomTypeID": "room_type_id",
	"CheckIn":    "check_in",
	"CheckOut":   "check_out",
	"Guests":     "guests",
	"GuestName":  "guest_name",
	"Email":      "email",
	"Phone":      "phone",
}

func fieldName(f string) string {
	if n, ok := fieldNames[f]; ok {
		return n
	}
	return f
}
