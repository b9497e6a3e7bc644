/*
Package factory provides JSON to Go room type conversion.

PURPOSE:
  Converts JSON room type definitions into booking.RoomType values, so the
  catalog (rates, capacity, inventory, per-type limits) can be configured
  without code changes.

JSON SCHEMA:
  {
    "room_types": [
      {
        "id": "deluxe",
        "name": "Deluxe",
        "nightly_rate": "3500",
        "max_guests": 4,
        "max_rooms": 2,
        "total_rooms": 2,
        "available": true
      }
    ]
  }

KEY FEATURES:
  - Validates structure with go-playground/validator
  - Rules are keyed by "id"; "name" is display only
  - Omitted "available" defaults to true
  - Omitted "max_rooms" means no per-reservation room limit

USAGE:
  f := factory.NewRoomTypeFactory()
  rts, err := f.LoadFile("catalog.json")
  err = factory.Seed(ctx, store, rts)

SEE ALSO:
  - booking/types.go: RoomType definition
  - api/scenarios.go: demo catalogs built from presets
*/
package factory

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/warp/lodging-engine/booking"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// CatalogJSON is the JSON representation of a catalog file.
type CatalogJSON struct {
	RoomTypes []RoomTypeJSON `json:"room_types" validate:"required,min=1,dive"`
}

// RoomTypeJSON is the JSON representation of a room type.
type RoomTypeJSON struct {
	ID          string          `json:"id" validate:"required"`
	Name        string          `json:"name" validate:"required"`
	NightlyRate decimal.Decimal `json:"nightly_rate"`
	MaxGuests   int             `json:"max_guests,omitempty" validate:"gte=0"`
	MaxRooms    *int            `json:"max_rooms,omitempty" validate:"omitempty,gte=1"`
	TotalRooms  int             `json:"total_rooms" validate:"gte=1"`
	Available   *bool           `json:"available,omitempty"`
}

// =============================================================================
// ROOM TYPE FACTORY
// =============================================================================

// RoomTypeFactory converts JSON room types to booking.RoomType.
type RoomTypeFactory struct {
	v *validator.Validate
}

func NewRoomTypeFactory() *RoomTypeFactory {
	return &RoomTypeFactory{v: validator.New()}
}

// ParseRoomType parses a single JSON room type.
func (f *RoomTypeFactory) ParseRoomType(data []byte) (booking.RoomType, error) {
	var rj RoomTypeJSON
	if err := json.Unmarshal(data, &rj); err != nil {
		return booking.RoomType{}, fmt.Errorf("failed to parse room type JSON: %w", err)
	}
	return f.FromJSON(rj)
}

// ParseCatalog parses a catalog document. IDs must be unique.
func (f *RoomTypeFactory) ParseCatalog(data []byte) ([]booking.RoomType, error) {
	var cj CatalogJSON
	if err := json.Unmarshal(data, &cj); err != nil {
		return nil, fmt.Errorf("failed to parse catalog JSON: %w", err)
	}
	if err := f.v.Struct(cj); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	seen := make(map[string]bool, len(cj.RoomTypes))
	out := make([]booking.RoomType, 0, len(cj.RoomTypes))
	for _, rj := range cj.RoomTypes {
		if seen[rj.ID] {
			return nil, fmt.Errorf("invalid catalog: duplicate room type id %q", rj.ID)
		}
		seen[rj.ID] = true

		rt, err := f.FromJSON(rj)
		if err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, nil
}

// LoadFile reads and parses a catalog file.
func (f *RoomTypeFactory) LoadFile(path string) ([]booking.RoomType, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return f.ParseCatalog(data)
}

// FromJSON converts RoomTypeJSON to booking.RoomType.
func (f *RoomTypeFactory) FromJSON(rj RoomTypeJSON) (booking.RoomType, error) {
	if err := f.v.Struct(rj); err != nil {
		return booking.RoomType{}, fmt.Errorf("invalid room type %q: %w", rj.ID, err)
	}
	if !rj.NightlyRate.IsPositive() {
		return booking.RoomType{}, fmt.Errorf("invalid room type %q: nightly_rate must be positive", rj.ID)
	}
	if rj.MaxRooms != nil && *rj.MaxRooms > rj.TotalRooms {
		return booking.RoomType{}, fmt.Errorf("invalid room type %q: max_rooms %d exceeds total_rooms %d",
			rj.ID, *rj.MaxRooms, rj.TotalRooms)
	}

	available := true
	if rj.Available != nil {
		available = *rj.Available
	}
	return booking.RoomType{
		ID:          booking.RoomTypeID(rj.ID),
		Name:        rj.Name,
		NightlyRate: rj.NightlyRate,
		MaxGuests:   rj.MaxGuests,
		MaxRooms:    rj.MaxRooms,
		TotalRooms:  rj.TotalRooms,
		Available:   available,
	}, nil
}

// ToJSON is the inverse of FromJSON.
func ToJSON(rt booking.RoomType) RoomTypeJSON {
	available := rt.Available
	return RoomTypeJSON{
		ID:          string(rt.ID),
		Name:        rt.Name,
		NightlyRate: rt.NightlyRate,
		MaxGuests:   rt.MaxGuests,
		MaxRooms:    rt.MaxRooms,
		TotalRooms:  rt.TotalRooms,
		Available:   &available,
	}
}

// Seed saves every room type into the catalog.
func Seed(ctx context.Context, catalog booking.Catalog, rts []booking.RoomType) error {
	var errs []error
	for _, rt := range rts {
		if err := catalog.SaveRoomType(ctx, rt); err != nil {
			errs = append(errs, fmt.Errorf("seed %s: %w", rt.ID, err))
		}
	}
	return errors.Join(errs...)
}

// =============================================================================
// PRESETS
// =============================================================================

func intPtr(n int) *int { return &n }

// Deluxe is the reference room type: 2 rooms at 3500 a night.
func Deluxe() booking.RoomType {
	return booking.RoomType{
		ID:          "deluxe",
		Name:        "Deluxe",
		NightlyRate: booking.NewMoney(3500),
		MaxGuests:   4,
		MaxRooms:    intPtr(2),
		TotalRooms:  2,
		Available:   true,
	}
}

func Standard() booking.RoomType {
	return booking.RoomType{
		ID:          "standard",
		Name:        "Standard",
		NightlyRate: booking.NewMoney(2000),
		MaxGuests:   9,
		MaxRooms:    intPtr(3),
		TotalRooms:  10,
		Available:   true,
	}
}

func Suite() booking.RoomType {
	return booking.RoomType{
		ID:          "suite",
		Name:        "Suite",
		NightlyRate: booking.NewMoney(8000),
		MaxGuests:   3,
		MaxRooms:    intPtr(1),
		TotalRooms:  1,
		Available:   true,
	}
}

// DefaultCatalog is used when no catalog file is configured.
func DefaultCatalog() []booking.RoomType {
	return []booking.RoomType{Deluxe(), Standard(), Suite()}
}
