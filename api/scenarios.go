/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the catalog and book a few
	reservations so the availability calendars and pricing have something
	to show. Dates are relative to the service clock's today.

AVAILABLE SCENARIOS:

	catalog:         Deluxe, Standard and Suite room types, no bookings
	deluxe-weekend:  Deluxe with one of its two rooms booked in 30 days
	sold-out-suite:  Single Suite booked for a week starting in 14 days
	pending-hold:    Standard with a pending hold that the scheduler expires

HOW SCENARIOS WORK:
 1. Save room types via factory presets (upsert)
 2. Book reservations through the Service, so every rule applies

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "deluxe-weekend"}

NOTE:

	Scenarios add data; they never delete. Loading the same booking scenario
	twice can fill the inventory, and a third load reports the conflict.

SEE ALSO:
  - handlers.go: shared helpers
  - factory/roomtype.go: room type presets
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/warp/lodging-engine/booking"
	"github.com/warp/lodging-engine/factory"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "catalog",
		Name:        "Catalog",
		Description: "Deluxe, Standard and Suite room types with no bookings",
	},
	{
		ID:          "deluxe-weekend",
		Name:        "Deluxe Weekend",
		Description: "Deluxe (2 rooms) with one room booked for two nights in 30 days",
	},
	{
		ID:          "sold-out-suite",
		Name:        "Sold-Out Suite",
		Description: "The only Suite booked for a week starting in 14 days",
	},
	{
		ID:          "pending-hold",
		Name:        "Pending Hold",
		Description: "A Standard room held (pending) until the hold expires or is confirmed",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the last loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decode(w, r, &req) {
		return
	}

	refs, err := h.loadScenario(r.Context(), req.ScenarioID)
	if err != nil {
		if booking.KindOf(err) == booking.KindInternal {
			writeError(w, http.StatusBadRequest, "Failed to load scenario", err)
			return
		}
		writeServiceError(w, err)
		return
	}

	h.mu.Lock()
	h.currentScenario = req.ScenarioID
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"scenario_id":  req.ScenarioID,
		"reservations": refs,
	})
}

func (h *Handler) loadScenario(ctx context.Context, id string) ([]string, error) {
	switch id {
	case "catalog":
		return nil, factory.Seed(ctx, h.Service, factory.DefaultCatalog())
	case "deluxe-weekend":
		return h.seedAndBook(ctx, factory.Deluxe(), demoBooking("deluxe", 30, 2, 1, 2, false))
	case "sold-out-suite":
		return h.seedAndBook(ctx, factory.Suite(), demoBooking("suite", 14, 7, 1, 2, false))
	case "pending-hold":
		return h.seedAndBook(ctx, factory.Standard(), demoBooking("standard", 7, 2, 2, 4, true))
	default:
		return nil, fmt.Errorf("unknown scenario: %s", id)
	}
}

// =============================================================================
// SCENARIO HELPERS
// =============================================================================

// scenarioBooking is a booking relative to today.
type scenarioBooking struct {
	req    booking.BookRequest
	offset int
	nights int
}

func demoBooking(roomType string, offset, nights, rooms, guests int, hold bool) scenarioBooking {
	return scenarioBooking{
		req: booking.BookRequest{
			RoomTypeID: booking.RoomTypeID(roomType),
			Guests:     guests,
			Rooms:      rooms,
			GuestName:  "Demo Guest",
			Email:      "demo.guest@example.com",
			Phone:      "555-010-0100",
			Hold:       hold,
		},
		offset: offset,
		nights: nights,
	}
}

func (h *Handler) seedAndBook(ctx context.Context, rt booking.RoomType, bookings ...scenarioBooking) ([]string, error) {
	if err := h.Service.SaveRoomType(ctx, rt); err != nil {
		return nil, err
	}

	today := h.Service.Today()
	refs := make([]string, 0, len(bookings))
	for _, b := range bookings {
		req := b.req
		req.CheckIn = today.AddDays(b.offset).String()
		req.CheckOut = today.AddDays(b.offset + b.nights).String()

		res, err := h.Service.Book(ctx, req)
		if err != nil {
			return refs, fmt.Errorf("book %s: %w", req.RoomTypeID, err)
		}
		refs = append(refs, string(res.Reference))
	}
	return refs, nil
}
