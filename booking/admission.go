/*
admission.go - Admission decision and availability views

PURPOSE:
  Decides whether a new or modified reservation fits the remaining
  inventory of its room type, and renders the read-only availability views.

TWO AVAILABILITY SEMANTICS (kept deliberately separate):

  Inventory-aware (Admit, InventoryCalendar):
    rooms requested <= totalRooms - peak occupancy over the window.
    This is the check that guards the overselling invariant.

  Single-room blocking (IsRangeFree, BlockingCalendar):
    "does ANY pending/confirmed reservation overlap?" Every overlap blocks,
    whatever the inventory. Used by simple green/red day calendars.
    It never admits anything and must not be used for admission.

CONCURRENCY:
  These functions are pure. The caller (Service) makes "load reservations ->
  Admit -> persist" a single critical section per room type.
*/
package booking

import "sort"

// CalendarHorizon is the number of days a calendar covers.
const CalendarHorizon = 30

// Decision is the outcome of a successful admission.
type Decision struct {
	Occupancy Occupancy
	Available int
	Requested int
}

// Admit accepts rooms for w when they fit under the peak occupancy of every
// other reservation (exclude is skipped). A rejection is a *ConflictError.
func Admit(rt RoomType, w Window, rooms int, reservations []Reservation, exclude Reference) (Decision, error) {
	occ := ComputeOccupancy(w, reservations, exclude)
	available := occ.Available(rt.TotalRooms)

	if rooms <= available {
		return Decision{Occupancy: occ, Available: available, Requested: rooms}, nil
	}

	conflict := &ConflictError{
		RoomTypeID: rt.ID,
		Window:     w,
		Requested:  rooms,
		Available:  available,
	}
	if r, ok := earliestConflict(occ, rooms, rt.TotalRooms, reservations, exclude); ok {
		conflict.Reference = r.Reference
		cw := r.Window
		conflict.ConflictWindow = &cw
	}
	return Decision{}, conflict
}

// earliestConflict finds the earliest-starting reservation that occupies a
// night the request would overbook.
func earliestConflict(occ Occupancy, rooms, total int, reservations []Reservation, exclude Reference) (Reservation, bool) {
	nights := occ.Overbooked(rooms, total)
	if len(nights) == 0 {
		return Reservation{}, false
	}

	candidates := make([]Reservation, 0, len(reservations))
	for _, r := range reservations {
		if !counts(r, exclude) {
			continue
		}
		for _, night := range nights {
			if r.Window.Covers(night) {
				candidates = append(candidates, r)
				break
			}
		}
	}
	if len(candidates) == 0 {
		return Reservation{}, false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Window.CheckIn.Before(candidates[j].Window.CheckIn)
	})
	return candidates[0], true
}

// IsRangeFree is the single-room existence check: w is free only if no
// pending or confirmed reservation overlaps it.
func IsRangeFree(w Window, reservations []Reservation) bool {
	for _, r := range reservations {
		if r.Status.Occupies() && r.Window.Overlaps(w) {
			return false
		}
	}
	return true
}

// =============================================================================
// CALENDARS
// =============================================================================

// BlockingDay is one cell of the single-room calendar.
type BlockingDay struct {
	Date Date
	Free bool
}

// InventoryDay is one cell of the inventory-aware calendar.
type InventoryDay struct {
	Date      Date
	Booked    int
	Available int
}

// BlockingCalendar evaluates IsRangeFree independently for each night of
// the horizon starting at start.
func BlockingCalendar(start Date, reservations []Reservation) []BlockingDay {
	days := make([]BlockingDay, 0, CalendarHorizon)
	for _, night := range Horizon(start, CalendarHorizon).Nights() {
		days = append(days, BlockingDay{
			Date: night,
			Free: IsRangeFree(Window{CheckIn: night, CheckOut: night.AddDays(1)}, reservations),
		})
	}
	return days
}

// InventoryCalendar reports booked and available rooms for each night of the
// horizon starting at start.
func InventoryCalendar(rt RoomType, start Date, reservations []Reservation) []InventoryDay {
	h := Horizon(start, CalendarHorizon)
	occ := ComputeOccupancy(h, reservations, "")

	days := make([]InventoryDay, 0, CalendarHorizon)
	for _, night := range h.Nights() {
		days = append(days, InventoryDay{
			Date:      night,
			Booked:    occ.PerNight[night],
			Available: occ.AvailableOn(night, rt.TotalRooms),
		})
	}
	return days
}
