/*
occupancy.go - Per-night occupancy accounting

PURPOSE:
  Answers "how many rooms of this type are already committed on each night
  of a window?" from the set of existing reservations.

ALGORITHM:
  For every pending or confirmed reservation overlapping [from, to), add its
  room count to each night of [r.CheckIn, r.CheckOut) that also lies inside
  [from, to). The maximum over the window is the peak:

    available = totalRooms - peak

  A stay is rejected if it would oversell on ANY single night it touches,
  not on average.

EXCLUSION:
  An update re-validates a reservation against everyone else, so its own
  prior occupancy is excluded by reference.

COST:
  One rescan of overlapping reservations per call. Small inventories make
  this cheap; see DESIGN.md for the incremental-counter alternative.
*/
package booking

import "sort"

// Occupancy is the committed room count per night of a window.
type Occupancy struct {
	Window   Window
	PerNight map[Date]int
	Peak     int
	PeakDate Date
}

// ComputeOccupancy accounts the reservations against w. Reservations that do
// not occupy inventory, do not overlap w, or match exclude are ignored.
func ComputeOccupancy(w Window, reservations []Reservation, exclude Reference) Occupancy {
	occ := Occupancy{Window: w, PerNight: make(map[Date]int)}
	for _, night := range w.Nights() {
		occ.PerNight[night] = 0
	}

	for _, r := range reservations {
		if !counts(r, exclude) {
			continue
		}
		shared, ok := r.Window.Intersect(w)
		if !ok {
			continue
		}
		for _, night := range shared.Nights() {
			occ.PerNight[night] += r.Rooms
		}
	}

	occ.PeakDate = w.CheckIn
	for _, night := range w.Nights() {
		if n := occ.PerNight[night]; n > occ.Peak {
			occ.Peak = n
			occ.PeakDate = night
		}
	}
	return occ
}

// Available is the number of rooms free on every night of the window.
func (o Occupancy) Available(totalRooms int) int {
	if free := totalRooms - o.Peak; free > 0 {
		return free
	}
	return 0
}

// AvailableOn is the number of rooms free on a single night.
func (o Occupancy) AvailableOn(night Date, totalRooms int) int {
	if free := totalRooms - o.PerNight[night]; free > 0 {
		return free
	}
	return 0
}

// Overbooked returns, in order, the nights where adding rooms would exceed
// totalRooms.
func (o Occupancy) Overbooked(rooms, totalRooms int) []Date {
	var nights []Date
	for night, n := range o.PerNight {
		if n+rooms > totalRooms {
			nights = append(nights, night)
		}
	}
	sort.Slice(nights, func(i, j int) bool { return nights[i].Before(nights[j]) })
	return nights
}

func counts(r Reservation, exclude Reference) bool {
	if !r.Status.Occupies() {
		return false
	}
	return exclude == "" || r.Reference != exclude
}
