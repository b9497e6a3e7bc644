package booking

import "fmt"

// =============================================================================
// WINDOW - Half-open stay interval [CheckIn, CheckOut)
// =============================================================================

// Window is a stay. The night of CheckOut is not occupied.
type Window struct {
	CheckIn  Date
	CheckOut Date
}

// NewWindow builds a window, rejecting empty or inverted ranges.
func NewWindow(checkIn, checkOut Date) (Window, error) {
	if !checkOut.After(checkIn) {
		return Window{}, ErrInvalidWindow
	}
	return Window{CheckIn: checkIn, CheckOut: checkOut}, nil
}

// Overlaps reports whether the two windows share at least one night.
func (w Window) Overlaps(o Window) bool {
	return w.CheckIn.Before(o.CheckOut) && w.CheckOut.After(o.CheckIn)
}

// Covers reports whether the night of d falls inside the window.
func (w Window) Covers(d Date) bool {
	return !d.Before(w.CheckIn) && d.Before(w.CheckOut)
}

// Nights returns every occupied night, in order.
func (w Window) Nights() []Date {
	var days []Date
	for d := w.CheckIn; d.Before(w.CheckOut); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

// Intersect returns the shared nights of two windows and whether any exist.
func (w Window) Intersect(o Window) (Window, bool) {
	if !w.Overlaps(o) {
		return Window{}, false
	}
	in, out := w.CheckIn, w.CheckOut
	if o.CheckIn.After(in) {
		in = o.CheckIn
	}
	if o.CheckOut.Before(out) {
		out = o.CheckOut
	}
	return Window{CheckIn: in, CheckOut: out}, true
}

func (w Window) String() string {
	return fmt.Sprintf("[%s, %s)", w.CheckIn, w.CheckOut)
}

// Horizon is a window of n nights starting at start.
func Horizon(start Date, n int) Window {
	return Window{CheckIn: start, CheckOut: start.AddDays(n)}
}
