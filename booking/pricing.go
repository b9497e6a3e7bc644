package booking

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PRICE BREAKDOWN
// =============================================================================

// Breakdown is the frozen monetary snapshot of a stay.
type Breakdown struct {
	Nights   int
	PerNight Money
	Base     Money
	Discount Money
	TaxRate  decimal.Decimal
	Tax      Money
	Total    Money
}

// Taxable is the amount tax is charged on.
func (b Breakdown) Taxable() Money {
	return b.Base.Sub(b.Discount)
}

// Nights is the number of billable nights: elapsed time divided by one day,
// rounded up. Any window with checkOut after checkIn bills at least one night.
func Nights(checkIn, checkOut time.Time) int {
	elapsed := checkOut.Sub(checkIn)
	if elapsed <= 0 {
		return 0
	}
	n := int(elapsed / Day)
	if elapsed%Day != 0 {
		n++
	}
	return n
}

// Price computes the breakdown for a stay. The discount is clamped to
// [0, base] so the taxable amount is never negative. Tax is rounded half-up
// to whole currency units. Inputs are never mutated.
func Price(nights int, perNight, discount Money, taxRate decimal.Decimal) Breakdown {
	base := perNight.Mul(decimal.NewFromInt(int64(nights)))

	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if discount.GreaterThan(base) {
		discount = base
	}

	afterDiscount := base.Sub(discount)
	tax := afterDiscount.Mul(taxRate).Round(0)

	return Breakdown{
		Nights:   nights,
		PerNight: perNight,
		Base:     base,
		Discount: discount,
		TaxRate:  taxRate,
		Tax:      tax,
		Total:    afterDiscount.Add(tax),
	}
}

// PriceStay prices a window for a room type and room count. The nightly
// charge is the type rate multiplied by the rooms booked.
func PriceStay(rt RoomType, w Window, rooms int, discount Money, taxRate decimal.Decimal) Breakdown {
	perNight := rt.NightlyRate.Mul(decimal.NewFromInt(int64(rooms)))
	return Price(Nights(w.CheckIn.Time, w.CheckOut.Time), perNight, discount, taxRate)
}
