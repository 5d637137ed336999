package library

import "time"

// Monetary amounts are whole currency units.
const (
	// DailyRate is the per-day rental fee.
	DailyRate int64 = 50

	// DebtCeiling is the maximum outstanding debt a member may carry
	// after any settlement.
	DebtCeiling int64 = 500
)

// DaysRented counts whole days between the borrowed date and the return
// date, truncating partial days. Clock skew can make the return date
// precede the borrowed date; that is clamped to zero rather than
// producing a negative rental period.
func DaysRented(borrowed, returned time.Time) int64 {
	days := int64(returned.Sub(borrowed).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// RentalFee computes the total fee for a loan spanning the given dates.
// Loans returned within the first day are charged a flat one-day
// minimum.
func RentalFee(borrowed, returned time.Time) int64 {
	days := DaysRented(borrowed, returned)
	if days < 1 {
		return DailyRate
	}
	return days * DailyRate
}
