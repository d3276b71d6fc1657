package ledger

import (
	"time"

	"property-backend/internal/money"
	"property-backend/internal/timeutil"
)

// LeaseStatus of a lease agreement
type LeaseStatus string

const (
	LeaseActive     LeaseStatus = "active"
	LeaseExpired    LeaseStatus = "expired"
	LeaseTerminated LeaseStatus = "terminated"
)

// LeaseTerms are the parts of a lease the ledger needs. Start and end dates
// are both inclusive.
type LeaseTerms struct {
	LeaseID       int         `json:"lease_id"`
	PropertyID    int         `json:"property_id"`
	TenantID      int         `json:"tenant_id"`
	MonthlyRent   money.Money `json:"monthly_rent"`
	StartDate     time.Time   `json:"start_date"`
	EndDate       time.Time   `json:"end_date"`
	PaymentDueDay int         `json:"payment_due_day"`
	Status        LeaseStatus `json:"status"`
}

// Validate checks the due day range and date ordering
func (l LeaseTerms) Validate() error {
	if l.PaymentDueDay < 1 || l.PaymentDueDay > 31 {
		return ErrInvalidTerms
	}
	if l.StartDate.IsZero() || l.EndDate.IsZero() {
		return ErrInvalidDate
	}
	if l.EndDate.Before(l.StartDate) {
		return ErrInvalidTerms
	}
	return nil
}

// DurationMonths counts the calendar months spanned by [StartDate, EndDate].
// A month runs from the start day to the day before the same day of the next
// month. A lease starting on the last day of a month keeps its months on
// month ends, so Jan 31 - Feb 27 2023 and Feb 28 - Mar 30 2023 are both one
// month. A partial trailing month counts as one more month, so Jan 1 - Dec 31
// is 12 months and Jan 15 - Mar 1 is 2.
func (l LeaseTerms) DurationMonths() int {
	start := timeutil.DateOf(l.StartDate)
	end := timeutil.DateOf(l.EndDate).AddDate(0, 0, 1) // exclusive
	if !end.After(start) {
		return 0
	}

	months := (end.Year()-start.Year())*12 + int(end.Month()-start.Month())
	for months > 0 && anniversary(start, months).After(end) {
		months--
	}
	if anniversary(start, months).Before(end) {
		months++
	}
	return months
}

// anniversary moves start by n months. Month-end starts stay on month ends.
func anniversary(start time.Time, n int) time.Time {
	moved := timeutil.AddMonths(start, n)
	if timeutil.IsMonthEnd(start) {
		return timeutil.EndOfMonth(moved)
	}
	return moved
}

// Covers reports whether day d falls inside the lease term
func (l LeaseTerms) Covers(d time.Time) bool {
	d = timeutil.DateOf(d)
	return !d.Before(timeutil.DateOf(l.StartDate)) && !d.After(timeutil.DateOf(l.EndDate))
}
