// Package reconciliation matches payments against a lease's rent schedule:
// due dates, late classification and tenant reliability scores.
//
// Due dates clamp to the end of short months. A lease due on the 31st is due
// on April 30, not May 1, so a payment made on May 1 is late for April.
package reconciliation

import (
	"math"
	"time"

	"property-backend/internal/ledger"
	"property-backend/internal/money"
	"property-backend/internal/timeutil"
)

// Result is the classification of a single payment
type Result struct {
	PaymentID    string      `json:"payment_id"`
	Amount       money.Money `json:"amount"`
	BillingMonth string      `json:"billing_month"`
	DueDate      time.Time   `json:"due_date"`
	PaymentDate  time.Time   `json:"payment_date"`
	IsLate       bool        `json:"is_late"`
	DaysLate     int         `json:"days_late"`
}

// Reliability counts on-time and late rent payments
type Reliability struct {
	OnTime int `json:"on_time"`
	Late   int `json:"late"`
	Score  int `json:"score"`
}

// HasPayments is false when the score is 0 only because nothing was paid yet
func (r Reliability) HasPayments() bool { return r.OnTime+r.Late > 0 }

// InstallmentStatus of one billing month in a lease schedule
type InstallmentStatus string

const (
	InstallmentPaid    InstallmentStatus = "paid"
	InstallmentPartial InstallmentStatus = "partial"
	InstallmentUnpaid  InstallmentStatus = "unpaid"
	InstallmentOverdue InstallmentStatus = "overdue"
)

// Installment is one month of expected rent and what was paid toward it
type Installment struct {
	BillingMonth string            `json:"billing_month"`
	DueDate      time.Time         `json:"due_date"`
	Expected     money.Money       `json:"expected"`
	Paid         money.Money       `json:"paid"`
	Status       InstallmentStatus `json:"status"`
}

// Engine is stateless; the zero value is ready to use.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// DueDateFor returns the rent due date for the month containing billingMonth
func (e *Engine) DueDateFor(terms ledger.LeaseTerms, billingMonth time.Time) time.Time {
	return timeutil.ClampedDate(billingMonth.Year(), billingMonth.Month(), terms.PaymentDueDay)
}

// Classify works out whether a payment was late for its billing month
func (e *Engine) Classify(payment ledger.PaymentRecord, terms ledger.LeaseTerms) Result {
	paid := timeutil.DateOf(payment.PaymentDate)
	due := e.DueDateFor(terms, paid)

	daysLate := timeutil.DaysBetween(due, paid)
	if daysLate < 0 {
		daysLate = 0
	}

	return Result{
		PaymentID:    payment.ID,
		Amount:       payment.Amount,
		BillingMonth: paid.Format(timeutil.MonthLayout),
		DueDate:      due,
		PaymentDate:  paid,
		IsLate:       paid.After(due),
		DaysLate:     daysLate,
	}
}

// Reconcile classifies every active rent payment in the ledger, oldest first
func (e *Engine) Reconcile(l *ledger.LeaseLedger) []Result {
	terms := l.Terms()
	rent := l.ActivePayments(ledger.TypeRent)

	results := make([]Result, 0, len(rent))
	for _, p := range rent {
		results = append(results, e.Classify(p, terms))
	}
	return results
}

// ReliabilityScore is the percentage of active rent payments made on or
// before their due date. A ledger with no rent payments scores 0.
func (e *Engine) ReliabilityScore(l *ledger.LeaseLedger) int {
	return e.TenantReliability(l).Score
}

// TenantReliability scores a tenant across all of their leases
func (e *Engine) TenantReliability(ledgers ...*ledger.LeaseLedger) Reliability {
	var r Reliability
	for _, l := range ledgers {
		for _, result := range e.Reconcile(l) {
			if result.IsLate {
				r.Late++
			} else {
				r.OnTime++
			}
		}
	}
	r.Score = score(r.OnTime, r.Late)
	return r
}

func score(onTime, late int) int {
	total := onTime + late
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(onTime) / float64(total)))
}

// NextPaymentDueDate returns this month's due date if asOf has not passed it,
// otherwise next month's.
func (e *Engine) NextPaymentDueDate(terms ledger.LeaseTerms, asOf time.Time) time.Time {
	asOf = timeutil.DateOf(asOf)
	due := e.DueDateFor(terms, asOf)
	if !asOf.After(due) {
		return due
	}
	return e.DueDateFor(terms, timeutil.AddMonths(timeutil.StartOfMonth(asOf), 1))
}

// Schedule lists each billing month from lease start through the earlier of
// asOf and lease end, with the rent paid in that month. A month whose due
// date is still ahead of asOf is unpaid rather than overdue.
func (e *Engine) Schedule(l *ledger.LeaseLedger, asOf time.Time) []Installment {
	terms := l.Terms()
	asOf = timeutil.DateOf(asOf)

	last := timeutil.DateOf(terms.EndDate)
	if asOf.Before(last) {
		last = asOf
	}
	start := timeutil.StartOfMonth(terms.StartDate)
	if last.Before(start) {
		return nil
	}

	paidByMonth := make(map[string]money.Money)
	for _, p := range l.ActivePayments(ledger.TypeRent) {
		key := p.PaymentDate.Format(timeutil.MonthLayout)
		paidByMonth[key] = paidByMonth[key].Add(p.Amount)
	}

	var schedule []Installment
	for month := start; !month.After(last); month = timeutil.AddMonths(month, 1) {
		key := month.Format(timeutil.MonthLayout)
		due := e.DueDateFor(terms, month)
		paid := paidByMonth[key]

		inst := Installment{
			BillingMonth: key,
			DueDate:      due,
			Expected:     terms.MonthlyRent,
			Paid:         paid,
		}
		switch {
		case paid.Compare(terms.MonthlyRent) >= 0:
			inst.Status = InstallmentPaid
		case asOf.After(due):
			if paid.IsPositive() {
				inst.Status = InstallmentPartial
			} else {
				inst.Status = InstallmentOverdue
			}
		case paid.IsPositive():
			inst.Status = InstallmentPartial
		default:
			inst.Status = InstallmentUnpaid
		}
		schedule = append(schedule, inst)
	}
	return schedule
}
