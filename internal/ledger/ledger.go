package ledger

import (
	"sort"
	"time"

	"property-backend/internal/money"
)

// LeaseLedger holds every payment recorded against one lease, kept in
// ascending payment date order with ties broken by insertion order.
//
// A ledger is not safe for concurrent mutation. Callers load one per request,
// mutate it, persist the change and throw it away.
type LeaseLedger struct {
	terms   LeaseTerms
	entries []PaymentRecord
}

// NewLeaseLedger builds a ledger for the lease and appends the given records
// in order. It fails if any record belongs to another lease or repeats an ID.
func NewLeaseLedger(terms LeaseTerms, records ...PaymentRecord) (*LeaseLedger, error) {
	l := &LeaseLedger{terms: terms}
	for _, r := range records {
		if err := l.RecordPayment(r); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Terms returns the lease terms the ledger was built for
func (l *LeaseLedger) Terms() LeaseTerms { return l.terms }

// LeaseID is shorthand for Terms().LeaseID
func (l *LeaseLedger) LeaseID() int { return l.terms.LeaseID }

// Len returns the number of records, voided ones included
func (l *LeaseLedger) Len() int { return len(l.entries) }

// RecordPayment appends a record to the ledger
func (l *LeaseLedger) RecordPayment(record PaymentRecord) error {
	if record.LeaseID != l.terms.LeaseID {
		return ErrLeaseMismatch
	}
	if l.indexOf(record.ID) >= 0 {
		return ErrDuplicatePayment
	}
	if err := record.Validate(); err != nil {
		return err
	}

	// insert after every record with the same or an earlier date
	i := sort.Search(len(l.entries), func(i int) bool {
		return l.entries[i].PaymentDate.After(record.PaymentDate)
	})
	l.entries = append(l.entries, PaymentRecord{})
	copy(l.entries[i+1:], l.entries[i:])
	l.entries[i] = record
	return nil
}

// VoidPayment marks the payment voided and returns the updated record
func (l *LeaseLedger) VoidPayment(paymentID, reason string, at time.Time) (PaymentRecord, error) {
	i := l.indexOf(paymentID)
	if i < 0 {
		return PaymentRecord{}, ErrNotFound
	}
	voided, err := l.entries[i].Void(reason, at)
	if err != nil {
		return PaymentRecord{}, err
	}
	l.entries[i] = voided
	return voided, nil
}

// RestorePayment reverses a void and returns the updated record
func (l *LeaseLedger) RestorePayment(paymentID string) (PaymentRecord, error) {
	i := l.indexOf(paymentID)
	if i < 0 {
		return PaymentRecord{}, ErrNotFound
	}
	restored, err := l.entries[i].Restore()
	if err != nil {
		return PaymentRecord{}, err
	}
	l.entries[i] = restored
	return restored, nil
}

// Payment looks up a single record by ID
func (l *LeaseLedger) Payment(paymentID string) (PaymentRecord, error) {
	i := l.indexOf(paymentID)
	if i < 0 {
		return PaymentRecord{}, ErrNotFound
	}
	return l.entries[i], nil
}

// TotalPaid sums active records. With no types given every active record
// counts; otherwise only records of the listed types.
func (l *LeaseLedger) TotalPaid(types ...PaymentType) money.Money {
	total := money.Zero
	for _, e := range l.entries {
		if !e.IsActive() {
			continue
		}
		if len(types) > 0 && !containsType(types, e.Type) {
			continue
		}
		total = total.Add(e.Amount)
	}
	return total
}

// TotalRentPaid sums active rent payments
func (l *LeaseLedger) TotalRentPaid() money.Money {
	return l.TotalPaid(TypeRent)
}

// TotalDue is monthly rent times the lease duration in months
func (l *LeaseLedger) TotalDue() money.Money {
	return l.terms.MonthlyRent.MulInt(l.terms.DurationMonths())
}

// Balance is TotalDue minus rent paid. Negative means the tenant has
// paid ahead.
func (l *LeaseLedger) Balance() money.Money {
	return l.TotalDue().SignedSub(l.TotalRentPaid())
}

// Payments returns all records in ascending date order
func (l *LeaseLedger) Payments() []PaymentRecord {
	out := make([]PaymentRecord, len(l.entries))
	copy(out, l.entries)
	return out
}

// ActivePayments returns active records of the given type in ascending date order
func (l *LeaseLedger) ActivePayments(t PaymentType) []PaymentRecord {
	var out []PaymentRecord
	for _, e := range l.entries {
		if e.IsActive() && e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// PaymentHistory returns every record, voided ones included, newest payment
// date first. Records sharing a date keep newest-inserted first.
func (l *LeaseLedger) PaymentHistory() []PaymentRecord {
	out := make([]PaymentRecord, len(l.entries))
	for i, e := range l.entries {
		out[len(l.entries)-1-i] = e
	}
	return out
}

func (l *LeaseLedger) indexOf(paymentID string) int {
	for i, e := range l.entries {
		if e.ID == paymentID {
			return i
		}
	}
	return -1
}

func containsType(types []PaymentType, t PaymentType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}
