// Package portfolio rolls many lease ledgers up into landlord-level report
// figures: income by month, property and payment type, occupancy and
// maintenance spend.
package portfolio

import (
	"sort"
	"time"

	"property-backend/internal/ledger"
	"property-backend/internal/money"
	"property-backend/internal/timeutil"
)

// DateRange is inclusive on both ends. A zero Start or End leaves that side open.
type DateRange struct {
	Start time.Time `json:"start,omitempty"`
	End   time.Time `json:"end,omitempty"`
}

// Contains reports whether the calendar date of t falls inside the range
func (r DateRange) Contains(t time.Time) bool {
	d := timeutil.DateOf(t)
	if !r.Start.IsZero() && d.Before(timeutil.DateOf(r.Start)) {
		return false
	}
	if !r.End.IsZero() && d.After(timeutil.DateOf(r.End)) {
		return false
	}
	return true
}

type MonthlyIncome struct {
	Month        string      `json:"month"` // 2006-01
	TotalIncome  money.Money `json:"total_income"`
	PaymentCount int         `json:"payment_count"`
}

type PropertyIncome struct {
	PropertyID   int         `json:"property_id"`
	TotalIncome  money.Money `json:"total_income"`
	PaymentCount int         `json:"payment_count"`
}

type TypeIncome struct {
	Type         ledger.PaymentType `json:"payment_type"`
	TotalIncome  money.Money        `json:"total_income"`
	PaymentCount int                `json:"payment_count"`
}

// Property is the slice of a property record occupancy needs
type Property struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Occupied bool   `json:"occupied"`
}

// Occupancy rate is a percentage, not money, so float is fine here
type Occupancy struct {
	Occupied    int     `json:"occupied"`
	Total       int     `json:"total"`
	RatePercent float64 `json:"rate_percent"`
}

type MaintenanceRequest struct {
	ID          int          `json:"id"`
	PropertyID  int          `json:"property_id"`
	ActualCost  *money.Money `json:"actual_cost,omitempty"`
	RequestDate time.Time    `json:"request_date"`
}

// IncomeByMonth groups active payments in the range by calendar month,
// oldest month first. propertyID 0 means every property.
func IncomeByMonth(ledgers []*ledger.LeaseLedger, r DateRange, propertyID int) []MonthlyIncome {
	buckets := make(map[string]*MonthlyIncome)
	eachPayment(ledgers, r, propertyID, func(_ ledger.LeaseTerms, p ledger.PaymentRecord) {
		key := p.PaymentDate.Format(timeutil.MonthLayout)
		b, ok := buckets[key]
		if !ok {
			b = &MonthlyIncome{Month: key}
			buckets[key] = b
		}
		b.TotalIncome = b.TotalIncome.Add(p.Amount)
		b.PaymentCount++
	})

	out := make([]MonthlyIncome, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	// the layout sorts lexically in date order
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// IncomeByProperty sums active payments in the range per property, highest
// income first. Ties go to the lower property ID.
func IncomeByProperty(ledgers []*ledger.LeaseLedger, r DateRange) []PropertyIncome {
	buckets := make(map[int]*PropertyIncome)
	eachPayment(ledgers, r, 0, func(terms ledger.LeaseTerms, p ledger.PaymentRecord) {
		b, ok := buckets[terms.PropertyID]
		if !ok {
			b = &PropertyIncome{PropertyID: terms.PropertyID}
			buckets[terms.PropertyID] = b
		}
		b.TotalIncome = b.TotalIncome.Add(p.Amount)
		b.PaymentCount++
	})

	out := make([]PropertyIncome, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].TotalIncome.Compare(out[j].TotalIncome); c != 0 {
			return c > 0
		}
		return out[i].PropertyID < out[j].PropertyID
	})
	return out
}

// IncomeByPaymentType sums active payments in the range per payment type,
// highest income first. Ties follow ledger.PaymentTypes order.
func IncomeByPaymentType(ledgers []*ledger.LeaseLedger, r DateRange, propertyID int) []TypeIncome {
	buckets := make(map[ledger.PaymentType]*TypeIncome)
	eachPayment(ledgers, r, propertyID, func(_ ledger.LeaseTerms, p ledger.PaymentRecord) {
		b, ok := buckets[p.Type]
		if !ok {
			b = &TypeIncome{Type: p.Type}
			buckets[p.Type] = b
		}
		b.TotalIncome = b.TotalIncome.Add(p.Amount)
		b.PaymentCount++
	})

	out := make([]TypeIncome, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].TotalIncome.Compare(out[j].TotalIncome); c != 0 {
			return c > 0
		}
		return typeRank(out[i].Type) < typeRank(out[j].Type)
	})
	return out
}

// OccupancyRate is 0 for an empty portfolio
func OccupancyRate(properties []Property) Occupancy {
	o := Occupancy{Total: len(properties)}
	for _, p := range properties {
		if p.Occupied {
			o.Occupied++
		}
	}
	if o.Total > 0 {
		o.RatePercent = float64(o.Occupied) * 100 / float64(o.Total)
	}
	return o
}

// MaintenanceCostAverage averages the actual cost of requests in the range
// that have one. Requests without a cost are skipped, not counted as zero.
func MaintenanceCostAverage(requests []MaintenanceRequest, r DateRange, propertyID int) money.Money {
	total := money.Zero
	n := 0
	for _, req := range requests {
		if req.ActualCost == nil {
			continue
		}
		if propertyID != 0 && req.PropertyID != propertyID {
			continue
		}
		if !r.Contains(req.RequestDate) {
			continue
		}
		total = total.Add(*req.ActualCost)
		n++
	}
	if n == 0 {
		return money.Zero
	}
	return total.DivRound(n)
}

// MarkOccupied flags every property that has an active lease covering asOf
func MarkOccupied(properties []Property, leases []ledger.LeaseTerms, asOf time.Time) []Property {
	occupied := make(map[int]bool)
	for _, l := range leases {
		if l.Status == ledger.LeaseActive && l.Covers(asOf) {
			occupied[l.PropertyID] = true
		}
	}

	out := make([]Property, len(properties))
	for i, p := range properties {
		p.Occupied = occupied[p.ID]
		out[i] = p
	}
	return out
}

func eachPayment(ledgers []*ledger.LeaseLedger, r DateRange, propertyID int, fn func(ledger.LeaseTerms, ledger.PaymentRecord)) {
	for _, l := range ledgers {
		terms := l.Terms()
		if propertyID != 0 && terms.PropertyID != propertyID {
			continue
		}
		for _, p := range l.Payments() {
			if !p.IsActive() || !r.Contains(p.PaymentDate) {
				continue
			}
			fn(terms, p)
		}
	}
}

func typeRank(t ledger.PaymentType) int {
	for i, candidate := range ledger.PaymentTypes {
		if candidate == t {
			return i
		}
	}
	return len(ledger.PaymentTypes)
}
