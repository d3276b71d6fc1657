package portfolio

import (
	"testing"
	"time"

	"property-backend/internal/ledger"
	"property-backend/internal/money"
	"property-backend/internal/timeutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lease(leaseID, propertyID int) ledger.LeaseTerms {
	return ledger.LeaseTerms{
		LeaseID:       leaseID,
		PropertyID:    propertyID,
		TenantID:      leaseID,
		MonthlyRent:   money.MustCents(100000),
		StartDate:     timeutil.Date(2024, time.January, 1),
		EndDate:       timeutil.Date(2024, time.December, 31),
		PaymentDueDay: 1,
		Status:        ledger.LeaseActive,
	}
}

func pay(t *testing.T, leaseID int, cents int64, date time.Time, pt ledger.PaymentType) ledger.PaymentRecord {
	t.Helper()
	p, err := ledger.NewPaymentRecord(leaseID, money.MustCents(cents), date, ledger.MethodCheck, pt, "")
	require.NoError(t, err)
	return p
}

func build(t *testing.T, terms ledger.LeaseTerms, records ...ledger.PaymentRecord) *ledger.LeaseLedger {
	t.Helper()
	l, err := ledger.NewLeaseLedger(terms, records...)
	require.NoError(t, err)
	return l
}

func TestIncomeByMonthBuckets(t *testing.T) {
	l := build(t, lease(1, 10),
		pay(t, 1, 50000, timeutil.Date(2024, time.March, 1), ledger.TypeRent),
		pay(t, 1, 70000, timeutil.Date(2024, time.March, 20), ledger.TypeRent),
		pay(t, 1, 20000, timeutil.Date(2024, time.April, 2), ledger.TypeLateFee),
	)

	got := IncomeByMonth([]*ledger.LeaseLedger{l}, DateRange{}, 0)
	require.Len(t, got, 2)
	assert.Equal(t, MonthlyIncome{Month: "2024-03", TotalIncome: money.MustCents(120000), PaymentCount: 2}, got[0])
	assert.Equal(t, MonthlyIncome{Month: "2024-04", TotalIncome: money.MustCents(20000), PaymentCount: 1}, got[1])
}

func TestIncomeByMonthAcrossYearsAndFilters(t *testing.T) {
	voided := pay(t, 2, 99900, timeutil.Date(2024, time.February, 1), ledger.TypeRent)
	a := build(t, lease(1, 10),
		pay(t, 1, 100, timeutil.Date(2025, time.January, 5), ledger.TypeRent),
		pay(t, 1, 200, timeutil.Date(2024, time.December, 5), ledger.TypeRent),
	)
	b := build(t, lease(2, 20),
		pay(t, 2, 300, timeutil.Date(2024, time.December, 9), ledger.TypeRent),
		voided,
	)
	_, err := b.VoidPayment(voided.ID, "bounced", time.Now())
	require.NoError(t, err)
	ledgers := []*ledger.LeaseLedger{a, b}

	all := IncomeByMonth(ledgers, DateRange{}, 0)
	require.Len(t, all, 2)
	assert.Equal(t, "2024-12", all[0].Month)
	assert.Equal(t, int64(500), all[0].TotalIncome.Cents())
	assert.Equal(t, "2025-01", all[1].Month)

	onlyB := IncomeByMonth(ledgers, DateRange{}, 20)
	require.Len(t, onlyB, 1)
	assert.Equal(t, int64(300), onlyB[0].TotalIncome.Cents())

	ranged := IncomeByMonth(ledgers, DateRange{Start: timeutil.Date(2025, time.January, 1)}, 0)
	require.Len(t, ranged, 1)
	assert.Equal(t, "2025-01", ranged[0].Month)

	assert.Empty(t, IncomeByMonth(nil, DateRange{}, 0))
}

func TestDateRangeInclusive(t *testing.T) {
	r := DateRange{Start: timeutil.Date(2024, time.March, 1), End: timeutil.Date(2024, time.March, 31)}

	assert.True(t, r.Contains(timeutil.Date(2024, time.March, 1)))
	assert.True(t, r.Contains(time.Date(2024, time.March, 31, 23, 59, 0, 0, time.UTC)))
	assert.False(t, r.Contains(timeutil.Date(2024, time.April, 1)))
	assert.False(t, r.Contains(timeutil.Date(2024, time.February, 29)))
	assert.True(t, DateRange{}.Contains(timeutil.Date(1999, time.January, 1)))
}

func TestIncomeByPropertyOrdering(t *testing.T) {
	ledgers := []*ledger.LeaseLedger{
		build(t, lease(1, 30), pay(t, 1, 500, timeutil.Date(2024, time.May, 1), ledger.TypeRent)),
		build(t, lease(2, 10), pay(t, 2, 900, timeutil.Date(2024, time.May, 1), ledger.TypeRent)),
		build(t, lease(3, 20), pay(t, 3, 500, timeutil.Date(2024, time.May, 1), ledger.TypeRent)),
		build(t, lease(4, 10), pay(t, 4, 100, timeutil.Date(2024, time.May, 2), ledger.TypeOther)),
	}

	got := IncomeByProperty(ledgers, DateRange{})
	require.Len(t, got, 3)
	assert.Equal(t, PropertyIncome{PropertyID: 10, TotalIncome: money.MustCents(1000), PaymentCount: 2}, got[0])
	assert.Equal(t, 20, got[1].PropertyID)
	assert.Equal(t, 30, got[2].PropertyID)
}

func TestIncomeByPaymentType(t *testing.T) {
	l := build(t, lease(1, 10),
		pay(t, 1, 100000, timeutil.Date(2024, time.January, 1), ledger.TypeRent),
		pay(t, 1, 5000, timeutil.Date(2024, time.January, 9), ledger.TypeLateFee),
		pay(t, 1, 5000, timeutil.Date(2024, time.January, 9), ledger.TypeOther),
		pay(t, 1, 200000, timeutil.Date(2023, time.December, 20), ledger.TypeSecurityDeposit),
	)

	got := IncomeByPaymentType([]*ledger.LeaseLedger{l}, DateRange{}, 0)
	require.Len(t, got, 4)
	assert.Equal(t, []ledger.PaymentType{
		ledger.TypeSecurityDeposit,
		ledger.TypeRent,
		ledger.TypeLateFee,
		ledger.TypeOther,
	}, []ledger.PaymentType{got[0].Type, got[1].Type, got[2].Type, got[3].Type})

	assert.Empty(t, IncomeByPaymentType([]*ledger.LeaseLedger{l}, DateRange{}, 99))
}

func TestOccupancyRate(t *testing.T) {
	assert.Equal(t, Occupancy{}, OccupancyRate(nil))

	o := OccupancyRate([]Property{{ID: 1, Occupied: true}, {ID: 2}, {ID: 3, Occupied: true}, {ID: 4}})
	assert.Equal(t, 2, o.Occupied)
	assert.Equal(t, 4, o.Total)
	assert.InDelta(t, 50.0, o.RatePercent, 0.0001)
}

func TestMaintenanceCostAverage(t *testing.T) {
	cost := func(cents int64) *money.Money {
		m := money.MustCents(cents)
		return &m
	}
	requests := []MaintenanceRequest{
		{ID: 1, PropertyID: 10, ActualCost: cost(10000), RequestDate: timeutil.Date(2024, time.January, 5)},
		{ID: 2, PropertyID: 10, ActualCost: cost(20001), RequestDate: timeutil.Date(2024, time.February, 5)},
		{ID: 3, PropertyID: 10, ActualCost: nil, RequestDate: timeutil.Date(2024, time.February, 6)},
		{ID: 4, PropertyID: 20, ActualCost: cost(90000), RequestDate: timeutil.Date(2024, time.March, 1)},
	}

	// (10000 + 20001) / 2 = 15000.5, rounded half up
	assert.Equal(t, int64(15001), MaintenanceCostAverage(requests, DateRange{}, 10).Cents())
	assert.Equal(t, int64(40000), MaintenanceCostAverage(requests, DateRange{}, 0).Cents())
	assert.Equal(t, int64(90000), MaintenanceCostAverage(requests, DateRange{Start: timeutil.Date(2024, time.March, 1)}, 0).Cents())
	assert.True(t, MaintenanceCostAverage(requests, DateRange{End: timeutil.Date(2023, time.December, 31)}, 0).IsZero())
	assert.True(t, MaintenanceCostAverage(nil, DateRange{}, 0).IsZero())
}

func TestMarkOccupied(t *testing.T) {
	ended := lease(2, 20)
	ended.Status = ledger.LeaseTerminated

	props := []Property{{ID: 10, Name: "Elm"}, {ID: 20, Name: "Oak"}, {ID: 30, Name: "Ash"}}
	got := MarkOccupied(props, []ledger.LeaseTerms{lease(1, 10), ended}, timeutil.Date(2024, time.June, 1))

	assert.True(t, got[0].Occupied)
	assert.False(t, got[1].Occupied)
	assert.False(t, got[2].Occupied)
	assert.False(t, props[0].Occupied, "input untouched")

	later := MarkOccupied(props, []ledger.LeaseTerms{lease(1, 10)}, timeutil.Date(2025, time.June, 1))
	assert.False(t, later[0].Occupied)
}

func TestSummarize(t *testing.T) {
	ledgers := []*ledger.LeaseLedger{
		build(t, lease(1, 10),
			pay(t, 1, 100000, timeutil.Date(2024, time.January, 1), ledger.TypeRent),
			pay(t, 1, 100000, timeutil.Date(2024, time.February, 1), ledger.TypeRent),
		),
		build(t, lease(2, 20),
			pay(t, 2, 80000, timeutil.Date(2024, time.January, 3), ledger.TypeRent),
		),
	}
	props := []Property{{ID: 10, Occupied: true}, {ID: 20, Occupied: true}, {ID: 30}}

	s := Summarize(SummaryInput{LandlordID: 4, Ledgers: ledgers, Properties: props})
	assert.Equal(t, 4, s.LandlordID)
	assert.Equal(t, int64(280000), s.TotalIncome.Cents())
	assert.Equal(t, 3, s.PaymentCount)
	assert.Len(t, s.ByMonth, 2)
	assert.Len(t, s.ByProperty, 2)
	assert.Equal(t, 2, s.Occupancy.Occupied)
	assert.Equal(t, 3, s.Occupancy.Total)
	assert.True(t, s.MaintenanceAverage.IsZero())

	filtered := Summarize(SummaryInput{LandlordID: 4, PropertyID: 20, Ledgers: ledgers, Properties: props})
	assert.Equal(t, int64(80000), filtered.TotalIncome.Cents())
	require.Len(t, filtered.ByProperty, 1)
	assert.Equal(t, 20, filtered.ByProperty[0].PropertyID)
	assert.Equal(t, Occupancy{Occupied: 1, Total: 1, RatePercent: 100}, filtered.Occupancy)

	empty := Summarize(SummaryInput{LandlordID: 4})
	assert.True(t, empty.TotalIncome.IsZero())
	assert.NotNil(t, empty.ByProperty)
	assert.Equal(t, Occupancy{}, empty.Occupancy)
}
