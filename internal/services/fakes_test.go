package services

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"property-backend/internal/events"
	"property-backend/internal/ledger"
	"property-backend/internal/money"
	"property-backend/internal/portfolio"
	"property-backend/internal/timeutil"

	"github.com/stretchr/testify/require"
)

// memStore keeps ledgers in memory. UpdateLedger works on a copy so a failed
// mutation leaves the stored ledger untouched, like a rolled back transaction.
type memStore struct {
	mu      sync.Mutex
	owners  map[int]int // lease -> landlord
	ledgers map[int]*ledger.LeaseLedger
}

func newMemStore() *memStore {
	return &memStore{owners: map[int]int{}, ledgers: map[int]*ledger.LeaseLedger{}}
}

func (m *memStore) add(t *testing.T, landlordID int, terms ledger.LeaseTerms, records ...ledger.PaymentRecord) {
	t.Helper()
	l, err := ledger.NewLeaseLedger(terms, records...)
	require.NoError(t, err)
	m.owners[terms.LeaseID] = landlordID
	m.ledgers[terms.LeaseID] = l
}

func (m *memStore) get(landlordID, leaseID int) (*ledger.LeaseLedger, error) {
	l, ok := m.ledgers[leaseID]
	if !ok || m.owners[leaseID] != landlordID {
		return nil, ledger.ErrNotFound
	}
	return l, nil
}

func clone(l *ledger.LeaseLedger) *ledger.LeaseLedger {
	c, _ := ledger.NewLeaseLedger(l.Terms(), l.Payments()...)
	return c
}

func (m *memStore) LoadLedger(_ context.Context, landlordID, leaseID int) (*ledger.LeaseLedger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, err := m.get(landlordID, leaseID)
	if err != nil {
		return nil, err
	}
	return clone(l), nil
}

func (m *memStore) UpdateLedger(_ context.Context, landlordID, leaseID int, fn func(*ledger.LeaseLedger) (ledger.PaymentRecord, error)) (ledger.PaymentRecord, ledger.LeaseTerms, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, err := m.get(landlordID, leaseID)
	if err != nil {
		return ledger.PaymentRecord{}, ledger.LeaseTerms{}, err
	}
	work := clone(l)
	record, err := fn(work)
	if err != nil {
		return ledger.PaymentRecord{}, ledger.LeaseTerms{}, err
	}
	m.ledgers[leaseID] = work
	return record, work.Terms(), nil
}

func (m *memStore) LeaseIDForPayment(_ context.Context, landlordID int, paymentID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for leaseID, l := range m.ledgers {
		if m.owners[leaseID] != landlordID {
			continue
		}
		if _, err := l.Payment(paymentID); err == nil {
			return leaseID, nil
		}
	}
	return 0, ledger.ErrNotFound
}

func (m *memStore) DeletePayment(ctx context.Context, landlordID int, paymentID string) (ledger.PaymentRecord, ledger.LeaseTerms, error) {
	leaseID, err := m.LeaseIDForPayment(ctx, landlordID, paymentID)
	if err != nil {
		return ledger.PaymentRecord{}, ledger.LeaseTerms{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	l := m.ledgers[leaseID]
	removed, _ := l.Payment(paymentID)
	var keep []ledger.PaymentRecord
	for _, p := range l.Payments() {
		if p.ID != paymentID {
			keep = append(keep, p)
		}
	}
	rebuilt, err := ledger.NewLeaseLedger(l.Terms(), keep...)
	if err != nil {
		return ledger.PaymentRecord{}, ledger.LeaseTerms{}, err
	}
	m.ledgers[leaseID] = rebuilt
	return removed, rebuilt.Terms(), nil
}

func (m *memStore) filter(landlordID int, keep func(ledger.LeaseTerms) bool) []*ledger.LeaseLedger {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*ledger.LeaseLedger
	for leaseID, l := range m.ledgers {
		if m.owners[leaseID] == landlordID && keep(l.Terms()) {
			out = append(out, clone(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LeaseID() < out[j].LeaseID() })
	return out
}

func (m *memStore) LedgersForLandlord(_ context.Context, landlordID, propertyID int) ([]*ledger.LeaseLedger, error) {
	return m.filter(landlordID, func(t ledger.LeaseTerms) bool {
		return propertyID == 0 || t.PropertyID == propertyID
	}), nil
}

func (m *memStore) LedgersForTenant(_ context.Context, landlordID, tenantID int) ([]*ledger.LeaseLedger, error) {
	return m.filter(landlordID, func(t ledger.LeaseTerms) bool { return t.TenantID == tenantID }), nil
}

func (m *memStore) LeasesForLandlord(_ context.Context, landlordID int) ([]ledger.LeaseTerms, error) {
	var out []ledger.LeaseTerms
	for _, l := range m.filter(landlordID, func(ledger.LeaseTerms) bool { return true }) {
		out = append(out, l.Terms())
	}
	return out, nil
}

type recorder struct {
	mu     sync.Mutex
	events []events.PaymentEvent
}

func (r *recorder) Publish(_ context.Context, e events.PaymentEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) kinds() []events.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Kind
	for _, e := range r.events {
		out = append(out, e.Kind)
	}
	return out
}

type propertyList []portfolio.Property

func (p propertyList) ListByLandlord(context.Context, int) ([]portfolio.Property, error) {
	return p, nil
}

type maintenanceList []portfolio.MaintenanceRequest

func (m maintenanceList) ListByLandlord(context.Context, int) ([]portfolio.MaintenanceRequest, error) {
	return m, nil
}

func fixedClock(year int, month time.Month, day int) Clock {
	t := time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return t }
}

// lease of $1,000.00 a month for 2024, due on the 1st
func testTerms(leaseID, propertyID, tenantID int) ledger.LeaseTerms {
	return ledger.LeaseTerms{
		LeaseID:       leaseID,
		PropertyID:    propertyID,
		TenantID:      tenantID,
		MonthlyRent:   money.MustCents(100000),
		StartDate:     timeutil.Date(2024, time.January, 1),
		EndDate:       timeutil.Date(2024, time.December, 31),
		PaymentDueDay: 1,
		Status:        ledger.LeaseActive,
	}
}

func rent(t *testing.T, leaseID int, cents int64, date time.Time) ledger.PaymentRecord {
	t.Helper()
	p, err := ledger.NewPaymentRecord(leaseID, money.MustCents(cents), date, ledger.MethodBankTransfer, ledger.TypeRent, "")
	require.NoError(t, err)
	return p
}

func payment(t *testing.T, leaseID int, cents int64, date time.Time, typ ledger.PaymentType) ledger.PaymentRecord {
	t.Helper()
	p, err := ledger.NewPaymentRecord(leaseID, money.MustCents(cents), date, ledger.MethodCash, typ, "")
	require.NoError(t, err)
	return p
}
