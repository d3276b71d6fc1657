package services

import (
	"context"

	"property-backend/internal/ledger"
	"property-backend/internal/models"
	"property-backend/internal/reconciliation"
	"property-backend/internal/timeutil"
)

type LeaseService struct {
	Store  LedgerStore
	Engine *reconciliation.Engine
	Now    Clock
}

func NewLeaseService(store LedgerStore) *LeaseService {
	return &LeaseService{Store: store, Engine: reconciliation.NewEngine()}
}

// LeaseDetails builds the lease page: totals, balance, reliability, the next
// due date, each rent payment's classification and the month by month schedule
func (s *LeaseService) LeaseDetails(ctx context.Context, landlordID, leaseID int) (*models.LeaseDetails, error) {
	l, err := s.Store.LoadLedger(ctx, landlordID, leaseID)
	if err != nil {
		return nil, err
	}
	return s.details(l), nil
}

func (s *LeaseService) details(l *ledger.LeaseLedger) *models.LeaseDetails {
	today := timeutil.DateOf(defaultClock(s.Now)())
	terms := l.Terms()
	reliability := s.Engine.TenantReliability(l)

	return &models.LeaseDetails{
		Lease:            terms,
		TotalRentPaid:    l.TotalRentPaid(),
		TotalPaid:        l.TotalPaid(),
		TotalDue:         l.TotalDue(),
		Balance:          l.Balance(),
		ReliabilityScore: reliability.Score,
		HasRentPayments:  reliability.HasPayments(),
		NextDueDate:      s.Engine.NextPaymentDueDate(terms, today),
		Payments:         l.PaymentHistory(),
		Reconciliation:   s.Engine.Reconcile(l),
		Schedule:         s.Engine.Schedule(l, today),
	}
}

type TenantService struct {
	Store  LedgerStore
	Engine *reconciliation.Engine
}

func NewTenantService(store LedgerStore) *TenantService {
	return &TenantService{Store: store, Engine: reconciliation.NewEngine()}
}

// Reliability scores a tenant across every lease they hold with the landlord
func (s *TenantService) Reliability(ctx context.Context, landlordID, tenantID int) (*models.TenantReliability, error) {
	ledgers, err := s.Store.LedgersForTenant(ctx, landlordID, tenantID)
	if err != nil {
		return nil, err
	}
	if len(ledgers) == 0 {
		return nil, ledger.ErrNotFound
	}

	return &models.TenantReliability{
		TenantID:    tenantID,
		LeaseCount:  len(ledgers),
		Reliability: s.Engine.TenantReliability(ledgers...),
	}, nil
}
