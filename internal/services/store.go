package services

import (
	"context"
	"time"

	"property-backend/internal/ledger"
	"property-backend/internal/models"
	"property-backend/internal/portfolio"
	"property-backend/internal/timeutil"
)

// LedgerStore is implemented by repositories.LedgerRepository
type LedgerStore interface {
	LoadLedger(ctx context.Context, landlordID, leaseID int) (*ledger.LeaseLedger, error)
	UpdateLedger(ctx context.Context, landlordID, leaseID int, fn func(*ledger.LeaseLedger) (ledger.PaymentRecord, error)) (ledger.PaymentRecord, ledger.LeaseTerms, error)
	LeaseIDForPayment(ctx context.Context, landlordID int, paymentID string) (int, error)
	DeletePayment(ctx context.Context, landlordID int, paymentID string) (ledger.PaymentRecord, ledger.LeaseTerms, error)
	LedgersForLandlord(ctx context.Context, landlordID, propertyID int) ([]*ledger.LeaseLedger, error)
	LedgersForTenant(ctx context.Context, landlordID, tenantID int) ([]*ledger.LeaseLedger, error)
	LeasesForLandlord(ctx context.Context, landlordID int) ([]ledger.LeaseTerms, error)
}

type PropertyLister interface {
	ListByLandlord(ctx context.Context, landlordID int) ([]portfolio.Property, error)
}

type MaintenanceLister interface {
	ListByLandlord(ctx context.Context, landlordID int) ([]portfolio.MaintenanceRequest, error)
}

type LandlordFinder interface {
	GetByEmail(ctx context.Context, email string) (*models.Landlord, error)
}

// Clock is swapped in tests
type Clock func() time.Time

func defaultClock(c Clock) Clock {
	if c == nil {
		return timeutil.Now
	}
	return c
}
