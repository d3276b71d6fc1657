package services

import (
	"context"
	"log"
	"strings"
	"time"

	"property-backend/internal/cache"
	"property-backend/internal/events"
	"property-backend/internal/ledger"
	"property-backend/internal/metrics"
	"property-backend/internal/money"
)

// NewPayment is an already parsed record payment request
type NewPayment struct {
	Amount      money.Money
	PaymentDate time.Time
	Method      ledger.PaymentMethod
	Type        ledger.PaymentType
	Notes       string
}

// PaymentService runs each ledger mutation as one locked load, mutate, save
// cycle, then tells the outside world: metrics, report cache, events.
type PaymentService struct {
	Store  LedgerStore
	Events events.Publisher
	Now    Clock

	// Invalidate drops cached reports of a landlord
	Invalidate func(ctx context.Context, landlordID int)
}

func NewPaymentService(store LedgerStore, publisher events.Publisher) *PaymentService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &PaymentService{
		Store:      store,
		Events:     publisher,
		Invalidate: cache.InvalidateLandlordReports,
	}
}

func (s *PaymentService) RecordPayment(ctx context.Context, landlordID, leaseID int, in NewPayment) (ledger.PaymentRecord, error) {
	record, terms, err := s.Store.UpdateLedger(ctx, landlordID, leaseID, func(l *ledger.LeaseLedger) (ledger.PaymentRecord, error) {
		p, err := ledger.NewPaymentRecord(leaseID, in.Amount, in.PaymentDate, in.Method, in.Type, in.Notes)
		if err != nil {
			return ledger.PaymentRecord{}, err
		}
		if err := l.RecordPayment(p); err != nil {
			return ledger.PaymentRecord{}, err
		}
		return p, nil
	})
	if err != nil {
		return ledger.PaymentRecord{}, err
	}

	metrics.PaymentAmountCents.WithLabelValues(string(record.Type)).Add(float64(record.Amount.Cents()))
	log.Printf("[Payments] Recorded %s %s on lease %d (%s)", record.Type, record.Amount, leaseID, record.ID)
	s.after(ctx, events.PaymentRecorded, record, terms, landlordID)
	return record, nil
}

// PaymentHistory lists all payments of a lease, voided ones included, newest first
func (s *PaymentService) PaymentHistory(ctx context.Context, landlordID, leaseID int) ([]ledger.PaymentRecord, error) {
	l, err := s.Store.LoadLedger(ctx, landlordID, leaseID)
	if err != nil {
		return nil, err
	}
	return l.PaymentHistory(), nil
}

func (s *PaymentService) GetPayment(ctx context.Context, landlordID int, paymentID string) (ledger.PaymentRecord, error) {
	leaseID, err := s.Store.LeaseIDForPayment(ctx, landlordID, paymentID)
	if err != nil {
		return ledger.PaymentRecord{}, err
	}
	l, err := s.Store.LoadLedger(ctx, landlordID, leaseID)
	if err != nil {
		return ledger.PaymentRecord{}, err
	}
	return l.Payment(paymentID)
}

func (s *PaymentService) VoidPayment(ctx context.Context, landlordID int, paymentID, reason string) (ledger.PaymentRecord, error) {
	// reject before taking the lock
	if strings.TrimSpace(reason) == "" {
		return ledger.PaymentRecord{}, ledger.ErrMissingReason
	}
	leaseID, err := s.Store.LeaseIDForPayment(ctx, landlordID, paymentID)
	if err != nil {
		return ledger.PaymentRecord{}, err
	}

	at := defaultClock(s.Now)()
	record, terms, err := s.Store.UpdateLedger(ctx, landlordID, leaseID, func(l *ledger.LeaseLedger) (ledger.PaymentRecord, error) {
		return l.VoidPayment(paymentID, reason, at)
	})
	if err != nil {
		return ledger.PaymentRecord{}, err
	}

	log.Printf("[Payments] Voided %s on lease %d: %s", paymentID, leaseID, record.VoidReason)
	s.after(ctx, events.PaymentVoided, record, terms, landlordID)
	return record, nil
}

func (s *PaymentService) RestorePayment(ctx context.Context, landlordID int, paymentID string) (ledger.PaymentRecord, error) {
	leaseID, err := s.Store.LeaseIDForPayment(ctx, landlordID, paymentID)
	if err != nil {
		return ledger.PaymentRecord{}, err
	}

	record, terms, err := s.Store.UpdateLedger(ctx, landlordID, leaseID, func(l *ledger.LeaseLedger) (ledger.PaymentRecord, error) {
		return l.RestorePayment(paymentID)
	})
	if err != nil {
		return ledger.PaymentRecord{}, err
	}

	log.Printf("[Payments] Restored %s on lease %d", paymentID, leaseID)
	s.after(ctx, events.PaymentRestored, record, terms, landlordID)
	return record, nil
}

// DeletePayment removes the row for good. Prefer VoidPayment; this exists
// for records entered against the wrong landlord or lease.
func (s *PaymentService) DeletePayment(ctx context.Context, landlordID int, paymentID string) error {
	record, terms, err := s.Store.DeletePayment(ctx, landlordID, paymentID)
	if err != nil {
		return err
	}

	log.Printf("[Payments] Deleted %s from lease %d", paymentID, record.LeaseID)
	s.after(ctx, events.PaymentDeleted, record, terms, landlordID)
	return nil
}

// after runs once the change is committed. Failures here are logged and
// never undo the payment change.
func (s *PaymentService) after(ctx context.Context, kind events.Kind, record ledger.PaymentRecord, terms ledger.LeaseTerms, landlordID int) {
	metrics.PaymentEvents.WithLabelValues(string(kind)).Inc()

	// the request may already be finished; keep values, drop cancellation
	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if s.Invalidate != nil {
		s.Invalidate(bg, landlordID)
	}

	event := events.NewPaymentEvent(kind, record, terms, landlordID, defaultClock(s.Now)())
	if err := s.Events.Publish(bg, event); err != nil {
		log.Printf("[Payments] publish %s for %s: %v", kind, record.ID, err)
	}
}
