package models

import (
	"time"

	"property-backend/internal/ledger"
	"property-backend/internal/money"
	"property-backend/internal/reconciliation"
)

// RecordPaymentRequest carries raw form values. Amount is a string so "1,250.00"
// and "$1250" both parse; the handler turns it into typed values.
type RecordPaymentRequest struct {
	Amount        string `json:"amount"`
	PaymentDate   string `json:"payment_date"`
	PaymentMethod string `json:"payment_method"`
	PaymentType   string `json:"payment_type"`
	Notes         string `json:"notes"`
}

type VoidPaymentRequest struct {
	Reason string `json:"reason"`
}

// LeaseDetails is the lease page read model
type LeaseDetails struct {
	Lease            ledger.LeaseTerms            `json:"lease"`
	TotalRentPaid    money.Money                  `json:"total_rent_paid"`
	TotalPaid        money.Money                  `json:"total_paid"`
	TotalDue         money.Money                  `json:"total_due"`
	Balance          money.Money                  `json:"balance"`
	ReliabilityScore int                          `json:"reliability_score"`
	HasRentPayments  bool                         `json:"has_rent_payments"`
	NextDueDate      time.Time                    `json:"next_due_date"`
	Payments         []ledger.PaymentRecord       `json:"payments"`
	Reconciliation   []reconciliation.Result      `json:"reconciliation"`
	Schedule         []reconciliation.Installment `json:"schedule"`
}

type TenantReliability struct {
	TenantID    int                        `json:"tenant_id"`
	LeaseCount  int                        `json:"lease_count"`
	Reliability reconciliation.Reliability `json:"reliability"`
}
