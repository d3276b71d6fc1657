// Package events carries payment lifecycle notifications out of the service
// layer. The ledger itself never publishes; services do after commit.
package events

import (
	"time"

	"property-backend/internal/ledger"
	"property-backend/internal/money"
)

type Kind string

const (
	PaymentRecorded Kind = "payment.recorded"
	PaymentVoided   Kind = "payment.voided"
	PaymentRestored Kind = "payment.restored"
	PaymentDeleted  Kind = "payment.deleted"
)

type PaymentEvent struct {
	Kind        Kind               `json:"kind"`
	PaymentID   string             `json:"payment_id"`
	LeaseID     int                `json:"lease_id"`
	PropertyID  int                `json:"property_id"`
	LandlordID  int                `json:"landlord_id"`
	Amount      money.Money        `json:"amount"`
	PaymentType ledger.PaymentType `json:"payment_type"`
	PaymentDate time.Time          `json:"payment_date"`
	Reason      string             `json:"reason,omitempty"`
	OccurredAt  time.Time          `json:"occurred_at"`
}

// NewPaymentEvent builds an event from the record as it stands after the change
func NewPaymentEvent(kind Kind, p ledger.PaymentRecord, terms ledger.LeaseTerms, landlordID int, at time.Time) PaymentEvent {
	return PaymentEvent{
		Kind:        kind,
		PaymentID:   p.ID,
		LeaseID:     p.LeaseID,
		PropertyID:  terms.PropertyID,
		LandlordID:  landlordID,
		Amount:      p.Amount,
		PaymentType: p.Type,
		PaymentDate: p.PaymentDate,
		Reason:      p.VoidReason,
		OccurredAt:  at,
	}
}
