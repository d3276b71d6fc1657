package ledger

import (
	"strings"
	"time"

	"property-backend/internal/money"
	"property-backend/internal/timeutil"

	"github.com/google/uuid"
)

// PaymentMethod is how the tenant paid
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "cash"
	MethodCheck        PaymentMethod = "check"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCreditCard   PaymentMethod = "credit_card"
	MethodOther        PaymentMethod = "other"
)

// PaymentType is what the payment was for
type PaymentType string

const (
	TypeRent            PaymentType = "rent"
	TypeSecurityDeposit PaymentType = "security_deposit"
	TypeLateFee         PaymentType = "late_fee"
	TypeOther           PaymentType = "other"
)

// PaymentTypes lists every type in display order
var PaymentTypes = []PaymentType{TypeRent, TypeSecurityDeposit, TypeLateFee, TypeOther}

// PaymentStatus is the lifecycle state of a record
type PaymentStatus string

const (
	StatusActive PaymentStatus = "active"
	StatusVoided PaymentStatus = "voided"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodCheck, MethodBankTransfer, MethodCreditCard, MethodOther:
		return true
	}
	return false
}

func (t PaymentType) Valid() bool {
	switch t {
	case TypeRent, TypeSecurityDeposit, TypeLateFee, TypeOther:
		return true
	}
	return false
}

// ParseMethod reads a form value such as "bank_transfer"
func ParseMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", ErrInvalidMethod
	}
	return m, nil
}

// ParseType reads a form value such as "late_fee"
func ParseType(s string) (PaymentType, error) {
	t := PaymentType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", ErrInvalidType
	}
	return t, nil
}

// PaymentRecord is a single payment or charge against a lease. Voiding keeps
// the record for the audit trail; only the storage layer ever deletes one.
type PaymentRecord struct {
	ID          string        `json:"id"`
	LeaseID     int           `json:"lease_id"`
	Amount      money.Money   `json:"amount"`
	PaymentDate time.Time     `json:"payment_date"`
	Method      PaymentMethod `json:"payment_method"`
	Type        PaymentType   `json:"payment_type"`
	Notes       string        `json:"notes,omitempty"`
	Status      PaymentStatus `json:"status"`
	VoidReason  string        `json:"void_reason,omitempty"`
	VoidedAt    *time.Time    `json:"voided_at,omitempty"`
}

// NewPaymentRecord validates the inputs and returns an active record with a
// fresh ID. Nothing is persisted.
func NewPaymentRecord(leaseID int, amount money.Money, paymentDate time.Time, method PaymentMethod, paymentType PaymentType, notes string) (PaymentRecord, error) {
	if !amount.IsPositive() {
		return PaymentRecord{}, ErrInvalidAmount
	}
	if paymentDate.IsZero() {
		return PaymentRecord{}, ErrInvalidDate
	}
	if !method.Valid() {
		return PaymentRecord{}, ErrInvalidMethod
	}
	if !paymentType.Valid() {
		return PaymentRecord{}, ErrInvalidType
	}

	return PaymentRecord{
		ID:          uuid.NewString(),
		LeaseID:     leaseID,
		Amount:      amount,
		PaymentDate: timeutil.DateOf(paymentDate),
		Method:      method,
		Type:        paymentType,
		Notes:       strings.TrimSpace(notes),
		Status:      StatusActive,
	}, nil
}

func (p PaymentRecord) IsActive() bool { return p.Status == StatusActive }
func (p PaymentRecord) IsVoided() bool { return p.Status == StatusVoided }

// Void returns a copy of p marked voided at the given time
func (p PaymentRecord) Void(reason string, at time.Time) (PaymentRecord, error) {
	if p.IsVoided() {
		return p, ErrAlreadyVoided
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return p, ErrMissingReason
	}

	voidedAt := at
	p.Status = StatusVoided
	p.VoidReason = reason
	p.VoidedAt = &voidedAt
	return p, nil
}

// Restore returns a copy of p back in active status with the void fields cleared
func (p PaymentRecord) Restore() (PaymentRecord, error) {
	if !p.IsVoided() {
		return p, ErrNotVoided
	}
	p.Status = StatusActive
	p.VoidReason = ""
	p.VoidedAt = nil
	return p, nil
}

// Validate checks the invariants of a record loaded from storage
func (p PaymentRecord) Validate() error {
	if !p.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if p.PaymentDate.IsZero() {
		return ErrInvalidDate
	}
	if !p.Method.Valid() {
		return ErrInvalidMethod
	}
	if !p.Type.Valid() {
		return ErrInvalidType
	}
	if p.IsVoided() && strings.TrimSpace(p.VoidReason) == "" {
		return ErrMissingReason
	}
	return nil
}
