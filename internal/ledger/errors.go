package ledger

import (
	"errors"

	"property-backend/internal/money"
)

// Error kinds returned by the ledger. All are recoverable; callers match them
// with errors.Is and map them to user-facing messages.
var (
	ErrInvalidAmount    = money.ErrInvalidAmount
	ErrNegativeResult   = money.ErrNegativeResult
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidMethod    = errors.New("invalid payment method")
	ErrInvalidType      = errors.New("invalid payment type")
	ErrInvalidTerms     = errors.New("invalid lease terms")
	ErrLeaseMismatch    = errors.New("payment belongs to a different lease")
	ErrDuplicatePayment = errors.New("payment already recorded")
	ErrNotFound         = errors.New("payment not found")
	ErrAlreadyVoided    = errors.New("payment is already voided")
	ErrNotVoided        = errors.New("payment is not voided")
	ErrMissingReason    = errors.New("void reason is required")
)
