package payment

import "errors"

var (
	ErrNotFound            = errors.New("payment not found")
	ErrForbidden           = errors.New("actor may not act on this payment")
	ErrValidation          = errors.New("validation error")
	ErrBookingNotPayable   = errors.New("booking is not in a payable state")
	ErrActivePaymentExists = errors.New("booking already has an open payment")
	ErrAlreadySettled      = errors.New("booking already has a settled payment")
	ErrInvalidState        = errors.New("payment is not in a valid state for this action")
	ErrUnknownTransaction  = errors.New("unknown transaction id")
	ErrBadSignature        = errors.New("webhook signature mismatch")
	// ErrGateway means the gateway could not be reached; nothing was settled
	// and the attempt is safe to retry or to leave for webhook reconciliation.
	ErrGateway = errors.New("payment gateway error")
)
