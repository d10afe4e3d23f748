package refund

import "errors"

var (
	ErrNotFound            = errors.New("payment not found")
	ErrForbidden           = errors.New("actor may not refund this payment")
	ErrNotRefundable       = errors.New("payment has no captured amount to refund")
	ErrInvalidRefundAmount = errors.New("refund amount must be positive and within the remaining captured amount")
	// ErrGateway means the refund was not confirmed; no amount moved and no
	// record was written.
	ErrGateway = errors.New("refund gateway error")
)
