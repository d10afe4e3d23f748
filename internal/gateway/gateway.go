package gateway

import (
	"context"
	"errors"
)

// ErrUnavailable wraps timeouts, 5xx responses and network failures. Callers
// treat it as retryable: a charge that timed out stays in processing until
// the webhook reconciles it, and a refund that failed changes nothing.
var ErrUnavailable = errors.New("payment gateway unavailable")

type ChargeRequest struct {
	// Reference is the transaction id recorded before the call; the gateway
	// echoes it back in the webhook.
	Reference   string
	AmountMinor int64
	Currency    string
	Description string
}

type ChargeResult struct {
	Reference string
	Accepted  bool
}

type RefundRequest struct {
	// TransactionID identifies the captured charge at the gateway.
	TransactionID string
	// Reference identifies this refund attempt.
	Reference   string
	AmountMinor int64
	Currency    string
}

type RefundResult struct {
	Reference string
	Confirmed bool
	Detail    string
}

// Adapter is the narrow seam to the external payment gateway. Both calls
// cross a network boundary: implementations must honour ctx deadlines and
// report any transport-level failure as ErrUnavailable.
type Adapter interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	Refund(ctx context.Context, req RefundRequest) (*RefundResult, error)
}
