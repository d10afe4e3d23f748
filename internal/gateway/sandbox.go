package gateway

import (
	"context"
	"strings"
	"sync"
)

// Sandbox is an in-process adapter for local development and tests. Charges
// are accepted and remembered; refunds are confirmed against the remembered
// charge. References containing "fail" simulate a declined charge and ones
// containing "down" simulate an unreachable gateway.
type Sandbox struct {
	mu      sync.Mutex
	charges map[string]int64 // reference -> amount
}

func NewSandbox() *Sandbox {
	return &Sandbox{charges: make(map[string]int64)}
}

func (s *Sandbox) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, ErrUnavailable
	}
	if strings.Contains(req.Reference, "down") {
		return nil, ErrUnavailable
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.Contains(req.Reference, "fail") {
		return &ChargeResult{Reference: req.Reference, Accepted: false}, nil
	}
	s.charges[req.Reference] = req.AmountMinor
	return &ChargeResult{Reference: req.Reference, Accepted: true}, nil
}

func (s *Sandbox) Refund(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, ErrUnavailable
	}
	if strings.Contains(req.Reference, "down") {
		return nil, ErrUnavailable
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.charges[req.TransactionID]; !ok {
		return &RefundResult{Reference: req.Reference, Confirmed: false, Detail: "unknown charge"}, nil
	}
	return &RefundResult{Reference: req.Reference, Confirmed: true}, nil
}
