package booking

import (
	"context"

	"lessonbook/internal/domain"
)

// DeferRefundPolicy is the default: cancelling a paid booking leaves the
// captured payment untouched and the refund is a separate explicit call.
// Money never moves as a side effect of a scheduling action.
type DeferRefundPolicy struct{}

func (DeferRefundPolicy) OnCancel(ctx context.Context, actor domain.Actor, b *domain.Booking, settled *domain.Payment, reason string) error {
	return nil
}

// RefundExecutor is what AutoRefundPolicy needs from the refund processor.
type RefundExecutor interface {
	Refund(ctx context.Context, actor domain.Actor, paymentID int64, amountMinor *int64, reason string) (*domain.RefundRecord, *domain.Payment, error)
}

// AutoRefundPolicy refunds the full remaining amount when a paid booking is
// cancelled. A gateway failure surfaces to the caller for retry; the
// cancellation itself (status + released slots) has already committed.
type AutoRefundPolicy struct {
	Refunds RefundExecutor
}

func (p AutoRefundPolicy) OnCancel(ctx context.Context, actor domain.Actor, b *domain.Booking, settled *domain.Payment, reason string) error {
	if settled == nil || settled.Status != domain.PaymentCompleted {
		return nil
	}
	_, _, err := p.Refunds.Refund(ctx, actor, settled.ID, nil, "booking cancelled: "+reason)
	return err
}
