package refund

import (
	"context"

	"lessonbook/internal/domain"
)

type PaymentStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Payment, error)
	AppendRefund(ctx context.Context, paymentID int64, rec *domain.RefundRecord) (*domain.Payment, error)
	ListRefunds(ctx context.Context, paymentID int64) ([]domain.RefundRecord, error)
}

type EventEmitter interface {
	Emit(ctx context.Context, ev domain.Event) error
}
