package payment

import (
	"context"

	"lessonbook/internal/domain"
)

type PaymentStore interface {
	Create(ctx context.Context, p *domain.Payment) error
	GetByID(ctx context.Context, id int64) (*domain.Payment, error)
	GetActiveForBooking(ctx context.Context, bookingID int64) (*domain.Payment, error)
	GetSettledForBooking(ctx context.Context, bookingID int64) (*domain.Payment, error)
	MarkProcessing(ctx context.Context, id int64, txID, gateway string) (bool, error)
	ApplyGatewayResult(ctx context.Context, txID string, success bool, rawBody, failureReason string) (*domain.Payment, bool, error)
	CancelIfOpen(ctx context.Context, id int64) (bool, error)
}

type BookingReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
}

// BookingAdvancer moves the booking forward once its payment is captured.
type BookingAdvancer interface {
	ApproveOnPayment(ctx context.Context, bookingID int64) error
}

type EventEmitter interface {
	Emit(ctx context.Context, ev domain.Event) error
}
