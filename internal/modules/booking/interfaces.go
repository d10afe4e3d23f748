package booking

import (
	"context"
	"time"

	"lessonbook/internal/domain"
)

type BookingStore interface {
	Create(ctx context.Context, b *domain.Booking) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	ListByStudent(ctx context.Context, studentID int64, limit, offset int) ([]domain.Booking, error)
	ListByTeacher(ctx context.Context, teacherID int64, limit, offset int) ([]domain.Booking, error)
	Transition(ctx context.Context, id int64, from []domain.BookingStatus, to domain.BookingStatus, extra map[string]interface{}) (bool, error)
	SetPaymentReceived(ctx context.Context, id int64) error
	ListExpiredPending(ctx context.Context, cutoff time.Time) ([]domain.Booking, error)
}

// SlotLedger is the only mutation point for slot state. The booking
// lifecycle never writes slot rows itself.
type SlotLedger interface {
	GetByIDs(ctx context.Context, ids []int64) ([]domain.AvailabilitySlot, error)
	Reserve(ctx context.Context, teacherID int64, slotIDs []int64, bookingID int64) error
	Release(ctx context.Context, bookingID int64) error
}

type PaymentReader interface {
	GetActiveForBooking(ctx context.Context, bookingID int64) (*domain.Payment, error)
	GetSettledForBooking(ctx context.Context, bookingID int64) (*domain.Payment, error)
}

// PaymentVoider closes a not-yet-captured payment during cancellation.
type PaymentVoider interface {
	CancelIfOpen(ctx context.Context, paymentID int64) (bool, error)
}

type EventEmitter interface {
	Emit(ctx context.Context, ev domain.Event) error
}

// CancellationPolicy decides what happens to a captured payment when its
// booking is cancelled. Slot release never waits on this decision.
type CancellationPolicy interface {
	OnCancel(ctx context.Context, actor domain.Actor, b *domain.Booking, settled *domain.Payment, reason string) error
}
