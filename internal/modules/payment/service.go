package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lessonbook/internal/domain"
	"lessonbook/internal/gateway"
	"lessonbook/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	payments PaymentStore
	bookings BookingReader
	advancer BookingAdvancer
	gw       gateway.Adapter
	events   EventEmitter
	logger   *zap.Logger

	gatewayName    string
	gatewayTimeout time.Duration
}

func NewService(
	payments PaymentStore,
	bookings BookingReader,
	advancer BookingAdvancer,
	gw gateway.Adapter,
	events EventEmitter,
	logger *zap.Logger,
	gatewayName string,
	gatewayTimeout time.Duration,
) *Service {
	if gatewayTimeout <= 0 {
		gatewayTimeout = 10 * time.Second
	}
	return &Service{
		payments:       payments,
		bookings:       bookings,
		advancer:       advancer,
		gw:             gw,
		events:         events,
		logger:         logger,
		gatewayName:    gatewayName,
		gatewayTimeout: gatewayTimeout,
	}
}

// Open creates a pending payment for a booking. The amount is copied from the
// booking's frozen total, so later price changes on the teacher's slots can
// never alter what this payment settles. At most one open payment per booking.
func (s *Service) Open(ctx context.Context, actor domain.Actor, bookingID int64) (*domain.Payment, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, ErrNotFound
	}
	if !actor.IsAdmin() && actor.ID != b.StudentID {
		return nil, ErrForbidden
	}
	if b.Status.Terminal() {
		return nil, ErrBookingNotPayable
	}

	if open, err := s.payments.GetActiveForBooking(ctx, bookingID); err != nil {
		return nil, err
	} else if open != nil {
		return nil, ErrActivePaymentExists
	}
	if settled, err := s.payments.GetSettledForBooking(ctx, bookingID); err != nil {
		return nil, err
	} else if settled != nil {
		return nil, ErrAlreadySettled
	}

	p := &domain.Payment{
		BookingID:   bookingID,
		StudentID:   b.StudentID,
		TeacherID:   b.TeacherID,
		AmountMinor: b.TotalPriceMinor,
		Currency:    b.Currency,
		Status:      domain.PaymentPending,
	}
	if err := s.payments.Create(ctx, p); err != nil {
		// a concurrent open won the booking lock
		if errors.Is(err, repository.ErrActivePaymentExists) {
			return nil, ErrActivePaymentExists
		}
		return nil, err
	}
	return p, nil
}

// Submit sends an open payment to the gateway. The transaction id is written
// to the row before the outbound call, so a crash mid-charge leaves a
// processing payment that the webhook (or a reconciliation sweep) can still
// settle. A synchronous gateway answer is applied through the same idempotent
// path the webhook uses.
func (s *Service) Submit(ctx context.Context, actor domain.Actor, paymentID int64) (*domain.Payment, error) {
	p, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, ErrNotFound
	}
	if !actor.IsAdmin() && actor.ID != p.StudentID {
		return nil, ErrForbidden
	}
	if p.Status != domain.PaymentPending {
		return nil, ErrInvalidState
	}

	txID := uuid.NewString()
	moved, err := s.payments.MarkProcessing(ctx, paymentID, txID, s.gatewayName)
	if err != nil {
		return nil, err
	}
	if !moved {
		// a concurrent submit won; the stored transaction id stands
		return nil, ErrInvalidState
	}

	cctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()
	res, err := s.gw.Charge(cctx, gateway.ChargeRequest{
		Reference:   txID,
		AmountMinor: p.AmountMinor,
		Currency:    p.Currency,
		Description: fmt.Sprintf("booking #%d", p.BookingID),
	})
	if err != nil {
		if errors.Is(err, gateway.ErrUnavailable) {
			s.logger.Warn("gateway unreachable, payment left processing",
				zap.Int64("payment_id", paymentID), zap.String("transaction_id", txID))
			return nil, fmt.Errorf("%w: %v", ErrGateway, err)
		}
		return nil, err
	}
	if !res.Accepted {
		return s.settle(ctx, txID, false, "", "declined by gateway")
	}
	return s.settle(ctx, txID, true, "", "")
}

// HandleGatewayResult settles a payment by transaction id. Exactly-once: a
// redelivered result returns the stored payment unchanged with applied=false.
// Only a first successful application advances the booking and emits events.
func (s *Service) HandleGatewayResult(ctx context.Context, txID string, success bool, rawBody, reason string) (*domain.Payment, bool, error) {
	p, applied, err := s.payments.ApplyGatewayResult(ctx, txID, success, rawBody, reason)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, ErrUnknownTransaction
	}
	if err != nil {
		return nil, false, err
	}
	if !applied {
		return p, false, nil
	}

	if success {
		if err := s.advancer.ApproveOnPayment(ctx, p.BookingID); err != nil {
			// the capture is recorded; approval retries on the next read path
			s.logger.Error("failed to advance booking after capture",
				zap.Int64("booking_id", p.BookingID), zap.Error(err))
		}
		s.emit(ctx, domain.Event{
			Type:        domain.EventPaymentCompleted,
			RecipientID: p.TeacherID,
			Title:       "Payment received",
			Body:        fmt.Sprintf("Booking #%d was paid", p.BookingID),
			Data:        map[string]any{"booking_id": p.BookingID, "payment_id": p.ID, "amount_minor": p.AmountMinor},
		})
	} else {
		s.emit(ctx, domain.Event{
			Type:        domain.EventPaymentFailed,
			RecipientID: p.StudentID,
			Title:       "Payment failed",
			Body:        "Your payment could not be completed",
			Data:        map[string]any{"booking_id": p.BookingID, "payment_id": p.ID, "reason": reason},
		})
	}
	return p, true, nil
}

// Cancel closes a payment that has not settled. Cancelling an already
// cancelled payment is a no-op; cancelling a settled one is rejected.
func (s *Service) Cancel(ctx context.Context, actor domain.Actor, paymentID int64) (*domain.Payment, error) {
	p, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, ErrNotFound
	}
	if !actor.IsAdmin() && !actor.IsSystem() && actor.ID != p.StudentID {
		return nil, ErrForbidden
	}

	applied, err := s.payments.CancelIfOpen(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !applied {
		if p.Status == domain.PaymentCancelled {
			return p, nil
		}
		return nil, ErrInvalidState
	}
	return s.payments.GetByID(ctx, paymentID)
}

func (s *Service) GetByID(ctx context.Context, actor domain.Actor, paymentID int64) (*domain.Payment, error) {
	p, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, ErrNotFound
	}
	if !actor.IsAdmin() && actor.ID != p.StudentID && actor.ID != p.TeacherID {
		return nil, ErrForbidden
	}
	return p, nil
}

// GetForBooking returns the booking's open payment, falling back to its
// settled one.
func (s *Service) GetForBooking(ctx context.Context, actor domain.Actor, bookingID int64) (*domain.Payment, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, ErrNotFound
	}
	if !actor.IsAdmin() && actor.ID != b.StudentID && actor.ID != b.TeacherID {
		return nil, ErrForbidden
	}
	if p, err := s.payments.GetActiveForBooking(ctx, bookingID); err != nil {
		return nil, err
	} else if p != nil {
		return p, nil
	}
	p, err := s.payments.GetSettledForBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *Service) settle(ctx context.Context, txID string, success bool, rawBody, reason string) (*domain.Payment, error) {
	p, _, err := s.HandleGatewayResult(ctx, txID, success, rawBody, reason)
	return p, err
}

func (s *Service) emit(ctx context.Context, ev domain.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Emit(ctx, ev); err != nil {
		s.logger.Warn("event emit failed", zap.String("type", string(ev.Type)), zap.Error(err))
	}
}
