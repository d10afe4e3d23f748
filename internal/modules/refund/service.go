package refund

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
)

type Service struct {
	payments PaymentStore
	gw       gateway.Adapter
	events   EventEmitter
	logger   *zap.Logger

	gatewayTimeout time.Duration
}

func NewService(payments PaymentStore, gw gateway.Adapter, events EventEmitter, logger *zap.Logger, gatewayTimeout time.Duration) *Service {
	if gatewayTimeout <= 0 {
		gatewayTimeout = 10 * time.Second
	}
	return &Service{
		payments:       payments,
		gw:             gw,
		events:         events,
		logger:         logger,
		gatewayTimeout: gatewayTimeout,
	}
}

// Refund moves money back for a captured payment. A nil amount refunds the
// full remaining captured amount. All validation happens before the gateway
// is called; if the gateway does not confirm, nothing changes. The payment
// flips to refunded only once cumulative refunds equal the captured amount.
func (s *Service) Refund(ctx context.Context, actor domain.Actor, paymentID int64, amountMinor *int64, reason string) (*domain.RefundRecord, *domain.Payment, error) {
	p, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, nil, ErrNotFound
	}
	if !s.mayRefund(actor, p) {
		return nil, nil, ErrForbidden
	}
	if p.Status != domain.PaymentCompleted {
		return nil, nil, ErrNotRefundable
	}

	amount := p.RemainingRefundableMinor()
	if amountMinor != nil {
		amount = *amountMinor
	}
	if amount <= 0 || amount > p.RemainingRefundableMinor() {
		return nil, nil, ErrInvalidRefundAmount
	}
	if p.TransactionID == nil {
		return nil, nil, ErrNotRefundable
	}

	ref := uuid.NewString()
	cctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()
	res, err := s.gw.Refund(cctx, gateway.RefundRequest{
		TransactionID: *p.TransactionID,
		Reference:     ref,
		AmountMinor:   amount,
		Currency:      p.Currency,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	if !res.Confirmed {
		s.logger.Warn("gateway declined refund",
			zap.Int64("payment_id", paymentID), zap.String("detail", res.Detail))
		return nil, nil, fmt.Errorf("%w: %s", ErrGateway, res.Detail)
	}

	rec := &domain.RefundRecord{
		AmountMinor: amount,
		Reason:      reason,
		ActorID:     actor.ID,
		ActorRole:   actor.Role,
		GatewayRef:  ref,
	}
	updated, err := s.payments.AppendRefund(ctx, paymentID, rec)
	if err != nil {
		// money left the gateway but the ledger write failed; loud, operator
		// resolves against the gateway ref
		s.logger.Error("refund confirmed but not recorded",
			zap.Int64("payment_id", paymentID), zap.String("gateway_ref", ref), zap.Error(err))
		switch {
		case errors.Is(err, repository.ErrRefundExceedsCaptured):
			return nil, nil, ErrInvalidRefundAmount
		case errors.Is(err, repository.ErrPaymentNotRefundable):
			return nil, nil, ErrNotRefundable
		}
		return nil, nil, err
	}

	s.emit(ctx, domain.Event{
		Type:        domain.EventPaymentRefunded,
		RecipientID: updated.StudentID,
		Title:       "Refund issued",
		Body:        fmt.Sprintf("A refund of %d %s was issued", amount, updated.Currency),
		Data: map[string]any{
			"payment_id":     paymentID,
			"booking_id":     updated.BookingID,
			"amount_minor":   amount,
			"refunded_minor": updated.RefundedMinor,
			"status":         updated.Status,
		},
	})
	return rec, updated, nil
}

func (s *Service) List(ctx context.Context, actor domain.Actor, paymentID int64) ([]domain.RefundRecord, error) {
	p, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, ErrNotFound
	}
	if !actor.IsAdmin() && actor.ID != p.StudentID && actor.ID != p.TeacherID {
		return nil, ErrForbidden
	}
	return s.payments.ListRefunds(ctx, paymentID)
}

func (s *Service) mayRefund(actor domain.Actor, p *domain.Payment) bool {
	if actor.IsAdmin() || actor.IsSystem() {
		return true
	}
	// either party may trigger a refund flow; routes narrow this further
	return actor.ID == p.TeacherID || actor.ID == p.StudentID
}

func (s *Service) emit(ctx context.Context, ev domain.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Emit(ctx, ev); err != nil {
		s.logger.Warn("event emit failed", zap.String("type", string(ev.Type)), zap.Error(err))
	}
}
