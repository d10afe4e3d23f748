package refund

import (
	"context"
	"errors"
	"testing"
	"time"

	"lessonbook/internal/domain"
	"lessonbook/internal/gateway"
	"lessonbook/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type mockPaymentStore struct {
	payment *domain.Payment
	records []domain.RefundRecord
}

func (m *mockPaymentStore) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	if m.payment == nil || m.payment.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m.payment
	return &cp, nil
}

func (m *mockPaymentStore) AppendRefund(ctx context.Context, paymentID int64, rec *domain.RefundRecord) (*domain.Payment, error) {
	p := m.payment
	if p.Status != domain.PaymentCompleted {
		return nil, repository.ErrPaymentNotRefundable
	}
	if rec.AmountMinor <= 0 || rec.AmountMinor > p.RemainingRefundableMinor() {
		return nil, repository.ErrRefundExceedsCaptured
	}
	p.RefundedMinor += rec.AmountMinor
	if p.RefundedMinor == p.AmountMinor {
		p.Status = domain.PaymentRefunded
		now := time.Now().UTC()
		p.RefundedAt = &now
	}
	rec.PaymentID = paymentID
	rec.ResultingStatus = p.Status
	m.records = append(m.records, *rec)
	cp := *p
	return &cp, nil
}

func (m *mockPaymentStore) ListRefunds(ctx context.Context, paymentID int64) ([]domain.RefundRecord, error) {
	return m.records, nil
}

type mockEmitter struct {
	events []domain.Event
}

func (m *mockEmitter) Emit(ctx context.Context, ev domain.Event) error {
	m.events = append(m.events, ev)
	return nil
}

type scriptedGateway struct {
	confirm     bool
	err         error
	refundsSeen []gateway.RefundRequest
}

func (g *scriptedGateway) Charge(ctx context.Context, req gateway.ChargeRequest) (*gateway.ChargeResult, error) {
	return &gateway.ChargeResult{Reference: req.Reference, Accepted: true}, nil
}

func (g *scriptedGateway) Refund(ctx context.Context, req gateway.RefundRequest) (*gateway.RefundResult, error) {
	g.refundsSeen = append(g.refundsSeen, req)
	if g.err != nil {
		return nil, g.err
	}
	return &gateway.RefundResult{Reference: req.Reference, Confirmed: g.confirm, Detail: "scripted"}, nil
}

func capturedPayment() *domain.Payment {
	tx := "tx-abc"
	return &domain.Payment{
		ID:            1,
		BookingID:     1,
		StudentID:     5,
		TeacherID:     10,
		AmountMinor:   20000,
		Currency:      "SAR",
		Status:        domain.PaymentCompleted,
		TransactionID: &tx,
	}
}

func newTestService(store *mockPaymentStore, gw gateway.Adapter, events *mockEmitter) *Service {
	return NewService(store, gw, events, zap.NewNop(), time.Second)
}

func amount(v int64) *int64 { return &v }

func TestRefundPartialThenFull(t *testing.T) {
	store := &mockPaymentStore{payment: capturedPayment()}
	events := &mockEmitter{}
	svc := newTestService(store, &scriptedGateway{confirm: true}, events)
	teacher := domain.Actor{ID: 10, Role: domain.RoleTeacher}

	rec, p, err := svc.Refund(context.Background(), teacher, 1, amount(8000), "one session missed")
	if err != nil {
		t.Fatalf("partial refund failed: %v", err)
	}
	if p.Status != domain.PaymentCompleted || p.RefundedMinor != 8000 {
		t.Fatalf("partial refund must keep completed: %+v", p)
	}
	if rec.ResultingStatus != domain.PaymentCompleted {
		t.Fatalf("record status wrong: %s", rec.ResultingStatus)
	}

	rec, p, err = svc.Refund(context.Background(), teacher, 1, amount(12000), "remaining sessions")
	if err != nil {
		t.Fatalf("final refund failed: %v", err)
	}
	if p.Status != domain.PaymentRefunded || p.RefundedMinor != 20000 {
		t.Fatalf("full refund must flip to refunded: %+v", p)
	}
	if rec.ResultingStatus != domain.PaymentRefunded {
		t.Fatalf("record status wrong: %s", rec.ResultingStatus)
	}
	if len(events.events) != 2 {
		t.Fatalf("expected a payment.refunded event per refund, got %d", len(events.events))
	}
}

func TestRefundDefaultsToFullRemaining(t *testing.T) {
	store := &mockPaymentStore{payment: capturedPayment()}
	store.payment.RefundedMinor = 5000
	gw := &scriptedGateway{confirm: true}
	svc := newTestService(store, gw, &mockEmitter{})

	_, p, err := svc.Refund(context.Background(), domain.Actor{ID: 10, Role: domain.RoleTeacher}, 1, nil, "full refund")
	if err != nil {
		t.Fatalf("refund failed: %v", err)
	}
	if gw.refundsSeen[0].AmountMinor != 15000 {
		t.Fatalf("nil amount must refund the remaining 15000, asked %d", gw.refundsSeen[0].AmountMinor)
	}
	if p.Status != domain.PaymentRefunded {
		t.Fatalf("expected refunded, got %s", p.Status)
	}
}

func TestRefundExceedingRemainingRejectedBeforeGateway(t *testing.T) {
	store := &mockPaymentStore{payment: capturedPayment()}
	store.payment.RefundedMinor = 15000
	gw := &scriptedGateway{confirm: true}
	svc := newTestService(store, gw, &mockEmitter{})

	_, _, err := svc.Refund(context.Background(), domain.Actor{ID: 10, Role: domain.RoleTeacher}, 1, amount(6000), "too much")
	if !errors.Is(err, ErrInvalidRefundAmount) {
		t.Fatalf("expected ErrInvalidRefundAmount, got %v", err)
	}
	if len(gw.refundsSeen) != 0 {
		t.Fatalf("invalid amount must never reach the gateway")
	}
	if len(store.records) != 0 {
		t.Fatalf("no record may be written for a rejected refund")
	}
}

func TestRefundZeroAndNegativeRejected(t *testing.T) {
	store := &mockPaymentStore{payment: capturedPayment()}
	svc := newTestService(store, &scriptedGateway{confirm: true}, &mockEmitter{})
	teacher := domain.Actor{ID: 10, Role: domain.RoleTeacher}

	for _, v := range []int64{0, -100} {
		if _, _, err := svc.Refund(context.Background(), teacher, 1, amount(v), "bad"); !errors.Is(err, ErrInvalidRefundAmount) {
			t.Fatalf("amount %d: expected ErrInvalidRefundAmount, got %v", v, err)
		}
	}
}

func TestRefundGatewayFailureChangesNothing(t *testing.T) {
	store := &mockPaymentStore{payment: capturedPayment()}
	gw := &scriptedGateway{err: gateway.ErrUnavailable}
	events := &mockEmitter{}
	svc := newTestService(store, gw, events)

	_, _, err := svc.Refund(context.Background(), domain.Actor{ID: 10, Role: domain.RoleTeacher}, 1, amount(8000), "try")
	if !errors.Is(err, ErrGateway) {
		t.Fatalf("expected ErrGateway, got %v", err)
	}
	if store.payment.RefundedMinor != 0 || store.payment.Status != domain.PaymentCompleted {
		t.Fatalf("gateway failure must leave the payment unchanged: %+v", store.payment)
	}
	if len(store.records) != 0 || len(events.events) != 0 {
		t.Fatalf("gateway failure must write no record and emit nothing")
	}
}

func TestRefundUnconfirmedChangesNothing(t *testing.T) {
	store := &mockPaymentStore{payment: capturedPayment()}
	svc := newTestService(store, &scriptedGateway{confirm: false}, &mockEmitter{})

	_, _, err := svc.Refund(context.Background(), domain.Actor{ID: 10, Role: domain.RoleTeacher}, 1, amount(8000), "try")
	if !errors.Is(err, ErrGateway) {
		t.Fatalf("expected ErrGateway for unconfirmed refund, got %v", err)
	}
	if len(store.records) != 0 {
		t.Fatalf("unconfirmed refund must write no record")
	}
}

func TestRefundFailedPaymentRejected(t *testing.T) {
	store := &mockPaymentStore{payment: capturedPayment()}
	store.payment.Status = domain.PaymentFailed
	svc := newTestService(store, &scriptedGateway{confirm: true}, &mockEmitter{})

	_, _, err := svc.Refund(context.Background(), domain.Actor{ID: 10, Role: domain.RoleTeacher}, 1, nil, "nope")
	if !errors.Is(err, ErrNotRefundable) {
		t.Fatalf("expected ErrNotRefundable, got %v", err)
	}
}
