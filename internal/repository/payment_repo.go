package repository

import (
	"context"
	"errors"
	"time"

	"lessonbook/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrRefundExceedsCaptured is the repository-level guard for the refund
	// accumulation invariant; the service validates first, this catches races.
	ErrRefundExceedsCaptured = errors.New("refund exceeds captured amount")
	ErrPaymentNotRefundable  = errors.New("payment is not in a refundable state")
	// ErrActivePaymentExists guards the one-open-payment-per-booking
	// invariant at insert time; the service's read check catches the common
	// case, this closes the race between concurrent opens.
	ErrActivePaymentExists = errors.New("booking already has an open payment")
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts the payment after re-checking, under a lock on its booking
// row, that the booking holds no other non-terminal payment. Concurrent
// opens for the same booking serialize on the booking lock; the loser gets
// ErrActivePaymentExists.
func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b domain.Booking
		if err := lockForUpdate(tx).Where("id = ?", p.BookingID).First(&b).Error; err != nil {
			return err
		}
		var open int64
		err := tx.Model(&domain.Payment{}).
			Where("booking_id = ? AND status IN ?", p.BookingID,
				[]string{string(domain.PaymentPending), string(domain.PaymentProcessing)}).
			Count(&open).Error
		if err != nil {
			return err
		}
		if open > 0 {
			return ErrActivePaymentExists
		}
		return tx.Create(p).Error
	})
}

func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	var p domain.Payment
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// GetActiveForBooking returns the booking's non-terminal payment, if any.
// One active payment per booking is enforced at open time through this read.
func (r *PaymentRepository) GetActiveForBooking(ctx context.Context, bookingID int64) (*domain.Payment, error) {
	var p domain.Payment
	err := r.db.WithContext(ctx).
		Where("booking_id = ? AND status IN ?", bookingID,
			[]string{string(domain.PaymentPending), string(domain.PaymentProcessing)}).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetSettledForBooking returns the booking's completed (or refunded) payment, if any.
func (r *PaymentRepository) GetSettledForBooking(ctx context.Context, bookingID int64) (*domain.Payment, error) {
	var p domain.Payment
	err := r.db.WithContext(ctx).
		Where("booking_id = ? AND status IN ?", bookingID,
			[]string{string(domain.PaymentCompleted), string(domain.PaymentRefunded)}).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// MarkProcessing is the write-ahead record of an outbound gateway attempt:
// the transaction id is persisted before the gateway is called, so a crash
// mid-call leaves a recoverable processing row.
func (r *PaymentRepository) MarkProcessing(ctx context.Context, id int64, txID, gateway string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Payment{}).
		Where("id = ? AND status = ?", id, domain.PaymentPending).
		Updates(map[string]interface{}{
			"status":         domain.PaymentProcessing,
			"transaction_id": txID,
			"gateway":        gateway,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ApplyGatewayResult applies a capture outcome exactly once per transaction
// id. The row lock serializes concurrent webhook deliveries; a redelivered
// outcome returns the stored payment with applied=false.
func (r *PaymentRepository) ApplyGatewayResult(ctx context.Context, txID string, success bool, rawBody, failureReason string) (*domain.Payment, bool, error) {
	var p domain.Payment
	applied := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).
			Where("transaction_id = ?", txID).First(&p).Error; err != nil {
			return err
		}
		if p.Status != domain.PaymentPending && p.Status != domain.PaymentProcessing {
			// already settled one way or the other; duplicate delivery
			return nil
		}
		now := time.Now().UTC()
		updates := map[string]interface{}{"gateway_response": rawBody}
		if success {
			updates["status"] = domain.PaymentCompleted
			updates["paid_at"] = now
		} else {
			updates["status"] = domain.PaymentFailed
			updates["failed_at"] = now
			updates["failure_reason"] = failureReason
		}
		res := tx.Model(&domain.Payment{}).Where("id = ?", p.ID).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		applied = true
		return tx.Where("id = ?", p.ID).First(&p).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &p, applied, nil
}

// CancelIfOpen moves a pending/processing payment to cancelled.
func (r *PaymentRepository) CancelIfOpen(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Payment{}).
		Where("id = ? AND status IN ?", id,
			[]string{string(domain.PaymentPending), string(domain.PaymentProcessing)}).
		Updates(map[string]interface{}{
			"status":       domain.PaymentCancelled,
			"cancelled_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// AppendRefund records a gateway-confirmed refund: under a row lock it
// re-checks the remaining refundable amount, accumulates it, appends the
// audit record, and flips the payment to refunded only when the cumulative
// refund equals the captured amount.
func (r *PaymentRepository) AppendRefund(ctx context.Context, paymentID int64, rec *domain.RefundRecord) (*domain.Payment, error) {
	var p domain.Payment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).
			Where("id = ?", paymentID).First(&p).Error; err != nil {
			return err
		}
		if p.Status != domain.PaymentCompleted {
			return ErrPaymentNotRefundable
		}
		if rec.AmountMinor <= 0 || rec.AmountMinor > p.RemainingRefundableMinor() {
			return ErrRefundExceedsCaptured
		}

		refunded := p.RefundedMinor + rec.AmountMinor
		status := domain.PaymentCompleted
		updates := map[string]interface{}{"refunded_minor": refunded}
		if refunded == p.AmountMinor {
			status = domain.PaymentRefunded
			updates["status"] = status
			updates["refunded_at"] = time.Now().UTC()
		}
		if err := tx.Model(&domain.Payment{}).Where("id = ?", paymentID).Updates(updates).Error; err != nil {
			return err
		}

		rec.PaymentID = paymentID
		rec.ResultingStatus = status
		if err := tx.Create(rec).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", paymentID).First(&p).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// lockForUpdate takes a row lock on postgres; sqlite serializes writing
// transactions itself, and rejects FOR UPDATE syntax.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func (r *PaymentRepository) ListRefunds(ctx context.Context, paymentID int64) ([]domain.RefundRecord, error) {
	var out []domain.RefundRecord
	err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("created_at").
		Find(&out).Error
	return out, err
}
