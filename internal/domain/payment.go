package domain

import "time"

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
	PaymentCancelled  PaymentStatus = "cancelled"
	// PaymentRefunded means fully refunded; a partially refunded payment
	// stays completed with a non-zero RefundedMinor.
	PaymentRefunded PaymentStatus = "refunded"
)

// Terminal reports whether the payment can no longer change except via refund.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentCompleted || s == PaymentFailed || s == PaymentCancelled || s == PaymentRefunded
}

type Payment struct {
	ID        int64 `json:"id" gorm:"primaryKey"`
	BookingID int64 `json:"booking_id" gorm:"not null;index"`
	StudentID int64 `json:"student_id" gorm:"not null;index"`
	TeacherID int64 `json:"teacher_id" gorm:"not null;index"`

	// AmountMinor is in minor currency units (halalas). Integer arithmetic
	// keeps the refund-sum invariant exact.
	AmountMinor   int64         `json:"amount_minor" gorm:"not null"`
	RefundedMinor int64         `json:"refunded_minor" gorm:"not null;default:0"`
	Currency      string        `json:"currency" gorm:"type:varchar(3);not null"`
	Status        PaymentStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`

	Gateway string `json:"gateway" gorm:"type:varchar(32)"`
	// TransactionID is assigned on submit and never changes afterwards.
	// It is the idempotency key for gateway callbacks.
	TransactionID   *string `json:"transaction_id,omitempty" gorm:"type:varchar(64);uniqueIndex"`
	GatewayResponse string  `json:"gateway_response,omitempty" gorm:"type:text"`
	FailureReason   string  `json:"failure_reason,omitempty" gorm:"type:text"`

	PaidAt      *time.Time `json:"paid_at,omitempty"`
	FailedAt    *time.Time `json:"failed_at,omitempty"`
	RefundedAt  *time.Time `json:"refunded_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Payment) TableName() string { return "payments" }

// RemainingRefundableMinor is captured amount minus prior refunds.
func (p *Payment) RemainingRefundableMinor() int64 {
	return p.AmountMinor - p.RefundedMinor
}

// RefundRecord is an append-only audit row; the sum of amounts per payment
// never exceeds the captured amount.
type RefundRecord struct {
	ID              int64         `json:"id" gorm:"primaryKey"`
	PaymentID       int64         `json:"payment_id" gorm:"not null;index"`
	AmountMinor     int64         `json:"amount_minor" gorm:"not null"`
	Reason          string        `json:"reason,omitempty" gorm:"type:text"`
	ActorID         int64         `json:"actor_id"`
	ActorRole       Role          `json:"actor_role" gorm:"type:varchar(20)"`
	GatewayRef      string        `json:"gateway_ref" gorm:"type:varchar(64)"`
	ResultingStatus PaymentStatus `json:"resulting_status" gorm:"type:varchar(20)"`
	CreatedAt       time.Time     `json:"created_at"`
}

func (RefundRecord) TableName() string { return "refund_records" }
