package domain

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingApproved  BookingStatus = "approved"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

// Terminal reports whether no further lifecycle transition is possible.
func (s BookingStatus) Terminal() bool {
	return s == BookingCompleted || s == BookingCancelled
}

type Booking struct {
	ID        int64  `json:"id" gorm:"primaryKey"`
	TeacherID int64  `json:"teacher_id" gorm:"not null;index"`
	StudentID int64  `json:"student_id" gorm:"not null;index"`
	SubjectID *int64 `json:"subject_id,omitempty"`

	StudentName  string `json:"student_name"`
	StudentPhone string `json:"student_phone,omitempty"`
	StudentEmail string `json:"student_email,omitempty"`

	// TotalPriceMinor is the sum of per-slot prices at booking time, frozen.
	TotalPriceMinor int64         `json:"total_price_minor" gorm:"not null"`
	Currency        string        `json:"currency" gorm:"type:varchar(3);not null;default:'SAR'"`
	Status          BookingStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`

	// PaymentReceived covers the manual/off-platform payment path; it is
	// independent of gateway payments and never advances the status by itself.
	PaymentReceived   bool       `json:"payment_received" gorm:"not null;default:false"`
	PaymentReceivedAt *time.Time `json:"payment_received_at,omitempty"`

	CancellationReason string `json:"cancellation_reason,omitempty" gorm:"type:text"`

	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	RejectedAt  *time.Time `json:"rejected_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Slots   []AvailabilitySlot `json:"slots,omitempty" gorm:"foreignKey:BookingID"`
	Payment *Payment           `json:"payment,omitempty" gorm:"-"`
}

func (Booking) TableName() string { return "bookings" }
