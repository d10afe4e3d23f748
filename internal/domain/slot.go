package domain

import "time"

type SlotStatus string

const (
	SlotAvailable   SlotStatus = "available"
	SlotBooked      SlotStatus = "booked"
	SlotUnavailable SlotStatus = "unavailable"
)

// AvailabilitySlot is a single bookable time window for one teacher.
// A slot in booked state always carries the id of exactly one booking;
// only the slot repository mutates slot state.
type AvailabilitySlot struct {
	ID        int64      `json:"id" gorm:"primaryKey"`
	TeacherID int64      `json:"teacher_id" gorm:"not null;index;uniqueIndex:idx_slot_window,priority:1"`
	SubjectID *int64     `json:"subject_id,omitempty" gorm:"index"`
	Date      string     `json:"date" gorm:"type:varchar(10);not null;uniqueIndex:idx_slot_window,priority:2"`
	StartTime time.Time  `json:"start_time" gorm:"not null;uniqueIndex:idx_slot_window,priority:3"`
	EndTime   time.Time  `json:"end_time" gorm:"not null;uniqueIndex:idx_slot_window,priority:4"`
	Status    SlotStatus `json:"status" gorm:"type:varchar(20);not null;default:'available';index"`
	BookingID *int64     `json:"booking_id,omitempty" gorm:"index"`
	// PriceMinor is frozen from the teacher's hourly rate when the slot is published.
	PriceMinor int64     `json:"price_minor" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (AvailabilitySlot) TableName() string { return "availability_slots" }
