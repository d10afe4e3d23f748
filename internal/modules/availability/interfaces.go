package availability

import (
	"context"
	"time"

	"lessonbook/internal/domain"
)

// SlotStore is the slice of the availability ledger this module writes
// through: publishing, listing and withdrawing. Reservation and release
// belong to the booking lifecycle.
type SlotStore interface {
	Create(ctx context.Context, s *domain.AvailabilitySlot) error
	GetByID(ctx context.Context, id int64) (*domain.AvailabilitySlot, error)
	ListForTeacher(ctx context.Context, teacherID int64, from, to time.Time, onlyAvailable bool) ([]domain.AvailabilitySlot, error)
	MarkUnavailable(ctx context.Context, teacherID, slotID int64) (bool, error)
}

type TeacherReader interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}
