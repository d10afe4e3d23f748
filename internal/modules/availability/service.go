package availability

import (
	"context"
	"errors"
	"time"

	"lessonbook/internal/domain"
	"lessonbook/internal/repository"

	"go.uber.org/zap"
)

type Service struct {
	slots    SlotStore
	teachers TeacherReader
	logger   *zap.Logger
}

func NewService(slots SlotStore, teachers TeacherReader, logger *zap.Logger) *Service {
	return &Service{slots: slots, teachers: teachers, logger: logger}
}

// PublishSlots creates one slot per requested window. The per-slot price is
// frozen from the teacher's current hourly rate, so later rate changes never
// reprice published slots. Teachers may only publish for themselves; admins
// for anyone.
func (s *Service) PublishSlots(ctx context.Context, actor domain.Actor, req PublishSlotsRequest) ([]domain.AvailabilitySlot, error) {
	teacherID := req.TeacherID
	if teacherID == 0 {
		teacherID = actor.ID
	}
	if actor.Role == domain.RoleTeacher && teacherID != actor.ID {
		return nil, ErrForbidden
	}
	if actor.Role != domain.RoleTeacher && !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	teacher, err := s.teachers.GetByID(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	if teacher.Role != domain.RoleTeacher {
		return nil, ErrValidation
	}

	day, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, ErrValidation
	}

	existing, err := s.slots.ListForTeacher(ctx, teacherID, day, day.AddDate(0, 0, 1), false)
	if err != nil {
		return nil, err
	}

	out := make([]domain.AvailabilitySlot, 0, len(req.Windows))
	for _, w := range req.Windows {
		start, end, err := windowTimes(day, w)
		if err != nil {
			return nil, err
		}
		if !start.After(time.Now().UTC()) {
			return nil, ErrValidation
		}
		for _, prev := range out {
			if overlaps(start, end, prev.StartTime, prev.EndTime) {
				return nil, ErrValidation
			}
		}
		for _, prev := range existing {
			if overlaps(start, end, prev.StartTime, prev.EndTime) {
				return nil, ErrSlotExists
			}
		}

		slot := domain.AvailabilitySlot{
			TeacherID:  teacherID,
			SubjectID:  req.SubjectID,
			Date:       req.Date,
			StartTime:  start,
			EndTime:    end,
			Status:     domain.SlotAvailable,
			PriceMinor: priceFor(teacher.HourlyRateMinor, end.Sub(start)),
		}
		if err := s.slots.Create(ctx, &slot); err != nil {
			if errors.Is(err, repository.ErrSlotTaken) {
				return nil, ErrSlotExists
			}
			return nil, err
		}
		out = append(out, slot)
	}

	s.logger.Info("slots published",
		zap.Int64("teacher_id", teacherID),
		zap.String("date", req.Date),
		zap.Int("count", len(out)),
	)
	return out, nil
}

// ListAvailability returns a teacher's open slots in [from, to).
func (s *Service) ListAvailability(ctx context.Context, teacherID int64, from, to time.Time) ([]domain.AvailabilitySlot, error) {
	if !to.After(from) {
		return nil, ErrValidation
	}
	return s.slots.ListForTeacher(ctx, teacherID, from, to, true)
}

// ListSchedule returns all of a teacher's slots regardless of state, for the
// teacher's own calendar view.
func (s *Service) ListSchedule(ctx context.Context, actor domain.Actor, teacherID int64, from, to time.Time) ([]domain.AvailabilitySlot, error) {
	if actor.Role == domain.RoleTeacher && teacherID != actor.ID {
		return nil, ErrForbidden
	}
	if !to.After(from) {
		return nil, ErrValidation
	}
	return s.slots.ListForTeacher(ctx, teacherID, from, to, false)
}

// Withdraw marks an unbooked slot unavailable. A booked slot cannot be
// withdrawn; its booking must be cancelled first, which releases the slot.
func (s *Service) Withdraw(ctx context.Context, actor domain.Actor, slotID int64) error {
	slot, err := s.slots.GetByID(ctx, slotID)
	if err != nil {
		return ErrNotFound
	}
	if !actor.IsAdmin() && slot.TeacherID != actor.ID {
		return ErrForbidden
	}
	ok, err := s.slots.MarkUnavailable(ctx, slot.TeacherID, slotID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrValidation
	}
	return nil
}

func windowTimes(day time.Time, w SlotWindow) (time.Time, time.Time, error) {
	startT, err := time.Parse("15:04", w.Start)
	if err != nil {
		return time.Time{}, time.Time{}, ErrValidation
	}
	endT, err := time.Parse("15:04", w.End)
	if err != nil {
		return time.Time{}, time.Time{}, ErrValidation
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), startT.Hour(), startT.Minute(), 0, 0, time.UTC)
	end := time.Date(day.Year(), day.Month(), day.Day(), endT.Hour(), endT.Minute(), 0, 0, time.UTC)
	if !end.After(start) {
		return time.Time{}, time.Time{}, ErrValidation
	}
	return start, end, nil
}

func priceFor(hourlyRateMinor int64, d time.Duration) int64 {
	return hourlyRateMinor * int64(d.Minutes()) / 60
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
