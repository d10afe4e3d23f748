package repository

import (
	"context"
	"errors"
	"time"

	"lessonbook/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrSlotTaken is returned when publishing a slot that already exists
	// for the same (teacher, date, window).
	ErrSlotTaken = errors.New("slot already exists for this time window")
)

// ReservationConflict reports a lost reservation race: the slot ids that were
// no longer available when the atomic flip ran.
type ReservationConflict struct {
	SlotIDs []int64
}

func (e *ReservationConflict) Error() string { return "one or more slots are no longer available" }

type SlotRepository struct {
	db *gorm.DB
}

func NewSlotRepository(db *gorm.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

func (r *SlotRepository) Create(ctx context.Context, s *domain.AvailabilitySlot) error {
	err := r.db.WithContext(ctx).Create(s).Error
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrSlotTaken
	}
	// sqlite reports the same constraint differently
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrSlotTaken
	}
	return err
}

func (r *SlotRepository) GetByID(ctx context.Context, id int64) (*domain.AvailabilitySlot, error) {
	var s domain.AvailabilitySlot
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SlotRepository) GetByIDs(ctx context.Context, ids []int64) ([]domain.AvailabilitySlot, error) {
	var slots []domain.AvailabilitySlot
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&slots).Error; err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *SlotRepository) GetByBookingID(ctx context.Context, bookingID int64) ([]domain.AvailabilitySlot, error) {
	var slots []domain.AvailabilitySlot
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("start_time").
		Find(&slots).Error
	if err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *SlotRepository) ListForTeacher(ctx context.Context, teacherID int64, from, to time.Time, onlyAvailable bool) ([]domain.AvailabilitySlot, error) {
	q := r.db.WithContext(ctx).
		Where("teacher_id = ? AND start_time >= ? AND start_time < ?", teacherID, from, to)
	if onlyAvailable {
		q = q.Where("status = ?", domain.SlotAvailable)
	}
	var slots []domain.AvailabilitySlot
	if err := q.Order("start_time").Find(&slots).Error; err != nil {
		return nil, err
	}
	return slots, nil
}

// Reserve flips the whole slot set available->booked in one conditional
// UPDATE. When any requested slot is not available the transaction rolls
// back and a ReservationConflict names the losers; partial reservation
// never commits. Two racing bookings for the same slot resolve to one
// winner because the status predicate is checked and written atomically.
func (r *SlotRepository) Reserve(ctx context.Context, teacherID int64, slotIDs []int64, bookingID int64) error {
	if len(slotIDs) == 0 {
		return errors.New("empty slot set")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.AvailabilitySlot{}).
			Where("id IN ? AND teacher_id = ? AND status = ?", slotIDs, teacherID, domain.SlotAvailable).
			Updates(map[string]interface{}{
				"status":     domain.SlotBooked,
				"booking_id": bookingID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != int64(len(slotIDs)) {
			lost, err := r.lostSlots(tx, slotIDs, bookingID)
			if err != nil {
				return err
			}
			return &ReservationConflict{SlotIDs: lost}
		}
		return nil
	})
}

func (r *SlotRepository) lostSlots(tx *gorm.DB, slotIDs []int64, bookingID int64) ([]int64, error) {
	var lost []int64
	err := tx.Model(&domain.AvailabilitySlot{}).
		Where("id IN ? AND (booking_id IS NULL OR booking_id <> ?)", slotIDs, bookingID).
		Where("status <> ?", domain.SlotAvailable).
		Pluck("id", &lost).Error
	if err != nil {
		return nil, err
	}
	// ids that do not exist at all also count as lost
	var found []int64
	if err := tx.Model(&domain.AvailabilitySlot{}).Where("id IN ?", slotIDs).Pluck("id", &found).Error; err != nil {
		return nil, err
	}
	if len(found) < len(slotIDs) {
		seen := make(map[int64]bool, len(found))
		for _, id := range found {
			seen[id] = true
		}
		for _, id := range slotIDs {
			if !seen[id] {
				lost = append(lost, id)
			}
		}
	}
	return lost, nil
}

// Release returns every slot held by the booking to available and clears the
// back reference. Releasing a booking that holds nothing is a no-op.
func (r *SlotRepository) Release(ctx context.Context, bookingID int64) error {
	return r.db.WithContext(ctx).Model(&domain.AvailabilitySlot{}).
		Where("booking_id = ? AND status = ?", bookingID, domain.SlotBooked).
		Updates(map[string]interface{}{
			"status":     domain.SlotAvailable,
			"booking_id": nil,
		}).Error
}

// MarkUnavailable lets a teacher withdraw an unbooked slot. Booked slots are
// protected: the booking must be cancelled first.
func (r *SlotRepository) MarkUnavailable(ctx context.Context, teacherID, slotID int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.AvailabilitySlot{}).
		Where("id = ? AND teacher_id = ? AND status = ?", slotID, teacherID, domain.SlotAvailable).
		Update("status", domain.SlotUnavailable)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
