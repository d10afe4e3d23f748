package repository

import (
	"context"
	"time"

	"lessonbook/internal/domain"

	"gorm.io/gorm"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	return r.db.WithContext(ctx).Create(b).Error
}

// Delete removes a booking row. Used only to compensate a booking whose slot
// reservation lost the race before anything referenced it.
func (r *BookingRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&domain.Booking{}, id).Error
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var b domain.Booking
	if err := r.db.WithContext(ctx).Preload("Slots").First(&b, id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookingRepository) ListByStudent(ctx context.Context, studentID int64, limit, offset int) ([]domain.Booking, error) {
	var out []domain.Booking
	err := r.db.WithContext(ctx).
		Preload("Slots").
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&out).Error
	return out, err
}

func (r *BookingRepository) ListByTeacher(ctx context.Context, teacherID int64, limit, offset int) ([]domain.Booking, error) {
	var out []domain.Booking
	err := r.db.WithContext(ctx).
		Preload("Slots").
		Where("teacher_id = ?", teacherID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&out).Error
	return out, err
}

// Transition moves the booking from one of the expected statuses to the
// target status and stamps the matching timestamp column in the same UPDATE.
// It returns (applied=false, nil) when the row was not in any expected
// status, so callers can distinguish a lost race from an error.
func (r *BookingRepository) Transition(ctx context.Context, id int64, from []domain.BookingStatus, to domain.BookingStatus, extra map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{"status": to}
	now := time.Now().UTC()
	switch to {
	case domain.BookingConfirmed:
		// no dedicated timestamp column
	case domain.BookingApproved:
		updates["approved_at"] = now
	case domain.BookingCompleted:
		updates["completed_at"] = now
	case domain.BookingCancelled:
		updates["cancelled_at"] = now
	}
	for k, v := range extra {
		updates[k] = v
	}
	res := r.db.WithContext(ctx).Model(&domain.Booking{}).
		Where("id = ? AND status IN ?", id, statusStrings(from)).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func statusStrings(in []domain.BookingStatus) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, string(s))
	}
	return out
}

// SetPaymentReceived flags the manual off-platform payment path. Idempotent:
// a second call leaves the original timestamp in place.
func (r *BookingRepository) SetPaymentReceived(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Model(&domain.Booking{}).
		Where("id = ? AND payment_received = ?", id, false).
		Updates(map[string]interface{}{
			"payment_received":    true,
			"payment_received_at": time.Now().UTC(),
		}).Error
}

// ListExpiredPending returns unpaid pending bookings created before the cutoff.
func (r *BookingRepository) ListExpiredPending(ctx context.Context, cutoff time.Time) ([]domain.Booking, error) {
	var out []domain.Booking
	err := r.db.WithContext(ctx).
		Where("status = ? AND payment_received = ? AND created_at < ?", domain.BookingPending, false, cutoff).
		Find(&out).Error
	return out, err
}
