package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lessonbook/internal/domain"
	"lessonbook/internal/repository"

	"go.uber.org/zap"
)

type Service struct {
	bookings BookingStore
	slots    SlotLedger
	payments PaymentReader
	voider   PaymentVoider
	policy   CancellationPolicy
	events   EventEmitter
	logger   *zap.Logger
}

func NewService(
	bookings BookingStore,
	slots SlotLedger,
	payments PaymentReader,
	voider PaymentVoider,
	policy CancellationPolicy,
	events EventEmitter,
	logger *zap.Logger,
) *Service {
	if policy == nil {
		policy = DeferRefundPolicy{}
	}
	return &Service{
		bookings: bookings,
		slots:    slots,
		payments: payments,
		voider:   voider,
		policy:   policy,
		events:   events,
		logger:   logger,
	}
}

// Create reserves the requested slots and opens a pending booking. The total
// price is the sum of per-slot prices at this moment, frozen for the life of
// the booking. Reservation is all-or-nothing: when any slot lost the race
// the booking is not kept and the losers are reported.
func (s *Service) Create(ctx context.Context, actor domain.Actor, req CreateBookingRequest) (*domain.Booking, error) {
	if actor.Role != domain.RoleStudent && !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	slots, err := s.slots.GetByIDs(ctx, req.SlotIDs)
	if err != nil {
		return nil, err
	}
	if len(slots) != len(req.SlotIDs) {
		return nil, &SlotConflictError{SlotIDs: missingIDs(req.SlotIDs, slots)}
	}

	now := time.Now().UTC()
	var total int64
	for _, slot := range slots {
		if slot.TeacherID != req.TeacherID {
			return nil, ErrValidation
		}
		if slot.StartTime.Before(now) {
			return nil, ErrValidation
		}
		if slot.Status != domain.SlotAvailable {
			return nil, &SlotConflictError{SlotIDs: []int64{slot.ID}}
		}
		total += slot.PriceMinor
	}

	b := &domain.Booking{
		TeacherID:       req.TeacherID,
		StudentID:       actor.ID,
		SubjectID:       req.SubjectID,
		StudentName:     req.StudentName,
		StudentPhone:    req.StudentPhone,
		StudentEmail:    req.StudentEmail,
		TotalPriceMinor: total,
		Status:          domain.BookingPending,
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, err
	}

	if err := s.slots.Reserve(ctx, req.TeacherID, req.SlotIDs, b.ID); err != nil {
		// compensate: the pending booking holds nothing yet
		if derr := s.bookings.Delete(ctx, b.ID); derr != nil {
			s.logger.Error("failed to delete booking after lost reservation",
				zap.Int64("booking_id", b.ID), zap.Error(derr))
		}
		var conflict *repository.ReservationConflict
		if errors.As(err, &conflict) {
			return nil, &SlotConflictError{SlotIDs: conflict.SlotIDs}
		}
		return nil, err
	}

	s.emit(ctx, domain.Event{
		Type:        domain.EventBookingCreated,
		RecipientID: b.TeacherID,
		Title:       "New booking request",
		Body:        fmt.Sprintf("A student requested %d session(s)", len(req.SlotIDs)),
		Data:        map[string]any{"booking_id": b.ID, "slot_ids": req.SlotIDs},
	})

	return s.bookings.GetByID(ctx, b.ID)
}

// Confirm moves a pending booking to confirmed (teacher accepts). Re-applying
// on an already-confirmed booking is a no-op returning the current state.
func (s *Service) Confirm(ctx context.Context, actor domain.Actor, id int64) (*domain.Booking, error) {
	b, err := s.getOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if b.Status == domain.BookingConfirmed {
		return b, nil
	}

	applied, err := s.bookings.Transition(ctx, id, []domain.BookingStatus{domain.BookingPending}, domain.BookingConfirmed, nil)
	if err != nil {
		return nil, err
	}
	if !applied {
		return s.transitionConflict(ctx, id, domain.BookingConfirmed)
	}

	s.emit(ctx, domain.Event{
		Type:        domain.EventBookingConfirmed,
		RecipientID: b.StudentID,
		Title:       "Booking confirmed",
		Body:        "Your booking was confirmed by the teacher",
		Data:        map[string]any{"booking_id": id},
	})
	return s.bookings.GetByID(ctx, id)
}

// Reject cancels a pending booking from the teacher's side and releases its
// slots. Stamped with rejected_at in the same write as the status.
func (s *Service) Reject(ctx context.Context, actor domain.Actor, id int64, reason string) (*domain.Booking, error) {
	b, err := s.getOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if b.Status == domain.BookingCancelled {
		return b, nil
	}

	applied, err := s.bookings.Transition(ctx, id,
		[]domain.BookingStatus{domain.BookingPending},
		domain.BookingCancelled,
		map[string]interface{}{
			"rejected_at":         time.Now().UTC(),
			"cancellation_reason": reason,
		})
	if err != nil {
		return nil, err
	}
	if !applied {
		return s.transitionConflict(ctx, id, domain.BookingCancelled)
	}
	if err := s.slots.Release(ctx, id); err != nil {
		return nil, err
	}

	s.emit(ctx, domain.Event{
		Type:        domain.EventBookingCancelled,
		RecipientID: b.StudentID,
		Title:       "Booking rejected",
		Body:        rejectBody(reason),
		Data:        map[string]any{"booking_id": id, "reason": reason},
	})
	return s.bookings.GetByID(ctx, id)
}

// ApproveOnPayment advances the booking once its gateway payment is
// captured. Called by the payment ledger, never from a handler.
func (s *Service) ApproveOnPayment(ctx context.Context, bookingID int64) error {
	applied, err := s.bookings.Transition(ctx, bookingID,
		[]domain.BookingStatus{domain.BookingPending, domain.BookingConfirmed},
		domain.BookingApproved, nil)
	if err != nil {
		return err
	}
	if !applied {
		// already approved or terminal; the payment outcome still stands
		s.logger.Warn("payment captured for booking not awaiting approval", zap.Int64("booking_id", bookingID))
		return nil
	}

	if b, err := s.bookings.GetByID(ctx, bookingID); err == nil {
		s.emit(ctx, domain.Event{
			Type:        domain.EventBookingApproved,
			RecipientID: b.StudentID,
			Title:       "Booking approved",
			Body:        "Payment received, your sessions are secured",
			Data:        map[string]any{"booking_id": bookingID},
		})
	}
	return nil
}

// Complete marks the sessions done. Allowed once the last session has ended.
func (s *Service) Complete(ctx context.Context, actor domain.Actor, id int64) (*domain.Booking, error) {
	b, err := s.getOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if b.Status == domain.BookingCompleted {
		return b, nil
	}
	if last := lastSessionEnd(b); last != nil && last.After(time.Now().UTC()) {
		return nil, ErrValidation
	}

	applied, err := s.bookings.Transition(ctx, id,
		[]domain.BookingStatus{domain.BookingConfirmed, domain.BookingApproved},
		domain.BookingCompleted, nil)
	if err != nil {
		return nil, err
	}
	if !applied {
		return s.transitionConflict(ctx, id, domain.BookingCompleted)
	}

	s.emit(ctx, domain.Event{
		Type:        domain.EventBookingCompleted,
		RecipientID: b.StudentID,
		Title:       "Booking completed",
		Body:        "Your sessions were marked as completed",
		Data:        map[string]any{"booking_id": id},
	})
	return s.bookings.GetByID(ctx, id)
}

// Cancel ends a non-terminal booking. Order matters: the status flips first
// (atomically with its timestamp and reason), the slots are released right
// after, and only then is the payment side decided. A not-yet-captured
// payment is voided; a captured one goes through the configured policy.
// Cancelling an already-cancelled booking is a no-op that re-runs the slot
// release, so a retry after a partial failure heals itself.
func (s *Service) Cancel(ctx context.Context, actor domain.Actor, id int64, reason string) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	if !s.mayCancel(actor, b) {
		return nil, ErrForbidden
	}
	if b.Status == domain.BookingCancelled {
		if err := s.slots.Release(ctx, id); err != nil {
			return nil, err
		}
		return b, nil
	}
	if b.Status == domain.BookingCompleted {
		return nil, &InvalidTransitionError{Current: b.Status, Requested: domain.BookingCancelled}
	}

	applied, err := s.bookings.Transition(ctx, id,
		[]domain.BookingStatus{domain.BookingPending, domain.BookingConfirmed, domain.BookingApproved},
		domain.BookingCancelled,
		map[string]interface{}{"cancellation_reason": reason})
	if err != nil {
		return nil, err
	}
	if !applied {
		return s.transitionConflict(ctx, id, domain.BookingCancelled)
	}

	if err := s.slots.Release(ctx, id); err != nil {
		return nil, err
	}

	if open, err := s.payments.GetActiveForBooking(ctx, id); err == nil && open != nil {
		if _, err := s.voider.CancelIfOpen(ctx, open.ID); err != nil {
			s.logger.Error("failed to void open payment on cancel",
				zap.Int64("booking_id", id), zap.Int64("payment_id", open.ID), zap.Error(err))
		}
	}

	var policyErr error
	if settled, err := s.payments.GetSettledForBooking(ctx, id); err == nil && settled != nil {
		policyErr = s.policy.OnCancel(ctx, actor, b, settled, reason)
	}

	s.emit(ctx, domain.Event{
		Type:        domain.EventBookingCancelled,
		RecipientID: counterparty(actor, b),
		Title:       "Booking cancelled",
		Body:        cancelBody(reason),
		Data:        map[string]any{"booking_id": id, "reason": reason},
	})

	updated, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// the cancellation itself committed; a policy (refund) failure surfaces
	// for retry without undoing it
	return updated, policyErr
}

// MarkPaymentReceived records an off-platform payment. It only sets the flag;
// advancing the booking stays a separate explicit action.
func (s *Service) MarkPaymentReceived(ctx context.Context, actor domain.Actor, id int64) (*domain.Booking, error) {
	if _, err := s.getOwned(ctx, actor, id); err != nil {
		return nil, err
	}
	if err := s.bookings.SetPaymentReceived(ctx, id); err != nil {
		return nil, err
	}
	return s.bookings.GetByID(ctx, id)
}

func (s *Service) GetByID(ctx context.Context, actor domain.Actor, id int64) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	if !actor.IsAdmin() && actor.ID != b.StudentID && actor.ID != b.TeacherID {
		return nil, ErrForbidden
	}
	return b, nil
}

func (s *Service) ListMine(ctx context.Context, actor domain.Actor, limit, offset int) ([]domain.Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	if actor.Role == domain.RoleTeacher {
		return s.bookings.ListByTeacher(ctx, actor.ID, limit, offset)
	}
	return s.bookings.ListByStudent(ctx, actor.ID, limit, offset)
}

// ExpirePending cancels unpaid pending bookings older than ttl through the
// same Cancel entrypoint the handlers use, so slot release cannot be skipped.
func (s *Service) ExpirePending(ctx context.Context, ttl time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-ttl)
	expired, err := s.bookings.ListExpiredPending(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, b := range expired {
		if _, err := s.Cancel(ctx, domain.SystemActor(), b.ID, "booking expired before payment"); err != nil {
			s.logger.Error("failed to expire booking", zap.Int64("booking_id", b.ID), zap.Error(err))
			continue
		}
		n++
	}
	return n, nil
}

// getOwned loads a booking for a teacher-side action on it.
func (s *Service) getOwned(ctx context.Context, actor domain.Actor, id int64) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	if actor.IsAdmin() || actor.IsSystem() {
		return b, nil
	}
	if actor.Role == domain.RoleTeacher && actor.ID == b.TeacherID {
		return b, nil
	}
	return nil, ErrForbidden
}

func (s *Service) mayCancel(actor domain.Actor, b *domain.Booking) bool {
	if actor.IsAdmin() || actor.IsSystem() {
		return true
	}
	return actor.ID == b.StudentID || actor.ID == b.TeacherID
}

// transitionConflict re-reads the row to report current vs requested state.
func (s *Service) transitionConflict(ctx context.Context, id int64, requested domain.BookingStatus) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	if b.Status == requested {
		return b, nil
	}
	return nil, &InvalidTransitionError{Current: b.Status, Requested: requested}
}

func (s *Service) emit(ctx context.Context, ev domain.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Emit(ctx, ev); err != nil {
		s.logger.Warn("event emit failed", zap.String("type", string(ev.Type)), zap.Error(err))
	}
}

func counterparty(actor domain.Actor, b *domain.Booking) int64 {
	if actor.ID == b.StudentID {
		return b.TeacherID
	}
	return b.StudentID
}

func lastSessionEnd(b *domain.Booking) *time.Time {
	var last *time.Time
	for i := range b.Slots {
		end := b.Slots[i].EndTime
		if last == nil || end.After(*last) {
			last = &end
		}
	}
	return last
}

func missingIDs(requested []int64, found []domain.AvailabilitySlot) []int64 {
	seen := make(map[int64]bool, len(found))
	for _, s := range found {
		seen[s.ID] = true
	}
	var missing []int64
	for _, id := range requested {
		if !seen[id] {
			missing = append(missing, id)
		}
	}
	return missing
}

func rejectBody(reason string) string {
	if reason == "" {
		return "Your booking request was declined"
	}
	return "Your booking request was declined. Reason: " + reason
}

func cancelBody(reason string) string {
	if reason == "" {
		return "The booking was cancelled"
	}
	return "The booking was cancelled. Reason: " + reason
}
