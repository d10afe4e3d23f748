package booking

import (
	"errors"
	"fmt"

	"lessonbook/internal/domain"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("booking not found")
	ErrForbidden         = errors.New("actor may not act on this booking")
	ErrSlotConflict      = errors.New("slot no longer available")
	ErrInvalidTransition = errors.New("invalid booking transition")
)

// SlotConflictError names the slots that lost the reservation race so the
// caller can offer alternatives. errors.Is(err, ErrSlotConflict) matches.
type SlotConflictError struct {
	SlotIDs []int64
}

func (e *SlotConflictError) Error() string {
	return fmt.Sprintf("slots no longer available: %v", e.SlotIDs)
}

func (e *SlotConflictError) Is(target error) bool { return target == ErrSlotConflict }

// InvalidTransitionError identifies current vs requested state; stale-UI
// retries get a precise rejection instead of a silent ignore.
type InvalidTransitionError struct {
	Current   domain.BookingStatus
	Requested domain.BookingStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot move booking from %s to %s", e.Current, e.Requested)
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }
