package availability

import "errors"

var (
	ErrValidation = errors.New("validation error")
	ErrForbidden  = errors.New("actor may not manage this teacher's slots")
	ErrNotFound   = errors.New("slot not found")
	// ErrSlotExists: a slot for the same (teacher, date, window) already exists.
	ErrSlotExists = errors.New("slot already published for this window")
)
