package domain

// EventType names the domain events the core emits. Delivery (real-time
// channel, polling fallback, retries) is the notification collaborator's
// concern; the core only calls Emit.
type EventType string

const (
	EventBookingCreated   EventType = "booking.created"
	EventBookingConfirmed EventType = "booking.confirmed"
	EventBookingApproved  EventType = "booking.approved"
	EventBookingCompleted EventType = "booking.completed"
	EventBookingCancelled EventType = "booking.cancelled"
	EventPaymentCompleted EventType = "payment.completed"
	EventPaymentFailed    EventType = "payment.failed"
	EventPaymentRefunded  EventType = "payment.refunded"
)

// Event is what the core hands to the EventEmitter. RecipientID selects the
// inbox; Data is a small flat payload (ids, amounts, reason).
type Event struct {
	Type        EventType
	RecipientID int64
	Title       string
	Body        string
	Data        map[string]any
}
