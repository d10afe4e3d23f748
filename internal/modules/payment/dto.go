package payment

type OpenPaymentRequest struct {
	BookingID int64 `json:"booking_id" binding:"required"`
}

// WebhookPayload is the gateway callback body. The transaction id is the one
// recorded before the charge went out; redeliveries carry the same id.
type WebhookPayload struct {
	TransactionID string `json:"transaction_id" binding:"required"`
	Status        string `json:"status" binding:"required,oneof=succeeded failed"`
	Reason        string `json:"reason"`
}

type WebhookAck struct {
	TransactionID string `json:"transaction_id"`
	Applied       bool   `json:"applied"`
	Status        string `json:"status"`
}
