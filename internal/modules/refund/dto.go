package refund

// RefundRequest asks for a partial or full refund. A nil AmountMinor means
// the full remaining captured amount.
type RefundRequest struct {
	AmountMinor *int64 `json:"amount_minor" binding:"omitempty,gt=0"`
	Reason      string `json:"reason" binding:"required"`
}
