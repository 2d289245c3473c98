package domain

import "time"

// Outcome is the terminal result recorded for an order.
type Outcome string

const (
	// OutcomeIssued means the Premium order went through.
	OutcomeIssued Outcome = "issued"
	// OutcomeRefunded means issuance failed and the refund succeeded.
	OutcomeRefunded Outcome = "refunded"
	// OutcomeRefundFailed means issuance failed and so did the refund.
	OutcomeRefundFailed Outcome = "refund_failed"
	// OutcomeRefundDisabled means issuance failed and auto-refund is off.
	OutcomeRefundDisabled Outcome = "refund_disabled"
)

// JournalEntry is one terminal fulfillment outcome, kept for auditing. The
// journal is an append-only log, not conversation recovery state.
type JournalEntry struct {
	ID        int64     `json:"id"`
	OrderID   string    `json:"order_id"`
	Nick      string    `json:"nick"`
	Months    int       `json:"months"`
	Outcome   Outcome   `json:"outcome"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
