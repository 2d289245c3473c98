// Package domain contains the core entities of the fulfillment pipeline.
package domain

// Phase represents a conversation's position in the purchase flow.
type Phase string

const (
	// PhaseAwaitingNick indicates the bot is waiting for the buyer's Telegram tag.
	PhaseAwaitingNick Phase = "awaiting_nick"
	// PhaseAwaitingConfirm indicates a candidate nick was accepted and the bot
	// is waiting for the "+" confirmation.
	PhaseAwaitingConfirm Phase = "awaiting_confirm"
)

// Conversation is the per-buyer state of an active purchase flow.
// At most one exists per buyer and per chat at any time.
type Conversation struct {
	BuyerID       int64
	ChatID        int64
	OrderID       string
	Months        int
	Phase         Phase
	CandidateNick string
}
