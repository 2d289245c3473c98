// Package fulfill contains the order fulfillment pipeline: the
// per-conversation state machine, its validation gateway, the reply
// throttle, the lot availability manager, the balance guard and the
// issuance worker.
package fulfill

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tinechelovec/funpay-premium-bot/internal/domain"
	"github.com/tinechelovec/funpay-premium-bot/internal/store"
)

// OrderReader retrieves the full order record from the marketplace.
type OrderReader interface {
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
}

// Dispatcher consumes the ordered marketplace event stream and drives the
// conversation state machine. All state transitions happen on its single
// goroutine; only the terminal issuance step runs on the pool.
type Dispatcher struct {
	conversations *store.Conversations
	orders        OrderReader
	messenger     Messenger
	gateway       *Gateway
	throttle      *Throttle
	pool          *Pool
	issuer        *Issuer
	feed          ActivitySink
	selfID        int64
	subcategoryID int64
	logger        *slog.Logger
}

// DispatcherConfig bundles the dispatcher's collaborators.
type DispatcherConfig struct {
	Conversations *store.Conversations
	Orders        OrderReader
	Messenger     Messenger
	Gateway       *Gateway
	Throttle      *Throttle
	Pool          *Pool
	Issuer        *Issuer
	Feed          ActivitySink
	SelfID        int64
	SubcategoryID int64
	Logger        *slog.Logger
}

// NewDispatcher creates the fulfillment dispatcher.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	feed := cfg.Feed
	if feed == nil {
		feed = noopSink{}
	}
	return &Dispatcher{
		conversations: cfg.Conversations,
		orders:        cfg.Orders,
		messenger:     cfg.Messenger,
		gateway:       cfg.Gateway,
		throttle:      cfg.Throttle,
		pool:          cfg.Pool,
		issuer:        cfg.Issuer,
		feed:          feed,
		selfID:        cfg.SelfID,
		subcategoryID: cfg.SubcategoryID,
		logger:        cfg.Logger,
	}
}

// Run consumes events until the channel closes. No single event's failure
// ever stops the loop or touches another conversation's state.
func (d *Dispatcher) Run(ctx context.Context, events <-chan domain.Event) {
	// Issuance jobs outlive the loop context: once dispatched, a job is not
	// cancellable and relies on per-call HTTP timeouts only.
	jobCtx := context.WithoutCancel(ctx)

	for event := range events {
		d.handleEvent(ctx, jobCtx, event)
	}
}

func (d *Dispatcher) handleEvent(ctx, jobCtx context.Context, event domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("event handler panicked", "panic", r)
		}
	}()

	switch e := event.(type) {
	case domain.NewOrderEvent:
		d.handleOrder(ctx, e.Order)
	case domain.NewMessageEvent:
		d.handleMessage(ctx, jobCtx, e.Message)
	}
}

func (d *Dispatcher) handleOrder(ctx context.Context, order domain.Order) {
	d.logger.Info("new order",
		"order_id", order.ID,
		"buyer", order.BuyerUsername,
		"subcategory_id", order.SubcategoryID)

	subcatID := order.SubcategoryID
	full := &order
	if subcatID == 0 || order.Title == "" {
		fetched, err := d.orders.GetOrder(ctx, order.ID)
		if err != nil {
			d.logger.Error("failed to load full order", "order_id", order.ID, "error", err)
			return
		}
		full = fetched
		if subcatID == 0 {
			subcatID = full.SubcategoryID
		}
	}

	if d.subcategoryID != 0 && subcatID != d.subcategoryID {
		d.logger.Info("skipping non-premium order",
			"order_id", order.ID,
			"subcategory_id", subcatID,
			"want", d.subcategoryID)
		return
	}

	months := ExtractMonths(full.Title)
	d.logger.Info("premium order accepted", "order_id", full.ID, "months", months, "title", full.Title)

	d.say(ctx, full.ChatID, fmt.Sprintf(msgThanks, months))

	if prev := d.conversations.Lookup(full.ChatID, full.BuyerID); prev != nil {
		// Duplicate order for an in-progress conversation: last order wins.
		d.logger.Warn("replacing bound conversation", "order_id", prev.OrderID, "new_order_id", full.ID)
	}
	d.conversations.Bind(&domain.Conversation{
		BuyerID: full.BuyerID,
		ChatID:  full.ChatID,
		OrderID: full.ID,
		Months:  months,
		Phase:   domain.PhaseAwaitingNick,
	})
	d.feed.Publish(Activity{Kind: "order_accepted", ChatID: full.ChatID, OrderID: full.ID})
}

func (d *Dispatcher) handleMessage(ctx, jobCtx context.Context, msg domain.Message) {
	if msg.AuthorID == d.selfID {
		return
	}

	conv := d.conversations.Lookup(msg.ChatID, msg.AuthorID)
	if conv == nil {
		return
	}

	text := strings.TrimSpace(msg.Text)

	d.logger.Info("message for active conversation",
		"chat_id", msg.ChatID,
		"phase", string(conv.Phase),
		"order_id", conv.OrderID)

	switch conv.Phase {
	case domain.PhaseAwaitingNick:
		d.acceptNick(ctx, conv, text)

	case domain.PhaseAwaitingConfirm:
		if text == ConfirmToken {
			d.confirm(jobCtx, conv)
			return
		}
		// Any other text is treated as a replacement candidate; a valid one
		// overwrites the previous nick without leaving the confirm phase.
		d.acceptNick(ctx, conv, text)
	}
}

// acceptNick validates a candidate tag and advances the conversation to the
// confirm phase when it passes. Rejections keep the current phase.
func (d *Dispatcher) acceptNick(ctx context.Context, conv *domain.Conversation, text string) {
	status := d.gateway.CheckNick(ctx, text)
	switch {
	case !status.Exists:
		d.say(ctx, conv.ChatID, fmt.Sprintf(msgNickNotFound, text))
	case status.HasPremium:
		detail := status.Detail
		if detail == "" {
			detail = detailAfterAuth
		}
		d.say(ctx, conv.ChatID, fmt.Sprintf(msgAlreadyPremium, text, detail))
	default:
		conv.CandidateNick = text
		conv.Phase = domain.PhaseAwaitingConfirm
		d.say(ctx, conv.ChatID, fmt.Sprintf(msgConfirmNick, text))
	}
}

// confirm removes the conversation from the store and hands the issuance job
// to the pool. The synchronous removal is the sole defense against a
// duplicate "+" re-triggering issuance: by the time the worker starts, the
// state is already gone.
func (d *Dispatcher) confirm(jobCtx context.Context, conv *domain.Conversation) {
	popped := d.conversations.PopByChat(conv.ChatID)
	if popped == nil {
		return
	}

	job := IssueJob{
		ChatID:  popped.ChatID,
		OrderID: popped.OrderID,
		Nick:    trimNick(popped.CandidateNick),
		Months:  popped.Months,
	}
	d.feed.Publish(Activity{Kind: "confirmed", ChatID: job.ChatID, OrderID: job.OrderID, Detail: job.Nick})
	d.pool.Submit(func() {
		d.issuer.Issue(jobCtx, job)
	})
}

// say sends a throttled chat message; failures are logged and swallowed.
func (d *Dispatcher) say(ctx context.Context, chatID int64, text string) {
	d.throttle.Wait(ctx, chatID)
	if err := d.messenger.SendMessage(ctx, chatID, text); err != nil {
		d.logger.Warn("failed to send chat message", "chat_id", chatID, "error", err)
	}
}
