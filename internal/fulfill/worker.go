package fulfill

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/tinechelovec/funpay-premium-bot/internal/domain"
	"github.com/tinechelovec/funpay-premium-bot/internal/fragment"
	"github.com/tinechelovec/funpay-premium-bot/internal/store"
)

// Messenger sends chat messages on the marketplace.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Refunder refunds a marketplace order back to the buyer.
type Refunder interface {
	Refund(ctx context.Context, orderID string) error
}

// Provisioner is the slice of the provisioning API the issuer consumes.
type Provisioner interface {
	OrderPremium(ctx context.Context, username string, months int) error
}

// IssueJob carries everything needed to fulfill one confirmed order. The
// conversation state is already gone from the store when the job runs.
type IssueJob struct {
	ChatID  int64
	OrderID string
	Nick    string
	Months  int
}

// Issuer executes the terminal delivery step: issue Premium, or fall back to
// a refund. Every outbound message is throttled and best-effort; a failed
// send never aborts the remaining steps.
type Issuer struct {
	provisioner Provisioner
	messenger   Messenger
	refunder    Refunder
	guard       *BalanceGuard
	throttle    *Throttle
	journal     store.Journal
	feed        ActivitySink
	autoRefund  bool
	logger      *slog.Logger
}

// IssuerConfig bundles the issuer's collaborators.
type IssuerConfig struct {
	Provisioner Provisioner
	Messenger   Messenger
	Refunder    Refunder
	Guard       *BalanceGuard
	Throttle    *Throttle
	Journal     store.Journal
	Feed        ActivitySink
	AutoRefund  bool
	Logger      *slog.Logger
}

// NewIssuer creates an issuance worker.
func NewIssuer(cfg IssuerConfig) *Issuer {
	feed := cfg.Feed
	if feed == nil {
		feed = noopSink{}
	}
	return &Issuer{
		provisioner: cfg.Provisioner,
		messenger:   cfg.Messenger,
		refunder:    cfg.Refunder,
		guard:       cfg.Guard,
		throttle:    cfg.Throttle,
		journal:     cfg.Journal,
		feed:        feed,
		autoRefund:  cfg.AutoRefund,
		logger:      cfg.Logger,
	}
}

// Issue runs one fulfillment job to its terminal outcome.
func (i *Issuer) Issue(ctx context.Context, job IssueJob) {
	jobID := uuid.NewString()
	log := i.logger.With("job_id", jobID, "order_id", job.OrderID, "nick", job.Nick, "months", job.Months)
	log.Info("issuing premium")

	i.say(ctx, job.ChatID, fmt.Sprintf(msgIssuing, job.Months, job.Nick))

	err := i.provisioner.OrderPremium(ctx, job.Nick, job.Months)
	if err == nil {
		i.say(ctx, job.ChatID, fmt.Sprintf(msgIssued, job.Months, job.Nick))
		log.Info("premium issued")
		i.record(ctx, job, domain.OutcomeIssued, "")
		i.publish("issued", job, "")
		return
	}

	errText := fragment.ErrorBody(err)
	log.Error("issuance failed", "error", err)
	i.say(ctx, job.ChatID, msgIssueFailed)

	if IsInsufficientFunds(errText) {
		i.guard.CheckAndMaybeDisable(ctx)
	}

	if !i.autoRefund {
		i.say(ctx, job.ChatID, msgRefundDisabled)
		i.record(ctx, job, domain.OutcomeRefundDisabled, errText)
		i.publish("refund_disabled", job, errText)
		return
	}

	i.say(ctx, job.ChatID, msgTryingRefund)
	i.refund(ctx, job, log, errText)
}

func (i *Issuer) refund(ctx context.Context, job IssueJob, log *slog.Logger, issueErr string) {
	if err := i.refunder.Refund(ctx, job.OrderID); err != nil {
		log.Error("refund failed", "error", err)
		i.say(ctx, job.ChatID, msgRefundFailed)
		i.record(ctx, job, domain.OutcomeRefundFailed, issueErr)
		i.publish("refund_failed", job, issueErr)
		return
	}
	log.Info("refund completed")
	i.say(ctx, job.ChatID, msgRefunded)
	i.say(ctx, job.ChatID, msgRefundNotice)
	i.record(ctx, job, domain.OutcomeRefunded, issueErr)
	i.publish("refunded", job, issueErr)
}

// say sends a throttled chat message; failures are logged and swallowed.
func (i *Issuer) say(ctx context.Context, chatID int64, text string) {
	i.throttle.Wait(ctx, chatID)
	if err := i.messenger.SendMessage(ctx, chatID, text); err != nil {
		i.logger.Warn("failed to send chat message", "chat_id", chatID, "error", err)
	}
}

func (i *Issuer) record(ctx context.Context, job IssueJob, outcome domain.Outcome, detail string) {
	if i.journal == nil {
		return
	}
	entry := &domain.JournalEntry{
		OrderID: job.OrderID,
		Nick:    job.Nick,
		Months:  job.Months,
		Outcome: outcome,
		Detail:  truncate(detail, 500),
	}
	if err := i.journal.Record(ctx, entry); err != nil {
		i.logger.Warn("failed to record fulfillment outcome", "order_id", job.OrderID, "error", err)
	}
}

func (i *Issuer) publish(kind string, job IssueJob, detail string) {
	i.feed.Publish(Activity{
		Kind:    kind,
		ChatID:  job.ChatID,
		OrderID: job.OrderID,
		Detail:  truncate(detail, 200),
	})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := s[:n]
	// Don't split a multibyte rune.
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut + "…"
}
