package fulfill

import (
	"context"
	"log/slog"
	"strings"

	"github.com/tinechelovec/funpay-premium-bot/internal/fragment"
)

// NickStatus is the gateway's decision about a buyer-supplied identifier.
type NickStatus struct {
	Exists     bool
	HasPremium bool
	Detail     string
}

// UserChecker is the provisioning lookup the gateway delegates to.
type UserChecker interface {
	CheckUser(ctx context.Context, username string) (fragment.UserStatus, error)
}

// Gateway wraps the provisioning identity check into the single decision the
// state machine branches on. A failed lookup resolves to "does not exist":
// the bot never issues against an unverifiable nick.
type Gateway struct {
	checker UserChecker
	logger  *slog.Logger
}

// NewGateway creates a validation gateway.
func NewGateway(checker UserChecker, logger *slog.Logger) *Gateway {
	return &Gateway{checker: checker, logger: logger}
}

// CheckNick validates a candidate Telegram tag.
func (g *Gateway) CheckNick(ctx context.Context, text string) NickStatus {
	nick := strings.TrimSpace(text)
	if nick == "" {
		return NickStatus{}
	}

	status, err := g.checker.CheckUser(ctx, nick)
	if err != nil {
		g.logger.Warn("nick lookup failed, treating as not found", "nick", nick, "error", err)
		return NickStatus{}
	}
	return NickStatus{
		Exists:     status.Exists,
		HasPremium: status.HasPremium,
		Detail:     status.Detail,
	}
}

// trimNick strips surrounding whitespace and the leading @ from a tag.
func trimNick(nick string) string {
	return strings.TrimLeft(strings.TrimSpace(nick), "@")
}
