package fulfill

import (
	"context"
	"log/slog"
	"strings"
)

// BalanceQuerier reports the provisioning account's remaining funds.
type BalanceQuerier interface {
	Balance(ctx context.Context) (float64, error)
}

// BalanceGuard is the low-balance circuit breaker: after an issuance failure
// that looks like insufficient funds, it checks the wallet and proactively
// deactivates the sale lots when the balance is below the threshold. It is
// never invoked on a schedule.
type BalanceGuard struct {
	wallet         BalanceQuerier
	lots           *LotKeeper
	minBalance     float64
	autoDeactivate bool
	logger         *slog.Logger
}

// NewBalanceGuard creates a balance guard.
func NewBalanceGuard(wallet BalanceQuerier, lots *LotKeeper, minBalance float64, autoDeactivate bool, logger *slog.Logger) *BalanceGuard {
	return &BalanceGuard{
		wallet:         wallet,
		lots:           lots,
		minBalance:     minBalance,
		autoDeactivate: autoDeactivate,
		logger:         logger,
	}
}

// CheckAndMaybeDisable queries the balance and triggers mass deactivation
// when it is below the configured minimum.
func (g *BalanceGuard) CheckAndMaybeDisable(ctx context.Context) {
	balance, err := g.wallet.Balance(ctx)
	if err != nil {
		// An unreadable balance counts as empty.
		g.logger.Error("balance query failed, assuming empty wallet", "error", err)
		balance = 0
	}
	g.logger.Warn("balance at issuance failure", "ton", balance)

	if balance < g.minBalance && g.autoDeactivate {
		g.logger.Warn("balance below threshold, deactivating lots", "ton", balance, "min", g.minBalance)
		g.lots.DeactivateAll(ctx)
	}
}

// IsInsufficientFunds reports whether a provider error text looks like an
// insufficient-funds condition. The heuristic is substring-based and
// deliberately isolated here so a structured error code can replace it.
func IsInsufficientFunds(errText string) bool {
	lower := strings.ToLower(errText)
	return strings.Contains(lower, "not enough funds") ||
		strings.Contains(lower, "недостаточно средств")
}
