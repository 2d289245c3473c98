package fulfill

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tinechelovec/funpay-premium-bot/internal/domain"
	"github.com/tinechelovec/funpay-premium-bot/internal/funpay"
)

const (
	lotAttempts       = 3
	lotRetryBackoff   = time.Second
	lotInterCallDelay = 400 * time.Millisecond
)

// LotManager is the slice of the marketplace client the keeper consumes.
type LotManager interface {
	MySubcategoryLots(ctx context.Context, subcategoryID int64) ([]domain.Lot, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	GetLotFields(ctx context.Context, lotID int64) (*domain.LotFields, error)
	SaveLotFields(ctx context.Context, fields *domain.LotFields) error
}

// LotKeeper toggles sale listing availability with bounded retries. It never
// creates or deletes lots, only flips their activation flag.
type LotKeeper struct {
	market         LotManager
	logger         *slog.Logger
	subcategoryID  int64
	autoDeactivate bool
	dryRun         bool

	// Shortened by tests; production uses the defaults above.
	retryBackoff   time.Duration
	interCallDelay time.Duration
}

// NewLotKeeper creates a lot availability manager.
func NewLotKeeper(market LotManager, logger *slog.Logger, subcategoryID int64, autoDeactivate, dryRun bool) *LotKeeper {
	return &LotKeeper{
		market:         market,
		logger:         logger,
		subcategoryID:  subcategoryID,
		autoDeactivate: autoDeactivate,
		dryRun:         dryRun,
		retryBackoff:   lotRetryBackoff,
		interCallDelay: lotInterCallDelay,
	}
}

// SetActive flips a lot into the requested activation state. A lot already in
// that state is a no-op success. Transient failures are retried up to 3
// attempts with a fixed backoff; a 404 is terminal and fails immediately.
func (k *LotKeeper) SetActive(ctx context.Context, lot domain.Lot, active bool) bool {
	for attempt := 1; attempt <= lotAttempts; attempt++ {
		ok, retryable := k.trySetActive(ctx, lot, active)
		if ok {
			return true
		}
		if !retryable {
			return false
		}
		if attempt < lotAttempts {
			time.Sleep(k.retryBackoff)
		}
	}
	k.logger.Error("lot state change exhausted retries", "lot_id", lot.ID, "active", active)
	return false
}

func (k *LotKeeper) trySetActive(ctx context.Context, lot domain.Lot, active bool) (ok, retryable bool) {
	fields, err := k.market.GetLotFields(ctx, lot.ID)
	if err != nil {
		return false, k.classify(lot.ID, err)
	}
	if fields.Active == active {
		k.logger.Info("lot already in requested state", "lot_id", lot.ID, "title", lot.Title, "active", active)
		return true, false
	}
	if k.dryRun {
		k.logger.Warn("dry run: skipping lot state change", "lot_id", lot.ID, "active", active)
		return true, false
	}

	fields.Active = active
	if err := k.market.SaveLotFields(ctx, fields); err != nil {
		return false, k.classify(lot.ID, err)
	}
	k.logger.Warn("lot state changed", "lot_id", lot.ID, "title", lot.Title, "active", active)
	return true, false
}

func (k *LotKeeper) classify(lotID int64, err error) (retryable bool) {
	if funpay.IsNotFound(err) {
		k.logger.Error("lot not found", "lot_id", lotID)
		return false
	}
	k.logger.Error("lot state change failed", "lot_id", lotID, "error", err)
	return true
}

// DeactivateAll flips every active lot in the configured subcategory to
// inactive and returns the titles of the lots it deactivated. Disabled
// configuration or an unset subcategory is a logged no-op.
func (k *LotKeeper) DeactivateAll(ctx context.Context) []string {
	if !k.autoDeactivate {
		k.logger.Info("lot auto-deactivation is disabled")
		return nil
	}
	if k.subcategoryID == 0 {
		k.logger.Error("PREMIUM_SUBCATEGORY_ID is not set, cannot deactivate lots")
		return nil
	}

	k.logger.Warn("deactivating lots", "subcategory_id", k.subcategoryID)
	lots := k.listLots(ctx)
	if len(lots) == 0 {
		k.logger.Warn("no lots found in subcategory", "subcategory_id", k.subcategoryID)
		return nil
	}

	var affected []string
	for _, lot := range lots {
		fields, err := k.market.GetLotFields(ctx, lot.ID)
		if err != nil {
			k.logger.Error("failed to read lot fields", "lot_id", lot.ID, "error", err)
			continue
		}
		if !fields.Active {
			k.logger.Info("lot already inactive", "lot_id", lot.ID, "title", lot.Title)
			continue
		}
		if k.SetActive(ctx, lot, false) {
			affected = append(affected, fmt.Sprintf("%s (id=%d)", lot.Title, lot.ID))
		}
		// Courtesy pause between mutation calls.
		time.Sleep(k.interCallDelay)
	}

	if len(affected) > 0 {
		k.logger.Warn("lots deactivated", "count", len(affected), "lots", affected)
	} else {
		k.logger.Info("no active lots required deactivation")
	}
	return affected
}

// listLots tries the direct subcategory listing first and falls back to
// scanning the full category tree.
func (k *LotKeeper) listLots(ctx context.Context) []domain.Lot {
	lots, err := k.market.MySubcategoryLots(ctx, k.subcategoryID)
	if err == nil {
		k.logger.Info("listed subcategory lots", "subcategory_id", k.subcategoryID, "count", len(lots))
		return lots
	}
	k.logger.Error("subcategory listing failed, falling back to category scan", "error", err)

	cats, err := k.market.Categories(ctx)
	if err != nil {
		k.logger.Error("category scan fallback failed", "error", err)
		return nil
	}
	var out []domain.Lot
	for _, cat := range cats {
		for _, sub := range cat.Subcategories {
			if sub.ID == k.subcategoryID {
				out = append(out, sub.Lots...)
			}
		}
	}
	k.logger.Info("category scan found lots", "subcategory_id", k.subcategoryID, "count", len(out))
	return out
}
