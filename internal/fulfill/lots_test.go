package fulfill

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"github.com/tinechelovec/funpay-premium-bot/internal/domain"
	"github.com/tinechelovec/funpay-premium-bot/internal/funpay"
)

func newTestKeeper(market LotManager, autoDeactivate, dryRun bool) *LotKeeper {
	k := NewLotKeeper(market, slog.Default(), 1391, autoDeactivate, dryRun)
	k.retryBackoff = 0
	k.interCallDelay = 0
	return k
}

func TestSetActiveNoOpWhenAlreadyMatching(t *testing.T) {
	t.Parallel()

	market := newFakeMarket()
	market.fields[7] = &domain.LotFields{LotID: 7, Active: false}
	keeper := newTestKeeper(market, true, false)

	if !keeper.SetActive(context.Background(), domain.Lot{ID: 7, Title: "Premium 3"}, false) {
		t.Fatal("Expected no-op success")
	}
	if market.saveCalls != 0 {
		t.Errorf("Expected no save calls, got %d", market.saveCalls)
	}
}

func TestSetActiveDryRunMutatesNothing(t *testing.T) {
	t.Parallel()

	market := newFakeMarket()
	market.fields[7] = &domain.LotFields{LotID: 7, Active: true}
	keeper := newTestKeeper(market, true, true)

	if !keeper.SetActive(context.Background(), domain.Lot{ID: 7}, false) {
		t.Fatal("Expected dry-run success")
	}
	if market.saveCalls != 0 {
		t.Errorf("Expected no save calls in dry run, got %d", market.saveCalls)
	}
	if !market.fields[7].Active {
		t.Error("Dry run must not flip the lot")
	}
}

func TestSetActiveRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	market := newFakeMarket()
	market.getErr = errors.New("temporarily unavailable")
	keeper := newTestKeeper(market, true, false)

	if keeper.SetActive(context.Background(), domain.Lot{ID: 7}, false) {
		t.Fatal("Expected failure after exhausted retries")
	}
	if market.getCalls != 3 {
		t.Errorf("Expected exactly 3 attempts, got %d", market.getCalls)
	}
}

func TestSetActiveNotFoundIsTerminal(t *testing.T) {
	t.Parallel()

	market := newFakeMarket()
	market.getErr = &funpay.StatusError{Code: http.StatusNotFound}
	keeper := newTestKeeper(market, true, false)

	if keeper.SetActive(context.Background(), domain.Lot{ID: 7}, false) {
		t.Fatal("Expected failure on 404")
	}
	if market.getCalls != 1 {
		t.Errorf("Expected exactly 1 attempt on 404, got %d", market.getCalls)
	}
}

func TestDeactivateAllFlipsOnlyActiveLots(t *testing.T) {
	t.Parallel()

	market := newFakeMarket()
	market.lots = []domain.Lot{
		{ID: 1, Title: "Premium 3 мес"},
		{ID: 2, Title: "Premium 6 мес"},
		{ID: 3, Title: "Premium 12 мес"},
	}
	market.fields[1] = &domain.LotFields{LotID: 1, Active: true}
	market.fields[2] = &domain.LotFields{LotID: 2, Active: false}
	market.fields[3] = &domain.LotFields{LotID: 3, Active: true}
	keeper := newTestKeeper(market, true, false)

	affected := keeper.DeactivateAll(context.Background())

	if len(affected) != 2 {
		t.Fatalf("Expected 2 deactivated lots, got %d: %v", len(affected), affected)
	}
	if market.activeCount() != 0 {
		t.Errorf("Expected all lots inactive, %d still active", market.activeCount())
	}
}

func TestDeactivateAllDisabledIsNoOp(t *testing.T) {
	t.Parallel()

	market := newFakeMarket()
	market.lots = []domain.Lot{{ID: 1, Title: "Premium"}}
	market.fields[1] = &domain.LotFields{LotID: 1, Active: true}
	keeper := newTestKeeper(market, false, false)

	if affected := keeper.DeactivateAll(context.Background()); affected != nil {
		t.Errorf("Expected nil from disabled deactivation, got %v", affected)
	}
	if market.saveCalls != 0 {
		t.Errorf("Expected no mutations, got %d saves", market.saveCalls)
	}
}

func TestDeactivateAllFallsBackToCategoryScan(t *testing.T) {
	t.Parallel()

	market := newFakeMarket()
	market.listErr = errors.New("listing endpoint down")
	market.cats = []domain.Category{
		{ID: 1, Subcategories: []domain.Subcategory{
			{ID: 1391, Lots: []domain.Lot{{ID: 5, Title: "Premium 6 мес"}}},
			{ID: 42, Lots: []domain.Lot{{ID: 6, Title: "Other"}}},
		}},
	}
	market.fields[5] = &domain.LotFields{LotID: 5, Active: true}
	keeper := newTestKeeper(market, true, false)

	affected := keeper.DeactivateAll(context.Background())
	if len(affected) != 1 {
		t.Fatalf("Expected 1 deactivated lot via fallback, got %v", affected)
	}
	if market.fields[5].Active {
		t.Error("Expected lot 5 to be deactivated")
	}
}
