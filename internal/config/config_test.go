package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FUNPAY_AUTH_TOKEN", "golden")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.PremiumSubcategoryID != 1391 {
		t.Errorf("Expected default subcategory 1391, got %d", cfg.PremiumSubcategoryID)
	}
	if cfg.ReplyCooldown != time.Second {
		t.Errorf("Expected default cooldown 1s, got %v", cfg.ReplyCooldown)
	}
	if !cfg.AutoRefund || !cfg.AutoDeactivate {
		t.Error("Expected auto refund and auto deactivate on by default")
	}
	if cfg.MaxWorkers != 4 {
		t.Errorf("Expected 4 workers, got %d", cfg.MaxWorkers)
	}
	if cfg.Fragment.WalletVersion != "v4r2" {
		t.Errorf("Expected default wallet version v4r2, got %q", cfg.Fragment.WalletVersion)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("FUNPAY_AUTH_TOKEN", "golden")
	t.Setenv("REPLY_COOLDOWN_SECONDS", "0,5")
	t.Setenv("AUTO_REFUND", "off")
	t.Setenv("MAX_WORKERS", "0")
	t.Setenv("FRAGMENT_WALLET_VERSION", "W5R1/whatever")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ReplyCooldown != 500*time.Millisecond {
		t.Errorf("Expected 500ms cooldown, got %v", cfg.ReplyCooldown)
	}
	if cfg.AutoRefund {
		t.Error("Expected auto refund off")
	}
	if cfg.MaxWorkers != 1 {
		t.Errorf("Expected worker floor of 1, got %d", cfg.MaxWorkers)
	}
	if cfg.Fragment.WalletVersion != "w5" {
		t.Errorf("Expected wallet version w5, got %q", cfg.Fragment.WalletVersion)
	}
	if got := cfg.Fragment.AuthWalletVersion(); got != "W5" {
		t.Errorf("Expected auth version W5, got %q", got)
	}
}

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("FUNPAY_AUTH_TOKEN", "")

	if _, err := Load(); err == nil {
		t.Error("Expected an error for a missing marketplace token")
	}
}

func TestNormalizeWalletVersion(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"v4", "v4r2"},
		{"V4R2", "v4r2"},
		{"w5", "w5"},
		{"v5r1", "w5"},
		{"w5rlib", "w5"},
		{" v5 / beta ", "w5"},
		{"unknown", "v4r2"},
		{"", "v4r2"},
	}
	for _, tc := range cases {
		if got := NormalizeWalletVersion(tc.in); got != tc.want {
			t.Errorf("NormalizeWalletVersion(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
