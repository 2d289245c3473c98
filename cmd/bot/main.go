// FunPay ↔ Fragment Premium fulfillment bot.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tinechelovec/funpay-premium-bot/internal/config"
	"github.com/tinechelovec/funpay-premium-bot/internal/fragment"
	"github.com/tinechelovec/funpay-premium-bot/internal/fulfill"
	"github.com/tinechelovec/funpay-premium-bot/internal/funpay"
	"github.com/tinechelovec/funpay-premium-bot/internal/ops"
	"github.com/tinechelovec/funpay-premium-bot/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Marketplace session.
	market := funpay.NewClient(cfg.FunPayToken, logger)
	if err := market.Fetch(ctx); err != nil {
		slog.Error("Failed to authorize on FunPay, check FUNPAY_AUTH_TOKEN", "error", err)
		os.Exit(1)
	}
	slog.Info("Authorized on FunPay", "username", market.Username())

	// Provisioning session: reuse a persisted token or authenticate fresh.
	frag := fragment.NewClient(cfg.Fragment, logger)
	if !frag.LoadToken() {
		if err := frag.Authenticate(ctx); err != nil {
			slog.Error("Failed to authenticate with Fragment", "error", err)
			os.Exit(1)
		}
	}

	printBanner(cfg)

	journal, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize fulfillment journal", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := journal.Close(); closeErr != nil {
			slog.Error("Failed to close fulfillment journal", "error", closeErr)
		}
	}()
	if err := journal.Ping(ctx); err != nil {
		slog.Error("Journal health check failed", "error", err)
		os.Exit(1)
	}

	conversations := store.NewConversations()
	throttle := fulfill.NewThrottle(cfg.ReplyCooldown)
	feed := ops.NewBroadcaster()

	keeper := fulfill.NewLotKeeper(market, logger, cfg.PremiumSubcategoryID, cfg.AutoDeactivate, cfg.DryRun)
	guard := fulfill.NewBalanceGuard(frag, keeper, cfg.Fragment.MinBalance, cfg.AutoDeactivate, logger)
	issuer := fulfill.NewIssuer(fulfill.IssuerConfig{
		Provisioner: frag,
		Messenger:   market,
		Refunder:    market,
		Guard:       guard,
		Throttle:    throttle,
		Journal:     journal,
		Feed:        feed,
		AutoRefund:  cfg.AutoRefund,
		Logger:      logger,
	})
	pool := fulfill.NewPool(cfg.MaxWorkers)

	dispatcher := fulfill.NewDispatcher(fulfill.DispatcherConfig{
		Conversations: conversations,
		Orders:        market,
		Messenger:     market,
		Gateway:       fulfill.NewGateway(frag, logger),
		Throttle:      throttle,
		Pool:          pool,
		Issuer:        issuer,
		Feed:          feed,
		SelfID:        market.UserID(),
		SubcategoryID: cfg.PremiumSubcategoryID,
		Logger:        logger,
	})

	// Ops surface: health, status, live feed.
	opsServer := ops.NewServer(conversations, journal, feed)
	srv := &http.Server{
		Addr:        cfg.OpsAddr,
		Handler:     opsServer.Router(),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}
	go func() {
		slog.Info("Ops server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Ops server failed", "error", err)
		}
	}()

	slog.Info("Bot started, waiting for FunPay events")
	runner := funpay.NewRunner(market)
	dispatcher.Run(ctx, runner.Events(ctx))

	slog.Info("Shutting down gracefully...")
	pool.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Ops server forced to shutdown", "error", err)
	}

	slog.Info("Bot stopped")
}

func printBanner(cfg *config.Config) {
	border := "======================================================================"
	fmt.Println(border)
	fmt.Println("FunPay ↔ Fragment Premium Bot")
	fmt.Println(border)
	fmt.Println("Создатель: @tinechelovec")
	fmt.Println("  → https://t.me/tinechelovec")
	fmt.Println("Канал с ботами/плагинами:\n  → https://t.me/by_thc")
	fmt.Println("GitHub проекта:\n  → https://github.com/tinechelovec/funpay-premium-bot")
	fmt.Println("")
	fmt.Printf("Версия кошелька (auth):  %s\n", cfg.Fragment.AuthWalletVersion())
	fmt.Printf("Версия кошелька (order): %s\n", cfg.Fragment.WalletVersion)
	fmt.Println("")
	fmt.Println("!!! БОТ БЕСПЛАТНЫЙ И ОТКРЫТЫЙ. Автор не продаёт этого бота. !!!")
	fmt.Println(border)
}
