package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/moneysplitter/backend/internal/adapters"
	"github.com/moneysplitter/backend/internal/config"
	"github.com/moneysplitter/backend/internal/expense"
	"github.com/moneysplitter/backend/internal/server"
	"github.com/moneysplitter/backend/internal/settlement"
	"github.com/moneysplitter/backend/internal/storage/sqlite"
	"github.com/moneysplitter/backend/pkg/logging"
)

func main() {
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	payments := adapters.NewPaymentClient(cfg.PaymentBaseURL, cfg.PaymentAPIKey, cfg.AdapterTimeout)

	// Pinning and ledger are optional enrichment; leave them nil when the
	// relay is not configured.
	var pinner adapters.ContentPinner
	var ledger adapters.LedgerClient
	if cfg.LedgerBaseURL != "" {
		pinner = adapters.NewPinningClient(cfg.PinningBaseURL, cfg.PinningAPIKey, cfg.AdapterTimeout)
		ledger = adapters.NewLedgerRelayClient(cfg.LedgerBaseURL, cfg.LedgerAPIKey, cfg.AdapterTimeout)
		slog.Info("Ledger enrichment enabled", "relay", cfg.LedgerBaseURL)
	}

	manager := expense.NewManager(store, payments, pinner, ledger, expense.Options{
		RequirePayerShare: cfg.RequirePayerShare,
	})
	tracker := settlement.NewTracker(store)

	srv := server.New(store, manager, tracker)

	slog.Info("Server starting", "address", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, srv.Handler()); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
