package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"societyledger/internal/config"
	"societyledger/internal/db"
	"societyledger/internal/handlers"
	"societyledger/internal/matching"
	"societyledger/internal/services"
	"societyledger/internal/store"
	"societyledger/internal/websocket"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	cfg := config.Load()
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	ledgerStore := store.NewLedgerStore(database)
	reversalStore := store.NewReversalStore(database)
	bankStore := store.NewBankStatementStore(database)
	historyStore := store.NewHistoryStore(database)
	auditStore := store.NewAuditStore(database)
	txRunner := db.NewTxRunner(database)
	hub := websocket.NewHub()

	ledgerService := services.NewLedgerService(txRunner, ledgerStore, reversalStore, auditStore, hub)
	reversalService := services.NewReversalService(txRunner, ledgerService, ledgerStore, reversalStore, auditStore, hub)
	statementService := services.NewStatementService(txRunner, bankStore, historyStore, auditStore, hub)
	reconciliationService := services.NewReconciliationService(txRunner, ledgerStore, bankStore, historyStore, auditStore, hub, services.MatchDefaults{
		Tolerances: matching.Tolerances{
			DateDays:    cfg.DateToleranceDays,
			AmountMinor: cfg.AmountToleranceMinor,
		},
		AutoMatchMinScore: cfg.AutoMatchMinScore,
		SuggestMinScore:   cfg.SuggestMinScore,
		MaxSuggestions:    cfg.MaxSuggestions,
	})

	handler := handlers.New(cfg, ledgerService, reversalService, statementService, reconciliationService, auditStore, hub)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("society ledger API listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
