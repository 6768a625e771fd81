package handlers

import (
	"net/http"

	"societyledger/internal/config"
	"societyledger/internal/middleware"
	"societyledger/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handler struct {
	cfg            config.Config
	ledger         LedgerService
	reversals      ReversalService
	statements     StatementService
	reconciliation ReconciliationService
	audit          AuditReader
	hub            *websocket.Hub
}

func New(cfg config.Config, ledger LedgerService, reversals ReversalService, statements StatementService, reconciliation ReconciliationService, audit AuditReader, hub *websocket.Hub) *Handler {
	return &Handler{
		cfg:            cfg,
		ledger:         ledger,
		reversals:      reversals,
		statements:     statements,
		reconciliation: reconciliation,
		audit:          audit,
		hub:            hub,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Logger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Group(func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))

		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", h.AddTransaction)
			r.Get("/", h.ListTransactions)
			r.Get("/summary", h.LedgerSummary)
			r.Post("/recalculate", h.RecalculateBalances)
			r.Delete("/{transactionID}", h.DeleteTransaction)
			r.Get("/{transactionID}/can-reverse", h.CanReverse)
			r.Get("/{transactionID}/reversal", h.GetReversal)
			r.Post("/{transactionID}/reverse", h.ReverseTransaction)
		})

		r.Route("/statements", func(r chi.Router) {
			r.Post("/import", h.ImportStatement)
			r.Get("/", h.ListStatementEntries)
		})

		r.Route("/reconciliation", func(r chi.Router) {
			r.Get("/matches", h.FindMatches)
			r.Get("/suggestions", h.SuggestMatches)
			r.Post("/auto-match", h.AutoMatch)
			r.Post("/match", h.MarkMatched)
			r.Post("/unmatch", h.Unmatch)
			r.Get("/summary", h.ReconciliationSummary)
			r.Get("/history", h.ReconciliationHistory)
		})

		r.Get("/audit", h.ListAuditLogs)
	})

	router.Get("/ws/events", h.WSEvents)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}
