// Package websocket pushes ledger and reconciliation events to
// connected bookkeeping clients so open screens refresh without polling.
package websocket

import (
	"encoding/json"
	"sync"
)

const (
	EventTransactionAdded     = "transaction_added"
	EventTransactionDeleted   = "transaction_deleted"
	EventTransactionReversed  = "transaction_reversed"
	EventStatementImported    = "statement_imported"
	EventEntryMatched         = "entry_matched"
	EventEntryUnmatched       = "entry_unmatched"
	EventBalancesRecalculated = "balances_recalculated"
)

type Event struct {
	Type   string `json:"type"`
	Entity string `json:"entity,omitempty"`
	ID     string `json:"id,omitempty"`
	Detail string `json:"detail,omitempty"`
}

type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = struct{}{}
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, client)
}

// Broadcast fans the event out to every connected client. Slow clients
// are skipped rather than blocking the caller.
func (h *Hub) Broadcast(event Event) {
	payload, _ := json.Marshal(event)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
		}
	}
}
