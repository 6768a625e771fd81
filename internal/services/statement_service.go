package services

import (
	"context"
	"fmt"
	"time"

	"societyledger/internal/db"
	"societyledger/internal/models"
	"societyledger/internal/store"
	"societyledger/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// StatementService imports normalized bank-statement lines. Parsing the
// bank's CSV or PDF happens upstream; this service only sees the
// normalized record shape.
type StatementService struct {
	txRunner     db.TxRunner
	bankStore    BankStatementStore
	historyStore HistoryStore
	auditStore   AuditStore
	hub          EventHub
}

func NewStatementService(txRunner db.TxRunner, bankStore BankStatementStore, historyStore HistoryStore, auditStore AuditStore, hub EventHub) *StatementService {
	return &StatementService{
		txRunner:     txRunner,
		bankStore:    bankStore,
		historyStore: historyStore,
		auditStore:   auditStore,
		hub:          hub,
	}
}

// BankEntryRecord is the normalized inbound shape from the external
// statement importer. Amounts are signed minor units, credit-positive.
type BankEntryRecord struct {
	Date            time.Time
	Description     string
	AmountMinor     int64
	BalanceMinor    int64
	ReferenceNumber *string
}

// ImportEntries inserts each record unless its (date, description,
// amount) triple is already present; duplicates are skipped silently.
// Returns the number actually inserted. Zero is a normal outcome
// meaning "all duplicates". One history row summarizes the batch.
func (s *StatementService) ImportEntries(ctx context.Context, records []BankEntryRecord, importedBy string) (int, error) {
	imported := 0
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		imported = 0
		for _, record := range records {
			inserted, err := s.bankStore.InsertIgnoreDuplicate(ctx, tx, store.BankEntryInput{
				Date:            record.Date,
				Description:     record.Description,
				Amount:          record.AmountMinor,
				Balance:         record.BalanceMinor,
				ReferenceNumber: record.ReferenceNumber,
			})
			if err != nil {
				return fmt.Errorf("import statement entry: %w", err)
			}
			if inserted {
				imported++
			}
		}
		if imported == 0 {
			return nil
		}
		notes := fmt.Sprintf("Imported %d bank statement entries (%d duplicates skipped)", imported, len(records)-imported)
		if err := s.historyStore.Append(ctx, tx, uuid.NewString(), importedBy, notes); err != nil {
			return fmt.Errorf("record import batch: %w", err)
		}
		newData := mustJSON(map[string]any{"imported": imported, "received": len(records)})
		return s.auditStore.Log(ctx, tx, importedBy, "import_statement", "bank_statement_batch", uuid.NewString(), nil, &newData)
	})
	if err != nil {
		return 0, err
	}
	if imported > 0 {
		s.hub.Broadcast(websocket.Event{
			Type:   websocket.EventStatementImported,
			Entity: "bank_statement_entry",
			Detail: fmt.Sprintf("%d entries", imported),
		})
	}
	return imported, nil
}

func (s *StatementService) GetAll(ctx context.Context) ([]models.BankStatementEntry, error) {
	return s.bankStore.ListAll(ctx)
}

func (s *StatementService) GetByDateRange(ctx context.Context, start, end time.Time) ([]models.BankStatementEntry, error) {
	return s.bankStore.ListByDateRange(ctx, start, end)
}
