package store

import "context"

// AuditStore owns the audit_logs table: before/after value pairs for
// every state-changing operation, written in the same transaction as
// the change itself.
type AuditStore struct {
	db DB
}

type auditRow struct {
	ID         string  `db:"id"`
	ActingUser string  `db:"acting_user"`
	Action     string  `db:"action"`
	EntityType string  `db:"entity_type"`
	EntityID   string  `db:"entity_id"`
	OldData    *string `db:"old_data"`
	NewData    *string `db:"new_data"`
	CreatedAt  any     `db:"created_at"`
}

func NewAuditStore(db DB) *AuditStore {
	return &AuditStore{db: db}
}

func (s *AuditStore) Log(ctx context.Context, tx Execer, actingUser, action, entityType, entityID string, oldData, newData *string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO audit_logs (id, acting_user, action, entity_type, entity_id, old_data, new_data)
		VALUES (gen_random_uuid()::text, $1, $2, $3, $4, $5, $6)
	`, actingUser, action, entityType, entityID, oldData, newData)
	return err
}

func (s *AuditStore) List(ctx context.Context, limit, offset int) ([]map[string]any, error) {
	var rows []auditRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, acting_user, action, entity_type, entity_id, old_data, new_data, created_at
		FROM audit_logs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	logs := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		logs = append(logs, map[string]any{
			"id":          row.ID,
			"acting_user": row.ActingUser,
			"action":      row.Action,
			"entity_type": row.EntityType,
			"entity_id":   row.EntityID,
			"old_data":    derefStringPtr(row.OldData),
			"new_data":    derefStringPtr(row.NewData),
			"created_at":  row.CreatedAt,
		})
	}
	return logs, nil
}

func derefStringPtr(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
