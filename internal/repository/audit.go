package repository

import (
	"context"
	"encoding/json"

	"github.com/jmoiron/sqlx"

	"github.com/opsdesk/admin-console-go/internal/model"
)

// AuditLogRepository is deliberately append-and-read only. The audit log has
// no update or delete path from this service.
type AuditLogRepository interface {
	Insert(ctx context.Context, entry model.AuditEntry) error
	FindByAdminID(ctx context.Context, adminID string, limit, offset int) ([]model.AuditEntry, error)
}

type auditLogRepo struct {
	db *sqlx.DB
}

func NewAuditLogRepository(db *sqlx.DB) AuditLogRepository {
	return &auditLogRepo{db: db}
}

func (r *auditLogRepo) Insert(ctx context.Context, entry model.AuditEntry) error {
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, admin_id, target_user_id, action, route, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, entry.ID, entry.AdminID, entry.TargetUserID, entry.Action, entry.Route, metadata)
	return err
}

func (r *auditLogRepo) FindByAdminID(ctx context.Context, adminID string, limit, offset int) ([]model.AuditEntry, error) {
	rows := []struct {
		model.AuditEntry
		RawMetadata []byte `db:"metadata"`
	}{}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM audit_log
		WHERE admin_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, adminID, limit, offset)
	if err != nil {
		return nil, err
	}

	entries := make([]model.AuditEntry, 0, len(rows))
	for _, row := range rows {
		entry := row.AuditEntry
		if len(row.RawMetadata) > 0 {
			json.Unmarshal(row.RawMetadata, &entry.Metadata)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
