package audit

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/opsdesk/admin-console-go/internal/model"
	"github.com/opsdesk/admin-console-go/internal/repository"
)

// Sink accepts append-only audit entries. Implementations must never mutate
// or remove entries; callers treat Append failures as observability gaps,
// not operation failures.
type Sink interface {
	Append(ctx context.Context, entry model.AuditEntry) error
}

// LogSink writes audit entries to the structured log. Used standalone in
// development and as the mirror inside DBSink.
type LogSink struct{}

func NewLogSink() *LogSink {
	return &LogSink{}
}

func (s *LogSink) Append(ctx context.Context, entry model.AuditEntry) error {
	logEntry(entry).Msg("security audit event")
	return nil
}

// DBSink persists entries to the audit_log table and mirrors each one to the
// structured log so operators see impersonation activity in both places.
type DBSink struct {
	repo repository.AuditLogRepository
}

func NewDBSink(repo repository.AuditLogRepository) *DBSink {
	return &DBSink{repo: repo}
}

func (s *DBSink) Append(ctx context.Context, entry model.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	logEntry(entry).Msg("security audit event")
	return s.repo.Insert(ctx, entry)
}

func logEntry(entry model.AuditEntry) *zerolog.Event {
	e := log.Info().
		Str("audit", "security").
		Str("action", string(entry.Action)).
		Str("admin_id", entry.AdminID).
		Str("route", entry.Route)

	if entry.TargetUserID != nil {
		e = e.Str("target_user_id", *entry.TargetUserID)
	}
	for k, v := range entry.Metadata {
		e = e.Interface(k, v)
	}
	return e
}
