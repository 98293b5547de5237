package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdesk/admin-console-go/internal/model"
)

type mockAuditRepo struct {
	inserted  []model.AuditEntry
	insertErr error
}

func (m *mockAuditRepo) Insert(ctx context.Context, entry model.AuditEntry) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.inserted = append(m.inserted, entry)
	return nil
}

func (m *mockAuditRepo) FindByAdminID(ctx context.Context, adminID string, limit, offset int) ([]model.AuditEntry, error) {
	return nil, nil
}

func TestDBSinkAppend(t *testing.T) {
	target := "user-42"

	t.Run("assigns an id and persists", func(t *testing.T) {
		repo := &mockAuditRepo{}
		sink := NewDBSink(repo)

		err := sink.Append(context.Background(), model.AuditEntry{
			AdminID:      "admin-1",
			TargetUserID: &target,
			Action:       model.AuditImpersonateStart,
			Route:        "/impersonate",
			Metadata:     map[string]any{"redirectTo": "/"},
		})
		require.NoError(t, err)

		require.Len(t, repo.inserted, 1)
		assert.NotEmpty(t, repo.inserted[0].ID)
		assert.Equal(t, "admin-1", repo.inserted[0].AdminID)
	})

	t.Run("keeps a caller-supplied id", func(t *testing.T) {
		repo := &mockAuditRepo{}
		sink := NewDBSink(repo)

		err := sink.Append(context.Background(), model.AuditEntry{
			ID:      "fixed-id",
			AdminID: "admin-1",
			Action:  model.AuditImpersonateStop,
		})
		require.NoError(t, err)
		assert.Equal(t, "fixed-id", repo.inserted[0].ID)
	})

	t.Run("propagates repository failure", func(t *testing.T) {
		sink := NewDBSink(&mockAuditRepo{insertErr: errors.New("db down")})
		err := sink.Append(context.Background(), model.AuditEntry{AdminID: "admin-1"})
		assert.Error(t, err)
	})
}

func TestLogSinkAppend(t *testing.T) {
	sink := NewLogSink()
	err := sink.Append(context.Background(), model.AuditEntry{
		AdminID: "admin-1",
		Action:  model.AuditImpersonateStart,
		Route:   "/impersonate",
	})
	assert.NoError(t, err)
}
