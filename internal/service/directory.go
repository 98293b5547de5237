package service

import (
	"context"
	"fmt"

	"github.com/opsdesk/admin-console-go/internal/model"
	"github.com/opsdesk/admin-console-go/internal/repository"
)

// DirectoryService serves the support console's read/write glue: user
// lookups, balance reads, preference toggles and document version checks.
// No state machine, no trust boundary beyond the admin gate in front of it.
type DirectoryService struct {
	users    repository.UserRepository
	wallets  repository.WalletRepository
	prefs    repository.PreferenceRepository
	docs     repository.DocumentRepository
	auditLog repository.AuditLogRepository
}

func NewDirectoryService(
	users repository.UserRepository,
	wallets repository.WalletRepository,
	prefs repository.PreferenceRepository,
	docs repository.DocumentRepository,
	auditLog repository.AuditLogRepository,
) *DirectoryService {
	return &DirectoryService{
		users:    users,
		wallets:  wallets,
		prefs:    prefs,
		docs:     docs,
		auditLog: auditLog,
	}
}

func (s *DirectoryService) GetUsers(ctx context.Context, limit, offset int) ([]model.User, int, error) {
	users, err := s.users.FindAll(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	total, err := s.users.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	return users, total, nil
}

func (s *DirectoryService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *DirectoryService) GetWallet(ctx context.Context, userID string) (*model.Wallet, error) {
	return s.wallets.FindByUserID(ctx, userID)
}

func (s *DirectoryService) GetPreferences(ctx context.Context, userID string) (*model.Preferences, error) {
	return s.prefs.FindByUserID(ctx, userID)
}

func (s *DirectoryService) UpdatePreferences(ctx context.Context, userID string, params model.UpdatePreferencesParams) (*model.Preferences, error) {
	return s.prefs.Update(ctx, userID, params)
}

func (s *DirectoryService) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	return s.docs.FindByID(ctx, id)
}

func (s *DirectoryService) GetAuditTrail(ctx context.Context, adminID string, limit, offset int) ([]model.AuditEntry, error) {
	return s.auditLog.FindByAdminID(ctx, adminID, limit, offset)
}
