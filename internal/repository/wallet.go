package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/opsdesk/admin-console-go/internal/model"
)

type WalletRepository interface {
	FindByUserID(ctx context.Context, userID string) (*model.Wallet, error)
}

type walletRepo struct {
	db *sqlx.DB
}

func NewWalletRepository(db *sqlx.DB) WalletRepository {
	return &walletRepo{db: db}
}

func (r *walletRepo) FindByUserID(ctx context.Context, userID string) (*model.Wallet, error) {
	var wallet model.Wallet
	err := r.db.GetContext(ctx, &wallet, `
		SELECT * FROM wallets WHERE user_id = $1
	`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}
