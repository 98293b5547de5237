package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/opsdesk/admin-console-go/internal/model"
)

type DocumentRepository interface {
	FindByID(ctx context.Context, id string) (*model.Document, error)
}

type documentRepo struct {
	db *sqlx.DB
}

func NewDocumentRepository(db *sqlx.DB) DocumentRepository {
	return &documentRepo{db: db}
}

func (r *documentRepo) FindByID(ctx context.Context, id string) (*model.Document, error) {
	var doc model.Document
	err := r.db.GetContext(ctx, &doc, `
		SELECT * FROM documents WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}
