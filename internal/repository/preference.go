package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/opsdesk/admin-console-go/internal/model"
)

type PreferenceRepository interface {
	FindByUserID(ctx context.Context, userID string) (*model.Preferences, error)
	Update(ctx context.Context, userID string, params model.UpdatePreferencesParams) (*model.Preferences, error)
}

type preferenceRepo struct {
	db *sqlx.DB
}

func NewPreferenceRepository(db *sqlx.DB) PreferenceRepository {
	return &preferenceRepo{db: db}
}

func (r *preferenceRepo) FindByUserID(ctx context.Context, userID string) (*model.Preferences, error) {
	var prefs model.Preferences
	err := r.db.GetContext(ctx, &prefs, `
		SELECT * FROM preferences WHERE user_id = $1
	`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &prefs, nil
}

func (r *preferenceRepo) Update(ctx context.Context, userID string, params model.UpdatePreferencesParams) (*model.Preferences, error) {
	var prefs model.Preferences
	err := r.db.GetContext(ctx, &prefs, `
		UPDATE preferences SET
			email_notifications = COALESCE($2, email_notifications),
			sms_notifications = COALESCE($3, sms_notifications),
			marketing_opt_in = COALESCE($4, marketing_opt_in),
			updated_at = NOW()
		WHERE user_id = $1
		RETURNING *
	`, userID, params.EmailNotifications, params.SMSNotifications, params.MarketingOptIn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &prefs, nil
}
