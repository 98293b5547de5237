package model

import (
	"time"
)

type Preferences struct {
	UserID             string    `db:"user_id" json:"userId"`
	EmailNotifications bool      `db:"email_notifications" json:"emailNotifications"`
	SMSNotifications   bool      `db:"sms_notifications" json:"smsNotifications"`
	MarketingOptIn     bool      `db:"marketing_opt_in" json:"marketingOptIn"`
	UpdatedAt          time.Time `db:"updated_at" json:"updatedAt"`
}

type UpdatePreferencesParams struct {
	EmailNotifications *bool
	SMSNotifications   *bool
	MarketingOptIn     *bool
}
