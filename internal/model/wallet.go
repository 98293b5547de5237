package model

import (
	"time"
)

type Wallet struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"userId"`
	BalanceCents int64     `db:"balance_cents" json:"balanceCents"`
	Currency     string    `db:"currency" json:"currency"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}
