package model

import (
	"time"
)

type User struct {
	ID         string     `db:"id" json:"id"`
	Email      *string    `db:"email" json:"email,omitempty"`
	Name       string     `db:"name" json:"name"`
	IsAdmin    bool       `db:"is_admin" json:"isAdmin"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updatedAt"`
	DisabledAt *time.Time `db:"disabled_at" json:"disabledAt,omitempty"`
}
