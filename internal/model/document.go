package model

import (
	"time"
)

type Document struct {
	ID        string    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Version   int       `db:"version" json:"version"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
