package model

import (
	"time"
)

type AuditAction string

const (
	AuditImpersonateStart AuditAction = "IMPERSONATE_START"
	AuditImpersonateStop  AuditAction = "IMPERSONATE_STOP"
)

// AuditEntry is a write-once record of a security-relevant action.
// TargetUserID is nullable: on exit the target cookie may already be gone.
type AuditEntry struct {
	ID           string         `db:"id" json:"id"`
	AdminID      string         `db:"admin_id" json:"adminId"`
	TargetUserID *string        `db:"target_user_id" json:"targetUserId,omitempty"`
	Action       AuditAction    `db:"action" json:"action"`
	Route        string         `db:"route" json:"route"`
	Metadata     map[string]any `db:"-" json:"metadata,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"createdAt"`
}
