package model

import (
	"time"
)

// ImpersonationSession records who is impersonating and how to restore them.
// It lives in the session cookie only; the server keeps no copy. Created once
// per start and destroyed at exit, never mutated in place.
type ImpersonationSession struct {
	AdminID      string `json:"adminId"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ReturnTo     string `json:"returnTo,omitempty"`
}

// ImpersonationTarget records who is being impersonated. Carried in the
// target cookie, always written together with the session record.
type ImpersonationTarget struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	StartedAt time.Time `json:"startedAt"`
}
