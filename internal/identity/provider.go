package identity

import (
	"context"
	"time"

	"github.com/opsdesk/admin-console-go/internal/model"
)

// Identity is the verified result of a bearer credential check.
type Identity struct {
	UserID  string
	Email   string
	IsAdmin bool
}

// DelegatedClaims tags a minted sign-in token with who is driving it, so any
// downstream consumer of the credential can recover the initiating admin.
type DelegatedClaims struct {
	ImpersonatedBy string
	Email          string
	StartedAt      time.Time
}

// Provider is the identity collaborator the impersonation controller
// depends on: verify a bearer credential, resolve a user, and mint a
// delegated sign-in credential for a target identity.
//
// LookupUser returns (nil, nil) for an unknown user; an error means the
// provider itself failed.
type Provider interface {
	VerifyToken(ctx context.Context, token string) (*Identity, error)
	LookupUser(ctx context.Context, userID string) (*model.User, error)
	MintDelegatedToken(ctx context.Context, userID string, claims DelegatedClaims) (string, error)
}
