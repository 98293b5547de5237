package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/opsdesk/admin-console-go/internal/model"
	"github.com/opsdesk/admin-console-go/internal/repository"
)

// JWTProvider is the built-in Provider implementation: HS256 bearer tokens
// backed by the user directory. Deployments fronted by an external identity
// service swap in their own Provider and never construct this one.
type JWTProvider struct {
	secret       []byte
	issuer       string
	delegatedTTL time.Duration
	users        repository.UserRepository
}

func NewJWTProvider(secret, issuer string, delegatedTTL time.Duration, users repository.UserRepository) *JWTProvider {
	return &JWTProvider{
		secret:       []byte(secret),
		issuer:       issuer,
		delegatedTTL: delegatedTTL,
		users:        users,
	}
}

type bearerClaims struct {
	Email string `json:"email,omitempty"`
	Admin bool   `json:"admin,omitempty"`
	jwt.RegisteredClaims
}

func (p *JWTProvider) VerifyToken(ctx context.Context, token string) (*Identity, error) {
	var claims bearerClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return p.secret, nil
	}, jwt.WithIssuer(p.issuer))
	if err != nil {
		return nil, fmt.Errorf("parse bearer token: %w", err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("bearer token carries no subject")
	}

	return &Identity{
		UserID:  claims.Subject,
		Email:   claims.Email,
		IsAdmin: claims.Admin,
	}, nil
}

func (p *JWTProvider) LookupUser(ctx context.Context, userID string) (*model.User, error) {
	return p.users.FindByID(ctx, userID)
}

type delegatedTokenClaims struct {
	Email          string `json:"email,omitempty"`
	ImpersonatedBy string `json:"impersonated_by"`
	StartedAt      int64  `json:"started_at"`
	jwt.RegisteredClaims
}

func (p *JWTProvider) MintDelegatedToken(ctx context.Context, userID string, claims DelegatedClaims) (string, error) {
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, delegatedTokenClaims{
		Email:          claims.Email,
		ImpersonatedBy: claims.ImpersonatedBy,
		StartedAt:      claims.StartedAt.Unix(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.issuer,
			Subject:   userID,
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.delegatedTTL)),
		},
	})

	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("sign delegated token: %w", err)
	}
	return signed, nil
}

var _ Provider = (*JWTProvider)(nil)
