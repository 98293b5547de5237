package identity

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdesk/admin-console-go/internal/model"
)

const (
	testSecret = "identity-secret-0123456789abcdef012345"
	testIssuer = "opsdesk-test"
)

type mockUserRepo struct {
	findByIDFunc func(ctx context.Context, id string) (*model.User, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindAll(ctx context.Context, limit, offset int) ([]model.User, error) {
	return nil, nil
}

func (m *mockUserRepo) Count(ctx context.Context) (int, error) {
	return 0, nil
}

func newTestProvider() *JWTProvider {
	return NewJWTProvider(testSecret, testIssuer, 5*time.Minute, &mockUserRepo{})
}

func signBearer(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestVerifyToken(t *testing.T) {
	provider := newTestProvider()
	ctx := context.Background()

	t.Run("accepts a valid admin bearer", func(t *testing.T) {
		bearer := signBearer(t, testSecret, jwt.MapClaims{
			"iss":   testIssuer,
			"sub":   "admin-1",
			"email": "admin@example.com",
			"admin": true,
			"exp":   time.Now().Add(time.Hour).Unix(),
		})

		ident, err := provider.VerifyToken(ctx, bearer)
		require.NoError(t, err)
		assert.Equal(t, "admin-1", ident.UserID)
		assert.Equal(t, "admin@example.com", ident.Email)
		assert.True(t, ident.IsAdmin)
	})

	t.Run("reports non-admin subjects", func(t *testing.T) {
		bearer := signBearer(t, testSecret, jwt.MapClaims{
			"iss": testIssuer,
			"sub": "user-1",
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		ident, err := provider.VerifyToken(ctx, bearer)
		require.NoError(t, err)
		assert.False(t, ident.IsAdmin)
	})

	t.Run("rejects wrong secret", func(t *testing.T) {
		bearer := signBearer(t, "wrong-secret-wrong-secret-0123456789", jwt.MapClaims{
			"iss": testIssuer,
			"sub": "admin-1",
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		_, err := provider.VerifyToken(ctx, bearer)
		assert.Error(t, err)
	})

	t.Run("rejects wrong issuer", func(t *testing.T) {
		bearer := signBearer(t, testSecret, jwt.MapClaims{
			"iss": "someone-else",
			"sub": "admin-1",
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		_, err := provider.VerifyToken(ctx, bearer)
		assert.Error(t, err)
	})

	t.Run("rejects expired token", func(t *testing.T) {
		bearer := signBearer(t, testSecret, jwt.MapClaims{
			"iss": testIssuer,
			"sub": "admin-1",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})

		_, err := provider.VerifyToken(ctx, bearer)
		assert.Error(t, err)
	})

	t.Run("rejects token without subject", func(t *testing.T) {
		bearer := signBearer(t, testSecret, jwt.MapClaims{
			"iss": testIssuer,
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		_, err := provider.VerifyToken(ctx, bearer)
		assert.Error(t, err)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := provider.VerifyToken(ctx, "not-a-jwt")
		assert.Error(t, err)
	})
}

func TestMintDelegatedToken(t *testing.T) {
	provider := newTestProvider()
	ctx := context.Background()

	startedAt := time.Now().UTC().Truncate(time.Second)
	signed, err := provider.MintDelegatedToken(ctx, "U9", DelegatedClaims{
		ImpersonatedBy: "admin-1",
		Email:          "u9@example.com",
		StartedAt:      startedAt,
	})
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	var claims delegatedTokenClaims
	parsed, err := jwt.ParseWithClaims(signed, &claims, func(t *jwt.Token) (any, error) {
		return []byte(testSecret), nil
	}, jwt.WithIssuer(testIssuer))
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	assert.Equal(t, "U9", claims.Subject)
	assert.Equal(t, "u9@example.com", claims.Email)
	assert.Equal(t, "admin-1", claims.ImpersonatedBy)
	assert.Equal(t, startedAt.Unix(), claims.StartedAt)
	assert.NotEmpty(t, claims.ID, "minted tokens carry a unique jti")
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), claims.ExpiresAt.Time, time.Minute)
}

func TestLookupUser(t *testing.T) {
	email := "u9@example.com"
	repo := &mockUserRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.User, error) {
			if id == "U9" {
				return &model.User{ID: "U9", Email: &email}, nil
			}
			return nil, nil
		},
	}
	provider := NewJWTProvider(testSecret, testIssuer, 5*time.Minute, repo)

	user, err := provider.LookupUser(context.Background(), "U9")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "U9", user.ID)

	missing, err := provider.LookupUser(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
