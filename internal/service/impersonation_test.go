package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/opsdesk/admin-console-go/internal/errors"
	"github.com/opsdesk/admin-console-go/internal/identity"
	"github.com/opsdesk/admin-console-go/internal/impersonation"
	"github.com/opsdesk/admin-console-go/internal/model"
)

type mockProvider struct {
	verifyFunc func(ctx context.Context, token string) (*identity.Identity, error)
	lookupFunc func(ctx context.Context, userID string) (*model.User, error)
	mintFunc   func(ctx context.Context, userID string, claims identity.DelegatedClaims) (string, error)
	mintCalls  int
}

func (m *mockProvider) VerifyToken(ctx context.Context, token string) (*identity.Identity, error) {
	if m.verifyFunc != nil {
		return m.verifyFunc(ctx, token)
	}
	return nil, errors.New("unexpected VerifyToken call")
}

func (m *mockProvider) LookupUser(ctx context.Context, userID string) (*model.User, error) {
	if m.lookupFunc != nil {
		return m.lookupFunc(ctx, userID)
	}
	return nil, errors.New("unexpected LookupUser call")
}

func (m *mockProvider) MintDelegatedToken(ctx context.Context, userID string, claims identity.DelegatedClaims) (string, error) {
	m.mintCalls++
	if m.mintFunc != nil {
		return m.mintFunc(ctx, userID, claims)
	}
	return "", errors.New("unexpected MintDelegatedToken call")
}

type mockSink struct {
	entries   []model.AuditEntry
	appendErr error
}

func (m *mockSink) Append(ctx context.Context, entry model.AuditEntry) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.entries = append(m.entries, entry)
	return nil
}

func strPtr(s string) *string { return &s }

func lookupReturning(user *model.User) func(ctx context.Context, userID string) (*model.User, error) {
	return func(ctx context.Context, userID string) (*model.User, error) {
		return user, nil
	}
}

func assertCode(t *testing.T, err error, code apperrors.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, code, appErr.Code)
}

func newTestService(provider identity.Provider, sink *mockSink) (*ImpersonationService, *impersonation.Codec) {
	codec := impersonation.NewCodec("test-secret-0123456789abcdef", time.Hour)
	return NewImpersonationService(provider, codec, sink, "/admin/users"), codec
}

func TestImpersonationStart(t *testing.T) {
	admin := &identity.Identity{UserID: "admin-1", Email: "admin@example.com", IsAdmin: true}
	target := &model.User{ID: "user-42", Email: strPtr("user42@example.com")}

	t.Run("mints credential, encodes cookies, writes audit entry", func(t *testing.T) {
		provider := &mockProvider{
			lookupFunc: lookupReturning(target),
			mintFunc: func(ctx context.Context, userID string, claims identity.DelegatedClaims) (string, error) {
				assert.Equal(t, "user-42", userID)
				assert.Equal(t, "admin-1", claims.ImpersonatedBy)
				assert.Equal(t, "user42@example.com", claims.Email)
				return "minted-token", nil
			},
		}
		sink := &mockSink{}
		svc, codec := newTestService(provider, sink)

		result, err := svc.Start(context.Background(), StartParams{
			Admin:      admin,
			AdminToken: "admin-bearer",
			UserID:     "user-42",
			RedirectTo: "/dashboard",
			ReturnTo:   "/admin/users/42",
		})
		require.NoError(t, err)
		assert.Equal(t, "minted-token", result.CustomToken)
		assert.Equal(t, "/dashboard", result.RedirectTo)
		assert.Equal(t, "user-42", result.TargetUser.ID)
		assert.Equal(t, "user42@example.com", result.TargetUser.Email)

		session := codec.DecodeSession(result.SessionCookie)
		require.NotNil(t, session)
		assert.Equal(t, "admin-1", session.AdminID)
		assert.Equal(t, "admin-bearer", session.AccessToken)
		assert.Equal(t, "/admin/users/42", session.ReturnTo)

		tgt := codec.DecodeTarget(result.TargetCookie)
		require.NotNil(t, tgt)
		assert.Equal(t, "user-42", tgt.UserID)

		require.Len(t, sink.entries, 1)
		entry := sink.entries[0]
		assert.Equal(t, model.AuditImpersonateStart, entry.Action)
		assert.Equal(t, "admin-1", entry.AdminID)
		require.NotNil(t, entry.TargetUserID)
		assert.Equal(t, "user-42", *entry.TargetUserID)
	})

	t.Run("unsafe redirect and returnTo are dropped before minting", func(t *testing.T) {
		provider := &mockProvider{
			lookupFunc: lookupReturning(target),
			mintFunc: func(ctx context.Context, userID string, claims identity.DelegatedClaims) (string, error) {
				return "minted-token", nil
			},
		}
		sink := &mockSink{}
		svc, codec := newTestService(provider, sink)

		result, err := svc.Start(context.Background(), StartParams{
			Admin:      admin,
			AdminToken: "admin-bearer",
			UserID:     "user-42",
			RedirectTo: "https://evil.example.com/phish",
			ReturnTo:   "//evil.example.com",
		})
		require.NoError(t, err)
		assert.Equal(t, "/", result.RedirectTo)

		session := codec.DecodeSession(result.SessionCookie)
		require.NotNil(t, session)
		assert.Equal(t, "/admin/users/user-42", session.ReturnTo)
	})

	t.Run("omitted returnTo defaults to the target's console page", func(t *testing.T) {
		provider := &mockProvider{
			lookupFunc: lookupReturning(target),
			mintFunc: func(ctx context.Context, userID string, claims identity.DelegatedClaims) (string, error) {
				return "minted-token", nil
			},
		}
		svc, codec := newTestService(provider, &mockSink{})

		result, err := svc.Start(context.Background(), StartParams{Admin: admin, UserID: "user-42"})
		require.NoError(t, err)

		session := codec.DecodeSession(result.SessionCookie)
		require.NotNil(t, session)
		assert.Equal(t, "/admin/users/user-42", session.ReturnTo)
	})

	t.Run("fails with PROVIDER_UNCONFIGURED when provider is nil", func(t *testing.T) {
		svc, _ := newTestService(nil, &mockSink{})
		_, err := svc.Start(context.Background(), StartParams{Admin: admin, UserID: "user-42"})
		assertCode(t, err, apperrors.ErrCodeProviderUnconfigured)
	})

	t.Run("fails with SESSION_NOT_FOUND on missing admin identity", func(t *testing.T) {
		provider := &mockProvider{}
		svc, _ := newTestService(provider, &mockSink{})
		_, err := svc.Start(context.Background(), StartParams{Admin: nil, UserID: "user-42"})
		assertCode(t, err, apperrors.ErrCodeSessionNotFound)
		assert.Zero(t, provider.mintCalls)
	})

	t.Run("fails on blank user id", func(t *testing.T) {
		svc, _ := newTestService(&mockProvider{}, &mockSink{})
		_, err := svc.Start(context.Background(), StartParams{Admin: admin, UserID: "   "})
		assertCode(t, err, apperrors.ErrCodeMissingRequired)
	})

	t.Run("fails with NOT_FOUND for unknown target", func(t *testing.T) {
		provider := &mockProvider{lookupFunc: lookupReturning(nil)}
		svc, _ := newTestService(provider, &mockSink{})
		_, err := svc.Start(context.Background(), StartParams{Admin: admin, UserID: "ghost"})
		assertCode(t, err, apperrors.ErrCodeNotFound)
		assert.Zero(t, provider.mintCalls)
	})

	t.Run("fails validation for target without email", func(t *testing.T) {
		provider := &mockProvider{lookupFunc: lookupReturning(&model.User{ID: "user-43"})}
		svc, _ := newTestService(provider, &mockSink{})
		_, err := svc.Start(context.Background(), StartParams{Admin: admin, UserID: "user-43"})
		assertCode(t, err, apperrors.ErrCodeValidation)
		assert.Zero(t, provider.mintCalls)
	})

	t.Run("wraps lookup failure as PROVIDER_ERROR", func(t *testing.T) {
		provider := &mockProvider{
			lookupFunc: func(ctx context.Context, userID string) (*model.User, error) {
				return nil, errors.New("upstream down")
			},
		}
		svc, _ := newTestService(provider, &mockSink{})
		_, err := svc.Start(context.Background(), StartParams{Admin: admin, UserID: "user-42"})
		assertCode(t, err, apperrors.ErrCodeProviderError)
	})

	t.Run("wraps mint failure as PROVIDER_ERROR", func(t *testing.T) {
		provider := &mockProvider{
			lookupFunc: lookupReturning(target),
			mintFunc: func(ctx context.Context, userID string, claims identity.DelegatedClaims) (string, error) {
				return "", errors.New("signing backend down")
			},
		}
		sink := &mockSink{}
		svc, _ := newTestService(provider, sink)
		_, err := svc.Start(context.Background(), StartParams{Admin: admin, UserID: "user-42"})
		assertCode(t, err, apperrors.ErrCodeProviderError)
		assert.Empty(t, sink.entries)
	})

	t.Run("audit failure does not fail the transition", func(t *testing.T) {
		provider := &mockProvider{
			lookupFunc: lookupReturning(target),
			mintFunc: func(ctx context.Context, userID string, claims identity.DelegatedClaims) (string, error) {
				return "minted-token", nil
			},
		}
		svc, _ := newTestService(provider, &mockSink{appendErr: errors.New("audit store down")})

		result, err := svc.Start(context.Background(), StartParams{Admin: admin, UserID: "user-42"})
		require.NoError(t, err)
		assert.Equal(t, "minted-token", result.CustomToken)
	})
}

func TestImpersonationExit(t *testing.T) {
	sink := &mockSink{}
	svc, codec := newTestService(&mockProvider{}, sink)

	encode := func(t *testing.T, session model.ImpersonationSession, target model.ImpersonationTarget) (string, string) {
		t.Helper()
		sessionCookie, err := codec.EncodeSession(session)
		require.NoError(t, err)
		targetCookie, err := codec.EncodeTarget(target)
		require.NoError(t, err)
		return sessionCookie, targetCookie
	}

	session := model.ImpersonationSession{
		AdminID:      "admin-1",
		AccessToken:  "admin-bearer",
		RefreshToken: "unused",
		ReturnTo:     "/admin/users/42",
	}
	target := model.ImpersonationTarget{UserID: "user-42", Email: "user42@example.com", StartedAt: time.Now().UTC()}

	t.Run("uses sanitized override over stored returnTo", func(t *testing.T) {
		sessionCookie, targetCookie := encode(t, session, target)
		result, err := svc.Exit(context.Background(), sessionCookie, targetCookie, "/somewhere/else")
		require.NoError(t, err)
		assert.Equal(t, "/somewhere/else", result.RedirectTo)
	})

	t.Run("falls back to stored returnTo when override is unsafe", func(t *testing.T) {
		sessionCookie, targetCookie := encode(t, session, target)
		result, err := svc.Exit(context.Background(), sessionCookie, targetCookie, "https://evil.example.com")
		require.NoError(t, err)
		assert.Equal(t, "/admin/users/42", result.RedirectTo)
	})

	t.Run("falls back to the configured default", func(t *testing.T) {
		bare := session
		bare.ReturnTo = ""
		sessionCookie, targetCookie := encode(t, bare, target)
		result, err := svc.Exit(context.Background(), sessionCookie, targetCookie, "")
		require.NoError(t, err)
		assert.Equal(t, "/admin/users", result.RedirectTo)
	})

	t.Run("records stop entry with target when target cookie is intact", func(t *testing.T) {
		sink.entries = nil
		sessionCookie, targetCookie := encode(t, session, target)
		_, err := svc.Exit(context.Background(), sessionCookie, targetCookie, "")
		require.NoError(t, err)

		require.Len(t, sink.entries, 1)
		entry := sink.entries[0]
		assert.Equal(t, model.AuditImpersonateStop, entry.Action)
		assert.Equal(t, "admin-1", entry.AdminID)
		require.NotNil(t, entry.TargetUserID)
		assert.Equal(t, "user-42", *entry.TargetUserID)
	})

	t.Run("still exits when target cookie is corrupted", func(t *testing.T) {
		sink.entries = nil
		sessionCookie, _ := encode(t, session, target)
		result, err := svc.Exit(context.Background(), sessionCookie, "garbage", "")
		require.NoError(t, err)
		assert.Equal(t, "/admin/users/42", result.RedirectTo)

		require.Len(t, sink.entries, 1)
		assert.Nil(t, sink.entries[0].TargetUserID)
	})

	t.Run("fails with NO_ACTIVE_SESSION without a session cookie", func(t *testing.T) {
		_, err := svc.Exit(context.Background(), "", "", "")
		assertCode(t, err, apperrors.ErrCodeNoActiveSession)
	})

	t.Run("fails with NO_ACTIVE_SESSION on a forged session cookie", func(t *testing.T) {
		other := impersonation.NewCodec("completely-different-secret", time.Hour)
		forged, err := other.EncodeSession(session)
		require.NoError(t, err)
		_, err = svc.Exit(context.Background(), forged, "", "")
		assertCode(t, err, apperrors.ErrCodeNoActiveSession)
	})
}
