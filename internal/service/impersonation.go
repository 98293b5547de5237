package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/opsdesk/admin-console-go/internal/audit"
	apperrors "github.com/opsdesk/admin-console-go/internal/errors"
	"github.com/opsdesk/admin-console-go/internal/identity"
	"github.com/opsdesk/admin-console-go/internal/impersonation"
	"github.com/opsdesk/admin-console-go/internal/model"
	"github.com/opsdesk/admin-console-go/internal/redirect"
)

const (
	startRoute = "/impersonate"
	exitRoute  = "/impersonate/exit"

	// Landing path right after impersonation begins, when the caller did
	// not ask for a specific one.
	defaultStartRedirect = "/"
)

// StartParams is the validated input of a start transition. Admin and
// AdminToken come from the already-gated request context, never from the
// request body.
type StartParams struct {
	Admin      *identity.Identity
	AdminToken string
	UserID     string
	RedirectTo string
	ReturnTo   string
}

type TargetUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type StartResult struct {
	CustomToken   string
	RedirectTo    string
	TargetUser    TargetUser
	SessionCookie string
	TargetCookie  string
}

type ExitResult struct {
	RedirectTo string
}

// ImpersonationService drives the start/exit state machine. All session
// state lives in the two cookie values it produces; the service itself is
// stateless and safe for concurrent use.
type ImpersonationService struct {
	provider        identity.Provider
	codec           *impersonation.Codec
	sink            audit.Sink
	defaultExitPath string
}

// NewImpersonationService wires the controller. provider may be nil when the
// identity integration is disabled; every operation then fails with
// PROVIDER_UNCONFIGURED instead of panicking at call time.
func NewImpersonationService(
	provider identity.Provider,
	codec *impersonation.Codec,
	sink audit.Sink,
	defaultExitPath string,
) *ImpersonationService {
	return &ImpersonationService{
		provider:        provider,
		codec:           codec,
		sink:            sink,
		defaultExitPath: defaultExitPath,
	}
}

// Start performs the start transition: resolve admin, resolve target, mint a
// delegated credential, encode both cookies, audit. Starting while already
// impersonating replaces the previous session: the caller overwrites both
// cookies with the returned values.
func (s *ImpersonationService) Start(ctx context.Context, params StartParams) (*StartResult, error) {
	if s.provider == nil {
		return nil, apperrors.ProviderUnconfigured()
	}

	if params.Admin == nil || params.Admin.UserID == "" {
		// The admin's own credential went stale between gate and start
		return nil, apperrors.SessionNotFound()
	}
	adminID := params.Admin.UserID

	userID := strings.TrimSpace(params.UserID)
	if userID == "" {
		return nil, apperrors.MissingRequired("userId")
	}

	redirectTo := redirect.FirstSafe(defaultStartRedirect, params.RedirectTo)

	user, err := s.provider.LookupUser(ctx, userID)
	if err != nil {
		return nil, apperrors.ProviderError("look up user", err)
	}
	if user == nil {
		return nil, apperrors.NotFound("User")
	}
	if user.Email == nil || *user.Email == "" {
		// Email is required for audit correlation and display; an identity
		// with no contact surface cannot be impersonated
		return nil, apperrors.ValidationError("Target user has no email on file")
	}

	// Exit restores the admin to the target's own console page unless the
	// caller asked for somewhere specific
	returnTo := redirect.FirstSafe(s.defaultExitPath+"/"+user.ID, params.ReturnTo)

	startedAt := time.Now().UTC()
	customToken, err := s.provider.MintDelegatedToken(ctx, user.ID, identity.DelegatedClaims{
		ImpersonatedBy: adminID,
		Email:          *user.Email,
		StartedAt:      startedAt,
	})
	if err != nil {
		return nil, apperrors.ProviderError("mint delegated credential", err)
	}

	sessionCookie, err := s.codec.EncodeSession(model.ImpersonationSession{
		AdminID:      adminID,
		AccessToken:  params.AdminToken,
		RefreshToken: "unused",
		ReturnTo:     returnTo,
	})
	if err != nil {
		return nil, apperrors.Internal("Failed to encode impersonation session").WithCause(err)
	}

	targetCookie, err := s.codec.EncodeTarget(model.ImpersonationTarget{
		UserID:    user.ID,
		Email:     *user.Email,
		StartedAt: startedAt,
	})
	if err != nil {
		return nil, apperrors.Internal("Failed to encode impersonation target").WithCause(err)
	}

	s.appendAudit(ctx, model.AuditEntry{
		AdminID:      adminID,
		TargetUserID: &user.ID,
		Action:       model.AuditImpersonateStart,
		Route:        startRoute,
		Metadata: map[string]any{
			"redirectTo": redirectTo,
			"returnTo":   returnTo,
		},
	})

	log.Info().
		Str("adminId", adminID).
		Str("targetUserId", user.ID).
		Msg("impersonation started")

	return &StartResult{
		CustomToken:   customToken,
		RedirectTo:    redirectTo,
		TargetUser:    TargetUser{ID: user.ID, Email: *user.Email},
		SessionCookie: sessionCookie,
		TargetCookie:  targetCookie,
	}, nil
}

// Exit performs the exit transition. The destination falls back through the
// sanitized query override, the session's stored returnTo, and finally the
// configured default, so exit always has a safe place to land.
func (s *ImpersonationService) Exit(ctx context.Context, sessionCookie, targetCookie, redirectOverride string) (*ExitResult, error) {
	session := s.codec.DecodeSession(sessionCookie)
	if session == nil {
		return nil, apperrors.NoActiveSession()
	}

	destination := redirect.FirstSafe(s.defaultExitPath, redirectOverride, session.ReturnTo)

	// Best effort: the target cookie may have expired independently
	var targetUserID *string
	if target := s.codec.DecodeTarget(targetCookie); target != nil {
		targetUserID = &target.UserID
	}

	s.appendAudit(ctx, model.AuditEntry{
		AdminID:      session.AdminID,
		TargetUserID: targetUserID,
		Action:       model.AuditImpersonateStop,
		Route:        exitRoute,
		Metadata: map[string]any{
			"redirect": destination,
		},
	})

	log.Info().
		Str("adminId", session.AdminID).
		Msg("impersonation ended")

	return &ExitResult{RedirectTo: destination}, nil
}

// appendAudit swallows sink failures after logging them. The impersonation
// transition has already taken effect when the audit write runs; failing the
// operation here would turn the observability layer into a denial of
// service vector.
func (s *ImpersonationService) appendAudit(ctx context.Context, entry model.AuditEntry) {
	if err := s.sink.Append(ctx, entry); err != nil {
		log.Error().Err(err).
			Str("action", string(entry.Action)).
			Str("adminId", entry.AdminID).
			Msg("audit write failed")
	}
}
