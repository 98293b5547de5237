package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/opsdesk/admin-console-go/internal/errors"
	"github.com/opsdesk/admin-console-go/internal/httputil"
	"github.com/opsdesk/admin-console-go/internal/middleware"
	"github.com/opsdesk/admin-console-go/internal/model"
	"github.com/opsdesk/admin-console-go/internal/service"
)

// DirectoryHandler serves the admin console's lookup endpoints. Everything
// here is single-request read/write glue behind the admin gate.
type DirectoryHandler struct {
	directoryService *service.DirectoryService
}

func NewDirectoryHandler(directoryService *service.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{directoryService: directoryService}
}

func (h *DirectoryHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/users", h.ListUsers)
	r.Get("/users/{id}", h.GetUser)
	r.Get("/users/{id}/wallet", h.GetWallet)
	r.Get("/users/{id}/preferences", h.GetPreferences)
	r.Patch("/users/{id}/preferences", h.UpdatePreferences)
	r.Get("/documents/{id}/version", h.GetDocumentVersion)
	r.Get("/audit", h.AuditTrail)

	return r
}

func (h *DirectoryHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	p := ParsePagination(r)

	users, total, err := h.directoryService.GetUsers(r.Context(), p.Limit, p.Offset)
	if err != nil {
		log.Error().Err(err).Msg("failed to list users")
		httputil.WriteError(w, apperrors.Database(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": users,
		"total": total,
	})
}

func (h *DirectoryHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	user, err := h.directoryService.GetUserByID(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Msg("failed to get user")
		httputil.WriteError(w, apperrors.Database(err))
		return
	}

	if user == nil {
		httputil.WriteError(w, apperrors.NotFound("User"))
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *DirectoryHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	wallet, err := h.directoryService.GetWallet(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Msg("failed to get wallet")
		httputil.WriteError(w, apperrors.Database(err))
		return
	}

	if wallet == nil {
		httputil.WriteError(w, apperrors.NotFound("Wallet"))
		return
	}

	writeJSON(w, http.StatusOK, wallet)
}

func (h *DirectoryHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	prefs, err := h.directoryService.GetPreferences(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Msg("failed to get preferences")
		httputil.WriteError(w, apperrors.Database(err))
		return
	}

	if prefs == nil {
		httputil.WriteError(w, apperrors.NotFound("Preferences"))
		return
	}

	writeJSON(w, http.StatusOK, prefs)
}

func (h *DirectoryHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		EmailNotifications *bool `json:"emailNotifications"`
		SMSNotifications   *bool `json:"smsNotifications"`
		MarketingOptIn     *bool `json:"marketingOptIn"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, apperrors.ValidationError("Unable to parse request body"))
		return
	}

	prefs, err := h.directoryService.UpdatePreferences(r.Context(), id, model.UpdatePreferencesParams{
		EmailNotifications: req.EmailNotifications,
		SMSNotifications:   req.SMSNotifications,
		MarketingOptIn:     req.MarketingOptIn,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to update preferences")
		httputil.WriteError(w, apperrors.Database(err))
		return
	}

	if prefs == nil {
		httputil.WriteError(w, apperrors.NotFound("Preferences"))
		return
	}

	writeJSON(w, http.StatusOK, prefs)
}

func (h *DirectoryHandler) GetDocumentVersion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	doc, err := h.directoryService.GetDocument(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Msg("failed to get document")
		httputil.WriteError(w, apperrors.Database(err))
		return
	}

	if doc == nil {
		httputil.WriteError(w, apperrors.NotFound("Document"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":        doc.ID,
		"version":   doc.Version,
		"updatedAt": doc.UpdatedAt,
	})
}

func (h *DirectoryHandler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetAdmin(r.Context())
	if admin == nil {
		httputil.WriteError(w, apperrors.Unauthenticated("Missing admin context"))
		return
	}

	p := ParsePagination(r)
	entries, err := h.directoryService.GetAuditTrail(r.Context(), admin.UserID, p.Limit, p.Offset)
	if err != nil {
		log.Error().Err(err).Msg("failed to read audit trail")
		httputil.WriteError(w, apperrors.Database(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": entries,
		"total": len(entries),
	})
}
