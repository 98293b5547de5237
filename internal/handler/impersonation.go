package handler

import (
	"encoding/json"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/opsdesk/admin-console-go/internal/errors"
	"github.com/opsdesk/admin-console-go/internal/httputil"
	"github.com/opsdesk/admin-console-go/internal/impersonation"
	"github.com/opsdesk/admin-console-go/internal/middleware"
	"github.com/opsdesk/admin-console-go/internal/service"
)

type ImpersonationHandler struct {
	impersonationService *service.ImpersonationService
	cookieOpts           impersonation.CookieOptions
}

func NewImpersonationHandler(
	impersonationService *service.ImpersonationService,
	cookieOpts impersonation.CookieOptions,
) *ImpersonationHandler {
	return &ImpersonationHandler{
		impersonationService: impersonationService,
		cookieOpts:           cookieOpts,
	}
}

// Routes mounts the protocol surface. Only start sits behind the admin gate:
// exit authenticates with the session cookie itself, and is registered for
// GET as well because browsers reach it through top-level navigation.
func (h *ImpersonationHandler) Routes(requireAdmin, startLimit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.With(requireAdmin, startLimit).Post("/", h.Start)
	r.Post("/exit", h.Exit)
	r.Get("/exit", h.Exit)

	return r
}

// startRequest is the validated shape of a start payload regardless of
// whether it arrived as JSON or a form post.
type startRequest struct {
	UserID     string `json:"userId"`
	RedirectTo string `json:"redirectTo"`
	ReturnTo   string `json:"returnTo"`
}

func parseStartRequest(r *http.Request) (*startRequest, *apperrors.AppError) {
	var req startRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseForm(); err != nil {
			return nil, apperrors.ValidationError("Unable to parse form body")
		}
		req.UserID = r.PostFormValue("userId")
		req.RedirectTo = r.PostFormValue("redirectTo")
		req.ReturnTo = r.PostFormValue("returnTo")
	default:
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, apperrors.ValidationError("Unable to parse request body")
		}
	}

	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		return nil, apperrors.MissingRequired("userId")
	}

	return &req, nil
}

func (h *ImpersonationHandler) Start(w http.ResponseWriter, r *http.Request) {
	req, appErr := parseStartRequest(r)
	if appErr != nil {
		httputil.WriteError(w, appErr)
		return
	}

	result, err := h.impersonationService.Start(r.Context(), service.StartParams{
		Admin:      middleware.GetAdmin(r.Context()),
		AdminToken: middleware.BearerToken(r),
		UserID:     req.UserID,
		RedirectTo: req.RedirectTo,
		ReturnTo:   req.ReturnTo,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	impersonation.SetCookies(w, result.SessionCookie, result.TargetCookie, h.cookieOpts)
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":          true,
		"customToken": result.CustomToken,
		"redirectTo":  result.RedirectTo,
		"targetUser":  result.TargetUser,
	})
}

func (h *ImpersonationHandler) Exit(w http.ResponseWriter, r *http.Request) {
	result, err := h.impersonationService.Exit(
		r.Context(),
		cookieValue(r, impersonation.SessionCookieName),
		cookieValue(r, impersonation.TargetCookieName),
		r.URL.Query().Get("redirect"),
	)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	impersonation.ClearCookies(w, h.cookieOpts)

	status := http.StatusSeeOther
	if r.Method == http.MethodGet {
		status = http.StatusFound
	}
	http.Redirect(w, r, result.RedirectTo, status)
}

func cookieValue(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
