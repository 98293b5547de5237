package impersonation

import (
	"net/http"
	"time"
)

// Cookie names are part of the wire contract; other cookies the host
// application sets must not collide with the opsdesk_imp_ namespace.
const (
	SessionCookieName = "opsdesk_imp_session"
	TargetCookieName  = "opsdesk_imp_target"
)

// CookieOptions fixes the scoping attributes shared by both cookies.
// SameSite is Lax rather than Strict: exit is reached through a top-level
// GET navigation, which Lax permits while still blocking cross-site POSTs.
type CookieOptions struct {
	Path   string
	MaxAge time.Duration
	Secure bool
}

func DefaultCookieOptions(maxAge time.Duration, secure bool) CookieOptions {
	return CookieOptions{
		Path:   "/",
		MaxAge: maxAge,
		Secure: secure,
	}
}

// SetCookies writes the session and target cookies in one response. They are
// always issued together; a browser never observes one without the other from
// a single start.
func SetCookies(w http.ResponseWriter, sessionValue, targetValue string, opts CookieOptions) {
	setCookie(w, SessionCookieName, sessionValue, int(opts.MaxAge.Seconds()), opts)
	setCookie(w, TargetCookieName, targetValue, int(opts.MaxAge.Seconds()), opts)
}

// ClearCookies removes both cookies. The scoping attributes must match the
// ones used to set them or the browser keeps the originals.
func ClearCookies(w http.ResponseWriter, opts CookieOptions) {
	setCookie(w, SessionCookieName, "", -1, opts)
	setCookie(w, TargetCookieName, "", -1, opts)
}

func setCookie(w http.ResponseWriter, name, value string, maxAge int, opts CookieOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     opts.Path,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
