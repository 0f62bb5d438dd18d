package transport

import (
	"net/http"
	"net/url"
)

// DefaultCookieName mirrors the storage key of the active session.
const DefaultCookieName = "ticketapp_session"

// SetSessionCookie mirrors token into the session cookie.
func SetSessionCookie(w http.ResponseWriter, name, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// HasSessionCookie reports whether the request carries a non-empty session
// cookie. The value is not verified.
func HasSessionCookie(r *http.Request, name string) bool {
	cookie, err := r.Cookie(name)
	return err == nil && cookie.Value != ""
}

// RequireSessionCookie redirects to the login page, remembering the requested
// path, when the session cookie is absent.
func RequireSessionCookie(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !HasSessionCookie(r, name) {
				target := "/auth/login?redirect=" + url.QueryEscape(r.URL.Path)
				http.Redirect(w, r, target, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
