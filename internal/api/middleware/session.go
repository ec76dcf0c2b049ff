package middleware

import (
	"net/http"

	"github.com/medly/scheduleconsole/internal/application/services"
	"github.com/medly/scheduleconsole/internal/infrastructure/observability"
)

// SessionCookieName carries the console session id
const SessionCookieName = "console_session"

// SessionMiddleware attaches the caller's console session to the request,
// opening a new one when the cookie is missing, malformed or expired.
func SessionMiddleware(console *services.ConsoleService, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string
			if cookie, err := r.Cookie(SessionCookieName); err == nil {
				id = cookie.Value
			}

			sess := console.OpenSession(r.Context(), id)
			if sess.ID() != id {
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookieName,
					Value:    sess.ID(),
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := observability.WithSessionID(r.Context(), sess.ID())
			ctx = services.WithSession(ctx, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
