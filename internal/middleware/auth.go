package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/pkordes/labelcase/internal/auth"
)

// SessionCookie is the cookie a browser session token is read from.
const SessionCookie = "labelcase_session"

// sessionParser is the part of *auth.Issuer Authenticate needs.
type sessionParser interface {
	ParseSession(token string) (auth.Principal, error)
}

// Authenticate resolves the caller from an "Authorization: Bearer" header or,
// failing that, the session cookie, and stores the principal in the request
// context. Requests without valid credentials continue anonymously; handlers
// that need a principal reject them through auth.Require.
func Authenticate(sessions sessionParser, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			p, err := sessions.ParseSession(token)
			if err != nil {
				log.DebugContext(r.Context(), "session rejected", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
		})
	}
}

func sessionToken(r *http.Request) string {
	if h := strings.TrimSpace(r.Header.Get("Authorization")); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}
