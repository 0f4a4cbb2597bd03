package middleware_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/labelcase/internal/auth"
	"github.com/pkordes/labelcase/internal/middleware"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// principalEcho writes the subject of the request principal, or "anonymous".
var principalEcho = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		_, _ = io.WriteString(w, "anonymous")
		return
	}
	_, _ = io.WriteString(w, p.Subject)
})

func newIssuer(t *testing.T) *auth.Issuer {
	t.Helper()
	i, err := auth.NewIssuer("middleware-secret", time.Hour)
	require.NoError(t, err)
	return i
}

func TestAuthenticate_BearerHeader(t *testing.T) {
	i := newIssuer(t)
	tok, err := i.IssueSession("alice", []string{auth.CapManageLabels}, time.Hour)
	require.NoError(t, err)
	h := middleware.Authenticate(i, discard)(principalEcho)

	req := httptest.NewRequest(http.MethodGet, "/admin/labels-lowercase", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "alice", rec.Body.String())
}

func TestAuthenticate_Cookie(t *testing.T) {
	i := newIssuer(t)
	tok, err := i.IssueSession("bob", nil, time.Hour)
	require.NoError(t, err)
	h := middleware.Authenticate(i, discard)(principalEcho)

	req := httptest.NewRequest(http.MethodGet, "/admin/labels-lowercase", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: tok})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "bob", rec.Body.String())
}

func TestAuthenticate_InvalidTokenContinuesAnonymously(t *testing.T) {
	h := middleware.Authenticate(newIssuer(t), discard)(principalEcho)

	req := httptest.NewRequest(http.MethodGet, "/labels", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", rec.Body.String())
}

func TestAuthenticate_NoCredentials(t *testing.T) {
	h := middleware.Authenticate(newIssuer(t), discard)(principalEcho)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/labels", nil))

	assert.Equal(t, "anonymous", rec.Body.String())
}
