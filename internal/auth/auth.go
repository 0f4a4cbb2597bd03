// Package auth issues and verifies the signed tokens that guard the admin
// surface.
//
// Two kinds of HS256 JWTs share one secret:
//   - session tokens name a subject and the capabilities it holds;
//   - action tokens bind a subject to one named action for a short time, so a
//     form or ajax call cannot be replayed by another user or for another
//     action.
//
// Tokens are stateless; nothing is stored between requests.
package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pkordes/labelcase/internal/domain"
)

// Capabilities checked by the admin handlers.
const (
	CapManageCatalog = "manage_catalog"
	CapManageLabels  = "manage_labels"
)

// Action names bound into action tokens.
const (
	ActionConvertAll = "convert_all_labels"
	ActionAjax       = "labelcase_ajax"
	ActionBulk       = "bulk-labels"
)

const (
	issuer          = "labelcase"
	sessionAudience = "labelcase-session"
	actionAudience  = "labelcase-action:"
)

// DefaultActionTTL is how long an action token stays valid.
const DefaultActionTTL = 12 * time.Hour

// Principal is the authenticated caller of a request.
type Principal struct {
	Subject      string
	Capabilities []string
}

// Can reports whether the principal holds capability c.
func (p Principal) Can(c string) bool {
	return slices.Contains(p.Capabilities, c)
}

type sessionClaims struct {
	Capabilities []string `json:"caps"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies tokens with one shared secret.
type Issuer struct {
	secret    []byte
	actionTTL time.Duration
	now       func() time.Time
}

// NewIssuer returns an Issuer signing with secret. Action tokens expire after
// actionTTL; a non-positive value selects DefaultActionTTL.
func NewIssuer(secret string, actionTTL time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("auth.NewIssuer: secret is required")
	}
	if actionTTL <= 0 {
		actionTTL = DefaultActionTTL
	}
	return &Issuer{secret: []byte(secret), actionTTL: actionTTL, now: time.Now}, nil
}

// IssueSession signs a session token for subject holding caps, valid for ttl.
func (i *Issuer) IssueSession(subject string, caps []string, ttl time.Duration) (string, error) {
	now := i.now()
	claims := sessionClaims{
		Capabilities: caps,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{sessionAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("auth.Issuer.IssueSession: %w", err)
	}
	return signed, nil
}

// ParseSession verifies a session token and returns its principal.
// Every failure wraps domain.ErrUnauthorized.
func (i *Issuer) ParseSession(token string) (Principal, error) {
	var claims sessionClaims
	if err := i.parse(token, &claims, sessionAudience); err != nil {
		return Principal{}, fmt.Errorf("auth.Issuer.ParseSession: %w: %w", domain.ErrUnauthorized, err)
	}
	if claims.Subject == "" {
		return Principal{}, fmt.Errorf("auth.Issuer.ParseSession: %w: missing subject", domain.ErrUnauthorized)
	}
	return Principal{Subject: claims.Subject, Capabilities: claims.Capabilities}, nil
}

// IssueActionToken signs a token that lets subject perform action.
func (i *Issuer) IssueActionToken(subject, action string) (string, error) {
	now := i.now()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		Audience:  jwt.ClaimStrings{actionAudience + action},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.actionTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("auth.Issuer.IssueActionToken: %w", err)
	}
	return signed, nil
}

// VerifyActionToken checks that token was issued to subject for action and
// has not expired. Every failure wraps domain.ErrUnauthorized.
func (i *Issuer) VerifyActionToken(token, subject, action string) error {
	if token == "" {
		return fmt.Errorf("auth.Issuer.VerifyActionToken: %w: missing token", domain.ErrUnauthorized)
	}
	var claims jwt.RegisteredClaims
	if err := i.parse(token, &claims, actionAudience+action, jwt.WithSubject(subject)); err != nil {
		return fmt.Errorf("auth.Issuer.VerifyActionToken: %w: %w", domain.ErrUnauthorized, err)
	}
	return nil
}

func (i *Issuer) parse(token string, claims jwt.Claims, audience string, extra ...jwt.ParserOption) error {
	opts := append([]jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	}, extra...)

	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	}, opts...)
	return err
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored in ctx, if any.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// Require returns the principal in ctx when it holds capability c.
// A missing principal wraps domain.ErrUnauthorized; a missing capability
// wraps domain.ErrForbidden.
func Require(ctx context.Context, c string) (Principal, error) {
	p, ok := PrincipalFrom(ctx)
	if !ok {
		return Principal{}, fmt.Errorf("auth.Require: %w", domain.ErrUnauthorized)
	}
	if !p.Can(c) {
		return Principal{}, fmt.Errorf("auth.Require: %q: %w", c, domain.ErrForbidden)
	}
	return p, nil
}
