package common

import (
	"context"
	"net/http"
	"strings"
)

// SessionCookie carries the session token for browser clients.
const SessionCookie = "portal_session"

// IdentityChecker confirms a token's identity is still allowed in, e.g. not banned or deleted.
type IdentityChecker interface {
	CheckActive(ctx context.Context, id Identity) error
}

// Authenticator resolves the caller of an HTTP request from its session token.
type Authenticator struct {
	issuer  *TokenIssuer
	checker IdentityChecker
}

func NewAuthenticator(issuer *TokenIssuer, checker IdentityChecker) *Authenticator {
	return &Authenticator{issuer: issuer, checker: checker}
}

// TokenFromRequest looks at the Authorization header, then the session cookie,
// then the token query parameter (EventSource cannot set headers).
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.Fields(h)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	return r.URL.Query().Get("token")
}

func (a *Authenticator) Resolve(r *http.Request) (Identity, error) {
	tokenString := TokenFromRequest(r)
	if tokenString == "" {
		return Identity{}, Unauthorized("login required")
	}
	id, err := a.issuer.ValidToken(tokenString)
	if err != nil {
		return Identity{}, Unauthorized("invalid or expired session")
	}
	if a.checker != nil {
		if err := a.checker.CheckActive(r.Context(), id); err != nil {
			return Identity{}, err
		}
	}
	return id, nil
}

// RequireIdentity rejects requests without a valid session and injects the identity into the context.
func (a *Authenticator) RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := a.Resolve(r)
		if err != nil {
			WriteError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

func (a *Authenticator) RequireAdmin(next http.Handler) http.Handler {
	return a.RequireIdentity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := IdentityFrom(r.Context())
		if !id.Admin {
			WriteError(w, Forbidden("admin only"))
			return
		}
		next.ServeHTTP(w, r)
	}))
}
