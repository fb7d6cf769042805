// Package auth verifies the bearer tokens presented to the admin API.
//
// Tokens are HS256 JWTs minted by the portal with a shared signing key. This
// service only verifies them.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

var (
	ErrNoToken       = errors.New("missing bearer token")
	ErrInvalidToken  = errors.New("invalid token")
	ErrForbidden     = errors.New("token lacks required role")
	ErrNotConfigured = errors.New("admin authentication is not configured")
)

// Claims matches the portal token layout.
type Claims struct {
	UserID string   `json:"uid"`
	Email  string   `json:"email"`
	Roles  []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// HasRole reports whether the token carries role.
func (c *Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// Verifier validates tokens against a signing key, and an issuer when set.
type Verifier struct {
	signingKey []byte
	issuer     string
	role       string
}

// NewVerifier returns a Verifier requiring role on every token.
func NewVerifier(signingKey, issuer, role string) *Verifier {
	return &Verifier{signingKey: []byte(signingKey), issuer: issuer, role: role}
}

// Verify parses tokenString and checks signature, expiry, issuer and role.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	if len(v.signingKey) == 0 {
		return nil, ErrNotConfigured
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.signingKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if v.issuer != "" && !claims.VerifyIssuer(v.issuer, true) {
		return nil, fmt.Errorf("%w: issuer %q", ErrInvalidToken, claims.Issuer)
	}
	if v.role != "" && !claims.HasRole(v.role) {
		return nil, ErrForbidden
	}
	return claims, nil
}

type contextKey string

const claimsKey contextKey = "claims"

// ClaimsFrom returns the claims stored by Middleware.
func ClaimsFrom(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok
}

// Middleware rejects requests without a valid admin token.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearer(r)
		if !ok {
			writeError(w, ErrNoToken.Error(), http.StatusUnauthorized)
			return
		}

		claims, err := v.Verify(raw)
		switch {
		case errors.Is(err, ErrNotConfigured):
			writeError(w, err.Error(), http.StatusServiceUnavailable)
			return
		case errors.Is(err, ErrForbidden):
			writeError(w, err.Error(), http.StatusForbidden)
			return
		case err != nil:
			writeError(w, ErrInvalidToken.Error(), http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(h, "Bearer ")
	if !ok {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg}) //nolint:errcheck
}
