package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	PrincipalKey contextKey = "principal"
)

// Role of an authenticated caller.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Principal is the authenticated caller.
type Principal struct {
	ID    string
	Email string
	Name  string
	Role  Role
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// Claims carried by user tokens.
type Claims struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// TokenVerifier turns a bearer token into a principal.
type TokenVerifier interface {
	Verify(token string) (Principal, error)
}

// JWTVerifier checks HS256 tokens signed with Secret.
type JWTVerifier struct {
	Secret []byte
}

func (v JWTVerifier) Verify(raw string) (Principal, error) {
	if len(v.Secret) == 0 {
		return Principal{}, errors.New("token verification not configured")
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return v.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Principal{}, fmt.Errorf("invalid token: %w", err)
	}
	if claims.ID == "" {
		return Principal{}, errors.New("invalid token: missing id claim")
	}
	return Principal{ID: claims.ID, Email: claims.Email, Name: claims.Name, Role: RoleUser}, nil
}

// Authenticate resolves the caller from an X-API-Key admin key or a bearer
// token. Requests without credentials pass through anonymously; bad
// credentials are rejected.
func Authenticate(verifier TokenVerifier, adminKeys []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key := strings.TrimSpace(r.Header.Get("X-API-Key")); key != "" {
				if !validAdminKey(key, adminKeys) {
					writeError(w, http.StatusUnauthorized, "invalid API key")
					return
				}
				next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), Principal{ID: "admin", Role: RoleAdmin})))
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				next.ServeHTTP(w, r)
				return
			}
			token, ok := strings.CutPrefix(auth, "Bearer ")
			token = strings.TrimSpace(token)
			if !ok || token == "" {
				writeError(w, http.StatusUnauthorized, "invalid Authorization header format")
				return
			}
			if verifier == nil {
				writeError(w, http.StatusUnauthorized, "token verification not configured")
				return
			}
			p, err := verifier.Verify(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// constant-time comparison to prevent timing attacks
func validAdminKey(key string, keys []string) bool {
	valid := false
	for _, k := range keys {
		if k != "" && subtle.ConstantTimeCompare([]byte(key), []byte(k)) == 1 {
			valid = true
		}
	}
	return valid
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

// PrincipalFromContext extracts the caller from context
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(PrincipalKey).(Principal)
	return p, ok
}

// IsAdminRequest reports whether Authenticate resolved an admin.
func IsAdminRequest(r *http.Request) bool {
	p, ok := PrincipalFromContext(r.Context())
	return ok && p.IsAdmin()
}

// RequireUser only admits callers authenticated with a user token.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		if !ok || p.Role != RoleUser || p.ID == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized: user not found")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePrincipal admits any authenticated caller.
func RequirePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := PrincipalFromContext(r.Context()); !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin admits admin callers only.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if !p.IsAdmin() {
			writeError(w, http.StatusForbidden, "admin only")
			return
		}
		next.ServeHTTP(w, r)
	})
}
