package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/yamdb/backend/models"
)

type contextKey string

const userKey contextKey = "user"

// Claims assert the identity's subject (username) and role. The role claim is
// informational; authorization reads the live user record so role changes
// take effect without re-issuing tokens.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// UserResolver turns a token subject back into the stored identity.
// Implemented by *store.DB.
type UserResolver interface {
	UserByUsername(ctx context.Context, username string) (*models.User, error)
}

// NewToken mints a bearer token for the identity.
func NewToken(user *models.User, secret string, ttl time.Duration) (string, error) {
	claims := &Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func parseToken(raw, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func errorJSON(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": msg}); err != nil {
		logrus.WithError(err).Warn("write response")
	}
}

func resolve(w http.ResponseWriter, r *http.Request, secret string, users UserResolver) (*models.User, bool) {
	auth := r.Header.Get("Authorization")
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		errorJSON(w, http.StatusUnauthorized, "invalid authorization format")
		return nil, false
	}
	claims, err := parseToken(parts[1], secret)
	if err != nil {
		errorJSON(w, http.StatusUnauthorized, "invalid or expired token")
		return nil, false
	}
	user, err := users.UserByUsername(r.Context(), claims.Subject)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "authentication failed")
		return nil, false
	}
	if user == nil {
		errorJSON(w, http.StatusUnauthorized, "invalid or expired token")
		return nil, false
	}
	return user, true
}

// Auth rejects requests without a valid bearer token.
func Auth(secret string, users UserResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				errorJSON(w, http.StatusUnauthorized, "missing authorization header")
				return
			}
			user, ok := resolve(w, r, secret, users)
			if !ok {
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// OptionalAuth lets anonymous requests through with no identity, so read-only
// endpoints stay public, but still rejects a malformed or stale token rather
// than silently downgrading it to anonymous.
func OptionalAuth(secret string, users UserResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}
			user, ok := resolve(w, r, secret, users)
			if !ok {
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the authenticated identity, or nil for anonymous.
func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}
