// Package api implements the studydesk REST API using chi.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/starford/studydesk/internal/metrics"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
	AuthModeJWT      = "jwt"
)

// DefaultUserID owns every record when requests carry no per-user identity.
const DefaultUserID = "local"

// AuthConfig controls how requests are authenticated and which user they act as.
//
//   - disabled: no credentials; every request acts as UserID.
//   - token: a shared Bearer token; every request acts as UserID.
//   - jwt: an HS256 Bearer token signed with JWTSecret; the "sub" claim is the user.
type AuthConfig struct {
	Mode      string
	Token     string
	UserID    string
	JWTSecret string
}

type userKey struct{}

// WithUser returns a copy of ctx carrying userID.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// UserFrom returns the user resolved by the auth middleware.
func UserFrom(ctx context.Context) string {
	if id, ok := ctx.Value(userKey{}).(string); ok {
		return id
	}
	return DefaultUserID
}

// AuthMiddleware resolves the calling user and rejects unauthenticated
// requests with 401.
func AuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	fixed := cfg.UserID
	if fixed == "" {
		fixed = DefaultUserID
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Mode == "" || cfg.Mode == AuthModeDisabled {
				next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), fixed)))
				return
			}

			user, err := authenticate(cfg, fixed, r)
			if err != nil {
				metrics.TrackAuth(cfg.Mode, "denied")
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			metrics.TrackAuth(cfg.Mode, "ok")
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func authenticate(cfg AuthConfig, fixed string, r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", errors.New("missing bearer token")
	}
	raw := strings.TrimPrefix(auth, "Bearer ")

	switch cfg.Mode {
	case AuthModeToken:
		if raw != cfg.Token {
			return "", errors.New("token mismatch")
		}
		return fixed, nil
	case AuthModeJWT:
		token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(cfg.JWTSecret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			return "", err
		}
		sub, err := token.Claims.GetSubject()
		if err != nil || sub == "" {
			return "", errors.New("token has no subject")
		}
		return sub, nil
	}
	return "", fmt.Errorf("unknown auth mode %q", cfg.Mode)
}
