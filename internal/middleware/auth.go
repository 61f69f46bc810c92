package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pigpay/backend/internal/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type contextKey string

const usernameKey contextKey = "username"

// WithUsername stores the authenticated username on ctx.
func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, usernameKey, username)
}

// Username returns the authenticated username, or "" outside AuthMiddleware.
func Username(ctx context.Context) string {
	username, _ := ctx.Value(usernameKey).(string)
	return username
}

// BlacklistKey is the Redis key marking a logged-out token.
func BlacklistKey(token string) string {
	return "blacklist:" + token
}

type Authenticator struct {
	redis *redis.Client
	log   *logrus.Entry
}

// NewAuthenticator checks bearer tokens; rdb may be nil, in which case
// logged-out tokens are not rejected.
func NewAuthenticator(rdb *redis.Client) *Authenticator {
	return &Authenticator{redis: rdb, log: logging.For("auth")}
}

func (a *Authenticator) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := BearerToken(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		username, err := ValidateToken(token)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		if a.redis != nil {
			revoked, err := a.redis.Exists(r.Context(), BlacklistKey(token)).Result()
			if err != nil {
				a.log.WithError(err).Warn("[AUTH] Blacklist lookup failed")
			} else if revoked > 0 {
				http.Error(w, "Token has been revoked", http.StatusUnauthorized)
				return
			}
		}

		next.ServeHTTP(w, r.WithContext(WithUsername(r.Context(), username)))
	})
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("Authorization header required")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", errors.New("Invalid authorization header format")
	}
	return parts[1], nil
}

// ValidateToken verifies an HS256 token and returns its subject.
func ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(viper.GetString("jwt.secret_key")), nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("invalid token")
	}

	username, err := token.Claims.GetSubject()
	if err != nil || username == "" {
		return "", errors.New("token has no subject")
	}
	return username, nil
}
