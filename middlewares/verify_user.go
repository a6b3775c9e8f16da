package middleware

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chajs226/smart-investor-api/utils"
)

// errSessionStoreUnavailable marks Redis transport failures so an outage is
// reported as 503, not as a rejected session.
var errSessionStoreUnavailable = errors.New("session store unavailable")

type contextKey string

const EmailContextKey contextKey = "userEmail"

// EmailFromContext returns the authenticated identity, if any.
func EmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(EmailContextKey).(string)
	return email, ok && email != ""
}

// Auth validates session cookies. RedisClient is optional; when present the
// presented token must also match the recorded session, so logout and
// account deletion revoke it immediately.
type Auth struct {
	RedisClient *redis.Client
	JWTSecret   []byte
}

func (a *Auth) authenticate(r *http.Request) (string, error) {
	cookie, err := r.Cookie(utils.SessionCookieName)
	if err != nil {
		return "", err
	}

	claims, err := utils.ParseToken(cookie.Value, a.JWTSecret)
	if err != nil {
		return "", err
	}

	if a.RedisClient != nil {
		redisCtx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		stored, err := a.RedisClient.Get(redisCtx, SessionKey(claims.Email)).Result()
		if errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("session revoked")
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", errSessionStoreUnavailable, err)
		}
		if stored != cookie.Value {
			return "", fmt.Errorf("session token mismatch")
		}
	}

	return claims.Email, nil
}

// RequireAuth rejects requests without a valid session.
func (a *Auth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email, err := a.authenticate(r)
		if err != nil {
			if err == http.ErrNoCookie {
				utils.RespondError(w, http.StatusUnauthorized, "Unauthorized: Authentication token required")
				return
			}
			if errors.Is(err, errSessionStoreUnavailable) {
				log.Printf("Session check unavailable: %v", err)
				utils.RespondError(w, http.StatusServiceUnavailable, "Session verification temporarily unavailable")
				return
			}
			log.Printf("Auth failed: %v", err)
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized: Invalid or expired session")
			return
		}

		ctx := context.WithValue(r.Context(), EmailContextKey, email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuth attaches the identity when a valid session is present and
// passes anonymous requests through untouched.
func (a *Auth) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email, err := a.authenticate(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), EmailContextKey, email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionKey is the Redis key holding a user's current session token.
func SessionKey(email string) string {
	return fmt.Sprintf("session:%s", email)
}
