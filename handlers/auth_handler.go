package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	middleware "github.com/chajs226/smart-investor-api/middlewares"
	"github.com/chajs226/smart-investor-api/models"
	"github.com/chajs226/smart-investor-api/utils"
)

// SessionTTL bounds how long a sign-in stays valid.
const SessionTTL = 7 * 24 * time.Hour

type AuthHandler struct {
	Users       UserStore
	RedisClient *redis.Client
	JWTSecret   []byte
}

type signInResult struct {
	User     *models.User `json:"user,omitempty"`
	Warnings []string     `json:"warnings,omitempty"`
}

// SignIn handles POST /api/auth/signin, invoked by the OAuth callback after
// the provider handshake. The user upsert is best effort: a persistence
// failure becomes a warning and the session is issued regardless, so a
// datastore hiccup never blocks sign-in.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var params models.SignInParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	missing := []string{}
	if params.Email == "" {
		missing = append(missing, "email")
	}
	if params.Provider == "" {
		missing = append(missing, "provider")
	}
	if params.ProviderAccountID == "" {
		missing = append(missing, "provider_account_id")
	}
	if len(missing) > 0 {
		utils.RespondValidationError(w, "Missing required fields", missing)
		return
	}

	result := signInResult{}

	user, err := h.Users.ResolveOrCreate(r.Context(), params)
	if err != nil {
		log.Printf("Sign-in upsert failed for %s via %s: %v", params.Email, params.Provider, err)
		result.Warnings = append(result.Warnings, "failed to update user record")
	} else {
		result.User = user
	}

	token, err := utils.CreateToken(params.Email, SessionTTL, h.JWTSecret)
	if err != nil {
		utils.RespondInternal(w, err, "Could not create session")
		return
	}

	h.storeSession(r.Context(), params.Email, token)
	utils.SetSessionCookie(w, token, SessionTTL)

	utils.RespondSuccess(w, http.StatusOK, result)
}

// Logout handles GET /api/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(utils.SessionCookieName); err == nil && h.RedisClient != nil {
		if claims, err := utils.ParseToken(cookie.Value, h.JWTSecret); err == nil {
			redisCtx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()
			if err := h.RedisClient.Del(redisCtx, middleware.SessionKey(claims.Email)).Err(); err != nil {
				log.Printf("Failed to drop session for %s: %v", claims.Email, err)
			}
		}
	}

	utils.ClearSessionCookie(w)
	utils.RespondString(w, http.StatusOK, "Logged out")
}

func (h *AuthHandler) storeSession(ctx context.Context, email, token string) {
	if h.RedisClient == nil {
		return
	}
	redisCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := h.RedisClient.Set(redisCtx, middleware.SessionKey(email), token, SessionTTL).Err(); err != nil {
		log.Printf("Failed to store session for %s: %v", email, err)
	}
}
