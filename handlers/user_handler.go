package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	middleware "github.com/chajs226/smart-investor-api/middlewares"
	"github.com/chajs226/smart-investor-api/repository"
	"github.com/chajs226/smart-investor-api/utils"
)

type UserHandler struct {
	Users       UserStore
	RedisClient *redis.Client
}

// Profile handles GET /api/user/profile.
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	email, ok := middleware.EmailFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.Users.GetByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.RespondError(w, http.StatusNotFound, "User not found")
			return
		}
		utils.RespondInternal(w, err, "Failed to fetch user profile")
		return
	}

	utils.RespondSuccess(w, http.StatusOK, user.Profile())
}

// DecrementAnalysis handles POST /api/user/decrement-analysis. Spends one
// credit; an exhausted balance is a client-rejectable state, not a server
// error.
func (h *UserHandler) DecrementAnalysis(w http.ResponseWriter, r *http.Request) {
	email, ok := middleware.EmailFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.Users.DecrementAnalysisCount(r.Context(), email)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNoCredits):
			utils.RespondError(w, http.StatusForbidden, "No analyses remaining")
		case errors.Is(err, repository.ErrNotFound):
			utils.RespondError(w, http.StatusNotFound, "User not found")
		default:
			utils.RespondInternal(w, err, "Failed to decrement analysis count")
		}
		return
	}

	utils.RespondSuccess(w, http.StatusOK, map[string]interface{}{
		"analysis_count": user.AnalysisCount,
	})
}

// Providers handles GET /api/user/providers.
func (h *UserHandler) Providers(w http.ResponseWriter, r *http.Request) {
	email, ok := middleware.EmailFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.Users.GetByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.RespondError(w, http.StatusNotFound, "User not found")
			return
		}
		utils.RespondInternal(w, err, "Failed to fetch providers")
		return
	}

	providers, err := h.Users.Providers(r.Context(), user.ID)
	if err != nil {
		utils.RespondInternal(w, err, "Failed to fetch providers")
		return
	}

	utils.RespondSuccess(w, http.StatusOK, map[string]interface{}{
		"providers": providers,
	})
}

// UnlinkProvider handles DELETE /api/user/providers. The last remaining
// login method cannot be removed.
func (h *UserHandler) UnlinkProvider(w http.ResponseWriter, r *http.Request) {
	email, ok := middleware.EmailFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var body struct {
		Provider string `json:"provider"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.Provider == "" {
		utils.RespondValidationError(w, "Missing required fields", []string{"provider"})
		return
	}

	user, err := h.Users.GetByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.RespondError(w, http.StatusNotFound, "User not found")
			return
		}
		utils.RespondInternal(w, err, "Failed to resolve user")
		return
	}

	if err := h.Users.UnlinkProvider(r.Context(), user.ID, body.Provider); err != nil {
		switch {
		case errors.Is(err, repository.ErrLastProvider):
			utils.RespondError(w, http.StatusBadRequest, "Cannot remove last login method")
		case errors.Is(err, repository.ErrNotFound):
			utils.RespondError(w, http.StatusNotFound, "Provider link not found")
		default:
			utils.RespondInternal(w, err, "Failed to unlink provider")
		}
		return
	}

	utils.RespondString(w, http.StatusOK, "Provider unlinked successfully")
}

// DeleteAccount handles DELETE /api/user/account. Provider links, history
// and payments cascade in the datastore.
func (h *UserHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	email, ok := middleware.EmailFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.Users.GetByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.RespondError(w, http.StatusNotFound, "User not found")
			return
		}
		utils.RespondInternal(w, err, "Failed to resolve user")
		return
	}

	if err := h.Users.Delete(r.Context(), user.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.RespondError(w, http.StatusNotFound, "User not found")
			return
		}
		utils.RespondInternal(w, err, "Failed to delete account")
		return
	}

	h.dropSession(r.Context(), email)
	utils.ClearSessionCookie(w)

	utils.RespondString(w, http.StatusOK, "Account deleted")
}

func (h *UserHandler) dropSession(ctx context.Context, email string) {
	if h.RedisClient == nil {
		return
	}
	redisCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := h.RedisClient.Del(redisCtx, middleware.SessionKey(email)).Err(); err != nil {
		log.Printf("Failed to drop session for %s: %v", email, err)
	}
}
