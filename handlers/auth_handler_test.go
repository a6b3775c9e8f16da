package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chajs226/smart-investor-api/models"
	"github.com/chajs226/smart-investor-api/utils"
)

var testJWTSecret = []byte("test-secret")

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == utils.SessionCookieName {
			return c
		}
	}
	return nil
}

func TestSignIn(t *testing.T) {
	validBody := map[string]string{
		"email":               "user@example.com",
		"provider":            "kakao",
		"provider_account_id": "kakao-123",
		"name":                "User",
	}

	t.Run("missing fields", func(t *testing.T) {
		h := &AuthHandler{Users: &fakeUserStore{}, JWTSecret: testJWTSecret}

		rec := httptest.NewRecorder()
		h.SignIn(rec, postJSON(t, "/api/auth/signin", map[string]string{"email": "user@example.com"}))

		require.Equal(t, http.StatusBadRequest, rec.Code)

		var resp envelope
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Contains(t, resp.Message, "provider")
		assert.Contains(t, resp.Message, "provider_account_id")
	})

	t.Run("issues a session and returns the user", func(t *testing.T) {
		h := &AuthHandler{Users: &fakeUserStore{}, JWTSecret: testJWTSecret}

		rec := httptest.NewRecorder()
		h.SignIn(rec, postJSON(t, "/api/auth/signin", validBody))

		require.Equal(t, http.StatusOK, rec.Code)

		cookie := sessionCookie(t, rec)
		require.NotNil(t, cookie)
		claims, err := utils.ParseToken(cookie.Value, testJWTSecret)
		require.NoError(t, err)
		assert.Equal(t, "user@example.com", claims.Email)

		var resp envelope
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		var result struct {
			User     *models.User `json:"user"`
			Warnings []string     `json:"warnings"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &result))
		require.NotNil(t, result.User)
		assert.Equal(t, "user@example.com", result.User.Email)
		assert.Empty(t, result.Warnings)
	})

	t.Run("upsert failure never blocks sign-in", func(t *testing.T) {
		users := &fakeUserStore{
			resolveOrCreateFn: func(ctx context.Context, p models.SignInParams) (*models.User, error) {
				return nil, fmt.Errorf("datastore unavailable")
			},
		}
		h := &AuthHandler{Users: users, JWTSecret: testJWTSecret}

		rec := httptest.NewRecorder()
		h.SignIn(rec, postJSON(t, "/api/auth/signin", validBody))

		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, sessionCookie(t, rec), "session must still be issued")

		var resp envelope
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		var result struct {
			User     *models.User `json:"user"`
			Warnings []string     `json:"warnings"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &result))
		assert.Nil(t, result.User)
		assert.Contains(t, result.Warnings, "failed to update user record")
	})
}

func TestLogout(t *testing.T) {
	h := &AuthHandler{Users: &fakeUserStore{}, JWTSecret: testJWTSecret}

	rec := httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodGet, "/api/auth/logout", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	cookie := sessionCookie(t, rec)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.True(t, cookie.Expires.Before(time.Now()), "cookie must be expired")
}
