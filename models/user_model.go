package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	PlanFree = "free"
	PlanPaid = "paid"
)

// NewUserAnalysisCount is the credit balance granted on first sign-in.
const NewUserAnalysisCount = 10

type User struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	Email         string     `db:"email" json:"email"`
	Name          *string    `db:"name" json:"name,omitempty"`
	AnalysisCount int        `db:"analysis_count" json:"analysis_count"`
	Plan          string     `db:"plan" json:"plan"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
	LastLoginAt   *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
}

type UserProvider struct {
	ID                uuid.UUID `db:"id" json:"id"`
	UserID            uuid.UUID `db:"user_id" json:"user_id"`
	Provider          string    `db:"provider" json:"provider"`
	ProviderAccountID string    `db:"provider_account_id" json:"provider_account_id"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// UserProfile is the shape returned to the frontend, nothing sensitive.
type UserProfile struct {
	Email         string     `json:"email"`
	Name          *string    `json:"name,omitempty"`
	AnalysisCount int        `json:"analysis_count"`
	Plan          string     `json:"plan"`
	CreatedAt     time.Time  `json:"created_at"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
}

func (u *User) Profile() UserProfile {
	return UserProfile{
		Email:         u.Email,
		Name:          u.Name,
		AnalysisCount: u.AnalysisCount,
		Plan:          u.Plan,
		CreatedAt:     u.CreatedAt,
		LastLoginAt:   u.LastLoginAt,
	}
}

// SignInParams carries what the OAuth callback knows about the user.
type SignInParams struct {
	Email             string `json:"email"`
	Provider          string `json:"provider"`
	ProviderAccountID string `json:"provider_account_id"`
	Name              string `json:"name"`
}
