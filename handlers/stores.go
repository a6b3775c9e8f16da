// Package handlers maps routes onto repository call sequences. Handlers do
// input validation and response shaping; persistence rules live in the
// repository package, reached through the interfaces below so tests can run
// against fakes.
package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/chajs226/smart-investor-api/models"
)

type AnalysisStore interface {
	GetCached(ctx context.Context, market, symbol, name string, comparePeriods []string, model *string) (*models.StockAnalysis, error)
	GetOrCreate(ctx context.Context, a models.StockAnalysis) (*models.StockAnalysis, bool, error)
	List(ctx context.Context, limit, offset int) ([]models.StockAnalysis, error)
	SaveHistory(ctx context.Context, userID, analysisID uuid.UUID) (*models.AnalysisHistory, error)
	UserHistory(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.AnalysisHistoryWithDetails, error)
}

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ResolveOrCreate(ctx context.Context, p models.SignInParams) (*models.User, error)
	DecrementAnalysisCount(ctx context.Context, email string) (*models.User, error)
	AddCredits(ctx context.Context, email string, credits int, paymentIntentID, orderID string, amount int64) (*models.User, error)
	Providers(ctx context.Context, userID uuid.UUID) ([]models.UserProvider, error)
	UnlinkProvider(ctx context.Context, userID uuid.UUID, provider string) error
	Delete(ctx context.Context, userID uuid.UUID) error
}
