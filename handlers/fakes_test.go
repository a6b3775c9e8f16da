package handlers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/chajs226/smart-investor-api/models"
)

// fakeAnalysisStore implements AnalysisStore with overridable behavior and
// records history appends for assertions.
type fakeAnalysisStore struct {
	getCachedFn   func(ctx context.Context, market, symbol, name string, comparePeriods []string, model *string) (*models.StockAnalysis, error)
	getOrCreateFn func(ctx context.Context, a models.StockAnalysis) (*models.StockAnalysis, bool, error)
	listFn        func(ctx context.Context, limit, offset int) ([]models.StockAnalysis, error)
	saveHistoryFn func(ctx context.Context, userID, analysisID uuid.UUID) (*models.AnalysisHistory, error)
	userHistoryFn func(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.AnalysisHistoryWithDetails, error)

	savedHistory []models.AnalysisHistory
}

func (f *fakeAnalysisStore) GetCached(ctx context.Context, market, symbol, name string, comparePeriods []string, model *string) (*models.StockAnalysis, error) {
	if f.getCachedFn != nil {
		return f.getCachedFn(ctx, market, symbol, name, comparePeriods, model)
	}
	return nil, nil
}

func (f *fakeAnalysisStore) GetOrCreate(ctx context.Context, a models.StockAnalysis) (*models.StockAnalysis, bool, error) {
	if f.getOrCreateFn != nil {
		return f.getOrCreateFn(ctx, a)
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	return &a, false, nil
}

func (f *fakeAnalysisStore) List(ctx context.Context, limit, offset int) ([]models.StockAnalysis, error) {
	if f.listFn != nil {
		return f.listFn(ctx, limit, offset)
	}
	return []models.StockAnalysis{}, nil
}

func (f *fakeAnalysisStore) SaveHistory(ctx context.Context, userID, analysisID uuid.UUID) (*models.AnalysisHistory, error) {
	if f.saveHistoryFn != nil {
		return f.saveHistoryFn(ctx, userID, analysisID)
	}
	h := models.AnalysisHistory{
		ID:         uuid.New(),
		UserID:     userID,
		AnalysisID: analysisID,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	f.savedHistory = append(f.savedHistory, h)
	return &h, nil
}

func (f *fakeAnalysisStore) UserHistory(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.AnalysisHistoryWithDetails, error) {
	if f.userHistoryFn != nil {
		return f.userHistoryFn(ctx, userID, limit, offset)
	}
	return []models.AnalysisHistoryWithDetails{}, nil
}

// fakeUserStore implements UserStore.
type fakeUserStore struct {
	getByEmailFn      func(ctx context.Context, email string) (*models.User, error)
	resolveOrCreateFn func(ctx context.Context, p models.SignInParams) (*models.User, error)
	decrementFn       func(ctx context.Context, email string) (*models.User, error)
	addCreditsFn      func(ctx context.Context, email string, credits int, paymentIntentID, orderID string, amount int64) (*models.User, error)
	providersFn       func(ctx context.Context, userID uuid.UUID) ([]models.UserProvider, error)
	unlinkProviderFn  func(ctx context.Context, userID uuid.UUID, provider string) error
	deleteFn          func(ctx context.Context, userID uuid.UUID) error

	deletedIDs []uuid.UUID
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.getByEmailFn != nil {
		return f.getByEmailFn(ctx, email)
	}
	return testUser(email), nil
}

func (f *fakeUserStore) ResolveOrCreate(ctx context.Context, p models.SignInParams) (*models.User, error) {
	if f.resolveOrCreateFn != nil {
		return f.resolveOrCreateFn(ctx, p)
	}
	return testUser(p.Email), nil
}

func (f *fakeUserStore) DecrementAnalysisCount(ctx context.Context, email string) (*models.User, error) {
	if f.decrementFn != nil {
		return f.decrementFn(ctx, email)
	}
	u := testUser(email)
	u.AnalysisCount--
	return u, nil
}

func (f *fakeUserStore) AddCredits(ctx context.Context, email string, credits int, paymentIntentID, orderID string, amount int64) (*models.User, error) {
	if f.addCreditsFn != nil {
		return f.addCreditsFn(ctx, email, credits, paymentIntentID, orderID, amount)
	}
	u := testUser(email)
	u.AnalysisCount += credits
	return u, nil
}

func (f *fakeUserStore) Providers(ctx context.Context, userID uuid.UUID) ([]models.UserProvider, error) {
	if f.providersFn != nil {
		return f.providersFn(ctx, userID)
	}
	return []models.UserProvider{}, nil
}

func (f *fakeUserStore) UnlinkProvider(ctx context.Context, userID uuid.UUID, provider string) error {
	if f.unlinkProviderFn != nil {
		return f.unlinkProviderFn(ctx, userID, provider)
	}
	return nil
}

func (f *fakeUserStore) Delete(ctx context.Context, userID uuid.UUID) error {
	f.deletedIDs = append(f.deletedIDs, userID)
	if f.deleteFn != nil {
		return f.deleteFn(ctx, userID)
	}
	return nil
}

func testUser(email string) *models.User {
	return &models.User{
		ID:            uuid.MustParse("5f9c9c3e-6f0a-4f0e-9a3d-2b1c8d7e6a50"),
		Email:         email,
		AnalysisCount: 10,
		Plan:          models.PlanFree,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
}

// envelope mirrors the response wrapper for decoding in tests.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Code    string          `json:"code"`
}
