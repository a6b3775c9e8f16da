package repository_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/chajs226/smart-investor-api/database"
	"github.com/chajs226/smart-investor-api/models"
	"github.com/chajs226/smart-investor-api/repository"
)

// Shared Postgres container for all tests in this package. Tests isolate
// themselves through unique emails and symbols, not per-test databases.
var (
	testDB       *sql.DB
	userRepo     *repository.UserRepo
	analysisRepo *repository.AnalysisRepo
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "investor",
			"POSTGRES_PASSWORD": "investor",
			"POSTGRES_DB":       "investor",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start container: %v\n", err)
		os.Exit(1)
	}

	host, err := container.Host(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get container host: %v\n", err)
		os.Exit(1)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get container port: %v\n", err)
		os.Exit(1)
	}

	dsn := fmt.Sprintf("postgres://investor:investor@%s:%s/investor?sslmode=disable", host, port.Port())

	testDB, err = database.ConnectDB(dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}

	schema, err := os.ReadFile("../migrations/001_init.sql")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read schema: %v\n", err)
		os.Exit(1)
	}
	if _, err := testDB.ExecContext(ctx, string(schema)); err != nil {
		fmt.Fprintf(os.Stderr, "failed to apply schema: %v\n", err)
		os.Exit(1)
	}

	userRepo = &repository.UserRepo{DB: testDB}
	analysisRepo = &repository.AnalysisRepo{DB: testDB}

	code := m.Run()

	testDB.Close()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%s@example.com", prefix, uuid.NewString()[:8])
}

func uniqueSymbol() string {
	return "sym-" + uuid.NewString()[:8]
}

func signInParams(email, provider, name string) models.SignInParams {
	return models.SignInParams{
		Email:             email,
		Provider:          provider,
		ProviderAccountID: provider + "-" + email,
		Name:              name,
	}
}

func sampleAnalysis(symbol string) models.StockAnalysis {
	return models.StockAnalysis{
		Market:         "KOSPI",
		Symbol:         symbol,
		Name:           symbol + " 종목",
		Report:         "분석 리포트 본문",
		ComparePeriods: []string{"2023", "2024"},
		Citations:      []string{"https://example.com/filing"},
	}
}

func mustSignIn(t *testing.T, email string) *models.User {
	t.Helper()
	user, err := userRepo.ResolveOrCreate(context.Background(), signInParams(email, "kakao", "이용자"))
	if err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}
	return user
}

func mustSaveAnalysis(t *testing.T, symbol string) *models.StockAnalysis {
	t.Helper()
	analysis, err := analysisRepo.Save(context.Background(), sampleAnalysis(symbol))
	if err != nil {
		t.Fatalf("save analysis failed: %v", err)
	}
	return analysis
}

// backdate moves an analysis row outside (or near the edge of) the cache
// freshness window.
func backdate(t *testing.T, analysisID uuid.UUID, age string) {
	t.Helper()
	_, err := testDB.Exec(
		`UPDATE stock_analyses SET created_at = now() - $2::interval WHERE id = $1`,
		analysisID, age)
	if err != nil {
		t.Fatalf("backdate failed: %v", err)
	}
}
