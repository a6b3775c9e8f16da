package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/chajs226/smart-investor-api/models"
)

type AnalysisRepo struct {
	DB *sql.DB
}

const analysisColumns = `id, market, symbol, name, sector, report, financial_table, compare_periods, model, citations, created_at, updated_at`

func scanAnalysis(row rowScanner) (*models.StockAnalysis, error) {
	var a models.StockAnalysis
	var sector, financialTable, model sql.NullString

	err := row.Scan(
		&a.ID, &a.Market, &a.Symbol, &a.Name,
		&sector, &a.Report, &financialTable,
		pq.Array(&a.ComparePeriods), &model, pq.Array(&a.Citations),
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if sector.Valid {
		a.Sector = &sector.String
	}
	if financialTable.Valid {
		a.FinancialTable = &financialTable.String
	}
	if model.Valid {
		a.Model = &model.String
	}
	return &a, nil
}

func emptyIfNil(periods []string) []string {
	if periods == nil {
		return []string{}
	}
	return periods
}

// GetCached returns the most recent analysis created within the last 7 days
// matching market, symbol and name exactly, whose stored compare_periods
// contain the requested ones (order-insensitive; an empty request matches
// anything) and whose model matches when one is requested. A miss is
// (nil, nil), not an error.
func (r *AnalysisRepo) GetCached(ctx context.Context, market, symbol, name string, comparePeriods []string, model *string) (*models.StockAnalysis, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+analysisColumns+`
		FROM stock_analyses
		WHERE market = $1 AND symbol = $2 AND name = $3
		  AND created_at >= now() - interval '7 days'
		  AND (cardinality($4::text[]) = 0 OR compare_periods @> $4::text[])
		  AND ($5::text IS NULL OR model = $5)
		ORDER BY created_at DESC
		LIMIT 1
	`, market, symbol, name, pq.Array(emptyIfNil(comparePeriods)), model)

	analysis, err := scanAnalysis(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return analysis, err
}

// GetOrCreate returns the cached analysis for the tuple when one exists in
// the freshness window, otherwise inserts a new row. A transaction-scoped
// advisory lock on the market/symbol/name tuple serializes concurrent
// misses, so two identical requests cannot both insert. The boolean reports
// whether the row came from cache.
func (r *AnalysisRepo) GetOrCreate(ctx context.Context, a models.StockAnalysis) (*models.StockAnalysis, bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Held until commit.
	if _, err := tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`,
		a.Market+"/"+a.Symbol+"/"+a.Name); err != nil {
		return nil, false, fmt.Errorf("failed to lock analysis tuple: %w", err)
	}

	row := tx.QueryRowContext(ctx, `
		WITH cached AS (
			SELECT `+analysisColumns+`
			FROM stock_analyses
			WHERE market = $1 AND symbol = $2 AND name = $3
			  AND created_at >= now() - interval '7 days'
			  AND (cardinality($7::text[]) = 0 OR compare_periods @> $7::text[])
			  AND ($8::text IS NULL OR model = $8)
			ORDER BY created_at DESC
			LIMIT 1
		), inserted AS (
			INSERT INTO stock_analyses
				(market, symbol, name, sector, report, financial_table, compare_periods, model, citations)
			SELECT $1, $2, $3, $4, $5, $6, $7::text[], $8, $9::text[]
			WHERE NOT EXISTS (SELECT 1 FROM cached)
			RETURNING `+analysisColumns+`
		)
		SELECT c.*, TRUE AS from_cache FROM cached c
		UNION ALL
		SELECT i.*, FALSE FROM inserted i
	`,
		a.Market, a.Symbol, a.Name,
		nullStringPtr(a.Sector), a.Report, nullStringPtr(a.FinancialTable),
		pq.Array(emptyIfNil(a.ComparePeriods)), nullStringPtr(a.Model),
		pq.Array(emptyIfNil(a.Citations)),
	)

	var result models.StockAnalysis
	var sector, financialTable, model sql.NullString
	var fromCache bool

	err = row.Scan(
		&result.ID, &result.Market, &result.Symbol, &result.Name,
		&sector, &result.Report, &financialTable,
		pq.Array(&result.ComparePeriods), &model, pq.Array(&result.Citations),
		&result.CreatedAt, &result.UpdatedAt, &fromCache,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get or create analysis: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit: %w", err)
	}
	if sector.Valid {
		result.Sector = &sector.String
	}
	if financialTable.Valid {
		result.FinancialTable = &financialTable.String
	}
	if model.Valid {
		result.Model = &model.String
	}
	return &result, fromCache, nil
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// Save inserts a new analysis unconditionally.
func (r *AnalysisRepo) Save(ctx context.Context, a models.StockAnalysis) (*models.StockAnalysis, error) {
	row := r.DB.QueryRowContext(ctx, `
		INSERT INTO stock_analyses
			(market, symbol, name, sector, report, financial_table, compare_periods, model, citations)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+analysisColumns,
		a.Market, a.Symbol, a.Name,
		nullStringPtr(a.Sector), a.Report, nullStringPtr(a.FinancialTable),
		pq.Array(emptyIfNil(a.ComparePeriods)), nullStringPtr(a.Model),
		pq.Array(emptyIfNil(a.Citations)),
	)
	return scanAnalysis(row)
}

// List returns analyses newest first.
func (r *AnalysisRepo) List(ctx context.Context, limit, offset int) ([]models.StockAnalysis, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+analysisColumns+`
		FROM stock_analyses
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	analyses := []models.StockAnalysis{}
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, *a)
	}
	return analyses, rows.Err()
}

func (r *AnalysisRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM stock_analyses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveHistory appends one user-obtained-analysis record. Rows are never
// updated afterwards.
func (r *AnalysisRepo) SaveHistory(ctx context.Context, userID, analysisID uuid.UUID) (*models.AnalysisHistory, error) {
	var h models.AnalysisHistory
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO analyses_history (user_id, analysis_id)
		VALUES ($1, $2)
		RETURNING id, user_id, analysis_id, created_at, updated_at
	`, userID, analysisID).Scan(&h.ID, &h.UserID, &h.AnalysisID, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23503" {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to save history: %w", err)
	}
	return &h, nil
}

func (r *AnalysisRepo) HistoryByID(ctx context.Context, id uuid.UUID) (*models.AnalysisHistory, error) {
	var h models.AnalysisHistory
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, user_id, analysis_id, created_at, updated_at
		FROM analyses_history
		WHERE id = $1
	`, id).Scan(&h.ID, &h.UserID, &h.AnalysisID, &h.CreatedAt, &h.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// UserHistory returns the user's history newest first, each row joined with
// its analysis.
func (r *AnalysisRepo) UserHistory(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.AnalysisHistoryWithDetails, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT h.id, h.user_id, h.analysis_id, h.created_at, h.updated_at,
		       a.id, a.market, a.symbol, a.name, a.sector, a.report, a.financial_table,
		       a.compare_periods, a.model, a.citations, a.created_at, a.updated_at
		FROM analyses_history h
		JOIN stock_analyses a ON a.id = h.analysis_id
		WHERE h.user_id = $1
		ORDER BY h.created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := []models.AnalysisHistoryWithDetails{}
	for rows.Next() {
		var h models.AnalysisHistoryWithDetails
		var sector, financialTable, model sql.NullString
		err := rows.Scan(
			&h.ID, &h.UserID, &h.AnalysisID, &h.CreatedAt, &h.UpdatedAt,
			&h.StockAnalysis.ID, &h.StockAnalysis.Market, &h.StockAnalysis.Symbol, &h.StockAnalysis.Name,
			&sector, &h.StockAnalysis.Report, &financialTable,
			pq.Array(&h.StockAnalysis.ComparePeriods), &model, pq.Array(&h.StockAnalysis.Citations),
			&h.StockAnalysis.CreatedAt, &h.StockAnalysis.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		if sector.Valid {
			h.StockAnalysis.Sector = &sector.String
		}
		if financialTable.Valid {
			h.StockAnalysis.FinancialTable = &financialTable.String
		}
		if model.Valid {
			h.StockAnalysis.Model = &model.String
		}
		history = append(history, h)
	}
	return history, rows.Err()
}
