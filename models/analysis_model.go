package models

import (
	"time"

	"github.com/google/uuid"
)

type StockAnalysis struct {
	ID             uuid.UUID `db:"id" json:"id"`
	Market         string    `db:"market" json:"market"`
	Symbol         string    `db:"symbol" json:"symbol"`
	Name           string    `db:"name" json:"name"`
	Sector         *string   `db:"sector" json:"sector,omitempty"`
	Report         string    `db:"report" json:"report"`
	FinancialTable *string   `db:"financial_table" json:"financial_table,omitempty"`
	ComparePeriods []string  `db:"compare_periods" json:"compare_periods"`
	Model          *string   `db:"model" json:"model,omitempty"`
	Citations      []string  `db:"citations" json:"citations"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

type AnalysisHistory struct {
	ID         uuid.UUID `db:"id" json:"id"`
	UserID     uuid.UUID `db:"user_id" json:"user_id"`
	AnalysisID uuid.UUID `db:"analysis_id" json:"analysis_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// AnalysisHistoryWithDetails joins a history row with its analysis.
type AnalysisHistoryWithDetails struct {
	AnalysisHistory
	StockAnalysis StockAnalysis `json:"stock_analysis"`
}

// AnalysisRequest is the POST /api/analyses body. Report is not required by
// the check-cache endpoint.
type AnalysisRequest struct {
	Market         string   `json:"market"`
	Symbol         string   `json:"symbol"`
	Name           string   `json:"name"`
	Sector         string   `json:"sector"`
	Report         string   `json:"report"`
	FinancialTable string   `json:"financial_table"`
	ComparePeriods []string `json:"compare_periods"`
	Model          string   `json:"model"`
	Citations      []string `json:"citations"`
}

// Analysis converts the request body into a row to persist.
func (r *AnalysisRequest) Analysis() StockAnalysis {
	a := StockAnalysis{
		Market:         r.Market,
		Symbol:         r.Symbol,
		Name:           r.Name,
		Report:         r.Report,
		ComparePeriods: r.ComparePeriods,
		Citations:      r.Citations,
	}
	if r.Sector != "" {
		a.Sector = &r.Sector
	}
	if r.FinancialTable != "" {
		a.FinancialTable = &r.FinancialTable
	}
	if r.Model != "" {
		a.Model = &r.Model
	}
	return a
}

// AnalysisResult is the primary outcome of a create-analysis request plus
// any non-fatal warnings collected along the way (failed history append,
// unresolved user). Warnings never fail the request.
type AnalysisResult struct {
	Data      *StockAnalysis `json:"data"`
	FromCache bool           `json:"fromCache"`
	Warnings  []string       `json:"warnings,omitempty"`
}

// CacheCheckResult is the check-cache response payload.
type CacheCheckResult struct {
	Cached   bool           `json:"cached"`
	Data     *StockAnalysis `json:"data"`
	Warnings []string       `json:"warnings,omitempty"`
}
