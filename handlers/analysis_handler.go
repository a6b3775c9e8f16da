package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	middleware "github.com/chajs226/smart-investor-api/middlewares"
	"github.com/chajs226/smart-investor-api/models"
	"github.com/chajs226/smart-investor-api/repository"
	"github.com/chajs226/smart-investor-api/utils"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 100
)

type AnalysisHandler struct {
	Analyses AnalysisStore
	Users    UserStore
}

// List handles GET /api/analyses. Public, newest first.
func (h *AnalysisHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePaging(r)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	analyses, err := h.Analyses.List(r.Context(), limit, offset)
	if err != nil {
		utils.RespondInternal(w, err, "Failed to fetch analyses")
		return
	}

	utils.RespondSuccess(w, http.StatusOK, map[string]interface{}{
		"data":  analyses,
		"count": len(analyses),
	})
}

// Create handles POST /api/analyses: serve the cached analysis when one
// exists inside the freshness window, otherwise persist the supplied report.
// For signed-in users a history row is appended afterwards; that step is
// best effort and surfaces as a warning instead of failing the request.
func (h *AnalysisHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if missing := missingFields(map[string]string{
		"market": req.Market,
		"symbol": req.Symbol,
		"name":   req.Name,
		"report": req.Report,
	}); len(missing) > 0 {
		utils.RespondValidationError(w, "Missing required fields", missing)
		return
	}

	analysis, fromCache, err := h.Analyses.GetOrCreate(r.Context(), req.Analysis())
	if err != nil {
		utils.RespondInternal(w, err, "Failed to process analysis")
		return
	}

	warnings := h.recordHistory(r.Context(), analysis.ID)

	utils.RespondSuccess(w, http.StatusOK, models.AnalysisResult{
		Data:      analysis,
		FromCache: fromCache,
		Warnings:  warnings,
	})
}

// CheckCache handles POST /api/analyses/check-cache: same tuple as Create
// minus the report. A cache hit for a signed-in user also appends history,
// best effort.
func (h *AnalysisHandler) CheckCache(w http.ResponseWriter, r *http.Request) {
	var req models.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if missing := missingFields(map[string]string{
		"market": req.Market,
		"symbol": req.Symbol,
		"name":   req.Name,
	}); len(missing) > 0 {
		utils.RespondValidationError(w, "Missing required fields", missing)
		return
	}

	var model *string
	if req.Model != "" {
		model = &req.Model
	}

	cached, err := h.Analyses.GetCached(r.Context(), req.Market, req.Symbol, req.Name, req.ComparePeriods, model)
	if err != nil {
		utils.RespondInternal(w, err, "Failed to check cache")
		return
	}

	if cached == nil {
		utils.RespondSuccess(w, http.StatusOK, models.CacheCheckResult{Cached: false, Data: nil})
		return
	}

	warnings := h.recordHistory(r.Context(), cached.ID)

	utils.RespondSuccess(w, http.StatusOK, models.CacheCheckResult{
		Cached:   true,
		Data:     cached,
		Warnings: warnings,
	})
}

// recordHistory appends a history row for the authenticated user, if any.
// Failures are collected as warnings; the primary operation already
// succeeded by the time this runs.
func (h *AnalysisHandler) recordHistory(ctx context.Context, analysisID uuid.UUID) []string {
	email, ok := middleware.EmailFromContext(ctx)
	if !ok {
		return nil
	}

	user, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		log.Printf("History skipped for %s: %v", email, err)
		if errors.Is(err, repository.ErrNotFound) {
			return []string{"user record not found; history not recorded"}
		}
		return []string{"failed to resolve user; history not recorded"}
	}

	if _, err := h.Analyses.SaveHistory(ctx, user.ID, analysisID); err != nil {
		log.Printf("Failed to save history for %s: %v", email, err)
		return []string{"failed to record analysis history"}
	}

	return nil
}

// SaveHistory handles POST /api/analyses/save-history. Requires a session.
func (h *AnalysisHandler) SaveHistory(w http.ResponseWriter, r *http.Request) {
	email, ok := middleware.EmailFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var body struct {
		AnalysisID string `json:"analysisId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.AnalysisID == "" {
		utils.RespondValidationError(w, "Missing required fields", []string{"analysisId"})
		return
	}

	analysisID, err := uuid.Parse(body.AnalysisID)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid analysisId")
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

	history, err := h.Analyses.SaveHistory(r.Context(), user.ID, analysisID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.RespondError(w, http.StatusNotFound, "Analysis not found")
			return
		}
		utils.RespondInternal(w, err, "Failed to save analysis history")
		return
	}

	utils.RespondSuccess(w, http.StatusOK, history)
}

// UserHistory handles GET /api/user/analyses-history. Requires a session.
func (h *AnalysisHandler) UserHistory(w http.ResponseWriter, r *http.Request) {
	email, ok := middleware.EmailFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	limit, offset, err := parsePaging(r)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
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

	history, err := h.Analyses.UserHistory(r.Context(), user.ID, limit, offset)
	if err != nil {
		utils.RespondInternal(w, err, "Failed to get analysis history")
		return
	}

	utils.RespondSuccess(w, http.StatusOK, map[string]interface{}{
		"data":  history,
		"count": len(history),
	})
}

func parsePaging(r *http.Request) (limit, offset int, err error) {
	limit = defaultPageLimit
	offset = 0

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return 0, 0, fmt.Errorf("invalid limit")
		}
		if limit > maxPageLimit {
			limit = maxPageLimit
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("invalid offset")
		}
	}
	return limit, offset, nil
}

func missingFields(fields map[string]string) []string {
	missing := []string{}
	for _, name := range []string{"market", "symbol", "name", "report"} {
		if value, required := fields[name]; required && value == "" {
			missing = append(missing, name)
		}
	}
	return missing
}
