package routes

import (
	"net/http"

	"github.com/chajs226/smart-investor-api/handlers"
	middleware "github.com/chajs226/smart-investor-api/middlewares"
)

func AnalysisRoutes(mux *http.ServeMux, h *handlers.AnalysisHandler, auth *middleware.Auth) {
	mux.HandleFunc("GET /api/analyses", h.List)
	mux.Handle("POST /api/analyses", auth.OptionalAuth(http.HandlerFunc(h.Create)))
	mux.Handle("POST /api/analyses/check-cache", auth.OptionalAuth(http.HandlerFunc(h.CheckCache)))
	mux.Handle("POST /api/analyses/save-history", auth.RequireAuth(http.HandlerFunc(h.SaveHistory)))
	mux.Handle("GET /api/user/analyses-history", auth.RequireAuth(http.HandlerFunc(h.UserHistory)))
}
