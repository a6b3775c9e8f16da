package routes

import (
	"net/http"

	"github.com/chajs226/smart-investor-api/handlers"
	middleware "github.com/chajs226/smart-investor-api/middlewares"
)

func UserRoutes(mux *http.ServeMux, uh *handlers.UserHandler, auth *middleware.Auth) {
	mux.Handle("GET /api/user/profile", auth.RequireAuth(http.HandlerFunc(uh.Profile)))
	mux.Handle("POST /api/user/decrement-analysis", auth.RequireAuth(http.HandlerFunc(uh.DecrementAnalysis)))
	mux.Handle("GET /api/user/providers", auth.RequireAuth(http.HandlerFunc(uh.Providers)))
	mux.Handle("DELETE /api/user/providers", auth.RequireAuth(http.HandlerFunc(uh.UnlinkProvider)))
	mux.Handle("DELETE /api/user/account", auth.RequireAuth(http.HandlerFunc(uh.DeleteAccount)))
}
