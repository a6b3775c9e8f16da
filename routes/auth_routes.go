package routes

import (
	"net/http"

	"github.com/chajs226/smart-investor-api/handlers"
)

func AuthRoutes(mux *http.ServeMux, ah *handlers.AuthHandler) {
	mux.HandleFunc("POST /api/auth/signin", ah.SignIn)
	mux.HandleFunc("GET /api/auth/logout", ah.Logout)
}
