package routes

import (
	"net/http"

	"github.com/chajs226/smart-investor-api/handlers"
	middleware "github.com/chajs226/smart-investor-api/middlewares"
)

func PaymentRoutes(mux *http.ServeMux, ph *handlers.PaymentHandler, auth *middleware.Auth) {
	mux.Handle("POST /api/payment/confirm", auth.RequireAuth(http.HandlerFunc(ph.Confirm)))
	mux.HandleFunc("POST /webhook", ph.HandleWebhook)
}
