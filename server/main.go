package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/stripe/stripe-go/v82"

	"github.com/chajs226/smart-investor-api/config"
	"github.com/chajs226/smart-investor-api/database"
	"github.com/chajs226/smart-investor-api/handlers"
	middleware "github.com/chajs226/smart-investor-api/middlewares"
	"github.com/chajs226/smart-investor-api/repository"
	"github.com/chajs226/smart-investor-api/routes"
	"github.com/chajs226/smart-investor-api/utils"
)

func main() {
	cfg := config.LoadConfig()

	db, err := database.ConnectDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Printf("Error closing database connection: %v", closeErr)
		}
	}()

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Invalid Redis URL: %v", err)
	}
	redisClient := redis.NewClient(opt)

	stripe.Key = cfg.StripeKey

	userRepo := &repository.UserRepo{DB: db}
	analysisRepo := &repository.AnalysisRepo{DB: db}

	auth := &middleware.Auth{
		RedisClient: redisClient,
		JWTSecret:   []byte(cfg.SessionJWTSecret),
	}

	analysisHandler := &handlers.AnalysisHandler{
		Analyses: analysisRepo,
		Users:    userRepo,
	}
	userHandler := &handlers.UserHandler{
		Users:       userRepo,
		RedisClient: redisClient,
	}
	authHandler := &handlers.AuthHandler{
		Users:       userRepo,
		RedisClient: redisClient,
		JWTSecret:   []byte(cfg.SessionJWTSecret),
	}
	paymentHandler := &handlers.PaymentHandler{
		Users:         userRepo,
		Verifier:      handlers.StripeVerifier{},
		WebhookSecret: cfg.StripeWebhookSecret,
	}

	mux := http.NewServeMux()

	routes.AnalysisRoutes(mux, analysisHandler, auth)
	routes.UserRoutes(mux, userHandler, auth)
	routes.AuthRoutes(mux, authHandler)
	routes.PaymentRoutes(mux, paymentHandler, auth)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondError(w, http.StatusNotFound, "This route does not exist")
	})

	handler := middleware.CORS(cfg.FrontendURL)(
		middleware.SetCommonHeaders(
			middleware.GlobalRateLimiter(redisClient)(mux),
		),
	)

	fmt.Printf("server is running on http://localhost:%s\n", cfg.Port)

	log.Fatal(http.ListenAndServe(":"+cfg.Port, handler))
}
