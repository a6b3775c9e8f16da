package config

import (
	"log"
	"os"

	// this will automatically load your .env file:
	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	Port                string
	DatabaseURL         string
	RedisURL            string
	SessionJWTSecret    string
	StripeKey           string
	StripeWebhookSecret string
	FrontendURL         string
}

func LoadConfig() *Config {
	cfg := &Config{
		Port:                os.Getenv("PORT"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RedisURL:            os.Getenv("REDIS_URL"),
		SessionJWTSecret:    os.Getenv("SESSION_JWT_SECRET"),
		StripeKey:           os.Getenv("STRIPE_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		FrontendURL:         os.Getenv("FRONTEND_URL"),
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.FrontendURL == "" {
		cfg.FrontendURL = "http://localhost:3000"
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		log.Fatal("REDIS_URL is required")
	}
	if cfg.SessionJWTSecret == "" {
		log.Fatal("SESSION_JWT_SECRET is required")
	}

	return cfg
}
