// stubapi runs the fixture-backed stand-in for the clinic dashboard
// backend, for local development of dashboard frontends.
package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"github.com/medidesk/dashboard/internal/config"
	"github.com/medidesk/dashboard/internal/stubapi"
	"github.com/medidesk/dashboard/pkg/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	server := stubapi.NewServer(stubapi.Options{
		JWTSecret: cfg.StubJWTSecret,
		Logger:    logger,
	})

	logger.Info("stub backend listening", "addr", cfg.StubAddr)
	if err := http.ListenAndServe(cfg.StubAddr, server); err != nil {
		logger.Error("server exited", "error", err)
	}
}
