package main

import (
	"fmt"
	"log"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/tarhal-app/backend/internal/realtime"
	"github.com/tarhal-app/backend/internal/router"
	"github.com/tarhal-app/backend/internal/validators"
	"github.com/tarhal-app/backend/pkg/config"
	"github.com/tarhal-app/backend/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logging.InitLogger(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	logger := logging.GetLogger()
	defer logger.Sync()

	db, err := config.InitDB(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize databases", zap.Error(err))
	}
	defer db.Close()

	hub := realtime.NewHub()
	go hub.Run()

	e := echo.New()
	e.Validator = validators.NewValidator()
	router.SetupMiddleware(e)
	if err := router.SetupRoutes(e, cfg, db, hub); err != nil {
		logger.Fatal("Failed to set up routes", zap.Error(err))
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Starting server", zap.String("addr", addr), zap.String("env", cfg.Server.Env))
	if err := e.Start(addr); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}
