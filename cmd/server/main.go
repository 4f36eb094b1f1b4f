package main

import (
	"context"
	"os"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"

	"github.com/tidemarkhq/ripple/backend/internal/logger"
	"github.com/tidemarkhq/ripple/backend/internal/router"
	"github.com/tidemarkhq/ripple/backend/pkg/config"
	"github.com/tidemarkhq/ripple/backend/pkg/firebase"
	"github.com/tidemarkhq/ripple/backend/pkg/validators"
)

func main() {
	config.LoadEnv()
	log := logger.New()
	logger.SetDefault(log)

	cfg := config.Load()

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Error("failed to initialize databases", "error", err)
		os.Exit(1)
	}
	defer db.CloseDB()

	ctx := context.Background()
	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
	if err != nil {
		log.Error("failed to initialize firebase", "error", err)
		os.Exit(1)
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()

	router.SetupMiddleware(e)

	var authClient *auth.Client
	if firebaseApp != nil {
		authClient = firebaseApp.AuthClient
	}
	if err := router.SetupRoutes(e, db.Postgres, db.Mongo, cfg.MongoDatabase, authClient, log); err != nil {
		log.Error("failed to set up routes", "error", err)
		os.Exit(1)
	}

	if err := e.Start(":" + cfg.Port); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
