package router

import (
	"context"
	"fmt"
	"log/slog"

	"firebase.google.com/go/v4/auth"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/tidemarkhq/ripple/backend/internal/handlers"
	"github.com/tidemarkhq/ripple/backend/internal/middleware"
	"github.com/tidemarkhq/ripple/backend/internal/models"
	"github.com/tidemarkhq/ripple/backend/internal/repositories"
	"github.com/tidemarkhq/ripple/backend/internal/services"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RequestIDWithConfig(echoMiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
}

// SetupRoutes wires repositories, services and handlers onto the Echo
// instance. A nil auth client switches identity to the local-JWT fallback.
func SetupRoutes(e *echo.Echo, pgdb *gorm.DB, mgClient *mongo.Client, mongoDatabase string, firebaseAuthClient *auth.Client, log *slog.Logger) error {
	if err := pgdb.AutoMigrate(
		&models.Notification{},
		&models.SavedPost{},
	); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}

	mdb := mgClient.Database(mongoDatabase)

	userRepo := repositories.NewMongoUserRepository(mdb)
	postRepo := repositories.NewMongoPostRepository(mdb)
	commentRepo := repositories.NewMongoCommentRepository(mdb)
	relationshipRepo := repositories.NewMongoRelationshipRepository(mdb)
	reactionRepo := repositories.NewMongoReactionRepository(mdb)
	notificationRepo := repositories.NewPostgresNotificationRepository(pgdb)
	savedPostRepo := repositories.NewPostgresSavedPostRepository(pgdb)
	txRunner := repositories.NewMongoTxRunner(mgClient)

	ctx := context.Background()
	for name, ensure := range map[string]func(context.Context) error{
		"users":         userRepo.EnsureIndexes,
		"posts":         postRepo.EnsureIndexes,
		"comments":      commentRepo.EnsureIndexes,
		"relationships": relationshipRepo.EnsureIndexes,
		"reactions":     reactionRepo.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			return fmt.Errorf("ensuring %s indexes: %w", name, err)
		}
	}

	visibility := services.NewVisibilityService(userRepo, relationshipRepo, commentRepo)
	notificationSvc := services.NewNotificationService(notificationRepo, log)
	relationshipSvc := services.NewRelationshipService(relationshipRepo, userRepo, visibility, notificationSvc, txRunner)
	reactionSvc := services.NewReactionService(reactionRepo, postRepo, commentRepo, visibility, notificationSvc, txRunner)
	commentSvc := services.NewCommentService(commentRepo, postRepo, visibility, notificationSvc, txRunner)
	postSvc := services.NewPostService(postRepo, userRepo, relationshipRepo, reactionRepo, savedPostRepo, visibility, txRunner)
	cleanupSvc := services.NewCleanupService(relationshipRepo, reactionRepo, userRepo, postRepo, commentRepo, notificationRepo, savedPostRepo, txRunner, log)
	userSvc := services.NewUserService(userRepo, relationshipRepo, visibility, cleanupSvc)

	e.GET("/health", handlers.HealthCheck)

	var requiredAuth, optionalAuth echo.MiddlewareFunc
	if firebaseAuthClient != nil {
		requiredAuth = middleware.FirebaseAuthMiddleware(firebaseAuthClient, userRepo)
		optionalAuth = middleware.OptionalFirebaseAuthMiddleware(firebaseAuthClient, userRepo)
	} else {
		requiredAuth = middleware.JWTAuthMiddleware()
		optionalAuth = middleware.OptionalJWTAuthMiddleware()
	}

	api := e.Group("/api/v1", requiredAuth)
	public := e.Group("/api/v1", optionalAuth)

	userHandler := handlers.NewUserHandler(userSvc)
	userHandler.RegisterUserRoutes(api)
	userHandler.RegisterPublicUserRoutes(public)

	relationshipHandler := handlers.NewRelationshipHandler(relationshipSvc)
	relationshipHandler.RegisterRelationshipRoutes(api)

	postHandler := handlers.NewPostHandler(postSvc)
	postHandler.RegisterPostRoutes(api)
	postHandler.RegisterPublicPostRoutes(public)
	postHandler.RegisterMediaRoutes(api)

	commentHandler := handlers.NewCommentHandler(commentSvc)
	commentHandler.RegisterCommentRoutes(api)
	commentHandler.RegisterPublicCommentRoutes(public)

	reactionHandler := handlers.NewReactionHandler(reactionSvc)
	reactionHandler.RegisterReactionRoutes(api)

	savedPostHandler := handlers.NewSavedPostHandler(savedPostRepo, postSvc)
	savedPostHandler.RegisterSavedPostRoutes(api)

	notificationHandler := handlers.NewNotificationHandler(notificationRepo)
	notificationHandler.RegisterNotificationRoutes(api)

	log.Info("routes configured")
	return nil
}
