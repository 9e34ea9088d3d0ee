package router

import (
	"time"

	"github.com/anonto42/farmfeed/backend/internal/handlers"
	"github.com/anonto42/farmfeed/backend/internal/middleware"
	"github.com/anonto42/farmfeed/backend/internal/models"
	"github.com/anonto42/farmfeed/backend/internal/repositories"
	"github.com/anonto42/farmfeed/backend/internal/services"
	"github.com/anonto42/farmfeed/backend/internal/storage"
	"github.com/anonto42/farmfeed/backend/pkg/firebase"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Moderator is the classifier client plus its health reporting
type Moderator interface {
	services.Moderator
	handlers.CircuitReporter
}

// Dependencies are the collaborators the routes are wired to
type Dependencies struct {
	Postgres     *gorm.DB
	MongoDB      *mongo.Database        // nil disables the review log
	FirebaseAuth firebase.TokenVerifier // nil disables Firebase login
	Images       storage.ImageStore
	Moderator    Moderator
	Verification services.VerificationConfig
	JWTSecret    string
	JWTTTL       time.Duration
	Logger       *zap.Logger
}

// Migrate creates or updates the PostgreSQL schema
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.UserPost{},
	)
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Dependencies) {
	logger := deps.Logger
	e.HTTPErrorHandler = handlers.HTTPErrorHandler(logger)

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck(deps.Moderator))

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(deps.Postgres)
	postRepo := repositories.NewPostgresPostRepository(deps.Postgres)
	engagementRepo := repositories.NewPostgresEngagementRepository(deps.Postgres)
	var reviewRepo repositories.ReviewRepository = repositories.NopReviewRepository{}
	if deps.MongoDB != nil {
		reviewRepo = repositories.NewMongoReviewRepository(deps.MongoDB)
	}

	// --- Services ---
	postService := services.NewPostService(postRepo, deps.Images, logger)
	engagementService := services.NewEngagementService(engagementRepo, logger)
	feedService := services.NewFeedService(postRepo, engagementRepo, userRepo, logger)
	verificationService := services.NewVerificationService(postRepo, reviewRepo, deps.Images, deps.Moderator, deps.Verification, logger)

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(userRepo, deps.FirebaseAuth, deps.JWTSecret, deps.JWTTTL, logger)
	authHandler.RegisterAuthRoutes(authGroup)

	// --- Protected routes ---
	api := e.Group("/api/v1")
	if deps.FirebaseAuth != nil {
		api.Use(middleware.FirebaseAuthMiddleware(deps.JWTSecret, deps.FirebaseAuth, userRepo))
	} else {
		api.Use(middleware.JWTAuthMiddleware(deps.JWTSecret, userRepo))
	}

	authHandler.RegisterSessionRoutes(api)
	handlers.NewVerificationHandler(verificationService).RegisterVerificationRoutes(api)
	handlers.NewLikeHandler(engagementService).RegisterLikeRoutes(api)
	handlers.NewFeedHandler(feedService).RegisterFeedRoutes(api)
	handlers.NewPostHandler(postService).RegisterPostRoutes(api)
	handlers.NewUserHandler(userRepo).RegisterProfileRoutes(api)

	logger.Info("routes configured",
		zap.Bool("firebase", deps.FirebaseAuth != nil),
		zap.Bool("review_log", deps.MongoDB != nil))
}
