package main

import (
	"fmt"
	"net/http"
	"os"

	"divvy/internal/config"
	"divvy/internal/database"
	"divvy/internal/handlers"
	"divvy/internal/logger"
	"divvy/internal/middleware"
	"divvy/internal/services"
	"divvy/internal/validator"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	validator.Register()

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	friendService := services.NewFriendService(db)
	frameService := services.NewFrameService(db)
	categoryService := services.NewCategoryService(db, frameService)
	transactionService := services.NewTransactionService(db, frameService)
	auditService := services.NewAuditService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	friendHandler := handlers.NewFriendHandler(friendService, auditService)
	frameHandler := handlers.NewFrameHandler(frameService, auditService)
	categoryHandler := handlers.NewCategoryHandler(categoryService, auditService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, auditService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.Metrics())
	router.Use(middleware.ErrorHandler())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     appConfig.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	// Health check and metrics endpoints
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)
	protected.POST("/profile/name", authHandler.ChangeName)

	protected.POST("/friends", friendHandler.AddFriend)
	protected.POST("/friends/reject", friendHandler.RejectFriend)
	protected.DELETE("/friends", friendHandler.RemoveFriend)
	protected.GET("/friends", friendHandler.GetFriends)

	protected.POST("/transactions", transactionHandler.CreateTransaction)
	protected.DELETE("/transactions/:id", transactionHandler.DeleteTransaction)
	protected.POST("/transactions/:id/amount", transactionHandler.UpdateAmount)
	protected.POST("/transactions/:id/date", transactionHandler.UpdateDate)
	protected.POST("/transactions/:id/description", transactionHandler.UpdateDescription)
	protected.POST("/transactions/:id/category", transactionHandler.UpdateCategory)
	protected.POST("/transactions/:id/split", transactionHandler.UpdateSplit)

	protected.GET("/frames/:index", frameHandler.GetFrame)
	protected.POST("/frames/:index/income", frameHandler.SetIncome)
	protected.GET("/frames/:index/transactions", transactionHandler.GetFrameTransactions)
	protected.POST("/frames/:index/categories", categoryHandler.CreateCategory)

	protected.POST("/categories/:id/budget", categoryHandler.SetBudget)
	protected.POST("/categories/:id/name", categoryHandler.Rename)
	protected.DELETE("/categories/:id", categoryHandler.DeleteCategory)

	log.Infof("Server starting on port %s", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
