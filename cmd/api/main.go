package main

import (
	"log"
	"os"

	_ "dentalcare/api/swagger" // swagger docs
	"dentalcare/internal/database"
	"dentalcare/internal/handler"
	"dentalcare/internal/mailer"
	"dentalcare/internal/middleware"
	"dentalcare/internal/repository"
	"dentalcare/internal/service"
	"dentalcare/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           Dental Practice API
// @version         1.0
// @description     Practice-management backend with authentication and role-based access control.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	logger, err := zap.NewProduction()
	if os.Getenv("GIN_MODE") != "release" {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Logger init failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	handler.SetLogger(logger)

	dbHost := getenv("DB_HOST", "localhost")
	dbPort := getenv("DB_PORT", "5432")
	dbUser := getenv("DB_USER", "postgres")
	dbPassword := getenv("DB_PASSWORD", "postgres")
	dbName := getenv("DB_NAME", "postgres")
	dbSslMode := getenv("DB_SSLMODE", "disable")

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		logger.Fatal("Database connection failed", zap.Error(err))
	}
	if err := database.Seed(db); err != nil {
		logger.Fatal("Database seed failed", zap.Error(err))
	}
	logger.Info("Connected to PostgreSQL")

	// Set up WebSocket Hub for the security-event stream
	wsHub := websocket.NewHub(logger)
	go wsHub.Run()

	// Mailer: plain SMTP relay, or a no-op sink when unconfigured
	var mail mailer.Mailer = mailer.NopMailer{}
	if smtpHost := os.Getenv("SMTP_HOST"); smtpHost != "" {
		mail = mailer.NewSMTPMailer(
			smtpHost,
			getenv("SMTP_PORT", "25"),
			getenv("SMTP_FROM", "noreply@dentalcare.local"),
			os.Getenv("SMTP_USER"),
			os.Getenv("SMTP_PASSWORD"),
		)
	}

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewRefreshTokenRepository(db)
	catalogRepo := repository.NewCatalogRepository(db, txManager)
	configRepo := repository.NewConfigRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	auditService := service.NewAuditService(auditRepo, wsHub, logger)
	authorityService := service.NewAuthorityService(catalogRepo)
	tokenService := service.NewTokenService(tokenRepo, configRepo, middleware.GetJWTSecret())
	authService := service.NewAuthService(
		userRepo, configRepo, tokenService, authorityService,
		auditService, mail, logger,
		getenv("RESET_PASSWORD_URL", "http://localhost:5173/reset-password"),
	)
	userService := service.NewUserService(userRepo, catalogRepo, auditService)
	catalogService := service.NewCatalogService(catalogRepo, authorityService)
	clinicService := service.NewClinicService(db)

	// Initialize Handlers
	authHandler := handler.NewAuthHandler(authService, tokenService)
	userHandler := handler.NewUserHandler(userService, tokenService)
	catalogHandler := handler.NewCatalogHandler(catalogService, tokenService)
	clinicHandler := handler.NewClinicHandler(clinicService, tokenService)
	auditHandler := handler.NewAuditHandler(auditService, tokenService)
	configHandler := handler.NewConfigHandler(configRepo, tokenService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint: live security events for admin dashboards
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	authHandler.RegisterRoutes(router.Group(""))
	userHandler.RegisterRoutes(router.Group(""))
	catalogHandler.RegisterRoutes(router.Group(""))
	clinicHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))
	configHandler.RegisterRoutes(router.Group(""))

	port := getenv("PORT", "8080")
	logger.Info("Server listening", zap.String("port", port))
	if err := router.Run(":" + port); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
