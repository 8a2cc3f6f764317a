package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/hostelhub/hostel-booking-backend/internal/config"
	"github.com/hostelhub/hostel-booking-backend/internal/database"
	"github.com/hostelhub/hostel-booking-backend/internal/handlers"
	"github.com/hostelhub/hostel-booking-backend/internal/middleware"
	"github.com/hostelhub/hostel-booking-backend/internal/models"
	"github.com/hostelhub/hostel-booking-backend/internal/services"
	"github.com/hostelhub/hostel-booking-backend/internal/utils"
	"github.com/hostelhub/hostel-booking-backend/pkg/jwt"
	"github.com/hostelhub/hostel-booking-backend/pkg/mailer"
	"github.com/hostelhub/hostel-booking-backend/pkg/validator"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting HostelHub Booking Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	if err := database.EnsureSchema(db); err != nil {
		logger.Fatalf("Failed to ensure schema: %v", err)
	}

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	credentialValidator := validator.NewCredentialValidator()
	userRepository := database.NewUserRepository(db)
	buildingRepository := database.NewBuildingRepository(db)
	bookingRepository := database.NewBookingRepository(db)

	cacheService := services.NewCacheService(cfg.Redis, logger)
	if cacheService != nil {
		defer cacheService.Close()
		logger.Info("Redis cache enabled")
	} else {
		logger.Info("Redis cache disabled, reads go straight to the database")
	}

	var bookingMailer mailer.Mailer
	if cfg.SMTP.Username != "" && cfg.SMTP.Password != "" {
		bookingMailer = mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:      cfg.SMTP.Host,
			Port:      cfg.SMTP.Port,
			Username:  cfg.SMTP.Username,
			Password:  cfg.SMTP.Password,
			FromEmail: cfg.SMTP.FromEmail,
			FromName:  cfg.SMTP.FromName,
		})
		logger.Info("SMTP mailer enabled")
	} else {
		bookingMailer = mailer.Noop{}
		logger.Info("SMTP credentials not configured, booking emails disabled")
	}

	allocationService := services.NewAllocationService(
		buildingRepository,
		bookingRepository,
		cacheService,
		bookingMailer,
		logger,
	)
	searchService := services.NewSearchService(buildingRepository, bookingRepository, cacheService, logger)
	logger.Info("Services initialized")

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(jwtService, credentialValidator, userRepository, buildingRepository, cfg, logger)
	buildingHandler := handlers.NewBuildingHandler(searchService, buildingRepository, logger)
	bookingHandler := handlers.NewBookingHandler(allocationService, searchService, logger)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Authentication routes (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)

			protected := auth.Group("")
			protected.Use(middleware.AuthMiddleware(jwtService))
			{
				protected.GET("/profile", authHandler.GetProfile)
			}
		}

		// Building browsing routes (public)
		buildings := v1.Group("/buildings")
		{
			buildings.GET("", buildingHandler.ListBuildings)
			buildings.GET("/:id", buildingHandler.GetBuilding)
			buildings.GET("/:id/rooms/:roomId", buildingHandler.GetRoom)
		}

		v1.GET("/stats", buildingHandler.GetStats)

		// Booking routes (protected)
		bookings := v1.Group("/bookings")
		bookings.Use(middleware.AuthMiddleware(jwtService))
		{
			bookings.POST("", bookingHandler.CreateBooking)
			bookings.GET("/my", bookingHandler.MyBookings)
			bookings.PUT("/:id/cancel", bookingHandler.CancelBooking)

			admin := bookings.Group("")
			admin.Use(middleware.RequireRole(string(models.RoleAdmin)))
			{
				admin.GET("", bookingHandler.ListBookings)
			}
		}
	}

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		device := utils.ParseUserAgent(c.Request.UserAgent())

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
			"device":     device.DeviceType,
			"os":         device.OS,
			"browser":    device.Browser,
		}
		if user, exists := middleware.GetUserContext(c); exists {
			fields["user_id"] = user.UserID
		}

		entry := logger.WithFields(fields)

		status := c.Writer.Status()
		switch {
		case len(c.Errors) > 0:
			entry.WithField("errors", c.Errors.String()).Error("Request failed with errors")
		case status >= 500:
			entry.Error("Request completed with server error")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
