package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"leavehub/internal/config"
	"leavehub/internal/database"
	"leavehub/internal/handlers"
	"leavehub/internal/logger"
	"leavehub/internal/middleware"
	"leavehub/internal/services"
	"leavehub/internal/validator"
)

// @title           LeaveHub API
// @version         1.0
// @description     LeaveHub manages employee time off: leave type policies, per-year balance ledgers, and the leave request lifecycle.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
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

	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	validator.Register()

	// Initialize services
	db := dbManager.DB()
	eventService := services.NewEventService(db)
	leaveTypeService := services.NewLeaveTypeService(db)
	balanceService := services.NewBalanceService(db, eventService)
	requestService := services.NewLeaveRequestService(db, balanceService, eventService)
	reportService := services.NewReportService(db)

	// Initialize handlers
	leaveTypeHandler := handlers.NewLeaveTypeHandler(leaveTypeService)
	balanceHandler := handlers.NewBalanceHandler(balanceService)
	requestHandler := handlers.NewLeaveRequestHandler(requestService)
	reportHandler := handlers.NewReportHandler(reportService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group; identity comes from the bearer token on every route.
	v1 := router.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware())

	adminOnly := middleware.RequireRole(services.RoleAdmin)
	managerOrAdmin := middleware.RequireRole(services.RoleManager, services.RoleAdmin)

	// Leave type policy routes
	leaveTypes := v1.Group("/leave-types")
	leaveTypes.GET("", leaveTypeHandler.GetLeaveTypes)
	leaveTypes.GET("/:id", leaveTypeHandler.GetLeaveTypeByID)
	leaveTypes.POST("", adminOnly, leaveTypeHandler.CreateLeaveType)
	leaveTypes.PUT("/:id", adminOnly, leaveTypeHandler.UpdateLeaveType)
	leaveTypes.DELETE("/:id", adminOnly, leaveTypeHandler.DeactivateLeaveType)

	// Balance ledger routes
	balances := v1.Group("/balances")
	balances.GET("", balanceHandler.GetMyBalances)
	balances.POST("/initialize", adminOnly, balanceHandler.InitializeBalances)
	balances.POST("/rollover", adminOnly, balanceHandler.Rollover)
	balances.POST("/:employeeID/:leaveTypeID/:year/adjust", adminOnly, balanceHandler.AdjustBalance)
	v1.GET("/employees/:id/balances", managerOrAdmin, balanceHandler.GetEmployeeBalances)

	// Leave request routes
	requests := v1.Group("/leave-requests")
	requests.POST("", requestHandler.SubmitRequest)
	requests.GET("", requestHandler.GetRequests)
	requests.GET("/:id", requestHandler.GetRequestByID)
	requests.POST("/:id/approve", managerOrAdmin, requestHandler.ApproveRequest)
	requests.POST("/:id/reject", managerOrAdmin, requestHandler.RejectRequest)
	requests.POST("/:id/cancel", requestHandler.CancelRequest)
	requests.PUT("/:id/dates", requestHandler.UpdateDates)
	requests.POST("/:id/comments", requestHandler.AddComment)

	// Reporting routes
	reports := v1.Group("/reports")
	reports.Use(managerOrAdmin)
	reports.GET("/status-breakdown", reportHandler.GetStatusBreakdown)
	reports.GET("/utilization", reportHandler.GetUtilization)

	log.Infof("Starting LeaveHub backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
