package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"finguard/internal/config"
	"finguard/internal/handler"
	"finguard/internal/middleware"
	"finguard/internal/service"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	logger *zap.Logger,
	tokenSvc service.TokenService,
	validationH *handler.ValidationHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.CORS))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	// Protected routes - require a valid service token
	v1 := r.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(tokenSvc))

	validations := v1.Group("/validations")
	validations.POST("", middleware.RequireScope(service.ScopeValidate), validationH.Validate)
	validations.POST("/batch", middleware.RequireScope(service.ScopeValidate), validationH.ValidateBatch)
	validations.POST("/batch/s3", middleware.RequireScope(service.ScopeValidate), validationH.ValidateObject)
	validations.GET("", middleware.RequireScope(service.ScopeRead), validationH.List)
	validations.GET("/:id", middleware.RequireScope(service.ScopeRead), validationH.Get)

	return r
}
