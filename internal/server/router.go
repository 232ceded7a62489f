package server

import (
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-api/internal/handler"
	"github.com/noah-isme/campus-api/internal/middleware"
	"github.com/noah-isme/campus-api/internal/repository"
	"github.com/noah-isme/campus-api/internal/service"
	"github.com/noah-isme/campus-api/pkg/config"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
	"github.com/noah-isme/campus-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/campus-api/pkg/middleware/cors"
	"github.com/noah-isme/campus-api/pkg/middleware/ratelimit"
	reqidmiddleware "github.com/noah-isme/campus-api/pkg/middleware/requestid"
	"github.com/noah-isme/campus-api/pkg/response"
)

// Dependencies are the collaborators the HTTP front is assembled from.
type Dependencies struct {
	Config  *config.Config
	Logger  *zap.Logger
	Store   repository.Store
	Tokens  repository.TokenStore
	Metrics *service.MetricsService
}

// NewRouter wires services, handlers and middleware into a gin engine.
func NewRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	logr := deps.Logger
	if logr == nil {
		logr = zap.NewNop()
	}
	validate := validator.New()

	studentSvc := service.NewStudentService(deps.Store, validate, logr, deps.Metrics)
	courseSvc := service.NewCourseService(deps.Store, validate, logr, deps.Metrics)
	enrollmentSvc := service.NewEnrollmentService(deps.Store, validate, logr, deps.Metrics)
	tokenSvc := service.NewTokenService(deps.Tokens, logr, deps.Metrics)
	authSvc := service.NewAuthService(tokenSvc, validate, logr, service.AuthConfig{
		APIKey:   cfg.Auth.APIKey,
		Username: cfg.Auth.Username,
		Password: cfg.Auth.Password,
	})
	exportSvc := service.NewExportService(courseSvc, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	courseHandler := handler.NewCourseHandler(courseSvc, exportSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	metricsHandler := handler.NewMetricsHandler(deps.Metrics, deps.Store, logr)

	r := gin.New()
	r.RedirectTrailingSlash = false
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logr.Error("panic recovered", zap.Any("panic", recovered), zap.String("path", c.Request.URL.Path))
		response.Abort(c, appErrors.ErrInternal)
	}))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics(deps.Metrics))
		r.GET("/metrics", metricsHandler.Prometheus)
	}

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/health", metricsHandler.Health)

	limiter := ratelimit.New(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	auth := api.Group("/auth", limiter.Middleware())
	auth.POST("/login/apikey", authHandler.LoginAPIKey)
	auth.POST("/login", authHandler.Login)

	protected := api.Group("", middleware.BearerAuth(tokenSvc))

	students := protected.Group("/students")
	students.POST("", studentHandler.Create)
	students.GET("", studentHandler.List)
	students.GET("/:id", studentHandler.Get)
	students.PUT("/:id", studentHandler.Update)
	students.DELETE("/:id", studentHandler.Delete)

	courses := protected.Group("/courses")
	courses.POST("", courseHandler.Create)
	courses.GET("", courseHandler.List)
	courses.GET("/:id", courseHandler.Get)
	courses.PUT("/:id", courseHandler.Update)
	courses.DELETE("/:id", courseHandler.Delete)
	courses.GET("/:id/roster", courseHandler.Roster)

	enrollments := protected.Group("/enrollments")
	enrollments.POST("", enrollmentHandler.Enroll)
	enrollments.GET("", enrollmentHandler.List)
	enrollments.GET("/:id", enrollmentHandler.Get)
	enrollments.PUT("/:id/cancel", enrollmentHandler.Cancel)

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, appErrors.ErrRouteNotFound)
	})

	return r
}
