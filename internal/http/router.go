package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/courseledger-backend/internal/http/handlers"
	httpMW "github.com/yungbote/courseledger-backend/internal/http/middleware"
	"github.com/yungbote/courseledger-backend/internal/observability"
	"github.com/yungbote/courseledger-backend/internal/platform/ctxutil"
	"github.com/yungbote/courseledger-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	CORSOrigins    []string
	Metrics        *observability.Metrics
	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler    *httpH.HealthHandler
	ProgressHandler  *httpH.ProgressHandler
	CourseHandler    *httpH.CourseHandler
	AnalyticsHandler *httpH.AnalyticsHandler
	ChatGuardHandler *httpH.ChatGuardHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "courseledger"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		api.Use(cfg.AuthMiddleware.RequireAuth())
	}
	staff := []gin.HandlerFunc{}
	admin := []gin.HandlerFunc{}
	if cfg.AuthMiddleware != nil {
		staff = append(staff, cfg.AuthMiddleware.RequireRole(ctxutil.RoleTeacher, ctxutil.RoleAdmin))
		admin = append(admin, cfg.AuthMiddleware.RequireRole(ctxutil.RoleAdmin))
	}

	// Progress ledger
	if cfg.ProgressHandler != nil {
		api.POST("/progress", cfg.ProgressHandler.Upsert)
		api.GET("/progress/overall", cfg.ProgressHandler.Overall)
		api.GET("/progress/courses/:courseId/items/:kind/:itemId", cfg.ProgressHandler.Get)
	}

	// Course completion
	if cfg.CourseHandler != nil {
		api.GET("/courses/:id/completion", cfg.CourseHandler.Completion)
		api.GET("/courses/:id/cohort", append(staff, cfg.CourseHandler.Cohort)...)
	}

	// Analytics
	if cfg.AnalyticsHandler != nil {
		api.GET("/analytics/trends", cfg.AnalyticsHandler.Trends)
		api.GET("/analytics/active-learners", append(admin, cfg.AnalyticsHandler.ActiveLearners)...)
	}

	// Tutoring chat guard
	if cfg.ChatGuardHandler != nil {
		api.POST("/chat/guard", cfg.ChatGuardHandler.Guard)
	}

	return r
}
