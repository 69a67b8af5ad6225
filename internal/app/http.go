package app

import (
	"gorm.io/gorm"

	apphttp "github.com/yungbote/courseledger-backend/internal/http"
	httpH "github.com/yungbote/courseledger-backend/internal/http/handlers"
	httpMW "github.com/yungbote/courseledger-backend/internal/http/middleware"
	"github.com/yungbote/courseledger-backend/internal/observability"
	"github.com/yungbote/courseledger-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health    *httpH.HealthHandler
	Progress  *httpH.ProgressHandler
	Course    *httpH.CourseHandler
	Analytics *httpH.AnalyticsHandler
	ChatGuard *httpH.ChatGuardHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:    httpH.NewHealthHandler(db),
		Progress:  httpH.NewProgressHandler(log, services.Ledger, services.Aggregator),
		Course:    httpH.NewCourseHandler(log, services.Aggregator),
		Analytics: httpH.NewAnalyticsHandler(log, services.Metrics),
		ChatGuard: httpH.NewChatGuardHandler(log, services.Integrity),
	}
}

func wireMiddleware(log *logger.Logger, cfg Config) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, cfg.JWTSecretKey),
	}
}

func wireServer(log *logger.Logger, cfg Config, serviceName string, metrics *observability.Metrics, h Handlers, mw Middleware) *apphttp.Server {
	return apphttp.NewServer(apphttp.RouterConfig{
		Log:              log,
		ServiceName:      serviceName,
		CORSOrigins:      cfg.CORSOrigins,
		Metrics:          metrics,
		AuthMiddleware:   mw.Auth,
		HealthHandler:    h.Health,
		ProgressHandler:  h.Progress,
		CourseHandler:    h.Course,
		AnalyticsHandler: h.Analytics,
		ChatGuardHandler: h.ChatGuard,
	})
}
