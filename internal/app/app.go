package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/courseledger-backend/internal/db"
	apphttp "github.com/yungbote/courseledger-backend/internal/http"
	"github.com/yungbote/courseledger-backend/internal/observability"
	"github.com/yungbote/courseledger-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Repos    Repos
	Clients  Clients
	Services Services
	Server   *apphttp.Server
	Metrics  *observability.Metrics

	dbService    *db.Service
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

// New loads configuration, opens storage and wires every layer. It does not start serving.
func New(ctx context.Context) (*App, error) {
	LoadEnv()

	cfg := LoadConfig(nil)
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	log.Info("Loading environment variables...")
	cfg = LoadConfig(log)

	otelCfg := observability.OtelConfigFromEnv()
	otelShutdown := observability.InitOTel(ctx, log, otelCfg)
	metrics := observability.Init(log)

	core, err := Open(ctx, log, cfg)
	if err != nil {
		_ = otelShutdown(context.Background())
		log.Sync()
		return nil, err
	}

	handlerset := wireHandlers(core.DB, log, core.Services)
	middleware := wireMiddleware(log, cfg)
	server := wireServer(log, cfg, otelCfg.ServiceName, metrics, handlerset, middleware)

	core.Server = server
	core.Metrics = metrics
	core.otelShutdown = otelShutdown
	return core, nil
}

// Open wires storage, clients and services without the HTTP layer. The CLI uses it directly.
func Open(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	dbService, err := db.NewService(log, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("init db: %w", err)
	}
	if cfg.AutoMigrate {
		if err := dbService.AutoMigrateAll(); err != nil {
			_ = dbService.Close()
			return nil, fmt.Errorf("automigrate: %w", err)
		}
	}
	theDB := dbService.DB()

	clientset, err := wireClients(ctx, log, cfg)
	if err != nil {
		_ = dbService.Close()
		return nil, err
	}

	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(theDB, log, cfg, reposet, clientset)
	if err != nil {
		_ = clientset.Close()
		_ = dbService.Close()
		return nil, err
	}

	return &App{
		Log:       log,
		DB:        theDB,
		Cfg:       cfg,
		Repos:     reposet,
		Clients:   clientset,
		Services:  serviceset,
		dbService: dbService,
	}, nil
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if a.Metrics != nil && a.Clients.Redis != nil {
		a.Metrics.StartRedisCollector(ctx, a.Log, a.Clients.Redis)
	}

	a.Log.Info("HTTP server listening", "addr", a.Cfg.HTTPAddr)
	return a.Server.Run(ctx, a.Cfg.HTTPAddr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(context.Background()); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	if err := a.Clients.Close(); err != nil {
		a.Log.Warn("redis close failed", "error", err)
	}
	if a.dbService != nil {
		if err := a.dbService.Close(); err != nil {
			a.Log.Warn("db close failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
