package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/courseledger-backend/internal/learning/integrity"
	"github.com/yungbote/courseledger-backend/internal/platform/logger"
	"github.com/yungbote/courseledger-backend/internal/services"
)

type Services struct {
	Catalog    services.CatalogService
	Aggregator services.AggregatorService
	Ledger     services.LedgerService
	Metrics    services.MetricsService
	Integrity  services.IntegrityService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, c Clients) (Services, error) {
	log.Info("Wiring services...")

	rules, err := integrity.LoadRules(cfg.IntegrityRulesPath)
	if err != nil {
		log.Warn("integrity rules override rejected; using defaults", "path", cfg.IntegrityRulesPath, "error", err)
	}

	catalog := services.NewCatalogService(db, log, r.Course, r.Lesson, r.Quiz, r.Assignment)
	aggregator := services.NewAggregatorService(db, log, catalog, r.Enrollment, r.Progress, services.AggregatorOptions{
		Concurrency: cfg.AggregatorConcurrency,
		Cache:       c.Cache,
		Bus:         c.Bus,
	})

	return Services{
		Catalog:    catalog,
		Aggregator: aggregator,
		Ledger:     services.NewLedgerService(db, log, catalog, r.Progress, aggregator, c.Cache),
		Metrics:    services.NewMetricsService(db, log, r.Course, r.Enrollment, r.Progress),
		Integrity:  services.NewIntegrityService(log, rules, catalog, r.Enrollment, r.Progress),
	}, nil
}
