package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	types "github.com/yungbote/courseledger-backend/internal/domain"
	"github.com/yungbote/courseledger-backend/internal/platform/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Driver string
	// DSN wins over the discrete postgres fields when set.
	DSN        string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SQLitePath string
}

func (c Config) postgresDSN() string {
	if strings.TrimSpace(c.DSN) != "" {
		return c.DSN
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", c.User, c.Password, c.Host, c.Port, c.Name)
}

type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewService(log *logger.Logger, cfg Config) (*Service, error) {
	serviceLog := log.With("service", "DBService")

	gcfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Error),
	}

	var (
		conn *gorm.DB
		err  error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverPostgres:
		log.Info("Connecting to Postgres...", "host", cfg.Host, "name", cfg.Name)
		conn, err = gorm.Open(postgres.Open(cfg.postgresDSN()), gcfg)
		if err != nil {
			log.Error("Failed to connect to Postgres", "error", err)
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
	case DriverSQLite:
		path := cfg.SQLitePath
		if strings.TrimSpace(path) == "" {
			path = "courseledger.db"
		}
		log.Info("Opening SQLite database...", "path", path)
		conn, err = gorm.Open(sqlite.Open(path), gcfg)
		if err != nil {
			log.Error("Failed to open SQLite", "error", err)
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}

	return &Service{db: conn, log: serviceLog}, nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...", "dialect", s.db.Dialector.Name())
	if err := AutoMigrate(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	return nil
}

func (s *Service) DB() *gorm.DB {
	return s.db
}

func (s *Service) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AutoMigrate creates or updates every table, including the unique progress index.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(types.Models()...)
}

// SupportsRowLocks reports whether SELECT ... FOR UPDATE is available on this connection.
func SupportsRowLocks(db *gorm.DB) bool {
	return db != nil && db.Dialector.Name() == DriverPostgres
}
