package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config describes how to reach the relational store.
type Config struct {
	Driver      string
	DatabaseURL string
	Host        string
	User        string
	Password    string
	Name        string
	Port        string
	SQLitePath  string
	SlowQuery   time.Duration
}

// DSN returns the connection string for the configured driver.
func (c Config) DSN() string {
	if c.Driver == DriverSQLite {
		return sqliteDSN(c.SQLitePath)
	}
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		c.Host, c.User, c.Password, c.Name, c.Port,
	)
}

func sqliteDSN(path string) string {
	if path == "" || path == ":memory:" {
		return "file::memory:?_pragma=foreign_keys(1)"
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// gormWriter sends GORM's SQL log lines to zerolog.
type gormWriter struct {
	log zerolog.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.log.Debug().Str("component", "gorm").Msgf(format, args...)
}

// ConnectDB opens the database and configures the connection pool.
func ConnectDB(cfg Config, log zerolog.Logger) (*gorm.DB, error) {
	slow := cfg.SlowQuery
	if slow == 0 {
		slow = time.Second
	}
	gormLogger := logger.New(gormWriter{log: log}, logger.Config{
		SlowThreshold:             slow,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})

	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverSQLite:
		dialector = sqlite.Open(cfg.DSN())
	case DriverPostgres, "":
		dialector = postgres.New(postgres.Config{
			DSN:                  cfg.DSN(),
			PreferSimpleProtocol: true, // Disables implicit prepared statements for pgbouncer transaction mode
		})
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:      gormLogger,
		PrepareStmt: false,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Driver == DriverSQLite {
		// SQLite allows a single writer; in-memory databases live on one connection.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetConnMaxLifetime(0)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	log.Info().Str("driver", db.Dialector.Name()).Msg("database connection established")
	return db, nil
}

// OpenMemory opens an empty in-memory SQLite database.
func OpenMemory() (*gorm.DB, error) {
	return ConnectDB(Config{Driver: DriverSQLite, SQLitePath: ":memory:"}, zerolog.Nop())
}
