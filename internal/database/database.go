package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookstore/internal/config"
	"github.com/mrlokans/bookstore/internal/entities"
	"github.com/mrlokans/bookstore/internal/errs"
)

// ErrNotConnected is the cause of every ConnectionError raised for a closed
// or never-opened database.
var ErrNotConnected = errors.New("database is not connected")

// Database owns the relational connection pool. Construct it once at startup
// and Close it on shutdown; every call checks out its own pooled connection.
type Database struct {
	DB     *gorm.DB
	closed atomic.Bool
}

func NewDatabase(cfg config.Database) (*Database, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	attempts := cfg.ConnectAttempts
	if attempts < 1 {
		attempts = 1
	}

	var db *gorm.DB
	for attempt := 1; ; attempt++ {
		db, err = open(dialector, logLevel(cfg.LogLevel))
		if err == nil {
			break
		}
		if attempt >= attempts {
			return nil, errs.New(errs.KindConnection, "connect", err)
		}
		wait := cfg.ConnectBackoff * time.Duration(attempt)
		log.Printf("Database connection attempt %d/%d failed, retrying in %v: %v", attempt, attempts, wait, err)
		time.Sleep(wait)
	}

	err = db.AutoMigrate(
		&entities.Book{},
		&entities.Customer{},
		&entities.Order{},
		&entities.OrderDetail{},
		&entities.ImportBatch{},
		&entities.ImportDetail{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("Database initialized successfully (%s: %s)", driverName(cfg.Driver), cfg.Name)

	return &Database{DB: db}, nil
}

func open(dialector gorm.Dialector, level logger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func dialectorFor(cfg config.Database) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverSQLite, "":
		return sqlite.Open(sqliteDSN(cfg.Name)), nil
	case config.DriverPostgres:
		return postgres.Open(postgresDSN(cfg)), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// sqliteDSN enables WAL and a busy timeout for file databases so pooled
// connections wait for each other instead of failing with SQLITE_BUSY.
func sqliteDSN(path string) string {
	if path == ":memory:" || strings.Contains(path, "?") {
		return path
	}
	return path + "?_journal=WAL&_timeout=5000&_busy_timeout=5000"
}

func postgresDSN(cfg config.Database) string {
	host, port, err := net.SplitHostPort(cfg.Server)
	if err != nil {
		host, port = cfg.Server, "5432"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, cfg.Username, cfg.Password, cfg.Name)
}

func driverName(d config.Driver) string {
	if d == "" {
		return string(config.DriverSQLite)
	}
	return string(d)
}

func logLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// Ping checks that the pool can still reach the server.
func (d *Database) Ping(ctx context.Context) error {
	if err := d.live("ping"); err != nil {
		return err
	}
	sqlDB, err := d.DB.DB()
	if err != nil {
		return classify("ping", err)
	}
	return classify("ping", sqlDB.PingContext(ctx))
}

func (d *Database) Close() error {
	if d == nil || d.DB == nil || !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
