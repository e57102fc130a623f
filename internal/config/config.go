package config

import (
	"time"

	"github.com/spf13/viper"
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"   // Local file database (default)
	DriverPostgres Driver = "postgres" // Server database, DB_SERVER is host[:port]
)

type (
	Config struct {
		HTTP
		Global
		Database
		Mirror
		Reconcile
		Tasks
		Telemetry
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Driver          Driver
		Server          string
		Name            string // Database name, or the file path for sqlite
		Username        string
		Password        string
		ConnectAttempts int
		ConnectBackoff  time.Duration
		LogLevel        string // silent, error, warn, info
	}
	Mirror struct {
		URI      string // mongodb://..., memory:// or empty to disable
		Database string
		Timeout  time.Duration
	}
	Reconcile struct {
		Enabled  bool
		Schedule string // Cron format: "0 3 * * *" = daily at 03:00
	}
	Tasks struct {
		Enabled           bool
		DatabasePath      string
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	Telemetry struct {
		Endpoint    string // OTLP/HTTP endpoint, empty disables export
		ServiceName string
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)

	v.SetDefault("db_driver", string(DriverSQLite))
	v.SetDefault("db_server", "localhost:5432")
	v.SetDefault("db_name", DefaultDatabasePath)
	v.SetDefault("db_username", "")
	v.SetDefault("db_password", "")
	v.SetDefault("db_connect_attempts", 3)
	v.SetDefault("db_connect_backoff", "1s")
	v.SetDefault("db_log_level", "warn")

	v.SetDefault("mirror_uri", DefaultMirrorURI)
	v.SetDefault("mirror_database", DefaultMirrorDatabase)
	v.SetDefault("mirror_timeout", "5s")

	v.SetDefault("mirror_reconcile_enabled", false)
	v.SetDefault("mirror_reconcile_schedule", "0 3 * * *")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("tasks_database_path", DefaultTasksDatabasePath)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 5)
	v.SetDefault("task_retry_delay", "30s")
	v.SetDefault("task_timeout", "1m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	v.SetDefault("otel_exporter_otlp_endpoint", "")
	v.SetDefault("service_name", "bookstore")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Driver:          Driver(v.GetString("DB_DRIVER")),
			Server:          v.GetString("DB_SERVER"),
			Name:            v.GetString("DB_NAME"),
			Username:        v.GetString("DB_USERNAME"),
			Password:        v.GetString("DB_PASSWORD"),
			ConnectAttempts: v.GetInt("DB_CONNECT_ATTEMPTS"),
			ConnectBackoff:  v.GetDuration("DB_CONNECT_BACKOFF"),
			LogLevel:        v.GetString("DB_LOG_LEVEL"),
		},
		Mirror: Mirror{
			URI:      v.GetString("MIRROR_URI"),
			Database: v.GetString("MIRROR_DATABASE"),
			Timeout:  v.GetDuration("MIRROR_TIMEOUT"),
		},
		Reconcile: Reconcile{
			Enabled:  v.GetBool("MIRROR_RECONCILE_ENABLED"),
			Schedule: v.GetString("MIRROR_RECONCILE_SCHEDULE"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			DatabasePath:      v.GetString("TASKS_DATABASE_PATH"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Telemetry: Telemetry{
			Endpoint:    v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
			ServiceName: v.GetString("SERVICE_NAME"),
		},
	}
}
