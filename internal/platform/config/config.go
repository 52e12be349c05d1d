package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Addr          string `env:"APP_ADDR" envDefault:":8080"`
	Environment   string `env:"APP_ENV" envDefault:"development"`
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"sqlite"`
	SQLitePath    string `env:"SQLITE_PATH" envDefault:"data/staffeval.db"`
	DatabaseURL   string `env:"DATABASE_URL"`
	RunMigrations bool   `env:"RUN_MIGRATIONS" envDefault:"true"`
	TemplatePath  string `env:"TEMPLATE_PATH"`

	// UnlockCodeHash is a bcrypt hash; UnlockCode is hashed at startup when no hash is given.
	UnlockCode     string `env:"UNLOCK_CODE" envDefault:"ammd"`
	UnlockCodeHash string `env:"UNLOCK_CODE_HASH"`

	// UnlockAttempts caps unlock attempts per client address per minute.
	UnlockAttempts int `env:"UNLOCK_ATTEMPTS_PER_MINUTE" envDefault:"10"`

	AutosaveDelay  time.Duration `env:"AUTOSAVE_DELAY" envDefault:"500ms"`
	PrintDelay     time.Duration `env:"PRINT_DELAY" envDefault:"1s"`
	PrintOutputDir string        `env:"PRINT_OUTPUT_DIR" envDefault:"data/print"`
	PrintFontPath  string        `env:"PRINT_FONT_PATH"`

	BackupSchedule      string `env:"BACKUP_SCHEDULE"`
	BackupDir           string `env:"BACKUP_DIR" envDefault:"data/backups"`
	BackupEncryptionKey string `env:"BACKUP_ENCRYPTION_KEY"`

	MaxBodyBytes   int64  `env:"MAX_BODY_BYTES" envDefault:"1048576"`
	FrontendDir    string `env:"FRONTEND_DIR" envDefault:"frontend/dist"`
	MetricsEnabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.StorageDriver {
	case DriverSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite driver")
		}
	case DriverPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q", DriverSQLite, DriverPostgres)
	}
	if strings.TrimSpace(c.UnlockCode) == "" && strings.TrimSpace(c.UnlockCodeHash) == "" {
		return fmt.Errorf("UNLOCK_CODE or UNLOCK_CODE_HASH must be set")
	}
	if c.Environment == "production" && c.UnlockCodeHash == "" {
		return fmt.Errorf("UNLOCK_CODE_HASH must be set in production")
	}
	if c.UnlockAttempts < 0 {
		return fmt.Errorf("UNLOCK_ATTEMPTS_PER_MINUTE must not be negative")
	}
	if c.AutosaveDelay <= 0 {
		return fmt.Errorf("AUTOSAVE_DELAY must be positive")
	}
	if c.PrintDelay < 0 {
		return fmt.Errorf("PRINT_DELAY must not be negative")
	}
	if c.BackupSchedule != "" && strings.TrimSpace(c.BackupDir) == "" {
		return fmt.Errorf("BACKUP_DIR must be set when BACKUP_SCHEDULE is set")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	return nil
}
