package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v9"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Azure    AzureConfig
	Bulk     BulkConfig
	SMTP     SMTPConfig
	Schedule ScheduleConfig
	OIDC     OIDCConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" envDefault:"8080"`
}

// Addr returns the server address in host:port format.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Driver string `env:"DB_DRIVER" envDefault:"sqlite3"`
	DSN    string `env:"DB_DSN" envDefault:"data/tagwarden.db"`
}

// AzureConfig holds Resource Manager API configuration. The service
// principal credentials are only needed for scheduled alert runs; request
// handlers forward the caller's own bearer token instead.
type AzureConfig struct {
	ManagementURL string `env:"AZURE_MANAGEMENT_URL" envDefault:"https://management.azure.com"`
	TenantID      string `env:"AZURE_TENANT_ID"`
	ClientID      string `env:"AZURE_CLIENT_ID"`
	ClientSecret  string `env:"AZURE_CLIENT_SECRET"`
	FileShim      string `env:"AZURE_FILE_SHIM"` // Path to fixture file (disables real API)
}

// BulkConfig holds tuning for bulk tag mutation. The defaults were chosen
// against upstream rate limits; both are overridable.
type BulkConfig struct {
	BatchSize  int           `env:"BULK_BATCH_SIZE" envDefault:"10"`
	BatchDelay time.Duration `env:"BULK_BATCH_DELAY" envDefault:"100ms"`
	MaxIDs     int           `env:"BULK_MAX_IDS" envDefault:"1000"`
}

// SMTPConfig holds email delivery configuration.
type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_USER"`
	Password string `env:"SMTP_PASS"`
	From     string `env:"SMTP_FROM" envDefault:"tagwarden@localhost"`
}

// Enabled reports whether email delivery is configured.
func (c *SMTPConfig) Enabled() bool {
	return c.Host != ""
}

// ScheduleConfig holds the cron schedules for automated alert checks.
type ScheduleConfig struct {
	Enabled     bool   `env:"SCHEDULE_ENABLED" envDefault:"false"`
	DailySpec   string `env:"SCHEDULE_DAILY" envDefault:"0 9 * * *"`
	WeeklySpec  string `env:"SCHEDULE_WEEKLY" envDefault:"0 9 * * 1"`
	MonthlySpec string `env:"SCHEDULE_MONTHLY" envDefault:"0 9 1 * *"`
}

// OIDCConfig holds optional verification of incoming bearer tokens. When
// disabled, tokens are passed through to the upstream API unverified and
// the upstream is the authority.
type OIDCConfig struct {
	Enabled   bool   `env:"OIDC_ENABLED" envDefault:"false"`
	IssuerURL string `env:"OIDC_ISSUER_URL"`
	ClientID  string `env:"OIDC_CLIENT_ID"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(&cfg.Server); err != nil {
		return nil, fmt.Errorf("parsing server config: %w", err)
	}
	if err := env.Parse(&cfg.Database); err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	if err := env.Parse(&cfg.Azure); err != nil {
		return nil, fmt.Errorf("parsing azure config: %w", err)
	}
	if err := env.Parse(&cfg.Bulk); err != nil {
		return nil, fmt.Errorf("parsing bulk config: %w", err)
	}
	if err := env.Parse(&cfg.SMTP); err != nil {
		return nil, fmt.Errorf("parsing smtp config: %w", err)
	}
	if err := env.Parse(&cfg.Schedule); err != nil {
		return nil, fmt.Errorf("parsing schedule config: %w", err)
	}
	if err := env.Parse(&cfg.OIDC); err != nil {
		return nil, fmt.Errorf("parsing oidc config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Bulk.BatchSize < 1 {
		return fmt.Errorf("BULK_BATCH_SIZE must be at least 1")
	}
	if c.Bulk.MaxIDs < 1 {
		return fmt.Errorf("BULK_MAX_IDS must be at least 1")
	}

	// Scheduled runs need their own credentials; there is no caller token
	// in cron context.
	if c.Schedule.Enabled && c.Azure.FileShim == "" {
		if c.Azure.TenantID == "" || c.Azure.ClientID == "" || c.Azure.ClientSecret == "" {
			return fmt.Errorf("AZURE_TENANT_ID, AZURE_CLIENT_ID and AZURE_CLIENT_SECRET are required when SCHEDULE_ENABLED is set")
		}
	}

	if c.OIDC.Enabled {
		if c.OIDC.IssuerURL == "" {
			return fmt.Errorf("OIDC_ISSUER_URL is required when OIDC is enabled")
		}
		if c.OIDC.ClientID == "" {
			return fmt.Errorf("OIDC_CLIENT_ID is required when OIDC is enabled")
		}
	}

	return nil
}

// UseFileShim returns true if the fixture shim should be used instead of
// the real API.
func (c *Config) UseFileShim() bool {
	return c.Azure.FileShim != ""
}
