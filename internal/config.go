package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Summarizer providers.
const (
	ProviderExtractive = "extractive"
	ProviderOpenAI     = "openai"
)

// Config represents the application configuration.
type Config struct {
	App        ApplicationConfig `yaml:"app"`
	Storage    StorageConfig     `yaml:"storage"`
	Auth       AuthConfig        `yaml:"auth"`
	Realtime   RealtimeConfig    `yaml:"realtime"`
	Summarizer SummarizerConfig  `yaml:"summarizer"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Realtime.Validate(); err != nil {
		return err
	}
	return c.Summarizer.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StorageConfig selects the relational store.
type StorageConfig struct {
	Driver   string         `yaml:"driver"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = DriverSQLite
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required, validation.In(DriverSQLite, DriverPostgres)),
	); err != nil {
		return err
	}
	if c.Driver == DriverPostgres {
		return c.Postgres.Validate()
	}
	return c.SQLite.Validate()
}

// DSN returns the data source name for the selected driver.
func (c *StorageConfig) DSN() string {
	if c.Driver == DriverPostgres {
		return c.Postgres.DSN
	}
	return c.SQLite.Path
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// Validate validates the PostgreSQL configuration.
func (c *PostgresConfig) Validate() error {
	if c.DSN == "" {
		return fmt.Errorf("storage: driver is %q but postgres.dsn is empty", DriverPostgres)
	}
	return nil
}

// AuthConfig holds session token settings.
type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
	CookieName string        `yaml:"cookie_name"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.CookieName == "" {
		c.CookieName = "notely_session"
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.TokenTTL, validation.Required, validation.Min(time.Minute)),
	); err != nil {
		return err
	}
	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("auth: jwt_secret must be at least 16 characters")
	}
	return nil
}

// RealtimeConfig holds change-notification stream settings.
type RealtimeConfig struct {
	Heartbeat time.Duration `yaml:"heartbeat"`
}

// Validate validates the realtime configuration.
func (c *RealtimeConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Heartbeat, validation.Required, validation.Min(time.Second)),
	)
}

// SummarizerConfig configures the summarization function.
//
// Provider "extractive" needs no credentials. Provider "openai" requires
// APIKey and falls back to Model "gpt-4o-mini" when Model is empty.
type SummarizerConfig struct {
	Provider     string  `yaml:"provider"`
	APIKey       string  `yaml:"api_key"`
	BaseURL      string  `yaml:"base_url"`
	Model        string  `yaml:"model"`
	MaxSentences int     `yaml:"max_sentences"`
	RatePerMin   float64 `yaml:"rate_per_minute"`
	Burst        int     `yaml:"burst"`
}

// Validate validates the summarizer configuration.
func (c *SummarizerConfig) Validate() error {
	if c.Provider == "" {
		c.Provider = ProviderExtractive
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Provider, validation.Required, validation.In(ProviderExtractive, ProviderOpenAI)),
		validation.Field(&c.MaxSentences, validation.Required, validation.Min(1)),
		validation.Field(&c.RatePerMin, validation.Required, validation.Min(0.1)),
		validation.Field(&c.Burst, validation.Required, validation.Min(1)),
	); err != nil {
		return err
	}
	if c.Provider == ProviderOpenAI && c.APIKey == "" {
		return fmt.Errorf("summarizer: provider is %q but api_key is empty", ProviderOpenAI)
	}
	if c.Provider == ProviderOpenAI && c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	return nil
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Storage: StorageConfig{
			Driver: DriverSQLite,
			SQLite: SQLiteConfig{
				Path: "./notely.db",
			},
		},
		Auth: AuthConfig{
			TokenTTL:   7 * 24 * time.Hour,
			CookieName: "notely_session",
		},
		Realtime: RealtimeConfig{
			Heartbeat: 25 * time.Second,
		},
		Summarizer: SummarizerConfig{
			Provider:     ProviderExtractive,
			MaxSentences: 3,
			RatePerMin:   10,
			Burst:        3,
		},
	}
}
