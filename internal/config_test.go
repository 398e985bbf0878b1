package internal

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.Auth.JWTSecret = "0123456789abcdef0123"
	return cfg
}

func TestDefaultConfig_RequiresSecret(t *testing.T) {
	cfg := NewDefaultConfig()
	err := cfg.Validate()
	if err == nil {
		t.Fatal("default config without jwt_secret should fail")
	}
	if !strings.Contains(err.Error(), "jwt_secret") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDefaultConfig_WithSecretValid(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestStorageConfig_EmptyDriverDefaultsSQLite(t *testing.T) {
	cfg := StorageConfig{SQLite: SQLiteConfig{Path: "x.db"}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty driver should default to sqlite: %v", err)
	}
	if cfg.Driver != DriverSQLite {
		t.Errorf("driver = %q, want %q", cfg.Driver, DriverSQLite)
	}
	if cfg.DSN() != "x.db" {
		t.Errorf("dsn = %q", cfg.DSN())
	}
}

func TestStorageConfig_PostgresNeedsDSN(t *testing.T) {
	cfg := StorageConfig{Driver: DriverPostgres}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("postgres without dsn should fail")
	}
	if !strings.Contains(err.Error(), "dsn is empty") {
		t.Errorf("unexpected error: %v", err)
	}

	cfg.Postgres.DSN = "postgres://localhost/notely"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("postgres with dsn should pass: %v", err)
	}
	if cfg.DSN() != "postgres://localhost/notely" {
		t.Errorf("dsn = %q", cfg.DSN())
	}
}

func TestStorageConfig_InvalidDriver(t *testing.T) {
	cfg := StorageConfig{Driver: "mysql"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown driver should fail validation")
	}
}

func TestAuthConfig_ShortTTL(t *testing.T) {
	cfg := AuthConfig{JWTSecret: "0123456789abcdef", TokenTTL: time.Second}
	if err := cfg.Validate(); err == nil {
		t.Fatal("ttl below a minute should fail")
	}
}

func TestAuthConfig_CookieNameDefault(t *testing.T) {
	cfg := AuthConfig{JWTSecret: "0123456789abcdef", TokenTTL: time.Hour}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.CookieName != "notely_session" {
		t.Errorf("cookie name = %q", cfg.CookieName)
	}
}

func TestSummarizerConfig_OpenAIRequiresKey(t *testing.T) {
	cfg := validConfig().Summarizer
	cfg.Provider = ProviderOpenAI
	err := cfg.Validate()
	if err == nil {
		t.Fatal("openai without api key should fail")
	}
	if !strings.Contains(err.Error(), "api_key is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSummarizerConfig_OpenAIDefaultModel(t *testing.T) {
	cfg := validConfig().Summarizer
	cfg.Provider = ProviderOpenAI
	cfg.APIKey = "sk-test"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", cfg.Model)
	}
}

func TestFullConfig_SummarizerValidationCalled(t *testing.T) {
	cfg := validConfig()
	cfg.Summarizer.Provider = "magic"
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch summarizer error")
	}
}
