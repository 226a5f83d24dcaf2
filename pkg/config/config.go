// Package config loads engine configuration from YAML and environment
// variables. Environment variables always override YAML values; secrets
// (passwords, API keys) must only come from environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultConfigFile is read when present; the engine runs from env alone otherwise.
const DefaultConfigFile = "config.yaml"

// Config holds all configuration for datachat-engine.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL). The same database holds both the
	// engine's record tables and the ingested dataset tables.
	Database DatabaseConfig `yaml:"database"`

	// LLM provider configuration
	LLM LLMConfig `yaml:"llm"`

	// Pipeline tuning knobs
	Pipeline PipelineConfig `yaml:"pipeline"`
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"datachat"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"datachat"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`

	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime" env:"PGMAX_CONN_LIFETIME" env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"PGMAX_CONN_IDLE_TIME" env-default:"30m"`
}

// URL builds a pgx-compatible connection string.
func (c DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

// LLMConfig holds text-generation provider configuration.
type LLMConfig struct {
	// Provider is "openai" (any OpenAI-compatible endpoint) or "anthropic".
	Provider string `yaml:"provider" env:"LLM_PROVIDER" env-default:"openai"`
	Endpoint string `yaml:"endpoint" env:"LLM_ENDPOINT" env-default:"https://api.openai.com/v1"`
	Model    string `yaml:"model" env:"LLM_MODEL" env-default:"gpt-4o"`
	APIKey   string `yaml:"-" env:"LLM_API_KEY"` // Secret - not in YAML
}

// PipelineConfig holds the question-answering pipeline knobs.
type PipelineConfig struct {
	// RowLimit is appended to uncapped SELECTs before execution.
	RowLimit int `yaml:"row_limit" env:"PIPELINE_ROW_LIMIT" env-default:"1000"`
	// SampleRows is the number of sample rows captured per table during introspection.
	SampleRows int `yaml:"sample_rows" env:"PIPELINE_SAMPLE_ROWS" env-default:"3"`
	// DistinctValueCap is the per-column cardinality above which value
	// inventories are skipped entirely.
	DistinctValueCap int `yaml:"distinct_value_cap" env:"PIPELINE_DISTINCT_VALUE_CAP" env-default:"100"`
	// SystemTablePrefixes are table-name prefixes excluded from snapshots.
	SystemTablePrefixes []string `yaml:"system_table_prefixes" env:"PIPELINE_SYSTEM_TABLE_PREFIXES" env-default:"datachat_,schema_migrations"`
}

// Load reads configuration from config.yaml (if present) and the environment.
func Load(version string) (*Config, error) {
	var cfg Config

	if _, err := os.Stat(DefaultConfigFile); err == nil {
		if err := cleanenv.ReadConfig(DefaultConfigFile, &cfg); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("read environment: %w", err)
		}
	}

	cfg.Version = version

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Pipeline.RowLimit <= 0 {
		return fmt.Errorf("pipeline row_limit must be positive, got %d", c.Pipeline.RowLimit)
	}
	if c.Pipeline.DistinctValueCap <= 0 {
		return fmt.Errorf("pipeline distinct_value_cap must be positive, got %d", c.Pipeline.DistinctValueCap)
	}
	if c.LLM.Provider != "openai" && c.LLM.Provider != "anthropic" {
		return fmt.Errorf("llm provider must be openai or anthropic, got %q", c.LLM.Provider)
	}
	return nil
}
