// Package config loads process configuration from the environment, an
// optional .env file and an optional YAML overlay.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Credential providers understood by the database pool.
const (
	ProviderStatic = "static"
	ProviderOAuth  = "oauth"
	ProviderAzure  = "azure"
)

// Task store backends.
const (
	TaskStoreMemory = "memory"
	TaskStoreRedis  = "redis"
)

// Config is the full process configuration.
type Config struct {
	Server      ServerConfig     `yaml:"server"`
	Logging     LoggingConfig    `yaml:"logging"`
	Database    DatabaseConfig   `yaml:"database"`
	Credentials CredentialConfig `yaml:"credentials"`
	HTTP        HTTPConfig       `yaml:"http"`
	Tasks       TaskStoreConfig  `yaml:"tasks"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr            string        `env:"HTTP_ADDR,default=:8000" yaml:"addr"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT,default=15s" yaml:"read_timeout"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT,default=30s" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT,default=10s" yaml:"shutdown_timeout"`
}

// LoggingConfig mirrors logger.LoggingConfig with environment bindings.
type LoggingConfig struct {
	Level      string `env:"LOG_LEVEL,default=info" yaml:"level"`
	Format     string `env:"LOG_FORMAT,default=text" yaml:"format"`
	Output     string `env:"LOG_OUTPUT,default=stdout" yaml:"output"`
	FilePrefix string `env:"LOG_FILE_PREFIX" yaml:"file_prefix"`
}

// DatabaseConfig holds the PG* connection settings and pool sizing.
type DatabaseConfig struct {
	Host           string        `env:"PGHOST" yaml:"host"`
	Port           int           `env:"PGPORT,default=5432" yaml:"port"`
	Name           string        `env:"PGDATABASE" yaml:"name"`
	User           string        `env:"PGUSER" yaml:"user"`
	SSLMode        string        `env:"PGSSLMODE,default=require" yaml:"sslmode"`
	AppName        string        `env:"PGAPPNAME" yaml:"app_name"`
	MinConns       int           `env:"PG_POOL_MIN,default=2" yaml:"min_conns"`
	MaxConns       int           `env:"PG_POOL_MAX,default=10" yaml:"max_conns"`
	RefreshAfter   time.Duration `env:"PG_CREDENTIAL_TTL,default=900s" yaml:"refresh_after"`
	ConnectTimeout time.Duration `env:"PG_CONNECT_TIMEOUT,default=5s" yaml:"connect_timeout"`
}

// Configured reports whether enough settings exist to reach a database.
func (c DatabaseConfig) Configured() bool {
	return strings.TrimSpace(c.Host) != "" && strings.TrimSpace(c.Name) != "" && strings.TrimSpace(c.User) != ""
}

// CredentialConfig selects and configures the database password source.
type CredentialConfig struct {
	// Provider is static, oauth or azure. Empty picks oauth when a client id
	// is present and static otherwise.
	Provider string `env:"CREDENTIAL_PROVIDER" yaml:"provider"`

	Password string `env:"PGPASSWORD" yaml:"password"`

	WorkspaceHost string `env:"DATABRICKS_HOST" yaml:"workspace_host"`
	ClientID      string `env:"DATABRICKS_CLIENT_ID" yaml:"client_id"`
	ClientSecret  string `env:"DATABRICKS_CLIENT_SECRET" yaml:"client_secret"`
	TokenURL      string `env:"OAUTH_TOKEN_URL" yaml:"token_url"`
	Scopes        string `env:"OAUTH_SCOPES,default=all-apis" yaml:"scopes"`

	AzureScope string `env:"AZURE_POSTGRES_SCOPE,default=https://ossrdbms-aad.database.windows.net/.default" yaml:"azure_scope"`
}

// ResolvedProvider returns the effective provider name.
func (c CredentialConfig) ResolvedProvider() string {
	p := strings.ToLower(strings.TrimSpace(c.Provider))
	if p != "" {
		return p
	}
	if strings.TrimSpace(c.ClientID) != "" {
		return ProviderOAuth
	}
	return ProviderStatic
}

// HTTPConfig holds middleware settings.
type HTTPConfig struct {
	CORSOrigins    string `env:"CORS_ALLOWED_ORIGINS,default=*" yaml:"cors_origins"`
	RateLimitRPS   int    `env:"RATE_LIMIT_RPS,default=20" yaml:"rate_limit_rps"`
	RateLimitBurst int    `env:"RATE_LIMIT_BURST,default=40" yaml:"rate_limit_burst"`
}

// AllowedOrigins splits CORSOrigins on commas.
func (c HTTPConfig) AllowedOrigins() []string {
	return splitCSV(c.CORSOrigins)
}

// TaskStoreConfig selects the task manager backend.
type TaskStoreConfig struct {
	Store         string `env:"TASK_STORE,default=memory" yaml:"store"`
	SeedDemo      bool   `env:"TASK_SEED_DEMO,default=true" yaml:"seed_demo"`
	RedisAddr     string `env:"REDIS_ADDR,default=localhost:6379" yaml:"redis_addr"`
	RedisPassword string `env:"REDIS_PASSWORD" yaml:"redis_password"`
	RedisDB       int    `env:"REDIS_DB,default=0" yaml:"redis_db"`
	RedisPrefix   string `env:"REDIS_PREFIX,default=tasks" yaml:"redis_prefix"`
}

// Load reads .env (if present), the environment and then the YAML file at
// path (if non-empty). Values in the file take precedence.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Database.MinConns < 0 || c.Database.MaxConns < 0 {
		return fmt.Errorf("pool sizes must not be negative")
	}
	if c.Database.MaxConns > 0 && c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("pool min (%d) exceeds max (%d)", c.Database.MinConns, c.Database.MaxConns)
	}
	switch c.Credentials.ResolvedProvider() {
	case ProviderStatic, ProviderOAuth, ProviderAzure:
	default:
		return fmt.Errorf("unknown credential provider %q", c.Credentials.Provider)
	}
	switch strings.ToLower(c.Tasks.Store) {
	case "", TaskStoreMemory, TaskStoreRedis:
	default:
		return fmt.Errorf("unknown task store %q", c.Tasks.Store)
	}
	return nil
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
