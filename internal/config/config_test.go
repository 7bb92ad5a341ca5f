package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "require", cfg.Database.SSLMode)
	assert.Equal(t, 2, cfg.Database.MinConns)
	assert.Equal(t, 10, cfg.Database.MaxConns)
	assert.Equal(t, 900*time.Second, cfg.Database.RefreshAfter)
	assert.Equal(t, TaskStoreMemory, cfg.Tasks.Store)
	assert.True(t, cfg.Tasks.SeedDemo)
	assert.Equal(t, []string{"*"}, cfg.HTTP.AllowedOrigins())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PGHOST", "db.internal")
	t.Setenv("PGDATABASE", "forms")
	t.Setenv("PGUSER", "svc-user")
	t.Setenv("PGPORT", "6543")
	t.Setenv("PG_CREDENTIAL_TTL", "2m")
	t.Setenv("DATABRICKS_CLIENT_ID", "client")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, cfg.Database.Configured())
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, 2*time.Minute, cfg.Database.RefreshAfter)
	assert.Equal(t, ProviderOAuth, cfg.Credentials.ResolvedProvider())
}

func TestLoadYAMLOverlay(t *testing.T) {
	t.Setenv("PGHOST", "from-env")

	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "database:\n  host: from-file\n  max_conns: 4\nhttp:\n  cors_origins: https://a.example, https://b.example\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.Database.Host)
	assert.Equal(t, 4, cfg.Database.MaxConns)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.AllowedOrigins())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*Config){
		"min above max":    func(c *Config) { c.Database.MinConns, c.Database.MaxConns = 5, 2 },
		"unknown provider": func(c *Config) { c.Credentials.Provider = "kerberos" },
		"unknown store":    func(c *Config) { c.Tasks.Store = "etcd" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := &Config{Database: DatabaseConfig{MinConns: 2, MaxConns: 10}}
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
