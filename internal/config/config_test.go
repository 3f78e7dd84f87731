package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  port: 9000
database:
  host: db.internal
  port: 5433
  query_timeout: 2s
jwt:
  secret: from-file
inventory:
  cache_ttl: 1m
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, 2*time.Second, cfg.Database.QueryTimeout)
	assert.Equal(t, "from-file", cfg.JWT.Secret)
	assert.Equal(t, time.Minute, cfg.Inventory.CacheTTL)

	// defaults fill the rest
	assert.Equal(t, 2*time.Hour, cfg.JWT.Expiry)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 50, cfg.Outbox.BatchSize)
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("BLOODBANK_JWT_SECRET", "from-env")
	t.Setenv("BLOODBANK_DB_HOST", "pg")
	t.Setenv("BLOODBANK_DB_PORT", "6543")
	t.Setenv("BLOODBANK_REDIS_URL", "redis://cache:6379/1")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, "pg", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "redis://cache:6379/1", cfg.Redis.URL)
}

func TestLoadBadEnv(t *testing.T) {
	t.Setenv("BLOODBANK_DB_PORT", "not-a-number")
	_, err := Load(writeConfig(t, sampleYAML))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 8080\n"))
	require.NoError(t, err)
	assert.EqualError(t, cfg.Validate(), "jwt.secret is required")

	cfg.JWT.Secret = "s"
	cfg.Server.Port = 0
	assert.EqualError(t, cfg.Validate(), "server.port must be positive")
}

func TestDSN(t *testing.T) {
	c := DatabaseConfig{Host: "h", Port: 1, User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	assert.Equal(t, "host=h port=1 user=u password=p dbname=n sslmode=disable", c.DSN())
}
