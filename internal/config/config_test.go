package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, "https://freetsa.org/tsr", c.TSA.URL)
	assert.Equal(t, 30*time.Second, c.TSA.Timeout)
	assert.Equal(t, "fs", c.Storage.Driver)
	assert.Equal(t, 56.0, c.Template.FontSize)
	assert.NoError(t, c.Validate())
}

func TestLoadYAMLAndEnv(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
server:
  addr: ":9000"
tsa:
  timeout: 5s
storage:
  driver: redis
  redis:
    addr: "localhost:6379"
rate:
  enabled: true
  window: 30s
`), 0o644))

	t.Setenv("TSA_URL", "http://tsa.local/tsr")
	t.Setenv("RATE_MAX_REQUESTS", "3")

	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, ":9000", c.Server.Addr)
	assert.Equal(t, 5*time.Second, c.TSA.Timeout)
	assert.Equal(t, "http://tsa.local/tsr", c.TSA.URL)
	assert.Equal(t, 30*time.Second, c.Rate.Window)
	assert.Equal(t, 3, c.Rate.MaxRequests)
	assert.NoError(t, c.Validate())
}

func TestValidate(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	c.Storage.Driver = "postgres"
	assert.Error(t, c.Validate())

	c.Storage.Driver = "mongo"
	assert.Error(t, c.Validate())

	c.Storage.Driver = "memory"
	c.Rate.Enabled = true
	c.Rate.Backend = "redis"
	assert.Error(t, c.Validate())
}

func TestLoadInvalidYAML(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(p, []byte("server: ["), 0o644))
	_, err := Load(p)
	assert.Error(t, err)
}

func TestExampleConfigParses(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "configs", "config.example.yaml"))
	require.NoError(t, err)
	require.NoError(t, c.Validate())
	assert.Equal(t, 30*time.Second, c.TSA.Timeout)
	assert.Equal(t, 30*time.Minute, c.Storage.Postgres.ConnMaxLifetime)
	assert.Len(t, c.Template.Lines, 3)
	assert.True(t, c.Rate.Enabled)
}
