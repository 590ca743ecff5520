package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("PORT", "")
	path := writeConfig(t, `
server:
  port: 9090
ai:
  model: openai/gpt-oss-120b
  temperature: 0.7
  timeout: 45s
auth:
  apiKeys:
    acme: k1
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "gsk_test", cfg.AI.APIKey)
	assert.Equal(t, 45*time.Second, cfg.AI.Timeout)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "data/medreport.db", cfg.Database.Path)
	assert.Equal(t, 100_000, cfg.Limits.MaxReportChars)
	assert.Equal(t, time.Hour, cfg.Limits.SessionTTL)
	assert.Equal(t, 1000, cfg.Limits.MaxSessions)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "k1", cfg.Auth.APIKeys["acme"])
	require.NotNil(t, cfg.AI.Temperature)
	assert.InDelta(t, 0.7, *cfg.AI.Temperature, 0.001)
}

func TestLoad_ZeroTemperatureIsKept(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("PORT", "")
	cfg, err := Load(writeConfig(t, "ai:\n  temperature: 0\n"))
	require.NoError(t, err)
	require.NotNil(t, cfg.AI.Temperature)
	assert.Zero(t, *cfg.AI.Temperature)

	cfg, err = Load(writeConfig(t, "ai:\n  model: m\n"))
	require.NoError(t, err)
	assert.Nil(t, cfg.AI.Temperature)
}

func TestLoad_Invalid(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: oracle
ai:
  topP: 3
minio:
  enabled: true
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
	assert.Contains(t, err.Error(), "topP")
	assert.Contains(t, err.Error(), "minio")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDSNs(t *testing.T) {
	var c Config
	c.Database.Driver = DriverPostgres
	c.Database.Host = "db"
	c.Database.Name = "reports"
	c.Database.User = "u"
	c.Database.Password = "p"
	require.NoError(t, c.Validate())

	assert.Equal(t, "host=db port=5432 user=u password=p dbname=reports sslmode=disable", c.PostgresDSN())
	assert.Equal(t, "u:p@tcp(db:5432)/reports?parseTime=true&charset=utf8mb4&loc=UTC", c.MySQLDSN())
}

func TestPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	assert.Equal(t, "config.yaml", Path())
	t.Setenv("CONFIG_PATH", "/etc/medreport.yaml")
	assert.Equal(t, "/etc/medreport.yaml", Path())
}
