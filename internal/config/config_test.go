package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 0\n"))
	require.NoError(t, err)

	assert.Equal(t, 8888, cfg.Server.Port)
	assert.Equal(t, "gpt-4o", cfg.Azure.Model)
	assert.Equal(t, 3, cfg.Pipeline.Attempts)
	assert.Equal(t, 4, cfg.Pipeline.Workers)
	assert.Equal(t, 64, cfg.Pipeline.QueueSize)
	assert.Equal(t, "prompts", cfg.Pipeline.PromptsDir)
	assert.Equal(t, "files", cfg.Pipeline.FilesDir)
	assert.Equal(t, 30, cfg.Callback.TimeoutSecs)
	assert.Equal(t, 30, cfg.Pipeline.FetchTimeoutSecs)
}

func TestLoadValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
server:
  port: 9001
database:
  driver: mysql
  host: db.internal
  port: 3307
  user: guru
  password: pw
  name: analyses
azure:
  apiKey: file-key
  endpoint: https://file.openai.azure.com
  deployment: gpt4o-prod
pipeline:
  attempts: 5
  workers: 8
`))
	require.NoError(t, err)

	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 5, cfg.Pipeline.Attempts)
	assert.Equal(t, 8, cfg.Pipeline.Workers)
	assert.Equal(t, "guru:pw@tcp(db.internal:3307)/analyses?parseTime=true&charset=utf8mb4&loc=UTC", cfg.MySQLDSN())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("AZURE_API_KEY", "env-key")
	t.Setenv("AZURE_ENDPOINT", "https://env.openai.azure.com")
	t.Setenv("AZURE_DEPLOYMENT", "env-deploy")
	t.Setenv("AZURE_API_VERSION", "2024-02-01")
	t.Setenv("BOOM_API_KEY", "env-boom")

	cfg, err := Load(writeConfig(t, `
azure:
  apiKey: file-key
  endpoint: https://file.openai.azure.com
callback:
  apiKey: file-boom
`))
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.Azure.APIKey)
	assert.Equal(t, "https://env.openai.azure.com", cfg.Azure.Endpoint)
	assert.Equal(t, "env-deploy", cfg.Azure.Deployment)
	assert.Equal(t, "2024-02-01", cfg.Azure.APIVersion)
	assert.Equal(t, "env-boom", cfg.Callback.APIKey)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [not: a: mapping"))
	assert.Error(t, err)
}

func TestPostgresDSN(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
database:
  driver: postgres
  host: pg.internal
  port: 5433
  user: guru
  password: pw
  name: analyses
  sslMode: require
`))
	require.NoError(t, err)

	dsn := cfg.PostgresDSN()
	assert.Contains(t, dsn, "host=pg.internal")
	assert.Contains(t, dsn, "port=5433")
	assert.Contains(t, dsn, "sslmode=require")
}
