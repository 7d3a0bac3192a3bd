package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "crowdfunding.events", cfg.RabbitMQ.Exchange)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 60, cfg.Task.Interval)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: "9000"
database:
  driver: sqlite
  path: /tmp/test.db
auth:
  token_ttl: 2h
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("NEXTFORD_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/test.db", cfg.Database.Path)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", DBName: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=n sslmode=disable", d.DSN())
}

func TestLoad_ReleaseRequiresJWTSecret(t *testing.T) {
	t.Setenv("NEXTFORD_SERVER_MODE", "release")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.jwt_secret")

	t.Setenv("NEXTFORD_AUTH_JWT_SECRET", "")
	_, err = Load("")
	assert.Error(t, err)

	t.Setenv("NEXTFORD_AUTH_JWT_SECRET", "s3cr3t-from-vault")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.False(t, cfg.InsecureJWTSecret())
}

func TestConfig_Validate(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Mode: "debug"}, Auth: AuthConfig{JWTSecret: DefaultJWTSecret}}
	assert.NoError(t, cfg.Validate())
	assert.True(t, cfg.InsecureJWTSecret())

	cfg.Server.Mode = "release"
	assert.Error(t, cfg.Validate())

	cfg.Auth.JWTSecret = "another-secret"
	assert.NoError(t, cfg.Validate())
}
