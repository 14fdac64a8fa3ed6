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

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
database:
  dsn: "host=localhost dbname=parking"
`))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.CacheTTL())
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 10, cfg.Database.MaxOpenConns)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "UTC", cfg.Tickets.Timezone)
	assert.Equal(t, 8*time.Hour, cfg.Auth.SessionTTL())
	assert.Equal(t, "memory", cfg.Auth.Backend)
	assert.Equal(t, "database", cfg.Files.Backend)
	assert.Equal(t, "banned-plates", cfg.Files.S3.Prefix)
}

func TestLoad_FileValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
server:
  port: 9000
  rate_limit_per_sec: 2.5
database:
  driver: SQLite
  dsn: "file:parking.db"
tickets:
  default_nights: 2
  timezone: America/Toronto
auth:
  backend: redis
  redis_url: "redis://localhost:6379/0"
  operators:
    - username: front-desk
      password_hash: "$2a$10$abc"
files:
  backend: s3
  s3:
    bucket: parking-uploads
    region: ca-central-1
`))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 2.5, cfg.Server.RateLimitPerSec)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 2, cfg.Tickets.DefaultNights)
	loc, err := cfg.Tickets.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Toronto", loc.String())
	require.Len(t, cfg.Auth.Operators, 1)
	assert.Equal(t, "front-desk", cfg.Auth.Operators[0].Username)
	assert.Equal(t, "parking-uploads", cfg.Files.S3.Bucket)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PARKING_DATABASE_DSN", "postgres://env/parking")
	t.Setenv("PARKING_SERVER_PORT", "7070")
	t.Setenv("PARKING_FILES_S3_BUCKET", "from-env")

	cfg, err := Load(writeConfig(t, `
server:
  port: 9000
database:
  dsn: "from-file"
`))
	require.NoError(t, err)
	assert.Equal(t, "postgres://env/parking", cfg.Database.DSN)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "from-env", cfg.Files.S3.Bucket)
}

func TestLoad_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{name: "unknown driver", body: "database:\n  driver: mysql\n  dsn: x\n"},
		{name: "missing dsn", body: "database:\n  driver: postgres\n"},
		{name: "bad timezone", body: "database:\n  dsn: x\ntickets:\n  timezone: Mars/Olympus\n"},
		{name: "redis without url", body: "database:\n  dsn: x\nauth:\n  backend: redis\n"},
		{name: "unknown session backend", body: "database:\n  dsn: x\nauth:\n  backend: memcached\n"},
		{name: "s3 without bucket", body: "database:\n  dsn: x\nfiles:\n  backend: s3\n"},
		{name: "unknown files backend", body: "database:\n  dsn: x\nfiles:\n  backend: ftp\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
