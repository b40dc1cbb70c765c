package config

import (
	"os"
	"path/filepath"
	"testing"

	"geocms/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, `
app:
  name: geocms
  environment: test
database:
  path: /tmp/geocms-test.db
http:
  port: 8181
labs:
  - name: GIS Lab
    location: Block A
    capacity: 30
    is_active: true
items:
  - name: GPS Receiver
    category: survey
    total: 10
    is_active: true
users:
  - username: admin
    name: Administrator
    role: admin
    password: changeme
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "geocms", cfg.App.Name)
	assert.Equal(t, 8181, cfg.HTTP.Port)
	assert.Len(t, cfg.Labs, 1)
	assert.Len(t, cfg.Items, 1)
	assert.Equal(t, int64(10), cfg.Items[0].Total)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  path: /tmp/geocms-test.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, models.DefaultSessionTTL, cfg.Session.TTLSeconds)
	assert.Equal(t, 30, cfg.Portal.MaxBorrowDays)
	assert.Greater(t, cfg.HTTP.RateLimit.RPS, 0.0)
}

func TestLoadRejectsMissingDatabasePath(t *testing.T) {
	path := writeConfig(t, `
app:
  name: geocms
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsDuplicateItems(t *testing.T) {
	path := writeConfig(t, `
database:
  path: /tmp/geocms-test.db
items:
  - name: Theodolite
    total: 2
  - name: Theodolite
    total: 3
`)

	_, err := Load(path)
	assert.ErrorContains(t, err, "duplicate item name")
}

func TestLoadRejectsBadBootstrapUser(t *testing.T) {
	path := writeConfig(t, `
database:
  path: /tmp/geocms-test.db
users:
  - username: bob
    name: Bob
    role: wizard
    password: x
`)

	_, err := Load(path)
	assert.ErrorContains(t, err, "unknown role")
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("GEOCMS_DB_PATH", "/tmp/geocms-env.db")
	path := writeConfig(t, `
database:
  path: ${GEOCMS_DB_PATH}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/geocms-env.db", cfg.Database.Path)
}
