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
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("NOTIFY_WEBHOOK_URL", "")
	t.Setenv("NOTIFY_WEBHOOK_TIMEOUT_SECONDS", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, StoreDriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, "ticketdesk_session", cfg.Session.CookieName)
	assert.True(t, cfg.Security.CSRFEnabled)
	assert.Equal(t, "admin@local.com", cfg.Seed.AdminEmail)
	assert.Equal(t, 8*time.Hour, cfg.Auth.SessionTTL())
	assert.Empty(t, cfg.Notification.WebhookURL)
	assert.Equal(t, 5*time.Second, cfg.Notification.WebhookTimeout())
}

func TestLoadFromEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("STORE_DRIVER=SQLite\nAPP_PORT=9090\nCSRF_ENABLED=false\n"), 0o600))
	for _, key := range []string{"STORE_DRIVER", "APP_PORT", "CSRF_ENABLED"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, StoreDriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "9090", cfg.App.Port)
	assert.False(t, cfg.Security.CSRFEnabled)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "oracle")
	_, err := Load()
	assert.Error(t, err)
}
