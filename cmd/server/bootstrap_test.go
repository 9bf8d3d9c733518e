package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opencallhq/opencall/internal/app"
	"github.com/opencallhq/opencall/pkg/logger"
)

func testConfig(t *testing.T) *app.Config {
	t.Helper()

	cfg, err := app.LoadConfig(t.TempDir())
	require.NoError(t, err)

	cfg.Database.Driver = "sqlite"
	cfg.Database.Path = ":memory:"
	cfg.Auth.JWT.Secret = "bootstrap-test-secret"
	cfg.Settings.EncryptionKey = "0123456789abcdef"
	cfg.Maintenance.Enabled = false

	return cfg
}

func TestBootstrapRuntime(t *testing.T) {
	cfg := testConfig(t)
	log := logger.WithModule("bootstrap-test")

	stack, err := bootstrapRuntime(context.Background(), cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() {
		stack.Shutdown(context.Background(), log)
	})

	require.NotNil(t, stack.DB)
	require.NotNil(t, stack.Router)
	require.NotNil(t, stack.SettingsSvc)
	require.NotNil(t, stack.AuditSvc)
	require.NotNil(t, stack.EmailSvc)
	require.Nil(t, stack.Cleaner)

	imap, err := stack.SettingsSvc.IMAP(context.Background())
	require.NoError(t, err)
	require.Equal(t, 993, imap.Port)
}

func TestBootstrapRuntimeStartsCleaner(t *testing.T) {
	cfg := testConfig(t)
	cfg.Maintenance.Enabled = true
	log := logger.WithModule("bootstrap-test")

	stack, err := bootstrapRuntime(context.Background(), cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() {
		stack.Shutdown(context.Background(), log)
	})

	require.NotNil(t, stack.Cleaner)
	require.NotEmpty(t, stack.Cleaner.Entries())
}

func TestEnsureSecretsPresent(t *testing.T) {
	require.Error(t, ensureSecretsPresent(nil))

	cfg := testConfig(t)
	cfg.Auth.JWT.Secret = "   "
	require.Error(t, ensureSecretsPresent(cfg))

	cfg = testConfig(t)
	cfg.Settings.EncryptionKey = ""
	require.Error(t, ensureSecretsPresent(cfg))

	cfg = testConfig(t)
	cfg.Auth.JWT.Secret = "  padded-secret  "
	require.NoError(t, ensureSecretsPresent(cfg))
	require.Equal(t, "padded-secret", cfg.Auth.JWT.Secret)
}

func TestLoadApplicationConfigMissingPath(t *testing.T) {
	_, err := loadApplicationConfig("/definitely/not/a/real/path")
	require.Error(t, err)
}
