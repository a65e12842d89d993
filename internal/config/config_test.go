package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/stablecoin_layer/internal/token"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("SSS_HTTP_ADDR", "")
	t.Setenv("SSS_SNAPSHOT_BACKEND", "")
	t.Setenv("SSS_CONFIG_FILE", "")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, BackendFile, cfg.SnapshotBackend)
	assert.Equal(t, ".sss-token-state.json", cfg.StateFile)
	assert.Equal(t, 800*time.Millisecond, cfg.FiatVerifyDelay)
	assert.Equal(t, "@every 1m", cfg.CheckpointSchedule)
	assert.Equal(t, "SUSD", cfg.Token.Symbol)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("SSS_HTTP_ADDR", ":9090")
	t.Setenv("SSS_SNAPSHOT_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("SSS_FIAT_VERIFY_DELAY", "10ms")
	t.Setenv("SSS_RATE_LIMIT", "2.5")
	t.Setenv("SSS_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("SLACK_WEBHOOK_URL", "https://hooks.slack.example/x")
	t.Setenv("DISCORD_WEBHOOK_URL", "")
	t.Setenv("SSS_CONFIG_FILE", "")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, BackendRedis, cfg.SnapshotBackend)
	assert.Equal(t, 10*time.Millisecond, cfg.FiatVerifyDelay)
	assert.InDelta(t, 2.5, cfg.RateLimit, 1e-9)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins())
	assert.Equal(t, "https://hooks.slack.example/x", cfg.WebhookURL())

	t.Setenv("DISCORD_WEBHOOK_URL", "https://discord.example/x")
	cfg, err = FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "https://discord.example/x", cfg.WebhookURL())
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.SnapshotBackend = BackendPostgres
	assert.Error(t, cfg.Validate())
	cfg.DatabaseURL = "postgres://localhost/sss"
	assert.NoError(t, cfg.Validate())

	cfg.SnapshotBackend = "etcd"
	assert.Error(t, cfg.Validate())
}

func TestOverlay(t *testing.T) {
	path := writeFile(t, "sss.yaml", `
authority: 9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin
checkpoint_schedule: "@every 30s"
token:
  name: Regulated USD
  symbol: RUSD
  preset: sss-2
  decimals: 2
`)
	t.Setenv("SSS_CONFIG_FILE", path)
	t.Setenv("SSS_SNAPSHOT_BACKEND", "")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin", cfg.Authority)
	assert.Equal(t, "@every 30s", cfg.CheckpointSchedule)
	assert.Equal(t, "RUSD", cfg.Token.Symbol)
	require.NotNil(t, cfg.Token.Decimals)
	assert.Equal(t, uint8(2), *cfg.Token.Decimals)

	bad := writeFile(t, "bad.yaml", "token:\n  symbol: X\n")
	_, err = LoadOverlay(bad)
	assert.ErrorIs(t, err, token.ErrInvalidConfig)
}

func TestLoadDefinitionFormats(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{"json", "token.json", `{"name":"Custom","symbol":"CST","decimals":9,"extensions":{"transferHook":true}}`},
		{"toml", "token.toml", "name = \"Custom\"\nsymbol = \"CST\"\ndecimals = 9\n\n[extensions]\ntransferHook = true\n"},
		{"yaml", "token.yml", "name: Custom\nsymbol: CST\ndecimals: 9\nextensions:\n  transferHook: true\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, err := LoadDefinition(writeFile(t, tt.file, tt.body))
			require.NoError(t, err)

			cfg, err := def.Resolve()
			require.NoError(t, err)
			assert.Equal(t, "CST", cfg.Symbol)
			assert.Equal(t, uint8(9), cfg.Decimals)
			assert.Equal(t, token.PresetSSS2, cfg.Preset)
			assert.True(t, cfg.Extensions.TransferHook)
		})
	}
}

func TestLoadDefinitionErrors(t *testing.T) {
	_, err := LoadDefinition(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = LoadDefinition(writeFile(t, "unknown.json", `{"name":"A","symbol":"B","supply":1}`))
	assert.Error(t, err)

	_, err = LoadDefinition(writeFile(t, "nosymbol.toml", `name = "A"`))
	assert.ErrorIs(t, err, token.ErrInvalidConfig)
}
