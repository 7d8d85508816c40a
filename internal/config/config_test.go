package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SurajNatekar28/token-trading-table/internal/domain"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "SOL", cfg.Chain)
	assert.Equal(t, 12, cfg.Capacity)
	assert.Equal(t, 0, cfg.MaxPerCategory)
	assert.Equal(t, 16*time.Millisecond, cfg.FrameInterval)
	assert.Equal(t, 2*time.Second, cfg.MutationInterval)
	assert.Equal(t, 150*time.Millisecond, cfg.DebounceDelay)
	assert.Equal(t, 400*time.Millisecond, cfg.LoadingDelay)
	assert.Equal(t, 15*time.Second, cfg.MaxArrivalDelay)
	assert.Equal(t, FeedSim, cfg.Feed)
	assert.Equal(t, "pulse:updates", cfg.RedisStream)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("PULSE_CHAIN", "BNB")
	t.Setenv("PULSE_FEED", "redis")
	t.Setenv("PULSE_DEBOUNCE_DELAY", "300ms")
	t.Setenv("PULSE_MAX_PER_CATEGORY", "50")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, domain.ChainBNB, cfg.ParsedChain())
	assert.Equal(t, FeedRedis, cfg.Feed)
	assert.Equal(t, 300*time.Millisecond, cfg.DebounceDelay)
	assert.Equal(t, 50, cfg.MaxPerCategory)
}

func TestLoadFromEnv_BadDuration(t *testing.T) {
	t.Setenv("PULSE_FRAME_INTERVAL", "soon")

	_, err := LoadFromEnv()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown chain", func(c *Config) { c.Chain = "ETH" }},
		{"unknown feed", func(c *Config) { c.Feed = "kafka" }},
		{"zero capacity", func(c *Config) { c.Capacity = 0 }},
		{"capacity above window", func(c *Config) { c.Capacity = 20 }},
		{"negative retention", func(c *Config) { c.MaxPerCategory = -1 }},
		{"zero frame interval", func(c *Config) { c.FrameInterval = 0 }},
		{"negative debounce", func(c *Config) { c.DebounceDelay = -time.Second }},
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFromEnv()
			require.NoError(t, err)

			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# comment\nPULSE_TEST_A=from-file\nPULSE_TEST_B = \"quoted\"\nnot-a-pair\nPULSE_TEST_C=file\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("PULSE_TEST_C", "from-env")
	t.Cleanup(func() {
		os.Unsetenv("PULSE_TEST_A")
		os.Unsetenv("PULSE_TEST_B")
	})

	LoadEnvFile(path)

	assert.Equal(t, "from-file", os.Getenv("PULSE_TEST_A"))
	assert.Equal(t, "quoted", os.Getenv("PULSE_TEST_B"))
	assert.Equal(t, "from-env", os.Getenv("PULSE_TEST_C"), "existing env must win")
}

func TestLoadEnvFile_Missing(t *testing.T) {
	LoadEnvFile(filepath.Join(t.TempDir(), "nope.env"))
}
