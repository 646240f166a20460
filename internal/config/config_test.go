package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetArgs strips the test binary's own flags so Load's flag parsing
// sees a clean command line.
func resetArgs(t *testing.T, args ...string) {
	t.Helper()
	old := os.Args
	os.Args = append([]string{"kscand"}, args...)
	t.Cleanup(func() { os.Args = old })
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kscand.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	resetArgs(t)
	t.Setenv("KSCAND_CONFIG", writeConfigFile(t, ""))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 64, cfg.EventBufferSize)
	assert.Equal(t, uint64(50), cfg.ChatterWindowMS)
	assert.Equal(t, uint32(3), cfg.ChatterBurst)
	assert.Equal(t, ":8590", cfg.HTTPAddr)
	assert.Equal(t, "tcp://localhost:1883", cfg.Broker)
	assert.Equal(t, "kscan/transitions", cfg.Topic)
	assert.Equal(t, "gpiochip0", cfg.GPIOChip)
	assert.False(t, cfg.Telemetry)
	assert.Empty(t, cfg.Lines)
}

func TestLoadFromFile(t *testing.T) {
	resetArgs(t)
	t.Setenv("KSCAND_CONFIG", writeConfigFile(t, `
log_level = "debug"
multiplexed = true
event_buffer_size = 128
chatter_window_ms = 80
chatter_burst = 4

[[lines]]
pin = 2
port = "gpio0"

[[lines]]
pin = 3
port = "gpio0"
`))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Multiplexed)
	assert.Equal(t, 128, cfg.EventBufferSize)
	assert.Equal(t, uint64(80), cfg.ChatterWindowMS)
	assert.Equal(t, uint32(4), cfg.ChatterBurst)
	require.Len(t, cfg.Lines, 2)
	assert.Equal(t, uint32(2), cfg.Lines[0].Pin)
	assert.Equal(t, "gpio0", cfg.Lines[0].Port)
}

func TestLoadFlagOverridesFile(t *testing.T) {
	resetArgs(t, "--chatter-window-ms=200", "--log-level=error")
	t.Setenv("KSCAND_CONFIG", writeConfigFile(t, `
chatter_window_ms = 80
log_level = "debug"
`))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, uint64(200), cfg.ChatterWindowMS)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestLoadRejectsInvalidTOML(t *testing.T) {
	resetArgs(t)
	t.Setenv("KSCAND_CONFIG", writeConfigFile(t, `log_level = [unclosed`))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsInvalidLogLevel(t *testing.T) {
	resetArgs(t)
	t.Setenv("KSCAND_CONFIG", writeConfigFile(t, `log_level = "loud"`))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsUnknownFlag(t *testing.T) {
	resetArgs(t, "--no-such-flag")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			LogLevel:        "info",
			EventBufferSize: 64,
			ChatterWindowMS: 50,
			ChatterBurst:    3,
		}
	}

	assert.NoError(t, base().Validate())

	cfg := base()
	cfg.EventBufferSize = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.ChatterWindowMS = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.ChatterBurst = 1
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.LogLevel = "shouty"
	assert.Error(t, cfg.Validate())
}
