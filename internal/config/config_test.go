package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testOptions struct {
	Config string

	MatrixWidth     int    `toml:"matrix.width" env:"MATRIX_WIDTH"`
	LedDriver       string `toml:"led.driver" env:"LED_DRIVER"`
	AuthEnabled     bool   `toml:"auth.enabled" env:"AUTH_ENABLED"`
	PriceCeiling    int    `toml:"amber.price_ceiling" env:"AMBER_PRICE_CEILING"`
	Interval        string `toml:"source.interval" env:"SOURCE_INTERVAL"`
	NetworkInterval string `toml:"network.interval" env:"NETWORK_INTERVAL"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const sampleTOML = `
[matrix]
width = 8

[led]
driver = "spi"

[auth]
enabled = true

[amber]
price_ceiling = 40

[source]
interval = "1m"

[network]
interval = 20
`

func TestLoadConfigFromTOML(t *testing.T) {
	opts := &testOptions{Config: writeConfig(t, sampleTOML)}
	require.NoError(t, LoadConfig(opts, nil))

	assert.Equal(t, 8, opts.MatrixWidth)
	assert.Equal(t, "spi", opts.LedDriver)
	assert.True(t, opts.AuthEnabled)
	assert.Equal(t, 40, opts.PriceCeiling)
	assert.Equal(t, "1m", opts.Interval)
	assert.Equal(t, "20", opts.NetworkInterval)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	t.Setenv("POWERIND_LED_DRIVER", "noop")
	t.Setenv("POWERIND_SOURCE_INTERVAL", "45")
	t.Setenv("POWERIND_AMBER_PRICE_CEILING", "62")

	opts := &testOptions{Config: writeConfig(t, sampleTOML)}
	require.NoError(t, LoadConfig(opts, nil))

	assert.Equal(t, "noop", opts.LedDriver)
	assert.Equal(t, "45", opts.Interval)
	assert.Equal(t, 62, opts.PriceCeiling)
	assert.Equal(t, 8, opts.MatrixWidth)
}

func TestLoadConfigCLIWins(t *testing.T) {
	t.Setenv("POWERIND_MATRIX_WIDTH", "12")

	opts := &testOptions{Config: writeConfig(t, sampleTOML)}
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().IntVar(&opts.MatrixWidth, "matrix-width", 7, "")
	require.NoError(t, cmd.Flags().Set("matrix-width", "5"))

	require.NoError(t, LoadConfig(opts, cmd))
	assert.Equal(t, 5, opts.MatrixWidth)
	assert.Equal(t, "spi", opts.LedDriver)
}

func TestLoadConfigMissingFileIsIgnored(t *testing.T) {
	opts := &testOptions{Config: filepath.Join(t.TempDir(), "absent.toml"), LedDriver: "auto"}
	require.NoError(t, LoadConfig(opts, nil))
	assert.Equal(t, "auto", opts.LedDriver)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	opts := &testOptions{Config: writeConfig(t, "[matrix]\nwidth = \"wide\"\n")}
	assert.Error(t, LoadConfig(opts, nil))

	t.Setenv("POWERIND_AUTH_ENABLED", "maybe")
	assert.Error(t, LoadConfig(&testOptions{}, nil))
}

func TestLoadConfigInvalidTOML(t *testing.T) {
	opts := &testOptions{Config: writeConfig(t, "[matrix\nwidth = 3")}
	assert.Error(t, LoadConfig(opts, nil))
}

func TestFieldNameToFlag(t *testing.T) {
	assert.Equal(t, "led-driver", fieldNameToFlag("LedDriver"))
	assert.Equal(t, "port", fieldNameToFlag("Port"))
	assert.Equal(t, "matrix-width", fieldNameToFlag("MatrixWidth"))
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"1m", time.Minute},
		{"250ms", 250 * time.Millisecond},
		{"20", 20 * time.Second},
		{"0", 0},
	}
	for _, tt := range tests {
		got, err := ParseDuration(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseDuration("soon")
	assert.Error(t, err)
	_, err = ParseDuration("1.5")
	assert.Error(t, err)
}
