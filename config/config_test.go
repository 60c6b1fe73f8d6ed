package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/digitorus/pdfannot/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	const configContent = `
listen = "0.0.0.0:9000"
logLevel = "debug"
defaultZoom = 1.5
defaultTool = "rectangle"
defaultColor = "#00ff00"
maxHistoryStates = 20
`

	c, err := config.Decode(configContent)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", c.Listen)
	assert.Equal(t, slog.LevelDebug, c.Level())
	assert.Equal(t, 1.5, c.DefaultZoom)
	assert.Equal(t, "rectangle", c.DefaultTool)
	assert.Equal(t, "#00ff00", c.DefaultColor)
	assert.Equal(t, 20, c.MaxHistoryStates)

	// Untouched keys keep their defaults.
	assert.Equal(t, "Arial", c.DefaultFontFamily)
	assert.Equal(t, int64(50*1024*1024), c.MaxUploadSize)
	read, write := c.Timeouts()
	assert.Equal(t, 30*time.Second, read)
	assert.Equal(t, time.Minute, write)
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, config.Default().ValidateFields())
}

func TestValidation(t *testing.T) {
	tests := map[string]string{
		"zoom too large":   `defaultZoom = 4.0`,
		"zoom too small":   `defaultZoom = 0.25`,
		"unknown tool":     `defaultTool = "lasso"`,
		"bad color":        `defaultColor = "red"`,
		"no history":       `maxHistoryStates = 0`,
		"bad listen":       `listen = "nowhere"`,
		"bad level":        `logLevel = "verbose"`,
		"empty font":       `defaultFontFamily = ""`,
		"unknown key":      `colour = "#ff0000"`,
		"wrong value type": `defaultZoom = "big"`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := config.Decode(content)
			assert.Error(t, err)
		})
	}

	var c config.Config
	_, err := toml.Decode(``, &c)
	require.NoError(t, err)
	assert.NotNil(t, c.ValidateFields(), "zero config must not validate")
}

func TestRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pdfannot.conf")
	require.NoError(t, os.WriteFile(path, []byte("maxSessions = 3\n"), 0o600))

	c, err := config.Read(path)
	require.NoError(t, err)
	assert.Equal(t, 3, c.MaxSessions)

	_, err = config.Read(filepath.Join(t.TempDir(), "missing.conf"))
	assert.Error(t, err)
}
