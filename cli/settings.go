package cli

import (
	"errors"
	"io/fs"
	"log"
	"log/slog"
	"os"

	"github.com/digitorus/pdfannot/config"
)

// loadSettings reads the config file at path. A missing file at the default
// location selects the defaults.
func loadSettings(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	c, err := config.Read(path)
	if err != nil && path == config.DefaultLocation && errors.Is(err, fs.ErrNotExist) {
		log.Printf("No config file at %s, using defaults", path)
		return config.Default(), nil
	}
	return c, err
}

func newLogger(c config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: c.Level()}))
}
