// Package config reads the pdfannot settings file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/asaskevich/govalidator"
)

// Zoom limits of the editor.
const (
	MinZoom = 0.5
	MaxZoom = 3.0
)

func init() {
	govalidator.SetFieldsRequiredByDefault(true)
	govalidator.TagMap["zoom"] = govalidator.Validator(func(str string) bool {
		z, err := strconv.ParseFloat(str, 64)
		return err == nil && z >= MinZoom && z <= MaxZoom
	})
}

// DefaultLocation is the config file read when no path is given.
var DefaultLocation = "./pdfannot.conf"

// Config is the root of the config. Keys missing from the file keep their
// Default value.
type Config struct {
	// HTTP server
	Listen        string `toml:"listen" valid:"dialstring"`
	ReadTimeout   int    `toml:"readTimeout" valid:"range(1|3600)"`  // Seconds
	WriteTimeout  int    `toml:"writeTimeout" valid:"range(1|3600)"` // Seconds
	MaxSessions   int    `toml:"maxSessions" valid:"range(1|100000)"`
	MaxUploadSize int64  `toml:"maxUploadSize" valid:"range(1|1073741824)"` // Bytes
	LogLevel      string `toml:"logLevel" valid:"in(debug|info|warn|error)"`

	// Editor defaults
	DefaultZoom       float64 `toml:"defaultZoom" valid:"zoom"`
	DefaultTool       string  `toml:"defaultTool" valid:"in(select|text|highlight|rectangle|circle)"`
	DefaultColor      string  `toml:"defaultColor" valid:"hexcolor"`
	DefaultFontSize   float64 `toml:"defaultFontSize" valid:"range(6|144)"`
	DefaultFontFamily string  `toml:"defaultFontFamily" valid:"required"`
	MaxHistoryStates  int     `toml:"maxHistoryStates" valid:"range(1|1000)"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Listen:        "127.0.0.1:8080",
		ReadTimeout:   30,
		WriteTimeout:  60,
		MaxSessions:   64,
		MaxUploadSize: 50 * 1024 * 1024,
		LogLevel:      "info",

		DefaultZoom:       1,
		DefaultTool:       "select",
		DefaultColor:      "#ff0000",
		DefaultFontSize:   16,
		DefaultFontFamily: "Arial",
		MaxHistoryStates:  50,
	}
}

// ValidateFields validates all the fields of the config
func (c Config) ValidateFields() error {
	_, err := govalidator.ValidateStruct(c)
	if err != nil {
		return err
	}
	return nil
}

// Level returns the configured log level.
func (c Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// Timeouts returns the HTTP read and write timeouts.
func (c Config) Timeouts() (read, write time.Duration) {
	return time.Duration(c.ReadTimeout) * time.Second, time.Duration(c.WriteTimeout) * time.Second
}

// Read decodes and validates the config file at path.
func Read(path string) (Config, error) {
	if _, err := os.Stat(path); err != nil {
		return Config{}, fmt.Errorf("config file is missing: %w", err)
	}
	c := Default()
	md, err := toml.DecodeFile(path, &c)
	if err != nil {
		return Config{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return c, check(c, md)
}

// Decode decodes and validates config text.
func Decode(data string) (Config, error) {
	c := Default()
	md, err := toml.Decode(data, &c)
	if err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return c, check(c, md)
}

func check(c Config, md toml.MetaData) error {
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := c.ValidateFields(); err != nil {
		return fmt.Errorf("config is not valid: %w", err)
	}
	return nil
}
