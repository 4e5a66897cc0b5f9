package config

import (
	"bytes"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Debug turns on development logging in the command line tools.
var Debug = false

const (
	FormatAMF0 = "amf0"
	FormatAMF3 = "amf3"
	FormatAMFX = "amfx"

	DefaultFormat = FormatAMF3
)

const (
	OutputHex    = "hex"
	OutputBinary = "binary"

	DefaultOutput = OutputHex
)

// PacketVersion is the version written in the first two bytes of an AMF packet.
const PacketVersion uint16 = 0

const AMFXNamespace = "http://www.macromedia.com/2005/amfx"
const AMFXVersion = "3"

const DefaultLogLevel = "info"

// Config is the configuration file of amfconv.
type Config struct {
	Format string    `yaml:"format"`  // amf0, amf3 or amfx
	Output string    `yaml:"output"`  // hex or binary, for AMF0 and AMF3 output
	Log    LogConfig `yaml:"log"`
	// Classes lists class aliases decoded into registered records instead of plain typed objects.
	Classes []string `yaml:"classes,omitempty"`
}

type LogConfig struct {
	Development bool   `yaml:"development"`
	Level       string `yaml:"level"` // debug, info, warn or error
}

// Load reads a configuration file. Unknown fields are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config file")
	}
	return Parse(data)
}

// Parse decodes, defaults and validates a configuration document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	// an empty document is a valid, all default configuration
	if err := decoder.Decode(&cfg); err != nil && len(bytes.TrimSpace(data)) > 0 {
		return nil, errors.Wrap(err, "decode config")
	}

	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	cfg.setDefaults()
	return &cfg
}

func (c *Config) setDefaults() {
	if c.Format == "" {
		c.Format = DefaultFormat
	}
	if c.Output == "" {
		c.Output = DefaultOutput
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

// Validate checks every field against its allowed values.
func (c *Config) Validate() error {
	switch c.Format {
	case FormatAMF0, FormatAMF3, FormatAMFX:
	default:
		return errors.Errorf("format must be %q, %q or %q, got %q", FormatAMF0, FormatAMF3, FormatAMFX, c.Format)
	}
	switch c.Output {
	case OutputHex, OutputBinary:
	default:
		return errors.Errorf("output must be %q or %q, got %q", OutputHex, OutputBinary, c.Output)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.Errorf("unknown log level %q", c.Log.Level)
	}
	seen := make(map[string]bool, len(c.Classes))
	for _, alias := range c.Classes {
		if alias == "" {
			return errors.New("class alias must not be empty")
		}
		if seen[alias] {
			return errors.Errorf("class %q listed twice", alias)
		}
		seen[alias] = true
	}
	return nil
}
