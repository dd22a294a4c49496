package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/easel/pkg/domain"
)

// Config is the layout of easel.yaml.
type Config struct {
	LogLevel string `yaml:"log_level"`

	Media struct {
		Element       string   `yaml:"element"`
		AcceptedTypes []string `yaml:"accepted_types"`
		SchemaFile    string   `yaml:"schema_file"`
	} `yaml:"media"`

	Resize struct {
		MinWidth float64 `yaml:"min_width"`
		MaxWidth float64 `yaml:"max_width"` // 0 means bounded by the container only
		Unit     string  `yaml:"unit"`
		Strict   bool    `yaml:"strict"`
	} `yaml:"resize"`

	Upload struct {
		Dir      string `yaml:"dir"`
		MaxBytes int64  `yaml:"max_bytes"`
	} `yaml:"upload"`

	Redis struct {
		Addr   string `yaml:"addr"`
		Prefix string `yaml:"prefix"`
	} `yaml:"redis"`

	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`

	Ledger struct {
		RedactPatterns []string `yaml:"redact_patterns"`
		// Key is a base64 AES-256 key; set it through EASEL_LEDGER_KEY
		// rather than the file.
		Key string `yaml:"key"`
	} `yaml:"ledger"`
}

// Environment overrides applied by Load.
const (
	EnvRedisAddr = "EASEL_REDIS_ADDR"
	EnvHTTPAddr  = "EASEL_HTTP_ADDR"
	EnvLogLevel  = "EASEL_LOG_LEVEL"
	EnvLedgerKey = "EASEL_LEDGER_KEY"
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{LogLevel: "info"}
	cfg.Media.Element = domain.NameImage
	cfg.Media.AcceptedTypes = []string{"jpeg", "png", "gif", "bmp", "webp", "tiff"}
	cfg.Resize.MinWidth = 50
	cfg.Resize.Unit = "px"
	cfg.Upload.Dir = "uploads"
	cfg.Upload.MaxBytes = 20 << 20
	cfg.Redis.Prefix = "easel:"
	cfg.HTTP.Addr = ":8080"
	return cfg
}

// Load reads path over the defaults. A missing file yields the defaults.
// Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			defer f.Close()
			if cfg, err = Parse(f); err != nil {
				return nil, err
			}
		}
	}

	if v := os.Getenv(EnvRedisAddr); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv(EnvHTTPAddr); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvLedgerKey); v != "" {
		cfg.Ledger.Key = v
	}
	return cfg, cfg.Validate()
}

// Parse decodes YAML over the defaults without validating.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var err error
	if _, lerr := c.Level(); lerr != nil {
		err = multierr.Append(err, lerr)
	}
	if strings.TrimSpace(c.Media.Element) == "" {
		err = multierr.Append(err, errors.New("media.element must not be empty"))
	}
	if len(c.Media.AcceptedTypes) == 0 {
		err = multierr.Append(err, errors.New("media.accepted_types must list at least one type"))
	}
	if c.Resize.MinWidth < 0 {
		err = multierr.Append(err, fmt.Errorf("resize.min_width must not be negative, got %v", c.Resize.MinWidth))
	}
	if c.Resize.MaxWidth != 0 && c.Resize.MaxWidth < c.Resize.MinWidth {
		err = multierr.Append(err, fmt.Errorf("resize.max_width %v is below min_width %v", c.Resize.MaxWidth, c.Resize.MinWidth))
	}
	if c.Resize.Unit != "px" && c.Resize.Unit != "%" {
		err = multierr.Append(err, fmt.Errorf("resize.unit must be px or %%, got %q", c.Resize.Unit))
	}
	if c.Upload.MaxBytes <= 0 {
		err = multierr.Append(err, errors.New("upload.max_bytes must be positive"))
	}
	for _, p := range c.Ledger.RedactPatterns {
		if _, perr := regexp.Compile(p); perr != nil {
			err = multierr.Append(err, fmt.Errorf("ledger.redact_patterns: %w", perr))
		}
	}
	if c.Ledger.Key != "" {
		if _, kerr := c.LedgerKey(); kerr != nil {
			err = multierr.Append(err, kerr)
		}
	}
	return err
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: %w", err)
	}
	return lvl, nil
}

// LedgerKey decodes Ledger.Key. It returns nil when no key is set.
func (c *Config) LedgerKey() ([]byte, error) {
	if c.Ledger.Key == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(c.Ledger.Key)
	if err != nil {
		return nil, fmt.Errorf("ledger.key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("ledger.key must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}
