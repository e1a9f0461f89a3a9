// Package infra holds application-level wiring: configuration, logging
// and the startup banner.
package infra

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/boryxf/ag-kernel/internal/engine"
)

// Config is the full application configuration. Loaded from YAML, then
// selected values are overridden from the environment.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Engine engine.Config `yaml:"engine"`

	Storage struct {
		Path   string `yaml:"path"`   // sqlite database file
		Stream string `yaml:"stream"` // tick stream name
	} `yaml:"storage"`

	Feed struct {
		WSURL  string `yaml:"ws_url"`
		Symbol string `yaml:"symbol"`
	} `yaml:"feed"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file. Environment
// variables override file values so deployments never need to edit YAML.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the application-level fields and delegates engine
// validation to the engine package.
func (c *Config) Validate() error {
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}
	if c.Storage.Stream == "" {
		return fmt.Errorf("storage.stream is required")
	}
	if c.Feed.WSURL != "" &&
		!strings.HasPrefix(c.Feed.WSURL, "ws://") && !strings.HasPrefix(c.Feed.WSURL, "wss://") {
		return fmt.Errorf("invalid feed WS URL: %s", c.Feed.WSURL)
	}
	return c.Engine.Validate()
}

// overrideWithEnv applies environment overrides. Environment beats file.
func overrideWithEnv(cfg *Config) {
	if v := os.Getenv("AGK_DB_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("AGK_STREAM"); v != "" {
		cfg.Storage.Stream = v
	}
	if v := os.Getenv("AGK_FEED_URL"); v != "" {
		cfg.Feed.WSURL = v
	}
	if v := os.Getenv("AGK_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("AGK_ARITHMETIC"); v != "" {
		cfg.Engine.Arithmetic = engine.Arithmetic(v)
	}
}
