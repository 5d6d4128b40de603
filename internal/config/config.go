package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultRouteServiceURL = "http://localhost:3000"
	DefaultTimeout         = 10 * time.Second
	DefaultMaxRetries      = 2
	DefaultListen          = ":8080"
)

type RouteServiceConfig struct {
	BaseURL    string        `yaml:"base_url"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries uint64        `yaml:"max_retries"`
}

type ServerConfig struct {
	Listen string `yaml:"listen"`
	Env    string `yaml:"env"`
}

type Config struct {
	RouteService RouteServiceConfig `yaml:"route_service"`
	StationsFile string             `yaml:"stations_file"` // empty uses the embedded directory
	TrainTypes   []string           `yaml:"train_types"`
	Notices      []string           `yaml:"notices"`
	Server       ServerConfig       `yaml:"server"`
}

// Default returns a config pointing at a Route Service on localhost.
func Default() *Config {
	cfg := &Config{RouteService: RouteServiceConfig{MaxRetries: DefaultMaxRetries}}
	cfg.applyDefaults()
	return cfg
}

// Load reads the YAML config at path. An empty path yields Default().
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// max_retries: 0 is meaningful, so seed the default before unmarshalling
	cfg := Config{RouteService: RouteServiceConfig{MaxRetries: DefaultMaxRetries}}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.RouteService.BaseURL == "" {
		c.RouteService.BaseURL = DefaultRouteServiceURL
	}
	if c.RouteService.Timeout == 0 {
		c.RouteService.Timeout = DefaultTimeout
	}
	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListen
	}
	if c.Server.Env == "" {
		c.Server.Env = "development"
	}
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.RouteService.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("route_service: invalid base_url %q", c.RouteService.BaseURL)
	}
	if c.RouteService.Timeout < 0 {
		return fmt.Errorf("route_service: timeout must be positive")
	}

	if err := validateCatalog(c.TrainTypes); err != nil {
		return fmt.Errorf("train_types: %w", err)
	}
	if err := validateCatalog(c.Notices); err != nil {
		return fmt.Errorf("notices: %w", err)
	}

	return nil
}

func validateCatalog(entries []string) error {
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e) == "" {
			return fmt.Errorf("blank entry")
		}
		if seen[e] {
			return fmt.Errorf("duplicate entry %q", e)
		}
		seen[e] = true
	}
	return nil
}
