// Package config loads the YAML configuration of the hafas command line tool.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jamespfennell/hafas"
	"github.com/jamespfennell/hafas/extensions"
	"github.com/jamespfennell/hafas/extensions/db"
	"github.com/jamespfennell/hafas/products"
	"gopkg.in/yaml.v3"
)

type ProductOverride struct {
	Category  string `yaml:"category" validate:"required"`
	AdminCode string `yaml:"adminCode"`
	Product   string `yaml:"product" validate:"required"`
}

type Config struct {
	// Timezone is an IANA zone name. Empty means UTC.
	Timezone  string `yaml:"timezone" validate:"omitempty,timezone"`
	Extension string `yaml:"extension" validate:"omitempty,oneof=none db"`
	LogLevel  string `yaml:"logLevel" validate:"omitempty,oneof=debug info warn error"`

	// ProductTablePath is the path of a CSV file replacing the default product table.
	ProductTablePath string            `yaml:"productTable"`
	Products         []ProductOverride `yaml:"products" validate:"dive"`
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	for i, p := range cfg.Products {
		if _, ok := products.Parse(p.Product); !ok {
			return nil, fmt.Errorf("invalid config: products[%d]: unknown product %q", i, p.Product)
		}
	}
	return &cfg, nil
}

// Level returns the configured log level, defaulting to info.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

// ProductTable builds the product table: the CSV table if one is configured, else the
// default table, with the overrides applied on top.
func (c *Config) ProductTable() (*products.Table, error) {
	table := products.DefaultTable()
	if c.ProductTablePath != "" {
		f, err := os.Open(c.ProductTablePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open product table: %w", err)
		}
		defer f.Close()
		if table, err = products.LoadTable(c.ProductTablePath, f); err != nil {
			return nil, err
		}
	}
	for _, o := range c.Products {
		p, _ := products.Parse(o.Product)
		table.Add(o.AdminCode, o.Category, p)
	}
	return table, nil
}

// ParseTripsOptions builds decoder options from the configuration.
func (c *Config) ParseTripsOptions(logger *slog.Logger) (*hafas.ParseTripsOptions, error) {
	tz, err := c.Location()
	if err != nil {
		return nil, err
	}
	table, err := c.ProductTable()
	if err != nil {
		return nil, err
	}
	opts := &hafas.ParseTripsOptions{
		Timezone: tz,
		Logger:   logger,
	}
	switch c.Extension {
	case "db":
		opts.Extension = db.Extension(db.ExtensionOpts{Products: table})
	default:
		opts.Extension = extensions.NoExtensionImpl{Products: table}
	}
	return opts, nil
}
