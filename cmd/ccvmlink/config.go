package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	ccvmlink "github.com/wippyai/ccvm-link"
)

// config mirrors the optional YAML file. Command-line flags override it.
type config struct {
	InvalidExport *string `yaml:"invalid_export"`
	LogLevel      string  `yaml:"log_level"`
	Color         string  `yaml:"color"`
	Strict        bool    `yaml:"strict"`
	ShowRemoved   bool    `yaml:"show_removed"`
}

func defaultConfig() config {
	return config{
		LogLevel: "warn",
		Color:    "auto",
	}
}

// loadConfig reads path over the defaults. An empty path returns the defaults.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	switch cfg.Color {
	case "auto", "always", "never":
	default:
		return cfg, fmt.Errorf("config %s: color must be auto, always or never, got %q", path, cfg.Color)
	}
	return cfg, nil
}

// options converts the configuration into pipeline options.
func (c config) options() ccvmlink.Options {
	opts := ccvmlink.DefaultOptions()
	if c.InvalidExport != nil {
		opts.Linker.InvalidExportName = *c.InvalidExport
	}
	if c.Strict {
		opts = opts.Strict()
	}
	return opts
}
