// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fedeportal Contributors

// Package config loads portal configuration from defaults, an optional
// YAML file, and command-line flags, in that precedence order.
package config

import (
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Config holds the runtime configuration for the portal.
type Config struct {
	// ListenAddr is the web server listen address.
	ListenAddr string `koanf:"listen_addr"`

	// DatabaseURL is the PostgreSQL connection string. Required.
	DatabaseURL string `koanf:"database_url"`

	// ObservabilityAddr is the metrics/health listen address.
	ObservabilityAddr string `koanf:"observability_addr"`

	// CookieName is the session cookie name.
	CookieName string `koanf:"cookie_name"`

	// CookieSecure marks the session cookie Secure (HTTPS-only).
	CookieSecure bool `koanf:"cookie_secure"`

	// LogFormat is "json" or "text".
	LogFormat string `koanf:"log_format"`
}

// defaults returns the built-in configuration values.
func defaults() map[string]any {
	return map[string]any{
		"listen_addr":        ":8080",
		"database_url":       "",
		"observability_addr": "127.0.0.1:9100",
		"cookie_name":        "fedeportal_session",
		"cookie_secure":      true,
		"log_format":         "json",
	}
}

// Load builds a Config from defaults, then the YAML file at path (if path
// is non-empty), then the given flag set (if non-nil). Later layers win.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, oops.Code("CONFIG_DEFAULTS_FAILED").Wrap(err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	if flags != nil {
		// Flag names use dashes (--listen-addr); config keys use underscores.
		provider := posflag.ProviderWithValue(flags, ".", k, func(key, value string) (string, any) {
			return strings.ReplaceAll(key, "-", "_"), value
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_UNMARSHAL_FAILED").Wrap(err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for usable values.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database_url is required")
	}
	if c.ListenAddr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("listen_addr cannot be empty")
	}
	if c.CookieName == "" {
		return oops.Code("CONFIG_INVALID").Errorf("cookie_name cannot be empty")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return oops.Code("CONFIG_INVALID").
			With("log_format", c.LogFormat).
			Errorf("log_format must be json or text")
	}
	return nil
}
