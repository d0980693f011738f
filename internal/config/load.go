// Portcullis - Access Control Gateway for Self-Hosted Web Applications
// Copyright 2026 Portcullis Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/portcullisproject/portcullis

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/portcullis/config.yaml",
	"/etc/portcullis/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// envPrefix namespaces the gateway's environment variables.
const envPrefix = "PORTCULLIS_"

// Load builds the configuration from layered sources:
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. PORTCULLIS_-prefixed environment variables (highest priority)
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: loading defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: loading file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("config: loading environment: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshaling: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file path, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envMappings maps PORTCULLIS_-stripped variable names to config paths.
// Unmapped variables are ignored so unrelated environment entries never
// pollute the configuration.
var envMappings = map[string]string{
	"http_host":        "server.host",
	"http_port":        "server.port",
	"http_timeout":     "server.timeout",
	"shutdown_timeout": "server.shutdown_timeout",
	"cors_origins":     "server.cors_origins",

	"store_url":               "store.base_url",
	"store_timeout":           "store.timeout",
	"store_breaker_threshold": "store.breaker_failure_threshold",
	"store_breaker_open":      "store.breaker_open_duration",

	"role_cache_ttl":      "cache.role_ttl",
	"settings_cache_ttl":  "cache.settings_ttl",
	"key_cache_ttl":       "cache.key_ttl",
	"whitelist_cache_ttl": "cache.whitelist_ttl",

	"session_secret":      "security.session_secret",
	"session_cookie_name": "security.session_cookie_name",
	"csrf_cookie_name":    "security.csrf_cookie_name",
	"csrf_secret":         "security.csrf_secret",

	"login_path":      "gateway.login_path",
	"admin_path":      "gateway.admin_path",
	"user_home":       "gateway.user_home",
	"default_home":    "gateway.default_home",
	"exempt_prefixes": "gateway.exempt_prefixes",

	"audit_enabled":     "audit.enabled",
	"audit_buffer_size": "audit.buffer_size",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}

// sliceConfigPaths are fields that accept comma-separated values from the
// environment.
var sliceConfigPaths = []string{
	"server.cors_origins",
	"gateway.exempt_prefixes",
}

// processSliceFields splits comma-separated env values into slices for the
// known slice fields. YAML-sourced values arrive as slices already.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("config: setting %s: %w", path, err)
			}
		}
	}
	return nil
}
