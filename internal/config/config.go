// Portcullis - Access Control Gateway for Self-Hosted Web Applications
// Copyright 2026 Portcullis Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/portcullisproject/portcullis

// Package config loads gateway configuration from layered sources:
// built-in defaults, an optional YAML file, and PORTCULLIS_-prefixed
// environment variables, in ascending precedence.
package config

import (
	"fmt"
	"time"

	"github.com/portcullisproject/portcullis/internal/validation"
)

// Config is the root gateway configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Store    StoreConfig    `koanf:"store"`
	Cache    CacheConfig    `koanf:"cache"`
	Security SecurityConfig `koanf:"security"`
	Gateway  GatewayConfig  `koanf:"gateway"`
	Audit    AuditConfig    `koanf:"audit"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// StoreConfig holds the backing collection service settings.
type StoreConfig struct {
	BaseURL                 string        `koanf:"base_url" validate:"required,url"`
	Timeout                 time.Duration `koanf:"timeout"`
	BreakerFailureThreshold uint32        `koanf:"breaker_failure_threshold"`
	BreakerOpenDuration     time.Duration `koanf:"breaker_open_duration"`
}

// CacheConfig holds per-directory cache TTLs.
type CacheConfig struct {
	RoleTTL      time.Duration `koanf:"role_ttl"`
	SettingsTTL  time.Duration `koanf:"settings_ttl"`
	KeyTTL       time.Duration `koanf:"key_ttl"`
	WhitelistTTL time.Duration `koanf:"whitelist_ttl"`
}

// SecurityConfig holds token and cookie settings.
type SecurityConfig struct {
	// SessionSecret signs and verifies session JWTs. The gateway refuses
	// to start without one.
	SessionSecret string `koanf:"session_secret" validate:"required,min=16"`

	// SessionCookieName is the exact session cookie name.
	SessionCookieName string `koanf:"session_cookie_name"`

	// CSRFCookieName is a substring matched against cookie names; the
	// issuing system scopes CSRF cookie names per deployment.
	CSRFCookieName string `koanf:"csrf_cookie_name"`

	// CSRFSecret enables HMAC verification of the CSRF cookie's signature
	// half. Empty keeps the legacy presence-only check.
	CSRFSecret string `koanf:"csrf_secret"`
}

// GatewayConfig holds the route layout.
type GatewayConfig struct {
	LoginPath      string   `koanf:"login_path"`
	AdminPath      string   `koanf:"admin_path"`
	UserHome       string   `koanf:"user_home"`
	DefaultHome    string   `koanf:"default_home"`
	ExemptPrefixes []string `koanf:"exempt_prefixes"`
}

// AuditConfig holds access audit settings.
type AuditConfig struct {
	Enabled    bool `koanf:"enabled"`
	BufferSize int  `koanf:"buffer_size"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all defaults applied. Defaults load
// first and are overridden by the config file and environment variables.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8470,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Store: StoreConfig{
			BaseURL:                 "http://127.0.0.1:8090",
			Timeout:                 10 * time.Second,
			BreakerFailureThreshold: 5,
			BreakerOpenDuration:     30 * time.Second,
		},
		Cache: CacheConfig{
			RoleTTL:      5 * time.Minute,
			SettingsTTL:  5 * time.Minute,
			KeyTTL:       5 * time.Minute,
			WhitelistTTL: 5 * time.Minute,
		},
		Security: SecurityConfig{
			SessionSecret:     "",
			SessionCookieName: "pc_session",
			CSRFCookieName:    "csrf",
			CSRFSecret:        "",
		},
		Gateway: GatewayConfig{
			LoginPath:      "/auth/login",
			AdminPath:      "/admin",
			UserHome:       "/",
			DefaultHome:    "/dashboard",
			ExemptPrefixes: []string{"/auth", "/api", "/admin", "/static", "/assets"},
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 1000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Validate checks the configuration for startup-blocking problems.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}
	for _, ttl := range []time.Duration{c.Cache.RoleTTL, c.Cache.SettingsTTL, c.Cache.KeyTTL, c.Cache.WhitelistTTL} {
		if ttl < 0 {
			return fmt.Errorf("config: cache TTLs must not be negative")
		}
	}
	return nil
}
