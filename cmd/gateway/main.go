// Portcullis - Access Control Gateway for Self-Hosted Web Applications
// Copyright 2026 Portcullis Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/portcullisproject/portcullis

// Command gateway runs the Portcullis access control gateway.
//
// The gateway sits in front of a self-hosted web application and enforces
// session, role, CSRF, API key, and origin-whitelist policy per request.
// Policy data (roles, site settings, API keys, whitelist entries) is read
// from the backing collection service and cached with a TTL.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/portcullisproject/portcullis/internal/apikey"
	"github.com/portcullisproject/portcullis/internal/audit"
	"github.com/portcullisproject/portcullis/internal/config"
	"github.com/portcullisproject/portcullis/internal/csrf"
	"github.com/portcullisproject/portcullis/internal/directory"
	"github.com/portcullisproject/portcullis/internal/gate"
	"github.com/portcullisproject/portcullis/internal/logging"
	"github.com/portcullisproject/portcullis/internal/middleware"
	"github.com/portcullisproject/portcullis/internal/netclass"
	"github.com/portcullisproject/portcullis/internal/store"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("gateway exited")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("store_url", cfg.Store.BaseURL).
		Int("port", cfg.Server.Port).
		Msg("starting portcullis gateway")

	client := store.New(store.Config{
		BaseURL:                 cfg.Store.BaseURL,
		Timeout:                 cfg.Store.Timeout,
		BreakerFailureThreshold: cfg.Store.BreakerFailureThreshold,
		BreakerOpenDuration:     cfg.Store.BreakerOpenDuration,
	})

	roles := directory.NewRoles(client, cfg.Cache.RoleTTL)
	settings := directory.NewSettings(client, cfg.Cache.SettingsTTL)
	keys := directory.NewKeys(client, cfg.Cache.KeyTTL)
	whitelist := directory.NewWhitelist(client, cfg.Cache.WhitelistTTL)

	verifier, err := gate.NewJWTVerifier(cfg.Security.SessionSecret, cfg.Security.SessionCookieName)
	if err != nil {
		return err
	}

	auditLog := audit.NewLogger(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
	})
	defer auditLog.Close()

	orch := gate.NewOrchestrator(gate.Deps{
		Gate:      gate.NewAuthGate(verifier),
		Roles:     roles,
		Settings:  settings,
		Keys:      apikey.NewValidator(keys),
		CSRF:      csrf.NewVerifier(cfg.Security.CSRFSecret),
		Whitelist: netclass.NewClassifier(whitelist),
		Audit:     auditLog,
	}, gate.Config{
		LoginPath:      cfg.Gateway.LoginPath,
		AdminPath:      cfg.Gateway.AdminPath,
		UserHome:       cfg.Gateway.UserHome,
		DefaultHome:    cfg.Gateway.DefaultHome,
		CSRFCookieName: cfg.Security.CSRFCookieName,
		ExemptPrefixes: cfg.Gateway.ExemptPrefixes,
	})

	router := buildRouter(cfg, orch, refreshers{
		"roles":         roles.Refresh,
		"site_settings": settings.Refresh,
		"api_keys":      keys.Refresh,
		"whitelist":     whitelist.Refresh,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// refreshers maps collection names to directory cache refresh functions.
type refreshers map[string]func()

func buildRouter(cfg *config.Config, orch *gate.Orchestrator, refresh refreshers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Instrument)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Api-Key", "X-CSRF-Token", "CSRF-Token", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Protected application surface. Everything not exempted goes through
	// the frontend switch, then session and role checks.
	r.Group(func(r chi.Router) {
		r.Use(orch.FrontendGuard)
		r.Use(orch.Protect)
		r.Handle("/*", upstreamPlaceholder())
	})

	// Public form-submission surface: CSRF for browsers, whitelist for the
	// rest. No session required.
	r.Group(func(r chi.Router) {
		r.Use(orch.Public(gate.PublicOptions{
			RequireIPWhitelist: true,
			LogAccess:          true,
		}))
		r.Post("/api/public/submit", upstreamPlaceholderFunc())
	})

	// Machine API surface: API key required, CSRF waived for keyed calls.
	r.Group(func(r chi.Router) {
		r.Use(orch.Public(gate.PublicOptions{
			RequireAPIKey:      true,
			RequiredPermission: "write",
			SkipCSRFForAPIKey:  true,
			LogAccess:          true,
		}))
		r.Post("/api/records", upstreamPlaceholderFunc())
		r.Put("/api/records/{id}", upstreamPlaceholderFunc())
	})

	// Admin cache management: session plus admin role enforced by Protect;
	// non-admin roles have no allowance under the admin path.
	r.Group(func(r chi.Router) {
		r.Use(orch.Protect)
		r.Post("/admin/cache/{collection}/refresh", refreshHandler(refresh))
	})

	return r
}

// refreshHandler invalidates one directory cache so the next request
// refetches from the store.
func refreshHandler(refresh refreshers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		collection := chi.URLParam(r, "collection")
		fn, ok := refresh[collection]
		if !ok {
			http.Error(w, "unknown collection", http.StatusNotFound)
			return
		}
		fn()
		logger := logging.Ctx(r.Context())
		logger.Info().Str("collection", collection).Msg("cache refreshed")
		w.WriteHeader(http.StatusAccepted)
	}
}

// upstreamPlaceholder is the demo upstream: deployments replace it with
// their application handler or a reverse proxy.
func upstreamPlaceholder() http.Handler {
	return http.HandlerFunc(upstreamPlaceholderFunc())
}

func upstreamPlaceholderFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("portcullis: request allowed"))
	}
}
