// Portcullis - Access Control Gateway for Self-Hosted Web Applications
// Copyright 2026 Portcullis Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/portcullisproject/portcullis

package gate

import (
	"context"
	"errors"
	"net/http"

	"github.com/portcullisproject/portcullis/internal/apikey"
	"github.com/portcullisproject/portcullis/internal/audit"
	"github.com/portcullisproject/portcullis/internal/csrf"
	"github.com/portcullisproject/portcullis/internal/logging"
	"github.com/portcullisproject/portcullis/internal/metrics"
	"github.com/portcullisproject/portcullis/internal/models"
	"github.com/portcullisproject/portcullis/internal/netclass"
	"github.com/portcullisproject/portcullis/internal/routematch"
)

// Classification labels for decisions and audit events.
const (
	ClassInternal = "internal"
	ClassExternal = "external"
	ClassSession  = "session"
)

// RoleSource resolves role definitions. Implemented by directory.Roles.
type RoleSource interface {
	Role(ctx context.Context, name string) models.Role
}

// SettingsSource resolves site-wide settings.
// Implemented by directory.Settings.
type SettingsSource interface {
	Get(ctx context.Context) models.SiteSettings
}

// KeyValidator validates presented API keys.
// Implemented by apikey.Validator.
type KeyValidator interface {
	Validate(ctx context.Context, presented, requiredPermission string) (*models.APIKey, error)
}

// WhitelistChecker checks external requests against the IP/domain whitelist.
// Implemented by netclass.Classifier.
type WhitelistChecker interface {
	CheckWhitelist(ctx context.Context, r *http.Request) error
}

// Config holds the orchestrator's route and cookie settings.
type Config struct {
	// LoginPath is where unauthenticated browser navigation is sent.
	LoginPath string

	// AdminPath is where authenticated users land when the frontend is
	// disabled.
	AdminPath string

	// UserHome is the redirect target for the "user" role when it requests
	// a route outside its allowance.
	UserHome string

	// DefaultHome is the redirect target for every other restricted role.
	DefaultHome string

	// CSRFCookieName is the substring used to locate the CSRF cookie.
	CSRFCookieName string

	// ExemptPrefixes are path prefixes that stay reachable when the
	// frontend is disabled.
	ExemptPrefixes []string
}

// DefaultGateConfig returns the stock route layout.
func DefaultGateConfig() Config {
	return Config{
		LoginPath:      "/auth/login",
		AdminPath:      "/admin",
		UserHome:       "/",
		DefaultHome:    "/dashboard",
		CSRFCookieName: "csrf",
		ExemptPrefixes: []string{"/auth", "/api", "/admin", "/static", "/assets"},
	}
}

// Deps bundles the orchestrator's collaborators.
type Deps struct {
	Gate      *AuthGate
	Roles     RoleSource
	Settings  SettingsSource
	Keys      KeyValidator
	CSRF      *csrf.Verifier
	Whitelist WhitelistChecker
	Audit     *audit.Logger
}

// PublicOptions are the per-endpoint flags for Public.
type PublicOptions struct {
	// RequireAPIKey demands a valid API key from external callers.
	RequireAPIKey bool

	// RequiredPermission is the permission scope the key must carry.
	// Empty means any usable key suffices.
	RequiredPermission string

	// SkipCSRFForAPIKey waives the CSRF check once a valid key is
	// presented. Machine clients have no cookie jar to double-submit from.
	SkipCSRFForAPIKey bool

	// RequireIPWhitelist additionally checks external callers against the
	// IP/domain whitelist.
	RequireIPWhitelist bool

	// LogAccess records an audit event for every decision on the endpoint.
	LogAccess bool
}

// Orchestrator builds the gateway's access decision middlewares.
type Orchestrator struct {
	deps Deps
	cfg  Config
}

// NewOrchestrator wires an orchestrator. Zero-valued Config fields fall back
// to DefaultGateConfig.
func NewOrchestrator(deps Deps, cfg Config) *Orchestrator {
	def := DefaultGateConfig()
	if cfg.LoginPath == "" {
		cfg.LoginPath = def.LoginPath
	}
	if cfg.AdminPath == "" {
		cfg.AdminPath = def.AdminPath
	}
	if cfg.UserHome == "" {
		cfg.UserHome = def.UserHome
	}
	if cfg.DefaultHome == "" {
		cfg.DefaultHome = def.DefaultHome
	}
	if cfg.CSRFCookieName == "" {
		cfg.CSRFCookieName = def.CSRFCookieName
	}
	if cfg.ExemptPrefixes == nil {
		cfg.ExemptPrefixes = def.ExemptPrefixes
	}
	return &Orchestrator{deps: deps, cfg: cfg}
}

// Protect guards session-backed routes. Requests without a valid session are
// redirected to the login page with the original destination as callbackUrl.
// Admins pass unconditionally; other roles must match one of their allowed
// route patterns or are redirected to their role's home.
func (o *Orchestrator) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := o.deps.Gate.RequireSession(r)
		if err != nil {
			o.deny(r, metrics.OutcomeRedirect, "no_session", ClassSession, "", "", true)
			redirectToLogin(w, r, o.cfg.LoginPath)
			return
		}

		r = r.WithContext(withIdentity(r.Context(), identity))

		role := o.deps.Roles.Role(r.Context(), identity.Role)
		if identity.IsAdmin() || role.Unrestricted() {
			o.allow(r, "admin_bypass", ClassSession, identity.Email, "", false)
			next.ServeHTTP(w, r)
			return
		}

		if !routematch.MatchesAny(r.URL.Path, role.AllowedRoutes) {
			o.deny(r, metrics.OutcomeRedirect, "route_not_allowed", ClassSession, identity.Email, "", true)
			http.Redirect(w, r, o.roleHome(role), http.StatusFound)
			return
		}

		o.allow(r, "route_allowed", ClassSession, identity.Email, "", false)
		next.ServeHTTP(w, r)
	})
}

// Public guards public-mutating endpoints according to opts. Internal
// requests bypass every check. External requests pass, in order: API key
// validation (when required), CSRF verification (unless waived by a valid
// key), and the whitelist check (when required).
func (o *Orchestrator) Public(opts PublicOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if netclass.IsInternal(r) {
				o.allow(r, "internal_bypass", ClassInternal, "", "", opts.LogAccess)
				next.ServeHTTP(w, r)
				return
			}

			var hasValidKey bool
			var keyPrefix string
			if opts.RequireAPIKey {
				presented := apikey.FromRequest(r)
				key, err := o.deps.Keys.Validate(r.Context(), presented, opts.RequiredPermission)
				if err != nil {
					status, reason := keyFailure(err)
					o.deny(r, metrics.OutcomeDeny, reason, ClassExternal, "", models.KeyPrefix(presented), true)
					respondError(w, status, reason, "api key rejected")
					return
				}
				hasValidKey = true
				keyPrefix = key.Prefix()
			}

			if !(hasValidKey && opts.SkipCSRFForAPIKey) {
				header := csrf.TokenFromRequest(r)
				cookie := csrf.CookieFromRequest(r, o.cfg.CSRFCookieName)
				if err := o.deps.CSRF.Verify(header, cookie); err != nil {
					o.deny(r, metrics.OutcomeDeny, "csrf_failed", ClassExternal, "", keyPrefix, true)
					respondError(w, http.StatusForbidden, "csrf_failed", "csrf verification failed")
					return
				}
			}

			if opts.RequireIPWhitelist {
				if err := o.deps.Whitelist.CheckWhitelist(r.Context(), r); err != nil {
					o.deny(r, metrics.OutcomeDeny, "whitelist_denied", ClassExternal, "", keyPrefix, true)
					respondError(w, http.StatusForbidden, "whitelist_denied", "origin not permitted")
					return
				}
			}

			o.allow(r, "external_checks_passed", ClassExternal, "", keyPrefix, opts.LogAccess)
			next.ServeHTTP(w, r)
		})
	}
}

// FrontendGuard enforces the site-wide frontend switch. When the frontend is
// disabled, only exempt prefixes stay reachable: authenticated users are sent
// to the admin area, everyone else to login.
func (o *Orchestrator) FrontendGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if o.deps.Settings.Get(r.Context()).EnableFrontend {
			next.ServeHTTP(w, r)
			return
		}

		for _, prefix := range o.cfg.ExemptPrefixes {
			if routematch.IsUnderRoute(r.URL.Path, prefix) {
				next.ServeHTTP(w, r)
				return
			}
		}

		if _, err := o.deps.Gate.RequireSession(r); err == nil {
			o.deny(r, metrics.OutcomeRedirect, "frontend_disabled", ClassSession, "", "", true)
			http.Redirect(w, r, o.cfg.AdminPath, http.StatusFound)
			return
		}
		o.deny(r, metrics.OutcomeRedirect, "frontend_disabled", ClassSession, "", "", true)
		redirectToLogin(w, r, o.cfg.LoginPath)
	})
}

func (o *Orchestrator) roleHome(role models.Role) string {
	if role.Name == "user" {
		return o.cfg.UserHome
	}
	return o.cfg.DefaultHome
}

// keyFailure maps a key validation error to a response status and reason.
// A permission shortfall on an otherwise valid key is a 403; everything else
// is a 401.
func keyFailure(err error) (int, string) {
	switch {
	case errors.Is(err, apikey.ErrMissing):
		return http.StatusUnauthorized, "api_key_missing"
	case errors.Is(err, apikey.ErrInsufficientPermission):
		return http.StatusForbidden, "api_key_insufficient_permission"
	default:
		return http.StatusUnauthorized, "api_key_invalid"
	}
}

func (o *Orchestrator) allow(r *http.Request, reason, classification, identity, keyPrefix string, logAccess bool) {
	metrics.RecordDecision(metrics.OutcomeAllow, reason)
	logger := logging.Ctx(r.Context())
	logger.Debug().
		Str("path", r.URL.Path).
		Str("classification", classification).
		Str("reason", reason).
		Msg("access allowed")
	if logAccess {
		o.record(r, metrics.OutcomeAllow, reason, classification, identity, keyPrefix)
	}
}

func (o *Orchestrator) deny(r *http.Request, outcome, reason, classification, identity, keyPrefix string, logAccess bool) {
	metrics.RecordDecision(outcome, reason)
	logger := logging.Ctx(r.Context())
	logger.Warn().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("classification", classification).
		Str("reason", reason).
		Msg("access rejected")
	if logAccess {
		o.record(r, outcome, reason, classification, identity, keyPrefix)
	}
}

func (o *Orchestrator) record(r *http.Request, outcome, reason, classification, identity, keyPrefix string) {
	if o.deps.Audit == nil {
		return
	}
	o.deps.Audit.Record(audit.Event{
		RequestID:      logging.RequestIDFromContext(r.Context()),
		Method:         r.Method,
		Path:           r.URL.Path,
		Outcome:        outcome,
		Reason:         reason,
		Classification: classification,
		Identity:       identity,
		KeyPrefix:      keyPrefix,
		ClientAddr:     netclass.ClientAddress(r),
	})
}
