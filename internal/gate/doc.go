// Portcullis - Access Control Gateway for Self-Hosted Web Applications
// Copyright 2026 Portcullis Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/portcullisproject/portcullis

// Package gate composes session verification, role route checks, CSRF
// verification, API key validation, and IP/domain classification into the
// final per-request access decision.
//
// Three middlewares cover the gateway's surfaces:
//
//   - Protect guards session-backed routes: verify the session, apply the
//     admin bypass, then match the path against the role's allowed routes.
//   - Public guards public-mutating endpoints: internal traffic bypasses all
//     checks; external traffic passes API key and/or CSRF verification and
//     optionally the IP/domain whitelist, per the endpoint's registration
//     flags.
//   - FrontendGuard enforces the site-wide enable_frontend switch ahead of
//     per-route authorization.
//
// Backing-store failures never surface from here as user-visible errors;
// only genuine policy violations produce a 401, 403, or redirect.
package gate
