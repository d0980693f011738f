// Portcullis - Access Control Gateway for Self-Hosted Web Applications
// Copyright 2026 Portcullis Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/portcullisproject/portcullis

// Package directory provides cached, validated views of the collections the
// gateway reads: roles, site settings, API keys, and whitelist entries.
//
// Each directory wraps a TTL singleflight cache around a full-collection
// read. Records failing validation are skipped with a warning rather than
// propagated into access decisions. Fallback behavior differs by directory:
//
//   - Roles falls back to a hard-coded minimal mapping (admin unrestricted,
//     user "/") when the store is unreachable and nothing is cached.
//   - Settings falls back to compile-time defaults.
//   - Keys and Whitelist propagate the failure: API key and whitelist checks
//     fail closed because they have no safe default.
//
// Every directory exposes Refresh, the force-refresh hook invoked when an
// operator edits records through the admin surface.
package directory
