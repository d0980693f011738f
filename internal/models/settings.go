// Portcullis - Access Control Gateway for Self-Hosted Web Applications
// Copyright 2026 Portcullis Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/portcullisproject/portcullis

package models

// SiteSettings is the singleton site-wide settings record.
type SiteSettings struct {
	// EnableFrontend controls whether the public site is reachable.
	// When false, the gateway redirects all non-exempt traffic.
	EnableFrontend bool `json:"enableFrontend"`

	// AllowRegistration controls whether new account signup is open.
	AllowRegistration bool `json:"allowRegistration"`
}

// DefaultSiteSettings returns the settings used when no record exists or the
// backing store cannot be reached.
func DefaultSiteSettings() SiteSettings {
	return SiteSettings{
		EnableFrontend:    true,
		AllowRegistration: true,
	}
}
