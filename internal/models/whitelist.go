// Portcullis - Access Control Gateway for Self-Hosted Web Applications
// Copyright 2026 Portcullis Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/portcullisproject/portcullis

package models

// WhitelistEntryType distinguishes IP entries from domain entries.
type WhitelistEntryType string

const (
	WhitelistIP     WhitelistEntryType = "ip"
	WhitelistDomain WhitelistEntryType = "domain"
)

// WhitelistEntry allows an external caller through the IP/domain check.
//
// IP values are either a literal address ("203.0.113.7") or a coarse
// network-prefix notation ("203.0.113.0/24") truncated to whole octets.
// Domain values are substring-matched against the request's declared
// origin or referrer.
type WhitelistEntry struct {
	Type   WhitelistEntryType `json:"type" validate:"required,oneof=ip domain"`
	Value  string             `json:"value" validate:"required"`
	Active bool               `json:"active"`
}
