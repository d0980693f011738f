// Portcullis - Access Control Gateway for Self-Hosted Web Applications
// Copyright 2026 Portcullis Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/portcullisproject/portcullis

// Package netclass classifies requests as internal or external and checks
// external requests against the IP/domain whitelist.
package netclass

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/portcullisproject/portcullis/internal/models"
)

// ErrDenied indicates an external request matched no active whitelist entry.
var ErrDenied = errors.New("netclass: origin not whitelisted")

// Source supplies the current whitelist entries.
// Implemented by directory.Whitelist.
type Source interface {
	Entries(ctx context.Context) ([]models.WhitelistEntry, error)
}

// Classifier performs internal/external classification and whitelist checks.
type Classifier struct {
	source Source
}

// NewClassifier creates a classifier backed by the given whitelist source.
func NewClassifier(source Source) *Classifier {
	return &Classifier{source: source}
}

// IsInternal reports whether the request comes from trusted internal traffic:
// the declared origin or referrer contains the request's own host, or the
// client address resolves to loopback.
//
// A request whose client address cannot be determined is treated as internal.
// This fail-open default is a deliberate trade-off inherited from the system
// this gateway fronts; do not copy it into other checks.
func IsInternal(r *http.Request) bool {
	host := r.Host
	if host != "" {
		if origin := r.Header.Get("Origin"); origin != "" && strings.Contains(origin, host) {
			return true
		}
		if referer := r.Header.Get("Referer"); referer != "" && strings.Contains(referer, host) {
			return true
		}
	}

	addr := ClientAddress(r)
	if addr == "" {
		return true
	}
	if ip := net.ParseIP(addr); ip != nil && ip.IsLoopback() {
		return true
	}
	return false
}

// CheckWhitelist allows an external request when its client address matches
// an active IP entry or its declared origin/referrer contains an active
// domain entry's value. Whitelist directory failures propagate so the check
// fails closed.
func (c *Classifier) CheckWhitelist(ctx context.Context, r *http.Request) error {
	entries, err := c.source.Entries(ctx)
	if err != nil {
		return err
	}

	addr := ClientAddress(r)
	declared := r.Header.Get("Origin") + " " + r.Header.Get("Referer")

	for _, entry := range entries {
		if !entry.Active {
			continue
		}
		switch entry.Type {
		case models.WhitelistIP:
			if addr != "" && matchIP(addr, entry.Value) {
				return nil
			}
		case models.WhitelistDomain:
			if entry.Value != "" && strings.Contains(declared, entry.Value) {
				return nil
			}
		}
	}

	return ErrDenied
}

// ClientAddress resolves the client address: the first entry of a
// comma-separated X-Forwarded-For list, then X-Real-Ip, then the connection's
// remote address.
func ClientAddress(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if real := r.Header.Get("X-Real-Ip"); real != "" {
		return strings.TrimSpace(real)
	}
	if r.RemoteAddr == "" {
		return ""
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// matchIP matches an address against a whitelist IP value: an exact match,
// or a coarse prefix match for "/N" notation, comparing the first N/8 whole
// octets. "/12" therefore behaves like "/8"; operators store octet-aligned
// prefixes.
func matchIP(addr, value string) bool {
	base, bitsStr, hasPrefix := strings.Cut(value, "/")
	if !hasPrefix {
		return addr == value
	}

	bits, err := strconv.Atoi(bitsStr)
	if err != nil || bits <= 0 {
		return false
	}
	octets := bits / 8
	if octets == 0 {
		return false
	}

	addrParts := strings.Split(addr, ".")
	baseParts := strings.Split(base, ".")
	if len(addrParts) < octets || len(baseParts) < octets {
		return false
	}
	for i := 0; i < octets; i++ {
		if addrParts[i] != baseParts[i] {
			return false
		}
	}
	return true
}
