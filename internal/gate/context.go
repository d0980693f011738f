// Portcullis - Access Control Gateway for Self-Hosted Web Applications
// Copyright 2026 Portcullis Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/portcullisproject/portcullis

package gate

import (
	"context"

	"github.com/portcullisproject/portcullis/internal/models"
)

type contextKey string

const identityKey contextKey = "session_identity"

// withIdentity returns a context carrying the verified session identity.
func withIdentity(ctx context.Context, identity *models.SessionIdentity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext returns the verified session identity set by Protect,
// or nil when the request carried no session.
func IdentityFromContext(ctx context.Context) *models.SessionIdentity {
	if identity, ok := ctx.Value(identityKey).(*models.SessionIdentity); ok {
		return identity
	}
	return nil
}
