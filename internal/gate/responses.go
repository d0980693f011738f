// Portcullis - Access Control Gateway for Self-Hosted Web Applications
// Copyright 2026 Portcullis Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/portcullisproject/portcullis

package gate

import (
	"net/http"
	"net/url"

	"github.com/goccy/go-json"

	"github.com/portcullisproject/portcullis/internal/logging"
)

// errorBody is the JSON error payload for machine-to-machine rejections.
type errorBody struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// respondError writes a JSON error body with the given status.
func respondError(w http.ResponseWriter, status int, code, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorBody{Error: code, Description: description}); err != nil {
		logging.Error().Err(err).Msg("failed to encode error response")
	}
}

// redirectToLogin sends browser navigation to the login page, carrying the
// original destination as a callback parameter.
func redirectToLogin(w http.ResponseWriter, r *http.Request, loginPath string) {
	target := loginPath + "?" + url.Values{"callbackUrl": {r.URL.RequestURI()}}.Encode()
	http.Redirect(w, r, target, http.StatusFound)
}
