// Portcullis - Access Control Gateway for Self-Hosted Web Applications
// Copyright 2026 Portcullis Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/portcullisproject/portcullis

package store

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/portcullisproject/portcullis/internal/models"
)

func TestList_DecodesCollection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/roles/records" {
			t.Errorf("path = %q, want /collections/roles/records", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		//nolint:errcheck // test response
		w.Write([]byte(`[
			{"name":"admin","isAdmin":true},
			{"name":"user","allowedRoutes":["/","/orders/*"]}
		]`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})

	var roles []models.Role
	if err := c.List(context.Background(), "roles", &roles); err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if len(roles) != 2 {
		t.Fatalf("len(roles) = %d, want 2", len(roles))
	}
	if !roles[0].IsAdmin || roles[0].Name != "admin" {
		t.Errorf("roles[0] = %+v, want admin record", roles[0])
	}
	if len(roles[1].AllowedRoutes) != 2 {
		t.Errorf("roles[1].AllowedRoutes = %v, want 2 patterns", roles[1].AllowedRoutes)
	}
}

func TestList_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})

	var out []models.Role
	err := c.List(context.Background(), "roles", &out)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("List() error = %v, want ErrUnavailable", err)
	}
}

func TestList_CircuitBreakerOpens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, BreakerFailureThreshold: 2})

	var out []models.Role
	for i := 0; i < 2; i++ {
		if err := c.List(context.Background(), "roles", &out); err == nil {
			t.Fatal("List() expected error, got nil")
		}
	}

	// The breaker is now open: the next call fails without reaching the server.
	srv.Close()
	err := c.List(context.Background(), "roles", &out)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("List() with open circuit: error = %v, want ErrUnavailable", err)
	}
}

func TestList_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		//nolint:errcheck // test response
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})

	var out []models.Role
	if err := c.List(context.Background(), "roles", &out); err == nil {
		t.Error("List() with malformed body: expected error, got nil")
	}
}
