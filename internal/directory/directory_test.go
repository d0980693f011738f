// Portcullis - Access Control Gateway for Self-Hosted Web Applications
// Copyright 2026 Portcullis Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/portcullisproject/portcullis

package directory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/portcullisproject/portcullis/internal/models"
)

// fakeReader serves canned JSON per collection and counts reads.
type fakeReader struct {
	collections map[string]string
	err         error
	calls       int
}

func (f *fakeReader) List(ctx context.Context, collection string, out interface{}) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	body, ok := f.collections[collection]
	if !ok {
		return errors.New("no such collection")
	}
	return json.Unmarshal([]byte(body), out)
}

func TestRoles_LookupIsCaseInsensitive(t *testing.T) {
	reader := &fakeReader{collections: map[string]string{
		"roles": `[{"name":"Editor","allowedRoutes":["/reports/*"]}]`,
	}}
	d := NewRoles(reader, time.Minute)

	for _, name := range []string{"editor", "Editor", "EDITOR"} {
		role := d.Role(context.Background(), name)
		if len(role.AllowedRoutes) != 1 {
			t.Errorf("Role(%q).AllowedRoutes = %v, want 1 pattern", name, role.AllowedRoutes)
		}
	}
	if reader.calls != 1 {
		t.Errorf("reader calls = %d, want 1 (cached)", reader.calls)
	}
}

func TestRoles_UnknownRoleHasNoRoutes(t *testing.T) {
	reader := &fakeReader{collections: map[string]string{"roles": `[]`}}
	d := NewRoles(reader, time.Minute)

	role := d.Role(context.Background(), "ghost")
	if len(role.AllowedRoutes) != 0 {
		t.Errorf("unknown role routes = %v, want none", role.AllowedRoutes)
	}
	if role.Unrestricted() {
		t.Error("unknown role must not be unrestricted")
	}
}

func TestRoles_DefaultsWhenStoreDown(t *testing.T) {
	reader := &fakeReader{err: errors.New("connection refused")}
	d := NewRoles(reader, time.Minute)

	admin := d.Role(context.Background(), "admin")
	if !admin.Unrestricted() {
		t.Error("default admin role must be unrestricted")
	}

	user := d.Role(context.Background(), "user")
	if len(user.AllowedRoutes) != 1 || user.AllowedRoutes[0] != "/" {
		t.Errorf("default user routes = %v, want [/]", user.AllowedRoutes)
	}
}

func TestRoles_SkipsMalformedRecords(t *testing.T) {
	reader := &fakeReader{collections: map[string]string{
		"roles": `[{"name":"","allowedRoutes":["/x"]},{"name":"user","allowedRoutes":["/"]}]`,
	}}
	d := NewRoles(reader, time.Minute)

	role := d.Role(context.Background(), "user")
	if len(role.AllowedRoutes) != 1 {
		t.Errorf("valid record not served: %+v", role)
	}
}

func TestSettings_DefaultsOnFailureAndEmpty(t *testing.T) {
	down := NewSettings(&fakeReader{err: errors.New("down")}, time.Minute)
	if got := down.Get(context.Background()); !got.EnableFrontend {
		t.Error("settings with store down: EnableFrontend = false, want default true")
	}

	empty := NewSettings(&fakeReader{collections: map[string]string{"site_settings": `[]`}}, time.Minute)
	if got := empty.Get(context.Background()); !got.EnableFrontend || !got.AllowRegistration {
		t.Errorf("settings with empty collection = %+v, want defaults", got)
	}
}

func TestSettings_ReadsRecord(t *testing.T) {
	reader := &fakeReader{collections: map[string]string{
		"site_settings": `[{"enableFrontend":false,"allowRegistration":true}]`,
	}}
	d := NewSettings(reader, time.Minute)

	got := d.Get(context.Background())
	if got.EnableFrontend {
		t.Error("EnableFrontend = true, want false from record")
	}
}

func TestKeys_FailsClosedWhenStoreDown(t *testing.T) {
	d := NewKeys(&fakeReader{err: errors.New("down")}, time.Minute)

	if _, err := d.Keys(context.Background()); err == nil {
		t.Error("Keys() with store down: expected error (fail closed)")
	}
}

func TestKeys_SkipsMalformedRecords(t *testing.T) {
	reader := &fakeReader{collections: map[string]string{
		"api_keys": `[{"key":"","status":"active"},{"key":"k-good","status":"bogus"},{"key":"k-12345678","status":"active","permissions":["read"]}]`,
	}}
	d := NewKeys(reader, time.Minute)

	keys, err := d.Keys(context.Background())
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("len(keys) = %d, want 1 (malformed skipped)", len(keys))
	}
	if keys[0].Key != "k-12345678" {
		t.Errorf("kept key = %q, want k-12345678", keys[0].Key)
	}
}

func TestWhitelist_RefreshForcesRefetch(t *testing.T) {
	reader := &fakeReader{collections: map[string]string{
		"whitelist": `[{"type":"ip","value":"203.0.113.7","active":true}]`,
	}}
	d := NewWhitelist(reader, time.Hour)

	if _, err := d.Entries(context.Background()); err != nil {
		t.Fatalf("Entries() error = %v", err)
	}
	if _, err := d.Entries(context.Background()); err != nil {
		t.Fatalf("Entries() error = %v", err)
	}
	if reader.calls != 1 {
		t.Fatalf("reader calls = %d, want 1 before refresh", reader.calls)
	}

	d.Refresh()

	if _, err := d.Entries(context.Background()); err != nil {
		t.Fatalf("Entries() after Refresh error = %v", err)
	}
	if reader.calls != 2 {
		t.Errorf("reader calls = %d, want 2 after refresh", reader.calls)
	}
}

func TestWhitelist_ParsesEntryTypes(t *testing.T) {
	reader := &fakeReader{collections: map[string]string{
		"whitelist": `[
			{"type":"ip","value":"203.0.113.0/24","active":true},
			{"type":"domain","value":"partner.example.com","active":false}
		]`,
	}}
	d := NewWhitelist(reader, time.Minute)

	entries, err := d.Entries(context.Background())
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].Type != models.WhitelistIP || entries[1].Type != models.WhitelistDomain {
		t.Errorf("entry types = %v, %v", entries[0].Type, entries[1].Type)
	}
}
