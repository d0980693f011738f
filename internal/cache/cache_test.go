// Portcullis - Access Control Gateway for Self-Hosted Web Applications
// Copyright 2026 Portcullis Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/portcullisproject/portcullis

package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGet_CachesValue(t *testing.T) {
	c := New[string]("test", time.Minute)

	var fetches atomic.Int64
	fetch := func(ctx context.Context) (string, error) {
		fetches.Add(1)
		return "value", nil
	}

	for i := 0; i < 5; i++ {
		v, err := c.Get(context.Background(), "k", fetch)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if v != "value" {
			t.Fatalf("Get() = %q, want %q", v, "value")
		}
	}

	if got := fetches.Load(); got != 1 {
		t.Errorf("fetch count = %d, want 1", got)
	}
}

func TestGet_Singleflight(t *testing.T) {
	c := New[string]("test", time.Minute)

	var fetches atomic.Int64
	release := make(chan struct{})
	fetch := func(ctx context.Context) (string, error) {
		fetches.Add(1)
		<-release
		return "shared", nil
	}

	const callers = 20
	results := make([]string, callers)
	errs := make([]error, callers)

	var started, done sync.WaitGroup
	started.Add(callers)
	done.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			started.Done()
			defer done.Done()
			results[i], errs[i] = c.Get(context.Background(), "k", fetch)
		}(i)
	}

	started.Wait()
	// Let all goroutines reach Get before releasing the fetch.
	time.Sleep(50 * time.Millisecond)
	close(release)
	done.Wait()

	if got := fetches.Load(); got != 1 {
		t.Errorf("fetch count = %d, want 1 (singleflight)", got)
	}
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: error = %v", i, errs[i])
		}
		if results[i] != "shared" {
			t.Errorf("caller %d: got %q, want %q", i, results[i], "shared")
		}
	}
}

func TestGet_TTLExpiry(t *testing.T) {
	c := New[int]("test", time.Minute)

	t0 := time.Now()
	current := t0
	c.now = func() time.Time { return current }

	var fetches atomic.Int64
	fetch := func(ctx context.Context) (int, error) {
		fetches.Add(1)
		return int(fetches.Load()), nil
	}

	if v, _ := c.Get(context.Background(), "k", fetch); v != 1 {
		t.Fatalf("first Get = %d, want 1", v)
	}

	// Just inside the TTL: served from cache.
	current = t0.Add(time.Minute - time.Millisecond)
	if v, _ := c.Get(context.Background(), "k", fetch); v != 1 {
		t.Errorf("Get before expiry = %d, want 1", v)
	}
	if got := fetches.Load(); got != 1 {
		t.Errorf("fetch count before expiry = %d, want 1", got)
	}

	// Just past the TTL: exactly one refetch.
	current = t0.Add(time.Minute + time.Millisecond)
	if v, _ := c.Get(context.Background(), "k", fetch); v != 2 {
		t.Errorf("Get after expiry = %d, want 2", v)
	}
	if got := fetches.Load(); got != 2 {
		t.Errorf("fetch count after expiry = %d, want 2", got)
	}
}

func TestGet_StaleOnFailure(t *testing.T) {
	c := New[string]("test", time.Minute)

	t0 := time.Now()
	current := t0
	c.now = func() time.Time { return current }

	healthy := true
	fetch := func(ctx context.Context) (string, error) {
		if !healthy {
			return "", errors.New("backing store down")
		}
		return "good", nil
	}

	if _, err := c.Get(context.Background(), "k", fetch); err != nil {
		t.Fatalf("warm-up Get() error = %v", err)
	}

	// Expire the entry, then break the backing store.
	current = t0.Add(2 * time.Minute)
	healthy = false

	for i := 0; i < 3; i++ {
		v, err := c.Get(context.Background(), "k", fetch)
		if err != nil {
			t.Fatalf("Get() with stale entry: error = %v", err)
		}
		if v != "good" {
			t.Errorf("Get() = %q, want stale %q", v, "good")
		}
	}
}

func TestGet_ErrorWithNoPreviousEntry(t *testing.T) {
	c := New[string]("test", time.Minute)

	wantErr := errors.New("backing store down")
	fetch := func(ctx context.Context) (string, error) {
		return "", wantErr
	}

	_, err := c.Get(context.Background(), "k", fetch)
	if !errors.Is(err, wantErr) {
		t.Fatalf("Get() error = %v, want %v", err, wantErr)
	}

	// The failure must not be cached: a later successful fetch works.
	v, err := c.Get(context.Background(), "k", func(ctx context.Context) (string, error) {
		return "recovered", nil
	})
	if err != nil {
		t.Fatalf("Get() after recovery: error = %v", err)
	}
	if v != "recovered" {
		t.Errorf("Get() = %q, want %q", v, "recovered")
	}
}

func TestInvalidate_ForcesRefetch(t *testing.T) {
	c := New[int]("test", time.Hour)

	var fetches atomic.Int64
	fetch := func(ctx context.Context) (int, error) {
		fetches.Add(1)
		return int(fetches.Load()), nil
	}

	if v, _ := c.Get(context.Background(), "k", fetch); v != 1 {
		t.Fatalf("first Get = %d, want 1", v)
	}

	c.Invalidate("k")

	if v, _ := c.Get(context.Background(), "k", fetch); v != 2 {
		t.Errorf("Get after Invalidate = %d, want 2", v)
	}
}

func TestInvalidate_DropsStaleFallback(t *testing.T) {
	c := New[string]("test", time.Minute)

	if _, err := c.Get(context.Background(), "k", func(ctx context.Context) (string, error) {
		return "good", nil
	}); err != nil {
		t.Fatalf("warm-up Get() error = %v", err)
	}

	c.Invalidate("k")

	wantErr := errors.New("down")
	_, err := c.Get(context.Background(), "k", func(ctx context.Context) (string, error) {
		return "", wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("Get() after Invalidate with store down: error = %v, want %v", err, wantErr)
	}
}

func TestNew_DefaultTTL(t *testing.T) {
	c := New[string]("test", 0)
	if c.ttl != DefaultTTL {
		t.Errorf("ttl = %v, want %v", c.ttl, DefaultTTL)
	}
}
