// Portcullis - Access Control Gateway for Self-Hosted Web Applications
// Copyright 2026 Portcullis Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/portcullisproject/portcullis

// Package audit records access decisions asynchronously.
//
// Recording never blocks the decision path: events go through a bounded
// buffer and are dropped (with a metric) when the buffer is full. Events
// carry a key prefix at most, never a raw API key or CSRF token.
package audit

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/portcullisproject/portcullis/internal/logging"
	"github.com/portcullisproject/portcullis/internal/metrics"
)

// Event is one recorded access decision.
type Event struct {
	Time           time.Time
	RequestID      string
	Method         string
	Path           string
	Outcome        string
	Reason         string
	Classification string
	Identity       string
	KeyPrefix      string
	ClientAddr     string
}

// Config holds audit logger configuration.
type Config struct {
	// Enabled controls whether events are recorded at all.
	Enabled bool

	// BufferSize is the size of the async event buffer. Default: 1000.
	BufferSize int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{Enabled: true, BufferSize: 1000}
}

// Logger writes access events on a background goroutine.
type Logger struct {
	enabled  bool
	events   chan Event
	stopOnce sync.Once
	stopChan chan struct{}
	wg       sync.WaitGroup
	sink     zerolog.Logger
}

// NewLogger creates and starts an audit logger.
func NewLogger(cfg Config) *Logger {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1000
	}

	l := &Logger{
		enabled:  cfg.Enabled,
		events:   make(chan Event, cfg.BufferSize),
		stopChan: make(chan struct{}),
		sink:     logging.With().Str("component", "audit").Logger(),
	}

	l.wg.Add(1)
	go l.asyncWriter()
	return l
}

// Record enqueues an event. It never blocks: when the buffer is full the
// event is dropped and counted.
func (l *Logger) Record(e Event) {
	if !l.enabled {
		return
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	select {
	case l.events <- e:
	default:
		metrics.RecordAuditDrop()
	}
}

// Close stops the writer after draining buffered events.
// It is safe to call multiple times.
func (l *Logger) Close() {
	l.stopOnce.Do(func() {
		close(l.stopChan)
	})
	l.wg.Wait()
}

func (l *Logger) asyncWriter() {
	defer l.wg.Done()

	for {
		select {
		case <-l.stopChan:
			// Drain remaining events before exiting.
			for {
				select {
				case e := <-l.events:
					l.write(e)
				default:
					return
				}
			}
		case e := <-l.events:
			l.write(e)
		}
	}
}

func (l *Logger) write(e Event) {
	evt := l.sink.Info().
		Time("at", e.Time).
		Str("method", e.Method).
		Str("path", e.Path).
		Str("outcome", e.Outcome).
		Str("classification", e.Classification)
	if e.RequestID != "" {
		evt = evt.Str("request_id", e.RequestID)
	}
	if e.Reason != "" {
		evt = evt.Str("reason", e.Reason)
	}
	if e.Identity != "" {
		evt = evt.Str("identity", e.Identity)
	}
	if e.KeyPrefix != "" {
		evt = evt.Str("key_prefix", e.KeyPrefix)
	}
	if e.ClientAddr != "" {
		evt = evt.Str("client_addr", e.ClientAddr)
	}
	evt.Msg("access")
}
