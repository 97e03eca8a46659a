// Package gateway implements the central alert-ingestion and query HTTP
// surface that both detection engines POST their findings to.
package gateway

import (
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/arvid-berndtsson/protocol-argus-cortex/internal/alert"
)

// StoredAlert is an ingested envelope plus its sequence number.
type StoredAlert struct {
	alert.Envelope
	Sequence int `json:"sequence"`
}

// Store holds the in-memory ordered alert list plus the append-only log
// file. A single process-wide mutex guards the list: readers acquire it
// to snapshot, writers acquire it to append. The log-file append happens
// outside the mutex, since disk I/O failure must never block readers.
type Store struct {
	mu     sync.Mutex
	alerts []StoredAlert

	logMu sync.Mutex
	log   *os.File
}

// NewStore opens (creating if necessary) the persistent alert log at
// logPath and returns a ready-to-use Store.
func NewStore(logPath string) (*Store, error) {
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &Store{log: f}, nil
}

// Append coerces env's numeric/timestamp fields to safe defaults, assigns
// the next sequence number, appends to the in-memory list, and appends one
// JSON line to the log file. Log-append failures are logged but never
// returned: ingestion always succeeds from the caller's point of view.
func (s *Store) Append(env alert.Envelope) StoredAlert {
	coerce(&env)

	s.mu.Lock()
	stored := StoredAlert{Envelope: env, Sequence: len(s.alerts) + 1}
	s.alerts = append(s.alerts, stored)
	s.mu.Unlock()

	s.appendLog(stored)
	return stored
}

func (s *Store) appendLog(stored StoredAlert) {
	line, err := json.Marshal(stored)
	if err != nil {
		slog.Error("failed to marshal stored alert", "error", err)
		return
	}

	s.logMu.Lock()
	defer s.logMu.Unlock()

	if _, err := s.log.Write(append(line, '\n')); err != nil {
		slog.Error("failed to append alert to log", "error", err)
	}
}

// coerce defensively defaults fields that failed to decode to their
// declared type, per the ingestion contract: severity→1, confidence→0.0,
// ports→0 (already the zero value), timestamp→now.
func coerce(env *alert.Envelope) {
	if env.Severity < 1 || env.Severity > 5 {
		env.Severity = 1
	}
	if env.Timestamp == "" {
		env.Timestamp = alert.FormatTimestamp(time.Now())
	}
}

// Snapshot returns a copy of the alert list, most-recent-first.
func (s *Store) Snapshot() []StoredAlert {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]StoredAlert, len(s.alerts))
	for i, a := range s.alerts {
		out[len(s.alerts)-1-i] = a
	}
	return out
}

// Len returns the current alert count.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.alerts)
}

// Close closes the underlying log file.
func (s *Store) Close() error {
	return s.log.Close()
}
