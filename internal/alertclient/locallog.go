package alertclient

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/arvid-berndtsson/protocol-argus-cortex/internal/alert"
)

// LocalLog appends one JSON line per locally-generated alert to a file,
// independent of whether gateway delivery succeeds.
type LocalLog struct {
	mu   sync.Mutex
	file *os.File
}

// OpenLocalLog opens (creating if necessary) the detector-side alert log.
func OpenLocalLog(path string) (*LocalLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open local alert log %s: %w", path, err)
	}
	return &LocalLog{file: f}, nil
}

// Append writes one alert envelope as a JSON line. Failures are logged but
// never returned as fatal: alert loss is acceptable in favor of liveness.
func (l *LocalLog) Append(env alert.Envelope) {
	line, err := json.Marshal(env)
	if err != nil {
		slog.Error("failed to marshal alert for local log", "error", err)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.file.Write(append(line, '\n')); err != nil {
		slog.Error("failed to append alert to local log", "error", err)
	}
}

// Close closes the underlying file.
func (l *LocalLog) Close() error {
	return l.file.Close()
}
