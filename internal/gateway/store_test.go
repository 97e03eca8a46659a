package gateway

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arvid-berndtsson/protocol-argus-cortex/internal/alert"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "alerts.log")
	s, err := NewStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreAppendAssignsSequenceAndDefaults(t *testing.T) {
	s := newTestStore(t)

	a := s.Append(alert.Envelope{Engine: "rule", AttackType: "PortScan"})
	assert.Equal(t, 1, a.Sequence)
	assert.Equal(t, 1, a.Severity, "severity defaults to 1 on out-of-range input")
	assert.NotEmpty(t, a.Timestamp, "timestamp defaults to now")

	b := s.Append(alert.Envelope{Engine: "anomaly", Severity: 4})
	assert.Equal(t, 2, b.Sequence)
	assert.Equal(t, 4, b.Severity)
}

func TestStoreSnapshotIsMostRecentFirst(t *testing.T) {
	s := newTestStore(t)
	s.Append(alert.Envelope{Engine: "rule"})
	s.Append(alert.Envelope{Engine: "anomaly"})

	snap := s.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "anomaly", snap[0].Engine)
	assert.Equal(t, "rule", snap[1].Engine)
}

func TestStorePersistsLogLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.log")
	s, err := NewStore(path)
	require.NoError(t, err)
	s.Append(alert.Envelope{Engine: "rule"})
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"engine":"rule"`)
}
