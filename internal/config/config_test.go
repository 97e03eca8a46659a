package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDetectorConfigDefaults(t *testing.T) {
	cfg, err := LoadDetectorConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "simulated", cfg.Capture.Mode)
	assert.Equal(t, 0.5, cfg.Anomaly.MinAttackConfidence)
	assert.Equal(t, "http://127.0.0.1:8081", cfg.Alert.GatewayURL)
}

func TestLoadDetectorConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "detector.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
capture:
  mode: live
  interface: eth0
anomaly:
  min_attack_confidence: 0.7
`), 0o644))

	cfg, err := LoadDetectorConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "live", cfg.Capture.Mode)
	assert.Equal(t, "eth0", cfg.Capture.Interface)
	assert.Equal(t, 0.7, cfg.Anomaly.MinAttackConfidence)
}

func TestLoadDetectorConfigEnvOverride(t *testing.T) {
	t.Setenv("MIN_ATTACK_CONFIDENCE", "0.9")
	cfg, err := LoadDetectorConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 0.9, cfg.Anomaly.MinAttackConfidence)
}

func TestLoadGatewayConfigDefaults(t *testing.T) {
	cfg, err := LoadGatewayConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8081", cfg.Addr())
}
