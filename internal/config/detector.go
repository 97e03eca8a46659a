// Package config loads detector and gateway configuration from YAML files
// via viper, with environment-variable overrides for deployment-specific
// values.
package config

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// DetectorConfig configures the argusd binary: capture, rule engine,
// anomaly detector, and alert delivery.
type DetectorConfig struct {
	Capture CaptureConfig `mapstructure:"capture"`
	Rules   RulesConfig   `mapstructure:"rules"`
	Anomaly AnomalyConfig `mapstructure:"anomaly"`
	Alert   AlertConfig   `mapstructure:"alert"`
}

// CaptureConfig selects the packet source.
type CaptureConfig struct {
	Mode        string `mapstructure:"mode"` // "live", "offline", "simulated"
	Interface   string `mapstructure:"interface"`
	PcapFile    string `mapstructure:"pcap_file"`
	BPFFilter   string `mapstructure:"bpf_filter"`
	SnapLen     int32  `mapstructure:"snap_len"`
	Promiscuous bool   `mapstructure:"promiscuous"`
}

// RulesConfig locates the declarative rule file and safety overlay lists.
type RulesConfig struct {
	RuleFile     string `mapstructure:"rule_file"`
	BlockedIPs   string `mapstructure:"blocked_ips_file"`
	TrustedIPs   string `mapstructure:"trusted_ips_file"`
}

// AnomalyConfig locates model artifacts and tunable decision thresholds.
type AnomalyConfig struct {
	Enabled             bool    `mapstructure:"enabled"`
	ArtifactPath        string  `mapstructure:"artifact_path"`
	ScalerPath          string  `mapstructure:"scaler_path"`
	ReducerPath         string  `mapstructure:"reducer_path"`
	LabelsPath          string  `mapstructure:"labels_path"`
	MinAttackConfidence float64 `mapstructure:"min_attack_confidence"`
	RealScoreThreshold  float64 `mapstructure:"real_score_threshold"`
}

// AlertConfig configures delivery to the gateway and the local log.
type AlertConfig struct {
	GatewayURL     string `mapstructure:"gateway_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	LocalLogPath   string `mapstructure:"local_log_path"`
}

// LoadDetectorConfig reads configPath (YAML), applies defaults, and binds
// environment-variable overrides.
func LoadDetectorConfig(configPath string) (*DetectorConfig, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	setDetectorDefaults(v)
	bindDetectorEnv(v)

	if _, err := os.Stat(configPath); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read detector config %s: %w", configPath, err)
		}
	}

	var cfg DetectorConfig
	if err := v.Unmarshal(&cfg, weaklyTyped); err != nil {
		return nil, fmt.Errorf("unmarshal detector config: %w", err)
	}
	return &cfg, nil
}

// weaklyTyped allows string-valued environment-variable overrides (e.g.
// MIN_ATTACK_CONFIDENCE="0.7") to decode into numeric and boolean fields.
func weaklyTyped(dc *mapstructure.DecoderConfig) {
	dc.WeaklyTypedInput = true
}

func setDetectorDefaults(v *viper.Viper) {
	v.SetDefault("capture.mode", "simulated")
	v.SetDefault("capture.snap_len", 65535)
	v.SetDefault("capture.promiscuous", true)
	v.SetDefault("rules.rule_file", "rules.json")
	v.SetDefault("rules.blocked_ips_file", "blocked_ips.json")
	v.SetDefault("rules.trusted_ips_file", "trusted_ips.json")
	v.SetDefault("anomaly.enabled", true)
	v.SetDefault("anomaly.min_attack_confidence", 0.5)
	v.SetDefault("anomaly.real_score_threshold", -0.05)
	v.SetDefault("alert.gateway_url", "http://127.0.0.1:8081")
	v.SetDefault("alert.timeout_seconds", 3)
	v.SetDefault("alert.local_log_path", "alerts_local.log")
}

func bindDetectorEnv(v *viper.Viper) {
	bindings := map[string]string{
		"alert.gateway_url":            "ALERT_API_URL",
		"alert.timeout_seconds":        "ALERT_API_TIMEOUT",
		"alert.local_log_path":         "ALERT_LOCAL_LOG_PATH",
		"anomaly.min_attack_confidence": "MIN_ATTACK_CONFIDENCE",
		"anomaly.real_score_threshold":  "REAL_SCORE_THRESHOLD",
		"capture.interface":            "CAPTURE_INTERFACE",
	}
	for key, env := range bindings {
		_ = v.BindEnv(key, env)
	}
}
