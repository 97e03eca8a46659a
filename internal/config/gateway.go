package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// GatewayConfig configures the gatewayd binary.
type GatewayConfig struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	LogDir  string `mapstructure:"log_dir"`
	LogFile string `mapstructure:"log_file"`
}

// Addr renders the configured listen address.
func (c GatewayConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogPath joins LogDir and LogFile.
func (c GatewayConfig) LogPath() string {
	if c.LogDir == "" {
		return c.LogFile
	}
	return c.LogDir + "/" + c.LogFile
}

// LoadGatewayConfig reads configPath (YAML), applies defaults, and binds
// environment-variable overrides.
func LoadGatewayConfig(configPath string) (*GatewayConfig, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8081)
	v.SetDefault("log_dir", ".")
	v.SetDefault("log_file", "alerts_gateway.log")

	_ = v.BindEnv("host", "ALERT_GATEWAY_HOST")
	_ = v.BindEnv("port", "ALERT_GATEWAY_PORT")
	_ = v.BindEnv("log_dir", "ALERT_GATEWAY_LOG_DIR")

	if _, err := os.Stat(configPath); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read gateway config %s: %w", configPath, err)
		}
	}

	var cfg GatewayConfig
	if err := v.Unmarshal(&cfg, weaklyTyped); err != nil {
		return nil, fmt.Errorf("unmarshal gateway config: %w", err)
	}
	return &cfg, nil
}
