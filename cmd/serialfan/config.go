package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ConsumerConfig holds one downstream consumer slot.
type ConsumerConfig struct {
	Enable bool `mapstructure:"enable"`
	Port   int  `mapstructure:"port"`
}

// SerialConfig holds serial source settings.
type SerialConfig struct {
	Device      string        `mapstructure:"device"`
	Baud        int           `mapstructure:"baud"`
	ReadTimeout time.Duration `mapstructure:"read-timeout"`
}

// CaptureConfig holds the rotating capture file options (lumberjack).
type CaptureConfig struct {
	Enable     bool   `mapstructure:"enable"`
	Path       string `mapstructure:"path"`
	MaxSize    int    `mapstructure:"max-size"` // megabytes
	MaxBackups int    `mapstructure:"max-backups"`
	MaxAge     int    `mapstructure:"max-age"` // days
	Compress   bool   `mapstructure:"compress"`
}

// PrometheusConfig holds metrics endpoint options.
type PrometheusConfig struct {
	Enable bool   `mapstructure:"enable"`
	Addr   string `mapstructure:"addr"`
}

// Config holds all configuration options for the serialfan application.
type Config struct {
	// Optional config file path (flag/env only)
	ConfigFile string
	// Serial source (nested)
	Serial SerialConfig `mapstructure:"serial"`
	// Host shared by both consumer slots
	Host string `mapstructure:"host"`
	// The two consumer slots
	Primary   ConsumerConfig `mapstructure:"primary"`
	Secondary ConsumerConfig `mapstructure:"secondary"`
	// Rotating raw capture of forwarded lines
	Capture CaptureConfig `mapstructure:"capture"`
	// Metrics/Prometheus options
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

// LoadFromViper binds flags to viper, reads file/env, and populates the
// Config fields via mapstructure.
func (c *Config) LoadFromViper(cmd *cobra.Command) error {
	v := viper.GetViper()
	v.SetEnvPrefix("SERIALFAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Bind all flags
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Capture has no flags; register its keys (seeded from the current
	// values) so AutomaticEnv resolves SERIALFAN_CAPTURE_* without a
	// config file.
	v.SetDefault("capture.enable", c.Capture.Enable)
	v.SetDefault("capture.path", c.Capture.Path)
	v.SetDefault("capture.max-size", c.Capture.MaxSize)
	v.SetDefault("capture.max-backups", c.Capture.MaxBackups)
	v.SetDefault("capture.max-age", c.Capture.MaxAge)
	v.SetDefault("capture.compress", c.Capture.Compress)

	// Determine config file path: --config flag or SERIALFAN_CONFIG env
	if c.ConfigFile == "" {
		c.ConfigFile = v.GetString("config")
	}
	if c.ConfigFile != "" {
		v.SetConfigFile(c.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(c); err != nil {
		return err
	}
	return nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Serial: SerialConfig{
			Device:      "/dev/ttyACM0",
			Baud:        115200,
			ReadTimeout: 10 * time.Millisecond,
		},
		Host:      "127.0.0.1",
		Primary:   ConsumerConfig{Enable: false, Port: 65432},
		Secondary: ConsumerConfig{Enable: false, Port: 65433},
		Capture: CaptureConfig{
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     7,
		},
		Prometheus: PrometheusConfig{Enable: false, Addr: ":2112"},
	}
}

// SetupFlags adds all command line flags to the provided cobra command.
func (c *Config) SetupFlags(cmd *cobra.Command) {
	// Config file
	cmd.Flags().StringVar(&c.ConfigFile, "config", c.ConfigFile, "Path to config file (yaml/json/toml)")

	// Serial source flags
	cmd.Flags().StringVarP(&c.Serial.Device, "device", "d", c.Serial.Device, "Serial device to read from")
	cmd.Flags().IntVarP(&c.Serial.Baud, "baud", "b", c.Serial.Baud, "Serial link speed")
	cmd.Flags().DurationVar(&c.Serial.ReadTimeout, "read-timeout", c.Serial.ReadTimeout, "Per-read timeout on the serial device")

	// Consumer flags. Flag names match the nested config keys so viper
	// merges them instead of shadowing the primary/secondary maps.
	cmd.Flags().StringVar(&c.Host, "host", c.Host, "Host shared by both consumer slots")
	cmd.Flags().BoolVar(&c.Primary.Enable, "primary.enable", c.Primary.Enable, "Enable the primary consumer")
	cmd.Flags().IntVar(&c.Primary.Port, "primary.port", c.Primary.Port, "TCP port of the primary consumer")
	cmd.Flags().BoolVar(&c.Secondary.Enable, "secondary.enable", c.Secondary.Enable, "Enable the secondary consumer")
	cmd.Flags().IntVar(&c.Secondary.Port, "secondary.port", c.Secondary.Port, "TCP port of the secondary consumer")

	// Capture options are intentionally not exposed as command-line flags.
	// Configure the rotating capture file via config file (e.g. --config or
	// SERIALFAN_CONFIG) or environment variables (SERIALFAN_CAPTURE_PATH, ...);
	// LoadFromViper registers the capture keys so the env vars resolve.

	// Prometheus flags
	cmd.Flags().BoolVar(&c.Prometheus.Enable, "prometheus.enable", c.Prometheus.Enable, "Enable Prometheus metrics HTTP endpoint")
	cmd.Flags().StringVar(&c.Prometheus.Addr, "prometheus.addr", c.Prometheus.Addr, "Prometheus metrics listen address (e.g., :2112)")
}

// Validate checks if the configuration is valid. It runs before any
// connection attempt; violations abort startup.
func (c *Config) Validate() error {
	if c.Serial.Device == "" {
		return fmt.Errorf("device must be set")
	}
	if c.Serial.Baud <= 0 {
		return fmt.Errorf("baud must be > 0")
	}
	if c.Serial.ReadTimeout <= 0 {
		return fmt.Errorf("read-timeout must be > 0")
	}

	if !c.Primary.Enable && !c.Secondary.Enable {
		return fmt.Errorf("at least one of primary.enable or secondary.enable must be set")
	}
	for name, cc := range map[string]ConsumerConfig{"primary": c.Primary, "secondary": c.Secondary} {
		if cc.Enable && (cc.Port < 1 || cc.Port > 65535) {
			return fmt.Errorf("%s.port must be in 1..65535", name)
		}
	}
	if c.Primary.Enable && c.Secondary.Enable && c.Primary.Port == c.Secondary.Port {
		return fmt.Errorf("primary and secondary ports must differ")
	}

	if c.Capture.Enable && c.Capture.Path == "" {
		return fmt.Errorf("capture.path must be set when capture.enable is true")
	}

	if c.Prometheus.Enable && c.Prometheus.Addr == "" {
		return fmt.Errorf("prometheus.addr must be set when prometheus.enable is true")
	}

	return nil
}
