// Package config loads the daemon's YAML configuration and turns entity entries into validated pin and
// sensor configurations.
package config

import (
	"fmt"
	"gopkg.in/yaml.v3"
	"os"
	"strconv"
	"time"
)

const (
	DefaultDevice       = "/dev/ttyUSB0"
	DefaultBaud         = 9600
	DefaultPollInterval = 30 * time.Second
	DefaultTopicPrefix  = "xbeeio"
)

type Config struct {
	Serial          SerialConfig  `yaml:"serial"`
	Logging         LoggingConfig `yaml:"logging"`
	MQTT            MQTTConfig    `yaml:"mqtt"`
	Metrics         MetricsConfig `yaml:"metrics"`
	PollInterval    time.Duration `yaml:"poll_interval"`
	ResponseTimeout time.Duration `yaml:"response_timeout"`

	Lights     []EntityConfig `yaml:"lights"`
	Switches   []EntityConfig `yaml:"switches"`
	Sensors    []EntityConfig `yaml:"sensors"`
	TCPSensors []EntityConfig `yaml:"tcp_sensors"`
}

type SerialConfig struct {
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
	// Escaped selects API mode 2 (AP=2) framing.
	Escaped bool `yaml:"escaped"`
}

type LoggingConfig struct {
	// File enables logging to a rotated file instead of stderr.
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

type MQTTConfig struct {
	// Broker enables the MQTT bridge, e.g. "tcp://localhost:1883".
	Broker   string `yaml:"broker"`
	Prefix   string `yaml:"prefix"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type MetricsConfig struct {
	// Listen enables the Prometheus endpoint, e.g. ":9100".
	Listen string `yaml:"listen"`
}

func Default() Config {
	return Config{
		Serial: SerialConfig{
			Device: DefaultDevice,
			Baud:   DefaultBaud,
		},
		Logging: LoggingConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		MQTT: MQTTConfig{
			Prefix: DefaultTopicPrefix,
		},
		PollInterval: DefaultPollInterval,
	}
}

// Load reads the configuration file at path over the defaults, then applies environment overrides. An
// empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}

		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// ApplyEnv overrides values from XBEEIO_DEVICE, XBEEIO_BAUD and XBEEIO_MQTT_BROKER.
func (c *Config) ApplyEnv() error {
	c.Serial.Device = getEnv("XBEEIO_DEVICE", c.Serial.Device)
	c.MQTT.Broker = getEnv("XBEEIO_MQTT_BROKER", c.MQTT.Broker)

	if v := os.Getenv("XBEEIO_BAUD"); v != "" {
		baud, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("XBEEIO_BAUD is not a number: %w", err)
		}

		c.Serial.Baud = baud
	}

	return nil
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
