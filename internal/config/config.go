package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	RIL      RILConfig      `yaml:"ril"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Database DatabaseConfig `yaml:"database"`
	Call     CallConfig     `yaml:"call"`
	Log      LogConfig      `yaml:"log"`
}

type RILConfig struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	Secret string `yaml:"secret"`
}

type MQTTConfig struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
}

// DatabaseConfig points at the call log store. An empty DSN disables
// call logging.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type CallConfig struct {
	AutoRetry            bool          `yaml:"auto_retry"`
	EmergencyTone        string        `yaml:"emergency_tone"`
	DefaultRingtoneURI   string        `yaml:"default_ringtone_uri"`
	RingtoneQueryTimeout time.Duration `yaml:"ringtone_query_timeout"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

func (c *RILConfig) Addr() string {
	return net.JoinHostPort(c.Host, fmt.Sprintf("%d", c.Port))
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := &Config{
		RIL: RILConfig{
			Host: "127.0.0.1",
			Port: 5554,
		},
		MQTT: MQTTConfig{
			Broker:      "tcp://localhost:1883",
			ClientID:    "callnotifier",
			TopicPrefix: "phone",
		},
		Call: CallConfig{
			EmergencyTone:        "off",
			DefaultRingtoneURI:   "system:ringtone_default",
			RingtoneQueryTimeout: 500 * time.Millisecond,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  20,
			MaxBackups: 3,
		},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.RIL.Host == "" {
		return fmt.Errorf("ril.host is required")
	}
	if c.RIL.Port < 1 || c.RIL.Port > 65535 {
		return fmt.Errorf("ril.port must be between 1 and 65535, got %d", c.RIL.Port)
	}
	if c.RIL.Secret == "" {
		return fmt.Errorf("ril.secret is required")
	}
	if c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required")
	}
	if c.MQTT.ClientID == "" {
		return fmt.Errorf("mqtt.client_id is required")
	}
	if c.MQTT.TopicPrefix == "" {
		return fmt.Errorf("mqtt.topic_prefix is required")
	}
	switch c.Call.EmergencyTone {
	case "off", "alert", "vibrate":
	default:
		return fmt.Errorf("call.emergency_tone must be off, alert or vibrate, got %q", c.Call.EmergencyTone)
	}
	if c.Call.RingtoneQueryTimeout <= 0 {
		return fmt.Errorf("call.ringtone_query_timeout must be positive, got %v", c.Call.RingtoneQueryTimeout)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	return nil
}
