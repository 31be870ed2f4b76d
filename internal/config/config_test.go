package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, `
ril:
  host: 192.168.1.200
  port: 5554
  secret: s3cret
mqtt:
  broker: tcp://localhost:1883
  client_id: test
  topic_prefix: handset
database:
  dsn: user:pass@tcp(localhost:3306)/calllog
call:
  auto_retry: true
  emergency_tone: alert
  ringtone_query_timeout: 250ms
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RIL.Host != "192.168.1.200" {
		t.Errorf("expected host=192.168.1.200, got %s", cfg.RIL.Host)
	}
	if cfg.RIL.Addr() != "192.168.1.200:5554" {
		t.Errorf("expected addr=192.168.1.200:5554, got %s", cfg.RIL.Addr())
	}
	if cfg.MQTT.TopicPrefix != "handset" {
		t.Errorf("expected topic_prefix=handset, got %s", cfg.MQTT.TopicPrefix)
	}
	if cfg.Database.DSN == "" {
		t.Error("expected database dsn to be set")
	}
	if !cfg.Call.AutoRetry {
		t.Error("expected auto_retry=true")
	}
	if cfg.Call.EmergencyTone != "alert" {
		t.Errorf("expected emergency_tone=alert, got %s", cfg.Call.EmergencyTone)
	}
	if cfg.Call.RingtoneQueryTimeout != 250*time.Millisecond {
		t.Errorf("expected ringtone_query_timeout=250ms, got %v", cfg.Call.RingtoneQueryTimeout)
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
ril:
  secret: s3cret
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RIL.Host != "127.0.0.1" {
		t.Errorf("expected default host=127.0.0.1, got %s", cfg.RIL.Host)
	}
	if cfg.RIL.Port != 5554 {
		t.Errorf("expected default port=5554, got %d", cfg.RIL.Port)
	}
	if cfg.MQTT.Broker != "tcp://localhost:1883" {
		t.Errorf("expected default broker, got %s", cfg.MQTT.Broker)
	}
	if cfg.MQTT.ClientID != "callnotifier" {
		t.Errorf("expected default client_id, got %s", cfg.MQTT.ClientID)
	}
	if cfg.MQTT.TopicPrefix != "phone" {
		t.Errorf("expected default topic_prefix=phone, got %s", cfg.MQTT.TopicPrefix)
	}
	if cfg.Database.DSN != "" {
		t.Errorf("expected call log disabled by default, got dsn %q", cfg.Database.DSN)
	}
	if cfg.Call.EmergencyTone != "off" {
		t.Errorf("expected default emergency_tone=off, got %s", cfg.Call.EmergencyTone)
	}
	if cfg.Call.RingtoneQueryTimeout != 500*time.Millisecond {
		t.Errorf("expected default ringtone_query_timeout=500ms, got %v", cfg.Call.RingtoneQueryTimeout)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected default log level=info, got %s", cfg.Log.Level)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, `{{{invalid`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		config string
		errMsg string
	}{
		{"empty secret", `
ril:
  host: 127.0.0.1
`, "ril.secret is required"},
		{"port zero", `
ril:
  port: 0
  secret: s3cret
`, "ril.port must be between 1 and 65535, got 0"},
		{"port too high", `
ril:
  port: 70000
  secret: s3cret
`, "ril.port must be between 1 and 65535, got 70000"},
		{"empty host", `
ril:
  host: ""
  secret: s3cret
`, "ril.host is required"},
		{"empty broker", `
ril:
  secret: s3cret
mqtt:
  broker: ""
`, "mqtt.broker is required"},
		{"empty client_id", `
ril:
  secret: s3cret
mqtt:
  client_id: ""
`, "mqtt.client_id is required"},
		{"empty topic_prefix", `
ril:
  secret: s3cret
mqtt:
  topic_prefix: ""
`, "mqtt.topic_prefix is required"},
		{"bad emergency tone", `
ril:
  secret: s3cret
call:
  emergency_tone: loud
`, `call.emergency_tone must be off, alert or vibrate, got "loud"`},
		{"bad query timeout", `
ril:
  secret: s3cret
call:
  ringtone_query_timeout: -1s
`, "call.ringtone_query_timeout must be positive, got -1s"},
		{"bad log level", `
ril:
  secret: s3cret
log:
  level: verbose
`, `log.level must be debug, info, warn or error, got "verbose"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.config)
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if err.Error() != tt.errMsg {
				t.Errorf("expected error %q, got %q", tt.errMsg, err.Error())
			}
		})
	}
}
