package config

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseAttachConfigDefaults(t *testing.T) {
	cfg, err := ParseAttachConfig(nil)
	if err != nil {
		t.Fatalf("ParseAttachConfig(nil): %v", err)
	}

	if cfg.Port != DefaultPort {
		t.Errorf("Port = %d, want %d", cfg.Port, DefaultPort)
	}
	if !cfg.SourceMapsEnabled() {
		t.Error("source maps should default to enabled")
	}
	if cfg.DiscoveryTimeout() != DefaultTimeout {
		t.Errorf("DiscoveryTimeout = %v, want %v", cfg.DiscoveryTimeout(), DefaultTimeout)
	}
	if cfg.TraceEnabled() {
		t.Error("trace should default to off")
	}
}

func TestParseAttachConfig(t *testing.T) {
	raw := json.RawMessage(`{
		"port": 9230,
		"address": "10.0.0.5",
		"timeout": 2500,
		"sourceMaps": false,
		"smartStep": true,
		"skipFiles": ["**/node_modules/**"],
		"restart": true
	}`)

	cfg, err := ParseAttachConfig(raw)
	if err != nil {
		t.Fatalf("ParseAttachConfig: %v", err)
	}

	if cfg.Port != 9230 || cfg.Address != "10.0.0.5" {
		t.Errorf("connection = %s:%d", cfg.Address, cfg.Port)
	}
	if cfg.SourceMapsEnabled() {
		t.Error("sourceMaps: false should disable source maps")
	}
	if !cfg.SmartStep || !cfg.Restart {
		t.Error("flags not decoded")
	}
	if cfg.DiscoveryTimeout() != 2500*time.Millisecond {
		t.Errorf("DiscoveryTimeout = %v", cfg.DiscoveryTimeout())
	}
	if len(cfg.SkipFiles) != 1 {
		t.Errorf("SkipFiles = %v", cfg.SkipFiles)
	}
}

func TestParseAttachConfigRejectsGarbage(t *testing.T) {
	if _, err := ParseAttachConfig(json.RawMessage(`{"port": "nine"}`)); err == nil {
		t.Error("mistyped arguments should be rejected")
	}
}

func TestTraceEnabled(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{"bool true", `{"trace": true}`, true},
		{"bool false", `{"trace": false}`, false},
		{"verbose", `{"trace": "verbose"}`, true},
		{"empty string", `{"trace": ""}`, false},
		{"deprecated verbose flag", `{"verboseDiagnosticLogging": true}`, true},
		{"deprecated logging flag", `{"diagnosticLogging": true}`, true},
		{"absent", `{}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseAttachConfig(json.RawMessage(tt.raw))
			if err != nil {
				t.Fatalf("ParseAttachConfig: %v", err)
			}
			if got := cfg.TraceEnabled(); got != tt.want {
				t.Errorf("TraceEnabled = %v, want %v", got, tt.want)
			}
		})
	}
}
