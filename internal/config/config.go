// Package config provides the attach configuration for the debug adapter.
//
// Configuration arrives as the arguments of the DAP attach request and
// controls:
//   - How the runtime connection is opened (port, address, url, websocketUrl)
//   - Source-map and stepping behavior (sourceMaps, smartStep, showAsyncStacks)
//   - Which files are skipped while stepping (skipFiles, skipFileRegExps)
//   - Diagnostic logging (trace, plus two deprecated aliases)
package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// DefaultPort is the runtime's default remote-debugging port.
const DefaultPort = 9229

// DefaultTimeout bounds target discovery against the runtime's HTTP endpoint.
const DefaultTimeout = 10 * time.Second

// AttachConfig holds the attach request arguments.
type AttachConfig struct {
	// Connection
	Port         int    `json:"port"`
	Address      string `json:"address"`
	URL          string `json:"url"`
	Timeout      int    `json:"timeout"` // milliseconds
	WebSocketURL string `json:"websocketUrl"`

	// Source mapping and stepping
	SourceMaps      *bool `json:"sourceMaps"` // default true
	SmartStep       bool  `json:"smartStep"`
	ShowAsyncStacks bool  `json:"showAsyncStacks"`

	// Skip-file configuration. SkipFiles entries are globs; a leading '!'
	// is not supported and such entries are ignored with a warning.
	// SkipFileRegExps entries are appended to the pattern list verbatim.
	SkipFiles       []string `json:"skipFiles"`
	SkipFileRegExps []string `json:"skipFileRegExps"`

	// Diagnostics. Trace accepts "verbose" or a boolean.
	Trace json.RawMessage `json:"trace"`

	// Deprecated aliases for Trace, kept for old launch configurations.
	VerboseDiagnosticLogging bool `json:"verboseDiagnosticLogging"`
	DiagnosticLogging        bool `json:"diagnosticLogging"`

	// Restart hint echoed on the Terminated event.
	Restart bool `json:"restart"`
}

// ParseAttachConfig decodes the attach request arguments and applies defaults.
func ParseAttachConfig(raw json.RawMessage) (*AttachConfig, error) {
	cfg := &AttachConfig{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("invalid attach arguments: %w", err)
		}
	}

	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	return cfg, nil
}

// SourceMapsEnabled reports whether source-map handling is on (default true).
func (c *AttachConfig) SourceMapsEnabled() bool {
	return c.SourceMaps == nil || *c.SourceMaps
}

// DiscoveryTimeout returns the configured discovery timeout.
func (c *AttachConfig) DiscoveryTimeout() time.Duration {
	if c.Timeout > 0 {
		return time.Duration(c.Timeout) * time.Millisecond
	}
	return DefaultTimeout
}

// TraceEnabled reports whether diagnostic logging is requested. The trace
// option accepts the string "verbose", any other non-empty string, or a
// boolean; the deprecated flags also turn it on.
func (c *AttachConfig) TraceEnabled() bool {
	if c.VerboseDiagnosticLogging || c.DiagnosticLogging {
		return true
	}
	if len(c.Trace) == 0 {
		return false
	}

	var b bool
	if err := json.Unmarshal(c.Trace, &b); err == nil {
		return b
	}
	var s string
	if err := json.Unmarshal(c.Trace, &s); err == nil {
		return s != ""
	}
	return false
}
