// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Minimum values enforced by Normalize.
const (
	MinBufferCapacity       = 1
	MinJankThresholdMs      = 16
	MinMaxAttributeLength   = 1
	MinDiskCheckIntervalSec = 10
)

// Config controls one CircleBox runtime.
type Config struct {
	// Directory is the base directory for pending reports and
	// exports. Runtime options may override it. ${HOME} and
	// ${VAR:-default} patterns are expanded at load time.
	Directory string `yaml:"directory" json:"directory"`

	// BufferCapacity is the number of events the ring buffer keeps.
	// Default: 50, minimum 1.
	BufferCapacity int `yaml:"buffer_capacity" json:"buffer_capacity"`

	// JankThresholdMs is the scheduler stall, in milliseconds, above
	// which a thread_contention event is recorded.
	// Default: 200, minimum 16.
	JankThresholdMs int64 `yaml:"jank_threshold_ms" json:"jank_threshold_ms"`

	// SanitizeAttributes enables redaction of emails, phone numbers,
	// and card numbers in attribute values.
	// Default: true.
	SanitizeAttributes bool `yaml:"sanitize_attributes" json:"sanitize_attributes"`

	// MaxAttributeLength truncates attribute values, in runes.
	// Default: 256, minimum 1.
	MaxAttributeLength int `yaml:"max_attribute_length" json:"max_attribute_length"`

	// DiskCheckIntervalSec is the disk space sampling interval.
	// Default: 60, minimum 10.
	DiskCheckIntervalSec int64 `yaml:"disk_check_interval_sec" json:"disk_check_interval_sec"`

	// EnableSignalCrashCapture installs the signal marker handler and
	// routes Go runtime crash output into the pending directory.
	// Default: true.
	EnableSignalCrashCapture bool `yaml:"enable_signal_crash_capture" json:"enable_signal_crash_capture"`

	// EnableDebugViewer allows DebugSnapshot to return events.
	// Default: false.
	EnableDebugViewer bool `yaml:"enable_debug_viewer" json:"enable_debug_viewer"`

	// CheckpointMinIntervalMs spaces out checkpoint writes. Zero
	// writes a checkpoint after every event.
	// Default: 0.
	CheckpointMinIntervalMs int64 `yaml:"checkpoint_min_interval_ms" json:"checkpoint_min_interval_ms"`

	// EnableMetrics registers Prometheus collectors for the runtime.
	// Default: true.
	EnableMetrics bool `yaml:"enable_metrics" json:"enable_metrics"`
}

// Default returns the default configuration. Files loaded by LoadFile
// are merged on top of it, so keys absent from a file keep these
// values.
func Default() *Config {
	return &Config{
		BufferCapacity:           50,
		JankThresholdMs:          200,
		SanitizeAttributes:       true,
		MaxAttributeLength:       256,
		DiskCheckIntervalSec:     60,
		EnableSignalCrashCapture: true,
		EnableDebugViewer:        false,
		CheckpointMinIntervalMs:  0,
		EnableMetrics:            true,
	}
}

// Normalize clamps every numeric field into its valid range. It never
// fails: out-of-range values are raised to the nearest valid one.
func (c *Config) Normalize() {
	c.BufferCapacity = max(c.BufferCapacity, MinBufferCapacity)
	c.JankThresholdMs = max(c.JankThresholdMs, MinJankThresholdMs)
	c.MaxAttributeLength = max(c.MaxAttributeLength, MinMaxAttributeLength)
	c.DiskCheckIntervalSec = max(c.DiskCheckIntervalSec, MinDiskCheckIntervalSec)
	c.CheckpointMinIntervalMs = max(c.CheckpointMinIntervalMs, 0)
}

// JankThreshold returns JankThresholdMs as a duration.
func (c *Config) JankThreshold() time.Duration {
	return time.Duration(c.JankThresholdMs) * time.Millisecond
}

// DiskCheckInterval returns DiskCheckIntervalSec as a duration.
func (c *Config) DiskCheckInterval() time.Duration {
	return time.Duration(c.DiskCheckIntervalSec) * time.Second
}

// CheckpointMinInterval returns CheckpointMinIntervalMs as a duration.
func (c *Config) CheckpointMinInterval() time.Duration {
	return time.Duration(c.CheckpointMinIntervalMs) * time.Millisecond
}

// Load loads configuration from the file named by CIRCLEBOX_CONFIG.
//
// There are no fallbacks: if CIRCLEBOX_CONFIG is not set, this fails.
// Callers that want defaults use Default directly.
func Load() (*Config, error) {
	configPath := os.Getenv("CIRCLEBOX_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("CIRCLEBOX_CONFIG environment variable not set; " +
			"set it to the path of a circlebox.yaml or circlebox.jsonc file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path. The format
// follows the extension: .yaml and .yml are YAML, .json and .jsonc are
// JSON with comments and trailing commas allowed. The result is merged
// onto Default, variables in Directory are expanded, and numeric
// fields are clamped by Normalize.
func LoadFile(path string) (*Config, error) {
	cfg, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg.Normalize()
	return cfg, nil
}

// ReadFile is LoadFile without the final Normalize, so Validate can
// still see out-of-range values.
func ReadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	cfg.Directory = expandVars(cfg.Directory, map[string]string{
		"HOME": os.Getenv("HOME"),
	})

	return cfg, nil
}

// loadFile decodes a single configuration file into the current
// config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	case ".json", ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), c); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config file extension %q (want .yaml, .yml, .json, or .jsonc)", filepath.Ext(path))
	}
	return nil
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate reports every field that Normalize would change. A non-nil
// result is informational: the runtime clamps and starts anyway. The
// CLI surfaces it so a misconfigured file does not go unnoticed.
func (c *Config) Validate() error {
	var errs []error

	if c.BufferCapacity < MinBufferCapacity {
		errs = append(errs, fmt.Errorf("buffer_capacity %d is below minimum %d", c.BufferCapacity, MinBufferCapacity))
	}
	if c.JankThresholdMs < MinJankThresholdMs {
		errs = append(errs, fmt.Errorf("jank_threshold_ms %d is below minimum %d", c.JankThresholdMs, MinJankThresholdMs))
	}
	if c.MaxAttributeLength < MinMaxAttributeLength {
		errs = append(errs, fmt.Errorf("max_attribute_length %d is below minimum %d", c.MaxAttributeLength, MinMaxAttributeLength))
	}
	if c.DiskCheckIntervalSec < MinDiskCheckIntervalSec {
		errs = append(errs, fmt.Errorf("disk_check_interval_sec %d is below minimum %d", c.DiskCheckIntervalSec, MinDiskCheckIntervalSec))
	}
	if c.CheckpointMinIntervalMs < 0 {
		errs = append(errs, fmt.Errorf("checkpoint_min_interval_ms %d is negative", c.CheckpointMinIntervalMs))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
