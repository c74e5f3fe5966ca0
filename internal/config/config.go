// Package config loads application configuration from config.json.
package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// S3 holds the settings for the cloud-bucket transport. The transport is
// enabled when Bucket and Key are both set.
type S3 struct {
	Bucket   string `json:"bucket,omitempty"`
	Key      string `json:"key,omitempty"`
	Region   string `json:"region,omitempty"`
	Endpoint string `json:"endpoint,omitempty"` // optional, for S3-compatible stores
}

// Config holds application configuration.
//
// The sync durations are empirically tuned heuristics, not invariants;
// they exist here precisely so deployments can adjust them.
type Config struct {
	// SharedPath is the shared snapshot file watched and written by every
	// replica (a cloud-synced folder or LAN directory).
	SharedPath string `json:"shared_path,omitempty"`

	// AppName is the producer identity embedded in exported snapshots.
	AppName string `json:"app_name,omitempty"`

	// PollIntervalSeconds is how often the polling change source checks the
	// shared file's modification time.
	PollIntervalSeconds int `json:"poll_interval_seconds,omitempty"`

	// DebounceMillis is the quiet period after a local edit before an
	// export runs. Bursts of edits coalesce into one export.
	DebounceMillis int `json:"debounce_millis,omitempty"`

	// EchoWindowSeconds is the grace window after an export during which
	// observed file changes are attributed to that export and ignored.
	EchoWindowSeconds int `json:"echo_window_seconds,omitempty"`

	// Bind and Port configure the HTTP surface for `wordcard serve`.
	Bind string `json:"bind,omitempty"`
	Port int    `json:"port,omitempty"`

	// MaxNotesChars bounds card notes at the editing boundary.
	MaxNotesChars int `json:"max_notes_chars,omitempty"`

	// S3 configures the optional cloud-bucket transport.
	S3 *S3 `json:"s3,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		AppName:             "word-card",
		PollIntervalSeconds: 5,
		DebounceMillis:      500,
		EchoWindowSeconds:   3,
		Bind:                "127.0.0.1",
		Port:                8787,
		MaxNotesChars:       500,
	}
}

// PollInterval returns the polling interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// Debounce returns the export quiet period as a duration.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMillis) * time.Millisecond
}

// EchoWindow returns the self-echo grace window as a duration.
func (c *Config) EchoWindow() time.Duration {
	return time.Duration(c.EchoWindowSeconds) * time.Second
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.wordcard.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Merge combines base and overlay configs. Overlay values take precedence
// for non-zero scalars.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.SharedPath = overlay.SharedPath
	if result.SharedPath == "" {
		result.SharedPath = base.SharedPath
	}

	result.AppName = overlay.AppName
	if result.AppName == "" {
		result.AppName = base.AppName
	}

	result.PollIntervalSeconds = overlay.PollIntervalSeconds
	if result.PollIntervalSeconds == 0 {
		result.PollIntervalSeconds = base.PollIntervalSeconds
	}

	result.DebounceMillis = overlay.DebounceMillis
	if result.DebounceMillis == 0 {
		result.DebounceMillis = base.DebounceMillis
	}

	result.EchoWindowSeconds = overlay.EchoWindowSeconds
	if result.EchoWindowSeconds == 0 {
		result.EchoWindowSeconds = base.EchoWindowSeconds
	}

	result.Bind = overlay.Bind
	if result.Bind == "" {
		result.Bind = base.Bind
	}

	result.Port = overlay.Port
	if result.Port == 0 {
		result.Port = base.Port
	}

	result.MaxNotesChars = overlay.MaxNotesChars
	if result.MaxNotesChars == 0 {
		result.MaxNotesChars = base.MaxNotesChars
	}

	result.S3 = overlay.S3
	if result.S3 == nil {
		result.S3 = base.S3
	}

	return result
}
