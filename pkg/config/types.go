package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the main configuration struct.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
	Store    StoreConfig    `yaml:"store"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Provider ProviderConfig `yaml:"provider"`
	Resync   ResyncConfig   `yaml:"resync"`
	Session  SessionConfig  `yaml:"session"`
}

// SessionConfig identifies the local account and the group-metadata
// provider endpoint.
type SessionConfig struct {
	OwnIdentity string `yaml:"own_identity"`
	ProviderURL string `yaml:"provider_url"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// StoreConfig tunes the in-memory conversation store.
type StoreConfig struct {
	// HistoryCap is the per-conversation message count that triggers a
	// trim; HistoryKeep is how many most-recent messages survive it.
	HistoryCap  int `yaml:"history_cap"`
	HistoryKeep int `yaml:"history_keep"`
}

// IngestConfig holds queueing configuration.
type IngestConfig struct {
	Queue QueueConfig `yaml:"queue"`
}

// QueueConfig tunes the in-memory event queue.
type QueueConfig struct {
	Capacity int `yaml:"capacity"`
}

// ProviderConfig tunes calls to the external group-metadata provider.
type ProviderConfig struct {
	RPS          float64  `yaml:"rps"`
	Burst        int      `yaml:"burst"`
	WaitAttempts int      `yaml:"wait_attempts"`
	WaitInterval Duration `yaml:"wait_interval"`
}

// ResyncConfig controls the scheduled full group resync.
type ResyncConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cron    string `yaml:"cron"`
}

// Duration is a wrapper around time.Duration that supports YAML parsing
// from strings like "100ms" or plain numbers (interpreted as seconds).
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		*d = Duration(0)
		return nil
	}
	raw := strings.TrimSpace(node.Value)
	if raw == "" {
		*d = Duration(0)
		return nil
	}
	if td, err := time.ParseDuration(raw); err == nil {
		*d = Duration(td)
		return nil
	}
	// allow numeric seconds
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		*d = Duration(time.Duration(f * float64(time.Second)))
		return nil
	}
	return fmt.Errorf("invalid duration value: %q", node.Value)
}

func (d Duration) Duration() time.Duration { return time.Duration(d) }
