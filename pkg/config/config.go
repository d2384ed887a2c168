// Package config loads the YAML configuration file, applies environment
// overrides and command-line flags, and exposes the effective settings.
package config

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Addr returns host:port for the HTTP server.
func (c *Config) Addr() string {
	addr := c.Server.Address
	if addr == "" {
		addr = "0.0.0.0"
	}
	p := c.Server.Port
	if p == 0 {
		p = 8080
	}
	return fmt.Sprintf("%s:%d", addr, p)
}

// Load reads and parses the YAML config file at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Flags holds parsed command-line flag values and which were set.
type Flags struct {
	Addr   string
	Config string
	Set    map[string]bool
}

// ParseFlags defines and parses command-line flags.
func ParseFlags() Flags {
	addrPtr := flag.String("addr", ":8080", "HTTP listen address")
	cfgPtr := flag.String("config", "./config.yaml", "Path to config file")
	flag.Parse()
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return Flags{Addr: *addrPtr, Config: *cfgPtr, Set: set}
}

// ResolveConfigPath decides the config file path using the flag-provided
// value and CHATSTORE_CONFIG when the flag was not set.
func ResolveConfigPath(flagPath string, flagSet bool) string {
	if flagSet {
		return flagPath
	}
	if p := os.Getenv("CHATSTORE_CONFIG"); p != "" {
		return p
	}
	return flagPath
}

// ApplyEnvOverrides applies environment overrides onto cfg and reports
// whether any env vars were used.
func ApplyEnvOverrides(cfg *Config) bool {
	envUsed := false

	if v := os.Getenv("CHATSTORE_ADDR"); v != "" {
		envUsed = true
		if h, p, err := net.SplitHostPort(v); err == nil {
			cfg.Server.Address = h
			if pi, err := strconv.Atoi(p); err == nil {
				cfg.Server.Port = pi
			}
		} else {
			cfg.Server.Address = v
		}
	}
	if v := os.Getenv("CHATSTORE_LOG_LEVEL"); v != "" {
		envUsed = true
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CHATSTORE_HISTORY_CAP"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envUsed = true
			cfg.Store.HistoryCap = n
		}
	}
	if v := os.Getenv("CHATSTORE_HISTORY_KEEP"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envUsed = true
			cfg.Store.HistoryKeep = n
		}
	}
	if v := os.Getenv("CHATSTORE_QUEUE_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envUsed = true
			cfg.Ingest.Queue.Capacity = n
		}
	}
	if v := os.Getenv("CHATSTORE_PROVIDER_RPS"); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			envUsed = true
			cfg.Provider.RPS = f
		}
	}
	if v := os.Getenv("CHATSTORE_PROVIDER_BURST"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envUsed = true
			cfg.Provider.Burst = n
		}
	}
	if v := os.Getenv("CHATSTORE_WAIT_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envUsed = true
			cfg.Provider.WaitAttempts = n
		}
	}
	if v := os.Getenv("CHATSTORE_WAIT_INTERVAL"); v != "" {
		if td, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			envUsed = true
			cfg.Provider.WaitInterval = Duration(td)
		}
	}
	if v := os.Getenv("CHATSTORE_OWN_IDENTITY"); v != "" {
		envUsed = true
		cfg.Session.OwnIdentity = v
	}
	if v := os.Getenv("CHATSTORE_PROVIDER_URL"); v != "" {
		envUsed = true
		cfg.Session.ProviderURL = v
	}
	if v := os.Getenv("CHATSTORE_RESYNC_CRON"); v != "" {
		envUsed = true
		cfg.Resync.Enabled = true
		cfg.Resync.Cron = v
	}
	return envUsed
}

// LoadEffective loads config from path (missing file yields defaults) and
// applies environment overrides on top.
func LoadEffective(path string) (*Config, bool, error) {
	cfg, err := Load(path)
	if err != nil {
		if !strings.Contains(err.Error(), "not found") {
			return nil, false, err
		}
		cfg = &Config{}
	}
	envUsed := ApplyEnvOverrides(cfg)
	return cfg, envUsed, nil
}
