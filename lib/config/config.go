// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for a sysop's own machine.
	Development Environment = "development"
	// Staging is for a test board.
	Staging Environment = "staging"
	// Production is for a board open to callers.
	Production Environment = "production"
)

// Compression names accepted by observe.compression.
var compressionNames = []string{"none", "lz4", "zstd"}

// Config is the termhost configuration.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment"`

	// System describes the board for the system.* variables.
	System SystemConfig `yaml:"system"`

	Listen  ListenConfig  `yaml:"listen"`
	Nodes   NodesConfig   `yaml:"nodes"`
	Session SessionConfig `yaml:"session"`
	Paths   PathsConfig   `yaml:"paths"`
	Observe ObserveConfig `yaml:"observe"`

	// Per-environment overrides, applied after the base config is loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Listen  *ListenConfig  `yaml:"listen,omitempty"`
	Nodes   *NodesConfig   `yaml:"nodes,omitempty"`
	Session *SessionConfig `yaml:"session,omitempty"`
	Paths   *PathsConfig   `yaml:"paths,omitempty"`
	Observe *ObserveConfig `yaml:"observe,omitempty"`
}

// SystemConfig names the board.
type SystemConfig struct {
	Name  string `yaml:"name"`
	Sysop string `yaml:"sysop"`
	Phone string `yaml:"phone"`
}

// ListenConfig configures the caller-facing listener.
type ListenConfig struct {
	// Address is the TCP address to accept callers on.
	// Default: 127.0.0.1:2323
	Address string `yaml:"address"`

	// Telnet enables option negotiation (echo, suppress go-ahead, window
	// size). Disable for raw TCP clients.
	// Default: true
	Telnet bool `yaml:"telnet"`

	// UTF8 translates CP437 output to UTF-8 for modern clients.
	// Default: false
	UTF8 bool `yaml:"utf8"`
}

// NodesConfig configures how many callers can be on at once.
type NodesConfig struct {
	// Count is the number of nodes. Callers beyond this are told the
	// board is busy.
	// Default: 4
	Count int `yaml:"count"`
}

// SessionConfig holds the defaults for every session.
type SessionConfig struct {
	// Width and Height are used until the client reports its size.
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	// BPS caps output speed. 0 is unlimited.
	BPS int `yaml:"bps"`

	ANSI  bool `yaml:"ansi"`
	Pause bool `yaml:"pause"`

	// IdleTimeout and PrivilegedIdleTimeout disconnect callers who press
	// nothing for that long. Durations use time.ParseDuration syntax.
	IdleTimeout           Duration `yaml:"idle_timeout"`
	PrivilegedIdleTimeout Duration `yaml:"privileged_idle_timeout"`

	// TimeLimit is the time allowed per call.
	TimeLimit Duration `yaml:"time_limit"`

	// PollInterval is how often waits stop to deliver messages.
	PollInterval Duration `yaml:"poll_interval"`

	// PrivilegedLevel is the security level at and above which the
	// privileged idle timeout and sysop keys apply.
	// Default: 200
	PrivilegedLevel int `yaml:"privileged_level"`

	// Palette overrides the user colors selected by |#0 through |#9.
	Palette []int `yaml:"palette,omitempty"`
}

// PathsConfig configures file locations.
type PathsConfig struct {
	// Root is the base directory for termhost data.
	Root string `yaml:"root"`

	// Database is the SQLite user database.
	Database string `yaml:"database"`

	// Display is the directory of .ans, .msg and .md display files.
	Display string `yaml:"display"`

	// Strings is an optional JSONC file overriding prompt strings.
	Strings string `yaml:"strings"`

	// ObserveSockets is where per-daemon observer sockets are created.
	ObserveSockets string `yaml:"observe_sockets"`
}

// ObserveConfig configures the sysop observer.
type ObserveConfig struct {
	Enabled bool `yaml:"enabled"`

	// HistoryBytes is how much recent output per node is replayed to a
	// newly attached observer.
	// Default: 65536
	HistoryBytes int `yaml:"history_bytes"`

	// Compression applied to replayed history: none, lz4, or zstd.
	// Default: zstd
	Compression string `yaml:"compression"`
}

// Duration is a time.Duration written as a string ("90s", "5m").
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var text string
	if err := node.Decode(&text); err != nil {
		return fmt.Errorf("line %d: duration must be a string: %w", node.Line, err)
	}
	parsed, err := time.ParseDuration(text)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) { return d.String(), nil }

// Default returns the default configuration.
// These defaults are used as a base before loading the config file.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".local", "share", "termhost")

	return &Config{
		Environment: Development,
		System: SystemConfig{
			Name:  "termhost",
			Sysop: "Sysop",
		},
		Listen: ListenConfig{
			Address: "127.0.0.1:2323",
			Telnet:  true,
		},
		Nodes: NodesConfig{Count: 4},
		Session: SessionConfig{
			Width:                 80,
			Height:                24,
			ANSI:                  true,
			Pause:                 true,
			IdleTimeout:           Duration(5 * time.Minute),
			PrivilegedIdleTimeout: Duration(30 * time.Minute),
			TimeLimit:             Duration(time.Hour),
			PollInterval:          Duration(time.Second),
			PrivilegedLevel:       200,
		},
		Paths: PathsConfig{
			Root:           defaultRoot,
			Database:       "${TERMHOST_ROOT}/users.db",
			Display:        "${TERMHOST_ROOT}/display",
			ObserveSockets: "${TERMHOST_ROOT}/observe",
		},
		Observe: ObserveConfig{
			Enabled:      true,
			HistoryBytes: 64 * 1024,
			Compression:  "zstd",
		},
	}
}

// Load loads configuration from the TERMHOST_CONFIG environment variable.
//
// There are no fallbacks: if TERMHOST_CONFIG is not set, this fails.
func Load() (*Config, error) {
	configPath := os.Getenv("TERMHOST_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("TERMHOST_CONFIG environment variable not set; " +
			"set it to the path of your termhost.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// Environment variables never override config values. The only expansion
// is ${TERMHOST_ROOT}, ${HOME} and ${VAR:-default} patterns in paths.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, c)
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		// Production defaults: callers are strangers, so idle limits are
		// enforced and the observer keeps less history.
		if overrides == nil {
			overrides = &ConfigOverrides{
				Session: &SessionConfig{
					IdleTimeout: Duration(3 * time.Minute),
				},
				Observe: &ObserveConfig{
					Enabled:      true,
					HistoryBytes: 16 * 1024,
				},
			}
		}
	}

	if overrides == nil {
		return
	}

	if o := overrides.Listen; o != nil {
		if o.Address != "" {
			c.Listen.Address = o.Address
		}
		// Booleans always apply from an override section.
		c.Listen.Telnet = o.Telnet
		c.Listen.UTF8 = o.UTF8
	}

	if o := overrides.Nodes; o != nil && o.Count != 0 {
		c.Nodes.Count = o.Count
	}

	if o := overrides.Session; o != nil {
		setInt(&c.Session.Width, o.Width)
		setInt(&c.Session.Height, o.Height)
		setInt(&c.Session.BPS, o.BPS)
		setInt(&c.Session.PrivilegedLevel, o.PrivilegedLevel)
		setDuration(&c.Session.IdleTimeout, o.IdleTimeout)
		setDuration(&c.Session.PrivilegedIdleTimeout, o.PrivilegedIdleTimeout)
		setDuration(&c.Session.TimeLimit, o.TimeLimit)
		setDuration(&c.Session.PollInterval, o.PollInterval)
		if len(o.Palette) > 0 {
			c.Session.Palette = o.Palette
		}
	}

	if o := overrides.Paths; o != nil {
		setString(&c.Paths.Root, o.Root)
		setString(&c.Paths.Database, o.Database)
		setString(&c.Paths.Display, o.Display)
		setString(&c.Paths.Strings, o.Strings)
		setString(&c.Paths.ObserveSockets, o.ObserveSockets)
	}

	if o := overrides.Observe; o != nil {
		c.Observe.Enabled = o.Enabled
		setInt(&c.Observe.HistoryBytes, o.HistoryBytes)
		setString(&c.Observe.Compression, o.Compression)
	}
}

func setString(target *string, value string) {
	if value != "" {
		*target = value
	}
}

func setInt(target *int, value int) {
	if value != 0 {
		*target = value
	}
}

func setDuration(target *Duration, value Duration) {
	if value != 0 {
		*target = value
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"TERMHOST_ROOT": c.Paths.Root,
		"HOME":          os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["TERMHOST_ROOT"] = c.Paths.Root // Update for dependent paths.

	c.Paths.Database = expandVars(c.Paths.Database, vars)
	c.Paths.Display = expandVars(c.Paths.Display, vars)
	c.Paths.Strings = expandVars(c.Paths.Strings, vars)
	c.Paths.ObserveSockets = expandVars(c.Paths.ObserveSockets, vars)
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

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Listen.Address == "" {
		errs = append(errs, errors.New("listen.address is required"))
	}
	if c.Nodes.Count < 1 {
		errs = append(errs, fmt.Errorf("nodes.count must be at least 1, got %d", c.Nodes.Count))
	}

	if c.Session.Width < 20 || c.Session.Height < 5 {
		errs = append(errs, fmt.Errorf("session screen %dx%d is smaller than 20x5", c.Session.Width, c.Session.Height))
	}
	if c.Session.BPS < 0 {
		errs = append(errs, fmt.Errorf("session.bps must not be negative, got %d", c.Session.BPS))
	}
	for name, value := range map[string]Duration{
		"session.idle_timeout":            c.Session.IdleTimeout,
		"session.privileged_idle_timeout": c.Session.PrivilegedIdleTimeout,
		"session.time_limit":              c.Session.TimeLimit,
		"session.poll_interval":           c.Session.PollInterval,
	} {
		if value < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %s", name, value))
		}
	}
	if len(c.Session.Palette) > 10 {
		errs = append(errs, fmt.Errorf("session.palette has %d entries, at most 10 allowed", len(c.Session.Palette)))
	}
	for i, attr := range c.Session.Palette {
		if attr < 0 || attr > 0xFF {
			errs = append(errs, fmt.Errorf("session.palette[%d] = %d is not a color attribute", i, attr))
		}
	}

	if c.Paths.Root == "" {
		errs = append(errs, errors.New("paths.root is required"))
	}
	if c.Paths.Database == "" {
		errs = append(errs, errors.New("paths.database is required"))
	}

	if c.Observe.Enabled {
		if c.Paths.ObserveSockets == "" {
			errs = append(errs, errors.New("paths.observe_sockets is required when observe is enabled"))
		}
		if c.Observe.HistoryBytes < 0 {
			errs = append(errs, fmt.Errorf("observe.history_bytes must not be negative, got %d", c.Observe.HistoryBytes))
		}
		if !slices.Contains(compressionNames, c.Observe.Compression) {
			errs = append(errs, fmt.Errorf("observe.compression must be one of: %v", compressionNames))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EnsurePaths creates all configured directories if they don't exist.
func (c *Config) EnsurePaths() error {
	paths := []string{
		c.Paths.Root,
		c.Paths.Display,
		filepath.Dir(c.Paths.Database),
	}
	if c.Observe.Enabled {
		paths = append(paths, c.Paths.ObserveSockets)
	}

	for _, path := range paths {
		if path == "" || path == "." {
			continue
		}
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}

	return nil
}
