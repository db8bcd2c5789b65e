// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "termhost.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return configPath
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Environment != Development {
		t.Errorf("expected environment=development, got %s", cfg.Environment)
	}
	if cfg.Listen.Address != "127.0.0.1:2323" {
		t.Errorf("expected address=127.0.0.1:2323, got %s", cfg.Listen.Address)
	}
	if !cfg.Listen.Telnet {
		t.Error("expected telnet=true")
	}
	if cfg.Session.IdleTimeout.Std() != 5*time.Minute {
		t.Errorf("expected idle_timeout=5m, got %s", cfg.Session.IdleTimeout)
	}
	if cfg.Observe.Compression != "zstd" {
		t.Errorf("expected compression=zstd, got %s", cfg.Observe.Compression)
	}
}

func TestLoad_RequiresTermhostConfig(t *testing.T) {
	t.Setenv("TERMHOST_CONFIG", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when TERMHOST_CONFIG not set, got nil")
	}
	if !strings.HasPrefix(err.Error(), "TERMHOST_CONFIG environment variable not set") {
		t.Errorf("unexpected error message %q", err.Error())
	}
}

func TestLoad_WithTermhostConfig(t *testing.T) {
	configPath := writeConfig(t, `
environment: staging
paths:
  root: /test/root
listen:
  address: 0.0.0.0:23
`)
	t.Setenv("TERMHOST_CONFIG", configPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Environment != Staging {
		t.Errorf("expected environment=staging, got %s", cfg.Environment)
	}
	if cfg.Paths.Root != "/test/root" {
		t.Errorf("expected root=/test/root, got %s", cfg.Paths.Root)
	}
	if cfg.Paths.Database != "/test/root/users.db" {
		t.Errorf("expected database under the root, got %s", cfg.Paths.Database)
	}
}

func TestLoadFile(t *testing.T) {
	configPath := writeConfig(t, `
environment: staging

system:
  name: The Dragon's Lair
  sysop: Smaug

listen:
  address: ":2424"
  telnet: false
  utf8: true

nodes:
  count: 8

session:
  bps: 9600
  ansi: false
  idle_timeout: 90s
  privileged_idle_timeout: 1h
  palette: [7, 11, 14]

observe:
  compression: lz4
`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.System.Name != "The Dragon's Lair" {
		t.Errorf("expected system name, got %q", cfg.System.Name)
	}
	if cfg.Listen.Telnet || !cfg.Listen.UTF8 {
		t.Errorf("expected telnet=false utf8=true, got %+v", cfg.Listen)
	}
	if cfg.Nodes.Count != 8 {
		t.Errorf("expected count=8, got %d", cfg.Nodes.Count)
	}
	if cfg.Session.BPS != 9600 || cfg.Session.ANSI {
		t.Errorf("expected bps=9600 ansi=false, got %+v", cfg.Session)
	}
	if cfg.Session.IdleTimeout.Std() != 90*time.Second {
		t.Errorf("expected idle_timeout=90s, got %s", cfg.Session.IdleTimeout)
	}
	if cfg.Session.PrivilegedIdleTimeout.Std() != time.Hour {
		t.Errorf("expected privileged_idle_timeout=1h, got %s", cfg.Session.PrivilegedIdleTimeout)
	}
	if len(cfg.Session.Palette) != 3 || cfg.Session.Palette[2] != 14 {
		t.Errorf("expected palette [7 11 14], got %v", cfg.Session.Palette)
	}
	// Unset fields keep their defaults.
	if cfg.Session.Height != 24 || !cfg.Session.Pause {
		t.Errorf("defaults lost: %+v", cfg.Session)
	}
	if cfg.Observe.Compression != "lz4" {
		t.Errorf("expected compression=lz4, got %s", cfg.Observe.Compression)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadFile_BadDuration(t *testing.T) {
	configPath := writeConfig(t, `
session:
  idle_timeout: forever
`)
	_, err := LoadFile(configPath)
	if err == nil {
		t.Fatal("expected error for an unparseable duration")
	}
	if !strings.Contains(err.Error(), "line 3") {
		t.Errorf("error does not name the line: %v", err)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	configPath := writeConfig(t, `
environment: production

paths:
  root: /default/root

session:
  idle_timeout: 10m

production:
  paths:
    root: /prod/root
  listen:
    address: 0.0.0.0:23
    telnet: true
  session:
    idle_timeout: 2m
  observe:
    enabled: false
`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Paths.Root != "/prod/root" {
		t.Errorf("expected root=/prod/root, got %s", cfg.Paths.Root)
	}
	if cfg.Listen.Address != "0.0.0.0:23" {
		t.Errorf("expected address=0.0.0.0:23, got %s", cfg.Listen.Address)
	}
	if cfg.Session.IdleTimeout.Std() != 2*time.Minute {
		t.Errorf("expected idle_timeout=2m, got %s", cfg.Session.IdleTimeout)
	}
	if cfg.Observe.Enabled {
		t.Error("expected observe disabled by the production override")
	}
}

func TestProductionDefaults(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, "environment: production\n"))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Session.IdleTimeout.Std() != 3*time.Minute {
		t.Errorf("expected production idle_timeout=3m, got %s", cfg.Session.IdleTimeout)
	}
	if cfg.Observe.HistoryBytes != 16*1024 {
		t.Errorf("expected production history_bytes=16384, got %d", cfg.Observe.HistoryBytes)
	}
}

func TestEnvVarsDoNotOverride(t *testing.T) {
	t.Setenv("TERMHOST_ROOT", "/env/root")
	t.Setenv("TERMHOST_ENVIRONMENT", "staging")

	cfg, err := LoadFile(writeConfig(t, `
environment: development
paths:
  root: /file/root
`))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Environment != Development {
		t.Errorf("expected environment=development from file, got %s", cfg.Environment)
	}
	if cfg.Paths.Root != "/file/root" {
		t.Errorf("expected root=/file/root from file, got %s", cfg.Paths.Root)
	}
	if cfg.Paths.Display != "/file/root/display" {
		t.Errorf("expected display under the file root, got %s", cfg.Paths.Display)
	}
}

func TestExpandVars(t *testing.T) {
	tests := []struct {
		input    string
		vars     map[string]string
		expected string
	}{
		{"${HOME}/termhost", map[string]string{"HOME": "/home/user"}, "/home/user/termhost"},
		{"${MISSING_TERMHOST_VAR:-default}", map[string]string{}, "default"},
		{"${PRESENT:-default}", map[string]string{"PRESENT": "value"}, "value"},
		{"${A}/${B}", map[string]string{"A": "first", "B": "second"}, "first/second"},
		{"no variables here", map[string]string{}, "no variables here"},
	}

	for _, tt := range tests {
		result := expandVars(tt.input, tt.vars)
		if result != tt.expected {
			t.Errorf("expandVars(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid default config", func(c *Config) {}, false},
		{"invalid environment", func(c *Config) { c.Environment = "invalid" }, true},
		{"empty address", func(c *Config) { c.Listen.Address = "" }, true},
		{"no nodes", func(c *Config) { c.Nodes.Count = 0 }, true},
		{"tiny screen", func(c *Config) { c.Session.Width = 10 }, true},
		{"negative bps", func(c *Config) { c.Session.BPS = -1 }, true},
		{"negative timeout", func(c *Config) { c.Session.IdleTimeout = Duration(-time.Second) }, true},
		{"long palette", func(c *Config) { c.Session.Palette = make([]int, 11) }, true},
		{"bad palette entry", func(c *Config) { c.Session.Palette = []int{256} }, true},
		{"empty root path", func(c *Config) { c.Paths.Root = "" }, true},
		{"unknown compression", func(c *Config) { c.Observe.Compression = "gzip" }, true},
		{"compression ignored when disabled", func(c *Config) {
			c.Observe.Enabled = false
			c.Observe.Compression = "gzip"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.expandVariables()
			tt.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnsurePaths(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := Default()
	cfg.Paths.Root = filepath.Join(tmpDir, "termhost")
	cfg.expandVariables()

	if err := cfg.EnsurePaths(); err != nil {
		t.Fatalf("EnsurePaths failed: %v", err)
	}

	for _, path := range []string{cfg.Paths.Root, cfg.Paths.Display, cfg.Paths.ObserveSockets} {
		info, err := os.Stat(path)
		if err != nil {
			t.Errorf("path %s not created: %v", path, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("path %s is not a directory", path)
		}
	}
}
