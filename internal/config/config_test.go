// Copyright (c) 2026 TeamRadar Project. All rights reserved.
// Use of this source code is governed by the TeamRadar License
// that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadServerConfig_ExampleFile(t *testing.T) {
	cfgPath := filepath.Join("..", "..", "configs", "server.example.yaml")
	cfg, err := LoadServerConfig(cfgPath)
	if err != nil {
		t.Fatalf("failed to load server example config: %v", err)
	}

	if cfg.Server.Listen != ":12345" {
		t.Errorf("expected listen ':12345', got %q", cfg.Server.Listen)
	}
	if cfg.Database.Path != "/var/lib/teamradar/teamradar.db" {
		t.Errorf("unexpected database path %q", cfg.Database.Path)
	}
	if cfg.Photos.Backend != "local" {
		t.Errorf("expected photos backend 'local', got %q", cfg.Photos.Backend)
	}
	if cfg.Photos.Path != "/var/lib/teamradar/photos" {
		t.Errorf("unexpected photos path %q", cfg.Photos.Path)
	}
	if cfg.Limits.WriteQueue != 256 {
		t.Errorf("expected write_queue 256, got %d", cfg.Limits.WriteQueue)
	}
	if cfg.Retention.Schedule != "0 3 * * *" {
		t.Errorf("unexpected retention schedule %q", cfg.Retention.Schedule)
	}
	if cfg.Retention.MaxAge != 2160*time.Hour {
		t.Errorf("expected max_age 2160h, got %v", cfg.Retention.MaxAge)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected logging level 'info', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.File != "/var/log/teamradar/server.log" {
		t.Errorf("unexpected logging file %q", cfg.Logging.File)
	}
	if cfg.StatsInterval != 15*time.Second {
		t.Errorf("expected stats_interval 15s, got %v", cfg.StatsInterval)
	}
	if !cfg.WebUI.Enabled {
		t.Error("expected web_ui enabled")
	}
	if len(cfg.WebUI.ParsedCIDRs) != 2 {
		t.Fatalf("expected 2 parsed CIDRs, got %d", len(cfg.WebUI.ParsedCIDRs))
	}
	// IP único vira /32
	if cfg.WebUI.ParsedCIDRs[0].String() != "127.0.0.1/32" {
		t.Errorf("expected 127.0.0.1/32, got %s", cfg.WebUI.ParsedCIDRs[0])
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadServerConfig_Defaults(t *testing.T) {
	cfg, err := LoadServerConfig(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatalf("LoadServerConfig: %v", err)
	}

	if cfg.Server.Listen != ":12345" {
		t.Errorf("expected default listen ':12345', got %q", cfg.Server.Listen)
	}
	if cfg.Database.Path != "teamradar.db" {
		t.Errorf("expected default database path, got %q", cfg.Database.Path)
	}
	if cfg.Photos.Backend != "local" || cfg.Photos.Path != "./Photos" {
		t.Errorf("unexpected photo defaults: %q %q", cfg.Photos.Backend, cfg.Photos.Path)
	}
	if cfg.Limits.WriteQueue != 256 {
		t.Errorf("expected default write_queue 256, got %d", cfg.Limits.WriteQueue)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging defaults: %q %q", cfg.Logging.Level, cfg.Logging.Format)
	}
	if cfg.StatsInterval != 15*time.Second {
		t.Errorf("expected default stats_interval 15s, got %v", cfg.StatsInterval)
	}
}

func TestLoadServerConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad photo backend", "photos:\n  backend: ftp\n"},
		{"s3 without bucket", "photos:\n  backend: s3\n"},
		{"negative write rate", "limits:\n  write_rate: -1\n"},
		{"web ui without origins", "web_ui:\n  enabled: true\n"},
		{"bad origin", "web_ui:\n  enabled: true\n  allow_origins: [\"not-an-ip\"]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadServerConfig(writeConfig(t, tt.content)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadServerConfig_RetentionDefaultMaxAge(t *testing.T) {
	cfg, err := LoadServerConfig(writeConfig(t, "retention:\n  schedule: \"0 3 * * *\"\n"))
	if err != nil {
		t.Fatalf("LoadServerConfig: %v", err)
	}
	if cfg.Retention.MaxAge != 2160*time.Hour {
		t.Errorf("expected default max_age 2160h, got %v", cfg.Retention.MaxAge)
	}
}

func TestLoadServerConfig_MissingFile(t *testing.T) {
	if _, err := LoadServerConfig("/nonexistent/server.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}
