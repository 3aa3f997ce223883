package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadWritesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.BaseURL != "http://localhost:8000" {
		t.Errorf("base URL = %q, want default", cfg.API.BaseURL)
	}
	if cfg.API.TokenEnv != "DATALENZ_TOKEN" {
		t.Errorf("token env = %q", cfg.API.TokenEnv)
	}
	if cfg.SessionCacheTTL != 30 {
		t.Errorf("session cache TTL = %d, want 30", cfg.SessionCacheTTL)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("defaults not written: %v", err)
	}
	var onDisk Config
	if err := json.Unmarshal(data, &onDisk); err != nil {
		t.Fatalf("written config not valid JSON: %v", err)
	}
	if onDisk.LogLevel != "info" {
		t.Errorf("on-disk log level = %q", onDisk.LogLevel)
	}
}

func TestLoadReadsExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{"log_level":"debug","max_concurrent":4,"api":{"base_url":"https://analysis.example.com","token":"secret"}}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q, want debug", cfg.LogLevel)
	}
	if cfg.MaxConcurrent != 4 {
		t.Errorf("max concurrent = %d, want 4", cfg.MaxConcurrent)
	}
	if cfg.API.BaseURL != "https://analysis.example.com" {
		t.Errorf("base URL = %q", cfg.API.BaseURL)
	}
	if cfg.API.Token != "secret" {
		t.Errorf("token = %q", cfg.API.Token)
	}
}

func TestLoadEnvOverridesBaseURL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	t.Setenv("DATALENZ_API_URL", "http://10.0.0.5:9000")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.BaseURL != "http://10.0.0.5:9000" {
		t.Errorf("base URL = %q, want env override", cfg.API.BaseURL)
	}
}

func TestLoadRejectsMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed config")
	}
}
