package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type Config struct {
	DataDir         string `json:"data_dir"`
	LogLevel        string `json:"log_level"`
	MaxConcurrent   int    `json:"max_concurrent"`
	SessionCacheTTL int    `json:"session_cache_ttl_seconds"`
	API             struct {
		BaseURL  string `json:"base_url"`
		Token    string `json:"token"`
		TokenEnv string `json:"token_env"`
	} `json:"api"`
}

// DefaultPath returns the standard config file location.
func DefaultPath() string {
	return filepath.Join(os.Getenv("HOME"), ".datalenz", "config.json")
}

// Load reads the config file at path, writing defaults on first run. The
// DATALENZ_API_URL environment variable overrides the configured base URL.
func Load(path string) (*Config, error) {
	cfg := &Config{
		DataDir:         filepath.Join(os.Getenv("HOME"), ".datalenz"),
		LogLevel:        "info",
		MaxConcurrent:   2,
		SessionCacheTTL: 30,
	}
	cfg.API.BaseURL = "http://localhost:8000"
	cfg.API.TokenEnv = "DATALENZ_TOKEN"

	// Load from file if exists, otherwise write defaults
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if os.IsNotExist(err) {
		if err := writeDefaults(path, cfg); err != nil {
			return nil, err
		}
	}

	// Override from env (highest precedence)
	if baseURL := os.Getenv("DATALENZ_API_URL"); baseURL != "" {
		cfg.API.BaseURL = baseURL
	}

	return cfg, nil
}

func writeDefaults(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	data = append(data, '\n')
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename default config: %w", err)
	}
	return nil
}
