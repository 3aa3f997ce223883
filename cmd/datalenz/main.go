package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/datalenz/internal/backend"
	"github.com/user/datalenz/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "datalenz",
	Short:        "Conversational data analysis from your terminal",
	Long:         "datalenz is a terminal client for the DataLenz analysis service: upload a dataset, ask questions in plain language, and inspect the generated code, output, and charts.",
	SilenceUsage: true,
	RunE:         runAnalyze,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "config file path")
}

func loadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func logLevel(cfg *config.Config) slog.Level {
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func setupLogging(cfg *config.Config) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel(cfg)})))
}

// newBackendClient builds the gateway client. The environment token wins
// over the configured one so a re-authenticated shell takes effect
// without editing the config file.
func newBackendClient(cfg *config.Config) *backend.Client {
	tokens := backend.ChainToken{
		backend.EnvToken(cfg.API.TokenEnv),
		backend.StaticToken(cfg.API.Token),
	}
	return backend.New(cfg.API.BaseURL, tokens)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
