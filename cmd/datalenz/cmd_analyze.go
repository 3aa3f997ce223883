package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/datalenz/internal/artifacts"
	"github.com/user/datalenz/internal/config"
	"github.com/user/datalenz/internal/sessioncache"
	"github.com/user/datalenz/internal/tui"
	"github.com/user/datalenz/internal/types"
	"github.com/user/datalenz/internal/workspace"
)

var analyzeSessionID string

func init() {
	analyzeCmd.Flags().StringVar(&analyzeSessionID, "session", "", "restore an existing session instead of starting a new one")
	rootCmd.AddCommand(analyzeCmd)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Open the interactive analysis workspace",
	Args:  cobra.NoArgs,
	RunE:  runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	// slog writes to stderr by default, which fights the alternate screen.
	logFile, err := os.OpenFile(filepath.Join(cfg.DataDir, "datalenz.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	setupFileLogging(cfg, logFile)

	client := newBackendClient(cfg)
	store := workspace.NewStore()
	manager := workspace.NewManager(client, store)

	queue := workspace.NewQueue(int64(cfg.MaxConcurrent))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	queue.Start(ctx)
	defer queue.Stop()

	dispatcher := workspace.NewDispatcher(client, store, queue)
	sink := artifacts.NewSink(cfg.DataDir)
	sessions := sessioncache.New(client, time.Duration(cfg.SessionCacheTTL)*time.Second)

	estimator, err := workspace.NewTokenEstimator()
	if err != nil {
		slog.Warn("token estimator unavailable", "error", err)
		estimator = nil
	}

	if analyzeSessionID != "" {
		if err := manager.Restore(ctx, types.SessionID(analyzeSessionID)); err != nil {
			return fmt.Errorf("restore session %s: %w", analyzeSessionID, err)
		}
	} else {
		if err := manager.NewSession(ctx); err != nil {
			return fmt.Errorf("start session: %w", err)
		}
	}

	model := tui.New(manager, dispatcher, store, sink, estimator, sessions)
	return tui.Run(model)
}

func setupFileLogging(cfg *config.Config, f *os.File) {
	slog.SetDefault(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: logLevel(cfg)})))
}
