package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/datalenz/internal/artifacts"
	"github.com/user/datalenz/internal/render"
	"github.com/user/datalenz/internal/types"
)

var querySessionID string

func init() {
	queryCmd.Flags().StringVar(&querySessionID, "session", "", "session to query (required)")
	queryCmd.MarkFlagRequired("session")
	rootCmd.AddCommand(queryCmd)
}

var queryCmd = &cobra.Command{
	Use:   "query <question>",
	Short: "Run a single analysis question against a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)
		client := newBackendClient(cfg)
		ctx := context.Background()

		sessionID := types.SessionID(querySessionID)
		session, err := client.GetSession(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}
		if session.Schema == nil {
			return fmt.Errorf("session %s has no dataset; upload one first", sessionID)
		}

		resp, err := client.SubmitQuery(ctx, sessionID, args[0])
		if err != nil {
			return fmt.Errorf("submit query: %w", err)
		}

		r, err := render.New(100)
		if err != nil {
			return fmt.Errorf("init renderer: %w", err)
		}

		if plan := r.Plan(&resp.Plan); plan != "" {
			fmt.Println(plan)
		}
		fmt.Println(r.Result(&resp.Result))

		if len(resp.Result.Artifacts) > 0 {
			sink := artifacts.NewSink(cfg.DataDir)
			recordID := types.NewRecordID()
			saved, err := sink.SaveAll(sessionID, recordID, resp.Result.Artifacts)
			if err != nil {
				return fmt.Errorf("save artifacts: %w", err)
			}
			savedIdx := 0
			for i := range resp.Result.Artifacts {
				a := &resp.Result.Artifacts[i]
				path := ""
				if a.Type == types.ArtifactChart && savedIdx < len(saved) {
					path = saved[savedIdx].Path
				}
				if a.Type != types.ArtifactError {
					savedIdx++
				}
				fmt.Println(r.Artifact(a, path))
			}
		}

		if retries := resp.Result.Retries(); retries > 0 {
			fmt.Printf("\nCompleted after %d automatic correction(s).\n", retries)
		}
		return nil
	},
}
