package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/user/datalenz/internal/types"
)

var uploadSessionID string

func init() {
	uploadCmd.Flags().StringVar(&uploadSessionID, "session", "", "upload into an existing session")
	rootCmd.AddCommand(uploadCmd)
}

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a dataset, starting a new session unless one is given",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)
		client := newBackendClient(cfg)
		ctx := context.Background()

		sessionID := types.SessionID(uploadSessionID)
		if sessionID == "" {
			session, err := client.CreateSession(ctx)
			if err != nil {
				return fmt.Errorf("create session: %w", err)
			}
			sessionID = session.ID
		}

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open dataset: %w", err)
		}
		defer f.Close()

		result, err := client.UploadDataset(ctx, sessionID, filepath.Base(args[0]), f)
		if err != nil {
			return fmt.Errorf("upload dataset: %w", err)
		}

		fmt.Printf("Uploaded %s to session %s: %d columns, %d rows.\n",
			result.Filename, sessionID, len(result.Schema.Columns), result.Schema.RowCount)

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "COLUMN\tDTYPE")
		for _, col := range result.Schema.Columns {
			fmt.Fprintf(w, "%s\t%s\n", col.Name, col.Dtype)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		fmt.Printf("\nContinue with: datalenz analyze --session %s\n", sessionID)
		return nil
	},
}
