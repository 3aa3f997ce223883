package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/user/datalenz/internal/render"
	"github.com/user/datalenz/internal/types"
)

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionListCmd, sessionShowCmd, sessionDeleteCmd)
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage analysis sessions",
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)
		client := newBackendClient(cfg)

		list, err := client.ListSessions(context.Background())
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}

		if len(list) == 0 {
			fmt.Println("No sessions found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tACTIVE\tDATASET\tLAST ACTIVITY")
		for _, s := range list {
			dataset := "-"
			if s.Schema != nil {
				dataset = fmt.Sprintf("%d cols, %d rows", len(s.Schema.Columns), s.Schema.RowCount)
			}
			fmt.Fprintf(w, "%s\t%t\t%s\t%s\n", s.ID, s.IsActive, dataset, render.RelativeTime(s.LastActivity))
		}
		return w.Flush()
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one session's metadata and dataset schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)
		client := newBackendClient(cfg)

		s, err := client.GetSession(context.Background(), types.SessionID(args[0]))
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}

		fmt.Printf("ID:            %s\n", s.ID)
		fmt.Printf("Active:        %t\n", s.IsActive)
		fmt.Printf("Created:       %s\n", s.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("Last activity: %s (%s)\n", s.LastActivity.Format("2006-01-02 15:04:05"), render.RelativeTime(s.LastActivity))
		if s.Schema == nil {
			fmt.Println("Dataset:       none")
			return nil
		}

		fmt.Printf("Dataset:       %d columns, %d rows\n\n", len(s.Schema.Columns), s.Schema.RowCount)
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "COLUMN\tDTYPE\tNULLS\tUNIQUE")
		for _, col := range s.Schema.Columns {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", col.Name, col.Dtype, col.NullCount, col.UniqueCount)
		}
		return w.Flush()
	},
}

var sessionDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a session and its server-side history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)
		client := newBackendClient(cfg)

		// One-shot invocation has no workspace open, so the server-side
		// active marking is the only deletion policy that applies here.
		// The interactive /delete command additionally refuses the
		// session currently open in the workspace.
		id := types.SessionID(args[0])
		if err := client.DeleteSession(context.Background(), id); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		fmt.Printf("Session %s deleted.\n", id)
		return nil
	},
}
