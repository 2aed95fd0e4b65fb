package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/reldec/reldec/internal/logging"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reldec",
		Short:   "Release descriptor compiler",
		Long:    "reldec validates, renders and diffs deployment descriptors for a release of services.",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Show help by default when no subcommand is provided.
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultDB := os.Getenv("RELDEC_DB_URL")
	if defaultDB == "" {
		defaultDB = "sqlite:reldec.db"
	}
	cmd.PersistentFlags().String("db-url", defaultDB, "Snapshot database URL (env RELDEC_DB_URL) (sqlite:/path/to.db)")
	cmd.PersistentFlags().String("log-format", "text", "Log format (text|json) (env RELDEC_LOG_FORMAT)")

	cmd.PersistentPreRunE = func(c *cobra.Command, _ []string) error {
		format, _ := c.Flags().GetString("log-format")
		if env := os.Getenv("RELDEC_LOG_FORMAT"); env != "" { // env overrides flag
			format = env
		}
		l, err := logging.New(format, slog.LevelInfo)
		if err != nil {
			return err
		}
		c.SetContext(logging.WithLogger(c.Context(), l))
		return nil
	}

	cmd.AddCommand(newCmdVersion())
	cmd.AddCommand(newCmdValidate())
	cmd.AddCommand(newCmdRender())
	cmd.AddCommand(newCmdDiff())
	return cmd
}

func main() {
	root := newRootCmd()
	root.SetContext(context.Background())
	executed, err := root.ExecuteC()
	if err != nil {
		ctx := root.Context()
		if executed != nil {
			ctx = executed.Context()
		}
		logging.FromContext(ctx).Errorf(ctx, "Failed: %s", err)
		os.Exit(1)
	}
}
