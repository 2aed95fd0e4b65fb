package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reldec/reldec/internal/logging"
	"github.com/reldec/reldec/usecase/release"
)

func newCmdDiff() *cobra.Command {
	var file, previous string
	var store bool
	c := &cobra.Command{
		Use:   "diff",
		Short: "Render a release and diff it against a previous rendering",
		Long: "Renders the release and compares it against either a manifest file\n" +
			"(--previous) or the latest stored snapshot.",
		RunE: func(cmd *cobra.Command, args []string) error {
			set, opts, err := loadReleaseSet(file)
			if err != nil {
				return err
			}
			in := &release.DiffInput{Set: set, Store: store}
			if previous != "" {
				data, err := os.ReadFile(previous)
				if err != nil {
					return fmt.Errorf("failed to read previous manifest %s: %w", previous, err)
				}
				in.Previous = string(data)
			}
			// Snapshot store is needed both for --store and for the implicit
			// diff-against-latest baseline.
			u, err := buildUseCase(cmd, opts, store || previous == "")
			if err != nil {
				return err
			}
			out, err := u.Diff(cmd.Context(), in)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			for _, w := range out.Warnings {
				logging.FromContext(ctx).Warn(ctx, "validation warning", "violation", w.String())
			}
			fmt.Fprint(cmd.OutOrStdout(), out.Plan.String())
			return nil
		},
	}
	c.Flags().StringVarP(&file, "file", "f", defaultConfigPath, "Path to release.yml")
	c.Flags().StringVar(&previous, "previous", "", "Manifest file to diff against (default: latest snapshot)")
	c.Flags().BoolVar(&store, "store", false, "Save the new rendering as a snapshot after diffing")
	return c
}
