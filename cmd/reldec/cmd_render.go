package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reldec/reldec/internal/logging"
	"github.com/reldec/reldec/usecase/release"
)

func newCmdRender() *cobra.Command {
	var file, output string
	var store bool
	c := &cobra.Command{
		Use:   "render",
		Short: "Render a release into Kubernetes manifests",
		RunE: func(cmd *cobra.Command, args []string) error {
			set, opts, err := loadReleaseSet(file)
			if err != nil {
				return err
			}
			u, err := buildUseCase(cmd, opts, store)
			if err != nil {
				return err
			}
			out, err := u.Render(cmd.Context(), &release.RenderInput{Set: set, Store: store})
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			for _, w := range out.Warnings {
				logging.FromContext(ctx).Warn(ctx, "validation warning", "violation", w.String())
			}
			if output == "" || output == "-" {
				fmt.Fprint(cmd.OutOrStdout(), out.Manifest)
				return nil
			}
			if err := os.WriteFile(output, []byte(out.Manifest), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			return nil
		},
	}
	c.Flags().StringVarP(&file, "file", "f", defaultConfigPath, "Path to release.yml")
	c.Flags().StringVarP(&output, "output", "o", "", "Write manifest to file instead of stdout")
	c.Flags().BoolVar(&store, "store", false, "Save the rendered manifest as a snapshot")
	return c
}
