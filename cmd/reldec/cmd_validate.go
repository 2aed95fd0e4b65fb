package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reldec/reldec/usecase/release"
)

func newCmdValidate() *cobra.Command {
	var file string
	c := &cobra.Command{
		Use:   "validate",
		Short: "Validate a release configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			set, opts, err := loadReleaseSet(file)
			if err != nil {
				return err
			}
			u, err := buildUseCase(cmd, opts, false)
			if err != nil {
				return err
			}
			out, err := u.Validate(cmd.Context(), &release.ValidateInput{Set: set})
			if err != nil {
				return err
			}
			for _, v := range out.Report.Violations {
				fmt.Fprintln(cmd.OutOrStdout(), v.String())
			}
			if blocking := out.Report.Blocking(); len(blocking) > 0 {
				return fmt.Errorf("release %q has %d blocking violations", set.Name, len(blocking))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "release %q valid (%d warnings)\n", set.Name, len(out.Report.Warnings()))
			return nil
		},
	}
	c.Flags().StringVarP(&file, "file", "f", defaultConfigPath, "Path to release.yml")
	return c
}
