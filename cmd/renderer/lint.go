package main

import (
	"github.com/spf13/cobra"

	"concourse/pipeline-renderer/pkg/tools"
)

func newLintCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "lint [dir]",
		Short:             "Run pycodestyle on the python sources of a directory",
		Args:              cobra.MaximumNArgs(1),
		DisableAutoGenTag: true,
		SilenceErrors:     true,
		SilenceUsage:      true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return tools.Lint(cmd.Context(), dir, cmd.OutOrStdout())
		},
	}
}
