package main

import (
	"github.com/spf13/cobra"

	"concourse/pipeline-renderer/pkg/tools"
)

func newDocsCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "docs",
		Short:             "Build the documentation from SOURCE_PATH into the gh-pages worktree GH_PAGES_PATH",
		DisableAutoGenTag: true,
		SilenceErrors:     true,
		SilenceUsage:      true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := tools.LoadDocsConfig()
			if err != nil {
				return err
			}
			_, err = tools.GenerateDocumentation(cmd.Context(), cfg, tools.SphinxBuilder)
			return err
		},
	}
}
