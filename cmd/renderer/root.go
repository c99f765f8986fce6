package main

import (
	"context"

	"github.com/spf13/cobra"

	"concourse/pipeline-renderer/pkg/config"
	"concourse/pipeline-renderer/pkg/model"
)

var (
	rootCmd = &cobra.Command{
		Use:               "renderer",
		Short:             "Renders Concourse pipelines from pipeline definitions",
		DisableAutoGenTag: true,
		SilenceErrors:     true,
		SilenceUsage:      true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}
)

func Execute(ctx context.Context) error {
	rootCmd.AddCommand(newRenderCommand())
	rootCmd.AddCommand(newReplicateCommand())
	rootCmd.AddCommand(newLintCommand())
	rootCmd.AddCommand(newDocsCommand())
	rootCmd.AddCommand(newChartCommand())
	return rootCmd.ExecuteContext(ctx)
}

// loadEnv reads the process settings and applies the log level.
func loadEnv() (config.EnvConfig, error) {
	env, err := config.LoadEnv()
	if err != nil {
		return env, err
	}
	return env, env.ApplyLogLevel()
}

// loadConfigSet prefers an explicitly given file over the environment.
func loadConfigSet(ctx context.Context, env config.EnvConfig, file string) (*model.ConfigSet, error) {
	if file != "" {
		env.ConfigSetFile = file
	}
	return config.LoadConfigSet(ctx, env, config.NewInClusterClient)
}
