package main

import (
	"github.com/spf13/cobra"

	"concourse/pipeline-renderer/pkg/definition"
	"concourse/pipeline-renderer/pkg/enumerator"
	"concourse/pipeline-renderer/pkg/replicator"
)

type replicateOptions struct {
	RepoURL         string
	DefinitionsFile string
	ConfigSetFile   string
	RepoPath        string
	Branch          string
	OutputDir       string
}

func newReplicateCommand() *cobra.Command {
	cmdOpts := &replicateOptions{}
	cmd := &cobra.Command{
		Use:               "replicate",
		Short:             "Render and deploy all pipelines of a GitHub repository or a definitions file",
		DisableAutoGenTag: true,
		SilenceErrors:     true,
		SilenceUsage:      true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmdOpts.run(cmd)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&cmdOpts.RepoURL, "repo-url", "", "url of the GitHub repository to scan")
	flags.StringVar(&cmdOpts.DefinitionsFile, "definitions", "", "local pipeline definitions file, used instead of --repo-url")
	flags.StringVar(&cmdOpts.ConfigSetFile, "config-set", "", "config set file (default from CONFIG_SET_FILE or CONFIG_SET_SECRET)")
	flags.StringVar(&cmdOpts.RepoPath, "repo-path", "", "<org>/<repo> of the main repository of --definitions")
	flags.StringVar(&cmdOpts.Branch, "branch", "master", "branch of the main repository of --definitions")
	flags.StringVar(&cmdOpts.OutputDir, "output-dir", "", "directory the pipelines are written to (default from OUTPUT_DIR)")
	cmd.MarkFlagsMutuallyExclusive("repo-url", "definitions")
	cmd.MarkFlagsOneRequired("repo-url", "definitions")
	return cmd
}

func (o *replicateOptions) run(cmd *cobra.Command) error {
	ctx := cmd.Context()
	env, err := loadEnv()
	if err != nil {
		return err
	}
	configSet, err := loadConfigSet(ctx, env, o.ConfigSetFile)
	if err != nil {
		return err
	}
	if o.OutputDir == "" {
		o.OutputDir = env.OutputDir
	}
	deployer, err := replicator.NewFilesystemDeployer(o.OutputDir)
	if err != nil {
		return err
	}
	var sender replicator.EventSender
	if env.CloudEventsSink != "" {
		if sender, err = replicator.NewHTTPEventSender(env.CloudEventsSink); err != nil {
			return err
		}
	}
	processor := replicator.NewResultProcessor(sender)

	if o.RepoURL != "" {
		return replicator.NewRepositoryReplicator(configSet, env.GithubToken, env.ConcourseTeam, deployer, processor).UpdateRepository(ctx, o.RepoURL)
	}
	main := definition.MainRepo{Path: o.RepoPath, Branch: o.Branch}
	e := enumerator.NewFileEnumerator(o.DefinitionsFile, main, enumerator.Target{ConfigSetName: configSet.Name, Team: env.ConcourseTeam})
	summary, err := replicator.NewReplicator([]enumerator.Enumerator{e}, replicator.NewDefinitionRenderer(configSet, nil), deployer, processor).Replicate(ctx)
	if err != nil {
		return err
	}
	return summary.Err()
}
