package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"concourse/pipeline-renderer/pkg/definition"
	"concourse/pipeline-renderer/pkg/enumerator"
	"concourse/pipeline-renderer/pkg/replicator"
)

type renderOptions struct {
	DefinitionsFile string
	ConfigSetFile   string
	RepoPath        string
	Branch          string
	Hostname        string
	Pipeline        string
}

func newRenderCommand() *cobra.Command {
	cmdOpts := &renderOptions{}
	cmd := &cobra.Command{
		Use:               "render",
		Short:             "Render the pipeline of a local definitions file to stdout",
		DisableAutoGenTag: true,
		SilenceErrors:     true,
		SilenceUsage:      true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmdOpts.run(cmd, cmd.OutOrStdout())
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&cmdOpts.DefinitionsFile, "definitions", definition.DefinitionsPath, "pipeline definitions file")
	flags.StringVar(&cmdOpts.ConfigSetFile, "config-set", "", "config set file (default from CONFIG_SET_FILE or CONFIG_SET_SECRET)")
	flags.StringVar(&cmdOpts.RepoPath, "repo-path", "", "<org>/<repo> of the main repository")
	flags.StringVar(&cmdOpts.Branch, "branch", "master", "branch of the main repository")
	flags.StringVar(&cmdOpts.Hostname, "hostname", "github.com", "github host of the main repository")
	flags.StringVar(&cmdOpts.Pipeline, "pipeline", "", "definition to render if the file contains more than one")
	_ = cmd.MarkFlagRequired("repo-path")
	return cmd
}

func (o *renderOptions) run(cmd *cobra.Command, out io.Writer) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}
	configSet, err := loadConfigSet(cmd.Context(), env, o.ConfigSetFile)
	if err != nil {
		return err
	}
	main := definition.MainRepo{Path: o.RepoPath, Branch: o.Branch, Hostname: o.Hostname}
	descriptors, err := enumerator.NewFileEnumerator(o.DefinitionsFile, main, enumerator.Target{ConfigSetName: configSet.Name, Team: env.ConcourseTeam}).Enumerate()
	if err != nil {
		return err
	}
	descriptor, err := o.selectDescriptor(descriptors)
	if err != nil {
		return err
	}
	result := replicator.NewDefinitionRenderer(configSet, nil).Render(definition.Preprocess(descriptor))
	if result.Status != replicator.RenderSucceeded {
		return result.Err
	}
	_, err = out.Write(descriptor.Pipeline)
	return err
}

func (o *renderOptions) selectDescriptor(descriptors []*definition.Descriptor) (*definition.Descriptor, error) {
	if len(descriptors) == 1 && o.Pipeline == "" {
		return descriptors[0], nil
	}
	var names []string
	for _, d := range descriptors {
		if d.Name == o.Pipeline {
			return d, nil
		}
		names = append(names, d.Name)
	}
	return nil, fmt.Errorf("select one of the definitions [%s] with --pipeline", strings.Join(names, ", "))
}
