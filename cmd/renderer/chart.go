package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"concourse/pipeline-renderer/pkg/chart"
)

type chartOptions struct {
	ReleaseName    string
	Namespace      string
	ImageReference string
	Port           int
	CmdArgs        []string
	EnvVars        []string
}

func newChartCommand() *cobra.Command {
	cmdOpts := &chartOptions{}
	cmd := &cobra.Command{
		Use:               "chart",
		Short:             "Render the webhook dispatcher deployment chart",
		DisableAutoGenTag: true,
		SilenceErrors:     true,
		SilenceUsage:      true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			values, err := cmdOpts.values()
			if err != nil {
				return err
			}
			manifests, err := chart.Render(cmdOpts.ReleaseName, cmdOpts.Namespace, values)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), chart.Join(manifests))
			return err
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&cmdOpts.ReleaseName, "release", "webhook-dispatcher", "release name")
	flags.StringVar(&cmdOpts.Namespace, "namespace", "default", "target namespace")
	flags.StringVar(&cmdOpts.ImageReference, "image", "", "webhook dispatcher image reference")
	flags.IntVar(&cmdOpts.Port, "port", 5004, "webhook dispatcher port")
	flags.StringArrayVar(&cmdOpts.CmdArgs, "arg", nil, "argument passed to start_whd (repeatable)")
	flags.StringArrayVar(&cmdOpts.EnvVars, "env", nil, "NAME=VALUE environment variable (repeatable)")
	_ = cmd.MarkFlagRequired("image")
	return cmd
}

func (o *chartOptions) values() (chart.Values, error) {
	values := chart.Values{ImageReference: o.ImageReference, Port: o.Port, CmdArgs: o.CmdArgs}
	for _, e := range o.EnvVars {
		name, value, ok := strings.Cut(e, "=")
		if !ok || name == "" {
			return values, fmt.Errorf("invalid environment variable %q, expected NAME=VALUE", e)
		}
		values.EnvVars = append(values.EnvVars, chart.EnvVar{Name: name, Value: value})
	}
	return values, nil
}
