package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"concourse/pipeline-renderer/pkg/config"
	"concourse/pipeline-renderer/pkg/handler"
	"concourse/pipeline-renderer/pkg/replicator"
)

type options struct {
	Production    bool
	Port          int
	ConfigSetFile string
}

func newCommand() *cobra.Command {
	cmdOpts := &options{}
	cmd := &cobra.Command{
		Use:               "start_whd",
		Short:             "Start the GitHub webhook dispatcher",
		DisableAutoGenTag: true,
		SilenceErrors:     true,
		SilenceUsage:      true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmdOpts.run(cmd.Context())
		},
	}
	flags := cmd.Flags()
	flags.BoolVar(&cmdOpts.Production, "production", false, "log as JSON")
	flags.IntVar(&cmdOpts.Port, "port", 0, "listen port (default from PORT)")
	flags.StringVar(&cmdOpts.ConfigSetFile, "config-set", "", "config set file (default from CONFIG_SET_FILE or CONFIG_SET_SECRET)")
	return cmd
}

func (o *options) run(ctx context.Context) error {
	if o.Production {
		logger.SetFormatter(&logger.JSONFormatter{})
	}
	env, err := config.LoadEnv()
	if err != nil {
		return err
	}
	if err := env.ApplyLogLevel(); err != nil {
		return err
	}
	if o.ConfigSetFile != "" {
		env.ConfigSetFile = o.ConfigSetFile
	}
	if o.Port == 0 {
		o.Port = env.Port
	}
	configSet, err := config.LoadConfigSet(ctx, env, config.NewInClusterClient)
	if err != nil {
		return err
	}
	deployer, err := replicator.NewFilesystemDeployer(env.OutputDir)
	if err != nil {
		return err
	}
	var sender replicator.EventSender
	if env.CloudEventsSink != "" {
		if sender, err = replicator.NewHTTPEventSender(env.CloudEventsSink); err != nil {
			return err
		}
	}
	updater := replicator.NewRepositoryReplicator(configSet, env.GithubToken, env.ConcourseTeam, deployer, replicator.NewResultProcessor(sender))
	dispatcher := handler.NewGithubWebhookDispatcher(env.WebhookSecret, updater)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", o.Port),
		Handler:           dispatcher.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
	logger.WithField("func", "run").Infof("webhook dispatcher listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newCommand().ExecuteContext(ctx); err != nil {
		logger.WithError(err).Error("webhook dispatcher failed")
		stop()
		os.Exit(1)
	}
}
