package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	logger "github.com/sirupsen/logrus"
)

// EnvConfig holds the process settings shared by all commands.
type EnvConfig struct {
	LogLevel        string `envconfig:"LOG_LEVEL" default:"info"`
	ConfigSetFile   string `envconfig:"CONFIG_SET_FILE"`
	ConfigSetSecret string `envconfig:"CONFIG_SET_SECRET"`
	Namespace       string `envconfig:"K8S_NAMESPACE" default:"default"`
	ConcourseTeam   string `envconfig:"CONCOURSE_TEAM" default:"main"`
	GithubToken     string `envconfig:"GITHUB_ACCESS_TOKEN"`
	WebhookSecret   string `envconfig:"WEBHOOK_SECRET"`
	OutputDir       string `envconfig:"OUTPUT_DIR" default:"pipelines"`
	CloudEventsSink string `envconfig:"CLOUDEVENTS_SINK"`
	Port            int    `envconfig:"PORT" default:"5004"`
}

func LoadEnv() (EnvConfig, error) {
	var env EnvConfig
	if err := envconfig.Process("", &env); err != nil {
		return env, fmt.Errorf("failed to process env var: %w", err)
	}
	return env, nil
}

// ApplyLogLevel sets the global log level.
func (e EnvConfig) ApplyLogLevel() error {
	level, err := logger.ParseLevel(e.LogLevel)
	if err != nil {
		return err
	}
	logger.SetLevel(level)
	return nil
}
