package config

import (
	"context"
	"errors"
	"fmt"
	"os"

	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
	v1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"

	"concourse/pipeline-renderer/pkg/model"
)

// ConfigSetSecretKey is the data key of the secret holding the config set.
const ConfigSetSecretKey = "config_set"

var ErrNoConfigSet = errors.New("neither CONFIG_SET_FILE nor CONFIG_SET_SECRET is set")

// ParseConfigSet decodes and checks a YAML config set.
func ParseConfigSet(data []byte) (*model.ConfigSet, error) {
	var cfg model.ConfigSet
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("could not parse config set: %w", err)
	}
	if cfg.Name == "" {
		return nil, errors.New(`config set "name" missing`)
	}
	seen := make(map[string]bool)
	for _, r := range cfg.ContainerRegistries {
		if seen[r.Name] {
			return nil, fmt.Errorf("container registry %s is defined more than once", r.Name)
		}
		seen[r.Name] = true
	}
	if cfg.DefaultRegistry != "" && !seen[cfg.DefaultRegistry] {
		return nil, fmt.Errorf("default registry %s is not defined", cfg.DefaultRegistry)
	}
	return &cfg, nil
}

func LoadConfigSetFile(path string) (*model.ConfigSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config set: %w", err)
	}
	return ParseConfigSet(data)
}

func LoadConfigSetSecret(ctx context.Context, client kubernetes.Interface, namespace, secretName string) (*model.ConfigSet, error) {
	secret, err := client.CoreV1().Secrets(namespace).Get(ctx, secretName, v1.GetOptions{})
	if err != nil {
		return nil, err
	}
	data, ok := secret.Data[ConfigSetSecretKey]
	if !ok {
		return nil, fmt.Errorf("secret %s has no key %s", secret.Name, ConfigSetSecretKey)
	}
	logger.WithField("func", "LoadConfigSetSecret").Infof("found config set with length %d in secret %s", len(data), secret.Name)
	return ParseConfigSet(data)
}

// LoadConfigSet prefers the file. newClient is only called when the secret is used.
func LoadConfigSet(ctx context.Context, env EnvConfig, newClient func() (kubernetes.Interface, error)) (*model.ConfigSet, error) {
	switch {
	case env.ConfigSetFile != "":
		return LoadConfigSetFile(env.ConfigSetFile)
	case env.ConfigSetSecret != "":
		client, err := newClient()
		if err != nil {
			return nil, err
		}
		return LoadConfigSetSecret(ctx, client, env.Namespace, env.ConfigSetSecret)
	default:
		return nil, ErrNoConfigSet
	}
}

// NewInClusterClient creates a client from the service account of the pod.
func NewInClusterClient() (kubernetes.Interface, error) {
	restConfig, err := rest.InClusterConfig()
	if err != nil {
		return nil, fmt.Errorf("could not create in-cluster config: %w", err)
	}
	return kubernetes.NewForConfig(restConfig)
}
