package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	v1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/fake"
)

const testConfigSetYAML = `
name: default
github:
  - name: github_com
    http_url: https://github.com
    api_url: https://api.github.com
    ssh_url: ssh://git@github.com
    technical_user:
      username: ci-bot
      email_address: ci-bot@example.com
      auth_token: token
container_registries:
  - name: project
    image_reference_prefixes:
      - eu.gcr.io/project
    username: _json_key
    password: secret
default_registry: project
secrets_server:
  endpoint: http://secrets-server
  concourse_secret_name: concourse-secrets
  concourse_attribute: concourse_cfg
email:
  smtp_host: smtp.example.com
  smtp_port: 25
  sender: ci@example.com
concourse:
  webhook_token: hook
`

func TestParseConfigSet(t *testing.T) {
	cfg, err := ParseConfigSet([]byte(testConfigSetYAML))
	require.NoError(t, err)
	assert.Equal(t, "default", cfg.Name)
	require.Len(t, cfg.Github, 1)
	assert.Equal(t, "github.com", cfg.Github[0].Hostname())
	assert.Equal(t, "ci-bot", cfg.Github[0].TechnicalUser.Username)
	assert.Equal(t, "concourse-secrets/concourse_cfg", cfg.SecretsServer.SecretPath())
	assert.Equal(t, 25, cfg.Email.SMTPPort)
	assert.Equal(t, "hook", cfg.Concourse.WebhookToken)
	assert.NotNil(t, cfg.FindContainerRegistry("eu.gcr.io/project/app"))
}

func TestParseConfigSetErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "invalid yaml", data: "name: [unterminated"},
		{name: "missing name", data: "github: []"},
		{name: "duplicate registry", data: "name: x\ncontainer_registries:\n  - name: a\n  - name: a\n"},
		{name: "unknown default registry", data: "name: x\ndefault_registry: missing\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfigSet([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigSetSecret(t *testing.T) {
	client := fake.NewSimpleClientset(&corev1.Secret{
		ObjectMeta: v1.ObjectMeta{Name: "config-set", Namespace: "ci"},
		Data:       map[string][]byte{ConfigSetSecretKey: []byte(testConfigSetYAML)},
	})
	cfg, err := LoadConfigSetSecret(context.Background(), client, "ci", "config-set")
	require.NoError(t, err)
	assert.Equal(t, "default", cfg.Name)

	_, err = LoadConfigSetSecret(context.Background(), client, "other", "config-set")
	assert.Error(t, err)
}

func TestLoadConfigSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config_set.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfigSetYAML), 0o600))
	noClient := func() (kubernetes.Interface, error) {
		return nil, errors.New("no cluster")
	}

	cfg, err := LoadConfigSet(context.Background(), EnvConfig{ConfigSetFile: path}, noClient)
	require.NoError(t, err)
	assert.Equal(t, "default", cfg.Name)

	_, err = LoadConfigSet(context.Background(), EnvConfig{}, noClient)
	assert.ErrorIs(t, err, ErrNoConfigSet)

	_, err = LoadConfigSet(context.Background(), EnvConfig{ConfigSetSecret: "config-set"}, noClient)
	assert.EqualError(t, err, "no cluster")
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("CONFIG_SET_FILE", "/etc/config_set.yaml")
	t.Setenv("PORT", "8080")
	t.Setenv("LOG_LEVEL", "debug")
	env, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, "/etc/config_set.yaml", env.ConfigSetFile)
	assert.Equal(t, 8080, env.Port)
	assert.Equal(t, "main", env.ConcourseTeam)
	assert.Equal(t, "debug", env.LogLevel)
	assert.NoError(t, env.ApplyLogLevel())

	t.Setenv("PORT", "not-a-number")
	_, err = LoadEnv()
	assert.Error(t, err)
}
