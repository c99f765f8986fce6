package model

import (
	"strings"
)

// ConfigSet is the read-only configuration a pipeline is rendered against.
type ConfigSet struct {
	Name                string                    `yaml:"name"`
	Github              []GithubConfig            `yaml:"github"`
	ContainerRegistries []ContainerRegistryConfig `yaml:"container_registries"`
	DefaultRegistry     string                    `yaml:"default_registry"`
	SecretsServer       SecretsServerConfig       `yaml:"secrets_server"`
	Email               *EmailConfig              `yaml:"email"`
	Concourse           ConcourseConfig           `yaml:"concourse"`
}

type TechnicalUser struct {
	Username     string `yaml:"username"`
	EmailAddress string `yaml:"email_address"`
	PrivateKey   string `yaml:"private_key"`
	AuthToken    string `yaml:"auth_token"`
}

type GithubConfig struct {
	Name          string        `yaml:"name"`
	HTTPURL       string        `yaml:"http_url"`
	APIURL        string        `yaml:"api_url"`
	SSHURL        string        `yaml:"ssh_url"`
	TechnicalUser TechnicalUser `yaml:"technical_user"`
}

// Hostname is the host part of the http url.
func (g GithubConfig) Hostname() string {
	host := strings.TrimPrefix(strings.TrimPrefix(g.HTTPURL, "https://"), "http://")
	host, _, _ = strings.Cut(host, "/")
	return host
}

type ContainerRegistryConfig struct {
	Name                   string   `yaml:"name"`
	ImageReferencePrefixes []string `yaml:"image_reference_prefixes"`
	Username               string   `yaml:"username"`
	Password               string   `yaml:"password"`
}

// Matches reports whether the registry serves the given image repository.
func (c ContainerRegistryConfig) Matches(repository string) bool {
	for _, prefix := range c.ImageReferencePrefixes {
		if strings.HasPrefix(repository, prefix) {
			return true
		}
	}
	return false
}

type SecretsServerConfig struct {
	Endpoint   string `yaml:"endpoint"`
	SecretName string `yaml:"concourse_secret_name"`
	Attribute  string `yaml:"concourse_attribute"`
}

// SecretPath is the compound {secret_name}/{attribute} handed to steps.
func (s SecretsServerConfig) SecretPath() string {
	return s.SecretName + "/" + s.Attribute
}

type EmailConfig struct {
	SMTPHost          string   `yaml:"smtp_host"`
	SMTPPort          int      `yaml:"smtp_port"`
	Username          string   `yaml:"username"`
	Password          string   `yaml:"password"`
	Sender            string   `yaml:"sender"`
	DefaultRecipients []string `yaml:"default_recipients"`
}

type ConcourseConfig struct {
	WebhookToken string `yaml:"webhook_token"`
	CheckEvery   string `yaml:"check_every"`
}

// GithubConfig returns the config with the given name or, for an empty name, the one
// matching the hostname. The first config is the fallback.
func (c *ConfigSet) GithubConfig(name, hostname string) (GithubConfig, bool) {
	for _, g := range c.Github {
		if name != "" && g.Name == name {
			return g, true
		}
	}
	if name != "" {
		return GithubConfig{}, false
	}
	for _, g := range c.Github {
		if g.Hostname() == hostname {
			return g, true
		}
	}
	if len(c.Github) > 0 {
		return c.Github[0], true
	}
	return GithubConfig{}, false
}

func (c *ConfigSet) ContainerRegistry(name string) (ContainerRegistryConfig, bool) {
	for _, r := range c.ContainerRegistries {
		if r.Name == name {
			return r, true
		}
	}
	return ContainerRegistryConfig{}, false
}

// FindContainerRegistry returns the first declared registry whose prefixes match
// the image repository.
func (c *ConfigSet) FindContainerRegistry(repository string) *ContainerRegistryConfig {
	for i := range c.ContainerRegistries {
		if c.ContainerRegistries[i].Matches(repository) {
			return &c.ContainerRegistries[i]
		}
	}
	return nil
}
