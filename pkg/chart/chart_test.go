package chart

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
)

func TestRenderDeployment(t *testing.T) {
	manifests, err := Render("whd", "concourse", Values{
		ImageReference: "eu.gcr.io/project/whd:1.0",
		Port:           8080,
		CmdArgs:        []string{"--foo"},
		EnvVars:        []EnvVar{{Name: "X", Value: "Y"}},
	})
	require.NoError(t, err)

	deployment, err := Deployment(manifests)
	require.NoError(t, err)
	assert.Equal(t, "whd", deployment.Name)
	assert.Equal(t, "concourse", deployment.Namespace)
	require.Len(t, deployment.Spec.Template.Spec.Containers, 1)

	container := deployment.Spec.Template.Spec.Containers[0]
	assert.Equal(t, "eu.gcr.io/project/whd:1.0", container.Image)
	assert.Equal(t, []string{"start_whd", "--foo", "--production"}, container.Command)
	assert.Equal(t, []corev1.EnvVar{{Name: "X", Value: "Y"}}, container.Env)
	require.NotNil(t, container.LivenessProbe)
	require.NotNil(t, container.LivenessProbe.TCPSocket)
	assert.Equal(t, intstr.FromInt32(8080), container.LivenessProbe.TCPSocket.Port)

	service, err := Service(manifests)
	require.NoError(t, err)
	require.Len(t, service.Spec.Ports, 1)
	assert.Equal(t, intstr.FromInt32(8080), service.Spec.Ports[0].TargetPort)
}

func TestRenderDefaults(t *testing.T) {
	manifests, err := Render("whd", "default", Values{ImageReference: "whd:latest"})
	require.NoError(t, err)
	deployment, err := Deployment(manifests)
	require.NoError(t, err)

	container := deployment.Spec.Template.Spec.Containers[0]
	assert.Equal(t, []string{"start_whd", "--production"}, container.Command)
	assert.Empty(t, container.Env)
	assert.Equal(t, intstr.FromInt32(5004), container.LivenessProbe.TCPSocket.Port)
}

func TestRenderRequiresImage(t *testing.T) {
	_, err := Render("whd", "default", Values{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "image_reference must be set")
}

func TestJoin(t *testing.T) {
	joined := Join(map[string]string{"service.yaml": "kind: Service\n", "deployment.yaml": "kind: Deployment"})
	assert.Equal(t, "---\n# Source: webhook-dispatcher/templates/deployment.yaml\nkind: Deployment\n"+
		"---\n# Source: webhook-dispatcher/templates/service.yaml\nkind: Service\n", joined)
	assert.True(t, strings.HasPrefix(joined, "---"))
}
