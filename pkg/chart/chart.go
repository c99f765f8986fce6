// Package chart renders the Helm chart that deploys the webhook dispatcher.
package chart

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	logger "github.com/sirupsen/logrus"
	"helm.sh/helm/v3/pkg/chart"
	"helm.sh/helm/v3/pkg/chart/loader"
	"helm.sh/helm/v3/pkg/chartutil"
	"helm.sh/helm/v3/pkg/engine"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/util/yaml"
)

const chartDir = "webhook-dispatcher"

//go:embed webhook-dispatcher
var chartFiles embed.FS

type EnvVar struct {
	Name  string
	Value string
}

// Values are the inputs of the chart.
type Values struct {
	ImageReference string
	Port           int
	CmdArgs        []string
	EnvVars        []EnvVar
}

func (v Values) asMap() map[string]interface{} {
	values := map[string]interface{}{
		"image_reference": v.ImageReference,
	}
	if v.Port != 0 {
		values["webhook_dispatcher_port"] = v.Port
	}
	args := make([]interface{}, 0, len(v.CmdArgs))
	for _, a := range v.CmdArgs {
		args = append(args, a)
	}
	values["cmd_args"] = args
	env := make([]interface{}, 0, len(v.EnvVars))
	for _, e := range v.EnvVars {
		env = append(env, map[string]interface{}{"name": e.Name, "value": e.Value})
	}
	values["env_vars"] = env
	return values
}

// Load reads the embedded chart.
func Load() (*chart.Chart, error) {
	var files []*loader.BufferedFile
	err := fs.WalkDir(chartFiles, chartDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := chartFiles.ReadFile(p)
		if err != nil {
			return err
		}
		files = append(files, &loader.BufferedFile{Name: strings.TrimPrefix(p, chartDir+"/"), Data: data})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return loader.LoadFiles(files)
}

// Render returns the rendered manifests keyed by template file name.
func Render(releaseName, namespace string, values Values) (map[string]string, error) {
	c, err := Load()
	if err != nil {
		return nil, fmt.Errorf("could not load chart: %w", err)
	}
	renderValues, err := chartutil.ToRenderValues(c, values.asMap(), chartutil.ReleaseOptions{
		Name:      releaseName,
		Namespace: namespace,
		IsInstall: true,
	}, nil)
	if err != nil {
		return nil, err
	}
	rendered, err := engine.Render(c, renderValues)
	if err != nil {
		return nil, fmt.Errorf("could not render chart: %w", err)
	}
	manifests := make(map[string]string, len(rendered))
	for name, content := range rendered {
		manifests[path.Base(name)] = content
	}
	logger.WithField("func", "Render").Debugf("rendered %d manifests for release %s", len(manifests), releaseName)
	return manifests, nil
}

// Join concatenates manifests into one multi-document YAML stream ordered by name.
func Join(manifests map[string]string) string {
	names := make([]string, 0, len(manifests))
	for name := range manifests {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "---\n# Source: %s/templates/%s\n%s", chartDir, name, strings.TrimPrefix(manifests[name], "\n"))
		if !strings.HasSuffix(manifests[name], "\n") {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func decode(manifests map[string]string, name string, into interface{}) error {
	content, ok := manifests[name]
	if !ok {
		return fmt.Errorf("manifest %s not rendered", name)
	}
	return yaml.NewYAMLOrJSONDecoder(bytes.NewBufferString(content), 4096).Decode(into)
}

func Deployment(manifests map[string]string) (*appsv1.Deployment, error) {
	var deployment appsv1.Deployment
	if err := decode(manifests, "deployment.yaml", &deployment); err != nil {
		return nil, err
	}
	return &deployment, nil
}

func Service(manifests map[string]string) (*corev1.Service, error) {
	var service corev1.Service
	if err := decode(manifests, "service.yaml", &service); err != nil {
		return nil, err
	}
	return &service, nil
}
