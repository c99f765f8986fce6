package render

import (
	"fmt"
	"strings"

	"github.com/google/go-containerregistry/pkg/name"

	"concourse/pipeline-renderer/pkg/document"
	"concourse/pipeline-renderer/pkg/model"
)

type imageReference struct {
	Repository string
	Tag        string
	Registry   *model.ContainerRegistryConfig
}

// splitImageReference splits at the tag separator. A ':' belonging to a registry
// port is not a tag separator.
func splitImageReference(ref string) (string, string) {
	i := strings.LastIndex(ref, ":")
	if i < 0 || i < strings.LastIndex(ref, "/") {
		return ref, name.DefaultTag
	}
	return ref[:i], ref[i+1:]
}

// stepImage resolves the image a step runs in together with the credentials needed to
// pull it: the explicitly named registry, else the best matching one, else none.
func (p *pass) stepImage(step *model.Step) (imageReference, error) {
	ref := step.Image
	if ref == "" {
		ref = p.opts.DefaultImage
	}
	if _, err := name.ParseReference(ref, name.WeakValidation); err != nil {
		return imageReference{}, fmt.Errorf("step %s: invalid image reference %q: %w", step.Name, ref, err)
	}
	repository, tag := splitImageReference(ref)
	image := imageReference{Repository: repository, Tag: tag}
	if step.Registry != "" {
		registry, ok := p.opts.ConfigSet.ContainerRegistry(step.Registry)
		if !ok {
			return imageReference{}, fmt.Errorf("step %s: registry %s: %w", step.Name, step.Registry, ErrRegistryNotFound)
		}
		image.Registry = &registry
		return image, nil
	}
	image.Registry = p.opts.ConfigSet.FindContainerRegistry(repository)
	return image, nil
}

func (i imageReference) fields() document.Fields {
	f := document.Fields{
		{Key: "repository", Value: i.Repository},
		{Key: "tag", Value: i.Tag},
	}
	return append(f, credentials(i.Registry)...)
}
