package model

// PipelineDefinition is the typed form of one entry in a .ci/pipeline_definitions file.
type PipelineDefinition struct {
	Name     string
	Template string
	Variants []*Variant
}

// DefinitionValidator checks a PipelineDefinition and returns human readable findings.
type DefinitionValidator interface {
	Validate(definition PipelineDefinition) []string
}

func (d *PipelineDefinition) Variant(name string) *Variant {
	for _, v := range d.Variants {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// Repositories returns the repositories of all variants, deduplicated by resource name.
// The first occurrence determines the position.
func (d *PipelineDefinition) Repositories() []*Repository {
	seen := make(map[string]bool)
	var repos []*Repository
	for _, v := range d.Variants {
		for _, r := range v.Repositories {
			if seen[r.ResourceName()] {
				continue
			}
			seen[r.ResourceName()] = true
			repos = append(repos, r)
		}
	}
	return repos
}

// ImageDescriptors collects the publish descriptors of all variants. On name
// collisions the descriptor registered last wins, keeping the position of the
// first registration.
func (d *PipelineDefinition) ImageDescriptors() []ImageDescriptor {
	index := make(map[string]int)
	var descriptors []ImageDescriptor
	for _, v := range d.Variants {
		if v.Traits.Publish == nil {
			continue
		}
		for _, descriptor := range v.Traits.Publish.DockerImages {
			if i, ok := index[descriptor.Name]; ok {
				descriptors[i] = descriptor
				continue
			}
			index[descriptor.Name] = len(descriptors)
			descriptors = append(descriptors, descriptor)
		}
	}
	return descriptors
}

// MainRepository returns the main repository of the first variant that has one.
func (d *PipelineDefinition) MainRepository() *Repository {
	for _, v := range d.Variants {
		if r := v.MainRepository(); r != nil {
			return r
		}
	}
	return nil
}
