package model

import (
	"reflect"
	"testing"
)

func TestStep_Argv(t *testing.T) {
	tests := []struct {
		name string
		step Step
		want []string
	}{
		{name: "defaults to step name", step: Step{Name: "a_name"}, want: []string{"a_name"}},
		{name: "overwritten executable", step: Step{Name: "x", Execute: []string{"another_executable"}}, want: []string{"another_executable"}},
		{name: "list", step: Step{Name: "x", Execute: []string{"a", "b"}}, want: []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.step.Argv(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Argv() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStep_Executable(t *testing.T) {
	s := Step{Name: "x"}
	tests := []struct {
		prefix []string
		want   string
	}{
		{prefix: nil, want: "x"},
		{prefix: []string{"foo"}, want: "foo/x"},
		{prefix: []string{"foo", "bar"}, want: "foo/bar/x"},
	}
	for _, tt := range tests {
		if got := s.Executable(tt.prefix...); got != tt.want {
			t.Errorf("Executable(%v) = %s, want %s", tt.prefix, got, tt.want)
		}
	}
	s = Step{Name: "x", Execute: []string{"exec", "arg 1", "arg2"}}
	if got := s.Executable(); got != "exec" {
		t.Errorf("Executable() = %s, want exec", got)
	}
}

func TestRepository_ResourceName(t *testing.T) {
	r := Repository{LogicalName: "source", Path: "Org/Repo", Branch: "master"}
	if got := r.ResourceName(); got != "org_repo-master" {
		t.Errorf("ResourceName() = %s", got)
	}
	r.PullRequest = true
	if got := r.ResourceName(); got != "pr-org_repo-master" {
		t.Errorf("ResourceName() = %s", got)
	}
	if got := r.OutputResourceName(); got != "pr-org_repo-master-output" {
		t.Errorf("OutputResourceName() = %s", got)
	}
}

func TestConfigSet_FindContainerRegistry(t *testing.T) {
	cfg := ConfigSet{ContainerRegistries: []ContainerRegistryConfig{
		{Name: "gcr", ImageReferencePrefixes: []string{"eu.gcr.io/proj"}},
		{Name: "gcr-wide", ImageReferencePrefixes: []string{"eu.gcr.io"}},
	}}
	tests := []struct {
		repository string
		want       string
	}{
		{repository: "eu.gcr.io/proj/image", want: "gcr"},
		{repository: "eu.gcr.io/other/image", want: "gcr-wide"},
		{repository: "docker.io/library/alpine", want: ""},
	}
	for _, tt := range tests {
		got := cfg.FindContainerRegistry(tt.repository)
		name := ""
		if got != nil {
			name = got.Name
		}
		if name != tt.want {
			t.Errorf("FindContainerRegistry(%s) = %q, want %q", tt.repository, name, tt.want)
		}
	}
}
