package model

import (
	"errors"
	"reflect"
	"testing"
)

func stepNames(stages [][]*Step) [][]string {
	var names [][]string
	for _, stage := range stages {
		var n []string
		for _, s := range stage {
			n = append(n, s.Name)
		}
		names = append(names, n)
	}
	return names
}

func Test_OrderedSteps(t *testing.T) {
	tests := []struct {
		name    string
		steps   []*Step
		want    [][]string
		wantErr bool
	}{
		{
			name:  "no steps",
			steps: nil,
			want:  nil,
		},
		{
			name: "independent steps share one stage",
			steps: []*Step{
				{Name: "build"},
				{Name: "lint"},
			},
			want: [][]string{{"build", "lint"}},
		},
		{
			name: "dependencies form sequential stages",
			steps: []*Step{
				{Name: "release", DependsOn: []string{"build", "test"}},
				{Name: "test", DependsOn: []string{"build"}},
				{Name: "build"},
				{Name: "lint"},
			},
			want: [][]string{{"build", "lint"}, {"test"}, {"release"}},
		},
		{
			name: "unknown dependency",
			steps: []*Step{
				{Name: "test", DependsOn: []string{"build"}},
			},
			wantErr: true,
		},
		{
			name: "cycle",
			steps: []*Step{
				{Name: "a", DependsOn: []string{"b"}},
				{Name: "b", DependsOn: []string{"a"}},
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &Variant{Name: "head-update", Steps: tt.steps}
			got, err := v.OrderedSteps()
			if (err != nil) != tt.wantErr {
				t.Fatalf("OrderedSteps() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if names := stepNames(got); !reflect.DeepEqual(names, tt.want) {
				t.Errorf("OrderedSteps() = %v, want %v", names, tt.want)
			}
		})
	}
}

func Test_OrderedStepsCycleError(t *testing.T) {
	v := &Variant{Name: "x", Steps: []*Step{{Name: "a", DependsOn: []string{"a"}}}}
	if _, err := v.OrderedSteps(); !errors.Is(err, ErrDependencyCycle) {
		t.Errorf("OrderedSteps() error = %v, want ErrDependencyCycle", err)
	}
}

func Test_TraitsHas(t *testing.T) {
	traits := Traits{Version: &VersionTrait{}, PullRequest: &PullRequestTrait{}}
	for _, k := range AllTraitKinds {
		want := k == TraitVersion || k == TraitPullRequest
		if got := traits.Has(k); got != want {
			t.Errorf("Has(%s) = %v, want %v", k, got, want)
		}
	}
	if traits.Has("unknown") {
		t.Errorf("Has(unknown) = true, want false")
	}
	if got := traits.Kinds(); !reflect.DeepEqual(got, []TraitKind{TraitVersion, TraitPullRequest}) {
		t.Errorf("Kinds() = %v", got)
	}
}

func Test_SuppressParallelExecution(t *testing.T) {
	no := false
	tests := []struct {
		name   string
		traits Traits
		want   bool
	}{
		{name: "plain", traits: Traits{}, want: false},
		{name: "cronjob", traits: Traits{Cronjob: &CronjobTrait{}}, want: true},
		{name: "release", traits: Traits{Release: &ReleaseTrait{}}, want: true},
		{name: "explicit override", traits: Traits{Release: &ReleaseTrait{}, Scheduling: &SchedulingTrait{SuppressParallelExecution: &no}}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &Variant{Traits: tt.traits}
			if got := v.SuppressParallelExecution(); got != tt.want {
				t.Errorf("SuppressParallelExecution() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_ImageDescriptorsLastWriteWins(t *testing.T) {
	d := PipelineDefinition{Variants: []*Variant{
		{Name: "a", Traits: Traits{Publish: &PublishTrait{DockerImages: []ImageDescriptor{
			{Name: "img", Image: "eu.gcr.io/proj/first"},
			{Name: "other", Image: "eu.gcr.io/proj/other"},
			{Name: "img", Image: "eu.gcr.io/proj/second"},
		}}}},
		{Name: "b", Traits: Traits{Publish: &PublishTrait{DockerImages: []ImageDescriptor{
			{Name: "other", Image: "eu.gcr.io/proj/third"},
		}}}},
	}}
	want := []ImageDescriptor{
		{Name: "img", Image: "eu.gcr.io/proj/second"},
		{Name: "other", Image: "eu.gcr.io/proj/third"},
	}
	if got := d.ImageDescriptors(); !reflect.DeepEqual(got, want) {
		t.Errorf("ImageDescriptors() = %v, want %v", got, want)
	}
}
