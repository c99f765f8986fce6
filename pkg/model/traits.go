package model

type TraitKind string

const (
	TraitVersion             TraitKind = "version"
	TraitCronjob             TraitKind = "cronjob"
	TraitPublish             TraitKind = "publish"
	TraitPullRequest         TraitKind = "pull-request"
	TraitRelease             TraitKind = "release"
	TraitComponentDescriptor TraitKind = "component_descriptor"
	TraitScheduling          TraitKind = "scheduling"
	TraitOptions             TraitKind = "options"
	TraitSlack               TraitKind = "slack"
)

// AllTraitKinds lists the supported traits in a stable order.
var AllTraitKinds = []TraitKind{
	TraitVersion,
	TraitCronjob,
	TraitPublish,
	TraitPullRequest,
	TraitRelease,
	TraitComponentDescriptor,
	TraitScheduling,
	TraitOptions,
	TraitSlack,
}

// Traits holds at most one payload per trait kind. A nil payload means the trait is absent.
type Traits struct {
	Version             *VersionTrait             `yaml:"version"`
	Cronjob             *CronjobTrait             `yaml:"cronjob"`
	Publish             *PublishTrait             `yaml:"publish"`
	PullRequest         *PullRequestTrait         `yaml:"pull-request"`
	Release             *ReleaseTrait             `yaml:"release"`
	ComponentDescriptor *ComponentDescriptorTrait `yaml:"component_descriptor"`
	Scheduling          *SchedulingTrait          `yaml:"scheduling"`
	Options             *OptionsTrait             `yaml:"options"`
	Slack               *SlackTrait               `yaml:"slack"`
}

// Has reports whether the trait of the given kind is attached. Unknown kinds are absent.
func (t Traits) Has(kind TraitKind) bool {
	switch kind {
	case TraitVersion:
		return t.Version != nil
	case TraitCronjob:
		return t.Cronjob != nil
	case TraitPublish:
		return t.Publish != nil
	case TraitPullRequest:
		return t.PullRequest != nil
	case TraitRelease:
		return t.Release != nil
	case TraitComponentDescriptor:
		return t.ComponentDescriptor != nil
	case TraitScheduling:
		return t.Scheduling != nil
	case TraitOptions:
		return t.Options != nil
	case TraitSlack:
		return t.Slack != nil
	default:
		return false
	}
}

// Kinds returns the attached trait kinds in AllTraitKinds order.
func (t Traits) Kinds() []TraitKind {
	var kinds []TraitKind
	for _, k := range AllTraitKinds {
		if t.Has(k) {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

const (
	VersionPreprocessInjectCommitHash = "inject-commit-hash"
	VersionPreprocessFinalize         = "finalize"
	VersionPreprocessNoop             = "noop"
)

type VersionTrait struct {
	Preprocess             string `yaml:"preprocess"`
	InjectEffectiveVersion bool   `yaml:"inject_effective_version"`
	VersionFile            string `yaml:"versionfile"`
}

type CronjobTrait struct {
	Interval     string `yaml:"interval"`
	ResourceName string `yaml:"resource_name"`
}

type PublishTrait struct {
	DockerImages []ImageDescriptor `yaml:"-"`
}

// ImageDescriptor describes a container image built and published by a variant.
type ImageDescriptor struct {
	Name       string `yaml:"name"`
	Image      string `yaml:"image"`
	Registry   string `yaml:"registry"`
	Dockerfile string `yaml:"dockerfile"`
	Dir        string `yaml:"dir"`
}

type PullRequestPolicies struct {
	RequireLabel     string `yaml:"require-label"`
	ReplacementLabel string `yaml:"replacement-label"`
	BuildForks       bool   `yaml:"build-forks"`
}

type PullRequestTrait struct {
	Policies PullRequestPolicies `yaml:"policies"`
}

type ReleaseTrait struct {
	NextVersion         string `yaml:"nextversion"`
	ReleaseCallback     string `yaml:"release_callback"`
	RebaseBeforeRelease bool   `yaml:"rebase_before_release"`
}

type ComponentDescriptorTrait struct {
	ComponentName string `yaml:"component_name"`
}

type SchedulingTrait struct {
	SuppressParallelExecution *bool `yaml:"suppress_parallel_execution"`
}

type OptionsTrait struct {
	BuildLogsToRetain int  `yaml:"build_logs_to_retain"`
	PublicBuildLogs   bool `yaml:"public_build_logs"`
}

type SlackChannelConfig struct {
	ChannelName  string `yaml:"channel_name"`
	SlackCfgName string `yaml:"slack_cfg_name"`
}

type SlackTrait struct {
	ChannelCfgs    map[string]SlackChannelConfig `yaml:"channel_cfgs"`
	DefaultChannel string                        `yaml:"default_channel"`
}
