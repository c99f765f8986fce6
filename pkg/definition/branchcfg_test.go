package definition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBranchCfg = `
cfgs:
  default:
    branches: ['master']
    inherit:
      repo:
        base_definition:
          traits:
            cronjob:
              interval: 1h
  release:
    index: 0
    branches: ['rel-.*', 'master']
    inherit:
      repo:
        template: release
`

func TestBranchCfgEntryForBranch(t *testing.T) {
	cfg, err := ParseBranchCfg([]byte(testBranchCfg))
	require.NoError(t, err)
	require.Len(t, cfg.Entries, 2)

	tests := []struct {
		branch      string
		wantInherit map[string]any
	}{
		{
			branch: "master",
			wantInherit: map[string]any{
				"repo": map[string]any{
					"base_definition": map[string]any{
						"traits": map[string]any{"cronjob": map[string]any{"interval": "1h"}},
					},
					"template": "release",
				},
			},
		},
		{
			branch:      "rel-1.0",
			wantInherit: map[string]any{"repo": map[string]any{"template": "release"}},
		},
		{branch: "rel"},
		{branch: "master2"},
	}
	for _, tt := range tests {
		t.Run(tt.branch, func(t *testing.T) {
			entry, err := cfg.EntryForBranch(tt.branch)
			require.NoError(t, err)
			if tt.wantInherit == nil {
				assert.Nil(t, entry)
				return
			}
			require.NotNil(t, entry)
			assert.Equal(t, tt.wantInherit, entry.Inherit)
		})
	}
}

func TestBranchCfgErrors(t *testing.T) {
	_, err := ParseBranchCfg([]byte("other: {}"))
	assert.Error(t, err)

	cfg, err := ParseBranchCfg([]byte("cfgs:\n  broken:\n    branches: ['(']\n"))
	require.NoError(t, err)
	_, err = cfg.EntryForBranch("master")
	assert.Error(t, err)
}

func TestBranchCfgOverridesDefinitions(t *testing.T) {
	cfg, err := ParseBranchCfg([]byte(testBranchCfg))
	require.NoError(t, err)
	entry, err := cfg.EntryForBranch("master")
	require.NoError(t, err)

	raw, err := ParseDefinitions([]byte(testDefinitions))
	require.NoError(t, err)
	descriptors, err := Descriptors(raw, MainRepo{Path: "org/repo", Branch: "master"}, "default", "main", entry.Inherit)
	require.NoError(t, err)
	descriptor := Preprocess(descriptors[0])
	assert.Equal(t, "release", descriptor.TemplateName())

	definition, err := Create(descriptor)
	require.NoError(t, err)
	assert.Equal(t, "release", definition.Template)
	for _, v := range definition.Variants {
		require.NotNil(t, v.Traits.Cronjob, v.Name)
		assert.Equal(t, "1h", v.Traits.Cronjob.Interval)
	}
}
