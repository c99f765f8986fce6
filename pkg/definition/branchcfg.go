package definition

import (
	"errors"
	"fmt"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"
)

const (
	BranchCfgPath = "branch.cfg"
	BranchCfgRef  = "refs/meta/ci"
)

// BranchCfgEntry selects branches by regular expression and carries the definition
// overrides for them.
type BranchCfgEntry struct {
	Name     string         `yaml:"-"`
	Branches []string       `yaml:"branches"`
	Index    *int           `yaml:"index"`
	Inherit  map[string]any `yaml:"inherit"`
}

// Matches reports whether one of the branch expressions matches the whole branch name.
func (e BranchCfgEntry) Matches(branch string) (bool, error) {
	for _, b := range e.Branches {
		re, err := regexp.Compile("^(?:" + b + ")$")
		if err != nil {
			return false, fmt.Errorf("branch cfg entry %s: %w", e.Name, err)
		}
		if re.MatchString(branch) {
			return true, nil
		}
	}
	return false, nil
}

type BranchCfg struct {
	Entries []BranchCfgEntry
}

func ParseBranchCfg(data []byte) (*BranchCfg, error) {
	var raw struct {
		Cfgs map[string]BranchCfgEntry `yaml:"cfgs"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("could not parse branch cfg: %w", err)
	}
	if raw.Cfgs == nil {
		return nil, errors.New(`branch cfg: "cfgs" missing`)
	}
	cfg := &BranchCfg{}
	for _, name := range sortedKeys(raw.Cfgs) {
		entry := raw.Cfgs[name]
		entry.Name = name
		cfg.Entries = append(cfg.Entries, entry)
	}
	return cfg, nil
}

// EntryForBranch merges all matching entries, ordered by their index (entries
// without index keep their position). It returns nil if no entry matches.
func (c *BranchCfg) EntryForBranch(branch string) (*BranchCfgEntry, error) {
	type indexed struct {
		index int
		entry BranchCfgEntry
	}
	var matching []indexed
	for _, entry := range c.Entries {
		ok, err := entry.Matches(branch)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		idx := len(matching)
		if entry.Index != nil {
			idx = *entry.Index
		}
		matching = append(matching, indexed{index: idx, entry: entry})
	}
	if len(matching) == 0 {
		return nil, nil
	}
	sort.SliceStable(matching, func(i, j int) bool { return matching[i].index < matching[j].index })
	merged := &BranchCfgEntry{Name: "merged"}
	for _, m := range matching {
		merged.Branches = append(merged.Branches, m.entry.Branches...)
		inherit, err := Merge(merged.Inherit, m.entry.Inherit)
		if err != nil {
			return nil, err
		}
		merged.Inherit = inherit
	}
	return merged, nil
}
