package definition

import (
	"fmt"
	"sort"

	"github.com/imdario/mergo"
)

// Merge returns a deep merge of override into base. Mappings are merged recursively,
// lists are appended and scalars of override win. Neither argument is modified.
func Merge(base, override map[string]any) (map[string]any, error) {
	merged := deepCopyMap(base)
	if merged == nil {
		merged = map[string]any{}
	}
	if len(override) == 0 {
		return merged, nil
	}
	if err := mergo.Merge(&merged, deepCopyMap(override), mergo.WithOverride, mergo.WithAppendSlice); err != nil {
		return nil, fmt.Errorf("could not merge definitions: %w", err)
	}
	return merged, nil
}

func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopy(v)
	}
	return out
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopy(e)
		}
		return out
	default:
		return v
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
