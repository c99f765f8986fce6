package expression

import (
	"fmt"
	"reflect"
	"sort"
)

// Paths flattens the context into dotted field paths and their printed values.
func Paths(ctx Context) map[string]string {
	res := make(map[string]string)
	addKeysToMap("", res, ctx)
	return res
}

// SortedPaths returns the field paths of the context in lexical order.
func SortedPaths(ctx Context) []string {
	paths := Paths(ctx)
	keys := make([]string, 0, len(paths))
	for k := range paths {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func addKeysToMap(root string, m map[string]string, temp map[string]any) {
	for k, v := range temp {
		key := k
		if root != "" {
			key = root + "." + k
		}
		if v == nil {
			continue
		}
		if reflect.TypeOf(v).Kind() != reflect.Map {
			m[key] = fmt.Sprintf("%v", v)
		} else if nested, ok := v.(map[string]any); ok {
			addKeysToMap(key, m, nested)
		}
	}
}
