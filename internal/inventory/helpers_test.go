package inventory

import (
	"sort"

	"github.com/mschirtzinger/ragsync/internal/remote"
)

func sortedKeys(m map[string]remote.Document) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
