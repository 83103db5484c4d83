package reconcile

import "sort"

// Keys returns the material ids present in a sparse map.
func Keys[V any](m map[int]V) []int {
	out := make([]int, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	return out
}

// Union merges key sets into one sorted, deduplicated id list. Every
// union-of-sparse-maps walk in the pipeline goes through this; a missing
// key in any source map reads as zero.
func Union(keySets ...[]int) []int {
	seen := make(map[int]struct{})
	for _, set := range keySets {
		for _, id := range set {
			seen[id] = struct{}{}
		}
	}
	out := make([]int, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}
