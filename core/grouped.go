package core

import "sort"

// GroupedSource is a data source horizontally partitioned by a group key.
// Each group's rows form an independent fitting problem.
type GroupedSource interface {
	Keys() []string
	Group(key string) Source
}

// GroupMap adapts an in-memory key-to-rows mapping to GroupedSource.
type GroupMap map[string][]Row

// Keys returns the group keys in sorted order.
func (g GroupMap) Keys() []string {
	keys := make([]string, 0, len(g))
	for k := range g {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Group returns the rows of one key.
func (g GroupMap) Group(key string) Source { return SliceSource(g[key]) }
