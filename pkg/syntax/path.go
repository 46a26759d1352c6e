package syntax

import (
	"sort"
	"strconv"
	"strings"
)

// PathSeparator separates the components of an element path.
const PathSeparator = "."

// ChildPath builds the path of occurrence index of the sub-element name
// below parent. Index 0 carries no suffix, index k > 0 is rendered as
// name_(k+1): usage, usage_2, usage_3, ...
func ChildPath(parent, name string, index int) string {
	p := name
	if index > 0 {
		p = name + "_" + strconv.Itoa(index+1)
	}
	if parent == "" {
		return p
	}
	return parent + PathSeparator + p
}

// Within reports whether path is prefix itself or lies below it. Prefixes
// only match on component boundaries, so "A.usage_2" is not within "A.usage".
func Within(path, prefix string) bool {
	if path == prefix {
		return true
	}
	return len(path) > len(prefix) && strings.HasPrefix(path, prefix) && path[len(prefix)] == '.'
}

// Relative strips ancestor and the following separator from path.
func Relative(path, ancestor string) (string, bool) {
	if len(path) <= len(ancestor) || !Within(path, ancestor) {
		return "", false
	}
	return path[len(ancestor)+1:], true
}

// splitCounter separates a component into its name and occurrence number.
// A component without counter suffix has occurrence 1.
func splitCounter(component string) (string, int) {
	i := strings.LastIndexByte(component, '_')
	if i <= 0 || i == len(component)-1 {
		return component, 1
	}
	n, err := strconv.Atoi(component[i+1:])
	if err != nil || n < 2 {
		return component, 1
	}
	return component[:i], n
}

// ComparePaths orders paths component by component, comparing names
// lexically and occurrence counters numerically, so that X < X_2 < X_10.
func ComparePaths(a, b string) int {
	ac := strings.Split(a, PathSeparator)
	bc := strings.Split(b, PathSeparator)
	for i := 0; i < len(ac) && i < len(bc); i++ {
		an, ak := splitCounter(ac[i])
		bn, bk := splitCounter(bc[i])
		if c := strings.Compare(an, bn); c != 0 {
			return c
		}
		if ak != bk {
			if ak < bk {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(ac) < len(bc):
		return -1
	case len(ac) > len(bc):
		return 1
	}
	return 0
}

// SortedPaths returns the keys of values in ComparePaths order.
func SortedPaths(values map[string]string) []string {
	paths := make([]string, 0, len(values))
	for p := range values {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool { return ComparePaths(paths[i], paths[j]) < 0 })
	return paths
}
