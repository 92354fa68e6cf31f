package deployment

import "sort"

// =============================================================================
// Service Ordering Functions
// =============================================================================

// StartOrder sorts service names so that every service comes after the
// services it depends on, using Kahn's algorithm:
//  1. Count each service's dependencies that are part of the graph (in-degree)
//  2. Start with services that have no dependencies (in-degree = 0)
//  3. Process each service, reducing the in-degree of its dependents
//  4. When a dependent's in-degree reaches 0, add it to the queue
//
// Ready services are taken in name order, so the result is deterministic.
// Dependencies that are not in the graph are ignored. If a cycle exists, the
// services caught in it are appended in name order.
//
// Example:
//
//	// web → api → db
//	StartOrder(map[string][]string{"web": {"api"}, "api": {"db"}, "db": nil})
//	// Result: [db, api, web]
func StartOrder(dependsOn map[string][]string) []string {
	if len(dependsOn) == 0 {
		return []string{}
	}

	// Build dependency graph
	inDegree := make(map[string]int, len(dependsOn))
	dependents := make(map[string][]string)
	for name := range dependsOn {
		inDegree[name] = 0
	}
	for name, deps := range dependsOn {
		for _, dep := range uniqueStrings(deps) {
			if _, ok := dependsOn[dep]; !ok || dep == name {
				continue
			}
			inDegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	// Start with services that have no dependencies
	var ready []string
	for name, degree := range inDegree {
		if degree == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	result := make([]string, 0, len(dependsOn))
	done := make(map[string]bool, len(dependsOn))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		result = append(result, name)
		done[name] = true

		// Reduce in-degree for dependents
		var released []string
		for _, dep := range dependents[name] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				released = append(released, dep)
			}
		}
		if len(released) > 0 {
			ready = append(ready, released...)
			sort.Strings(ready)
		}
	}

	// Anything left is part of a cycle
	if len(result) < len(dependsOn) {
		var rest []string
		for name := range dependsOn {
			if !done[name] {
				rest = append(rest, name)
			}
		}
		sort.Strings(rest)
		result = append(result, rest...)
	}

	return result
}

// BreakCycles returns a copy of dependsOn without the edges that close a
// cycle. An edge is kept only when its dependency comes first in StartOrder,
// so the result is acyclic and orders services the same way. Self references
// and dependencies outside the graph are dropped. Kept dependencies are sorted.
func BreakCycles(dependsOn map[string][]string) map[string][]string {
	position := make(map[string]int, len(dependsOn))
	for i, name := range StartOrder(dependsOn) {
		position[name] = i
	}

	out := make(map[string][]string, len(dependsOn))
	for name, deps := range dependsOn {
		var kept []string
		for _, dep := range uniqueStrings(deps) {
			if pos, ok := position[dep]; ok && pos < position[name] {
				kept = append(kept, dep)
			}
		}
		sort.Strings(kept)
		out[name] = kept
	}
	return out
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
