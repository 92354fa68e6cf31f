package resolver

import (
	"github.com/artpar/kitchen/internal/core/manifest"
)

// =============================================================================
// Bundle Expansion
// =============================================================================

// Expand flattens a combo, bento box or platter into its members.
//
// Known services are emitted as-is; every other member is expanded in turn,
// so combos can nest inside bento boxes inside platters. Members that are not
// bundles (capability tags, unknown IDs) come back unchanged for the resolver
// to deal with. An ID that is not a bundle at all is returned unchanged, which
// lets callers pass plain service IDs through.
//
// Optional members are only included when includeOptional is set, at every
// nesting level. A bundle that reaches itself again yields a CyclicBundleError.
//
// Example:
//
//	// combo.data includes hosomaki.redis and hosomaki.postgres
//	ids, _ := Expand(idx, "combo.data", false)
//	// ids: [hosomaki.redis hosomaki.postgres]
func Expand(idx *manifest.Index, bundleID string, includeOptional bool) ([]string, error) {
	e := expander{idx: idx, includeOptional: includeOptional, expanding: map[string]bool{}}
	var out []string
	if err := e.expand(bundleID, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type expander struct {
	idx             *manifest.Index
	includeOptional bool

	// path and expanding track the bundles currently being expanded.
	path      []string
	expanding map[string]bool
}

func (e *expander) expand(id string, out *[]string) error {
	bundle, ok := e.idx.Bundle(id)
	if !ok {
		*out = append(*out, id)
		return nil
	}

	if e.expanding[id] {
		cycle := append([]string{}, e.path[e.indexOf(id):]...)
		return &CyclicBundleError{Path: append(cycle, id)}
	}
	e.expanding[id] = true
	e.path = append(e.path, id)
	defer func() {
		e.path = e.path[:len(e.path)-1]
		delete(e.expanding, id)
	}()

	for _, member := range bundle.Members(e.includeOptional) {
		if e.idx.Lookup(member).Kind == manifest.KindService {
			*out = append(*out, member)
			continue
		}
		if err := e.expand(member, out); err != nil {
			return err
		}
	}
	return nil
}

func (e *expander) indexOf(id string) int {
	for i, p := range e.path {
		if p == id {
			return i
		}
	}
	return 0
}
