package resolver

import (
	"github.com/juju/collections/set"

	"github.com/artpar/kitchen/internal/core/manifest"
)

// =============================================================================
// Types
// =============================================================================

// Options tune how far resolution reaches.
type Options struct {
	// IncludeOptional pulls in the optional members of every selected bundle.
	IncludeOptional bool

	// IncludeSuggested follows suggests entries like requirements. Suggestions
	// that cannot be resolved are skipped.
	IncludeSuggested bool
}

// Resolution is the closed set of services needed for a selection.
type Resolution struct {
	// Services is sorted by ID.
	Services []string

	// Edges maps a service to the services its requirements resolved to.
	// Services without requirements have no entry.
	Edges map[string][]string
}

// Contains reports whether id is part of the resolution.
func (r *Resolution) Contains(id string) bool {
	for _, s := range r.Services {
		if s == id {
			return true
		}
	}
	return false
}

// =============================================================================
// Resolution
// =============================================================================

// Resolve computes the transitive closure of the selection.
//
// The selection may mix service IDs, bundle IDs and capability tags. Bundles
// are expanded, capability tags are mapped to a provider, and every added
// service pulls in its requirements until nothing new is found. Each call
// works on its own queue and sets, so concurrent calls over one Index are safe.
//
// Any unknown identifier or unprovidable capability aborts the whole call.
func Resolve(idx *manifest.Index, selection []string, opts Options) (*Resolution, error) {
	if len(selection) == 0 {
		return nil, ErrEmptySelection
	}

	r := &run{
		idx:      idx,
		opts:     opts,
		resolved: set.NewStrings(),
		bundles:  set.NewStrings(),
		edges:    make(map[string]set.Strings),
	}
	for _, id := range selection {
		r.enqueue(id, "")
	}

	for len(r.queue) > 0 {
		next := r.queue[0]
		r.queue = r.queue[1:]
		if err := r.visit(next); err != nil {
			return nil, err
		}
	}

	res := &Resolution{
		Services: r.resolved.SortedValues(),
		Edges:    make(map[string][]string, len(r.edges)),
	}
	for id, targets := range r.edges {
		res.Edges[id] = targets.SortedValues()
	}
	return res, nil
}

// SelectProvider picks the service that satisfies a capability: the default
// provider when it is a known service, otherwise the first known service in
// the capability's provider list.
func SelectProvider(idx *manifest.Index, capability string) (string, bool) {
	if preferred, ok := idx.DefaultProvider(capability); ok {
		if _, known := idx.Service(preferred); known {
			return preferred, true
		}
	}
	for _, candidate := range idx.Providers(capability) {
		if _, known := idx.Service(candidate); known {
			return candidate, true
		}
	}
	return "", false
}

// =============================================================================
// Work Queue
// =============================================================================

type queued struct {
	id       string
	referrer string
}

type run struct {
	idx  *manifest.Index
	opts Options

	queue    []queued
	resolved set.Strings
	bundles  set.Strings
	edges    map[string]set.Strings
}

func (r *run) enqueue(id, referrer string) {
	r.queue = append(r.queue, queued{id: id, referrer: referrer})
}

func (r *run) visit(item queued) error {
	if r.idx.Lookup(item.id).Kind.IsBundle() {
		if r.bundles.Contains(item.id) {
			return nil
		}
		r.bundles.Add(item.id)

		members, err := Expand(r.idx, item.id, r.opts.IncludeOptional)
		if err != nil {
			return err
		}
		for _, member := range members {
			r.enqueue(member, item.id)
		}
		return nil
	}

	services, err := r.targets(item.id, item.referrer)
	if err != nil {
		return err
	}
	for _, id := range services {
		if err := r.add(id); err != nil {
			return err
		}
	}
	return nil
}

// add records a service and queues what it requires.
func (r *run) add(id string) error {
	if r.resolved.Contains(id) {
		return nil
	}
	r.resolved.Add(id)

	svc, _ := r.idx.Service(id)
	for _, req := range svc.Requirements() {
		services, err := r.requirement(req, id)
		if err != nil {
			return err
		}
		r.link(id, services)
	}

	if r.opts.IncludeSuggested {
		for _, req := range svc.Suggestions() {
			services, err := r.requirement(req, id)
			if err != nil {
				continue
			}
			r.link(id, services)
		}
	}
	return nil
}

func (r *run) requirement(req manifest.Requirement, owner string) ([]string, error) {
	switch req.Kind {
	case manifest.RequirementService:
		return []string{req.ID}, nil
	case manifest.RequirementCapability:
		provider, ok := SelectProvider(r.idx, req.ID)
		if !ok {
			return nil, &UnresolvedCapabilityError{Capability: req.ID, RequiredBy: owner}
		}
		return []string{provider}, nil
	default:
		return r.targets(req.ID, owner)
	}
}

// targets maps an identifier to the concrete services it stands for.
func (r *run) targets(id, referrer string) ([]string, error) {
	ref := r.idx.Lookup(id)
	switch {
	case ref.Kind == manifest.KindService:
		return []string{id}, nil

	case ref.Kind == manifest.KindCapability:
		provider, ok := SelectProvider(r.idx, id)
		if !ok {
			return nil, &UnresolvedCapabilityError{Capability: id, RequiredBy: referrer}
		}
		return []string{provider}, nil

	case ref.Kind.IsBundle():
		members, err := Expand(r.idx, id, r.opts.IncludeOptional)
		if err != nil {
			return nil, err
		}
		var out []string
		for _, member := range members {
			services, err := r.targets(member, id)
			if err != nil {
				return nil, err
			}
			out = append(out, services...)
		}
		return out, nil
	}
	return nil, &UnknownIdentifierError{ID: id, Referrer: referrer}
}

func (r *run) link(from string, to []string) {
	for _, target := range to {
		if target != from {
			if r.edges[from] == nil {
				r.edges[from] = set.NewStrings()
			}
			r.edges[from].Add(target)
		}
		r.enqueue(target, from)
	}
}
