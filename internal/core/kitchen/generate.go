// Package kitchen runs the whole generation pipeline: resolve a selection,
// synthesize the compose descriptor, apply a network tier and validate the
// result.
// This is part of the Functional Core - all functions are pure with no I/O.
package kitchen

import (
	"github.com/artpar/kitchen/internal/core/compose"
	"github.com/artpar/kitchen/internal/core/deployment"
	"github.com/artpar/kitchen/internal/core/manifest"
	"github.com/artpar/kitchen/internal/core/network"
	"github.com/artpar/kitchen/internal/core/resolver"
	"github.com/artpar/kitchen/internal/core/validation"
)

// DefaultTier is used when a request names no tier.
const DefaultTier = network.TierOpen

// Request selects what to generate.
type Request struct {
	Selection        []string
	Tier             network.Tier
	IncludeOptional  bool
	IncludeSuggested bool
}

// Result is a generated deployment.
type Result struct {
	Descriptor *compose.Descriptor
	Services   []string // resolved service IDs, sorted
	StartOrder []string // compose service names, dependencies first
	Validation validation.Result
	YAML       []byte
}

// Generate turns a selection into a validated compose document.
//
// Resolution, synthesis and tier errors abort with no result. Validation
// findings never abort: they are returned alongside the descriptor.
//
// Example:
//
//	res, err := Generate(idx, Request{Selection: []string{"platter.starter"}, Tier: network.TierSegmented})
//	if err != nil {
//	    // Unknown identifier, missing provider, cycle or name collision
//	}
//	os.Stdout.Write(res.YAML)
func Generate(idx *manifest.Index, req Request) (*Result, error) {
	tier := req.Tier
	if tier == "" {
		tier = DefaultTier
	}

	res, err := resolver.Resolve(idx, req.Selection, resolver.Options{
		IncludeOptional:  req.IncludeOptional,
		IncludeSuggested: req.IncludeSuggested,
	})
	if err != nil {
		return nil, err
	}

	base, err := compose.Synthesize(idx, res)
	if err != nil {
		return nil, err
	}

	d, err := network.ApplyProfile(base, tier)
	if err != nil {
		return nil, err
	}

	out, err := compose.Marshal(d)
	if err != nil {
		return nil, err
	}

	return &Result{
		Descriptor: d,
		Services:   res.Services,
		StartOrder: StartOrder(d),
		Validation: validation.ValidateWithIndex(d, idx, res.Services),
		YAML:       out,
	}, nil
}

// StartOrder lists the descriptor's services so that each comes after the
// services it depends on.
func StartOrder(d *compose.Descriptor) []string {
	deps := make(map[string][]string, len(d.Services))
	for name, svc := range d.Services {
		if svc == nil {
			deps[name] = nil
			continue
		}
		deps[name] = svc.DependsOn
	}
	return deployment.StartOrder(deps)
}
