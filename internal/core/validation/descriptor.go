package validation

import (
	"fmt"

	"github.com/juju/collections/set"

	"github.com/artpar/kitchen/internal/core/compose"
	"github.com/artpar/kitchen/internal/core/deployment"
	"github.com/artpar/kitchen/internal/core/manifest"
)

// Result is the outcome of validating a descriptor.
type Result struct {
	Valid    bool     `json:"valid"`
	Warnings []string `json:"warnings"`
	Errors   []string `json:"errors"`
}

func newResult() Result {
	return Result{Valid: true, Warnings: []string{}, Errors: []string{}}
}

func (r *Result) addError(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) addWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// =============================================================================
// Descriptor Validation Functions
// =============================================================================

// Validate checks a descriptor for networks that services use but nobody
// declares (errors) and for templated host ports whose defaults repeat
// (warnings). Services are visited in name order.
//
// Only ${VAR:-default} host ports are compared: a literal port conflict is
// left to Docker, and a templated port may be overridden at deploy time.
//
// Example:
//
//	result := Validate(d)
//	// result.Warnings: ["Potential port conflict on 8080 for service 'web'"]
func Validate(d *compose.Descriptor) Result {
	result := newResult()

	for _, name := range d.ServiceNames() {
		svc := d.Services[name]
		if svc == nil {
			continue
		}
		for _, network := range svc.Networks {
			if _, ok := d.Networks[network]; !ok {
				result.addError("Service '%s' references undefined network '%s'", name, network)
			}
		}
	}

	used := set.NewStrings()
	for _, name := range d.ServiceNames() {
		svc := d.Services[name]
		if svc == nil {
			continue
		}
		for _, spec := range svc.Ports {
			port, ok := deployment.PlaceholderDefault(deployment.ParsePortSpec(spec).Host)
			if !ok || port == "" {
				continue
			}
			if used.Contains(port) {
				result.addWarning("Potential port conflict on %s for service '%s'", port, name)
			}
			used.Add(port)
		}
	}

	return result
}

// ValidateWithIndex runs Validate and also warns when two resolved services
// declare a conflict. A conflict names either a service or a capability; a
// capability conflicts with every other resolved service that provides it.
func ValidateWithIndex(d *compose.Descriptor, idx *manifest.Index, services []string) Result {
	result := Validate(d)

	resolved := set.NewStrings(services...)
	for _, id := range resolved.SortedValues() {
		svc, ok := idx.Service(id)
		if !ok {
			continue
		}
		for _, conflict := range svc.Conflicts {
			for _, other := range conflictingServices(idx, resolved, conflict) {
				if other != id {
					result.addWarning("Service '%s' conflicts with '%s'", id, other)
				}
			}
		}
	}
	return result
}

func conflictingServices(idx *manifest.Index, resolved set.Strings, conflict string) []string {
	if !manifest.IsCapability(conflict) {
		if resolved.Contains(conflict) {
			return []string{conflict}
		}
		return nil
	}
	var out []string
	for _, id := range resolved.SortedValues() {
		svc, ok := idx.Service(id)
		if !ok {
			continue
		}
		for _, provided := range svc.Provides {
			if provided == conflict {
				out = append(out, id)
				break
			}
		}
	}
	return out
}

// ValidateYAML validates a raw compose document. Docker Compose conformance
// decides validity. The descriptor checks of Validate run only when the
// document fits the descriptor shape written by Synthesize; other valid
// compose syntax (list environments, long port entries, network or
// depends_on mappings) skips them with a warning.
func ValidateYAML(raw []byte) Result {
	d, parseErr := compose.Parse(raw)
	result := newResult()
	if parseErr == nil {
		result = Validate(d)
	}

	if err := compose.CheckConformance(raw); err != nil {
		result.addError("%s", err.Error())
	} else if parseErr != nil {
		result.addWarning("Descriptor checks skipped: %s", parseErr.Error())
	}
	return result
}
