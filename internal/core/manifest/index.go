package manifest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
)

// =============================================================================
// Identifier Kinds
// =============================================================================

// Kind tells which table an identifier belongs to.
type Kind string

const (
	KindUnknown    Kind = ""
	KindService    Kind = "service"
	KindCombo      Kind = "combo"
	KindBento      Kind = "bento"
	KindPlatter    Kind = "platter"
	KindCapability Kind = "capability"
)

// kindNames maps user-facing kind names to kinds. Singular and plural forms
// are both accepted.
var kindNames = map[string]Kind{
	"service":      KindService,
	"services":     KindService,
	"combo":        KindCombo,
	"combos":       KindCombo,
	"bento":        KindBento,
	"bentos":       KindBento,
	"bento-boxes":  KindBento,
	"platter":      KindPlatter,
	"platters":     KindPlatter,
	"capability":   KindCapability,
	"capabilities": KindCapability,
}

// ParseKind parses a kind name, case-insensitively.
func ParseKind(name string) (Kind, bool) {
	kind, ok := kindNames[strings.ToLower(strings.TrimSpace(name))]
	return kind, ok
}

// IsBundle reports whether the kind is one of the bundle kinds.
func (k Kind) IsBundle() bool {
	return k == KindCombo || k == KindBento || k == KindPlatter
}

// Ref is an identifier resolved against the index.
type Ref struct {
	ID   string
	Kind Kind
}

// =============================================================================
// Index
// =============================================================================

// Documents are the decoded manifest documents an Index is built from.
// Only Contracts is required.
type Documents struct {
	Contracts   *Contracts
	Combos      []Bundle
	Bentos      []Bundle
	Platters    []Bundle
	Environment *EnvironmentTemplate
	Network     *NetworkProfile
}

// Index is the immutable, in-memory catalog. It is safe for concurrent use
// because nothing mutates it after Build returns.
type Index struct {
	services         map[string]*Service
	bundles          map[string]*Bundle
	capabilities     map[string]*Capability
	defaultProviders map[string]string
	kinds            map[string]Kind
	environment      EnvironmentTemplate
	network          NetworkProfile
}

var validate = validator.New()

// Build validates the documents and indexes every entity by ID.
// All problems are reported together in a single LoadError.
func Build(docs Documents) (*Index, error) {
	if docs.Contracts == nil {
		return nil, NewLoadError("contracts", "contracts document is required", ErrMissingDocument)
	}

	idx := &Index{
		services:         make(map[string]*Service, len(docs.Contracts.Services)),
		bundles:          make(map[string]*Bundle),
		capabilities:     make(map[string]*Capability, len(docs.Contracts.Capabilities)),
		defaultProviders: make(map[string]string),
		kinds:            make(map[string]Kind),
	}

	var errs *multierror.Error
	define := func(id string, kind Kind) bool {
		if prev, ok := idx.kinds[id]; ok {
			errs = multierror.Append(errs, fmt.Errorf("%w: %q is defined as both %s and %s", ErrDuplicateIdentifier, id, prev, kind))
			return false
		}
		idx.kinds[id] = kind
		return true
	}

	for _, id := range sortedKeys(docs.Contracts.Services) {
		svc := docs.Contracts.Services[id]
		if svc == nil {
			svc = &Service{}
		}
		if err := validate.Struct(svc); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%w: service %q: %v", ErrInvalidManifest, id, err))
			continue
		}
		copied := *svc
		copied.ID = id
		if define(id, KindService) {
			idx.services[id] = &copied
		}
	}

	for _, id := range sortedKeys(docs.Contracts.Capabilities) {
		capability := docs.Contracts.Capabilities[id]
		if capability == nil {
			capability = &Capability{}
		}
		if !IsCapability(id) {
			errs = multierror.Append(errs, fmt.Errorf("%w: capability %q must start with %q", ErrInvalidManifest, id, CapabilityPrefix))
			continue
		}
		if err := validate.Struct(capability); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%w: capability %q: %v", ErrInvalidManifest, id, err))
			continue
		}
		copied := *capability
		copied.ID = id
		if define(id, KindCapability) {
			idx.capabilities[id] = &copied
		}
	}
	for capability, provider := range docs.Contracts.DependencyResolution.DefaultProviders {
		idx.defaultProviders[capability] = provider
	}

	addBundles := func(bundles []Bundle, kind Kind) {
		for i := range bundles {
			b := bundles[i]
			if err := validate.Struct(&b); err != nil {
				errs = multierror.Append(errs, fmt.Errorf("%w: %s #%d: %v", ErrInvalidManifest, kind, i, err))
				continue
			}
			b.Kind = kind
			if define(b.ID, kind) {
				idx.bundles[b.ID] = &b
			}
		}
	}
	addBundles(docs.Combos, KindCombo)
	addBundles(docs.Bentos, KindBento)
	addBundles(docs.Platters, KindPlatter)

	if docs.Environment != nil {
		idx.environment = *docs.Environment
	}
	if docs.Network != nil {
		idx.network = *docs.Network
	}

	if errs != nil {
		errs.ErrorFormat = joinErrors
		return nil, NewLoadError("", errs.Error(), ErrInvalidManifest)
	}

	// Requirements are classified once, now that every table is known.
	for _, svc := range idx.services {
		svc.requirements = idx.classify(svc.Requires)
		svc.suggestions = idx.classify(svc.Suggests)
	}

	return idx, nil
}

func (idx *Index) classify(entries []string) []Requirement {
	if len(entries) == 0 {
		return nil
	}
	reqs := make([]Requirement, 0, len(entries))
	for _, entry := range entries {
		kind := RequirementUnknown
		switch {
		case idx.kinds[entry] == KindService:
			kind = RequirementService
		case IsCapability(entry):
			kind = RequirementCapability
		}
		reqs = append(reqs, Requirement{Kind: kind, ID: entry})
	}
	return reqs
}

// =============================================================================
// Lookups
// =============================================================================

// Lookup resolves an identifier to its kind. Capability tags that are not in
// the capabilities table are still reported as capabilities.
func (idx *Index) Lookup(id string) Ref {
	if kind, ok := idx.kinds[id]; ok {
		return Ref{ID: id, Kind: kind}
	}
	if IsCapability(id) {
		return Ref{ID: id, Kind: KindCapability}
	}
	return Ref{ID: id, Kind: KindUnknown}
}

// Service returns the contract for id.
func (idx *Index) Service(id string) (*Service, bool) {
	svc, ok := idx.services[id]
	return svc, ok
}

// Bundle returns the combo, bento box or platter with the given id.
func (idx *Index) Bundle(id string) (*Bundle, bool) {
	b, ok := idx.bundles[id]
	return b, ok
}

// Capability returns the capability with the given tag.
func (idx *Index) Capability(id string) (*Capability, bool) {
	c, ok := idx.capabilities[id]
	return c, ok
}

// DefaultProvider returns the preferred provider for a capability.
func (idx *Index) DefaultProvider(capability string) (string, bool) {
	p, ok := idx.defaultProviders[capability]
	return p, ok
}

// Providers returns the ordered provider list of a capability.
func (idx *Index) Providers(capability string) []string {
	if c, ok := idx.capabilities[capability]; ok {
		return c.Providers
	}
	return nil
}

// Environment returns the environment template.
func (idx *Index) Environment() EnvironmentTemplate {
	return idx.environment
}

// Network returns the network profile document.
func (idx *Index) Network() NetworkProfile {
	return idx.network
}

// ServiceIDs returns every service ID in sorted order.
func (idx *Index) ServiceIDs() []string {
	return sortedKeys(idx.services)
}

// CapabilityIDs returns every capability tag in sorted order.
func (idx *Index) CapabilityIDs() []string {
	return sortedKeys(idx.capabilities)
}

// Bundles returns the bundles of one kind sorted by ID.
func (idx *Index) Bundles(kind Kind) []*Bundle {
	var out []*Bundle
	for _, id := range sortedKeys(idx.bundles) {
		if b := idx.bundles[id]; b.Kind == kind {
			out = append(out, b)
		}
	}
	return out
}

// Counts returns the number of entities per kind.
func (idx *Index) Counts() map[Kind]int {
	counts := make(map[Kind]int)
	for _, kind := range idx.kinds {
		counts[kind]++
	}
	return counts
}

// =============================================================================
// Helpers
// =============================================================================

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func joinErrors(errs []error) string {
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}
