package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/kitchen/internal/core/manifest"
)

// =============================================================================
// Test Fixtures
// =============================================================================

type fixture struct {
	services     map[string]*manifest.Service
	capabilities map[string]*manifest.Capability
	defaults     map[string]string
	combos       []manifest.Bundle
	bentos       []manifest.Bundle
	platters     []manifest.Bundle
}

func (f fixture) build(t *testing.T) *manifest.Index {
	t.Helper()
	contracts := &manifest.Contracts{
		Services:     f.services,
		Capabilities: f.capabilities,
	}
	contracts.DependencyResolution.DefaultProviders = f.defaults

	idx, err := manifest.Build(manifest.Documents{
		Contracts: contracts,
		Combos:    f.combos,
		Bentos:    f.bentos,
		Platters:  f.platters,
	})
	require.NoError(t, err)
	return idx
}

func svc(requires ...string) *manifest.Service {
	return &manifest.Service{Requires: requires}
}

func kitchenIndex(t *testing.T) *manifest.Index {
	return fixture{
		services: map[string]*manifest.Service{
			"svc.cache":  svc("cap.storage"),
			"svc.redis":  {Provides: []string{"cap.storage"}},
			"svc.disk":   {Provides: []string{"cap.storage"}},
			"svc.a":      svc("svc.base"),
			"svc.b":      svc(),
			"svc.c":      svc("cap.storage"),
			"svc.base":   svc(),
			"svc.broken": svc("cap.missing"),
			"svc.typo":   svc("svc.nowhere"),
			"svc.hint":   {Suggests: []string{"svc.b", "cap.missing"}},
		},
		capabilities: map[string]*manifest.Capability{
			"cap.storage": {Providers: []string{"svc.disk", "svc.redis"}},
		},
		defaults: map[string]string{"cap.storage": "svc.redis"},
		combos: []manifest.Bundle{
			{ID: "combo.x", Includes: []string{"svc.a", "svc.b"}, Optional: []string{"svc.c"}},
			{ID: "combo.y", Includes: []string{"svc.b"}},
		},
		bentos: []manifest.Bundle{
			{ID: "bento.xy", Includes: []string{"combo.x", "combo.y"}},
		},
		platters: []manifest.Bundle{
			{ID: "platter.all", Combos: []string{"combo.y"}, AdditionalServices: []string{"svc.cache"}, Includes: []string{"bento.xy"}},
		},
	}.build(t)
}

// =============================================================================
// Expand Tests
// =============================================================================

func TestExpand(t *testing.T) {
	idx := kitchenIndex(t)

	tests := []struct {
		name     string
		id       string
		optional bool
		want     []string
	}{
		{"unknown id passes through", "svc.a", false, []string{"svc.a"}},
		{"not an id at all", "whatever", false, []string{"whatever"}},
		{"combo without optional", "combo.x", false, []string{"svc.a", "svc.b"}},
		{"combo with optional", "combo.x", true, []string{"svc.a", "svc.b", "svc.c"}},
		{"nested bento", "bento.xy", false, []string{"svc.a", "svc.b", "svc.b"}},
		{"optional propagates", "bento.xy", true, []string{"svc.a", "svc.b", "svc.c", "svc.b"}},
		{"platter", "platter.all", false, []string{"svc.a", "svc.b", "svc.b", "svc.b", "svc.cache"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(idx, tt.id, tt.optional)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpand_Cycle(t *testing.T) {
	idx := fixture{
		services: map[string]*manifest.Service{"svc.a": svc()},
		combos: []manifest.Bundle{
			{ID: "combo.one", Includes: []string{"svc.a", "bento.two"}},
		},
		bentos: []manifest.Bundle{
			{ID: "bento.two", Includes: []string{"platter.three"}},
		},
		platters: []manifest.Bundle{
			{ID: "platter.three", Combos: []string{"combo.one"}},
		},
	}.build(t)

	_, err := Expand(idx, "combo.one", false)
	require.Error(t, err)

	var cycleErr *CyclicBundleError
	require.ErrorAs(t, err, &cycleErr)
	assert.Equal(t, []string{"combo.one", "bento.two", "platter.three", "combo.one"}, cycleErr.Path)
	assert.Contains(t, err.Error(), "combo.one -> bento.two")
}

func TestExpand_SelfReference(t *testing.T) {
	idx := fixture{
		services: map[string]*manifest.Service{},
		combos:   []manifest.Bundle{{ID: "combo.loop", Includes: []string{"combo.loop"}}},
	}.build(t)

	_, err := Expand(idx, "combo.loop", false)
	var cycleErr *CyclicBundleError
	require.ErrorAs(t, err, &cycleErr)
	assert.Equal(t, []string{"combo.loop", "combo.loop"}, cycleErr.Path)
}

func TestExpand_DiamondIsNotACycle(t *testing.T) {
	idx := fixture{
		services: map[string]*manifest.Service{"svc.a": svc()},
		combos:   []manifest.Bundle{{ID: "combo.shared", Includes: []string{"svc.a"}}},
		bentos: []manifest.Bundle{
			{ID: "bento.left", Includes: []string{"combo.shared"}},
			{ID: "bento.right", Includes: []string{"combo.shared"}},
		},
		platters: []manifest.Bundle{
			{ID: "platter.top", Includes: []string{"bento.left", "bento.right"}},
		},
	}.build(t)

	got, err := Expand(idx, "platter.top", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"svc.a", "svc.a"}, got)
}

// =============================================================================
// Resolve Tests
// =============================================================================

func TestResolve_CapabilityDefaultProvider(t *testing.T) {
	idx := kitchenIndex(t)

	res, err := Resolve(idx, []string{"svc.cache"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"svc.cache", "svc.redis"}, res.Services)
	assert.Equal(t, map[string][]string{"svc.cache": {"svc.redis"}}, res.Edges)
}

func TestResolve_OptionalMembers(t *testing.T) {
	idx := kitchenIndex(t)

	without, err := Resolve(idx, []string{"combo.x"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"svc.a", "svc.b", "svc.base"}, without.Services)

	with, err := Resolve(idx, []string{"combo.x"}, Options{IncludeOptional: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"svc.a", "svc.b", "svc.base", "svc.c", "svc.redis"}, with.Services)

	for _, id := range without.Services {
		assert.True(t, with.Contains(id), id)
	}
}

func TestResolve_Errors(t *testing.T) {
	idx := kitchenIndex(t)

	t.Run("empty selection", func(t *testing.T) {
		_, err := Resolve(idx, nil, Options{})
		assert.ErrorIs(t, err, ErrEmptySelection)
	})

	t.Run("unknown selection", func(t *testing.T) {
		_, err := Resolve(idx, []string{"svc.ghost"}, Options{})
		var unknown *UnknownIdentifierError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, "svc.ghost", unknown.ID)
		assert.Empty(t, unknown.Referrer)
	})

	t.Run("unknown requirement names its referrer", func(t *testing.T) {
		_, err := Resolve(idx, []string{"svc.typo"}, Options{})
		var unknown *UnknownIdentifierError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, "svc.nowhere", unknown.ID)
		assert.Equal(t, "svc.typo", unknown.Referrer)
	})

	t.Run("unprovided capability", func(t *testing.T) {
		_, err := Resolve(idx, []string{"svc.broken"}, Options{})
		var unresolved *UnresolvedCapabilityError
		require.ErrorAs(t, err, &unresolved)
		assert.Equal(t, "cap.missing", unresolved.Capability)
		assert.Equal(t, "svc.broken", unresolved.RequiredBy)
	})
}

func TestResolve_CapabilityInSelection(t *testing.T) {
	idx := kitchenIndex(t)

	res, err := Resolve(idx, []string{"cap.storage"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"svc.redis"}, res.Services)
}

func TestResolve_Suggestions(t *testing.T) {
	idx := kitchenIndex(t)

	res, err := Resolve(idx, []string{"svc.hint"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"svc.hint"}, res.Services)

	res, err = Resolve(idx, []string{"svc.hint"}, Options{IncludeSuggested: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"svc.b", "svc.hint"}, res.Services)
}

func TestResolve_ClosureAndIdempotence(t *testing.T) {
	idx := kitchenIndex(t)

	selections := [][]string{
		{"svc.cache"},
		{"combo.x"},
		{"bento.xy", "svc.cache"},
		{"platter.all"},
		{"svc.a", "svc.a", "combo.y"},
	}
	for _, selection := range selections {
		res, err := Resolve(idx, selection, Options{IncludeOptional: true})
		require.NoError(t, err)

		for _, id := range res.Services {
			s, ok := idx.Service(id)
			require.True(t, ok)
			for _, req := range s.Requirements() {
				if req.Kind == manifest.RequirementService {
					assert.True(t, res.Contains(req.ID), "%s requires %s", id, req.ID)
				}
			}
		}

		again, err := Resolve(idx, res.Services, Options{IncludeOptional: true})
		require.NoError(t, err)
		assert.Equal(t, res.Services, again.Services)
	}
}

func TestResolve_CycleInSelection(t *testing.T) {
	idx := fixture{
		services: map[string]*manifest.Service{},
		combos:   []manifest.Bundle{{ID: "combo.a", Includes: []string{"combo.b"}}, {ID: "combo.b", Includes: []string{"combo.a"}}},
	}.build(t)

	_, err := Resolve(idx, []string{"combo.a"}, Options{})
	var cycleErr *CyclicBundleError
	assert.ErrorAs(t, err, &cycleErr)
}

func TestSelectProvider(t *testing.T) {
	idx := fixture{
		services: map[string]*manifest.Service{
			"svc.second": svc(),
			"svc.third":  svc(),
		},
		capabilities: map[string]*manifest.Capability{
			"cap.db": {Providers: []string{"svc.first", "svc.second", "svc.third"}},
		},
		defaults: map[string]string{"cap.db": "svc.retired"},
	}.build(t)

	for i := 0; i < 3; i++ {
		provider, ok := SelectProvider(idx, "cap.db")
		require.True(t, ok)
		assert.Equal(t, "svc.second", provider)
	}

	_, ok := SelectProvider(idx, "cap.none")
	assert.False(t, ok)
}
