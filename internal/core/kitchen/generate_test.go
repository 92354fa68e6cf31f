package kitchen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/kitchen/internal/core/compose"
	"github.com/artpar/kitchen/internal/core/manifest"
	"github.com/artpar/kitchen/internal/core/network"
	"github.com/artpar/kitchen/internal/core/resolver"
)

// =============================================================================
// Test Fixtures
// =============================================================================

const contractsYAML = `
services:
  hosomaki.postgres:
    docker:
      image: postgres:16
    provides: [cap.database]
    ports:
      - container: 5432
        host: "${POSTGRES_PORT:-5432}"
    volumes:
      - postgres_data:/var/lib/postgresql/data
    environment:
      POSTGRES_PASSWORD: changeme
  hosomaki.redis:
    docker:
      image: redis:7
    provides: [cap.cache]
    ports:
      - container: 6379
        host: "${REDIS_PORT:-6379}"
  futomaki.n8n:
    docker:
      image: n8nio/n8n
    requires: [cap.database]
    suggests: [cap.cache]
    ports:
      - container: 5678
        host: "${N8N_PORT:-5678}"
    healthcheck:
      endpoint: /healthz
  futomaki.grafana:
    docker:
      image: grafana/grafana
    requires: [futomaki.prometheus]
    ports:
      - container: 3000
        host: "${GRAFANA_PORT:-5432}"
  futomaki.prometheus:
    docker:
      image: prom/prometheus
  other.postgres:
    docker:
      image: postgres:15
capabilities:
  cap.database:
    providers: [hosomaki.postgres]
  cap.cache:
    providers: [hosomaki.redis]
`

const combosYAML = `
combos:
  - id: combo.automation
    includes: [futomaki.n8n]
    optional: [futomaki.grafana]
`

func buildIndex(t *testing.T) *manifest.Index {
	t.Helper()
	contracts, err := manifest.ParseContracts([]byte(contractsYAML))
	require.NoError(t, err)
	combos, err := manifest.ParseCombos([]byte(combosYAML))
	require.NoError(t, err)
	env, err := manifest.ParseEnvironment([]byte("global_environment:\n  TZ: UTC\n"))
	require.NoError(t, err)

	idx, err := manifest.Build(manifest.Documents{Contracts: contracts, Combos: combos, Environment: env})
	require.NoError(t, err)
	return idx
}

// =============================================================================
// Generate Tests
// =============================================================================

func TestGenerate_Segmented(t *testing.T) {
	idx := buildIndex(t)

	res, err := Generate(idx, Request{
		Selection:       []string{"combo.automation"},
		Tier:            network.TierSegmented,
		IncludeOptional: true,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"futomaki.grafana", "futomaki.n8n", "futomaki.prometheus", "hosomaki.postgres"}, res.Services)
	assert.Equal(t, []string{"grafana", "n8n", "postgres", "prometheus"}, res.Descriptor.ServiceNames())

	n8n := res.Descriptor.Services["n8n"]
	assert.Equal(t, []string{network.NetFrontend, network.NetBackend}, n8n.Networks)
	assert.Equal(t, []string{"postgres"}, n8n.DependsOn)
	assert.Equal(t, []string{"CMD-SHELL", "curl -f http://localhost:5678/healthz"}, n8n.HealthCheck.Test.Exec)
	assert.Equal(t, "UTC", n8n.Environment["TZ"])

	assert.Equal(t, []string{network.NetData}, res.Descriptor.Services["postgres"].Networks)

	order := res.StartOrder
	assert.Len(t, order, 4)
	assert.Less(t, indexOf(order, "postgres"), indexOf(order, "n8n"))
	assert.Less(t, indexOf(order, "prometheus"), indexOf(order, "grafana"))

	assert.True(t, res.Validation.Valid)
	assert.Equal(t, []string{"Potential port conflict on 5432 for service 'postgres'"}, res.Validation.Warnings)

	parsed, err := compose.Parse(res.YAML)
	require.NoError(t, err)
	assert.Equal(t, res.Descriptor, parsed)
	assert.NoError(t, compose.CheckConformance(res.YAML))
}

func TestGenerate_DefaultTierAndSuggestions(t *testing.T) {
	idx := buildIndex(t)

	res, err := Generate(idx, Request{Selection: []string{"futomaki.n8n"}, IncludeSuggested: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"futomaki.n8n", "hosomaki.postgres", "hosomaki.redis"}, res.Services)
	for name, svc := range res.Descriptor.Services {
		assert.Equal(t, []string{network.NetShared}, svc.Networks, name)
	}
	assert.Equal(t, []string{"postgres", "redis"}, res.Descriptor.Services["n8n"].DependsOn)
}

func TestGenerate_Errors(t *testing.T) {
	idx := buildIndex(t)

	tests := []struct {
		name   string
		req    Request
		target any
	}{
		{"unknown identifier", Request{Selection: []string{"nope.nothing"}}, new(*resolver.UnknownIdentifierError)},
		{"short name collision", Request{Selection: []string{"hosomaki.postgres", "other.postgres"}}, new(*compose.ShortNameCollisionError)},
		{"unknown tier", Request{Selection: []string{"hosomaki.redis"}, Tier: "bunker"}, new(*network.UnknownTierError)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Generate(idx, tt.req)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.ErrorAs(t, err, tt.target)
		})
	}

	_, err := Generate(idx, Request{})
	assert.ErrorIs(t, err, resolver.ErrEmptySelection)
}

func TestGenerate_Deterministic(t *testing.T) {
	idx := buildIndex(t)
	req := Request{Selection: []string{"combo.automation"}, Tier: network.TierMultiTier, IncludeOptional: true}

	first, err := Generate(idx, req)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Generate(idx, req)
		require.NoError(t, err)
		assert.Equal(t, string(first.YAML), string(again.YAML))
		assert.Equal(t, first.StartOrder, again.StartOrder)
	}
}

func TestGenerate_RequirementCycle(t *testing.T) {
	contracts, err := manifest.ParseContracts([]byte(`
services:
  svc.a:
    docker:
      image: example/a
    requires: [svc.b]
  svc.b:
    docker:
      image: example/b
    requires: [svc.a]
`))
	require.NoError(t, err)
	idx, err := manifest.Build(manifest.Documents{Contracts: contracts})
	require.NoError(t, err)

	res, err := Generate(idx, Request{Selection: []string{"svc.a"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"svc.a", "svc.b"}, res.Services)
	assert.Empty(t, res.Descriptor.Services["a"].DependsOn)
	assert.Equal(t, []string{"a"}, res.Descriptor.Services["b"].DependsOn)
	assert.Equal(t, []string{"a", "b"}, res.StartOrder)

	assert.True(t, res.Validation.Valid, res.Validation.Errors)
	assert.NoError(t, compose.CheckConformance(res.YAML))
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
