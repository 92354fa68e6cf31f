package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/kitchen/internal/core/compose"
	"github.com/artpar/kitchen/internal/core/manifest"
)

// =============================================================================
// Validate Tests
// =============================================================================

func TestValidate_Clean(t *testing.T) {
	d := &compose.Descriptor{
		Version: compose.Version,
		Services: map[string]*compose.Service{
			"web": {Image: "nginx", Networks: []string{"front"}, Ports: []string{"${WEB_PORT:-8080}:80"}},
			"api": {Image: "api", Networks: []string{"front"}, Ports: []string{"${API_PORT:-9000}:9000"}},
		},
		Networks: map[string]*compose.Network{"front": {Driver: "bridge"}},
	}

	result := Validate(d)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
	assert.NotNil(t, result.Warnings)
}

func TestValidate_UndefinedNetwork(t *testing.T) {
	d := &compose.Descriptor{
		Services: map[string]*compose.Service{
			"web": {Networks: []string{"front", "ghost"}},
			"api": {Networks: []string{"phantom"}},
		},
		Networks: map[string]*compose.Network{"front": {}},
	}

	result := Validate(d)
	assert.False(t, result.Valid)
	assert.Equal(t, []string{
		"Service 'api' references undefined network 'phantom'",
		"Service 'web' references undefined network 'ghost'",
	}, result.Errors)
}

func TestValidate_PortDefaults(t *testing.T) {
	tests := []struct {
		name     string
		services map[string]*compose.Service
		want     []string
	}{
		{
			name: "repeated templated default",
			services: map[string]*compose.Service{
				"a": {Ports: []string{"${A_PORT:-8080}:80"}},
				"b": {Ports: []string{"${B_PORT:-8080}:8080"}},
			},
			want: []string{"Potential port conflict on 8080 for service 'b'"},
		},
		{
			name: "literal repeats are ignored",
			services: map[string]*compose.Service{
				"a": {Ports: []string{"8080:80"}},
				"b": {Ports: []string{"8080:80"}},
			},
		},
		{
			name: "templated and literal do not mix",
			services: map[string]*compose.Service{
				"a": {Ports: []string{"${A_PORT:-8080}:80"}},
				"b": {Ports: []string{"8080:80"}},
			},
		},
		{
			name: "same service twice",
			services: map[string]*compose.Service{
				"a": {Ports: []string{"${A_PORT:-53}:53", "${A_UDP:-53}:53/udp"}},
			},
			want: []string{"Potential port conflict on 53 for service 'a'"},
		},
		{
			name: "placeholder without default",
			services: map[string]*compose.Service{
				"a": {Ports: []string{"${A_PORT}:80"}},
				"b": {Ports: []string{"${A_PORT}:80"}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(&compose.Descriptor{Services: tt.services})
			assert.True(t, result.Valid)
			if tt.want == nil {
				assert.Empty(t, result.Warnings)
				return
			}
			assert.Equal(t, tt.want, result.Warnings)
		})
	}
}

// =============================================================================
// ValidateWithIndex Tests
// =============================================================================

func TestValidateWithIndex_Conflicts(t *testing.T) {
	contracts, err := manifest.ParseContracts([]byte(`
services:
  db.postgres:
    provides: [cap.database]
  db.mysql:
    provides: [cap.database]
    conflicts: [db.postgres]
  app.api:
    conflicts: [cap.database, db.missing]
`))
	require.NoError(t, err)
	idx, err := manifest.Build(manifest.Documents{Contracts: contracts})
	require.NoError(t, err)

	d := &compose.Descriptor{Services: map[string]*compose.Service{"postgres": {}, "mysql": {}, "api": {}}}
	result := ValidateWithIndex(d, idx, []string{"db.postgres", "db.mysql", "app.api"})

	assert.True(t, result.Valid)
	assert.Equal(t, []string{
		"Service 'app.api' conflicts with 'db.mysql'",
		"Service 'app.api' conflicts with 'db.postgres'",
		"Service 'db.mysql' conflicts with 'db.postgres'",
	}, result.Warnings)
}

// =============================================================================
// ValidateYAML Tests
// =============================================================================

func TestValidateYAML(t *testing.T) {
	t.Run("valid document", func(t *testing.T) {
		result := ValidateYAML([]byte(`
services:
  web:
    image: nginx
    networks: [front]
networks:
  front:
    driver: bridge
`))
		assert.True(t, result.Valid)
		assert.Empty(t, result.Errors)
	})

	t.Run("undefined network is reported twice", func(t *testing.T) {
		result := ValidateYAML([]byte(`
services:
  web:
    image: nginx
    networks: [ghost]
`))
		assert.False(t, result.Valid)
		require.Len(t, result.Errors, 2)
		assert.Equal(t, "Service 'web' references undefined network 'ghost'", result.Errors[0])
		assert.Contains(t, result.Errors[1], "compose conformance")
	})

	t.Run("unparsable", func(t *testing.T) {
		result := ValidateYAML([]byte("services: [oops"))
		assert.False(t, result.Valid)
		assert.Len(t, result.Errors, 1)
	})
}

func TestValidateYAML_OtherComposeSyntax(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"list environment", `
services:
  web:
    image: nginx
    environment:
      - FOO=bar
`},
		{"network mapping", `
services:
  web:
    image: nginx
    networks:
      front:
        aliases: [www]
networks:
  front: {}
`},
		{"long port syntax", `
services:
  web:
    image: nginx
    ports:
      - target: 80
        published: "8080"
`},
		{"depends_on mapping", `
services:
  web:
    image: nginx
    depends_on:
      db:
        condition: service_started
  db:
    image: postgres
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, compose.CheckConformance([]byte(tt.doc)))

			result := ValidateYAML([]byte(tt.doc))
			assert.True(t, result.Valid, result.Errors)
			assert.Empty(t, result.Errors)
			require.Len(t, result.Warnings, 1)
			assert.Contains(t, result.Warnings[0], "Descriptor checks skipped")
		})
	}
}

func TestValidateYAML_OtherSyntaxStillChecked(t *testing.T) {
	result := ValidateYAML([]byte(`
services:
  web:
    image: nginx
    environment:
      - FOO=bar
    networks:
      ghost: {}
`))
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "compose conformance")
	assert.Empty(t, result.Warnings)
}
