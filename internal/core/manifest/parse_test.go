package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseContracts_EmptyInput(t *testing.T) {
	_, err := ParseContracts([]byte("  \n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedDocument)
}

func TestParseContracts_InvalidYAML(t *testing.T) {
	_, err := ParseContracts([]byte("services: [unclosed"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedDocument)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "contracts", loadErr.Document)
}

func TestParseContracts_ServiceFields(t *testing.T) {
	doc := `
services:
  hosomaki.jupyter:
    docker:
      image: jupyter/base:latest
      platform: linux/amd64
      profiles: [notebooks]
    command: start-notebook.sh --NotebookApp.token=''
    ports:
      - container: 8888
        host: 8888
        description: notebook
      - "9000:9000"
      - container: 53
        protocol: udp
    volumes:
      - jupyter_data:/home/jovyan
      - type: bind
        source: ./notebooks
        mount: /home/jovyan/work
      - type: named
        name: cache
        target: /cache
    environment:
      JUPYTER_ENABLE_LAB: true
      EMPTY: null
      PORT: 8888
    resource_requirements:
      cpu_cores: 2
      memory_mb: 4096
      gpu_required: true
    device_requests:
      - driver: nvidia
        count: all
        capabilities: [gpu]
    healthcheck:
      endpoint: /api
      interval: 30s
      retries: 3
    networks:
      default: [frontend, backend]
`
	contracts, err := ParseContracts([]byte(doc))
	require.NoError(t, err)

	svc := contracts.Services["hosomaki.jupyter"]
	require.NotNil(t, svc)

	assert.Equal(t, "jupyter/base:latest", svc.ImageRef())
	assert.Equal(t, "linux/amd64", svc.Docker.Platform)
	assert.Equal(t, []string{"notebooks"}, svc.Docker.Profiles)
	assert.Equal(t, "start-notebook.sh --NotebookApp.token=''", svc.Command.Shell)

	require.Len(t, svc.Ports, 3)
	assert.Equal(t, Scalar("8888"), svc.Ports[0].Container)
	assert.Equal(t, Scalar("8888"), svc.Ports[0].Host)
	assert.Equal(t, "notebook", svc.Ports[0].Description)
	assert.Equal(t, "9000:9000", svc.Ports[1].Raw)
	assert.Equal(t, "udp", svc.Ports[2].Protocol)

	require.Len(t, svc.Volumes, 3)
	assert.Equal(t, "jupyter_data:/home/jovyan", svc.Volumes[0].Raw)
	assert.Equal(t, "bind", svc.Volumes[1].Type)
	assert.Equal(t, "/home/jovyan/work", svc.Volumes[1].Mount)
	assert.Equal(t, "/cache", svc.Volumes[2].Mount)

	assert.Equal(t, map[string]string{
		"JUPYTER_ENABLE_LAB": "true",
		"EMPTY":              "",
		"PORT":               "8888",
	}, svc.Environment.Map())

	assert.Equal(t, Scalar("2"), svc.Resources.CPUCores)
	assert.Equal(t, Scalar("4096"), svc.Resources.MemoryMB)
	assert.True(t, svc.Resources.GPURequired)

	require.Len(t, svc.DeviceRequests, 1)
	assert.Equal(t, Scalar("all"), svc.DeviceRequests[0].Count)

	require.NotNil(t, svc.HealthCheck)
	assert.Equal(t, "/api", svc.HealthCheck.Endpoint)
	require.NotNil(t, svc.HealthCheck.Retries)
	assert.Equal(t, 3, *svc.HealthCheck.Retries)

	assert.Equal(t, NetworkTags{"frontend", "backend"}, svc.Networks)
}

func TestEnvDecl_ListForm(t *testing.T) {
	doc := `
services:
  a.b:
    environment:
      - KEY=value
      - URL=http://x?a=b
      - NOEQUALS
`
	contracts, err := ParseContracts([]byte(doc))
	require.NoError(t, err)

	env := contracts.Services["a.b"].Environment
	assert.Equal(t, EnvDecl{
		{Key: "KEY", Value: "value"},
		{Key: "URL", Value: "http://x?a=b"},
	}, env)
}

func TestParseBundles(t *testing.T) {
	combos, err := ParseCombos([]byte(combosYAML))
	require.NoError(t, err)
	require.Len(t, combos, 1)
	assert.Equal(t, "combo.data", combos[0].ID)
	assert.Equal(t, []string{"futomaki.api"}, combos[0].Optional)

	bentos, err := ParseBentos([]byte(`
bento_boxes:
  - id: bento.ai
    includes: [combo.data, cap.llm]
    difficulty: advanced
`))
	require.NoError(t, err)
	require.Len(t, bentos, 1)
	assert.Equal(t, "advanced", bentos[0].Difficulty)

	platters, err := ParsePlatters([]byte(plattersYAML))
	require.NoError(t, err)
	assert.Equal(t, []string{"combo.data"}, platters[0].Combos)
	assert.Equal(t, []string{"futomaki.api"}, platters[0].AdditionalServices)
}

func TestParseEnvironment(t *testing.T) {
	doc := `
name: development
global_environment:
  TZ: UTC
  DEBUG: false
global_env:
  TZ: Europe/Paris
service_overrides:
  hosomaki.redis:
    REDIS_MAXMEMORY: 256mb
  databases:
    hosomaki.postgres:
      POSTGRES_DB: kitchen
      POOL: 10
`
	tmpl, err := ParseEnvironment([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, "development", tmpl.Name)
	assert.Equal(t, map[string]string{"TZ": "Europe/Paris", "DEBUG": "false"}, tmpl.Global)
	assert.Equal(t, map[string]map[string]string{
		"hosomaki.redis":    {"REDIS_MAXMEMORY": "256mb"},
		"hosomaki.postgres": {"POSTGRES_DB": "kitchen", "POOL": "10"},
	}, tmpl.ServiceOverrides)
}

func TestParseNetworkProfile(t *testing.T) {
	doc := `
name: open-research
networks:
  kitchen_net:
    driver: bridge
    ipam:
      config:
        - subnet: 172.20.0.0/16
`
	profile, err := ParseNetworkProfile([]byte(doc))
	require.NoError(t, err)

	require.Contains(t, profile.Networks, "kitchen_net")
	net := profile.Networks["kitchen_net"]
	assert.Equal(t, "bridge", net.Driver)
	assert.Equal(t, []string{"172.20.0.0/16"}, net.Subnets())
}
