package openapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Selection []string `json:"selection"`
	Tier      string   `json:"tier,omitempty"`
	Optional  *bool    `json:"include_optional"`
}

type sampleResponse struct {
	ID        string            `json:"id"`
	Count     int               `json:"count"`
	Labels    map[string]string `json:"labels"`
	CreatedAt time.Time         `json:"created_at"`
	internal  string
	Skipped   string `json:"-"`
}

func newSampleGenerator() *Generator {
	g := NewGenerator(WithTitle("Test API"), WithVersion("2.0.0"), WithServer("http://localhost:8080"))
	g.Register(Operation{
		Method:   http.MethodPost,
		Path:     "/api/v1/things",
		ID:       "createThing",
		Summary:  "Create a thing",
		Tag:      "Things",
		Request:  sampleRequest{},
		Response: sampleResponse{},
		Status:   http.StatusCreated,
	})
	g.Register(Operation{
		Method:      http.MethodGet,
		Path:        "/api/v1/things/{id}",
		ID:          "getThing",
		Response:    &sampleResponse{},
		QueryParams: []string{"limit"},
	})
	return g
}

func TestGenerator_Info(t *testing.T) {
	spec := newSampleGenerator().Generate()

	assert.Equal(t, "3.0.3", spec.OpenAPI)
	assert.Equal(t, "Test API", spec.Info.Title)
	assert.Equal(t, "2.0.0", spec.Info.Version)
	require.Len(t, spec.Servers, 1)
	assert.Equal(t, "http://localhost:8080", spec.Servers[0].URL)
	assert.Contains(t, spec.Components.Schemas, "Error")
}

func TestGenerator_Operations(t *testing.T) {
	spec := newSampleGenerator().Generate()

	create := spec.Paths.Value("/api/v1/things")
	require.NotNil(t, create)
	require.NotNil(t, create.Post)
	assert.Equal(t, "createThing", create.Post.OperationID)
	assert.Equal(t, []string{"Things"}, create.Post.Tags)
	require.NotNil(t, create.Post.RequestBody)
	assert.NotNil(t, create.Post.Responses.Value("201"))
	assert.NotNil(t, create.Post.Responses.Value("default"))
	assert.Nil(t, create.Post.Responses.Value("200"))

	get := spec.Paths.Value("/api/v1/things/{id}")
	require.NotNil(t, get)
	require.NotNil(t, get.Get)
	require.Len(t, get.Parameters, 1)
	assert.Equal(t, "id", get.Parameters[0].Value.Name)
	assert.Equal(t, "path", get.Parameters[0].Value.In)
	require.Len(t, get.Get.Parameters, 1)
	assert.Equal(t, "limit", get.Get.Parameters[0].Value.Name)
	assert.NotNil(t, get.Get.Responses.Value("200"))
}

func TestGenerator_Schemas(t *testing.T) {
	spec := newSampleGenerator().Generate()

	req := spec.Components.Schemas["sampleRequest"]
	require.NotNil(t, req)
	assert.ElementsMatch(t, []string{"selection"}, req.Value.Required)
	assert.True(t, req.Value.Properties["selection"].Value.Type.Is(openapi3.TypeArray))
	assert.True(t, req.Value.Properties["include_optional"].Value.Nullable)

	resp := spec.Components.Schemas["sampleResponse"]
	require.NotNil(t, resp)
	assert.ElementsMatch(t, []string{"id", "count", "labels", "created_at"}, resp.Value.Required)
	assert.Equal(t, "date-time", resp.Value.Properties["created_at"].Value.Format)
	assert.True(t, resp.Value.Properties["labels"].Value.Type.Is(openapi3.TypeObject))
	assert.NotContains(t, resp.Value.Properties, "internal")
	assert.NotContains(t, resp.Value.Properties, "Skipped")
}

func TestGenerator_CacheInvalidatedOnRegister(t *testing.T) {
	g := newSampleGenerator()
	first := g.Generate()
	assert.Same(t, first, g.Generate())

	g.Register(Operation{Method: http.MethodGet, Path: "/health", ID: "health"})
	second := g.Generate()
	assert.NotSame(t, first, second)
	assert.NotNil(t, second.Paths.Value("/health"))
}

func TestGenerator_Handler(t *testing.T) {
	rec := httptest.NewRecorder()
	newSampleGenerator().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	paths, ok := doc["paths"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, paths, "/api/v1/things/{id}")
}

func TestPathParams(t *testing.T) {
	assert.Nil(t, pathParams("/health"))
	assert.Equal(t, []string{"kind", "id"}, pathParams("/api/v1/components/{kind}/{id}"))
}
