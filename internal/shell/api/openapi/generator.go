// Package openapi provides reflective OpenAPI 3.0 specification generation.
package openapi

import (
	"encoding/json"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
)

// =============================================================================
// Generator
// =============================================================================

// Generator produces OpenAPI 3.0 specifications by reflecting on the request
// and response types of registered operations.
type Generator struct {
	title       string
	version     string
	description string
	servers     []string
	operations  []Operation
	mu          sync.RWMutex
	cachedSpec  *openapi3.T
}

// Operation describes one registered HTTP operation.
type Operation struct {
	Method      string // e.g. http.MethodPost
	Path        string // chi-style path, e.g. "/api/v1/generations/{id}"
	ID          string // operationId
	Summary     string
	Tag         string
	Request     interface{} // request body model, nil for none
	Response    interface{} // success response model, nil for none
	Status      int         // success status, default 200
	QueryParams []string    // integer query parameters such as limit
}

// Option configures the generator.
type Option func(*Generator)

// WithTitle sets the API title.
func WithTitle(title string) Option {
	return func(g *Generator) {
		g.title = title
	}
}

// WithVersion sets the API version.
func WithVersion(version string) Option {
	return func(g *Generator) {
		g.version = version
	}
}

// WithDescription sets the API description.
func WithDescription(description string) Option {
	return func(g *Generator) {
		g.description = description
	}
}

// WithServer adds a server URL.
func WithServer(url string) Option {
	return func(g *Generator) {
		g.servers = append(g.servers, url)
	}
}

// NewGenerator creates a new OpenAPI generator.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		title:       "Kitchen API",
		version:     "1.0.0",
		description: "Compose generation from service manifests",
		operations:  make([]Operation, 0),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Register adds an operation to the generator.
func (g *Generator) Register(op Operation) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.operations = append(g.operations, op)
	g.cachedSpec = nil // Invalidate cache
}

// Generate produces the complete OpenAPI 3.0 specification.
func (g *Generator) Generate() *openapi3.T {
	g.mu.RLock()
	if g.cachedSpec != nil {
		spec := g.cachedSpec
		g.mu.RUnlock()
		return spec
	}
	g.mu.RUnlock()

	g.mu.Lock()
	defer g.mu.Unlock()

	// Double-check after acquiring write lock
	if g.cachedSpec != nil {
		return g.cachedSpec
	}

	spec := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       g.title,
			Version:     g.version,
			Description: g.description,
		},
		Servers: make(openapi3.Servers, 0, len(g.servers)),
		Paths:   &openapi3.Paths{},
		Components: &openapi3.Components{
			Schemas: make(openapi3.Schemas),
		},
	}

	for _, url := range g.servers {
		spec.Servers = append(spec.Servers, &openapi3.Server{URL: url})
	}

	// Add common schemas
	g.addCommonSchemas(spec)

	for _, op := range g.operations {
		g.addOperation(spec, op)
	}

	g.cachedSpec = spec
	return spec
}

// Handler returns an HTTP handler that serves the OpenAPI specification.
func (g *Generator) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		spec := g.Generate()

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")

		if err := json.NewEncoder(w).Encode(spec); err != nil {
			http.Error(w, "Failed to encode OpenAPI spec", http.StatusInternalServerError)
		}
	}
}

// =============================================================================
// Operation Generation
// =============================================================================

func (g *Generator) addOperation(spec *openapi3.T, op Operation) {
	item := spec.Paths.Value(op.Path)
	if item == nil {
		item = &openapi3.PathItem{}
		for _, name := range pathParams(op.Path) {
			item.Parameters = append(item.Parameters, &openapi3.ParameterRef{
				Value: &openapi3.Parameter{
					Name:     name,
					In:       "path",
					Required: true,
					Schema: &openapi3.SchemaRef{
						Value: &openapi3.Schema{Type: &openapi3.Types{"string"}},
					},
				},
			})
		}
		spec.Paths.Set(op.Path, item)
	}

	operation := &openapi3.Operation{
		OperationID: op.ID,
		Summary:     op.Summary,
	}
	if op.Tag != "" {
		operation.Tags = []string{op.Tag}
	}

	for _, name := range op.QueryParams {
		operation.Parameters = append(operation.Parameters, &openapi3.ParameterRef{
			Value: &openapi3.Parameter{
				Name: name,
				In:   "query",
				Schema: &openapi3.SchemaRef{
					Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}},
				},
			},
		})
	}

	if op.Request != nil {
		operation.RequestBody = &openapi3.RequestBodyRef{
			Value: &openapi3.RequestBody{
				Required: true,
				Content:  openapi3.NewContentWithJSONSchemaRef(g.componentRef(spec, op.Request)),
			},
		}
	}

	status := op.Status
	if status == 0 {
		status = http.StatusOK
	}
	description := http.StatusText(status)
	response := &openapi3.Response{Description: &description}
	if op.Response != nil {
		response.Content = openapi3.NewContentWithJSONSchemaRef(g.componentRef(spec, op.Response))
	}
	operation.Responses = &openapi3.Responses{}
	operation.Responses.Set(strconv.Itoa(status), &openapi3.ResponseRef{Value: response})
	operation.Responses.Set("default", errorResponse())

	item.SetOperation(op.Method, operation)
}

// componentRef registers the model's schema as a component and returns a
// reference to it.
func (g *Generator) componentRef(spec *openapi3.T, model interface{}) *openapi3.SchemaRef {
	t := reflect.TypeOf(model)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	name := t.Name()
	if _, ok := spec.Components.Schemas[name]; !ok {
		spec.Components.Schemas[name] = g.extractSchema(model)
	}
	return &openapi3.SchemaRef{Ref: "#/components/schemas/" + name}
}

// =============================================================================
// Schema Generation
// =============================================================================

// addCommonSchemas adds the error body every operation can return.
func (g *Generator) addCommonSchemas(spec *openapi3.T) {
	spec.Components.Schemas["Error"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"error": &openapi3.SchemaRef{
					Value: &openapi3.Schema{Type: &openapi3.Types{"string"}},
				},
				"code": &openapi3.SchemaRef{
					Value: &openapi3.Schema{Type: &openapi3.Types{"string"}},
				},
				"details": &openapi3.SchemaRef{
					Value: &openapi3.Schema{
						Type:  &openapi3.Types{"array"},
						Items: &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}},
					},
				},
			},
			Required: []string{"error", "code"},
		},
	}
}

func errorResponse() *openapi3.ResponseRef {
	description := "Error"
	return &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &description,
			Content: openapi3.NewContentWithJSONSchemaRef(&openapi3.SchemaRef{
				Ref: "#/components/schemas/Error",
			}),
		},
	}
}

// extractSchema extracts an OpenAPI schema from a Go struct.
func (g *Generator) extractSchema(model interface{}) *openapi3.SchemaRef {
	t := reflect.TypeOf(model)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	schema := &openapi3.Schema{
		Type:       &openapi3.Types{"object"},
		Properties: make(openapi3.Schemas),
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		// Skip unexported fields
		if !field.IsExported() {
			continue
		}

		// Get JSON tag
		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}

		// Parse JSON tag for name
		name := field.Name
		optional := false
		if jsonTag != "" {
			parts := strings.Split(jsonTag, ",")
			if parts[0] != "" {
				name = parts[0]
			}
			for _, opt := range parts[1:] {
				if opt == "omitempty" {
					optional = true
				}
			}
		}

		// Convert Go type to OpenAPI type
		propSchema := g.goTypeToSchema(field.Type)
		if propSchema != nil {
			schema.Properties[name] = propSchema
			if !optional && field.Type.Kind() != reflect.Ptr {
				schema.Required = append(schema.Required, name)
			}
		}
	}

	return &openapi3.SchemaRef{Value: schema}
}

// goTypeToSchema converts a Go type to an OpenAPI schema.
func (g *Generator) goTypeToSchema(t reflect.Type) *openapi3.SchemaRef {
	switch t.Kind() {
	case reflect.String:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int32"}}

	case reflect.Int64:
		if t == reflect.TypeOf(time.Duration(0)) {
			return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int64", Description: "nanoseconds"}}
		}
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int64"}}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}}}

	case reflect.Float32:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"number"}, Format: "float"}}

	case reflect.Float64:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"number"}, Format: "double"}}

	case reflect.Bool:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}}}

	case reflect.Slice, reflect.Array:
		elemSchema := g.goTypeToSchema(t.Elem())
		return &openapi3.SchemaRef{
			Value: &openapi3.Schema{
				Type:  &openapi3.Types{"array"},
				Items: elemSchema,
			},
		}

	case reflect.Map:
		valueSchema := g.goTypeToSchema(t.Elem())
		return &openapi3.SchemaRef{
			Value: &openapi3.Schema{
				Type:                 &openapi3.Types{"object"},
				AdditionalProperties: openapi3.AdditionalProperties{Schema: valueSchema},
			},
		}

	case reflect.Ptr:
		schema := g.goTypeToSchema(t.Elem())
		if schema != nil && schema.Value != nil {
			schema.Value.Nullable = true
		}
		return schema

	case reflect.Struct:
		// Handle time.Time specially
		if t == reflect.TypeOf(time.Time{}) {
			return &openapi3.SchemaRef{
				Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "date-time"},
			}
		}
		// For other structs, extract recursively
		return g.extractSchema(reflect.New(t).Interface())

	default:
		// Unknown type, return generic object
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"object"}}}
	}
}

// =============================================================================
// Helpers
// =============================================================================

// pathParams returns the {name} segments of a path in order.
func pathParams(path string) []string {
	var params []string
	for _, segment := range strings.Split(path, "/") {
		if strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}") {
			params = append(params, strings.TrimSuffix(strings.TrimPrefix(segment, "{"), "}"))
		}
	}
	return params
}
