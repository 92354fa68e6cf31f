package manifest

import (
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// Document Shapes
// =============================================================================

// Contracts is the contracts document: services, capabilities and the
// default-provider table.
type Contracts struct {
	Services             map[string]*Service    `yaml:"services"`
	Capabilities         map[string]*Capability `yaml:"capabilities"`
	DependencyResolution struct {
		DefaultProviders map[string]string `yaml:"default_providers"`
	} `yaml:"dependency_resolution"`
}

type combosDoc struct {
	Combos []Bundle `yaml:"combos"`
}

type bentosDoc struct {
	BentoBoxes []Bundle `yaml:"bento_boxes"`
}

type plattersDoc struct {
	Platters []Bundle `yaml:"platters"`
}

// globalEnvironmentKeys are merged in this order into the global environment.
var globalEnvironmentKeys = []string{"global_environment", "environment_overrides", "global_env"}

// =============================================================================
// Parser Functions
// =============================================================================

// ParseContracts decodes the contracts document.
func ParseContracts(data []byte) (*Contracts, error) {
	var doc Contracts
	if err := decode("contracts", data, &doc); err != nil {
		return nil, err
	}
	if doc.Services == nil {
		doc.Services = map[string]*Service{}
	}
	return &doc, nil
}

// ParseCombos decodes the combos document.
func ParseCombos(data []byte) ([]Bundle, error) {
	var doc combosDoc
	if err := decode("combos", data, &doc); err != nil {
		return nil, err
	}
	return doc.Combos, nil
}

// ParseBentos decodes the bento box document.
func ParseBentos(data []byte) ([]Bundle, error) {
	var doc bentosDoc
	if err := decode("bento", data, &doc); err != nil {
		return nil, err
	}
	return doc.BentoBoxes, nil
}

// ParsePlatters decodes the platters document.
func ParsePlatters(data []byte) ([]Bundle, error) {
	var doc plattersDoc
	if err := decode("platters", data, &doc); err != nil {
		return nil, err
	}
	return doc.Platters, nil
}

// ParseNetworkProfile decodes a network profile document.
func ParseNetworkProfile(data []byte) (*NetworkProfile, error) {
	var doc NetworkProfile
	if err := decode("network", data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ParseEnvironment decodes an environment template.
//
// The global environment is the union of global_environment,
// environment_overrides and global_env (later keys win). Per-service
// overrides are found anywhere below service_overrides: a mapping whose key
// contains a "." is taken as a service ID, any other mapping is walked.
func ParseEnvironment(data []byte) (*EnvironmentTemplate, error) {
	var root yaml.Node
	if err := decode("environment", data, &root); err != nil {
		return nil, err
	}

	tmpl := &EnvironmentTemplate{
		Global:           map[string]string{},
		ServiceOverrides: map[string]map[string]string{},
	}

	doc := documentMapping(&root)
	if doc == nil {
		return tmpl, nil
	}

	if name := mappingValue(doc, "name"); name != nil && name.Kind == yaml.ScalarNode {
		tmpl.Name = name.Value
	}
	for _, key := range globalEnvironmentKeys {
		section := mappingValue(doc, key)
		if section == nil || section.Kind != yaml.MappingNode {
			continue
		}
		for i := 0; i+1 < len(section.Content); i += 2 {
			tmpl.Global[section.Content[i].Value] = stringifyNode(section.Content[i+1])
		}
	}
	if overrides := mappingValue(doc, "service_overrides"); overrides != nil {
		walkOverrides(overrides, tmpl.ServiceOverrides)
	}
	return tmpl, nil
}

func walkOverrides(node *yaml.Node, out map[string]map[string]string) {
	if node.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i].Value, node.Content[i+1]
		if value.Kind == yaml.MappingNode && strings.Contains(key, ".") {
			env := make(map[string]string, len(value.Content)/2)
			for j := 0; j+1 < len(value.Content); j += 2 {
				env[value.Content[j].Value] = stringifyNode(value.Content[j+1])
			}
			out[key] = env
			continue
		}
		walkOverrides(value, out)
	}
}

// =============================================================================
// Helpers
// =============================================================================

func decode(document string, data []byte, out any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return NewLoadError(document, "document is empty", ErrMalformedDocument)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return NewLoadError(document, err.Error(), ErrMalformedDocument)
	}
	return nil
}

func documentMapping(root *yaml.Node) *yaml.Node {
	node := root
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return nil
	}
	return node
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}
