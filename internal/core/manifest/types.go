package manifest

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// Service Contract Types
// =============================================================================

// Service is a single deployable component (a "roll") and its contract.
type Service struct {
	ID          string   `yaml:"-"`
	Name        string   `yaml:"name,omitempty"`
	Description string   `yaml:"description,omitempty"`
	Category    string   `yaml:"category,omitempty"`
	Status      string   `yaml:"status,omitempty"`
	Tags        []string `yaml:"tags,omitempty"`

	Provides  []string `yaml:"provides,omitempty" validate:"dive,required"`
	Requires  []string `yaml:"requires,omitempty" validate:"dive,required"`
	Suggests  []string `yaml:"suggests,omitempty" validate:"dive,required"`
	Conflicts []string `yaml:"conflicts,omitempty" validate:"dive,required"`
	DependsOn []string `yaml:"depends_on,omitempty"`

	Docker         DockerConfig         `yaml:"docker,omitempty"`
	Image          string               `yaml:"image,omitempty"`
	Ports          []PortDecl           `yaml:"ports,omitempty"`
	Volumes        []VolumeDecl         `yaml:"volumes,omitempty"`
	Environment    EnvDecl              `yaml:"environment,omitempty"`
	Command        ShellCommand         `yaml:"command,omitempty"`
	Resources      ResourceRequirements `yaml:"resource_requirements,omitempty"`
	DeviceRequests []DeviceRequest      `yaml:"device_requests,omitempty"`
	HealthCheck    *HealthCheckDecl     `yaml:"healthcheck,omitempty"`
	Networks       NetworkTags          `yaml:"networks,omitempty"`

	// requirements is the parsed form of Requires, filled in by Build.
	requirements []Requirement
	suggestions  []Requirement
}

// ImageRef returns the container image, preferring docker.image.
func (s *Service) ImageRef() string {
	if s.Docker.Image != "" {
		return s.Docker.Image
	}
	return s.Image
}

// Requirements returns the parsed requirements of the service.
func (s *Service) Requirements() []Requirement {
	return s.requirements
}

// Suggestions returns the parsed suggestions of the service.
func (s *Service) Suggestions() []Requirement {
	return s.suggestions
}

// ShortName returns the last dotted segment of the service ID.
func (s *Service) ShortName() string {
	return ShortName(s.ID)
}

// ShortName returns the last dotted segment of id.
//
//	ShortName("hosomaki.redis") // "redis"
func ShortName(id string) string {
	if i := strings.LastIndex(id, "."); i >= 0 {
		return id[i+1:]
	}
	return id
}

// DockerConfig holds the docker section of a contract.
type DockerConfig struct {
	Image    string   `yaml:"image,omitempty"`
	Platform string   `yaml:"platform,omitempty"`
	Profiles []string `yaml:"profiles,omitempty"`
}

// ResourceRequirements describes what a service needs to run.
// Values are kept as written so "2" and "0.5" survive untouched.
type ResourceRequirements struct {
	CPUCores    Scalar `yaml:"cpu_cores,omitempty"`
	MemoryMB    Scalar `yaml:"memory_mb,omitempty"`
	StorageGB   Scalar `yaml:"storage_gb,omitempty"`
	GPUVRAMMB   Scalar `yaml:"gpu_vram_mb,omitempty"`
	GPURequired bool   `yaml:"gpu_required,omitempty"`
}

// DeviceRequest is a device reservation such as a GPU.
type DeviceRequest struct {
	Driver       string   `yaml:"driver,omitempty"`
	Count        Scalar   `yaml:"count,omitempty"`
	Capabilities []string `yaml:"capabilities,omitempty"`
}

// HealthCheckDecl is the health check as declared in a contract.
type HealthCheckDecl struct {
	Command     ShellCommand `yaml:"command,omitempty"`
	Endpoint    string       `yaml:"endpoint,omitempty"`
	Interval    string       `yaml:"interval,omitempty"`
	Timeout     string       `yaml:"timeout,omitempty"`
	Retries     *int         `yaml:"retries,omitempty"`
	StartPeriod string       `yaml:"start_period,omitempty"`
}

// =============================================================================
// Ports and Volumes
// =============================================================================

// PortDecl is a port entry. Raw is set when the entry was written as a plain
// string such as "8080:80".
type PortDecl struct {
	Raw         string
	Container   Scalar
	Host        Scalar
	HostRange   Scalar
	Protocol    string
	Description string
}

type portFields struct {
	Container   Scalar `yaml:"container"`
	Host        Scalar `yaml:"host"`
	HostRange   Scalar `yaml:"host_range"`
	Protocol    string `yaml:"protocol"`
	Description string `yaml:"description"`
}

// UnmarshalYAML accepts both the mapping and the plain string form.
func (p *PortDecl) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*p = PortDecl{Raw: node.Value}
		return nil
	}
	var f portFields
	if err := node.Decode(&f); err != nil {
		return err
	}
	*p = PortDecl{
		Container:   f.Container,
		Host:        f.Host,
		HostRange:   f.HostRange,
		Protocol:    f.Protocol,
		Description: f.Description,
	}
	return nil
}

// VolumeDecl is a volume entry. Raw is set for the "source:target" string form.
type VolumeDecl struct {
	Raw      string
	Type     string
	Name     string
	Source   string
	Mount    string
	ReadOnly bool
}

type volumeFields struct {
	Type     string `yaml:"type"`
	Name     string `yaml:"name"`
	Source   string `yaml:"source"`
	Mount    string `yaml:"mount"`
	Target   string `yaml:"target"`
	ReadOnly bool   `yaml:"read_only"`
}

// UnmarshalYAML accepts both the mapping and the plain string form.
func (v *VolumeDecl) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*v = VolumeDecl{Raw: node.Value}
		return nil
	}
	var f volumeFields
	if err := node.Decode(&f); err != nil {
		return err
	}
	mount := f.Mount
	if mount == "" {
		mount = f.Target
	}
	*v = VolumeDecl{
		Type:     f.Type,
		Name:     f.Name,
		Source:   f.Source,
		Mount:    mount,
		ReadOnly: f.ReadOnly,
	}
	return nil
}

// =============================================================================
// Polymorphic Scalars
// =============================================================================

// Scalar keeps a YAML scalar exactly as written, whatever its type.
type Scalar string

// UnmarshalYAML stores the literal text of a scalar node.
func (s *Scalar) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar", node.Line)
	}
	if node.Tag == "!!null" {
		*s = ""
		return nil
	}
	*s = Scalar(node.Value)
	return nil
}

// String returns the scalar text.
func (s Scalar) String() string {
	return string(s)
}

// IsZero reports whether the scalar is unset.
func (s Scalar) IsZero() bool {
	return s == ""
}

// ShellCommand is a command written either as a single string or as a list.
type ShellCommand struct {
	Shell string
	Exec  []string
}

// UnmarshalYAML accepts a string or a sequence of strings.
func (c *ShellCommand) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*c = ShellCommand{Shell: node.Value}
		return nil
	case yaml.SequenceNode:
		var args []string
		if err := node.Decode(&args); err != nil {
			return err
		}
		*c = ShellCommand{Exec: args}
		return nil
	}
	return fmt.Errorf("line %d: command must be a string or a list", node.Line)
}

// MarshalYAML writes the command back in the form it was declared.
func (c ShellCommand) MarshalYAML() (interface{}, error) {
	if c.Exec != nil {
		return c.Exec, nil
	}
	return c.Shell, nil
}

// IsZero reports whether no command was declared.
func (c ShellCommand) IsZero() bool {
	return c.Shell == "" && len(c.Exec) == 0
}

// =============================================================================
// Environment Declarations
// =============================================================================

// EnvVar is a single KEY=VALUE pair.
type EnvVar struct {
	Key   string
	Value string
}

// EnvDecl is an environment declared as a map or as a list of KEY=VALUE strings.
// Declaration order is kept.
type EnvDecl []EnvVar

// UnmarshalYAML accepts a mapping or a sequence. List entries without "=" are
// ignored.
func (e *EnvDecl) UnmarshalYAML(node *yaml.Node) error {
	var vars EnvDecl
	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			vars = append(vars, EnvVar{
				Key:   node.Content[i].Value,
				Value: stringifyNode(node.Content[i+1]),
			})
		}
	case yaml.SequenceNode:
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				continue
			}
			key, value, ok := strings.Cut(item.Value, "=")
			if !ok {
				continue
			}
			vars = append(vars, EnvVar{Key: key, Value: value})
		}
	case yaml.ScalarNode:
		if node.Tag != "!!null" {
			return fmt.Errorf("line %d: environment must be a map or a list", node.Line)
		}
	default:
		return fmt.Errorf("line %d: environment must be a map or a list", node.Line)
	}
	*e = vars
	return nil
}

// Map returns the declared variables as a map. Later duplicates win.
func (e EnvDecl) Map() map[string]string {
	m := make(map[string]string, len(e))
	for _, v := range e {
		m[v.Key] = v.Value
	}
	return m
}

// stringifyNode renders a scalar the way environment values are written:
// booleans as true/false, null as the empty string.
func stringifyNode(node *yaml.Node) string {
	if node.Kind != yaml.ScalarNode {
		return ""
	}
	switch node.Tag {
	case "!!null":
		return ""
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err == nil {
			if b {
				return "true"
			}
			return "false"
		}
	}
	return node.Value
}

// =============================================================================
// Network Tags
// =============================================================================

// NetworkTags lists the networks a contract prefers. Contracts write either a
// plain list or a map of purpose to list.
type NetworkTags []string

// UnmarshalYAML flattens the map form in key order.
func (n *NetworkTags) UnmarshalYAML(node *yaml.Node) error {
	var tags NetworkTags
	switch node.Kind {
	case yaml.SequenceNode:
		for _, item := range node.Content {
			if item.Kind == yaml.ScalarNode {
				tags = append(tags, item.Value)
			}
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			value := node.Content[i+1]
			if value.Kind != yaml.SequenceNode {
				continue
			}
			for _, item := range value.Content {
				if item.Kind == yaml.ScalarNode {
					tags = append(tags, item.Value)
				}
			}
		}
	}
	*n = tags
	return nil
}

// =============================================================================
// Capabilities
// =============================================================================

// CapabilityPrefix marks an abstract capability tag.
const CapabilityPrefix = "cap."

// IsCapability reports whether id is a capability tag.
func IsCapability(id string) bool {
	return strings.HasPrefix(id, CapabilityPrefix)
}

// Capability maps an abstract tag to the services that provide it.
type Capability struct {
	ID          string   `yaml:"-"`
	Description string   `yaml:"description,omitempty"`
	Providers   []string `yaml:"providers,omitempty" validate:"dive,required"`
}

// =============================================================================
// Requirements
// =============================================================================

// RequirementKind classifies a requires/suggests entry.
type RequirementKind int

const (
	RequirementUnknown RequirementKind = iota
	RequirementService
	RequirementCapability
)

func (k RequirementKind) String() string {
	switch k {
	case RequirementService:
		return "service"
	case RequirementCapability:
		return "capability"
	default:
		return "unknown"
	}
}

// Requirement is a parsed requires entry: a service reference, a capability
// reference, or something the catalog does not know.
type Requirement struct {
	Kind RequirementKind
	ID   string
}

// =============================================================================
// Bundles
// =============================================================================

// Bundle is a combo, bento box or platter. Bundles only reference services.
type Bundle struct {
	ID                 string   `yaml:"id" validate:"required"`
	Kind               Kind     `yaml:"-"`
	Name               string   `yaml:"name,omitempty"`
	Description        string   `yaml:"description,omitempty"`
	Tags               []string `yaml:"tags,omitempty"`
	Difficulty         string   `yaml:"difficulty,omitempty"`
	EstimatedSetupMin  int      `yaml:"estimated_setup_time_min,omitempty" validate:"gte=0"`
	Provides           []string `yaml:"provides,omitempty"`
	Includes           []string `yaml:"includes,omitempty" validate:"dive,required"`
	Optional           []string `yaml:"optional,omitempty" validate:"dive,required"`
	Combos             []string `yaml:"combos,omitempty" validate:"dive,required"`
	AdditionalServices []string `yaml:"additional_services,omitempty" validate:"dive,required"`
}

// Members returns the required members of the bundle, followed by the
// optional ones when includeOptional is set.
func (b *Bundle) Members(includeOptional bool) []string {
	members := make([]string, 0, len(b.Includes)+len(b.Combos)+len(b.AdditionalServices)+len(b.Optional))
	members = append(members, b.Includes...)
	members = append(members, b.Combos...)
	members = append(members, b.AdditionalServices...)
	if includeOptional {
		members = append(members, b.Optional...)
	}
	return members
}

// =============================================================================
// Environment Template and Network Profile
// =============================================================================

// EnvironmentTemplate holds the global environment and per-service overrides.
type EnvironmentTemplate struct {
	Name             string
	Global           map[string]string
	ServiceOverrides map[string]map[string]string
}

// NetworkProfile is a named set of networks.
type NetworkProfile struct {
	Name     string                 `yaml:"name,omitempty"`
	Networks map[string]NetworkDecl `yaml:"networks,omitempty"`
}

// NetworkDecl describes one network of a profile.
type NetworkDecl struct {
	Driver   string    `yaml:"driver,omitempty"`
	Internal bool      `yaml:"internal,omitempty"`
	External bool      `yaml:"external,omitempty"`
	Subnet   string    `yaml:"subnet,omitempty"`
	IPAM     *IPAMDecl `yaml:"ipam,omitempty"`
}

// IPAMDecl is the ipam block of a network.
type IPAMDecl struct {
	Config []IPAMConfigDecl `yaml:"config,omitempty"`
}

// IPAMConfigDecl is one ipam config entry.
type IPAMConfigDecl struct {
	Subnet string `yaml:"subnet,omitempty"`
}

// Subnets returns every subnet declared for the network.
func (n NetworkDecl) Subnets() []string {
	var subnets []string
	if n.Subnet != "" {
		subnets = append(subnets, n.Subnet)
	}
	if n.IPAM != nil {
		for _, c := range n.IPAM.Config {
			if c.Subnet != "" {
				subnets = append(subnets, c.Subnet)
			}
		}
	}
	return subnets
}
