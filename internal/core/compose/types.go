package compose

import (
	"sort"

	"github.com/artpar/kitchen/internal/core/manifest"
)

// Version is the compose file format written into every descriptor.
const Version = "3.9"

// RestartUnlessStopped is the restart policy given to every service.
const RestartUnlessStopped = "unless-stopped"

// =============================================================================
// Descriptor - Main Output Type
// =============================================================================

// Descriptor is a compose document. Maps are written with sorted keys, so a
// descriptor always serializes the same way.
type Descriptor struct {
	Version  string              `yaml:"version" json:"version"`
	Services map[string]*Service `yaml:"services" json:"services"`
	Volumes  map[string]*Volume  `yaml:"volumes,omitempty" json:"volumes,omitempty"`
	Networks map[string]*Network `yaml:"networks,omitempty" json:"networks,omitempty"`
}

// ServiceNames returns the service names in sorted order.
func (d *Descriptor) ServiceNames() []string {
	names := make([]string, 0, len(d.Services))
	for name := range d.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy of the descriptor.
func (d *Descriptor) Clone() *Descriptor {
	out := &Descriptor{Version: d.Version}
	if d.Services != nil {
		out.Services = make(map[string]*Service, len(d.Services))
		for name, svc := range d.Services {
			out.Services[name] = svc.Clone()
		}
	}
	if d.Volumes != nil {
		out.Volumes = make(map[string]*Volume, len(d.Volumes))
		for name, vol := range d.Volumes {
			if vol == nil {
				out.Volumes[name] = nil
				continue
			}
			copied := *vol
			out.Volumes[name] = &copied
		}
	}
	if d.Networks != nil {
		out.Networks = make(map[string]*Network, len(d.Networks))
		for name, net := range d.Networks {
			out.Networks[name] = net.Clone()
		}
	}
	return out
}

// =============================================================================
// Service Types
// =============================================================================

// Service is one entry under services.
type Service struct {
	Image       string                `yaml:"image,omitempty" json:"image,omitempty"`
	Platform    string                `yaml:"platform,omitempty" json:"platform,omitempty"`
	Profiles    []string              `yaml:"profiles,omitempty" json:"profiles,omitempty"`
	Command     manifest.ShellCommand `yaml:"command,omitempty" json:"-"`
	Ports       []string              `yaml:"ports,omitempty" json:"ports,omitempty"`
	Volumes     []string              `yaml:"volumes,omitempty" json:"volumes,omitempty"`
	Environment map[string]string     `yaml:"environment,omitempty" json:"environment,omitempty"`
	Networks    []string              `yaml:"networks,omitempty" json:"networks,omitempty"`
	DependsOn   []string              `yaml:"depends_on,omitempty" json:"depends_on,omitempty"`
	Restart     string                `yaml:"restart,omitempty" json:"restart,omitempty"`
	Deploy      *Deploy               `yaml:"deploy,omitempty" json:"deploy,omitempty"`
	HealthCheck *HealthCheck          `yaml:"healthcheck,omitempty" json:"healthcheck,omitempty"`
	SecurityOpt []string              `yaml:"security_opt,omitempty" json:"security_opt,omitempty"`
	ReadOnly    bool                  `yaml:"read_only,omitempty" json:"read_only,omitempty"`
	CapDrop     []string              `yaml:"cap_drop,omitempty" json:"cap_drop,omitempty"`
	Tmpfs       []string              `yaml:"tmpfs,omitempty" json:"tmpfs,omitempty"`
}

// Clone returns a deep copy of the service.
func (s *Service) Clone() *Service {
	if s == nil {
		return nil
	}
	out := *s
	out.Profiles = cloneStrings(s.Profiles)
	out.Command = manifest.ShellCommand{Shell: s.Command.Shell, Exec: cloneStrings(s.Command.Exec)}
	out.Ports = cloneStrings(s.Ports)
	out.Volumes = cloneStrings(s.Volumes)
	out.Networks = cloneStrings(s.Networks)
	out.DependsOn = cloneStrings(s.DependsOn)
	out.SecurityOpt = cloneStrings(s.SecurityOpt)
	out.CapDrop = cloneStrings(s.CapDrop)
	out.Tmpfs = cloneStrings(s.Tmpfs)
	if s.Environment != nil {
		out.Environment = make(map[string]string, len(s.Environment))
		for k, v := range s.Environment {
			out.Environment[k] = v
		}
	}
	if s.Deploy != nil {
		deploy := *s.Deploy
		if r := deploy.Resources.Limits; r != nil {
			limits := *r
			deploy.Resources.Limits = &limits
		}
		if r := deploy.Resources.Reservations; r != nil {
			reservations := *r
			reservations.Devices = make([]Device, len(r.Devices))
			for i, dev := range r.Devices {
				dev.Capabilities = cloneStrings(dev.Capabilities)
				reservations.Devices[i] = dev
			}
			if r.Devices == nil {
				reservations.Devices = nil
			}
			deploy.Resources.Reservations = &reservations
		}
		out.Deploy = &deploy
	}
	if s.HealthCheck != nil {
		hc := *s.HealthCheck
		hc.Test = manifest.ShellCommand{Shell: s.HealthCheck.Test.Shell, Exec: cloneStrings(s.HealthCheck.Test.Exec)}
		if s.HealthCheck.Retries != nil {
			retries := *s.HealthCheck.Retries
			hc.Retries = &retries
		}
		out.HealthCheck = &hc
	}
	return &out
}

// Deploy is the deploy section of a service.
type Deploy struct {
	Resources Resources `yaml:"resources" json:"resources"`
}

// Resources holds limits and reservations.
type Resources struct {
	Limits       *ResourceLimits `yaml:"limits,omitempty" json:"limits,omitempty"`
	Reservations *Reservations   `yaml:"reservations,omitempty" json:"reservations,omitempty"`
}

// ResourceLimits caps what a service may use.
type ResourceLimits struct {
	CPUs   string `yaml:"cpus,omitempty" json:"cpus,omitempty"`
	Memory string `yaml:"memory,omitempty" json:"memory,omitempty"`
}

// Reservations is what a service is guaranteed, including devices.
type Reservations struct {
	CPUs    string   `yaml:"cpus,omitempty" json:"cpus,omitempty"`
	Memory  string   `yaml:"memory,omitempty" json:"memory,omitempty"`
	Devices []Device `yaml:"devices,omitempty" json:"devices,omitempty"`
}

// Device is a device reservation such as a GPU.
type Device struct {
	Driver       string   `yaml:"driver,omitempty" json:"driver,omitempty"`
	Count        int      `yaml:"count,omitempty" json:"count,omitempty"`
	Capabilities []string `yaml:"capabilities,omitempty" json:"capabilities,omitempty"`
}

// HealthCheck is the healthcheck section of a service.
type HealthCheck struct {
	Test        manifest.ShellCommand `yaml:"test,omitempty" json:"-"`
	Interval    string                `yaml:"interval,omitempty" json:"interval,omitempty"`
	Timeout     string                `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Retries     *int                  `yaml:"retries,omitempty" json:"retries,omitempty"`
	StartPeriod string                `yaml:"start_period,omitempty" json:"start_period,omitempty"`
}

// =============================================================================
// Volume and Network Types
// =============================================================================

// Volume is a named volume declaration. Kitchen only ever writes empty ones.
type Volume struct {
	Driver   string `yaml:"driver,omitempty" json:"driver,omitempty"`
	External bool   `yaml:"external,omitempty" json:"external,omitempty"`
}

// Network is a network declaration.
type Network struct {
	Driver   string `yaml:"driver,omitempty" json:"driver,omitempty"`
	Internal bool   `yaml:"internal,omitempty" json:"internal,omitempty"`
	External bool   `yaml:"external,omitempty" json:"external,omitempty"`
	IPAM     *IPAM  `yaml:"ipam,omitempty" json:"ipam,omitempty"`
}

// Clone returns a deep copy of the network.
func (n *Network) Clone() *Network {
	if n == nil {
		return nil
	}
	out := *n
	if n.IPAM != nil {
		ipam := IPAM{Config: append([]IPAMConfig(nil), n.IPAM.Config...)}
		out.IPAM = &ipam
	}
	return &out
}

// IPAM is IP address management configuration.
type IPAM struct {
	Config []IPAMConfig `yaml:"config,omitempty" json:"config,omitempty"`
}

// IPAMConfig is one address pool.
type IPAMConfig struct {
	Subnet string `yaml:"subnet,omitempty" json:"subnet,omitempty"`
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string{}, in...)
}
