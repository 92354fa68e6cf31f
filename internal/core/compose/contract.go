package compose

import (
	"fmt"
	"strconv"
	"strings"

	"dario.cat/mergo"

	"github.com/artpar/kitchen/internal/core/manifest"
)

// =============================================================================
// Ports
// =============================================================================

// ConvertPorts renders port declarations as [host:]container[/protocol].
// The host falls back to host_range, tcp is left implicit, and mapping entries
// without a container port are skipped. String entries pass through.
//
// Example:
//
//	ConvertPorts([]manifest.PortDecl{{Container: "53", Host: "5353", Protocol: "udp"}})
//	// ["5353:53/udp"]
func ConvertPorts(ports []manifest.PortDecl) []string {
	var out []string
	for _, p := range ports {
		if p.Raw != "" {
			out = append(out, p.Raw)
			continue
		}
		if p.Container.IsZero() {
			continue
		}
		host := p.Host
		if host.IsZero() {
			host = p.HostRange
		}
		mapping := p.Container.String()
		if !host.IsZero() {
			mapping = host.String() + ":" + mapping
		}
		if p.Protocol != "" && !strings.EqualFold(p.Protocol, "tcp") {
			mapping += "/" + p.Protocol
		}
		out = append(out, mapping)
	}
	return out
}

// PrimaryPort returns the container port of the first mapping-form port entry
// that has one, with any protocol suffix removed.
func PrimaryPort(ports []manifest.PortDecl) (int, bool) {
	for _, p := range ports {
		if p.Raw != "" || p.Container.IsZero() {
			continue
		}
		number, _, _ := strings.Cut(p.Container.String(), "/")
		port, err := strconv.Atoi(strings.TrimSpace(number))
		if err != nil {
			return 0, false
		}
		return port, true
	}
	return 0, false
}

// =============================================================================
// Volumes
// =============================================================================

// VolumeTypeBind is the volume type for host bind mounts. Every other type is
// treated as a named volume.
const VolumeTypeBind = "bind"

// ConvertVolumes renders volume declarations as source:target strings and
// returns the named volumes they use.
//
// String entries pass through; their source is a named volume when it has no
// path separator. Bind entries need a source. Named entries use name, then
// source. Entries without a mount path are skipped.
func ConvertVolumes(volumes []manifest.VolumeDecl) ([]string, []string) {
	var out, named []string
	for _, v := range volumes {
		if v.Raw != "" {
			out = append(out, v.Raw)
			source, _, _ := strings.Cut(v.Raw, ":")
			if source != "" && !strings.Contains(source, "/") {
				named = append(named, source)
			}
			continue
		}
		if v.Mount == "" {
			continue
		}
		if strings.EqualFold(v.Type, VolumeTypeBind) {
			if v.Source != "" {
				out = append(out, v.Source+":"+v.Mount)
			}
			continue
		}
		name := v.Name
		if name == "" {
			name = v.Source
		}
		if name != "" {
			out = append(out, name+":"+v.Mount)
			named = append(named, name)
		}
	}
	return out, named
}

// =============================================================================
// Environment
// =============================================================================

// mergeEnvironment layers the contract environment, the global template and
// the per-service override, later layers winning. An empty result is nil so
// the key is left out of the document.
func mergeEnvironment(declared manifest.EnvDecl, global, override map[string]string) (map[string]string, error) {
	env := declared.Map()
	for _, layer := range []map[string]string{global, override} {
		if len(layer) == 0 {
			continue
		}
		if err := mergo.Merge(&env, layer, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merge environment: %w", err)
		}
	}
	if len(env) == 0 {
		return nil, nil
	}
	return env, nil
}

// =============================================================================
// Resources
// =============================================================================

func buildDeploy(contract *manifest.Service) *Deploy {
	var limits ResourceLimits
	if cpus := contract.Resources.CPUCores; !cpus.IsZero() {
		limits.CPUs = cpus.String()
	}
	if memory, ok := memoryLimit(contract.Resources.MemoryMB); ok {
		limits.Memory = memory
	}

	var devices []Device
	for _, req := range contract.DeviceRequests {
		dev := Device{Driver: req.Driver}
		if !req.Count.IsZero() {
			if count, err := strconv.Atoi(req.Count.String()); err == nil {
				dev.Count = count
			}
		}
		if len(req.Capabilities) > 0 {
			dev.Capabilities = cloneStrings(req.Capabilities)
		}
		if dev.Driver == "" && dev.Count == 0 && len(dev.Capabilities) == 0 {
			continue
		}
		devices = append(devices, dev)
	}

	hasLimits := limits != ResourceLimits{}
	if !hasLimits && len(devices) == 0 {
		return nil
	}

	deploy := &Deploy{}
	if hasLimits {
		l := limits
		deploy.Resources.Limits = &l
	}
	deploy.Resources.Reservations = &Reservations{
		CPUs:    limits.CPUs,
		Memory:  limits.Memory,
		Devices: devices,
	}
	return deploy
}

// memoryLimit formats a memory_mb value as "<int>M".
func memoryLimit(value manifest.Scalar) (string, bool) {
	if value.IsZero() {
		return "", false
	}
	mb, err := strconv.ParseFloat(value.String(), 64)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%dM", int64(mb)), true
}

// =============================================================================
// Health Checks
// =============================================================================

func buildHealthCheck(contract *manifest.Service) *HealthCheck {
	decl := contract.HealthCheck
	if decl == nil {
		return nil
	}

	hc := &HealthCheck{
		Interval:    decl.Interval,
		Timeout:     decl.Timeout,
		StartPeriod: decl.StartPeriod,
	}
	if decl.Retries != nil {
		retries := *decl.Retries
		hc.Retries = &retries
	}

	switch {
	case !decl.Command.IsZero():
		hc.Test = manifest.ShellCommand{Shell: decl.Command.Shell, Exec: cloneStrings(decl.Command.Exec)}
	case decl.Endpoint != "":
		hc.Test = manifest.ShellCommand{Exec: []string{"CMD-SHELL", "curl -f " + endpointURL(decl.Endpoint, contract.Ports)}}
	}

	if hc.Test.IsZero() && hc.Interval == "" && hc.Timeout == "" && hc.Retries == nil && hc.StartPeriod == "" {
		return nil
	}
	return hc
}

func endpointURL(endpoint string, ports []manifest.PortDecl) string {
	port, ok := PrimaryPort(ports)
	if !ok {
		return endpoint
	}
	return fmt.Sprintf("http://localhost:%d%s", port, endpoint)
}
