package compose

import (
	"fmt"
	"sort"

	"github.com/artpar/kitchen/internal/core/deployment"
	"github.com/artpar/kitchen/internal/core/manifest"
	"github.com/artpar/kitchen/internal/core/resolver"
)

// =============================================================================
// Synthesis
// =============================================================================

// Synthesize builds the compose descriptor for a resolved service set.
//
// Each service is built independently from its contract. Named volumes are
// collected across services, networks come from the manifest network profile,
// and depends_on lists the resolved requirements of each service, less the
// edges that would close a dependency cycle. Malformed
// contract entries are skipped. The failures are a resolved ID with no
// contract, two IDs that share a short name and an environment that cannot
// be merged.
func Synthesize(idx *manifest.Index, res *resolver.Resolution) (*Descriptor, error) {
	d := &Descriptor{
		Version:  Version,
		Services: make(map[string]*Service, len(res.Services)),
	}

	owners := make(map[string]string, len(res.Services))
	for _, id := range res.Services {
		name := manifest.ShortName(id)
		if first, taken := owners[name]; taken {
			return nil, &ShortNameCollisionError{Name: name, First: first, Second: id}
		}
		owners[name] = id
	}

	profile := idx.Network()
	declared := sortedNetworkNames(profile)
	if len(declared) > 0 {
		d.Networks = make(map[string]*Network, len(declared))
		for _, name := range declared {
			d.Networks[name] = convertNetwork(profile.Networks[name])
		}
	}

	graph := make(map[string][]string, len(res.Services))
	for _, id := range res.Services {
		graph[manifest.ShortName(id)] = shortNames(res.Edges[id])
	}
	startAfter := deployment.BreakCycles(graph)

	env := idx.Environment()
	named := map[string]bool{}
	for _, id := range res.Services {
		contract, ok := idx.Service(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownService, id)
		}

		svc, volumes := buildService(contract)
		environment, err := mergeEnvironment(contract.Environment, env.Global, env.ServiceOverrides[id])
		if err != nil {
			return nil, fmt.Errorf("service %s: %w", id, err)
		}
		svc.Environment = environment
		svc.Networks = assignNetworks(contract.Networks, profile, declared)
		svc.Deploy = buildDeploy(contract)
		svc.HealthCheck = buildHealthCheck(contract)
		if deps := startAfter[manifest.ShortName(id)]; len(deps) > 0 {
			svc.DependsOn = deps
		}

		for _, v := range volumes {
			named[v] = true
		}
		d.Services[manifest.ShortName(id)] = svc
	}

	if len(named) > 0 {
		d.Volumes = make(map[string]*Volume, len(named))
		for name := range named {
			d.Volumes[name] = &Volume{}
		}
	}
	return d, nil
}

func buildService(contract *manifest.Service) (*Service, []string) {
	svc := &Service{
		Image:    contract.ImageRef(),
		Platform: contract.Docker.Platform,
		Restart:  RestartUnlessStopped,
	}
	if len(contract.Docker.Profiles) > 0 {
		svc.Profiles = cloneStrings(contract.Docker.Profiles)
	}
	if !contract.Command.IsZero() {
		svc.Command = manifest.ShellCommand{Shell: contract.Command.Shell, Exec: cloneStrings(contract.Command.Exec)}
	}
	svc.Ports = ConvertPorts(contract.Ports)

	volumes, named := ConvertVolumes(contract.Volumes)
	svc.Volumes = volumes
	return svc, named
}

// =============================================================================
// Networks
// =============================================================================

func sortedNetworkNames(profile manifest.NetworkProfile) []string {
	names := make([]string, 0, len(profile.Networks))
	for name := range profile.Networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func convertNetwork(decl manifest.NetworkDecl) *Network {
	net := &Network{
		Driver:   decl.Driver,
		Internal: decl.Internal,
		External: decl.External,
	}
	if subnets := decl.Subnets(); len(subnets) > 0 {
		net.IPAM = &IPAM{}
		for _, subnet := range subnets {
			net.IPAM.Config = append(net.IPAM.Config, IPAMConfig{Subnet: subnet})
		}
	}
	return net
}

// assignNetworks keeps the contract's network tags that the profile declares,
// falling back to the first declared network.
func assignNetworks(tags manifest.NetworkTags, profile manifest.NetworkProfile, declared []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, tag := range tags {
		if _, ok := profile.Networks[tag]; ok && !seen[tag] {
			seen[tag] = true
			out = append(out, tag)
		}
	}
	if len(out) == 0 && len(declared) > 0 {
		out = []string{declared[0]}
	}
	return out
}

func shortNames(ids []string) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, manifest.ShortName(id))
	}
	return names
}
