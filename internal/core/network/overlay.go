package network

import (
	"github.com/artpar/kitchen/internal/core/compose"
)

// Security options and capabilities added by the hardened tiers.
const (
	OptNoNewPrivileges = "no-new-privileges:true"
	OptAppArmorDefault = "apparmor:docker-default"
	CapAll             = "ALL"
	CapNetAdmin        = "NET_ADMIN"
	CapSysAdmin        = "SYS_ADMIN"
	TmpfsTmp           = "/tmp"
)

// =============================================================================
// Overlay
// =============================================================================

// ApplyProfile returns a copy of the descriptor with the tier's networks
// declared, every service assigned to them by role, and the tier's security
// hardening added. The input descriptor is not modified.
//
// Hardening is additive and applying the same tier twice gives the same
// result.
func ApplyProfile(d *compose.Descriptor, tier Tier) (*compose.Descriptor, error) {
	networks := tier.Networks()
	if networks == nil {
		return nil, &UnknownTierError{Name: string(tier)}
	}

	out := d.Clone()
	out.Networks = networks
	for name, svc := range out.Services {
		if svc == nil {
			continue
		}
		svc.Networks = tier.Assign(Classify(name, svc))
		harden(tier, name, svc)
	}
	return out, nil
}

func harden(tier Tier, name string, svc *compose.Service) {
	switch tier {
	case TierMultiTier:
		svc.SecurityOpt = appendMissing(svc.SecurityOpt, OptNoNewPrivileges, OptAppArmorDefault)
		svc.ReadOnly = true
		if len(svc.CapDrop) == 0 {
			svc.CapDrop = []string{CapAll}
		}
		if statefulServices[name] {
			svc.Tmpfs = appendMissing(svc.Tmpfs, TmpfsTmp)
		}
	case TierSegmented:
		svc.SecurityOpt = appendMissing(svc.SecurityOpt, OptNoNewPrivileges)
		if len(svc.CapDrop) == 0 {
			svc.CapDrop = []string{CapNetAdmin, CapSysAdmin}
		}
	}
}

func appendMissing(list []string, values ...string) []string {
	for _, v := range values {
		found := false
		for _, existing := range list {
			if existing == v {
				found = true
				break
			}
		}
		if !found {
			list = append(list, v)
		}
	}
	return list
}
