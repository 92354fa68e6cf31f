// Package network assigns compose services to isolated networks and applies
// the security hardening of a deployment tier.
// This is part of the Functional Core - all functions are pure with no I/O.
package network

import (
	"fmt"
	"strings"

	"github.com/artpar/kitchen/internal/core/compose"
	"github.com/artpar/kitchen/internal/core/deployment"
)

// =============================================================================
// Tiers
// =============================================================================

// Tier is a network and security posture.
type Tier string

const (
	TierOpen      Tier = "open"
	TierSegmented Tier = "segmented"
	TierMultiTier Tier = "multiTier"
)

// Network names used by the tiers.
var (
	NetShared   = deployment.NetworkName("net")
	NetFrontend = deployment.NetworkName("frontend")
	NetBackend  = deployment.NetworkName("backend")
	NetData     = deployment.NetworkName("data")
	NetWebTier  = deployment.NetworkName("web_tier")
	NetAppTier  = deployment.NetworkName("app_tier")
	NetDataTier = deployment.NetworkName("data_tier")
	NetMgmtTier = deployment.NetworkName("mgmt_tier")
)

const driverBridge = "bridge"

var tierAliases = map[string]Tier{
	"open":          TierOpen,
	"open-research": TierOpen,
	"dev":           TierOpen,
	"chirashi":      TierOpen,
	"segmented":     TierSegmented,
	"business":      TierSegmented,
	"temaki":        TierSegmented,
	"multitier":     TierMultiTier,
	"multi-tier":    TierMultiTier,
	"enterprise":    TierMultiTier,
	"inari":         TierMultiTier,
}

// UnknownTierError is returned for a tier name that matches no tier or alias.
type UnknownTierError struct {
	Name string
}

func (e *UnknownTierError) Error() string {
	return fmt.Sprintf("unknown network profile %q", e.Name)
}

// ParseTier resolves a tier name or one of its aliases, ignoring case.
//
// Example:
//
//	ParseTier("temaki") // TierSegmented, nil
func ParseTier(name string) (Tier, error) {
	if tier, ok := tierAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return tier, nil
	}
	return "", &UnknownTierError{Name: name}
}

// Networks returns the network declarations of a tier.
func (t Tier) Networks() map[string]*compose.Network {
	switch t {
	case TierOpen:
		return map[string]*compose.Network{
			NetShared: {Driver: driverBridge, IPAM: subnet("172.20.0.0/16")},
		}
	case TierSegmented:
		return map[string]*compose.Network{
			NetFrontend: {Driver: driverBridge},
			NetBackend:  {Driver: driverBridge, Internal: true},
			NetData:     {Driver: driverBridge, Internal: true},
		}
	case TierMultiTier:
		return map[string]*compose.Network{
			NetWebTier:  {Driver: driverBridge, IPAM: subnet("172.21.1.0/24")},
			NetAppTier:  {Driver: driverBridge, Internal: true, IPAM: subnet("172.21.2.0/24")},
			NetDataTier: {Driver: driverBridge, Internal: true, IPAM: subnet("172.21.3.0/24")},
			NetMgmtTier: {Driver: driverBridge, Internal: true, IPAM: subnet("172.21.4.0/24")},
		}
	}
	return nil
}

// Assign returns the networks a service with the given role joins.
func (t Tier) Assign(role Role) []string {
	switch t {
	case TierOpen:
		return []string{NetShared}
	case TierSegmented:
		switch role {
		case RoleWeb:
			return []string{NetFrontend, NetBackend}
		case RoleData:
			return []string{NetData}
		default:
			return []string{NetBackend}
		}
	case TierMultiTier:
		switch role {
		case RoleWeb:
			return []string{NetWebTier, NetAppTier}
		case RoleData:
			return []string{NetDataTier}
		case RoleManagement:
			return []string{NetMgmtTier, NetAppTier}
		default:
			return []string{NetAppTier}
		}
	}
	return nil
}

func subnet(cidr string) *compose.IPAM {
	return &compose.IPAM{Config: []compose.IPAMConfig{{Subnet: cidr}}}
}

// =============================================================================
// Profile Catalogue
// =============================================================================

// ProfileInfo describes a tier for people choosing one.
type ProfileInfo struct {
	Tier          Tier     `json:"tier"`
	Name          string   `json:"name"`
	Aliases       []string `json:"aliases"`
	Description   string   `json:"description"`
	SecurityLevel string   `json:"security_level"`
	SuitableFor   []string `json:"suitable_for"`
	Networks      []string `json:"networks"`
}

// Profiles lists every tier from least to most restrictive.
func Profiles() []ProfileInfo {
	return []ProfileInfo{
		{
			Tier:          TierOpen,
			Name:          "Open Research",
			Aliases:       []string{"open-research", "dev", "chirashi"},
			Description:   "Single shared network with no hardening, for local research and development.",
			SecurityLevel: "low",
			SuitableFor:   []string{"personal projects", "prototyping", "learning"},
			Networks:      []string{NetShared},
		},
		{
			Tier:          TierSegmented,
			Name:          "Business",
			Aliases:       []string{"business", "temaki"},
			Description:   "Frontend, backend and data networks with privilege escalation blocked.",
			SecurityLevel: "medium",
			SuitableFor:   []string{"small teams", "internal tools", "staging"},
			Networks:      []string{NetBackend, NetData, NetFrontend},
		},
		{
			Tier:          TierMultiTier,
			Name:          "Enterprise",
			Aliases:       []string{"multi-tier", "enterprise", "inari"},
			Description:   "Web, application, data and management tiers with read-only containers and all capabilities dropped.",
			SecurityLevel: "high",
			SuitableFor:   []string{"production", "regulated data", "multi-tenant hosts"},
			Networks:      []string{NetAppTier, NetDataTier, NetMgmtTier, NetWebTier},
		},
	}
}
