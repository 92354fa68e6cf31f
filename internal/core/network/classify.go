package network

import (
	"github.com/artpar/kitchen/internal/core/compose"
	"github.com/artpar/kitchen/internal/core/deployment"
)

// Role is what a service does, as far as network placement is concerned.
type Role int

const (
	RoleOther Role = iota
	RoleWeb
	RoleData
	RoleManagement
)

func (r Role) String() string {
	switch r {
	case RoleWeb:
		return "web"
	case RoleData:
		return "data"
	case RoleManagement:
		return "management"
	default:
		return "other"
	}
}

var (
	webServices  = map[string]bool{"caddy": true, "homepage": true, "grafana": true, "n8n": true, "code_server": true, "jupyter": true}
	dataServices = map[string]bool{"postgres": true, "neo4j": true, "redis": true, "qdrant": true, "weaviate": true, "minio": true}
	mgmtServices = map[string]bool{"prometheus": true, "grafana": true, "cadvisor": true, "node_exporter": true}

	// webPorts mark a service as web-facing when published or exposed.
	webPorts = map[string]bool{"80": true, "443": true, "3000": true}

	// statefulServices get a writable /tmp under a read-only root.
	statefulServices = map[string]bool{"postgres": true, "neo4j": true, "redis": true}
)

// Classify decides the role of a compose service. Web is checked first, then
// data, then management, so grafana counts as web.
//
// A service is web-facing when its name is a known front end or when any port
// publishes or exposes 80, 443 or 3000. Placeholder defaults count, so
// "${WEB_PORT:-3000}:3000" is web-facing.
func Classify(name string, svc *compose.Service) Role {
	switch {
	case webServices[name] || exposesWebPort(svc):
		return RoleWeb
	case dataServices[name]:
		return RoleData
	case mgmtServices[name]:
		return RoleManagement
	}
	return RoleOther
}

func exposesWebPort(svc *compose.Service) bool {
	if svc == nil {
		return false
	}
	for _, spec := range svc.Ports {
		binding := deployment.ParsePortSpec(spec)
		if webPorts[binding.PublishedDefault()] || webPorts[binding.ContainerDefault()] {
			return true
		}
	}
	return false
}
