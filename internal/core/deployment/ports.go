package deployment

import "strings"

// =============================================================================
// Port Parsing Functions
// =============================================================================

// PortBinding is a compose short-syntax port split into its parts.
// Host and Container are kept as written, so they may hold placeholders.
type PortBinding struct {
	HostIP    string
	Host      string
	Container string
	Protocol  string
}

// ParsePortSpec splits [[ip:]host:]container[/protocol]. Colons inside
// ${...} placeholders do not separate parts. Protocol defaults to "tcp".
//
// Example:
//
//	ParsePortSpec("${WEB_PORT:-8080}:80/udp")
//	// PortBinding{Host: "${WEB_PORT:-8080}", Container: "80", Protocol: "udp"}
func ParsePortSpec(spec string) PortBinding {
	binding := PortBinding{Protocol: "tcp"}

	parts := splitOutsidePlaceholders(spec, ':')
	last := parts[len(parts)-1]
	if i := strings.LastIndex(last, "/"); i >= 0 && !strings.Contains(last[i:], "}") {
		binding.Protocol = strings.ToLower(last[i+1:])
		last = last[:i]
	}
	binding.Container = last

	switch len(parts) {
	case 1:
	case 2:
		binding.Host = parts[0]
	default:
		binding.HostIP = strings.Join(parts[:len(parts)-2], ":")
		binding.Host = parts[len(parts)-2]
	}
	return binding
}

// PublishedDefault returns the host port with placeholders resolved to their
// defaults.
func (p PortBinding) PublishedDefault() string {
	return SubstituteVariables(p.Host, nil)
}

// ContainerDefault returns the container port with placeholders resolved to
// their defaults.
func (p PortBinding) ContainerDefault() string {
	return SubstituteVariables(p.Container, nil)
}

func splitOutsidePlaceholders(s string, sep byte) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '$' && i+1 < len(s) && s[i+1] == '{':
			depth++
			i++
		case s[i] == '}' && depth > 0:
			depth--
		case s[i] == sep && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}
