// Package deployment provides pure helpers shared by the compose stages.
//
// All functions are pure (no I/O, no side effects).
//
// # Functions
//
//   - Naming: Build network names (NetworkName)
//   - Ordering: Sort services by depends_on (StartOrder)
//   - Variables: Resolve ${VAR} and ${VAR:-default} placeholders (SubstituteVariables, PlaceholderDefault)
//   - Ports: Split compose port strings into their parts (ParsePortSpec)
//
// # Usage
//
//	order := deployment.StartOrder(descriptor.Services)
//	binding := deployment.ParsePortSpec("${WEB_PORT:-8080}:80")
//	binding.PublishedDefault() // "8080"
package deployment
