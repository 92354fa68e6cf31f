// Package validation provides pure checks over generated compose descriptors
// and the requests that produce them.
//
// All functions are pure (no I/O, no side effects). Findings never abort a
// generation: errors mark a descriptor unsafe to deploy, warnings are advisory.
//
// # Functions
//
//   - Validate: Undefined networks (errors) and repeated default host ports (warnings)
//   - ValidateWithIndex: Validate plus declared conflicts between resolved services
//   - ValidateYAML: Validate a document given as text, including compose conformance
//   - ValidateGenerateFields: Validate required fields of a generate request
//
// # Usage
//
//	result := validation.Validate(descriptor)
//	if !result.Valid {
//	    // Report result.Errors
//	}
package validation
