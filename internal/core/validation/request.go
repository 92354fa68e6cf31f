package validation

import "strings"

// =============================================================================
// Request Validation Functions
// =============================================================================

// ValidateGenerateFields validates required fields of a generate request.
// Returns the field name and error message if validation fails.
// Returns empty strings if all fields are valid.
//
// Example:
//
//	field, msg := ValidateGenerateFields([]string{"combo.data"}, "open")
//	if field != "" {
//	    // Return 400 Bad Request with msg
//	}
func ValidateGenerateFields(selection []string, tier string) (field, message string) {
	if len(selection) == 0 {
		return "selection", "selection is required"
	}
	for _, id := range selection {
		if strings.TrimSpace(id) == "" {
			return "selection", "selection must not contain empty identifiers"
		}
	}
	if strings.TrimSpace(tier) == "" {
		return "tier", "tier is required"
	}
	return "", ""
}

// ValidateComposeField validates the body of a validate request.
func ValidateComposeField(composeYAML string) (field, message string) {
	if strings.TrimSpace(composeYAML) == "" {
		return "compose", "compose is required"
	}
	return "", ""
}
