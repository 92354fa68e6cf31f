package deployment

import "regexp"

// =============================================================================
// Variable Substitution Functions
// =============================================================================

// varPlaceholderRegex matches ${VAR} and ${VAR:-default} patterns.
// Groups:
//   - Group 1: Variable name (required)
//   - Group 2: The ":-default" suffix, when present
//   - Group 3: Default value (may be empty)
var varPlaceholderRegex = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// SubstituteVariables replaces ${VAR} and ${VAR:-default} placeholders with values
// from the variables map.
//
// Behavior:
//   - ${VAR} - replaced with variables["VAR"] if exists, otherwise kept as-is
//   - ${VAR:-default} - replaced with variables["VAR"] if exists, otherwise "default"
//   - Unmatched text is left unchanged
//
// Examples:
//
//	SubstituteVariables("${DB_HOST}", map[string]string{"DB_HOST": "localhost"})
//	// Returns: "localhost"
//
//	SubstituteVariables("${PORT:-8080}", nil)
//	// Returns: "8080"
//
//	SubstituteVariables("${MISSING}", nil)
//	// Returns: "${MISSING}"
func SubstituteVariables(value string, variables map[string]string) string {
	return varPlaceholderRegex.ReplaceAllStringFunc(value, func(match string) string {
		submatch := varPlaceholderRegex.FindStringSubmatch(match)
		if val, ok := variables[submatch[1]]; ok {
			return val
		}
		if submatch[2] != "" {
			return submatch[3]
		}
		return match
	})
}

// PlaceholderDefault returns the default of a value that is exactly one
// ${VAR:-default} placeholder.
//
// Examples:
//
//	PlaceholderDefault("${WEB_PORT:-8080}") // "8080", true
//	PlaceholderDefault("${WEB_PORT}")       // "", false
//	PlaceholderDefault("8080")              // "", false
func PlaceholderDefault(value string) (string, bool) {
	loc := varPlaceholderRegex.FindStringSubmatchIndex(value)
	if loc == nil || loc[0] != 0 || loc[1] != len(value) || loc[4] < 0 {
		return "", false
	}
	return value[loc[6]:loc[7]], true
}

// IsTemplated reports whether value contains a placeholder.
func IsTemplated(value string) bool {
	return varPlaceholderRegex.MatchString(value)
}
