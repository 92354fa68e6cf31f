package deployment

// NetworkPrefix is prepended to every network kitchen declares.
const NetworkPrefix = "kitchen_"

// =============================================================================
// Resource Naming Functions
// =============================================================================

// NetworkName generates a network name for a network role.
// Pattern: kitchen_{role}
//
// Example:
//
//	NetworkName("frontend") // returns "kitchen_frontend"
func NetworkName(role string) string {
	return NetworkPrefix + role
}
