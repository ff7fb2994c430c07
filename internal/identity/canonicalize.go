// Package identity normalizes raw courier agent names into stable
// canonical identities and resolves operator-maintained aliases.
package identity

import "strings"

const (
	// Unknown is the identity assigned to empty or absent names.
	Unknown = "UNKNOWN"
	// System is the identity assigned to the platform's automated
	// reassignment service.
	System = "SYSTEM"

	// customerSuffix appears on rows where the platform appended the
	// recipient tag to the agent name.
	customerSuffix = " CUSTOMER"
	// reassignPrefix is prepended by the platform when a shipment is
	// machine-reassigned to an agent.
	reassignPrefix = "AUTO REASSIGN "
	// reassignService is the raw name the platform reports when no human
	// agent was involved at all.
	reassignService = "AUTO REASSIGN SERVICE"
)

// Canonicalize maps a raw agent name to its canonical identity. It trims
// surrounding whitespace, collapses internal whitespace runs, upper-cases,
// strips the platform's customer suffix and reassignment prefix, and maps
// the reassignment service itself to System. Empty input maps to Unknown.
//
// Canonicalize(Canonicalize(x)) == Canonicalize(x) for all x; the suffix
// and prefix strips loop until stable to keep that invariant.
func Canonicalize(raw string) string {
	s := strings.ToUpper(collapseWhitespace(raw))
	if s == "" {
		return Unknown
	}
	if s == reassignService {
		return System
	}
	for {
		trimmed := strings.TrimSuffix(s, customerSuffix)
		trimmed = strings.TrimPrefix(trimmed, reassignPrefix)
		trimmed = strings.TrimSpace(trimmed)
		if trimmed == s {
			break
		}
		s = trimmed
	}
	if s == "" {
		return Unknown
	}
	return s
}

// collapseWhitespace trims the string and squeezes internal whitespace
// runs down to single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
