package credentials

import "strings"

// Capability is the privilege tier a token supports, derived from its
// OAuth scope string.
type Capability int

const (
	CapabilityUnknown Capability = iota
	CapabilityReadOnly
	CapabilityFull
)

func (c Capability) String() string {
	switch c {
	case CapabilityFull:
		return "full"
	case CapabilityReadOnly:
		return "read-only"
	default:
		return "unknown"
	}
}

// Satisfies reports whether a token of this capability may attempt an
// operation that requires the given tier. Unknown never satisfies full:
// a write must not be attempted on a token that cannot support it.
func (c Capability) Satisfies(required Capability) bool {
	if required == CapabilityFull {
		return c == CapabilityFull
	}
	return c >= required
}

// DetectCapability classifies a space-separated OAuth scope string.
// Write+manage scopes give full access; read-only scopes give read-only;
// anything else is unknown.
func DetectCapability(scope string) Capability {
	s := strings.ToLower(scope)
	if strings.Contains(s, "files.readwrite") {
		return CapabilityFull
	}
	if strings.Contains(s, "files.read") {
		return CapabilityReadOnly
	}
	return CapabilityUnknown
}
