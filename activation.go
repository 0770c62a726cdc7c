package auth

import "strings"

// ActivationPolicy decides whether unverified identities may authenticate.
// It is resolved once at startup from the deployment environment and passed
// into the flow controller and the token guard, instead of each of them
// consulting ambient environment state.
type ActivationPolicy int

const (
	// PolicyEnforce requires email verification before sign-in and before
	// any token-protected access.
	PolicyEnforce ActivationPolicy = iota
	// PolicyBypass relaxes the activation gate for local development.
	PolicyBypass
)

// PolicyForEnvironment maps a deployment environment tag to a policy.
// Only local development bypasses the gate.
func PolicyForEnvironment(env string) ActivationPolicy {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "local", "development":
		return PolicyBypass
	default:
		return PolicyEnforce
	}
}

// Allows reports whether an identity with the given activation flag may pass.
func (p ActivationPolicy) Allows(activated bool) bool {
	return activated || p == PolicyBypass
}

func (p ActivationPolicy) String() string {
	if p == PolicyBypass {
		return "bypass"
	}
	return "enforce"
}
