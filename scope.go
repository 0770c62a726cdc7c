package auth

import "strings"

// Scope is a role tag carried by issued tokens.
type Scope string

const (
	// ScopeUser is granted to every registered identity.
	ScopeUser Scope = "user"
	// ScopeAdmin is granted on top of ScopeUser to administrators.
	ScopeAdmin Scope = "admin"
	// ScopeOneTime is the password-reset scope. Tokens carrying only this
	// scope live for five minutes and have no refresh companion.
	ScopeOneTime Scope = "one-time"
)

// IsValid checks if the scope is one of the predefined valid scopes
func (s Scope) IsValid() bool {
	switch s {
	case ScopeUser, ScopeAdmin, ScopeOneTime:
		return true
	default:
		return false
	}
}

// ParseScope safely parses a string into a Scope type
func ParseScope(raw string) (Scope, bool) {
	s := Scope(raw)
	return s, s.IsValid()
}

// ScopeSet is an ordered set of scopes. Insertion order is preserved for
// serialization; Equal and Intersects ignore it.
type ScopeSet []Scope

// NewScopeSet builds a ScopeSet from the given scopes, dropping duplicates.
func NewScopeSet(scopes ...Scope) ScopeSet {
	set := make(ScopeSet, 0, len(scopes))
	for _, s := range scopes {
		if !set.Contains(s) {
			set = append(set, s)
		}
	}
	return set
}

// ScopeSetFromStrings builds a ScopeSet from raw claim values. Unknown tags
// are kept as-is so that set comparisons operate on what a token actually
// carries, not on a sanitized view of it.
func ScopeSetFromStrings(raw []string) ScopeSet {
	set := make(ScopeSet, 0, len(raw))
	for _, r := range raw {
		s := Scope(r)
		if !set.Contains(s) {
			set = append(set, s)
		}
	}
	return set
}

// Contains reports whether s is a member of the set.
func (ss ScopeSet) Contains(s Scope) bool {
	for _, member := range ss {
		if member == s {
			return true
		}
	}
	return false
}

// Equal reports order-independent set equality.
func (ss ScopeSet) Equal(other ScopeSet) bool {
	if len(ss) != len(other) {
		return false
	}
	for _, s := range ss {
		if !other.Contains(s) {
			return false
		}
	}
	return true
}

// Intersects reports whether the two sets share at least one scope.
func (ss ScopeSet) Intersects(other ScopeSet) bool {
	for _, s := range ss {
		if other.Contains(s) {
			return true
		}
	}
	return false
}

// IsOneTime reports whether the set grants exactly the one-time scope.
func (ss ScopeSet) IsOneTime() bool {
	return len(ss) == 1 && ss[0] == ScopeOneTime
}

// Strings returns the set as a string slice in insertion order.
func (ss ScopeSet) Strings() []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = string(s)
	}
	return out
}

func (ss ScopeSet) String() string {
	return strings.Join(ss.Strings(), " ")
}
