package resolver

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidScope = errors.New("invalid dependency scope")

// Scope is the breadth of the search used to resolve the dependency
// references of a test.
type Scope int

const (
	// ScopeFunction restricts the search to the sibling tests of the
	// referencing test. It is the default scope.
	ScopeFunction Scope = iota
	// ScopeClass restricts the search to the class of the referencing test.
	ScopeClass
	// ScopeModule restricts the search to the module of the referencing
	// test. References are node ids relative to the module.
	ScopeModule
	// ScopeSession searches every known module.
	ScopeSession
)

var scopeNames = [...]string{
	ScopeFunction: "function",
	ScopeClass:    "class",
	ScopeModule:   "module",
	ScopeSession:  "session",
}

// ParseScope returns the scope with the given name. An empty name is the
// default scope.
func ParseScope(name string) (Scope, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ScopeFunction, nil
	}

	for scope, scopeName := range scopeNames {
		if scopeName == name {
			return Scope(scope), nil
		}
	}

	return ScopeFunction, fmt.Errorf("%w: %q", ErrInvalidScope, name)
}

func (s Scope) String() string {
	if s < 0 || int(s) >= len(scopeNames) {
		return fmt.Sprintf("Scope(%d)", int(s))
	}

	return scopeNames[s]
}

func (s Scope) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(scopeNames) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidScope, int(s))
	}

	return []byte(s.String()), nil
}

func (s *Scope) UnmarshalText(text []byte) error {
	scope, err := ParseScope(string(text))
	if err != nil {
		return err
	}
	*s = scope

	return nil
}
