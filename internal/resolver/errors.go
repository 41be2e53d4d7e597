package resolver

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnresolvedDependency = errors.New("unresolved dependency")
	ErrAmbiguousDependency  = errors.New("ambiguous dependency")
	ErrCyclicDependency     = errors.New("cyclic dependency")
	ErrDuplicateTest        = errors.New("test is already registered")
	ErrRegistryFrozen       = errors.New("registry is frozen")
	ErrUnknownTest          = errors.New("unknown test")
	ErrDependencyPending    = errors.New("dependency has not completed")
	ErrInvalidTransition    = errors.New("invalid status transition")
)

// UnresolvedDependencyError is returned when a dependency reference matches
// no test within the scope of the referencing test.
type UnresolvedDependencyError struct {
	Test      TestID
	Reference string
	Scope     Scope
}

func (e *UnresolvedDependencyError) Error() string {
	return fmt.Sprintf("%s: %q required by %s matches no test in %s scope",
		ErrUnresolvedDependency, e.Reference, e.Test, e.Scope)
}

func (e *UnresolvedDependencyError) Is(target error) bool {
	return target == ErrUnresolvedDependency
}

// AmbiguousDependencyError is returned when a dependency reference matches
// more than one test within the scope of the referencing test.
type AmbiguousDependencyError struct {
	Test       TestID
	Reference  string
	Scope      Scope
	Candidates []TestID
}

func (e *AmbiguousDependencyError) Error() string {
	candidates := make([]string, len(e.Candidates))
	for i, candidate := range e.Candidates {
		candidates[i] = candidate.String()
	}

	return fmt.Sprintf("%s: %q required by %s matches %d tests in %s scope: %s",
		ErrAmbiguousDependency, e.Reference, e.Test, len(e.Candidates), e.Scope,
		strings.Join(candidates, ", "))
}

func (e *AmbiguousDependencyError) Is(target error) bool {
	return target == ErrAmbiguousDependency
}

// CyclicDependencyError is returned when the dependency graph has a cycle.
// Cycle lists the members in traversal order: each test depends on the next
// one and the last depends on the first.
type CyclicDependencyError struct {
	Cycle []TestID
}

func (e *CyclicDependencyError) Error() string {
	members := make([]string, 0, len(e.Cycle)+1)
	for _, id := range e.Cycle {
		members = append(members, id.String())
	}
	if len(e.Cycle) > 0 {
		members = append(members, e.Cycle[0].String())
	}

	return fmt.Sprintf("%s: %s", ErrCyclicDependency, strings.Join(members, " -> "))
}

func (e *CyclicDependencyError) Is(target error) bool {
	return target == ErrCyclicDependency
}
