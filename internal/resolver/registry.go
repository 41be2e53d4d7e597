package resolver

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Declaration is a test as declared by a test suite: its identifier, the
// scope used to resolve its dependencies and the raw dependency references.
type Declaration struct {
	ID      TestID   `json:"id" yaml:"id"`
	Scope   Scope    `json:"scope" yaml:"scope"`
	Depends []string `json:"depends,omitempty" yaml:"depends,omitempty"`
}

// testCase is a registered declaration with its references already parsed.
type testCase struct {
	id         TestID
	scope      Scope
	references []Reference
	raw        []string
	index      int
}

// Registry records the declarations of a test suite. It is built once,
// then frozen by the first call to Resolve.
type Registry struct {
	tests  []*testCase
	byID   map[string]*testCase
	frozen bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: map[string]*testCase{}}
}

// Register records a declaration. The dependency references are parsed
// immediately, so malformed references are reported here rather than
// during resolution.
func (r *Registry) Register(decl Declaration) error {
	if r.frozen {
		return ErrRegistryFrozen
	}

	id := TestID{
		Module: normalizeModule(strings.TrimSpace(decl.ID.Module)),
		Class:  strings.TrimSpace(decl.ID.Class),
		Name:   strings.TrimSpace(decl.ID.Name),
	}
	if id.Name == "" {
		return fmt.Errorf("%w: %q has no name", ErrInvalidTestID, decl.ID.String())
	}
	if _, ok := r.byID[id.String()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTest, id)
	}

	tc := &testCase{
		id:         id,
		scope:      decl.Scope,
		references: make([]Reference, 0, len(decl.Depends)),
		raw:        make([]string, 0, len(decl.Depends)),
		index:      len(r.tests),
	}

	for _, dep := range decl.Depends {
		ref, err := ParseReference(dep)
		if err != nil {
			return fmt.Errorf("failed to register %s: %w", id, err)
		}

		tc.references = append(tc.references, ref)
		tc.raw = append(tc.raw, dep)
	}

	r.tests = append(r.tests, tc)
	r.byID[id.String()] = tc
	log.Debugf("registered test %s with %d dependencies in %s scope", id, len(tc.references), tc.scope)

	return nil
}

// RegisterAll registers every declaration in order, stopping at the first
// error.
func (r *Registry) RegisterAll(decls []Declaration) error {
	for _, decl := range decls {
		if err := r.Register(decl); err != nil {
			return err
		}
	}

	return nil
}

// Len returns the number of registered tests.
func (r *Registry) Len() int {
	return len(r.tests)
}

// Tests returns the registered tests in declaration order.
func (r *Registry) Tests() []TestID {
	ids := make([]TestID, len(r.tests))
	for i, tc := range r.tests {
		ids[i] = tc.id
	}

	return ids
}

// lookup returns the registered tests that the reference names when
// resolved in the scope of the given test.
func (r *Registry) lookup(from *testCase, ref Reference) []*testCase {
	matches := []*testCase{}

	for _, candidate := range r.tests {
		if candidate.id.Name != ref.Name {
			continue
		}

		var ok bool
		switch from.scope {
		case ScopeSession:
			ok = sessionMatch(candidate.id, ref)
		case ScopeModule:
			ok = moduleMatch(from.id, candidate.id, ref)
		default:
			ok = siblingMatch(from.id, candidate.id, ref)
		}

		if ok {
			matches = append(matches, candidate)
		}
	}

	return matches
}

// siblingMatch matches tests sharing both module and class with the
// referencing test. Qualifiers must name the referencing test's own
// module and class.
func siblingMatch(from, candidate TestID, ref Reference) bool {
	if ref.Module != "" && !moduleMatches(from.Module, ref.Module) {
		return false
	}
	if ref.Class != "" && ref.Class != from.Class {
		return false
	}

	return candidate.Module == from.Module && candidate.Class == from.Class
}

// moduleMatch matches tests of the referencing test's module, reading the
// reference as a node id relative to the module.
func moduleMatch(from, candidate TestID, ref Reference) bool {
	if ref.Module != "" && !moduleMatches(from.Module, ref.Module) {
		return false
	}

	return candidate.Module == from.Module && candidate.Class == ref.Class
}

// sessionMatch matches tests of every module. Missing qualifiers match
// anything, except that a module-qualified reference without a class names
// a module-level test.
func sessionMatch(candidate TestID, ref Reference) bool {
	if ref.Module != "" && !moduleMatches(candidate.Module, ref.Module) {
		return false
	}

	switch {
	case ref.Class != "":
		return candidate.Class == ref.Class
	case ref.Module != "":
		return candidate.Class == ""
	default:
		return true
	}
}
