package resolver_test

import (
	"testing"

	"github.com/pako-23/testdeps/internal/resolver"
	"gotest.tools/v3/assert"
)

const (
	moduleA = "tests/test_module_a.py"
	moduleB = "tests/test_module_b.py"
)

func declare(t *testing.T, id string, scope resolver.Scope, depends ...string) resolver.Declaration {
	t.Helper()

	testID, err := resolver.ParseTestID(id)
	assert.NilError(t, err)

	return resolver.Declaration{ID: testID, Scope: scope, Depends: depends}
}

// moduleADeclarations mirrors tests/test_module_a.py.
func moduleADeclarations(t *testing.T) []resolver.Declaration {
	return []resolver.Declaration{
		declare(t, moduleA+"::test_a", resolver.ScopeModule, "test_b"),
		declare(t, moduleA+"::test_b", resolver.ScopeModule, "TestA::test_b"),
		declare(t, moduleA+"::TestA::test_a", resolver.ScopeClass, "test_b"),
		declare(t, moduleA+"::TestA::test_b", resolver.ScopeModule, "TestB::test_c"),
		declare(t, moduleA+"::TestA::test_c", resolver.ScopeFunction),
		declare(t, moduleA+"::TestB::test_a", resolver.ScopeFunction),
		declare(t, moduleA+"::TestB::test_b", resolver.ScopeFunction),
		declare(t, moduleA+"::TestB::test_c", resolver.ScopeSession, moduleB+"::TestA::test_b"),
	}
}

func names(ids []resolver.TestID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}

	return out
}

// assertTopological checks that every dependency precedes its dependent.
func assertTopological(t *testing.T, plan *resolver.Plan) {
	t.Helper()

	position := map[string]int{}
	for i, id := range plan.Tests() {
		position[id.String()] = i
	}

	for _, edge := range plan.Edges() {
		assert.Check(t, position[edge.To.String()] < position[edge.From.String()],
			"%s must run before %s", edge.To, edge.From)
	}
}
