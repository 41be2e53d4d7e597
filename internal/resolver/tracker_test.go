package resolver_test

import (
	"testing"

	"github.com/pako-23/testdeps/internal/resolver"
	"gotest.tools/v3/assert"
)

func chainPlan(t *testing.T) *resolver.Plan {
	plan, err := resolver.Resolve([]resolver.Declaration{
		declare(t, "m.py::test_a", resolver.ScopeFunction),
		declare(t, "m.py::test_b", resolver.ScopeFunction, "test_a"),
		declare(t, "m.py::test_c", resolver.ScopeFunction, "test_b"),
		declare(t, "m.py::test_d", resolver.ScopeFunction),
	})
	assert.NilError(t, err)

	return plan
}

func id(t *testing.T, s string) resolver.TestID {
	got, err := resolver.ParseTestID(s)
	assert.NilError(t, err)

	return got
}

func TestTrackerSkipPropagation(t *testing.T) {
	t.Parallel()

	plan := chainPlan(t)
	tracker := resolver.NewTracker(plan)

	decision, err := tracker.Decide(id(t, "m.py::test_a"))
	assert.NilError(t, err)
	assert.Check(t, decision.Run)
	assert.Check(t, !tracker.Ready(id(t, "m.py::test_b")))
	assert.NilError(t, tracker.Report(id(t, "m.py::test_a"), resolver.StatusFailed))

	assert.Check(t, tracker.Ready(id(t, "m.py::test_b")))
	decision, err = tracker.Decide(id(t, "m.py::test_b"))
	assert.NilError(t, err)
	assert.Check(t, !decision.Run)
	assert.DeepEqual(t, names(decision.Blockers), []string{"m.py::test_a"})
	assert.Equal(t, tracker.Status(id(t, "m.py::test_b")), resolver.StatusSkipped)

	decision, err = tracker.Decide(id(t, "m.py::test_c"))
	assert.NilError(t, err)
	assert.Check(t, !decision.Run)
	assert.DeepEqual(t, names(decision.Blockers), []string{"m.py::test_b"})

	decision, err = tracker.Decide(id(t, "m.py::test_d"))
	assert.NilError(t, err)
	assert.Check(t, decision.Run)
	assert.NilError(t, tracker.Report(id(t, "m.py::test_d"), resolver.StatusPassed))

	statuses := map[string]resolver.Status{}
	for _, result := range tracker.Results() {
		statuses[result.ID.String()] = result.Status
	}
	assert.DeepEqual(t, statuses, map[string]resolver.Status{
		"m.py::test_a": resolver.StatusFailed,
		"m.py::test_b": resolver.StatusSkipped,
		"m.py::test_c": resolver.StatusSkipped,
		"m.py::test_d": resolver.StatusPassed,
	})
}

func TestTrackerSkippedDependency(t *testing.T) {
	t.Parallel()

	tracker := resolver.NewTracker(chainPlan(t))

	assert.NilError(t, tracker.Report(id(t, "m.py::test_a"), resolver.StatusSkipped))
	decision, err := tracker.Decide(id(t, "m.py::test_b"))
	assert.NilError(t, err)
	assert.Check(t, !decision.Run)
}

func TestTrackerPassedDependencies(t *testing.T) {
	t.Parallel()

	tracker := resolver.NewTracker(chainPlan(t))

	for _, test := range []string{"m.py::test_a", "m.py::test_b", "m.py::test_c"} {
		decision, err := tracker.Decide(id(t, test))
		assert.NilError(t, err)
		assert.Check(t, decision.Run)
		assert.NilError(t, tracker.Report(id(t, test), resolver.StatusPassed))
	}
}

func TestTrackerErrors(t *testing.T) {
	t.Parallel()

	plan := chainPlan(t)
	tracker := resolver.NewTracker(plan)

	assert.Check(t, plan.Contains(id(t, "m.py::test_a")))
	assert.Check(t, !plan.Contains(id(t, "m.py::test_unknown")))

	_, err := tracker.Decide(id(t, "m.py::test_b"))
	assert.ErrorIs(t, err, resolver.ErrDependencyPending)

	_, err = tracker.Decide(id(t, "m.py::test_unknown"))
	assert.ErrorIs(t, err, resolver.ErrUnknownTest)

	err = tracker.Report(id(t, "m.py::test_unknown"), resolver.StatusPassed)
	assert.ErrorIs(t, err, resolver.ErrUnknownTest)

	err = tracker.Report(id(t, "m.py::test_a"), resolver.StatusPending)
	assert.ErrorIs(t, err, resolver.ErrInvalidTransition)

	assert.NilError(t, tracker.Report(id(t, "m.py::test_a"), resolver.StatusPassed))
	err = tracker.Report(id(t, "m.py::test_a"), resolver.StatusFailed)
	assert.ErrorIs(t, err, resolver.ErrInvalidTransition)

	_, err = tracker.Decide(id(t, "m.py::test_a"))
	assert.ErrorIs(t, err, resolver.ErrInvalidTransition)
}

func TestTrackerFailedExternalDependency(t *testing.T) {
	t.Parallel()

	decls := append(moduleADeclarations(t), declare(t, moduleB+"::TestA::test_b", resolver.ScopeFunction))
	plan, err := resolver.Resolve(decls)
	assert.NilError(t, err)

	tracker := resolver.NewTracker(plan)
	run := []string{}

	for _, test := range plan.Tests() {
		decision, err := tracker.Decide(test)
		assert.NilError(t, err)
		if !decision.Run {
			continue
		}

		run = append(run, test.String())
		status := resolver.StatusPassed
		if test.Module == moduleB {
			status = resolver.StatusFailed
		}
		assert.NilError(t, tracker.Report(test, status))
	}

	assert.DeepEqual(t, run, []string{
		moduleB + "::TestA::test_b",
		moduleA + "::TestA::test_c",
		moduleA + "::TestB::test_a",
		moduleA + "::TestB::test_b",
	})

	for _, skipped := range []string{
		moduleA + "::TestB::test_c",
		moduleA + "::TestA::test_b",
		moduleA + "::test_b",
		moduleA + "::test_a",
		moduleA + "::TestA::test_a",
	} {
		assert.Equal(t, tracker.Status(id(t, skipped)), resolver.StatusSkipped)
	}
}
