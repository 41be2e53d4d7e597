package resolver

import (
	"github.com/pako-23/testdeps/internal/graph"
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
)

// Edge is a resolved dependency: From requires To to run first.
type Edge struct {
	From      TestID
	To        TestID
	Reference string
}

// Plan is the execution order of a test suite. Every test appears after
// all the tests it depends on.
type Plan struct {
	order        []TestID
	index        map[string]int
	dependencies [][]int
	dependents   [][]int
	edges        []Edge
}

type options struct {
	ignoreUnknown bool
}

// Option configures a resolution.
type Option func(*options)

// WithIgnoreUnknown drops the references that match no test instead of
// failing the resolution.
func WithIgnoreUnknown() Option {
	return func(o *options) {
		o.ignoreUnknown = true
	}
}

// Resolve registers the given declarations into a new registry and
// resolves it.
func Resolve(decls []Declaration, opts ...Option) (*Plan, error) {
	registry := NewRegistry()
	if err := registry.RegisterAll(decls); err != nil {
		return nil, err
	}

	return registry.Resolve(opts...)
}

// Resolve freezes the registry, resolves every dependency reference and
// returns the execution plan. If any reference cannot be resolved or the
// dependencies form a cycle, no plan is returned.
func (r *Registry) Resolve(opts ...Option) (*Plan, error) {
	config := options{}
	for _, opt := range opts {
		opt(&config)
	}
	r.frozen = true

	adjacency := make([][]int, len(r.tests))
	edges := []Edge{}

	for _, tc := range r.tests {
		for i, ref := range tc.references {
			matches := r.lookup(tc, ref)

			switch len(matches) {
			case 0:
				if config.ignoreUnknown {
					log.Warnf("ignoring unknown dependency %q of %s", tc.raw[i], tc.id)
					continue
				}
				return nil, &UnresolvedDependencyError{
					Test:      tc.id,
					Reference: tc.raw[i],
					Scope:     tc.scope,
				}
			case 1:
			default:
				candidates := make([]TestID, len(matches))
				for j, match := range matches {
					candidates[j] = match.id
				}
				return nil, &AmbiguousDependencyError{
					Test:       tc.id,
					Reference:  tc.raw[i],
					Scope:      tc.scope,
					Candidates: candidates,
				}
			}

			to := matches[0]
			if slices.Contains(adjacency[tc.index], to.index) {
				continue
			}

			adjacency[tc.index] = append(adjacency[tc.index], to.index)
			edges = append(edges, Edge{From: tc.id, To: to.id, Reference: tc.raw[i]})
			log.Debugf("resolved %q of %s to %s", tc.raw[i], tc.id, to.id)
		}
	}

	order, err := r.sort(adjacency)
	if err != nil {
		return nil, err
	}

	return newPlan(r.tests, order, adjacency, edges), nil
}

const (
	white = iota
	gray
	black
)

// sort returns the tests in topological order. Roots are visited in
// declaration order and dependencies in reference order, so the same
// declarations always yield the same order.
func (r *Registry) sort(adjacency [][]int) ([]int, error) {
	var (
		color = make([]int, len(r.tests))
		order = make([]int, 0, len(r.tests))
		path  = []int{}
	)

	var visit func(int) error
	visit = func(v int) error {
		color[v] = gray
		path = append(path, v)

		for _, u := range adjacency[v] {
			switch color[u] {
			case gray:
				start := slices.Index(path, u)
				cycle := make([]TestID, 0, len(path)-start)
				for _, w := range path[start:] {
					cycle = append(cycle, r.tests[w].id)
				}
				return &CyclicDependencyError{Cycle: cycle}
			case white:
				if err := visit(u); err != nil {
					return err
				}
			}
		}

		path = path[:len(path)-1]
		color[v] = black
		order = append(order, v)

		return nil
	}

	for v := range r.tests {
		if color[v] != white {
			continue
		}
		if err := visit(v); err != nil {
			return nil, err
		}
	}

	return order, nil
}

func newPlan(tests []*testCase, order []int, adjacency [][]int, edges []Edge) *Plan {
	plan := &Plan{
		order:        make([]TestID, len(order)),
		index:        make(map[string]int, len(order)),
		dependencies: make([][]int, len(order)),
		dependents:   make([][]int, len(order)),
		edges:        edges,
	}

	position := make([]int, len(tests))
	for i, v := range order {
		position[v] = i
		plan.order[i] = tests[v].id
		plan.index[tests[v].id.String()] = i
	}

	for v, deps := range adjacency {
		for _, u := range deps {
			plan.dependencies[position[v]] = append(plan.dependencies[position[v]], position[u])
			plan.dependents[position[u]] = append(plan.dependents[position[u]], position[v])
		}
	}

	return plan
}

// Len returns the number of tests in the plan.
func (p *Plan) Len() int {
	return len(p.order)
}

// Tests returns the tests in execution order.
func (p *Plan) Tests() []TestID {
	return slices.Clone(p.order)
}

// Names returns the string form of the tests in execution order.
func (p *Plan) Names() []string {
	names := make([]string, len(p.order))
	for i, id := range p.order {
		names[i] = id.String()
	}

	return names
}

// Edges returns the resolved dependencies in declaration order.
func (p *Plan) Edges() []Edge {
	return slices.Clone(p.edges)
}

// Contains reports whether the test is part of the plan.
func (p *Plan) Contains(id TestID) bool {
	_, ok := p.index[id.String()]
	return ok
}

// Dependencies returns the direct dependencies of a test in reference
// order.
func (p *Plan) Dependencies(id TestID) []TestID {
	return p.collect(id, p.dependencies)
}

// Dependents returns the tests directly depending on a test.
func (p *Plan) Dependents(id TestID) []TestID {
	return p.collect(id, p.dependents)
}

func (p *Plan) collect(id TestID, links [][]int) []TestID {
	i, ok := p.index[id.String()]
	if !ok {
		return nil
	}

	ids := make([]TestID, len(links[i]))
	for j, k := range links[i] {
		ids[j] = p.order[k]
	}

	return ids
}

// Graph returns the dependencies of the plan as a DependencyGraph keyed by
// the string form of the test identifiers.
func (p *Plan) Graph() graph.DependencyGraph {
	g := graph.NewDependencyGraph(p.Names())

	for _, edge := range p.edges {
		g.AddDependency(edge.From.String(), edge.To.String())
	}

	return g
}
