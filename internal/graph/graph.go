// Copyright 2023 The GTDD Authors. All rights reserved.
// Use of this source code is governed by a GPL-style
// license that can be found in the LICENSE file.

// Represents and exports the dependency relationships between tests.

package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"golang.org/x/exp/slices"
)

// DependencyGraph represents the graph encoding the dependencies between the
// tests of a test suite. In the graph, each node is a test of the test suite
// and each edge goes from a test to one of the tests it depends on.
type DependencyGraph map[string]map[string]struct{}

// NewDependencyGraph returns a DependencyGraph without any edges from a
// list of tests.
func NewDependencyGraph(nodes []string) DependencyGraph {
	graph := DependencyGraph{}

	for _, node := range nodes {
		graph[node] = map[string]struct{}{}
	}

	return graph
}

// FromJSON decodes a DependencyGraph from a JSON object mapping each test
// to the list of its dependencies. Dependencies missing from the keys are
// added as nodes.
func FromJSON(r io.Reader) (DependencyGraph, error) {
	data := map[string][]string{}
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode graph JSON data: %w", err)
	}

	tests := make([]string, 0, len(data))
	for test := range data {
		tests = append(tests, test)
	}

	g := NewDependencyGraph(tests)
	for test, dependencies := range data {
		for _, dependency := range dependencies {
			if _, ok := g[dependency]; !ok {
				g[dependency] = map[string]struct{}{}
			}
			g.AddDependency(test, dependency)
		}
	}

	return g, nil
}

// FromJSONFile reads a DependencyGraph from a JSON file.
func FromJSONFile(fileName string) (DependencyGraph, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to open JSON file: %w", err)
	}
	defer file.Close()

	return FromJSON(file)
}

// AddDependency adds a dependency relationship between two tests of a
// test suite.
func (d DependencyGraph) AddDependency(from, to string) {
	if _, ok := d[from]; !ok {
		d[from] = map[string]struct{}{}
	}
	d[from][to] = struct{}{}
}

// RemoveDependency removes a dependency relationship between two tests of a
// test suite.
func (d DependencyGraph) RemoveDependency(from, to string) {
	delete(d[from], to)
}

// Equal reports whether two graphs have the same nodes and edges.
func (d DependencyGraph) Equal(other DependencyGraph) bool {
	if len(d) != len(other) {
		return false
	}

	for node, edges := range d {
		otherEdges, ok := other[node]
		if !ok || len(edges) != len(otherEdges) {
			return false
		}

		for edge := range edges {
			if _, ok := otherEdges[edge]; !ok {
				return false
			}
		}
	}

	return true
}

// GetDependencies returns all the transitive dependencies of a given test.
// The test itself is included only if it belongs to a cycle.
func (d DependencyGraph) GetDependencies(test string) map[string]struct{} {
	var (
		dependencies = map[string]struct{}{}
		stack        = []string{test}
		visited      = map[string]struct{}{}
	)

	for len(stack) != 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for u := range d[v] {
			if _, seen := visited[u]; !seen {
				dependencies[u] = struct{}{}
				stack = append(stack, u)
			} else if u == test {
				dependencies[u] = struct{}{}
			}
		}
		visited[v] = struct{}{}
	}

	return dependencies
}

// TransitiveReduction removes every edge implied by other edges, keeping
// only the direct dependencies of each test.
func (d DependencyGraph) TransitiveReduction() {
	for node, edges := range d {
		minEdges := make(map[string]struct{}, len(edges))
		for edge := range edges {
			minEdges[edge] = struct{}{}
		}

		for v := range edges {
			dependencies := d.GetDependencies(v)

			for u := range edges {
				if _, isDependency := dependencies[u]; isDependency {
					delete(minEdges, u)
				}
			}
		}

		d[node] = minEdges
	}
}

// sortedNodes returns the nodes of the graph in lexical order.
func (d DependencyGraph) sortedNodes() []string {
	return sortedKeys(map[string]map[string]struct{}(d))
}

// ToJSON writes a JSON object mapping each test to the sorted list of its
// direct dependencies.
func (d DependencyGraph) ToJSON(w io.Writer) error {
	graph := map[string][]string{}

	for test, dependencies := range d {
		graph[test] = sortedKeys(dependencies)
	}

	data, err := json.MarshalIndent(graph, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to create json from data: %w", err)
	}

	_, err = w.Write(append(data, '\n'))

	return err
}

// ToDOT writes a DOT representation of the dependencies relationship
// between tests of a test suite.
func (d DependencyGraph) ToDOT(w io.Writer) error {
	var err error
	write := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	write("digraph {\n")
	write("    compound = \"true\"\n")
	write("    newrank = \"true\"\n")
	write("    subgraph \"root\" {\n")

	tests := d.sortedNodes()
	for _, test := range tests {
		write("        %q\n", test)
	}

	for _, test := range tests {
		for _, dependency := range sortedKeys(d[test]) {
			write("        %q -> %q\n", test, dependency)
		}
	}

	write("    }\n")
	write("}\n")

	return err
}

// GetSchedules returns the schedules needed to cover all the provided tests
// based on the dependencies into the dependency graph. Each schedule keeps
// the relative order of tests and ends with a test that no later test of
// the list already covers.
func (d DependencyGraph) GetSchedules(tests []string) [][]string {
	var (
		schedules = [][]string{}
		visited   = map[string]struct{}{}
	)

	for i := len(tests) - 1; i >= 0; i-- {
		if _, ok := visited[tests[i]]; ok {
			continue
		}

		deps := d.GetDependencies(tests[i])
		schedule := []string{}

		for _, item := range tests[:i] {
			if _, ok := deps[item]; ok {
				visited[item] = struct{}{}
				schedule = append(schedule, item)
			}
		}
		schedule = append(schedule, tests[i])
		schedules = append(schedules, schedule)
	}

	slices.Reverse(schedules)

	return schedules
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	return keys
}
