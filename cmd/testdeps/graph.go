package main

import (
	"fmt"
	"io"

	"github.com/pako-23/testdeps/internal/graph"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newGraphCmd() *cobra.Command {
	graphCommand := &cobra.Command{
		Use:   "graph [flags] [paths to tests]",
		Short: "Generate a Graphviz graph of the dependencies between tests",
		Long: `Produces a representation of the dependency graph between the tests
of a test suite.

The graph is presented in the DOT language. The typical program that can
read this format is GraphViz. With --format json the graph is written as
JSON instead, and can later be read back with --input.`,
		PreRun: func(cmd *cobra.Command, args []string) {
			viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			format := viper.GetString("format")
			if format != "dot" && format != "json" {
				return fmt.Errorf("unsupported format %q", format)
			}

			g, err := loadGraph(args)
			if err != nil {
				return err
			}

			if viper.GetBool("reduce") {
				g.TransitiveReduction()
			}

			return withOutput(func(w io.Writer) error {
				if format == "json" {
					return g.ToJSON(w)
				}

				return g.ToDOT(w)
			})
		},
	}

	addSuiteFlags(graphCommand)
	graphCommand.Flags().StringP("format", "f", "dot", "the output format (dot or json)")
	graphCommand.Flags().StringP("input", "i", "", "a JSON file containing the graph to use instead of the test suite")
	graphCommand.Flags().StringP("output", "o", "", "the file where to write the graph")
	graphCommand.Flags().Bool("reduce", false, "remove the dependencies implied by other dependencies")

	return graphCommand
}

func loadGraph(args []string) (graph.DependencyGraph, error) {
	if viper.GetString("input") != "" {
		return graph.FromJSONFile(viper.GetString("input"))
	}

	plan, err := loadPlan(suitePaths(args))
	if err != nil {
		return nil, err
	}

	return plan.Graph(), nil
}
