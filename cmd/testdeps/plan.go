package main

import (
	"fmt"
	"io"

	"github.com/pako-23/testdeps/internal/report"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newPlanCmd() *cobra.Command {
	planCommand := &cobra.Command{
		Use:   "plan [flags] [paths to tests]",
		Short: "Print the order in which the tests of a test suite run",
		Long: `Collects the tests under the given paths, resolves the dependencies
they declare and prints the order in which they must run. Every test
comes after all the tests it depends on.

Paths can be directories scanned for test modules, test modules or
YAML/JSON manifests listing the tests and their dependencies.`,
		PreRun: func(cmd *cobra.Command, args []string) {
			viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := loadPlan(suitePaths(args))
			if err != nil {
				return err
			}

			return withOutput(func(w io.Writer) error {
				switch viper.GetString("format") {
				case "text":
					return report.WritePlan(w, plan)
				case "json":
					return report.WritePlanJSON(w, plan)
				default:
					return fmt.Errorf("unsupported format %q", viper.GetString("format"))
				}
			})
		},
	}

	addSuiteFlags(planCommand)
	planCommand.Flags().StringP("format", "f", "text", "the output format (text or json)")
	planCommand.Flags().StringP("output", "o", "", "the file where to write the plan")

	return planCommand
}
