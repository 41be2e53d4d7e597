package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newSchedulesCmd() *cobra.Command {
	schedulesCommand := &cobra.Command{
		Use:   "schedules [flags] [paths to tests]",
		Short: "Compute independent schedules for a test suite",
		Long: `Splits a test suite into schedules that can run in isolation from
each other. Each schedule ends with a test that no other test depends on
and contains, in execution order, all the tests it transitively depends
on.`,
		PreRun: func(cmd *cobra.Command, args []string) {
			viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := loadPlan(suitePaths(args))
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(plan.Graph().GetSchedules(plan.Names()), "", "  ")
			if err != nil {
				return fmt.Errorf("failed to create json from data: %w", err)
			}

			return withOutput(func(w io.Writer) error {
				_, err := fmt.Fprintln(w, string(data))
				return err
			})
		},
	}

	addSuiteFlags(schedulesCommand)
	schedulesCommand.Flags().StringP("output", "o", "", "the path where to write the resulting schedules")

	return schedulesCommand
}
