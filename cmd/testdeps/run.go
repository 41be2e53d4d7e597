package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/pako-23/testdeps/internal/execution"
	"github.com/pako-23/testdeps/internal/report"
	"github.com/pako-23/testdeps/internal/runner"
	command_runner "github.com/pako-23/testdeps/internal/runner/command-runner"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRunCmd() *cobra.Command {
	runCommand := &cobra.Command{
		Use:   "run [flags] [paths to tests]",
		Short: "Run a test suite respecting the dependencies between tests",
		Long: `Runs the tests of a test suite, each as a separate command. A test
starts only after all the tests it depends on passed; when one of them
failed or was skipped, the test is skipped. Independent tests run in
parallel on the given number of runners.

The command template replaces {} with the test identifier, or gets the
identifier appended when it has no {}.`,
		PreRun: func(cmd *cobra.Command, args []string) {
			viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			format := viper.GetString("report")
			if format != "text" && format != "json" {
				return errors.Errorf("unsupported report format %q", format)
			}

			plan, err := loadPlan(suitePaths(args))
			if err != nil {
				return err
			}

			options := []runner.RunnerOption[*command_runner.CommandRunner]{
				command_runner.WithCommand(viper.GetString("command")),
				command_runner.WithDir(viper.GetString("dir")),
			}
			if viper.GetString("env-file") != "" {
				options = append(options, command_runner.WithEnvFile(viper.GetString("env-file")))
			}
			options = append(options, command_runner.WithEnv(viper.GetStringSlice("env")))

			runners, err := runner.NewRunnerSet(viper.GetInt("runners"),
				command_runner.CommandRunnerBuilder, options...)
			if err != nil {
				return err
			}
			defer func() {
				if err := runners.Delete(); err != nil {
					log.Error(err)
				}
			}()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var execOptions []execution.Option
			if viper.GetBool("progress") {
				bar := newProgressBar(plan.Len())
				defer bar.Finish()
				execOptions = append(execOptions, execution.WithObserver(func(execution.TestResult) {
					bar.Add(1)
				}))
			}

			result, err := execution.Execute(ctx, plan, runners, execOptions...)
			if err != nil {
				return errors.Wrap(err, "test run interrupted")
			}

			err = withOutput(func(w io.Writer) error {
				if format == "json" {
					return report.WriteJSON(w, result)
				}

				return report.WriteText(w, result)
			})
			if err != nil {
				return err
			}

			if !result.Success() {
				return errors.Errorf("%d of %d tests failed", result.Failed, len(result.Results))
			}

			return nil
		},
	}

	addSuiteFlags(runCommand)
	runCommand.Flags().StringP("command", "c", command_runner.DefaultCommand, "the command template running a single test")
	runCommand.Flags().String("dir", "", "the working directory of the test commands")
	runCommand.Flags().StringArrayP("env", "e", []string{}, "an environment variable to pass to the test commands")
	runCommand.Flags().String("env-file", "", "a dotenv file with environment variables to pass to the test commands")
	runCommand.Flags().UintP("runners", "r", runner.DefaultSetSize, "the number of concurrent runners")
	runCommand.Flags().String("report", "text", "the report format (text or json)")
	runCommand.Flags().StringP("output", "o", "", "the file where to write the report")
	runCommand.Flags().Bool("progress", false, "show a progress bar on the standard error")

	return runCommand
}

func newProgressBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.CyanString("Running tests")),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
	)
}
