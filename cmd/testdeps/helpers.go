package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pako-23/testdeps/internal/discovery"
	"github.com/pako-23/testdeps/internal/resolver"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// addSuiteFlags registers the flags selecting and resolving the tests of a
// suite.
func addSuiteFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("skip-dir", discovery.DefaultSkipDirs, "a directory name never scanned for tests")
	cmd.Flags().Bool("ignore-unknown", false, "drop dependencies on tests that are not part of the suite")
}

// suitePaths returns the paths given on the command line, or the current
// directory when none is given.
func suitePaths(args []string) []string {
	if len(args) == 0 {
		return []string{"."}
	}

	return args
}

// loadPlan collects the tests under the given paths and resolves their
// dependencies.
func loadPlan(paths []string) (*resolver.Plan, error) {
	decls, err := discovery.Collect(paths, viper.GetStringSlice("skip-dir"))
	if err != nil {
		return nil, err
	}
	log.Infof("collected %d tests from %v", len(decls), paths)

	opts := []resolver.Option{}
	if viper.GetBool("ignore-unknown") {
		opts = append(opts, resolver.WithIgnoreUnknown())
	}

	plan, err := resolver.Resolve(decls, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve dependencies: %w", err)
	}

	return plan, nil
}

// withOutput calls write with the file named by the output flag, or with
// the standard output when the flag is empty.
func withOutput(write func(io.Writer) error) error {
	fileName := viper.GetString("output")
	if fileName == "" {
		return write(os.Stdout)
	}

	file, err := os.Create(fileName)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", fileName, err)
	}
	defer file.Close()

	if err := write(file); err != nil {
		return err
	}

	return file.Close()
}
