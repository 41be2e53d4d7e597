package runner

import "context"

// Runner represents an environment where the tests of a test suite can be
// run one at a time.
type Runner interface {
	// Id returns the name of the runner.
	Id() string
	// Reset brings the runner back to a clean state after a test.
	Reset() error
	// Delete releases the resources held by the runner.
	Delete() error
	// Run runs a single test and reports whether it passed. An error means
	// that the runner could not run the test at all.
	Run(ctx context.Context, test string) (bool, error)
}

type RunnerOption[T Runner] func(runner T) error
type RunnerBuilder[T Runner] func(name string, options ...RunnerOption[T]) (T, error)
