package execution

import (
	"context"
	"fmt"
	"time"

	"github.com/pako-23/testdeps/internal/resolver"
	"github.com/pako-23/testdeps/internal/runner"
	log "github.com/sirupsen/logrus"
)

// TestResult is the outcome of a test in a run.
type TestResult struct {
	resolver.Result
	Duration time.Duration `json:"duration"`
}

// Report collects the results of a run in plan order.
type Report struct {
	Results  []TestResult  `json:"results"`
	Passed   int           `json:"passed"`
	Failed   int           `json:"failed"`
	Skipped  int           `json:"skipped"`
	Duration time.Duration `json:"duration"`
}

// Success reports whether no test failed.
func (r *Report) Success() bool {
	return r.Failed == 0
}

// Option configures an execution.
type Option func(*options)

type options struct {
	observers []func(TestResult)
}

// WithObserver registers a function called, from the executing goroutine,
// each time a test passes, fails or is skipped.
func WithObserver(observer func(TestResult)) Option {
	return func(o *options) {
		o.observers = append(o.observers, observer)
	}
}

func (o *options) notify(result TestResult) {
	for _, observer := range o.observers {
		observer(result)
	}
}

type completion struct {
	index  int
	result runner.RunResult
	err    error
}

// Execute runs the tests of a plan on a set of runners. A test is started
// only after all its dependencies completed; tests with a dependency that
// failed or was skipped are skipped without running. Independent tests run
// concurrently, up to the size of the runner set.
//
// If a runner fails or the context is done, no further test is started and
// the error is returned once the running tests completed.
func Execute(ctx context.Context, plan *resolver.Plan, runners *runner.RunnerSet, opts ...Option) (*Report, error) {
	var config options
	for _, opt := range opts {
		opt(&config)
	}

	var (
		tracker   = resolver.NewTracker(plan)
		tests     = plan.Tests()
		durations = make([]time.Duration, len(tests))
		started   = make([]bool, len(tests))
		done      = make(chan completion)
		inFlight  = 0
		remaining = len(tests)
		failure   error
		start     = time.Now()
	)

	for remaining > 0 {
		if failure == nil {
			failure = ctx.Err()
		}

		if failure == nil {
			for i, test := range tests {
				if started[i] || inFlight >= runners.Size() || !tracker.Ready(test) {
					continue
				}
				started[i] = true

				decision, err := tracker.Decide(test)
				if err != nil {
					failure = err
					break
				}

				if !decision.Run {
					log.Infof("skipping %s: dependencies %v did not pass", test, decision.Blockers)
					remaining--
					config.notify(TestResult{Result: resolver.Result{
						ID:       test,
						Status:   resolver.StatusSkipped,
						Blockers: decision.Blockers,
					}})
					continue
				}

				inFlight++
				go func(index int, test resolver.TestID) {
					result, err := runners.RunTest(ctx, test.String())
					done <- completion{index: index, result: result, err: err}
				}(i, test)
			}
		}

		if inFlight == 0 {
			// With nothing running, the first unstarted test is always
			// ready, so only an empty runner set can leave tests behind.
			if failure == nil && remaining > 0 {
				failure = runner.ErrNoRunner
			}
			break
		}

		c := <-done
		inFlight--
		remaining--
		durations[c.index] = c.result.RunningTime

		if c.err != nil {
			if failure == nil {
				failure = fmt.Errorf("failed to run %s: %w", tests[c.index], c.err)
			}
			continue
		}

		status := resolver.StatusFailed
		if c.result.Passed {
			status = resolver.StatusPassed
		}
		log.Infof("%s %s in %v", tests[c.index], status, c.result.RunningTime)

		if err := tracker.Report(tests[c.index], status); err != nil {
			if failure == nil {
				failure = err
			}
			continue
		}
		config.notify(TestResult{
			Result:   resolver.Result{ID: tests[c.index], Status: status},
			Duration: c.result.RunningTime,
		})
	}

	if failure != nil {
		return nil, failure
	}

	report := &Report{Duration: time.Since(start)}
	for i, result := range tracker.Results() {
		report.Results = append(report.Results, TestResult{Result: result, Duration: durations[i]})

		switch result.Status {
		case resolver.StatusPassed:
			report.Passed++
		case resolver.StatusFailed:
			report.Failed++
		case resolver.StatusSkipped:
			report.Skipped++
		}
	}

	return report, nil
}
