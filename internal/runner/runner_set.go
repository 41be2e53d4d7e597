package runner

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// The default number of runners into a set of runners.
const DefaultSetSize = 1

var (
	ErrNoRunner           = errors.New("no runner to reserve")
	ErrWrongRunnerSetSize = errors.New("a runner set must have at least size 1")
)

type RunResult struct {
	Passed      bool
	RunningTime time.Duration
}

// RunnerSet represents a group of runners used to run the tests of a test
// suite. A runner is reset every time it finishes a test.
type RunnerSet struct {
	runners chan Runner
	reset   chan Runner
	size    atomic.Int32
	// Closed when the last runner is deleted.
	empty   chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewRunnerSet creates a new set of runner with the provided configuration.
// If there is an error in creating the set of runners, it is returned.
func NewRunnerSet[T Runner](size int, builder RunnerBuilder[T], options ...RunnerOption[T]) (*RunnerSet, error) {
	if size < 1 {
		return nil, ErrWrongRunnerSetSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	set := &RunnerSet{
		runners: make(chan Runner, size),
		reset:   make(chan Runner),
		empty:   make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}

	for i := 0; i < size; i++ {
		runnerName := fmt.Sprintf("runner-%d", i)

		runner, err := builder(runnerName, options...)
		if err != nil {
			if deleteErr := set.Delete(); deleteErr != nil {
				log.Errorf("failed to delete runner set: %v", deleteErr)
			}

			return nil, fmt.Errorf("failed to create runner %s: %w", runnerName, err)
		}

		set.size.Add(1)
		set.runners <- runner
	}

	for i := 0; i < size; i++ {
		go func() {
			for set.release() {
			}
		}()
	}

	log.Infof("successfully initialized %d runners", set.Size())

	return set, nil
}

// release resets one runner returned by RunTest and makes it available
// again. A runner that cannot be reset is deleted and the set shrinks.
func (r *RunnerSet) release() bool {
	select {
	case runner := <-r.reset:
		if err := runner.Reset(); err != nil {
			log.Errorf("failed to reset runner %s: %v", runner.Id(), err)

			if err = runner.Delete(); err != nil {
				log.Errorf("failed to delete runner %s: %v", runner.Id(), err)
			}

			if r.size.Add(-1) == 0 {
				close(r.empty)
			}
			return false
		}
		r.runners <- runner
		return true
	case <-r.ctx.Done():
		return false
	}
}

func (r *RunnerSet) Size() int {
	return int(r.size.Load())
}

// Delete releases all the resources needed by the set of runners.
// If there is an error in the process, it is returned.
func (r *RunnerSet) Delete() error {
	var waitgroup errgroup.Group

	r.cancel()

	for i := 0; i < r.Size(); i++ {
		runner := <-r.runners

		waitgroup.Go(func(runner Runner) func() error {
			return func() error {
				return runner.Delete()
			}
		}(runner))
	}

	if err := waitgroup.Wait(); err != nil {
		return fmt.Errorf("failed to delete set of runners: %w", err)
	}

	return nil
}

// RunTest runs a test on the first available runner. It blocks until a
// runner is available, the context is done or the last runner failed its
// reset, in which case ErrNoRunner is returned.
func (r *RunnerSet) RunTest(ctx context.Context, test string) (RunResult, error) {
	if r.Size() == 0 {
		return RunResult{}, ErrNoRunner
	}

	var runner Runner
	select {
	case runner = <-r.runners:
	case <-r.empty:
		return RunResult{}, ErrNoRunner
	case <-ctx.Done():
		return RunResult{}, ctx.Err()
	}

	start := time.Now()
	passed, err := runner.Run(ctx, test)
	duration := time.Since(start)
	log.Debugf("[runner=%s] run test %s -> %v in %v", runner.Id(), test, passed, duration)

	r.reset <- runner

	return RunResult{
		Passed:      passed,
		RunningTime: duration,
	}, err
}
