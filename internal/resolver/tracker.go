package resolver

import (
	"fmt"
	"sync"
)

// Status is the state of a test during a run.
type Status int

const (
	StatusPending Status = iota
	StatusPassed
	StatusFailed
	StatusSkipped
)

var statusNames = [...]string{
	StatusPending: "pending",
	StatusPassed:  "passed",
	StatusFailed:  "failed",
	StatusSkipped: "skipped",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("Status(%d)", int(s))
	}

	return statusNames[s]
}

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusPassed || s == StatusFailed || s == StatusSkipped
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	for status, name := range statusNames {
		if name == string(text) {
			*s = Status(status)
			return nil
		}
	}

	return fmt.Errorf("unknown test status %q", string(text))
}

// Decision tells the harness whether a test should run. When Run is false,
// Blockers lists the dependencies that did not pass.
type Decision struct {
	Run      bool
	Blockers []TestID
}

// Result is the outcome of a test in a run.
type Result struct {
	ID       TestID   `json:"id"`
	Status   Status   `json:"status"`
	Blockers []TestID `json:"blockers,omitempty"`
}

// Tracker follows the status of the tests of a plan during a run and
// decides which tests must be skipped because a dependency did not pass.
// It is safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	plan     *Plan
	statuses []Status
	blockers [][]TestID
}

// NewTracker returns a tracker where every test of the plan is pending.
func NewTracker(plan *Plan) *Tracker {
	return &Tracker{
		plan:     plan,
		statuses: make([]Status, plan.Len()),
		blockers: make([][]TestID, plan.Len()),
	}
}

func (t *Tracker) position(id TestID) (int, error) {
	if !t.plan.Contains(id) {
		return 0, fmt.Errorf("%w: %s", ErrUnknownTest, id)
	}

	return t.plan.index[id.String()], nil
}

// Status returns the current status of a test. Unknown tests are reported
// as pending.
func (t *Tracker) Status(id TestID) Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	i, err := t.position(id)
	if err != nil {
		return StatusPending
	}

	return t.statuses[i]
}

// Ready reports whether every dependency of the test reached a terminal
// status.
func (t *Tracker) Ready(id TestID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	i, err := t.position(id)
	if err != nil {
		return false
	}

	for _, dep := range t.plan.dependencies[i] {
		if !t.statuses[dep].Terminal() {
			return false
		}
	}

	return true
}

// Decide decides whether a pending test should run. If a dependency failed
// or was skipped, the test is marked as skipped and must not run.
func (t *Tracker) Decide(id TestID) (Decision, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i, err := t.position(id)
	if err != nil {
		return Decision{}, err
	}
	if t.statuses[i] != StatusPending {
		return Decision{}, fmt.Errorf("%w: %s is %s", ErrInvalidTransition, id, t.statuses[i])
	}

	blockers := []TestID{}
	for _, dep := range t.plan.dependencies[i] {
		switch t.statuses[dep] {
		case StatusPending:
			return Decision{}, fmt.Errorf("%w: %s requires %s", ErrDependencyPending, id, t.plan.order[dep])
		case StatusFailed, StatusSkipped:
			blockers = append(blockers, t.plan.order[dep])
		}
	}

	if len(blockers) > 0 {
		t.statuses[i] = StatusSkipped
		t.blockers[i] = blockers

		return Decision{Run: false, Blockers: blockers}, nil
	}

	return Decision{Run: true}, nil
}

// Report records the outcome of a test. Only pending tests can change
// status.
func (t *Tracker) Report(id TestID, status Status) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	i, err := t.position(id)
	if err != nil {
		return err
	}
	if !status.Terminal() || t.statuses[i] != StatusPending {
		return fmt.Errorf("%w: %s from %s to %s", ErrInvalidTransition, id, t.statuses[i], status)
	}

	t.statuses[i] = status

	return nil
}

// Results returns the status of every test in plan order.
func (t *Tracker) Results() []Result {
	t.mu.Lock()
	defer t.mu.Unlock()

	results := make([]Result, len(t.statuses))
	for i, status := range t.statuses {
		results[i] = Result{
			ID:       t.plan.order[i],
			Status:   status,
			Blockers: t.blockers[i],
		}
	}

	return results
}
