package report_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/pako-23/testdeps/internal/execution"
	"github.com/pako-23/testdeps/internal/report"
	"github.com/pako-23/testdeps/internal/resolver"
	"gotest.tools/v3/assert"
)

func id(t *testing.T, s string) resolver.TestID {
	t.Helper()

	testID, err := resolver.ParseTestID(s)
	assert.NilError(t, err)

	return testID
}

func plan(t *testing.T) *resolver.Plan {
	p, err := resolver.Resolve([]resolver.Declaration{
		{ID: id(t, "m.py::test_b"), Scope: resolver.ScopeModule, Depends: []string{"test_a"}},
		{ID: id(t, "m.py::test_a")},
	})
	assert.NilError(t, err)

	return p
}

func runReport(t *testing.T) *execution.Report {
	return &execution.Report{
		Results: []execution.TestResult{
			{Result: resolver.Result{ID: id(t, "m.py::test_a"), Status: resolver.StatusPassed}, Duration: 1500 * time.Microsecond},
			{Result: resolver.Result{ID: id(t, "m.py::test_b"), Status: resolver.StatusFailed}, Duration: 2 * time.Second},
			{Result: resolver.Result{
				ID:       id(t, "m.py::test_c"),
				Status:   resolver.StatusSkipped,
				Blockers: []resolver.TestID{id(t, "m.py::test_b")},
			}},
		},
		Passed:   1,
		Failed:   1,
		Skipped:  1,
		Duration: 3 * time.Second,
	}
}

func TestWritePlan(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	assert.NilError(t, report.WritePlan(&out, plan(t)))
	assert.Equal(t, out.String(), "  1  m.py::test_a\n  2  m.py::test_b  <- m.py::test_a\n")
}

func TestWritePlanJSON(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	assert.NilError(t, report.WritePlanJSON(&out, plan(t)))

	var decoded []map[string]any
	assert.NilError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.DeepEqual(t, decoded, []map[string]any{
		{"id": "m.py::test_a", "dependencies": []any{}},
		{"id": "m.py::test_b", "dependencies": []any{"m.py::test_a"}},
	})
}

func TestWriteText(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	assert.NilError(t, report.WriteText(&out, runReport(t)))
	assert.Equal(t, out.String(), `PASSED  m.py::test_a (2ms)
FAILED  m.py::test_b (2s)
SKIPPED m.py::test_c: depends on m.py::test_b
1 passed, 1 failed, 1 skipped in 3s
`)
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	assert.NilError(t, report.WriteJSON(&out, runReport(t)))

	var decoded struct {
		Results []struct {
			ID       string   `json:"id"`
			Status   string   `json:"status"`
			Blockers []string `json:"blockers"`
		} `json:"results"`
		Passed  int `json:"passed"`
		Failed  int `json:"failed"`
		Skipped int `json:"skipped"`
	}
	assert.NilError(t, json.Unmarshal(out.Bytes(), &decoded))

	assert.Equal(t, len(decoded.Results), 3)
	assert.Equal(t, decoded.Results[1].Status, "failed")
	assert.DeepEqual(t, decoded.Results[2].Blockers, []string{"m.py::test_b"})
	assert.Equal(t, decoded.Passed+decoded.Failed+decoded.Skipped, 3)
}

// Not parallel: it forces colored output through the package-level switch.
func TestWriteFileWithoutColor(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = false
	defer func() {
		color.NoColor = noColor
	}()

	file, err := os.Create(filepath.Join(t.TempDir(), "plan.txt"))
	assert.NilError(t, err)
	defer file.Close()

	assert.NilError(t, report.WritePlan(file, plan(t)))
	assert.NilError(t, report.WriteText(file, runReport(t)))

	content, err := os.ReadFile(file.Name())
	assert.NilError(t, err)
	assert.Check(t, !strings.Contains(string(content), "\x1b["), "escape codes written to a file")
	assert.Check(t, strings.HasPrefix(string(content), "  1  m.py::test_a\n"))
}
