// Copyright 2023 The GTDD Authors. All rights reserved.
// Use of this source code is governed by a GPL-style
// license that can be found in the LICENSE file.

// Renders resolution plans and execution reports.

package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/pako-23/testdeps/internal/execution"
	"github.com/pako-23/testdeps/internal/resolver"
)

// PlannedTest is a test of a plan together with its resolved dependencies.
type PlannedTest struct {
	ID           resolver.TestID   `json:"id"`
	Dependencies []resolver.TestID `json:"dependencies"`
}

// Planned lists the tests of a plan in execution order.
func Planned(plan *resolver.Plan) []PlannedTest {
	tests := make([]PlannedTest, 0, plan.Len())
	for _, id := range plan.Tests() {
		tests = append(tests, PlannedTest{ID: id, Dependencies: plan.Dependencies(id)})
	}

	return tests
}

// WritePlan writes the execution order of a plan, one test per line, with
// the dependencies of each test.
func WritePlan(w io.Writer, plan *resolver.Plan) error {
	for i, test := range Planned(plan) {
		line := fmt.Sprintf("%3d  %s", i+1, paint(w, color.FgCyan).Sprint(test.ID))
		if len(test.Dependencies) > 0 {
			line += paint(w, color.Faint).Sprintf("  <- %s", joinIDs(test.Dependencies))
		}

		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	return nil
}

// WritePlanJSON writes the execution order of a plan as JSON.
func WritePlanJSON(w io.Writer, plan *resolver.Plan) error {
	return writeJSON(w, Planned(plan))
}

// WriteText writes a human readable summary of a run.
func WriteText(w io.Writer, report *execution.Report) error {
	for _, result := range report.Results {
		var line string

		switch result.Status {
		case resolver.StatusPassed:
			line = fmt.Sprintf("%s %s (%s)", paint(w, color.FgGreen).Sprint("PASSED "), result.ID, round(result.Duration))
		case resolver.StatusFailed:
			line = fmt.Sprintf("%s %s (%s)", paint(w, color.FgRed).Sprint("FAILED "), result.ID, round(result.Duration))
		case resolver.StatusSkipped:
			line = fmt.Sprintf("%s %s: depends on %s", paint(w, color.FgYellow).Sprint("SKIPPED"), result.ID, joinIDs(result.Blockers))
		default:
			line = fmt.Sprintf("%s %s", result.Status, result.ID)
		}

		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	summary := fmt.Sprintf("%d passed, %d failed, %d skipped in %s",
		report.Passed, report.Failed, report.Skipped, round(report.Duration))
	if report.Success() {
		summary = paint(w, color.FgGreen).Sprint(summary)
	} else {
		summary = paint(w, color.FgRed).Sprint(summary)
	}

	_, err := fmt.Fprintln(w, summary)
	return err
}

// WriteJSON writes a run report as JSON.
func WriteJSON(w io.Writer, report *execution.Report) error {
	return writeJSON(w, report)
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	return nil
}

// paint returns a color for text written to w. Only the standard output
// is colored, and only when color.NoColor allows it.
func paint(w io.Writer, attributes ...color.Attribute) *color.Color {
	c := color.New(attributes...)
	if file, ok := w.(*os.File); !ok || file != os.Stdout {
		c.DisableColor()
	}

	return c
}

func joinIDs(ids []resolver.TestID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}

	return strings.Join(parts, ", ")
}

func round(d time.Duration) time.Duration {
	return d.Round(time.Millisecond)
}
