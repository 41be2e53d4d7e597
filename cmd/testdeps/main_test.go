package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gotest.tools/v3/assert"
)

const suiteDir = "../../internal/discovery/testdata/tests"

func execute(t *testing.T, args ...string) error {
	t.Helper()
	viper.Reset()

	cmd := newRootCmd()
	cmd.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), "missing.yaml")))

	return cmd.Execute()
}

func TestToLogLevel(t *testing.T) {
	var tests = []struct {
		level    string
		expected log.Level
	}{
		{"info", log.InfoLevel},
		{"DEBUG", log.DebugLevel},
		{"warn", log.WarnLevel},
		{"warning", log.WarnLevel},
		{"error", log.ErrorLevel},
	}

	for _, test := range tests {
		assert.Equal(t, toLogLevel(test.level), test.expected)
	}
}

func TestPlanCommand(t *testing.T) {
	output := filepath.Join(t.TempDir(), "plan.json")
	assert.NilError(t, execute(t, "plan", "--format", "json", "--output", output, suiteDir))

	content, err := os.ReadFile(output)
	assert.NilError(t, err)

	var planned []struct {
		ID           string   `json:"id"`
		Dependencies []string `json:"dependencies"`
	}
	assert.NilError(t, json.Unmarshal(content, &planned))
	assert.Equal(t, len(planned), 12)

	position := map[string]int{}
	for i, test := range planned {
		position[test.ID] = i
	}
	for _, test := range planned {
		for _, dependency := range test.Dependencies {
			assert.Check(t, position[dependency] < position[test.ID])
		}
	}
}

func TestPlanCommandUnresolved(t *testing.T) {
	err := execute(t, "plan", "--output", filepath.Join(t.TempDir(), "plan.txt"),
		filepath.Join(suiteDir, "test_module_a.py"))
	assert.ErrorContains(t, err, "unresolved dependency")

	err = execute(t, "plan", "--ignore-unknown", "--output", filepath.Join(t.TempDir(), "plan.txt"),
		filepath.Join(suiteDir, "test_module_a.py"))
	assert.NilError(t, err)
}

func TestSchedulesCommand(t *testing.T) {
	output := filepath.Join(t.TempDir(), "schedules.json")
	assert.NilError(t, execute(t, "schedules", "--output", output, suiteDir))

	content, err := os.ReadFile(output)
	assert.NilError(t, err)

	var schedules [][]string
	assert.NilError(t, json.Unmarshal(content, &schedules))
	assert.Check(t, len(schedules) > 0)
}

func TestLogFileError(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "missing", "testdeps.log")

	err := execute(t, "plan", "--log-file", logFile, "--output", filepath.Join(t.TempDir(), "plan.txt"), suiteDir)
	assert.ErrorContains(t, err, "failed to open log file")
}

func TestUnsupportedFormats(t *testing.T) {
	var tests = []struct {
		args     []string
		expected string
	}{
		{[]string{"plan", "--format", "yaml"}, `unsupported format "yaml"`},
		{[]string{"graph", "--format", "svg"}, `unsupported format "svg"`},
		{[]string{"run", "--report", "xml"}, `unsupported report format "xml"`},
	}

	for _, test := range tests {
		args := append(test.args, "--output", filepath.Join(t.TempDir(), "out"), suiteDir)
		assert.ErrorContains(t, execute(t, args...), test.expected)
	}
}
