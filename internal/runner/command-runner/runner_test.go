package command_runner_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/pako-23/testdeps/internal/runner"
	command_runner "github.com/pako-23/testdeps/internal/runner/command-runner"
	"gotest.tools/v3/assert"
)

func requireShell(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh is not available")
	}
}

func TestCommand(t *testing.T) {
	t.Parallel()

	var tests = []struct {
		command  string
		test     string
		expected []string
	}{
		{"pytest {}", "m.py::test_a", []string{"pytest", "m.py::test_a"}},
		{"pytest -q", "m.py::test_a", []string{"pytest", "-q", "m.py::test_a"}},
		{"go test -run '^{}$' ./...", "TestA", []string{"go", "test", "-run", "^TestA$", "./..."}},
		{`sh -c "echo {} && echo {}"`, "x", []string{"sh", "-c", "echo x && echo x"}},
	}

	for _, test := range tests {
		r, err := command_runner.CommandRunnerBuilder("runner-0", command_runner.WithCommand(test.command))

		assert.NilError(t, err)
		assert.DeepEqual(t, r.Command(test.test), test.expected)
	}
}

func TestBuilderErrors(t *testing.T) {
	t.Parallel()

	_, err := command_runner.CommandRunnerBuilder("runner-0", command_runner.WithCommand("   "))
	assert.ErrorIs(t, err, command_runner.ErrEmptyCommand)

	_, err = command_runner.CommandRunnerBuilder("runner-0", command_runner.WithCommand(`pytest "{}`))
	assert.ErrorContains(t, err, "failed to parse command")

	_, err = command_runner.CommandRunnerBuilder("runner-0", command_runner.WithEnv([]string{"NOVALUE"}))
	assert.ErrorContains(t, err, "invalid environment variable")
}

func TestRun(t *testing.T) {
	t.Parallel()
	requireShell(t)

	r, err := command_runner.CommandRunnerBuilder("runner-0",
		command_runner.WithCommand(`sh -c 'test "$0" = PASS' {}`))
	assert.NilError(t, err)

	passed, err := r.Run(context.Background(), "PASS")
	assert.NilError(t, err)
	assert.Check(t, passed)

	passed, err = r.Run(context.Background(), "FAIL")
	assert.NilError(t, err)
	assert.Check(t, !passed)
}

func TestRunEnvironmentAndDir(t *testing.T) {
	t.Parallel()
	requireShell(t)

	dir := t.TempDir()
	assert.NilError(t, os.WriteFile(filepath.Join(dir, "marker"), nil, 0o644))

	r, err := command_runner.CommandRunnerBuilder("runner-3",
		command_runner.WithCommand(`sh -c 'test -f marker && test "$TESTDEPS_RUNNER" = runner-3 && test "$TESTDEPS_TEST" = "$0" && test "$EXTRA" = value' {}`),
		command_runner.WithDir(dir),
		command_runner.WithEnv([]string{"EXTRA=value"}))
	assert.NilError(t, err)

	passed, err := r.Run(context.Background(), "m.py::test_a")
	assert.NilError(t, err)
	assert.Check(t, passed)
}

func TestRunMissingCommand(t *testing.T) {
	t.Parallel()

	r, err := command_runner.CommandRunnerBuilder("runner-0",
		command_runner.WithCommand("testdeps-command-that-does-not-exist {}"))
	assert.NilError(t, err)

	_, err = r.Run(context.Background(), "m.py::test_a")
	assert.ErrorContains(t, err, "failed to run test m.py::test_a on runner runner-0")
}

func TestRunnerSet(t *testing.T) {
	t.Parallel()
	requireShell(t)

	set, err := runner.NewRunnerSet(2, command_runner.CommandRunnerBuilder,
		command_runner.WithCommand(`sh -c 'test "$0" = PASS' {}`))
	assert.NilError(t, err)
	defer func() {
		assert.NilError(t, set.Delete())
	}()

	result, err := set.RunTest(context.Background(), "PASS")
	assert.NilError(t, err)
	assert.Check(t, result.Passed)
}

func TestRunEnvironmentFile(t *testing.T) {
	t.Parallel()
	requireShell(t)

	envFile := filepath.Join(t.TempDir(), ".env")
	assert.NilError(t, os.WriteFile(envFile, []byte("# suite settings\nBASE_URL=http://localhost:8080\nMODE=file\n"), 0o644))

	r, err := command_runner.CommandRunnerBuilder("runner-0",
		command_runner.WithCommand(`sh -c 'test "$BASE_URL" = http://localhost:8080 && test "$MODE" = flag'`),
		command_runner.WithEnvFile(envFile),
		command_runner.WithEnv([]string{"MODE=flag"}))
	assert.NilError(t, err)

	passed, err := r.Run(context.Background(), "m.py::test_a")
	assert.NilError(t, err)
	assert.Check(t, passed)

	_, err = command_runner.CommandRunnerBuilder("runner-0",
		command_runner.WithEnvFile(filepath.Join(t.TempDir(), "missing.env")))
	assert.ErrorContains(t, err, "failed to read environment file")
}
