package command_runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mattn/go-shellwords"
	"github.com/pako-23/testdeps/internal/runner"
	log "github.com/sirupsen/logrus"
)

// Placeholder is replaced by the test identifier in a command template.
const Placeholder = "{}"

// DefaultCommand is the command template used when none is configured.
const DefaultCommand = "pytest " + Placeholder

var ErrEmptyCommand = errors.New("the test command is empty")

// CommandRunner runs each test as a separate process built from a command
// template.
type CommandRunner struct {
	// A name associated with the runner.
	name string
	// The command template, already split into arguments.
	args []string
	// The working directory of the command.
	dir string
	// The environment variables passed to the command on top of the ones
	// of the current process.
	env []string
}

var _ runner.Runner = (*CommandRunner)(nil)

// CommandRunnerBuilder creates a CommandRunner from the given options.
func CommandRunnerBuilder(name string, options ...runner.RunnerOption[*CommandRunner]) (*CommandRunner, error) {
	r := &CommandRunner{name: name}

	if err := WithCommand(DefaultCommand)(r); err != nil {
		return nil, err
	}

	for _, option := range options {
		if err := option(r); err != nil {
			return nil, err
		}
	}
	log.Debugf("[runner=%s] successfully initialized with command %v", name, r.args)

	return r, nil
}

// WithCommand sets the command template. The template is split with shell
// quoting rules; every argument equal to or containing the placeholder gets
// the test identifier, and the identifier is appended when no argument
// holds the placeholder.
func WithCommand(command string) runner.RunnerOption[*CommandRunner] {
	return func(r *CommandRunner) error {
		args, err := shellwords.Parse(command)
		if err != nil {
			return fmt.Errorf("failed to parse command %q: %w", command, err)
		}
		if len(args) == 0 {
			return ErrEmptyCommand
		}
		r.args = args

		return nil
	}
}

// WithDir sets the working directory of the command.
func WithDir(dir string) runner.RunnerOption[*CommandRunner] {
	return func(r *CommandRunner) error {
		r.dir = dir
		return nil
	}
}

// WithEnv adds environment variables in the KEY=VALUE form.
func WithEnv(env []string) runner.RunnerOption[*CommandRunner] {
	return func(r *CommandRunner) error {
		for _, variable := range env {
			if !strings.Contains(variable, "=") {
				return fmt.Errorf("invalid environment variable %q", variable)
			}
		}
		r.env = append(r.env, env...)

		return nil
	}
}

// WithEnvFile adds the environment variables defined in a dotenv file.
// Variables given with WithEnv afterwards take precedence.
func WithEnvFile(path string) runner.RunnerOption[*CommandRunner] {
	return func(r *CommandRunner) error {
		variables, err := godotenv.Read(path)
		if err != nil {
			return fmt.Errorf("failed to read environment file %s: %w", path, err)
		}

		keys := make([]string, 0, len(variables))
		for key := range variables {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			r.env = append(r.env, key+"="+variables[key])
		}

		return nil
	}
}

func (r *CommandRunner) Id() string {
	return r.name
}

// Command returns the arguments used to run the given test.
func (r *CommandRunner) Command(test string) []string {
	args := make([]string, 0, len(r.args)+1)
	replaced := false

	for _, arg := range r.args {
		if strings.Contains(arg, Placeholder) {
			arg = strings.ReplaceAll(arg, Placeholder, test)
			replaced = true
		}
		args = append(args, arg)
	}

	if !replaced {
		args = append(args, test)
	}

	return args
}

// Run runs the command for the test. A zero exit status means the test
// passed, any other exit status means it failed.
func (r *CommandRunner) Run(ctx context.Context, test string) (bool, error) {
	args := r.Command(test)

	var output bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = r.dir
	cmd.Env = append(os.Environ(), r.env...)
	cmd.Env = append(cmd.Env, "TESTDEPS_RUNNER="+r.name, "TESTDEPS_TEST="+test)
	cmd.Stdout = &output
	cmd.Stderr = &output

	err := cmd.Run()
	log.Debugf("[runner=%s] %v output: %s", r.name, args, output.String())

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return true, nil
	case errors.As(err, &exitErr) && ctx.Err() == nil:
		log.Debugf("[runner=%s] test %s exited with status %d", r.name, test, exitErr.ExitCode())
		return false, nil
	case ctx.Err() != nil:
		return false, ctx.Err()
	default:
		return false, fmt.Errorf("failed to run test %s on runner %s: %w", test, r.name, err)
	}
}

// Reset is a no-op: every test runs in a fresh process.
func (r *CommandRunner) Reset() error {
	return nil
}

func (r *CommandRunner) Delete() error {
	log.Debugf("[runner=%s] deleted", r.name)
	return nil
}
