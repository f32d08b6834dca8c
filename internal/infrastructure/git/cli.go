package git

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"

	rperrors "github.com/relicta-tech/grm/internal/errors"
)

// Runner runs the git executable in dir and returns its standard output.
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) (string, error)
}

// CommandError reports a failed git invocation. Output holds the combined,
// redacted stderr and stdout of the command.
type CommandError struct {
	Args   []string
	Output string
	Err    error
}

func (e *CommandError) Error() string {
	name := "git"
	if len(e.Args) > 0 {
		name += " " + e.Args[0]
	}
	if e.Output != "" {
		return name + ": " + e.Output
	}
	return name + ": " + e.Err.Error()
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...) // #nosec G204 -- fixed subcommands, arguments are branch and remote names
	cmd.Dir = dir
	// Never block on an interactive credential prompt.
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		output := strings.TrimSpace(strings.TrimSpace(stderr.String()) + "\n" + strings.TrimSpace(stdout.String()))
		return stdout.String(), &CommandError{
			Args:   args,
			Output: rperrors.RedactSensitive(output),
			Err:    err,
		}
	}
	return stdout.String(), nil
}

// isConflict reports whether a failed merge stopped on conflicts.
func isConflict(err error) bool {
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		return false
	}
	return strings.Contains(cmdErr.Output, "CONFLICT") ||
		strings.Contains(cmdErr.Output, "Automatic merge failed")
}
