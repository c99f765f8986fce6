// Package tools holds the repository maintenance commands: python linting and the
// documentation build.
package tools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	logger "github.com/sirupsen/logrus"
)

const (
	lintSucceeded = "pycodestyle succeeded"
	lintBanner    = `
**************************************************
pycodestyle reported errors - please fix them above
**************************************************`
)

var ErrLintFailed = errors.New("pycodestyle failed")

// DefaultLintCommand checks the python sources below the working directory.
var DefaultLintCommand = []string{"pycodestyle", "."}

// Lint runs command with dir as working directory and reports the result to out.
// The working directory of the process is left unchanged.
func Lint(ctx context.Context, dir string, out io.Writer, command ...string) error {
	if len(command) == 0 {
		command = DefaultLintCommand
	}
	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Dir = dir
	cmd.Stdout = out
	cmd.Stderr = out
	logger.WithField("func", "Lint").Debugf("running %v in %s", command, dir)
	if err := cmd.Run(); err != nil {
		fmt.Fprintln(out, lintBanner)
		return fmt.Errorf("%w: %v", ErrLintFailed, err)
	}
	fmt.Fprintln(out, lintSucceeded)
	return nil
}
