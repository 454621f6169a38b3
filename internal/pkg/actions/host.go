// Package actions adapts the GitHub Actions runner protocol to the launcher:
// variable export, secret masking, log groups and failure annotations.
package actions

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sethvargo/go-githubactions"
)

const (
	envFileVariable = "GITHUB_ENV"

	commandSetEnv = "set-env"
)

// ErrInvalidVariableName indicates an exported variable name is empty or contains '='.
var ErrInvalidVariableName = errors.New("invalid variable name")

// Host exposes the runner capabilities used by the actions.
type Host struct {
	action *githubactions.Action
	getenv func(string) string
	setenv func(string, string) error
}

// NewHost returns a Host writing workflow commands to out. getenv is consulted
// for the runner file command paths.
func NewHost(out io.Writer, getenv func(string) string) *Host {
	return &Host{
		action: githubactions.New(
			githubactions.WithWriter(out),
			githubactions.WithGetenv(getenv),
		),
		getenv: getenv,
		setenv: os.Setenv,
	}
}

// ExportVariable makes name=value visible to this process and to later steps of the job.
// Without a GITHUB_ENV file the deprecated set-env command is issued instead.
func (host *Host) ExportVariable(name, value string) error {
	if strings.TrimSpace(name) == "" || strings.Contains(name, "=") {
		return fmt.Errorf("%w: %q", ErrInvalidVariableName, name)
	}

	if err := host.setenv(name, value); err != nil {
		return fmt.Errorf("set %s: %w", name, err)
	}

	if host.getenv(envFileVariable) == "" {
		host.action.IssueCommand(&githubactions.Command{
			Name:       commandSetEnv,
			Message:    value,
			Properties: githubactions.CommandProperties{"name": name},
		})
		return nil
	}

	return host.writeEnvFile(name, value)
}

// writeEnvFile appends to the GITHUB_ENV file. The toolkit panics when the
// file cannot be written.
func (host *Host) writeEnvFile(name, value string) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("write %s for %s: %s", envFileVariable, name, FailureMessage(recovered))
		}
	}()

	host.action.SetEnv(name, value)

	return nil
}

// AddMask registers value as a secret so the runner redacts it from logs.
func (host *Host) AddMask(value string) {
	if value == "" {
		return
	}

	host.action.AddMask(value)
}

// Group runs fn inside a collapsible log group. The group is closed even when fn fails.
func (host *Host) Group(name string, fn func() error) error {
	host.action.Group(name)
	defer host.action.EndGroup()

	return fn()
}

// SetFailed reports message as the failure of the step.
// The caller is responsible for exiting with a non-zero status.
func (host *Host) SetFailed(message string) {
	host.action.Errorf("%s", message)
}
