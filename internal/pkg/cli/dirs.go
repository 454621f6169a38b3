package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iancoleman/strcase"
	"github.com/kittengrid/actions/internal/pkg/process"
	"github.com/mitchellh/go-homedir"
)

var ErrExecutableNotFound = errors.New("executable not found")

const (
	ExecutableSudo = "sudo"
	ExecutableEnv  = "env"
)

const (
	envAgentLogDir = "KITTENGRID_ACTION_LOG_DIR"
	envRunnerTemp  = "RUNNER_TEMP"

	defaultAgentLogDir = "~/.kittengrid/logs/agent/"
)

// ResolveAgentLogDir returns the directory receiving output of background agents.
func ResolveAgentLogDir() (string, error) {
	dir := os.Getenv(envAgentLogDir)
	if dir == "" {
		dir = defaultAgentLogDir
	}

	expanded, err := homedir.Expand(dir)
	if err != nil {
		return "", fmt.Errorf("expand agent log dir: %w", err)
	}

	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("resolve absolute agent log dir: %w", err)
	}

	return abs, nil
}

// ResolveDownloadRoot returns the parent directory for per-invocation download directories.
// The runner temp directory wins over the OS default so files are cleaned with the job.
func ResolveDownloadRoot() (string, error) {
	dir := os.Getenv(envRunnerTemp)
	if dir == "" {
		return os.TempDir(), nil
	}

	expanded, err := homedir.Expand(dir)
	if err != nil {
		return "", fmt.Errorf("expand download root: %w", err)
	}

	return filepath.Abs(expanded)
}

// ResolveExecutable locates executableName, honouring a KITTENGRID_<NAME>_PATH override.
func ResolveExecutable(ctx context.Context, executableName string) (string, error) {
	envVarName := "KITTENGRID_" + strcase.ToScreamingSnake(executableName) + "_PATH"

	if envPath, ok := os.LookupEnv(envVarName); ok {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("%w: executable from %s: %w", ErrExecutableNotFound, envVarName, err)
		}
		return envPath, nil
	}

	pathExecutable, err := process.LookupExecutable(ctx, []string{executableName})
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrExecutableNotFound, executableName)
	}

	return pathExecutable, nil
}
