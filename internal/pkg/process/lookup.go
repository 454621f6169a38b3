package process

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/cli/safeexec"
)

// LookupExecutable returns the first candidate found on PATH.
// Returns an error wrapping exec.ErrNotFound when no candidate resolves.
func LookupExecutable(ctx context.Context, candidates []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	for _, candidate := range candidates {
		path, err := safeexec.LookPath(candidate)
		if err == nil {
			return path, nil
		}

		if !errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("lookup %s: %w", candidate, err)
		}
	}

	return "", fmt.Errorf("lookup %v: %w", candidates, exec.ErrNotFound)
}
