package agent

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidDryRunValue indicates the dry-run input is not "true", "false" or empty.
	ErrInvalidDryRunValue = errors.New("invalid value for dry-run input")

	// ErrInvalidBooleanInput indicates a boolean action input is not "true", "false" or empty.
	ErrInvalidBooleanInput = errors.New("invalid boolean input")
)

// ValidateDryRunInput parses the dry-run input case-insensitively.
// "true" enables dry-run; "false" and "" disable it.
func ValidateDryRunInput(value string) (bool, error) {
	dryRun, err := ParseBooleanInput(value, false)
	if err != nil {
		return false, fmt.Errorf("%w: %s, it must be either 'true' or 'false'", ErrInvalidDryRunValue, value)
	}

	return dryRun, nil
}

// ParseBooleanInput parses a "true"/"false" action input case-insensitively,
// returning fallback for an empty value.
func ParseBooleanInput(value string, fallback bool) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "":
		return fallback, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrInvalidBooleanInput, value)
	}
}
