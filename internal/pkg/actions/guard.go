package actions

import (
	"errors"
	"fmt"
)

// ErrPanic marks a failure recovered from a panic.
var ErrPanic = errors.New("panic")

// Guard runs fn and converts a panic into an error carrying the stringified value.
func Guard(fn func() error) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("%w: %s", ErrPanic, FailureMessage(recovered))
		}
	}()

	return fn()
}

// FailureMessage extracts the message reported to the runner for v.
func FailureMessage(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case error:
		return value.Error()
	case string:
		return value
	default:
		return fmt.Sprint(value)
	}
}
