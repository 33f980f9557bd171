package engine

import (
	"errors"
	"fmt"
)

// ExecutionError reports that a user-supplied policy or state update
// function failed, either by returning an error or by panicking. Message
// is the original failure text, verbatim; the engine adds no prose.
type ExecutionError struct {
	Message string
}

func (e *ExecutionError) Error() string { return e.Message }

// ContractError reports that a user-supplied function completed but
// returned a value violating its required shape, or that the simulation
// itself is structurally invalid. Message names the violated contract.
type ContractError struct {
	Message string
}

func (e *ContractError) Error() string { return e.Message }

func contractErrorf(format string, args ...any) *ContractError {
	return &ContractError{Message: fmt.Sprintf(format, args...)}
}

// classify converts an arbitrary user-function failure into one of the two
// engine error kinds. Already-classified errors pass through unchanged so
// nested invocations never double-wrap.
func classify(err error) error {
	var ee *ExecutionError
	if errors.As(err, &ee) {
		return err
	}
	var ce *ContractError
	if errors.As(err, &ce) {
		return err
	}
	return &ExecutionError{Message: err.Error()}
}

// invoke calls a user-supplied function, converting returned errors and
// recovered panics into classified errors.
func invoke(fn func() (any, error)) (res any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ExecutionError{Message: panicMessage(r)}
		}
	}()
	res, err = fn()
	if err != nil {
		err = classify(err)
	}
	return res, err
}

func panicMessage(r any) string {
	switch v := r.(type) {
	case error:
		return v.Error()
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
