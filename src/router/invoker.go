package router

import (
	"context"
	"errors"
	"fmt"
)

// Invoker runs a named operation against a resolved capability.
type Invoker struct{}

// Invoke checks at call time whether handle supports operation and runs it.
// It never panics and never returns an error: every result is an Outcome.
func (Invoker) Invoke(ctx context.Context, handle *Handle, command, operation string) (out Outcome) {
	if handle == nil || handle.Capability == nil {
		return InvocationFailure(command, operation, errors.New("router: nil capability handle"))
	}
	if operation == "" {
		return UnsupportedOperation(command, operation)
	}

	op, ok := handle.Capability.Operation(operation)
	if !ok || op == nil {
		return UnsupportedOperation(command, operation)
	}

	defer func() {
		if rec := recover(); rec != nil {
			out = InvocationFailure(command, operation, fmt.Errorf("router: %s %s panicked: %v", command, operation, rec))
		}
	}()

	value, err := op(ctx)
	if err != nil {
		return InvocationFailure(command, operation, err)
	}
	return Success(command, operation, value)
}
