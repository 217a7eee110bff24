package router

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Operation is one named action a capability exposes.
type Operation func(ctx context.Context) (int64, error)

// Capability is a live backend service instance. Operation reports whether
// the named operation exists on this instance.
type Capability interface {
	Operation(name string) (Operation, bool)
}

// Scope is an invocation-lifetime container of capability instances.
type Scope interface {
	Resolve(ctx context.Context, id CapabilityID) (Capability, error)
	Close() error
}

// Provider hands out fresh scopes, one per invocation.
type Provider interface {
	CreateScope(ctx context.Context) (Scope, error)
}

// ResolutionError reports that a capability could not be constructed.
type ResolutionError struct {
	Capability CapabilityID
	Err        error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("router: resolve %s: %v", e.Capability, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// Handle is a resolved capability bound to its scope. Release must be
// called exactly once when the invocation ends.
type Handle struct {
	ID         CapabilityID
	Capability Capability

	scope Scope
	once  sync.Once
	err   error
}

// Release disposes the scope that owns the capability.
func (h *Handle) Release() error {
	if h == nil || h.scope == nil {
		return nil
	}
	h.once.Do(func() {
		h.err = h.scope.Close()
	})
	return h.err
}

// Resolver turns capability ids into live handles through a Provider.
type Resolver struct {
	provider Provider
}

func NewResolver(provider Provider) *Resolver {
	return &Resolver{provider: provider}
}

// Resolve opens a new scope and resolves id inside it. Any failure, panics
// included, comes back as a *ResolutionError and leaves no scope open.
func (r *Resolver) Resolve(ctx context.Context, id CapabilityID) (handle *Handle, err error) {
	if r == nil || r.provider == nil {
		return nil, &ResolutionError{Capability: id, Err: errors.New("no capability provider configured")}
	}
	if err := ctx.Err(); err != nil {
		return nil, &ResolutionError{Capability: id, Err: err}
	}

	var scope Scope
	defer func() {
		if rec := recover(); rec != nil {
			err = &ResolutionError{Capability: id, Err: fmt.Errorf("panic: %v", rec)}
			handle = nil
		}
		if err != nil && scope != nil {
			_ = scope.Close()
		}
	}()

	scope, err = r.provider.CreateScope(ctx)
	if err != nil {
		return nil, &ResolutionError{Capability: id, Err: err}
	}
	if scope == nil {
		return nil, &ResolutionError{Capability: id, Err: errors.New("provider returned nil scope")}
	}

	capability, err := scope.Resolve(ctx, id)
	if err != nil {
		return nil, &ResolutionError{Capability: id, Err: err}
	}
	if capability == nil {
		return nil, &ResolutionError{Capability: id, Err: errors.New("scope returned nil capability")}
	}

	return &Handle{ID: id, Capability: capability, scope: scope}, nil
}
