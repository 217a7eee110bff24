package router

import (
	"errors"
	"fmt"
	"strings"
)

// CapabilityID names a class of backend service, e.g. "car" or "budget".
type CapabilityID string

// Unit tells the reply renderer how to present an operation's value.
type Unit int

const (
	UnitCount Unit = iota
	UnitCents
)

func (u Unit) String() string {
	if u == UnitCents {
		return "cents"
	}
	return "count"
}

var (
	ErrInvalidRegistration = errors.New("router: invalid registration")
	ErrDuplicateCommand    = errors.New("router: duplicate command")
)

// OperationSpec describes one operation published for a command.
type OperationSpec struct {
	Name        string
	Description string
	Unit        Unit
}

// Registration binds a command name to the capability that serves it.
type Registration struct {
	Command          string
	Capability       CapabilityID
	Label            string
	Emoji            string
	Description      string
	DefaultOperation string
	Operations       []OperationSpec
}

// Operation returns the published spec for name, if any.
func (r Registration) Operation(name string) (OperationSpec, bool) {
	for _, op := range r.Operations {
		if op.Name == name {
			return op, true
		}
	}
	return OperationSpec{}, false
}

// OperationNames lists the published operation names in registration order.
func (r Registration) OperationNames() []string {
	names := make([]string, 0, len(r.Operations))
	for _, op := range r.Operations {
		names = append(names, op.Name)
	}
	return names
}

// Registry is the command vocabulary. It is built once and never mutated,
// so concurrent lookups need no locking.
type Registry struct {
	entries map[string]Registration
	order   []string
}

// NewRegistry validates regs and freezes them into a Registry.
func NewRegistry(regs ...Registration) (*Registry, error) {
	r := &Registry{
		entries: make(map[string]Registration, len(regs)),
		order:   make([]string, 0, len(regs)),
	}

	for _, reg := range regs {
		if strings.TrimSpace(reg.Command) == "" {
			return nil, fmt.Errorf("%w: empty command name", ErrInvalidRegistration)
		}
		if strings.TrimSpace(string(reg.Capability)) == "" {
			return nil, fmt.Errorf("%w: command %q has no capability", ErrInvalidRegistration, reg.Command)
		}
		if _, exists := r.entries[reg.Command]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateCommand, reg.Command)
		}

		reg.Operations = append([]OperationSpec(nil), reg.Operations...)
		if reg.Label == "" {
			reg.Label = reg.Command
		}
		r.entries[reg.Command] = reg
		r.order = append(r.order, reg.Command)
	}

	return r, nil
}

// Lookup returns the registration for command. Names are case-sensitive.
func (r *Registry) Lookup(command string) (Registration, bool) {
	if r == nil {
		return Registration{}, false
	}
	reg, ok := r.entries[command]
	if !ok {
		return Registration{}, false
	}
	reg.Operations = append([]OperationSpec(nil), reg.Operations...)
	return reg, true
}

// Commands returns every registration in the order it was registered.
func (r *Registry) Commands() []Registration {
	if r == nil {
		return nil
	}
	out := make([]Registration, 0, len(r.order))
	for _, name := range r.order {
		reg, _ := r.Lookup(name)
		out = append(out, reg)
	}
	return out
}

// Len reports the number of registered commands.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}
