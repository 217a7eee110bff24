package router

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event is one inbound command, together with the two callbacks the
// gateway offers for answering it. Operation is empty when the user gave
// no sub-operation.
type Event struct {
	ID        string
	Source    string
	User      string
	Command   string
	Operation string

	// Acknowledge tells the gateway the command was received. It is called
	// once, before any backend work starts.
	Acknowledge func(ctx context.Context) error
	// FollowUp delivers the final reply. It is called exactly once.
	FollowUp func(ctx context.Context, content string) error
}

// State is a step of a single invocation.
type State string

const (
	StateReceived         State = "received"
	StateResolving        State = "resolving"
	StateResolved         State = "resolved"
	StateResolutionFailed State = "resolution_failed"
	StateInvoking         State = "invoking"
	StateCompleted        State = "completed"
)

// Options configures a Dispatcher.
type Options struct {
	Registry *Registry
	Provider Provider
	Sink     Sink
	Logger   *zap.Logger
	Now      func() time.Time
}

// Dispatcher drives an Event through lookup, resolution and invocation and
// answers it. It holds no per-invocation state and is safe for concurrent
// use.
type Dispatcher struct {
	registry *Registry
	resolver *Resolver
	invoker  Invoker
	sink     Sink
	logger   *zap.Logger
	now      func() time.Time
}

func NewDispatcher(opts Options) (*Dispatcher, error) {
	if opts.Registry == nil {
		return nil, errors.New("router: registry is required")
	}
	if opts.Provider == nil {
		return nil, errors.New("router: provider is required")
	}
	if opts.Sink == nil {
		opts.Sink = discardSink{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Dispatcher{
		registry: opts.Registry,
		resolver: NewResolver(opts.Provider),
		sink:     opts.Sink,
		logger:   opts.Logger.Named("router"),
		now:      opts.Now,
	}, nil
}

// Registry exposes the command vocabulary the dispatcher serves.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// Dispatch handles ev to completion and returns the outcome it replied with.
// It blocks on the backend, so gateways call it from their own goroutine.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) Outcome {
	started := d.now()
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	log := d.logger.With(
		zap.String("invocation_id", ev.ID),
		zap.String("source", ev.Source),
		zap.String("command", ev.Command),
		zap.String("operation", ev.Operation),
	)
	log.Debug("router: state", zap.String("state", string(StateReceived)))

	d.acknowledge(ctx, log, ev)

	reg, found := d.registry.Lookup(ev.Command)
	outcome := d.run(ctx, log, ev, reg, found)

	reply := RenderReply(reg, outcome)
	d.followUp(ctx, log, ev, reply)
	log.Debug("router: state", zap.String("state", string(StateCompleted)), zap.Stringer("outcome", outcome.Kind))

	d.record(ctx, log, Record{
		InvocationID: ev.ID,
		Source:       ev.Source,
		User:         ev.User,
		Command:      ev.Command,
		Operation:    outcome.Operation,
		Outcome:      outcome,
		Duration:     d.now().Sub(started),
	})
	return outcome
}

func (d *Dispatcher) run(ctx context.Context, log *zap.Logger, ev Event, reg Registration, found bool) Outcome {
	if !found {
		return UnknownCommand(ev.Command, ev.Operation)
	}

	operation := ev.Operation
	if operation == "" {
		operation = reg.DefaultOperation
	}
	if operation == "" {
		return UnsupportedOperation(ev.Command, operation)
	}

	log.Debug("router: state", zap.String("state", string(StateResolving)), zap.String("capability", string(reg.Capability)))
	handle, err := d.resolver.Resolve(ctx, reg.Capability)
	if err != nil {
		log.Debug("router: state", zap.String("state", string(StateResolutionFailed)))
		return ResolutionFailure(ev.Command, operation, err)
	}
	defer func() {
		if err := handle.Release(); err != nil {
			log.Warn("router: release scope failed", zap.Error(err))
		}
	}()
	log.Debug("router: state", zap.String("state", string(StateResolved)))

	log.Debug("router: state", zap.String("state", string(StateInvoking)))
	return d.invoker.Invoke(ctx, handle, ev.Command, operation)
}

func (d *Dispatcher) acknowledge(ctx context.Context, log *zap.Logger, ev Event) {
	if ev.Acknowledge == nil {
		return
	}
	if err := safeCall(func() error { return ev.Acknowledge(ctx) }); err != nil {
		log.Warn("router: acknowledge failed", zap.Error(err))
	}
}

func (d *Dispatcher) followUp(ctx context.Context, log *zap.Logger, ev Event, reply string) {
	if ev.FollowUp == nil {
		log.Warn("router: event has no follow-up callback, reply dropped")
		return
	}
	if err := safeCall(func() error { return ev.FollowUp(ctx, reply) }); err != nil {
		log.Warn("router: follow-up failed", zap.Error(err))
	}
}

func (d *Dispatcher) record(ctx context.Context, log *zap.Logger, rec Record) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("router: sink panicked", zap.Any("panic", r))
		}
	}()
	d.sink.Record(ctx, rec)
}

func safeCall(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
