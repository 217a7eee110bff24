package router

import (
	"context"
	"time"
)

// Record is what the dispatcher reports for every completed invocation.
type Record struct {
	InvocationID string
	Source       string
	User         string
	Command      string
	Operation    string
	Outcome      Outcome
	Duration     time.Duration
}

// Sink receives completed invocations. Implementations must not block the
// caller; anything slow belongs on its own goroutine.
type Sink interface {
	Record(ctx context.Context, rec Record)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, rec Record)

func (f SinkFunc) Record(ctx context.Context, rec Record) { f(ctx, rec) }

type discardSink struct{}

func (discardSink) Record(context.Context, Record) {}
