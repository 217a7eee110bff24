package router

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type dispatcherFixture struct {
	provider   *fakeProvider
	sink       *recordingSink
	dispatcher *Dispatcher
	logs       *observer.ObservedLogs
	carCalls   *int64
	carMu      *sync.Mutex
}

func newDispatcherFixture(t *testing.T) *dispatcherFixture {
	t.Helper()

	registry, err := NewRegistry(
		carRegistration,
		paycheckRegistration,
		Registration{Command: "budget", Capability: "budget", Label: "budgets", DefaultOperation: "count",
			Operations: []OperationSpec{{Name: "count"}}},
		Registration{Command: "bare", Capability: "car", Label: "cars",
			Operations: []OperationSpec{{Name: "count"}}},
	)
	require.NoError(t, err)

	var calls int64
	var mu sync.Mutex
	p := newFakeProvider()
	p.capabilities["car"] = fakeCapability{
		"count": func(ctx context.Context) (int64, error) {
			mu.Lock()
			calls++
			mu.Unlock()
			return 42, nil
		},
	}
	p.capabilities["paycheck"] = fakeCapability{
		"count": countOp(12),
		"total": countOp(250000),
	}
	p.capabilities["budget"] = fakeCapability{"count": countOp(5)}

	core, logs := observer.New(zapcore.DebugLevel)
	sink := &recordingSink{}
	d, err := NewDispatcher(Options{
		Registry: registry,
		Provider: p,
		Sink:     sink,
		Logger:   zap.New(core),
	})
	require.NoError(t, err)

	return &dispatcherFixture{provider: p, sink: sink, dispatcher: d, logs: logs, carCalls: &calls, carMu: &mu}
}

func (f *dispatcherFixture) backendCalls() int64 {
	f.carMu.Lock()
	defer f.carMu.Unlock()
	return *f.carCalls
}

func TestNewDispatcher_RequiresCollaborators(t *testing.T) {
	_, err := NewDispatcher(Options{Provider: newFakeProvider()})
	require.Error(t, err)

	registry, _ := NewRegistry()
	_, err = NewDispatcher(Options{Registry: registry})
	require.Error(t, err)
}

func TestDispatch_CarCount(t *testing.T) {
	f := newDispatcherFixture(t)
	gw := &fakeGateway{}

	out := f.dispatcher.Dispatch(context.Background(), gw.event("car", "count"))

	assert.Equal(t, Success("car", "count", 42), out)
	calls := gw.snapshot()
	require.Len(t, calls, 2)
	assert.Equal(t, "ack", calls[0].kind)
	assert.Equal(t, "followup", calls[1].kind)
	assert.Contains(t, calls[1].content, "42")
	assert.Contains(t, calls[1].content, "car")
	assert.EqualValues(t, 1, f.provider.closes.Load(), "scope disposed after invocation")

	records := f.sink.all()
	require.Len(t, records, 1)
	assert.NotEmpty(t, records[0].InvocationID)
	assert.Equal(t, "car", records[0].Command)
	assert.Equal(t, "count", records[0].Operation)
	assert.Equal(t, KindSuccess, records[0].Outcome.Kind)
}

func TestDispatch_DefaultOperation(t *testing.T) {
	f := newDispatcherFixture(t)
	gw := &fakeGateway{}

	out := f.dispatcher.Dispatch(context.Background(), gw.event("car", ""))
	assert.Equal(t, Success("car", "count", 42), out)

	gw = &fakeGateway{}
	out = f.dispatcher.Dispatch(context.Background(), gw.event("bare", ""))
	assert.Equal(t, KindUnsupportedOperation, out.Kind)
	assert.Contains(t, gw.snapshot()[1].content, "Missing")
	assert.EqualValues(t, 1, f.provider.scopes.Load(), "bare without default must not resolve")
}

func TestDispatch_UnknownCommand(t *testing.T) {
	f := newDispatcherFixture(t)
	gw := &fakeGateway{}

	out := f.dispatcher.Dispatch(context.Background(), gw.event("bogus", "count"))

	assert.Equal(t, KindUnknownCommand, out.Kind)
	calls := gw.snapshot()
	require.Len(t, calls, 2)
	assert.Equal(t, "ack", calls[0].kind)
	assert.Contains(t, calls[1].content, "bogus")
	assert.Zero(t, f.provider.scopes.Load(), "resolver must not be called")
	assert.Zero(t, f.provider.resolves.Load())
}

func TestDispatch_UnsupportedOperation(t *testing.T) {
	f := newDispatcherFixture(t)
	gw := &fakeGateway{}

	out := f.dispatcher.Dispatch(context.Background(), gw.event("car", "frobnicate"))

	assert.Equal(t, KindUnsupportedOperation, out.Kind)
	reply := gw.snapshot()[1].content
	assert.Contains(t, reply, "car")
	assert.Contains(t, reply, "frobnicate")
	assert.Zero(t, f.backendCalls(), "no backend call for unsupported operation")
	assert.EqualValues(t, 1, f.provider.closes.Load())
}

func TestDispatch_CentsOperation(t *testing.T) {
	f := newDispatcherFixture(t)
	gw := &fakeGateway{}

	out := f.dispatcher.Dispatch(context.Background(), gw.event("paycheck", "total"))

	assert.Equal(t, Success("paycheck", "total", 250000), out)
	assert.Contains(t, gw.snapshot()[1].content, "$2,500.00")
}

func TestDispatch_ResolutionFailureIsIsolated(t *testing.T) {
	f := newDispatcherFixture(t)
	cause := errors.New("dial tcp db:3306: i/o timeout (dsn=finapp:s3cret@tcp(db))")
	f.provider.failures["car"] = cause

	var wg sync.WaitGroup
	healthy := make([]Outcome, 2)
	failing := &fakeGateway{}
	var failed Outcome

	wg.Add(3)
	go func() {
		defer wg.Done()
		failed = f.dispatcher.Dispatch(context.Background(), failing.event("car", "count"))
	}()
	for i, cmd := range []string{"budget", "paycheck"} {
		go func(i int, cmd string) {
			defer wg.Done()
			healthy[i] = f.dispatcher.Dispatch(context.Background(), (&fakeGateway{}).event(cmd, "count"))
		}(i, cmd)
	}
	wg.Wait()

	assert.Equal(t, KindResolutionFailure, failed.Kind)
	assert.ErrorIs(t, failed.Cause, cause)
	reply := failing.snapshot()[1].content
	assert.Equal(t, ReplyUnavailable, reply)
	assert.NotContains(t, reply, "s3cret")

	for _, out := range healthy {
		assert.Equal(t, KindSuccess, out.Kind)
	}

	var sawCause bool
	for _, rec := range f.sink.all() {
		if rec.Outcome.Kind == KindResolutionFailure {
			sawCause = errors.Is(rec.Outcome.Cause, cause)
		}
	}
	assert.True(t, sawCause, "sink receives the real cause")
	assert.EqualValues(t, f.provider.scopes.Load(), f.provider.closes.Load(), "every scope disposed")
}

func TestDispatch_InvocationFailure(t *testing.T) {
	f := newDispatcherFixture(t)
	cause := errors.New("Error 1146: Table 'finapp.cars' doesn't exist")
	f.provider.capabilities["car"] = fakeCapability{
		"count": func(ctx context.Context) (int64, error) { return 0, cause },
	}
	gw := &fakeGateway{}

	out := f.dispatcher.Dispatch(context.Background(), gw.event("car", "count"))

	assert.Equal(t, KindInvocationFailure, out.Kind)
	assert.Equal(t, ReplyFailed, gw.snapshot()[1].content)
	assert.EqualValues(t, 1, f.provider.closes.Load())

	// the next invocation against the same capability still works
	f.provider.capabilities["car"] = fakeCapability{"count": countOp(7)}
	out = f.dispatcher.Dispatch(context.Background(), (&fakeGateway{}).event("car", "count"))
	assert.Equal(t, Success("car", "count", 7), out)
}

func TestDispatch_CancelledBeforeResolve(t *testing.T) {
	f := newDispatcherFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gw := &fakeGateway{}

	out := f.dispatcher.Dispatch(ctx, gw.event("car", "count"))

	assert.Equal(t, KindResolutionFailure, out.Kind)
	assert.ErrorIs(t, out.Cause, context.Canceled)
	assert.Len(t, gw.snapshot(), 2, "ack and follow-up still happen once each")
}

func TestDispatch_CallbackFailuresDoNotEscape(t *testing.T) {
	f := newDispatcherFixture(t)
	var followUps int
	ev := Event{
		Command:     "car",
		Operation:   "count",
		Acknowledge: func(ctx context.Context) error { return errors.New("unknown interaction") },
		FollowUp: func(ctx context.Context, content string) error {
			followUps++
			panic("gateway closed")
		},
	}

	require.NotPanics(t, func() {
		out := f.dispatcher.Dispatch(context.Background(), ev)
		assert.Equal(t, KindSuccess, out.Kind)
	})
	assert.Equal(t, 1, followUps)
	assert.Equal(t, 1, f.logs.FilterMessage("router: acknowledge failed").Len())
	assert.Equal(t, 1, f.logs.FilterMessage("router: follow-up failed").Len())
}

func TestDispatch_SinkPanicIsContained(t *testing.T) {
	registry, err := NewRegistry(carRegistration)
	require.NoError(t, err)
	p := newFakeProvider()
	p.capabilities["car"] = fakeCapability{"count": countOp(1)}

	d, err := NewDispatcher(Options{
		Registry: registry,
		Provider: p,
		Sink:     SinkFunc(func(context.Context, Record) { panic("sink down") }),
	})
	require.NoError(t, err)

	require.NotPanics(t, func() {
		d.Dispatch(context.Background(), (&fakeGateway{}).event("car", "count"))
	})
}

func TestDispatch_ConcurrentExactlyOnce(t *testing.T) {
	f := newDispatcherFixture(t)
	f.provider.failures["budget"] = errors.New("budget store offline")
	f.provider.capabilities["paycheck"] = fakeCapability{
		"count": func(ctx context.Context) (int64, error) { return 0, errors.New("timeout") },
		"total": countOp(1),
	}

	const n = 1000
	commands := []struct{ command, operation string }{
		{"car", "count"},
		{"car", ""},
		{"car", "frobnicate"},
		{"bogus", "count"},
		{"budget", "count"},
		{"paycheck", "count"},
		{"paycheck", "total"},
		{"bare", ""},
	}

	rng := rand.New(rand.NewSource(1))
	gateways := make([]*fakeGateway, n)
	events := make([]Event, n)
	for i := range events {
		c := commands[rng.Intn(len(commands))]
		gateways[i] = &fakeGateway{}
		events[i] = gateways[i].event(c.command, c.operation)
		events[i].ID = fmt.Sprintf("inv-%d", i)
	}

	var wg sync.WaitGroup
	for i := range events {
		wg.Add(1)
		go func(ev Event) {
			defer wg.Done()
			f.dispatcher.Dispatch(context.Background(), ev)
		}(events[i])
	}
	wg.Wait()

	for i, gw := range gateways {
		calls := gw.snapshot()
		require.Len(t, calls, 2, "invocation %d", i)
		assert.Equal(t, "ack", calls[0].kind, "invocation %d", i)
		assert.Equal(t, "followup", calls[1].kind, "invocation %d", i)
	}

	records := f.sink.all()
	require.Len(t, records, n)
	seen := make(map[string]bool, n)
	for _, rec := range records {
		assert.False(t, seen[rec.InvocationID], "duplicate record %s", rec.InvocationID)
		seen[rec.InvocationID] = true
	}
	assert.Equal(t, f.provider.scopes.Load(), f.provider.closes.Load())
}
