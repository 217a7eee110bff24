package router

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoker_Unsupported(t *testing.T) {
	called := false
	handle := &Handle{ID: "car", Capability: fakeCapability{
		"count": func(ctx context.Context) (int64, error) {
			called = true
			return 1, nil
		},
	}}

	for _, op := range []string{"frobnicate", "Count", "", "total"} {
		t.Run(op, func(t *testing.T) {
			done := make(chan Outcome, 1)
			go func() { done <- Invoker{}.Invoke(context.Background(), handle, "car", op) }()

			select {
			case out := <-done:
				assert.Equal(t, KindUnsupportedOperation, out.Kind)
				assert.Equal(t, "car", out.Command)
				assert.Equal(t, op, out.Operation)
				assert.NoError(t, out.Cause)
			case <-time.After(time.Second):
				t.Fatal("invoke hung on unsupported operation")
			}
		})
	}
	assert.False(t, called, "backend must not be called for unsupported operations")
}

func TestInvoker_SuccessValueUnchanged(t *testing.T) {
	for _, v := range []int64{0, 1, 42, -7, math.MaxInt64, math.MinInt64} {
		handle := &Handle{Capability: fakeCapability{"count": countOp(v)}}
		out := Invoker{}.Invoke(context.Background(), handle, "car", "count")
		require.Equal(t, KindSuccess, out.Kind)
		assert.Equal(t, v, out.Value)
	}
}

func TestInvoker_Failure(t *testing.T) {
	boom := errors.New("connection refused: host=db.internal password=hunter2")
	handle := &Handle{Capability: fakeCapability{
		"count": func(ctx context.Context) (int64, error) { return 0, boom },
		"panic": func(ctx context.Context) (int64, error) { panic("nil map") },
	}}

	out := Invoker{}.Invoke(context.Background(), handle, "car", "count")
	assert.Equal(t, KindInvocationFailure, out.Kind)
	assert.ErrorIs(t, out.Cause, boom)

	out = Invoker{}.Invoke(context.Background(), handle, "car", "panic")
	assert.Equal(t, KindInvocationFailure, out.Kind)
	assert.ErrorContains(t, out.Cause, "nil map")
}

func TestInvoker_NilHandle(t *testing.T) {
	out := Invoker{}.Invoke(context.Background(), nil, "car", "count")
	assert.Equal(t, KindInvocationFailure, out.Kind)
}

func TestInvoker_PassesContext(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "scoped")
	handle := &Handle{Capability: fakeCapability{
		"count": func(ctx context.Context) (int64, error) {
			if ctx.Value(key{}) != "scoped" {
				return 0, errors.New("context not propagated")
			}
			return 3, nil
		},
	}}

	out := Invoker{}.Invoke(ctx, handle, "car", "count")
	assert.Equal(t, Success("car", "count", 3), out)
}
