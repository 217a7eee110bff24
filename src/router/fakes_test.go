package router

import (
	"context"
	"sync"
	"sync/atomic"
)

type fakeCapability map[string]Operation

func (c fakeCapability) Operation(name string) (Operation, bool) {
	op, ok := c[name]
	return op, ok
}

type fakeScope struct {
	provider *fakeProvider
	closed   atomic.Int32
}

func (s *fakeScope) Resolve(ctx context.Context, id CapabilityID) (Capability, error) {
	s.provider.resolves.Add(1)
	if fn, ok := s.provider.panics[id]; ok {
		fn()
	}
	if err, ok := s.provider.failures[id]; ok {
		return nil, err
	}
	capability, ok := s.provider.capabilities[id]
	if !ok {
		return nil, errUnknownCapability
	}
	return capability, nil
}

func (s *fakeScope) Close() error {
	s.closed.Add(1)
	s.provider.closes.Add(1)
	return nil
}

type fakeProvider struct {
	capabilities map[CapabilityID]Capability
	failures     map[CapabilityID]error
	panics       map[CapabilityID]func()
	scopeErr     error

	scopes   atomic.Int32
	resolves atomic.Int32
	closes   atomic.Int32

	mu        sync.Mutex
	allScopes []*fakeScope
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		capabilities: map[CapabilityID]Capability{},
		failures:     map[CapabilityID]error{},
		panics:       map[CapabilityID]func(){},
	}
}

func (p *fakeProvider) CreateScope(ctx context.Context) (Scope, error) {
	p.scopes.Add(1)
	if p.scopeErr != nil {
		return nil, p.scopeErr
	}
	s := &fakeScope{provider: p}
	p.mu.Lock()
	p.allScopes = append(p.allScopes, s)
	p.mu.Unlock()
	return s, nil
}

type errString string

func (e errString) Error() string { return string(e) }

const errUnknownCapability = errString("unknown capability")

// gatewayCall is one callback observed by fakeGateway.
type gatewayCall struct {
	kind    string
	content string
}

// fakeGateway records every callback made for a single event.
type fakeGateway struct {
	mu    sync.Mutex
	calls []gatewayCall
}

func (g *fakeGateway) event(command, operation string) Event {
	return Event{
		Source:    "test",
		User:      "tester",
		Command:   command,
		Operation: operation,
		Acknowledge: func(ctx context.Context) error {
			g.mu.Lock()
			defer g.mu.Unlock()
			g.calls = append(g.calls, gatewayCall{kind: "ack"})
			return nil
		},
		FollowUp: func(ctx context.Context, content string) error {
			g.mu.Lock()
			defer g.mu.Unlock()
			g.calls = append(g.calls, gatewayCall{kind: "followup", content: content})
			return nil
		},
	}
}

func (g *fakeGateway) snapshot() []gatewayCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]gatewayCall(nil), g.calls...)
}

type recordingSink struct {
	mu      sync.Mutex
	records []Record
}

func (s *recordingSink) Record(ctx context.Context, rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
}

func (s *recordingSink) all() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Record(nil), s.records...)
}

func countOp(n int64) Operation {
	return func(ctx context.Context) (int64, error) { return n, nil }
}
