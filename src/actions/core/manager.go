package core

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Module is a long-lived part of the process that can be started and stopped.
type Module interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context)
}

// Manager starts modules in the order they were added and stops them in reverse.
type Manager struct {
	modules []Module
	logger  *zap.Logger
	mu      sync.Mutex
	started bool
}

func NewManager(logger *zap.Logger, mods ...Module) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		modules: mods,
		logger:  logger.Named("actions"),
	}
}

// Add registers additional modules before Start is invoked.
func (m *Manager) Add(mod Module) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return fmt.Errorf("actions.Manager: cannot add %s after start", mod.Name())
	}
	m.modules = append(m.modules, mod)
	return nil
}

// Names lists the registered modules in start order.
func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.modules))
	for _, mod := range m.modules {
		if mod != nil {
			names = append(names, mod.Name())
		}
	}
	return names
}

// Start initializes all modules. If any module fails, the ones already
// started are stopped again.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return fmt.Errorf("actions.Manager already started")
	}

	started := make([]Module, 0, len(m.modules))
	for _, mod := range m.modules {
		if mod == nil {
			continue
		}
		if err := mod.Start(ctx); err != nil {
			m.logger.Error("actions: module failed to start", zap.String("module", mod.Name()), zap.Error(err))
			for i := len(started) - 1; i >= 0; i-- {
				started[i].Stop(ctx)
			}
			return fmt.Errorf("module %s failed: %w", mod.Name(), err)
		}
		m.logger.Info("actions: module started", zap.String("module", mod.Name()))
		started = append(started, mod)
	}

	m.started = true
	return nil
}

// Stop shuts down all modules in reverse order. Stopping a manager that
// never started is a no-op.
func (m *Manager) Stop(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return
	}
	for i := len(m.modules) - 1; i >= 0; i-- {
		if mod := m.modules[i]; mod != nil {
			mod.Stop(ctx)
			m.logger.Info("actions: module stopped", zap.String("module", mod.Name()))
		}
	}
	m.started = false
}

// Hook adapts a pair of functions to Module. Either may be nil.
type Hook struct {
	Label   string
	OnStart func(ctx context.Context) error
	OnStop  func(ctx context.Context)
}

func (h Hook) Name() string { return h.Label }

func (h Hook) Start(ctx context.Context) error {
	if h.OnStart == nil {
		return nil
	}
	return h.OnStart(ctx)
}

func (h Hook) Stop(ctx context.Context) {
	if h.OnStop != nil {
		h.OnStop(ctx)
	}
}
