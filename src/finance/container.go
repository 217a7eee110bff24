package finance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/stake-plus/finapp-discord/src/router"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrUnknownCapability = errors.New("finance: unknown capability")

// Container is the scoped service provider for the router. Each scope owns
// one database transaction and at most one instance per capability.
type Container struct {
	db        *gorm.DB
	factories map[router.CapabilityID]Factory
	readOnly  bool
	logger    *zap.Logger
}

// Option customizes a Container.
type Option func(*Container)

// WithReadOnly opens every scope as a read-only transaction.
func WithReadOnly(readOnly bool) Option {
	return func(c *Container) { c.readOnly = readOnly }
}

// WithFactory registers or replaces the constructor for id.
func WithFactory(id router.CapabilityID, f Factory) Option {
	return func(c *Container) { c.factories[id] = f }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Container) { c.logger = logger }
}

// NewContainer builds a container over db with every Finapp capability registered.
func NewContainer(db *gorm.DB, opts ...Option) *Container {
	c := &Container{
		db:        db,
		factories: DefaultFactories(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("finance")
	return c
}

// Has reports whether id has a registered constructor.
func (c *Container) Has(id router.CapabilityID) bool {
	_, ok := c.factories[id]
	return ok
}

// CreateScope begins the unit of work for one invocation.
func (c *Container) CreateScope(ctx context.Context) (router.Scope, error) {
	if c.db == nil {
		return nil, errors.New("finance: database not configured")
	}

	var txOpts *sql.TxOptions
	if c.readOnly {
		txOpts = &sql.TxOptions{ReadOnly: true}
	}

	var tx *gorm.DB
	if txOpts != nil {
		tx = c.db.WithContext(ctx).Begin(txOpts)
	} else {
		tx = c.db.WithContext(ctx).Begin()
	}
	if tx.Error != nil {
		return nil, fmt.Errorf("finance: begin scope: %w", tx.Error)
	}

	return &scope{
		tx:        tx,
		factories: c.factories,
		instances: make(map[router.CapabilityID]router.Capability),
		logger:    c.logger,
	}, nil
}

type scope struct {
	tx        *gorm.DB
	factories map[router.CapabilityID]Factory
	logger    *zap.Logger

	mu        sync.Mutex
	instances map[router.CapabilityID]router.Capability
	closed    bool
}

func (s *scope) Resolve(ctx context.Context, id router.CapabilityID) (router.Capability, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.New("finance: scope already closed")
	}
	if existing, ok := s.instances[id]; ok {
		return existing, nil
	}

	factory, ok := s.factories[id]
	if !ok || factory == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCapability, id)
	}

	capability := factory(s.tx)
	if capability == nil {
		return nil, fmt.Errorf("finance: factory for %q returned nil", id)
	}
	s.instances[id] = capability
	s.logger.Debug("finance: capability constructed", zap.String("capability", string(id)))
	return capability, nil
}

// Close ends the unit of work. Capabilities only read, so the transaction
// is always rolled back.
func (s *scope) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.instances = nil

	if err := s.tx.Rollback().Error; err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("finance: close scope: %w", err)
	}
	return nil
}
