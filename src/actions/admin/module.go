package admin

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/stake-plus/finapp-discord/src/actions/core"
	"go.uber.org/zap"
)

var _ core.Module = (*Module)(nil)

// Module serves the admin HTTP API.
type Module struct {
	addr    string
	handler http.Handler
	logger  *zap.Logger
	server  *http.Server
}

func NewModule(addr string, handler http.Handler, logger *zap.Logger) *Module {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Module{addr: addr, handler: handler, logger: logger.Named("admin")}
}

func (m *Module) Name() string { return "admin" }

// Addr returns the bound address once started.
func (m *Module) Addr() string {
	if m.server == nil {
		return ""
	}
	return m.server.Addr
}

// Start binds the listener before returning so that port conflicts fail
// startup instead of surfacing later.
func (m *Module) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", m.addr)
	if err != nil {
		return fmt.Errorf("admin: listen %s: %w", m.addr, err)
	}
	m.server = &http.Server{
		Addr:              ln.Addr().String(),
		Handler:           m.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := m.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("admin: server stopped", zap.Error(err))
		}
	}()
	m.logger.Info("admin: listening", zap.String("addr", m.server.Addr))
	return nil
}

func (m *Module) Stop(ctx context.Context) {
	if m.server == nil {
		return
	}
	if err := m.server.Shutdown(ctx); err != nil {
		m.logger.Warn("admin: shutdown", zap.Error(err))
	}
}
