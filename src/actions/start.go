package actions

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stake-plus/finapp-discord/src/actions/admin"
	"github.com/stake-plus/finapp-discord/src/actions/bot"
	"github.com/stake-plus/finapp-discord/src/actions/core"
	"github.com/stake-plus/finapp-discord/src/api/webserver"
	"github.com/stake-plus/finapp-discord/src/config"
	"github.com/stake-plus/finapp-discord/src/finance"
	"github.com/stake-plus/finapp-discord/src/router"
	"github.com/stake-plus/finapp-discord/src/telemetry"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the process-wide collaborators StartAll wires together.
type Deps struct {
	Config  *config.Config
	DB      *gorm.DB
	Stream  telemetry.StreamAdder // optional
	Metrics *prometheus.Registry
	Logger  *zap.Logger
}

// NewDispatcher builds the command router over the finance catalog. The
// returned hook flushes the telemetry sinks and must be stopped after every
// producer of events.
func NewDispatcher(deps Deps) (*router.Dispatcher, core.Hook, error) {
	if deps.Config == nil {
		return nil, core.Hook{}, fmt.Errorf("actions: config is nil")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Metrics == nil {
		deps.Metrics = prometheus.NewRegistry()
	}

	registry, err := router.NewRegistry(finance.Registrations()...)
	if err != nil {
		return nil, core.Hook{}, fmt.Errorf("actions: registry: %w", err)
	}
	container := finance.NewContainer(deps.DB,
		finance.WithReadOnly(deps.Config.Database.ReadOnly),
		finance.WithLogger(deps.Logger),
	)

	sinks := telemetry.Fanout{
		telemetry.NewLogSink(deps.Logger),
		telemetry.NewMetrics(deps.Metrics),
	}
	hook := core.Hook{Label: "telemetry"}
	if deps.Stream != nil {
		stream := telemetry.NewStreamSink(deps.Stream, deps.Config.Redis.Stream, deps.Logger)
		sinks = append(sinks, stream)
		hook.OnStop = func(context.Context) { stream.Close() }
	}

	d, err := router.NewDispatcher(router.Options{
		Registry: registry,
		Provider: container,
		Sink:     sinks,
		Logger:   deps.Logger,
	})
	if err != nil {
		return nil, core.Hook{}, fmt.Errorf("actions: dispatcher: %w", err)
	}
	deps.Logger.Info("actions: command router ready", zap.Int("commands", registry.Len()))
	return d, hook, nil
}

// StartAll wires up the enabled modules and starts the manager.
func StartAll(ctx context.Context, deps Deps) (*Manager, error) {
	if deps.Metrics == nil {
		deps.Metrics = prometheus.NewRegistry()
	}
	d, telemetryHook, err := NewDispatcher(deps)
	if err != nil {
		return nil, err
	}
	cfg := deps.Config
	mgr := core.NewManager(deps.Logger)

	if err := mgr.Add(telemetryHook); err != nil {
		return nil, fmt.Errorf("actions: add telemetry: %w", err)
	}

	botMod, err := bot.NewModule(cfg.Discord, d, deps.Logger)
	if err != nil {
		return nil, fmt.Errorf("actions: init bot module: %w", err)
	}
	if err := mgr.Add(botMod); err != nil {
		return nil, fmt.Errorf("actions: add bot module: %w", err)
	}

	if cfg.Admin.Enabled {
		engine := webserver.New(webserver.Options{
			Dispatcher:   d,
			Gatherer:     deps.Metrics,
			Gateway:      botMod.Gateway(),
			JWTSecret:    []byte(cfg.Admin.JWTSecret),
			AllowOrigins: cfg.Admin.AllowOrigins,
			Logger:       deps.Logger,
		})
		if err := mgr.Add(admin.NewModule(cfg.Admin.Addr, engine, deps.Logger)); err != nil {
			return nil, fmt.Errorf("actions: add admin module: %w", err)
		}
	} else {
		deps.Logger.Info("actions: admin API disabled via configuration")
	}

	if err := mgr.Start(ctx); err != nil {
		return nil, err
	}
	return mgr, nil
}
