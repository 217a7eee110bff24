package bot

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/stake-plus/finapp-discord/src/actions/core"
	"github.com/stake-plus/finapp-discord/src/config"
	"github.com/stake-plus/finapp-discord/src/discord"
	"github.com/stake-plus/finapp-discord/src/router"
	"go.uber.org/zap"
)

var _ core.Module = (*Module)(nil)

// Module owns the Discord session and feeds its commands to the dispatcher.
type Module struct {
	cfg        config.DiscordConfig
	session    *discordgo.Session
	dispatcher *router.Dispatcher
	gate       discord.Gate
	lifecycle  *Lifecycle
	logger     *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	// mu orders wg.Add in spawn against wg.Wait in Stop.
	mu       sync.Mutex
	stopping bool
	wg       sync.WaitGroup
}

// NewModule creates the session but does not connect it.
func NewModule(cfg config.DiscordConfig, dispatcher *router.Dispatcher, logger *zap.Logger) (*Module, error) {
	if dispatcher == nil {
		return nil, fmt.Errorf("bot: dispatcher is nil")
	}
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("bot: discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds
	if cfg.CommandPrefix != "" {
		session.Identify.Intents |= discordgo.IntentsGuildMessages |
			discordgo.IntentsDirectMessages |
			discordgo.IntentsMessageContent
	}

	m := newModule(cfg, dispatcher, logger)
	m.session = session
	return m, nil
}

func newModule(cfg config.DiscordConfig, dispatcher *router.Dispatcher, logger *zap.Logger) *Module {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Module{
		cfg:        cfg,
		dispatcher: dispatcher,
		gate:       discord.Gate{RoleID: cfg.RoleID, Cooldown: discord.NewCooldown(cfg.Cooldown)},
		logger:     logger.Named("bot"),
	}
	m.lifecycle = NewLifecycle(func(from, to Phase) {
		m.logger.Info("bot: gateway state changed", zap.String("from", string(from)), zap.String("to", string(to)))
	})
	m.ctx, m.cancel = context.WithCancel(context.Background())
	return m
}

func (m *Module) Name() string { return "bot" }

// Gateway exposes the connection state for health checks.
func (m *Module) Gateway() *Lifecycle { return m.lifecycle }

// Start registers the handlers and opens the gateway connection.
func (m *Module) Start(ctx context.Context) error {
	if m.session == nil {
		return fmt.Errorf("bot: session not initialized")
	}
	m.initHandlers()

	m.transition(PhaseConnecting)
	if err := m.session.Open(); err != nil {
		m.transition(PhaseDisconnected)
		return fmt.Errorf("bot: discord open: %w", err)
	}
	return nil
}

// Stop closes the session, cancels in-flight invocations and waits for
// them to finish or for ctx to expire.
func (m *Module) Stop(ctx context.Context) {
	m.mu.Lock()
	m.stopping = true
	m.mu.Unlock()

	m.transition(PhaseClosed)
	m.cancel()
	if m.session != nil {
		if err := m.session.Close(); err != nil {
			m.logger.Warn("bot: session close", zap.Error(err))
		}
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		m.logger.Warn("bot: stop timed out with invocations in flight")
	}
}

func (m *Module) initHandlers() {
	m.session.AddHandler(func(s *discordgo.Session, _ *discordgo.Connect) {
		m.transition(PhaseConnected)
	})
	m.session.AddHandler(func(s *discordgo.Session, _ *discordgo.Disconnect) {
		m.transition(PhaseDisconnected)
	})
	m.session.AddHandler(func(s *discordgo.Session, _ *discordgo.Resumed) {
		m.transition(PhaseReady)
	})
	m.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		m.logger.Info("bot: logged in", zap.String("user", r.User.Username), zap.Int("guilds", len(r.Guilds)))
		if m.transition(PhaseReady) {
			m.publishCommands(s, r.User.ID)
		}
	})
	m.session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		m.handleInteraction(s, i.Interaction)
	})
	m.session.AddHandler(func(s *discordgo.Session, msg *discordgo.MessageCreate) {
		m.handleMessage(s, msg.Message)
	})
}

func (m *Module) transition(to Phase) bool {
	if err := m.lifecycle.Transition(to); err != nil {
		m.logger.Warn("bot: ignored gateway event", zap.Error(err))
		return false
	}
	return true
}

func (m *Module) publishCommands(api discord.CommandAPI, appID string) {
	if !m.cfg.RegisterCommands {
		return
	}
	if m.cfg.CleanupCommands {
		if err := discord.DeleteSlashCommands(api, appID, m.cfg.GuildID); err != nil {
			m.logger.Warn("bot: cleanup commands failed", zap.Error(err))
		}
	}
	defs := discord.BuildCommands(m.dispatcher.Registry().Commands())
	if err := discord.RegisterSlashCommands(api, appID, m.cfg.GuildID, defs, m.logger); err != nil {
		m.logger.Warn("bot: register commands failed", zap.Error(err))
	}
}

func (m *Module) handleInteraction(r discord.Responder, i *discordgo.Interaction) {
	ev, ok := discord.SlashEvent(r, i)
	if !ok {
		return
	}
	if msg, ok := m.gate.Check(ev.User, i.Member); !ok {
		if err := discord.Deny(r, i, msg); err != nil {
			m.logger.Warn("bot: deny failed", zap.Error(err))
		}
		return
	}
	m.spawn(ev)
}

func (m *Module) handleMessage(api discord.Messenger, msg *discordgo.Message) {
	if msg == nil || msg.Author == nil || msg.Author.Bot {
		return
	}
	command, operation, ok := discord.ParseTextCommand(m.cfg.CommandPrefix, msg.Content)
	if !ok {
		return
	}
	if _, known := m.dispatcher.Registry().Lookup(command); !known {
		// Other bots may share the prefix; stay quiet on commands we do not serve.
		return
	}
	if denial, ok := m.gate.Check(msg.Author.ID, msg.Member); !ok {
		if _, err := api.ChannelMessageSend(msg.ChannelID, denial); err != nil {
			m.logger.Warn("bot: deny failed", zap.Error(err))
		}
		return
	}
	m.spawn(discord.TextEvent(api, msg, command, operation))
}

// spawn dispatches ev on its own goroutine so the gateway loop never waits
// on the backend.
func (m *Module) spawn(ev router.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopping {
		return
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.dispatcher.Dispatch(m.ctx, ev)
	}()
}
