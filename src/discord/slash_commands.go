package discord

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/stake-plus/finapp-discord/src/router"
	"go.uber.org/zap"
)

// maxDescriptionLen is Discord's limit for command and option descriptions.
const maxDescriptionLen = 100

// CommandAPI is the subset of *discordgo.Session used to manage application commands.
type CommandAPI interface {
	ApplicationCommandCreate(appID, guildID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error)
	ApplicationCommands(appID, guildID string, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
	ApplicationCommandDelete(appID, guildID, cmdID string, options ...discordgo.RequestOption) error
}

// BuildCommands turns registrations into slash command definitions, one
// subcommand per operation, in registry order.
func BuildCommands(regs []router.Registration) []*discordgo.ApplicationCommand {
	defs := make([]*discordgo.ApplicationCommand, 0, len(regs))
	for _, reg := range regs {
		description := reg.Description
		if description == "" {
			description = fmt.Sprintf("Finapp %s", reg.Label)
		}

		def := &discordgo.ApplicationCommand{
			Name:        reg.Command,
			Description: truncate(description, maxDescriptionLen),
		}
		for _, op := range reg.Operations {
			opDescription := op.Description
			if opDescription == "" {
				opDescription = fmt.Sprintf("%s %s", op.Name, reg.Label)
			}
			def.Options = append(def.Options, &discordgo.ApplicationCommandOption{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        op.Name,
				Description: truncate(opDescription, maxDescriptionLen),
			})
		}
		defs = append(defs, def)
	}
	return defs
}

// RegisterSlashCommands creates every definition for appID. An empty
// guildID registers global commands. Commands that already exist are not
// treated as errors.
func RegisterSlashCommands(api CommandAPI, appID, guildID string, defs []*discordgo.ApplicationCommand, logger *zap.Logger) error {
	if appID == "" {
		return fmt.Errorf("discord: application id is required to register slash commands")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var failures []string
	for _, def := range defs {
		_, err := api.ApplicationCommandCreate(appID, guildID, def)
		if err != nil {
			if isDuplicateCommandError(err) {
				logger.Info("discord: slash command already registered", zap.String("command", def.Name))
				continue
			}
			failures = append(failures, fmt.Sprintf("%s: %v", def.Name, err))
			logger.Warn("discord: failed to register command", zap.String("command", def.Name), zap.Error(err))
			continue
		}
		logger.Debug("discord: slash command registered", zap.String("command", def.Name), zap.String("guild_id", guildID))
	}

	if len(failures) > 0 {
		return fmt.Errorf("discord: slash command registration errors: %s", strings.Join(failures, "; "))
	}
	return nil
}

// DeleteSlashCommands removes every command registered for appID in guildID.
func DeleteSlashCommands(api CommandAPI, appID, guildID string) error {
	commands, err := api.ApplicationCommands(appID, guildID)
	if err != nil {
		return fmt.Errorf("discord: list commands: %w", err)
	}
	for _, cmd := range commands {
		if err := api.ApplicationCommandDelete(appID, guildID, cmd.ID); err != nil {
			return fmt.Errorf("discord: delete command %s: %w", cmd.Name, err)
		}
	}
	return nil
}

func isDuplicateCommandError(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) {
		if restErr.Message != nil {
			msg := strings.ToLower(restErr.Message.Message)
			if strings.Contains(msg, "already exists") {
				return true
			}
		}
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "50035") && strings.Contains(msg, "already exists")
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
