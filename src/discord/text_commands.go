package discord

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/stake-plus/finapp-discord/src/router"
)

// Messenger is the subset of *discordgo.Session used for text commands.
type Messenger interface {
	ChannelTyping(channelID string, options ...discordgo.RequestOption) error
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// ParseTextCommand splits "!car count" into ("car", "count"). Both parts are
// passed through as typed since command names are case-sensitive; operation
// is empty when only the command is given.
func ParseTextCommand(prefix, content string) (command, operation string, ok bool) {
	if prefix == "" {
		return "", "", false
	}
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, prefix) {
		return "", "", false
	}

	fields := strings.Fields(strings.TrimPrefix(content, prefix))
	if len(fields) == 0 {
		return "", "", false
	}
	command = fields[0]
	if len(fields) > 1 {
		operation = fields[1]
	}
	return command, operation, true
}

// TextEvent builds a router event answering msg in its channel. The typing
// indicator serves as the acknowledgement.
func TextEvent(m Messenger, msg *discordgo.Message, command, operation string) router.Event {
	ev := router.Event{
		ID:        msg.ID,
		Source:    "text",
		Command:   command,
		Operation: operation,
		Acknowledge: func(ctx context.Context) error {
			return m.ChannelTyping(msg.ChannelID, discordgo.WithContext(ctx))
		},
		FollowUp: func(ctx context.Context, content string) error {
			return withRateLimitRetry(ctx, func() error {
				_, err := m.ChannelMessageSend(msg.ChannelID, content, discordgo.WithContext(ctx))
				return err
			})
		},
	}
	if msg.Author != nil {
		ev.User = msg.Author.ID
	}
	return ev
}
