package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/stake-plus/finapp-discord/src/router"
)

// Responder is the subset of *discordgo.Session used to answer interactions.
type Responder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// SlashEvent converts an application command interaction into a router
// event. The acknowledgement defers the response; the follow-up edits it.
// ok is false for interactions that are not application commands.
func SlashEvent(r Responder, i *discordgo.Interaction) (ev router.Event, ok bool) {
	if i == nil || i.Type != discordgo.InteractionApplicationCommand {
		return router.Event{}, false
	}
	data := i.ApplicationCommandData()

	return router.Event{
		ID:        i.ID,
		Source:    "slash",
		User:      InteractionUserID(i),
		Command:   data.Name,
		Operation: subcommand(data.Options),
		Acknowledge: func(ctx context.Context) error {
			return r.InteractionRespond(i, &discordgo.InteractionResponse{
				Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
			}, discordgo.WithContext(ctx))
		},
		FollowUp: func(ctx context.Context, content string) error {
			return withRateLimitRetry(ctx, func() error {
				_, err := r.InteractionResponseEdit(i, &discordgo.WebhookEdit{Content: &content}, discordgo.WithContext(ctx))
				return err
			})
		},
	}, true
}

// Deny answers an interaction with an ephemeral message, without deferring.
func Deny(r Responder, i *discordgo.Interaction, content string) error {
	return r.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

// InteractionUserID returns the invoking user for guild and DM interactions.
func InteractionUserID(i *discordgo.Interaction) string {
	switch {
	case i.Member != nil && i.Member.User != nil:
		return i.Member.User.ID
	case i.User != nil:
		return i.User.ID
	}
	return ""
}

func subcommand(opts []*discordgo.ApplicationCommandInteractionDataOption) string {
	for _, opt := range opts {
		if opt.Type == discordgo.ApplicationCommandOptionSubCommand {
			return opt.Name
		}
	}
	return ""
}
