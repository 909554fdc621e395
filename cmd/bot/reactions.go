package main

import (
	"context"
	"log/slog"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/databounty/warden/cmd/bot/monitoring"
	"github.com/databounty/warden/pkg/gateway"
	"github.com/databounty/warden/pkg/logging"
)

func reactionAddHandler(a IApp) func(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	return func(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
		ev := &gateway.ReactionEvent{
			GuildID:   r.GuildID,
			MessageID: r.MessageID,
			UserID:    r.UserID,
			EmojiID:   r.Emoji.ID,
			EmojiName: r.Emoji.Name,
			IsBot:     r.Member != nil && r.Member.User != nil && r.Member.User.Bot,
		}

		handled, err := a.Selector().HandleReactionAdd(context.Background(), ev)
		if err != nil {
			a.Log().Error("Error handling reaction add",
				slog.String(logging.KeyUser, r.UserID),
				slog.String(logging.KeyError, err.Error()))
			return
		}
		if handled {
			monitoring.TotalReactionRoles.WithLabelValues("add").Inc()
		}
	}
}

func reactionRemoveHandler(a IApp) func(s *discordgo.Session, r *discordgo.MessageReactionRemove) {
	return func(s *discordgo.Session, r *discordgo.MessageReactionRemove) {
		ev := &gateway.ReactionEvent{
			GuildID:   r.GuildID,
			MessageID: r.MessageID,
			UserID:    r.UserID,
			EmojiID:   r.Emoji.ID,
			EmojiName: r.Emoji.Name,
		}

		handled, err := a.Selector().HandleReactionRemove(context.Background(), ev)
		if err != nil {
			a.Log().Error("Error handling reaction remove",
				slog.String(logging.KeyUser, r.UserID),
				slog.String(logging.KeyError, err.Error()))
			return
		}
		if handled {
			monitoring.TotalReactionRoles.WithLabelValues("remove").Inc()
		}
	}
}

// directMessageHandler feeds direct messages into the session manager so that an
// outstanding prompt, such as the team name question, can consume the reply.
func directMessageHandler(a IApp) func(s *discordgo.Session, m *discordgo.MessageCreate) {
	return func(s *discordgo.Session, m *discordgo.MessageCreate) {
		// Only direct messages are of interest here. A message with no guild ID was sent
		// in a DM channel.
		if m.GuildID != "" {
			return
		}

		msg := &gateway.DirectMessage{
			AuthorID: m.Author.ID,
			Content:  m.Content,
			IsBot:    m.Author.Bot,
		}

		if a.Sessions().HandleDirectMessage(msg) {
			a.Log().Debug("Direct message consumed by session",
				slog.String(logging.KeyUser, m.Author.ID))
		}
	}
}
