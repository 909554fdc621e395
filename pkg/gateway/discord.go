package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/Jacobbrewer1/discordgo"
)

const (
	// OpenTicketButtonID is the custom ID for the open ticket button.
	OpenTicketButtonID = "create_ticket_button"

	// CloseTicketButtonID is the custom ID for the close ticket button.
	CloseTicketButtonID = "close_ticket_button"

	// ConfirmCloseButtonID is the custom ID for the confirm close button.
	ConfirmCloseButtonID = "confirm_close_ticket_button"

	// CancelCloseButtonID is the custom ID for the cancel close button.
	CancelCloseButtonID = "cancel_close_ticket_button"

	// RegisterTeamButtonID is the custom ID for the team registration button.
	RegisterTeamButtonID = "register_team_button"
)

const (
	// ticketEmoji is the emoji on the open ticket button. (Admission ticket)
	ticketEmoji = "\U0001F3AB"

	// closeEmoji is the emoji on the close ticket button. (Padlock)
	closeEmoji = "\U0001F512"

	// confirmEmoji is the emoji on the confirm close button. (Check mark)
	confirmEmoji = "✅"

	// cancelEmoji is the emoji on the cancel button. (Cross)
	cancelEmoji = "❌"
)

// buttonFor maps a control kind onto its button.
func buttonFor(kind ControlKind) discordgo.Button {
	switch kind {
	case ControlOpenTicket:
		return discordgo.Button{
			Label:    fmt.Sprintf("%s Create Support Ticket", ticketEmoji),
			Style:    discordgo.SuccessButton,
			CustomID: OpenTicketButtonID,
		}
	case ControlCloseTicket:
		return discordgo.Button{
			Label:    fmt.Sprintf("%s Close Ticket", closeEmoji),
			Style:    discordgo.DangerButton,
			CustomID: CloseTicketButtonID,
		}
	case ControlConfirmClose:
		return discordgo.Button{
			Label:    fmt.Sprintf("%s Yes, Close Ticket", confirmEmoji),
			Style:    discordgo.DangerButton,
			CustomID: ConfirmCloseButtonID,
		}
	case ControlCancelClose:
		return discordgo.Button{
			Label:    fmt.Sprintf("%s Cancel", cancelEmoji),
			Style:    discordgo.SecondaryButton,
			CustomID: CancelCloseButtonID,
		}
	case ControlRegisterTeam:
		return discordgo.Button{
			Label:    "Register for a Team",
			Style:    discordgo.PrimaryButton,
			CustomID: RegisterTeamButtonID,
		}
	default:
		return discordgo.Button{}
	}
}

type discordGateway struct {
	// s is the discord session.
	s *discordgo.Session
}

// NewDiscord creates a Gateway backed by a discord session.
func NewDiscord(s *discordgo.Session) Gateway {
	return &discordGateway{
		s: s,
	}
}

// mapError folds discord REST errors into the gateway error taxonomy.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	restErr := new(discordgo.RESTError)
	if !errors.As(err, &restErr) || restErr.Message == nil {
		return err
	}

	switch restErr.Message.Code {
	case discordgo.ErrCodeMissingPermissions,
		discordgo.ErrCodeMissingAccess,
		discordgo.ErrCodeCannotSendMessagesToThisUser:
		return fmt.Errorf("%w: %s", ErrPermissionDenied, restErr.Message.Message)
	case discordgo.ErrCodeUnknownChannel,
		discordgo.ErrCodeUnknownMessage,
		discordgo.ErrCodeUnknownRole,
		discordgo.ErrCodeUnknownMember,
		discordgo.ErrCodeUnknownUser:
		return fmt.Errorf("%w: %s", ErrNotFound, restErr.Message.Message)
	default:
		return err
	}
}

func (g *discordGateway) GrantRole(ctx context.Context, guildID, userID, roleID, reason string) error {
	if err := g.s.GuildMemberRoleAdd(guildID, userID, roleID); err != nil {
		return fmt.Errorf("error granting role: %w", mapError(err))
	}
	return nil
}

func (g *discordGateway) RevokeRole(ctx context.Context, guildID, userID, roleID, reason string) error {
	if err := g.s.GuildMemberRoleRemove(guildID, userID, roleID); err != nil {
		return fmt.Errorf("error revoking role: %w", mapError(err))
	}
	return nil
}

func (g *discordGateway) CreateRole(ctx context.Context, guildID, name string, color int, reason string) (*Role, error) {
	role, err := g.s.GuildRoleCreate(guildID, &discordgo.RoleParams{
		Name:  name,
		Color: &color,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating role: %w", mapError(err))
	}

	return &Role{
		ID:    role.ID,
		Name:  role.Name,
		Color: role.Color,
	}, nil
}

func (g *discordGateway) RoleByName(ctx context.Context, guildID, name string) (*Role, error) {
	roles, err := g.s.GuildRoles(guildID)
	if err != nil {
		return nil, fmt.Errorf("error getting roles: %w", mapError(err))
	}

	// Role names are the identity key for teams; the match is case-sensitive.
	for _, role := range roles {
		if role.Name == name {
			return &Role{
				ID:    role.ID,
				Name:  role.Name,
				Color: role.Color,
			}, nil
		}
	}
	return nil, ErrNotFound
}

func (g *discordGateway) CreateChannel(ctx context.Context, guildID, name, topic string, overrides []PermissionOverride) (string, error) {
	// Deny @everyone from seeing the channel; only the override targets can.
	overwrites := []*discordgo.PermissionOverwrite{
		{
			ID:   guildID,
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: discordgo.PermissionAll,
		},
	}
	for _, o := range overrides {
		overwrites = append(overwrites, overwriteFor(o))
	}

	channel, err := g.s.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:                 name,
		Type:                 discordgo.ChannelTypeGuildText,
		Topic:                topic,
		PermissionOverwrites: overwrites,
	})
	if err != nil {
		return "", fmt.Errorf("error creating channel: %w", mapError(err))
	}
	return channel.ID, nil
}

func overwriteFor(o PermissionOverride) *discordgo.PermissionOverwrite {
	t := discordgo.PermissionOverwriteTypeRole
	if o.Type == OverrideMember {
		t = discordgo.PermissionOverwriteTypeMember
	}

	ow := &discordgo.PermissionOverwrite{
		ID:   o.TargetID,
		Type: t,
	}
	if o.ViewChannel {
		ow.Allow = discordgo.PermissionAllText
		ow.Deny = discordgo.PermissionMentionEveryone
	} else {
		ow.Deny = discordgo.PermissionAllText
	}
	return ow
}

func (g *discordGateway) SetChannelPermission(ctx context.Context, channelID string, override PermissionOverride) error {
	t := discordgo.PermissionOverwriteTypeRole
	if override.Type == OverrideMember {
		t = discordgo.PermissionOverwriteTypeMember
	}

	var allow, deny int64
	if override.ViewChannel {
		allow = discordgo.PermissionAllText
		deny = discordgo.PermissionMentionEveryone
	} else {
		deny = discordgo.PermissionAllText
	}

	if err := g.s.ChannelPermissionSet(channelID, override.TargetID, t, allow, deny); err != nil {
		return fmt.Errorf("error setting channel permission: %w", mapError(err))
	}
	return nil
}

func (g *discordGateway) DeleteChannel(ctx context.Context, channelID, reason string) error {
	if _, err := g.s.ChannelDelete(channelID); err != nil {
		return fmt.Errorf("error deleting channel: %w", mapError(err))
	}
	return nil
}

func (g *discordGateway) SendMessage(ctx context.Context, channelID, content string, controls ...ControlKind) (string, error) {
	if len(controls) == 0 {
		msg, err := g.s.ChannelMessageSend(channelID, content)
		if err != nil {
			return "", fmt.Errorf("error sending message: %w", mapError(err))
		}
		return msg.ID, nil
	}

	buttons := make([]discordgo.MessageComponent, 0, len(controls))
	for _, kind := range controls {
		buttons = append(buttons, buttonFor(kind))
	}

	msg, err := g.s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: content,
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: buttons,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("error sending message: %w", mapError(err))
	}
	return msg.ID, nil
}

func (g *discordGateway) SendDirectMessage(ctx context.Context, userID, content string) error {
	channel, err := g.s.UserChannelCreate(userID)
	if err != nil {
		return fmt.Errorf("error creating direct message channel: %w", mapError(err))
	}

	if _, err := g.s.ChannelMessageSend(channel.ID, content); err != nil {
		return fmt.Errorf("error sending direct message: %w", mapError(err))
	}
	return nil
}

func (g *discordGateway) EditMessage(ctx context.Context, channelID, messageID, content string) error {
	if _, err := g.s.ChannelMessageEdit(channelID, messageID, content); err != nil {
		return fmt.Errorf("error editing message: %w", mapError(err))
	}
	return nil
}

func (g *discordGateway) DisableMessageComponents(ctx context.Context, channelID, messageID string) error {
	msg, err := g.s.ChannelMessage(channelID, messageID)
	if err != nil {
		return fmt.Errorf("error getting message: %w", mapError(err))
	}

	// Disable every button on the message so the controls cannot be invoked
	// again.
	for _, comp := range msg.Components {
		row, ok := comp.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, component := range row.Components {
			if button, ok := component.(*discordgo.Button); ok {
				button.Disabled = true
			}
		}
	}

	if _, err := g.s.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    channelID,
		ID:         messageID,
		Content:    &msg.Content,
		Components: msg.Components,
	}); err != nil {
		return fmt.Errorf("error editing message: %w", mapError(err))
	}
	return nil
}
