package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/databounty/warden/pkg/entities"
	"github.com/databounty/warden/pkg/gateway"
	"github.com/databounty/warden/pkg/registration"
	"github.com/databounty/warden/pkg/selector"
)

const (
	// setupCmdName is the command for all configuration commands.
	setupCmdName = "setup"

	// roleSelectionCmdName is the sub command that posts the role selection message.
	roleSelectionCmdName = "role_selection"

	// ticketsCmdName is the sub command that posts the ticket system message.
	ticketsCmdName = "tickets"

	// registrationCmdName is the sub command that posts the registration form message.
	registrationCmdName = "registration"

	// channelRoleCmdName is the sub command that maps an emoji to a channel role.
	channelRoleCmdName = "channel_role"

	// exportRegistrationsCmdName is the sub command that exports registrations as CSV.
	exportRegistrationsCmdName = "export_registrations"

	// channelOptName is the name of the channel option.
	channelOptName = "channel"

	// roleOptName is the name of the role option.
	roleOptName = "role"

	// emojiOptName is the name of the emoji option.
	emojiOptName = "emoji"

	// supportRoleOptName is the name of the support role option.
	supportRoleOptName = "support_role"
)

const (
	// participantRoleName is the name of the participant role.
	participantRoleName = "Participant"

	// organisateurRoleName is the name of the organiser role.
	organisateurRoleName = "Organisateur"

	// participantRoleColor is blue.
	participantRoleColor = 0x3498DB

	// organisateurRoleColor is red.
	organisateurRoleColor = 0xE74C3C
)

var (
	// setupCmd is the command for all configuration commands.
	setupCmd = &discordgo.ApplicationCommand{
		Name:        setupCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "This is the command for all configuration commands.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        roleSelectionCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This will post the role selection message in the channel you specify.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        channelOptName,
						Type:        discordgo.ApplicationCommandOptionChannel,
						Description: "This is the channel to post the role selection message in.",
						Required:    false,
					},
				},
			},
			{
				Name:        ticketsCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This will post the support ticket message in the channel you specify.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        channelOptName,
						Type:        discordgo.ApplicationCommandOptionChannel,
						Description: "This is the channel to post the ticket message in.",
						Required:    false,
					},
					{
						Name:        supportRoleOptName,
						Type:        discordgo.ApplicationCommandOptionRole,
						Description: "This is the role that can see every ticket channel.",
						Required:    false,
					},
				},
			},
			{
				Name:        registrationCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This will post the team registration form in the channel you specify.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        channelOptName,
						Type:        discordgo.ApplicationCommandOptionChannel,
						Description: "This is the channel to post the registration form in.",
						Required:    false,
					},
				},
			},
			{
				Name:        channelRoleCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This will map an emoji on the channel selector to a role and channel.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        emojiOptName,
						Type:        discordgo.ApplicationCommandOptionString,
						Description: "This is the emoji users react with.",
						Required:    true,
					},
					{
						Name:        roleOptName,
						Type:        discordgo.ApplicationCommandOptionRole,
						Description: "This is the role the reaction grants.",
						Required:    true,
					},
					{
						Name:        channelOptName,
						Type:        discordgo.ApplicationCommandOptionChannel,
						Description: "This is the channel the role gives access to.",
						Required:    true,
					},
				},
			},
			{
				Name:        exportRegistrationsCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This will export all team registrations as a CSV file.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        channelOptName,
						Type:        discordgo.ApplicationCommandOptionChannel,
						Description: "This is the channel to send the CSV file to.",
						Required:    false,
					},
				},
			},
		},
	}
)

func setupCmdController(a IApp, i *discordgo.InteractionCreate) (commandProcessor, error) {
	// Ensure the user is an administrator.
	if i.Member.Permissions&discordgo.PermissionAdministrator != discordgo.PermissionAdministrator {
		if err := respondEphemeral(a, i, "You must be an administrator to use this command"); err != nil {
			return nil, fmt.Errorf("error responding to interaction: %w", err)
		}
		return nil, nil
	}

	// Extract the sub command.
	subCmd := i.ApplicationCommandData().Options[0].Name

	switch subCmd {
	case roleSelectionCmdName:
		return roleSelectionCmdProcessor, nil
	case ticketsCmdName:
		return ticketSystemCmdProcessor, nil
	case registrationCmdName:
		return registrationCmdProcessor, nil
	case channelRoleCmdName:
		return channelRoleCmdProcessor, nil
	case exportRegistrationsCmdName:
		return exportRegistrationsCmdProcessor, nil
	default:
		return nil, fmt.Errorf("unhandled sub command %s", subCmd)
	}
}

// subCommandOptions indexes the options of the invoked sub command by name.
func subCommandOptions(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	opts := make(map[string]*discordgo.ApplicationCommandInteractionDataOption)
	for _, o := range i.ApplicationCommandData().Options[0].Options {
		opts[o.Name] = o
	}
	return opts
}

// targetChannelID returns the channel option value, defaulting to the channel
// the command was invoked in.
func targetChannelID(a IApp, i *discordgo.InteractionCreate) string {
	if o, ok := subCommandOptions(i)[channelOptName]; ok {
		return o.ChannelValue(a.Session()).ID
	}
	return i.ChannelID
}

// roleSelectionCmdProcessor posts and pins the fixed role selection message and
// ensures the Participant and Organisateur roles exist.
func roleSelectionCmdProcessor(a IApp, i *discordgo.InteractionCreate) error {
	ctx := context.Background()
	channelID := targetChannelID(a, i)

	guildName := ""
	if guild, err := a.Session().Guild(i.GuildID); err == nil {
		guildName = guild.Name
	}

	msg, err := a.Session().ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embed: &discordgo.MessageEmbed{
			Title: "Select Your Role",
			Description: "React below to select your role in the server!\n\n" +
				selector.ParticipantEmoji + " - Participant\n" +
				selector.OrganisateurEmoji + " - Organisateur\n\n" +
				"Click on the reaction that corresponds to your role.",
			Color: 0xF1C40F,
			Footer: &discordgo.MessageEmbedFooter{
				Text: fmt.Sprintf("Role Selection | %s", guildName),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("error sending role selection message: %w", err)
	}

	if err := a.Session().ChannelMessagePin(channelID, msg.ID); err != nil {
		return fmt.Errorf("error pinning role selection message: %w", err)
	}

	// Seed the selection reactions so users only have to click.
	if err := a.Session().MessageReactionAdd(channelID, msg.ID, selector.ParticipantEmoji); err != nil {
		return fmt.Errorf("error adding participant reaction: %w", err)
	}
	if err := a.Session().MessageReactionAdd(channelID, msg.ID, selector.OrganisateurEmoji); err != nil {
		return fmt.Errorf("error adding organisateur reaction: %w", err)
	}

	participant, err := findOrCreateRole(ctx, a, i.GuildID, participantRoleName, participantRoleColor)
	if err != nil {
		return fmt.Errorf("error ensuring participant role: %w", err)
	}
	organisateur, err := findOrCreateRole(ctx, a, i.GuildID, organisateurRoleName, organisateurRoleColor)
	if err != nil {
		return fmt.Errorf("error ensuring organisateur role: %w", err)
	}

	// A new setup replaces any previous selector; reactions on the superseded
	// message are ignored from here on.
	if err := a.Store().Update(ctx, func(doc *entities.ConfigDocument) error {
		doc.RoleSelector = &entities.RoleSelector{
			MessageID:          msg.ID,
			ChannelID:          channelID,
			ParticipantRoleID:  participant.ID,
			OrganisateurRoleID: organisateur.ID,
		}
		return nil
	}); err != nil {
		return fmt.Errorf("error saving role selector: %w", err)
	}

	return respondEphemeral(a, i, fmt.Sprintf("Role selection message created and pinned in <#%s>!", channelID))
}

// ticketSystemCmdProcessor posts the support ticket message with its open button.
func ticketSystemCmdProcessor(a IApp, i *discordgo.InteractionCreate) error {
	channelID := targetChannelID(a, i)

	msg, err := a.Session().ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embed: &discordgo.MessageEmbed{
			Title: "🎫 Support Tickets DataBOUNTY",
			Description: "Need help? Click the button below to create a support ticket.\n\n" +
				"A private channel will be created where you can discuss your issue with our support team.",
			Color: 0x5865F2,
		},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    "🎫 Create Support Ticket",
						Style:    discordgo.PrimaryButton,
						CustomID: gateway.OpenTicketButtonID,
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("error sending ticket system message: %w", err)
	}

	if err := a.Store().Update(context.Background(), func(doc *entities.ConfigDocument) error {
		doc.TicketSystem = &entities.TicketSystemConfig{
			ChannelID: channelID,
			MessageID: msg.ID,
		}
		if o, ok := subCommandOptions(i)[supportRoleOptName]; ok {
			doc.SupportRoleID = o.RoleValue(a.Session(), i.GuildID).ID
		}
		return nil
	}); err != nil {
		return fmt.Errorf("error saving ticket system config: %w", err)
	}

	return respondEphemeral(a, i, fmt.Sprintf("Ticket system has been set up in <#%s>!", channelID))
}

// registrationCmdProcessor posts the team registration form message with its button.
func registrationCmdProcessor(a IApp, i *discordgo.InteractionCreate) error {
	channelID := targetChannelID(a, i)

	msg, err := a.Session().ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embed: &discordgo.MessageEmbed{
			Title: "Team Registration",
			Description: "Click the button below to register for a team.\n\n" +
				"You'll be asked to provide:\n" +
				"• Your full name\n" +
				"• Your team name\n\n" +
				"After registration, Check your role if you have new role Team Name",
			Color: 0x3498DB,
		},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    "Register for a Team",
						Style:    discordgo.PrimaryButton,
						CustomID: gateway.RegisterTeamButtonID,
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("error sending registration form message: %w", err)
	}

	if err := a.Store().Update(context.Background(), func(doc *entities.ConfigDocument) error {
		doc.RegistrationForm = &entities.RegistrationFormConfig{
			MessageID: msg.ID,
			ChannelID: channelID,
		}
		return nil
	}); err != nil {
		return fmt.Errorf("error saving registration form config: %w", err)
	}

	return respondEphemeral(a, i, fmt.Sprintf("Registration form has been set up in <#%s>.", channelID))
}

// channelRoleCmdProcessor maps an emoji on the channel selector message to a
// role and the channel it unlocks. The selector message is created on first use.
func channelRoleCmdProcessor(a IApp, i *discordgo.InteractionCreate) error {
	opts := subCommandOptions(i)
	emoji := opts[emojiOptName].StringValue()
	role := opts[roleOptName].RoleValue(a.Session(), i.GuildID)
	channel := opts[channelOptName].ChannelValue(a.Session())

	var selectorMessageID, selectorChannelID string
	if err := a.Store().Update(context.Background(), func(doc *entities.ConfigDocument) error {
		if doc.ChannelSelector == nil || doc.ChannelSelector.MessageID == "" {
			msg, err := a.Session().ChannelMessageSend(i.ChannelID, "React below to get access to the channels you are interested in!")
			if err != nil {
				return fmt.Errorf("error sending channel selector message: %w", err)
			}
			doc.ChannelSelector = &entities.ChannelSelector{
				MessageID: msg.ID,
				ChannelID: i.ChannelID,
			}
		}
		if doc.ChannelSelector.Entries == nil {
			doc.ChannelSelector.Entries = make(map[string]*entities.ChannelSelectorEntry)
		}
		doc.ChannelSelector.Entries[emoji] = &entities.ChannelSelectorEntry{
			RoleID:    role.ID,
			ChannelID: channel.ID,
		}
		selectorMessageID = doc.ChannelSelector.MessageID
		selectorChannelID = doc.ChannelSelector.ChannelID
		return nil
	}); err != nil {
		return fmt.Errorf("error saving channel selector: %w", err)
	}

	// Seed the reaction so users only have to click.
	if err := a.Session().MessageReactionAdd(selectorChannelID, selectorMessageID, emoji); err != nil {
		return fmt.Errorf("error adding selector reaction: %w", err)
	}

	return respondEphemeral(a, i, fmt.Sprintf("Reacting with %s on the selector now grants <@&%s> and access to <#%s>.", emoji, role.ID, channel.ID))
}

// exportRegistrationsCmdProcessor exports all registrations as a CSV file.
func exportRegistrationsCmdProcessor(a IApp, i *discordgo.InteractionCreate) error {
	channelID := targetChannelID(a, i)

	data, err := a.Registration().ExportCSV(context.Background())
	if err != nil {
		if errors.Is(err, registration.ErrNoRegistrations) {
			return respondEphemeral(a, i, "No registrations found!")
		}
		return fmt.Errorf("error exporting registrations: %w", err)
	}

	filename := fmt.Sprintf("team_registrations_%s.csv", time.Now().Format("20060102_150405"))
	if _, err := a.Session().ChannelFileSendWithMessage(channelID, "Here are the team registrations:", filename, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("error sending registrations file: %w", err)
	}

	return respondEphemeral(a, i, fmt.Sprintf("Registrations exported to <#%s>.", channelID))
}

// findOrCreateRole returns the role with the given name, creating it when absent.
func findOrCreateRole(ctx context.Context, a IApp, guildID, name string, color int) (*gateway.Role, error) {
	role, err := a.Gateway().RoleByName(ctx, guildID, name)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, gateway.ErrNotFound) {
		return nil, err
	}
	return a.Gateway().CreateRole(ctx, guildID, name, color, "Auto-created for role selection")
}
