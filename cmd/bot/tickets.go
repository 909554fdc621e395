package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/databounty/warden/cmd/bot/monitoring"
	"github.com/databounty/warden/pkg/gateway"
	"github.com/databounty/warden/pkg/logging"
	"github.com/databounty/warden/pkg/messages"
	"github.com/databounty/warden/pkg/tickets"
)

const (
	// TicketCreationModalID is the custom ID for the ticket creation modal.
	TicketCreationModalID = "ticket_creation_modal"

	// ticketSubjectInputID is the custom ID for the subject input.
	ticketSubjectInputID = "ticket_subject_input"

	// ticketDescriptionInputID is the custom ID for the description input.
	ticketDescriptionInputID = "ticket_description_input"
)

// openTicketButtonHandler responds to the open ticket button with the creation
// modal, unless the user already has an open ticket.
func openTicketButtonHandler(a IApp, i *discordgo.InteractionCreate) error {
	doc, err := a.Store().Load(context.Background())
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	// One open ticket per user. Point them at the existing channel instead of
	// opening the modal.
	if existing := doc.OpenTicketFor(i.Member.User.ID); existing != nil {
		return respondEphemeral(a, i, fmt.Sprintf("You already have an open ticket: <#%s>", existing.ChannelID))
	}

	return a.Session().InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: TicketCreationModalID,
			Title:    "Create Support Ticket",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:  ticketSubjectInputID,
							Label:     "Subject",
							Style:     discordgo.TextInputShort,
							Required:  true,
							MaxLength: 100,
						},
					},
				},
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:  ticketDescriptionInputID,
							Label:     "Description",
							Style:     discordgo.TextInputParagraph,
							Required:  true,
							MaxLength: 1000,
						},
					},
				},
			},
		},
	})
}

// ticketCreationModalHandler creates the ticket from the submitted modal.
func ticketCreationModalHandler(a IApp, i *discordgo.InteractionCreate) error {
	subject := modalInputValue(i, ticketSubjectInputID)
	description := modalInputValue(i, ticketDescriptionInputID)

	res, err := a.Tickets().Create(context.Background(), i.GuildID, i.Member.User.ID, i.Member.User.Username, subject, description)
	if err != nil {
		a.Log().Error("Error creating ticket",
			slog.String(logging.KeyUser, i.Member.User.ID),
			slog.String(logging.KeyError, err.Error()))
		return respondEphemeral(a, i, messages.ErrNoPermissionTicketChannels)
	}

	if res.AlreadyOpen {
		return respondEphemeral(a, i, fmt.Sprintf("You already have an open ticket: <#%s>", res.Ticket.ChannelID))
	}

	monitoring.TotalTicketsOpened.Inc()
	return respondEphemeral(a, i, fmt.Sprintf("Your ticket has been created: <#%s>", res.Ticket.ChannelID))
}

// closeTicketButtonHandler asks the user to confirm closing the ticket that
// owns the channel the button was clicked in.
func closeTicketButtonHandler(a IApp, i *discordgo.InteractionCreate) error {
	ticket, err := a.Tickets().TicketByChannel(context.Background(), i.ChannelID)
	if err != nil {
		if errors.Is(err, tickets.ErrNotFound) {
			return respondEphemeral(a, i, messages.TicketGone)
		}
		return fmt.Errorf("error finding ticket for channel: %w", err)
	}

	ttl, err := a.Tickets().RequestClose(context.Background(), ticket.ID, i.Member.User.ID)
	if err != nil {
		if errors.Is(err, tickets.ErrAlreadyClosed) || errors.Is(err, tickets.ErrNotFound) {
			return respondEphemeral(a, i, messages.TicketGone)
		}
		return fmt.Errorf("error requesting ticket close: %w", err)
	}

	content := fmt.Sprintf("Are you sure you want to close this ticket? This confirmation expires in %d seconds.", int(ttl.Seconds()))
	return respondEphemeralComponents(a, i, content, []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "✅ Confirm",
					Style:    discordgo.DangerButton,
					CustomID: gateway.ConfirmCloseButtonID,
				},
				discordgo.Button{
					Label:    "❌ Cancel",
					Style:    discordgo.SecondaryButton,
					CustomID: gateway.CancelCloseButtonID,
				},
			},
		},
	})
}

// confirmCloseButtonHandler completes a pending close request.
func confirmCloseButtonHandler(a IApp, i *discordgo.InteractionCreate) error {
	ticket, err := a.Tickets().ConfirmClose(context.Background(), i.Member.User.ID)
	if err != nil {
		switch {
		case errors.Is(err, tickets.ErrConfirmExpired):
			return respondEphemeral(a, i, "This confirmation has expired. Click the close button again if you still want to close the ticket.")
		case errors.Is(err, tickets.ErrAlreadyClosed), errors.Is(err, tickets.ErrNotFound):
			return respondEphemeral(a, i, messages.TicketGone)
		default:
			return fmt.Errorf("error closing ticket: %w", err)
		}
	}

	monitoring.TotalTicketsClosed.Inc()
	a.Log().Info("Ticket closed",
		slog.Int(logging.KeyTicket, ticket.ID),
		slog.String(logging.KeyUser, i.Member.User.ID))

	// The closure notice is posted in the ticket channel by the manager, so the
	// interaction only needs acknowledging.
	return respondDeferredUpdate(a, i)
}

// cancelCloseButtonHandler abandons a pending close request.
func cancelCloseButtonHandler(a IApp, i *discordgo.InteractionCreate) error {
	a.Tickets().CancelClose(i.Member.User.ID)
	return respondEphemeral(a, i, messages.TicketClosureCancelled)
}

// modalInputValue extracts the value of a text input from a submitted modal.
func modalInputValue(i *discordgo.InteractionCreate, customID string) string {
	for _, row := range i.ModalSubmitData().Components {
		ar, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, c := range ar.Components {
			input, ok := c.(*discordgo.TextInput)
			if !ok {
				continue
			}
			if input.CustomID == customID {
				return strings.TrimSpace(input.Value)
			}
		}
	}
	return ""
}
