package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/databounty/warden/cmd/bot/monitoring"
	"github.com/databounty/warden/pkg/logging"
	"github.com/databounty/warden/pkg/messages"
	"github.com/databounty/warden/pkg/registration"
)

const (
	// TeamRegistrationModalID is the custom ID for the team registration modal.
	TeamRegistrationModalID = "team_registration_modal"

	// registrationNameInputID is the custom ID for the full name input.
	registrationNameInputID = "registration_name_input"

	// registrationTeamInputID is the custom ID for the team name input.
	registrationTeamInputID = "registration_team_input"
)

// registerTeamButtonHandler responds to the registration button with the
// registration form modal.
func registerTeamButtonHandler(a IApp, i *discordgo.InteractionCreate) error {
	return a.Session().InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: TeamRegistrationModalID,
			Title:    "Team Registration",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:    registrationNameInputID,
							Label:       "Your Full Name",
							Placeholder: "Enter your Full Name",
							Style:       discordgo.TextInputShort,
							Required:    true,
							MaxLength:   100,
						},
					},
				},
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:    registrationTeamInputID,
							Label:       "Your Team Name",
							Placeholder: "Enter your TEAM Name",
							Style:       discordgo.TextInputShort,
							Required:    true,
							MaxLength:   100,
						},
					},
				},
			},
		},
	})
}

// teamRegistrationModalHandler stores the registration and assigns the team role.
func teamRegistrationModalHandler(a IApp, i *discordgo.InteractionCreate) error {
	providedName := modalInputValue(i, registrationNameInputID)
	teamName := modalInputValue(i, registrationTeamInputID)

	res, err := a.Registration().Submit(context.Background(), i.GuildID, i.Member.User.ID, i.Member.User.Username, providedName, teamName)
	if err != nil {
		// The registration record is kept even when the role work fails, so the
		// user only needs telling about the role problem.
		switch {
		case errors.Is(err, registration.ErrTeamRoleCreate):
			return respondEphemeral(a, i, messages.ErrNoPermissionCreateRoles)
		case errors.Is(err, registration.ErrTeamRoleGrant):
			return respondEphemeral(a, i, messages.ErrNoPermissionAssignRoles)
		default:
			a.Log().Error("Error submitting registration",
				slog.String(logging.KeyUser, i.Member.User.ID),
				slog.String(logging.KeyError, err.Error()))
			return respondError(a, i)
		}
	}

	monitoring.TotalRegistrations.Inc()

	if res.TeamCreated {
		return respondEphemeral(a, i, fmt.Sprintf("Thank you for registering, **%s**! 🤗 ", res.ProvidedName))
	}
	return respondEphemeral(a, i, fmt.Sprintf("Thank you for registering, %s! You've been assigned to team **%s**.", res.ProvidedName, res.TeamName))
}
