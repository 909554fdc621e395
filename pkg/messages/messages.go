// Package messages contains the user facing message text for the bot.
package messages

const (
	// ErrUserErrorProcessing is sent to the user when a command fails for an
	// unexpected reason.
	ErrUserErrorProcessing = `Something went wrong whilst processing your request. Please try again later.`

	// ErrNoPermissionCreateRoles is sent when the bot cannot create roles.
	ErrNoPermissionCreateRoles = `I don't have permission to create roles.`

	// ErrNoPermissionAssignRoles is sent when the bot cannot assign roles.
	ErrNoPermissionAssignRoles = `I don't have permission to assign roles.`

	// ErrNoPermissionTicketChannels is sent when the bot cannot create ticket channels.
	ErrNoPermissionTicketChannels = `I don't have permission to create ticket channels.`

	// ErrNoPermissionManageTicket is sent when the bot cannot manage a ticket channel.
	ErrNoPermissionManageTicket = `I don't have permission to manage this ticket channel.`

	// TicketGone is sent when a ticket control targets a ticket that no longer exists.
	TicketGone = `This ticket no longer exists.`

	// TicketClosureCancelled is shown when the user cancels closing a ticket.
	TicketClosureCancelled = `Ticket closure cancelled.`

	// TeamNamePrompt is the direct message sent to a new organiser asking for
	// their team name.
	TeamNamePrompt = `You have been assigned the Organisateur role! Please reply with your team name to create or join a team.`

	// TeamNameTimeout is sent when the organiser does not reply with a team
	// name before the session times out.
	TeamNameTimeout = `You didn't provide a team name in time. You can use a command later to join a team.`

	// ParticipantAssigned is the direct message sent when the participant role
	// is granted.
	ParticipantAssigned = `You have been assigned the Participant role!`
)
