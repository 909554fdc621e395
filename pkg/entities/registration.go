package entities

import "github.com/databounty/warden/pkg/custom"

// Registration is a single team registration. Registrations are append-only:
// they are written for every form submission, never mutated and never
// deleted, so the log is a superset of successful registrations.
type Registration struct {
	// UserID is the discord ID of the registering user.
	UserID string `json:"user_id" bson:"user_id"`

	// DiscordName is the discord username of the registering user.
	DiscordName string `json:"user_discord_name" bson:"user_discord_name"`

	// ProvidedName is the full name the user entered in the form.
	ProvidedName string `json:"provided_name" bson:"provided_name"`

	// TeamName is the team name the user entered in the form.
	TeamName string `json:"team_name" bson:"team_name"`

	// Timestamp is the time the registration was submitted.
	Timestamp custom.Datetime `json:"timestamp" bson:"timestamp"`
}
