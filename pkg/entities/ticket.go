package entities

import (
	"fmt"

	"github.com/databounty/warden/pkg/custom"
)

// Ticket is a support ticket backed by a private channel.
type Ticket struct {
	// ID is the number of the ticket. IDs are 1-based, strictly increasing
	// and never reused, even after the ticket is closed.
	ID int `json:"id" bson:"id"`

	// CreatorID is the ID of the user that opened the ticket.
	CreatorID string `json:"creator_id" bson:"creator_id"`

	// CreatorName is the username of the user that opened the ticket.
	CreatorName string `json:"creator_name" bson:"creator_name"`

	// ChannelID is the ID of the private channel for the ticket.
	ChannelID string `json:"channel_id" bson:"channel_id"`

	// Subject is the subject the user gave when opening the ticket.
	Subject string `json:"subject" bson:"subject"`

	// ControlMessageID is the ID of the message carrying the close control.
	ControlMessageID string `json:"control_message_id,omitempty" bson:"control_message_id,omitempty"`

	// OpenedAt is the time that the ticket was opened.
	OpenedAt custom.Datetime `json:"opened_at" bson:"opened_at"`

	// Closed is whether the ticket has been closed. A closed ticket never
	// reopens; the record is kept after the channel is deleted.
	Closed bool `json:"closed" bson:"closed"`

	// ClosedBy is the ID of the user that closed the ticket.
	ClosedBy string `json:"closed_by,omitempty" bson:"closed_by,omitempty"`

	// ClosedAt is the time that the ticket was closed.
	ClosedAt custom.Datetime `json:"closed_at,omitempty" bson:"closed_at,omitempty"`
}

// ChannelName returns the name used for the ticket channel. For example
// ticket ID 3 opened by "falcon" yields "ticket-0003-falcon".
func (t *Ticket) ChannelName() string {
	return fmt.Sprintf("ticket-%04d-%s", t.ID, t.CreatorName)
}

// Title returns the display title for the ticket.
func (t *Ticket) Title() string {
	return fmt.Sprintf("Ticket #%04d: %s", t.ID, t.Subject)
}
