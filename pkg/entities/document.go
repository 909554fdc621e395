package entities

import "strconv"

// ConfigDocument is the single persisted state document for the bot. Every
// mutation replaces the whole document; readers always see a fully formed
// document. A missing key means the feature has not been configured.
type ConfigDocument struct {
	// WelcomeChannelID is the channel that welcome messages are sent to.
	WelcomeChannelID string `json:"welcome_channel,omitempty" bson:"welcome_channel,omitempty"`

	// ChannelSelector is the ad-hoc emoji to role mapping registry.
	ChannelSelector *ChannelSelector `json:"channel_selector,omitempty" bson:"channel_selector,omitempty"`

	// RoleSelector is the fixed participant/organiser selector.
	RoleSelector *RoleSelector `json:"role_selector,omitempty" bson:"role_selector,omitempty"`

	// SupportRoleID is the role granted visibility of every ticket channel.
	SupportRoleID string `json:"support_role_id,omitempty" bson:"support_role_id,omitempty"`

	// TicketSystem is the location of the ticket entry point message.
	TicketSystem *TicketSystemConfig `json:"ticket_system,omitempty" bson:"ticket_system,omitempty"`

	// Tickets is every ticket ever created, keyed by the decimal ticket ID.
	Tickets map[string]*Ticket `json:"tickets,omitempty" bson:"tickets,omitempty"`

	// Registrations is the append-only team registration log.
	Registrations []*Registration `json:"registrations,omitempty" bson:"registrations,omitempty"`

	// RegistrationForm is the location of the registration form message.
	RegistrationForm *RegistrationFormConfig `json:"registration_form,omitempty" bson:"registration_form,omitempty"`

	// BotActivity is the presence activity restored on startup.
	BotActivity *BotActivity `json:"bot_activity,omitempty" bson:"bot_activity,omitempty"`

	// BotStatus is the presence status restored on startup.
	BotStatus string `json:"bot_status,omitempty" bson:"bot_status,omitempty"`
}

// NewConfigDocument returns an empty document.
func NewConfigDocument() *ConfigDocument {
	return &ConfigDocument{}
}

// Ticket returns the ticket with the given ID, or nil if it does not exist.
func (d *ConfigDocument) Ticket(id int) *Ticket {
	if d.Tickets == nil {
		return nil
	}
	return d.Tickets[strconv.Itoa(id)]
}

// PutTicket stores the ticket under its decimal ID key.
func (d *ConfigDocument) PutTicket(t *Ticket) {
	if d.Tickets == nil {
		d.Tickets = make(map[string]*Ticket)
	}
	d.Tickets[strconv.Itoa(t.ID)] = t
}

// OpenTicketFor returns the open ticket created by the given user, or nil if
// the user has no open ticket.
func (d *ConfigDocument) OpenTicketFor(userID string) *Ticket {
	for _, t := range d.Tickets {
		if t.CreatorID == userID && !t.Closed {
			return t
		}
	}
	return nil
}

// NextTicketID allocates the next ticket ID. Tickets are never removed from
// the map, so the count only grows and IDs are never reused.
func (d *ConfigDocument) NextTicketID() int {
	return len(d.Tickets) + 1
}

// BotActivity is the persisted presence activity.
type BotActivity struct {
	// Type is the activity type (playing, watching, listening, streaming, competing).
	Type string `json:"type" bson:"type"`

	// Text is the activity text.
	Text string `json:"text" bson:"text"`
}
