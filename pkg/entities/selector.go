package entities

// ChannelSelector maps emoji reactions on a single message to channel access
// roles. Emoji keys are the custom emoji ID when the emoji is custom, or the
// emoji name for unicode emoji, and are unique within the selector.
type ChannelSelector struct {
	// MessageID is the ID of the selector message.
	MessageID string `json:"message_id" bson:"message_id"`

	// ChannelID is the ID of the channel the selector message is in.
	ChannelID string `json:"channel_id" bson:"channel_id"`

	// Entries maps an emoji key to the role it grants.
	Entries map[string]*ChannelSelectorEntry `json:"emoji_role_pairs" bson:"emoji_role_pairs"`
}

// Entry returns the entry for the emoji key, or nil when the emoji is not
// part of the selector.
func (s *ChannelSelector) Entry(emojiKey string) *ChannelSelectorEntry {
	if s == nil || s.Entries == nil {
		return nil
	}
	return s.Entries[emojiKey]
}

// ChannelSelectorEntry is a single emoji to role association.
type ChannelSelectorEntry struct {
	// RoleID is the role granted by reacting with the emoji.
	RoleID string `json:"role_id" bson:"role_id"`

	// ChannelID is the channel the role gives access to, referenced in the
	// confirmation notice sent to the user.
	ChannelID string `json:"channel_id" bson:"channel_id"`
}

// RoleSelector is the fixed participant/organiser selector. Only one selector
// is active at a time; setting up a new one overwrites this pointer and
// reactions on the superseded message are no longer honoured.
type RoleSelector struct {
	// MessageID is the ID of the selector message.
	MessageID string `json:"message_id" bson:"message_id"`

	// ChannelID is the ID of the channel the selector message is in.
	ChannelID string `json:"channel_id" bson:"channel_id"`

	// ParticipantRoleID is the role granted by the participant emoji.
	ParticipantRoleID string `json:"participant_role_id" bson:"participant_role_id"`

	// OrganisateurRoleID is the role granted by the organiser emoji.
	OrganisateurRoleID string `json:"organisateur_role_id" bson:"organisateur_role_id"`
}

// TicketSystemConfig is the location of the ticket entry point message.
type TicketSystemConfig struct {
	// ChannelID is the channel the entry point message is in.
	ChannelID string `json:"channel_id" bson:"channel_id"`

	// MessageID is the ID of the entry point message.
	MessageID string `json:"message_id" bson:"message_id"`
}

// RegistrationFormConfig is the location of the registration form message.
type RegistrationFormConfig struct {
	// ChannelID is the channel the form message is in.
	ChannelID string `json:"channel_id" bson:"channel_id"`

	// MessageID is the ID of the form message.
	MessageID string `json:"message_id" bson:"message_id"`
}
