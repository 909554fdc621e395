// Package gateway is the boundary between the interaction core and the
// platform. The core consumes normalized events and issues side-effecting
// commands through the Gateway interface; the discord implementation performs
// the actual network calls and owns all message formatting.
package gateway

import "context"

// OverrideType is the kind of target a permission override applies to.
type OverrideType int

const (
	// OverrideRole applies the override to a role.
	OverrideRole OverrideType = iota

	// OverrideMember applies the override to a single member.
	OverrideMember
)

// PermissionOverride grants or denies channel visibility for a single target.
type PermissionOverride struct {
	// TargetID is the role or member the override applies to.
	TargetID string

	// Type is the kind of target.
	Type OverrideType

	// ViewChannel is whether the target can see the channel.
	ViewChannel bool
}

// Role is a platform role.
type Role struct {
	// ID is the platform ID of the role.
	ID string

	// Name is the display name of the role. Role names are the identity key
	// for team roles, compared case-sensitively.
	Name string

	// Color is the colour of the role.
	Color int
}

// ControlKind is the closed set of interactive controls the core can attach
// to a message. The discord implementation maps each kind onto a button.
type ControlKind int

const (
	// ControlCloseTicket requests closure of the ticket the message is in.
	ControlCloseTicket ControlKind = iota

	// ControlConfirmClose confirms a pending ticket closure.
	ControlConfirmClose

	// ControlCancelClose cancels a pending ticket closure.
	ControlCancelClose

	// ControlRegisterTeam opens the team registration form.
	ControlRegisterTeam

	// ControlOpenTicket opens the ticket creation form.
	ControlOpenTicket
)

// Gateway is every command the interaction core issues back to the platform.
type Gateway interface {
	// GrantRole grants the role to the user.
	GrantRole(ctx context.Context, guildID, userID, roleID, reason string) error

	// RevokeRole revokes the role from the user. Revoking a role the user
	// does not hold is a no-op on the platform side.
	RevokeRole(ctx context.Context, guildID, userID, roleID, reason string) error

	// CreateRole creates a new role with the given name and colour.
	CreateRole(ctx context.Context, guildID, name string, color int, reason string) (*Role, error)

	// RoleByName returns the role with the exact given name, or ErrNotFound.
	RoleByName(ctx context.Context, guildID, name string) (*Role, error)

	// CreateChannel creates a text channel visible only to the targets of the
	// given overrides and returns its ID.
	CreateChannel(ctx context.Context, guildID, name, topic string, overrides []PermissionOverride) (string, error)

	// SetChannelPermission replaces the override for one target on a channel.
	SetChannelPermission(ctx context.Context, channelID string, override PermissionOverride) error

	// DeleteChannel deletes the channel.
	DeleteChannel(ctx context.Context, channelID, reason string) error

	// SendMessage sends a message to a channel, attaching the given controls,
	// and returns the message ID.
	SendMessage(ctx context.Context, channelID, content string, controls ...ControlKind) (string, error)

	// SendDirectMessage sends a direct message to the user. A user that does
	// not accept direct messages yields ErrPermissionDenied.
	SendDirectMessage(ctx context.Context, userID, content string) error

	// EditMessage replaces the content of a message.
	EditMessage(ctx context.Context, channelID, messageID, content string) error

	// DisableMessageComponents disables every control on a message so it
	// cannot be invoked again.
	DisableMessageComponents(ctx context.Context, channelID, messageID string) error
}

// ReactionEvent is a normalized reaction add or remove.
type ReactionEvent struct {
	// GuildID is the guild the reaction happened in.
	GuildID string

	// MessageID is the message that was reacted to.
	MessageID string

	// UserID is the user that reacted.
	UserID string

	// EmojiID is the ID of the emoji when it is a custom emoji, empty for
	// unicode emoji.
	EmojiID string

	// EmojiName is the name of the emoji. For unicode emoji this is the
	// emoji itself.
	EmojiName string

	// IsBot is whether the reacting user is a bot.
	IsBot bool
}

// EmojiKey returns the registry key for the emoji: the custom emoji ID when
// present, otherwise the emoji name.
func (e *ReactionEvent) EmojiKey() string {
	if e.EmojiID != "" {
		return e.EmojiID
	}
	return e.EmojiName
}

// DirectMessage is a normalized direct message received from a user.
type DirectMessage struct {
	// AuthorID is the user that sent the message.
	AuthorID string

	// Content is the message text.
	Content string

	// IsBot is whether the author is a bot.
	IsBot bool
}
