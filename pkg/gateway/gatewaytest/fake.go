// Package gatewaytest provides an in-memory Gateway for tests.
package gatewaytest

import (
	"context"
	"fmt"
	"sync"

	"github.com/databounty/warden/pkg/gateway"
)

// SentMessage is a message recorded by the fake.
type SentMessage struct {
	ID       string
	Content  string
	Controls []gateway.ControlKind
	Disabled bool
}

// Channel is a channel created through the fake.
type Channel struct {
	ID        string
	Name      string
	Topic     string
	Overrides []gateway.PermissionOverride
	Deleted   bool
}

// Fake is an in-memory Gateway that records every command it is issued.
// Errors can be injected per operation to exercise failure paths.
type Fake struct {
	mu sync.Mutex

	// Injectable errors, keyed by nothing: the next call of the matching
	// operation fails with the set error.
	GrantRoleErr   error
	RevokeRoleErr  error
	CreateRoleErr  error
	CreateChanErr  error
	SendMessageErr error
	DirectMsgErr   error

	roles     []*gateway.Role
	grants    map[string]map[string]bool // userID -> roleID -> held
	channels  map[string]*Channel
	messages  map[string][]*SentMessage // channelID -> messages
	dms       map[string][]string       // userID -> contents
	overrides map[string][]gateway.PermissionOverride

	nextID int
}

// New creates an empty fake gateway.
func New() *Fake {
	return &Fake{
		grants:    make(map[string]map[string]bool),
		channels:  make(map[string]*Channel),
		messages:  make(map[string][]*SentMessage),
		dms:       make(map[string][]string),
		overrides: make(map[string][]gateway.PermissionOverride),
	}
}

func (f *Fake) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

// SeedRole adds an existing role to the fake and returns it.
func (f *Fake) SeedRole(name string) *gateway.Role {
	f.mu.Lock()
	defer f.mu.Unlock()

	role := &gateway.Role{
		ID:   f.id("role"),
		Name: name,
	}
	f.roles = append(f.roles, role)
	return role
}

func (f *Fake) GrantRole(ctx context.Context, guildID, userID, roleID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.GrantRoleErr; err != nil {
		f.GrantRoleErr = nil
		return err
	}

	if f.grants[userID] == nil {
		f.grants[userID] = make(map[string]bool)
	}
	f.grants[userID][roleID] = true
	return nil
}

func (f *Fake) RevokeRole(ctx context.Context, guildID, userID, roleID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.RevokeRoleErr; err != nil {
		f.RevokeRoleErr = nil
		return err
	}

	// Revoking a role the user does not hold is a platform level no-op.
	delete(f.grants[userID], roleID)
	return nil
}

func (f *Fake) CreateRole(ctx context.Context, guildID, name string, color int, reason string) (*gateway.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.CreateRoleErr; err != nil {
		f.CreateRoleErr = nil
		return nil, err
	}

	role := &gateway.Role{
		ID:    f.id("role"),
		Name:  name,
		Color: color,
	}
	f.roles = append(f.roles, role)
	return role, nil
}

func (f *Fake) RoleByName(ctx context.Context, guildID, name string) (*gateway.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, role := range f.roles {
		if role.Name == name {
			return role, nil
		}
	}
	return nil, gateway.ErrNotFound
}

func (f *Fake) CreateChannel(ctx context.Context, guildID, name, topic string, overrides []gateway.PermissionOverride) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.CreateChanErr; err != nil {
		f.CreateChanErr = nil
		return "", err
	}

	ch := &Channel{
		ID:        f.id("channel"),
		Name:      name,
		Topic:     topic,
		Overrides: overrides,
	}
	f.channels[ch.ID] = ch
	return ch.ID, nil
}

func (f *Fake) SetChannelPermission(ctx context.Context, channelID string, override gateway.PermissionOverride) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.overrides[channelID] = append(f.overrides[channelID], override)
	return nil
}

func (f *Fake) DeleteChannel(ctx context.Context, channelID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch, ok := f.channels[channelID]
	if !ok {
		return gateway.ErrNotFound
	}
	ch.Deleted = true
	return nil
}

func (f *Fake) SendMessage(ctx context.Context, channelID, content string, controls ...gateway.ControlKind) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.SendMessageErr; err != nil {
		f.SendMessageErr = nil
		return "", err
	}

	msg := &SentMessage{
		ID:       f.id("message"),
		Content:  content,
		Controls: controls,
	}
	f.messages[channelID] = append(f.messages[channelID], msg)
	return msg.ID, nil
}

func (f *Fake) SendDirectMessage(ctx context.Context, userID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.DirectMsgErr; err != nil {
		f.DirectMsgErr = nil
		return err
	}

	f.dms[userID] = append(f.dms[userID], content)
	return nil
}

func (f *Fake) EditMessage(ctx context.Context, channelID, messageID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, msg := range f.messages[channelID] {
		if msg.ID == messageID {
			msg.Content = content
			return nil
		}
	}
	return gateway.ErrNotFound
}

func (f *Fake) DisableMessageComponents(ctx context.Context, channelID, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, msg := range f.messages[channelID] {
		if msg.ID == messageID {
			msg.Disabled = true
			return nil
		}
	}
	return gateway.ErrNotFound
}

// HasRole reports whether the user currently holds the role.
func (f *Fake) HasRole(userID, roleID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.grants[userID][roleID]
}

// UserRoles returns the IDs of the roles the user currently holds.
func (f *Fake) UserRoles(userID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var ids []string
	for id, held := range f.grants[userID] {
		if held {
			ids = append(ids, id)
		}
	}
	return ids
}

// RolesNamed returns every role with the exact given name.
func (f *Fake) RolesNamed(name string) []*gateway.Role {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*gateway.Role
	for _, role := range f.roles {
		if role.Name == name {
			out = append(out, role)
		}
	}
	return out
}

// DirectMessages returns the direct messages sent to the user.
func (f *Fake) DirectMessages(userID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.dms[userID]...)
}

// Channel returns the channel with the given ID, or nil.
func (f *Fake) Channel(channelID string) *Channel {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.channels[channelID]
}

// Messages returns the messages sent to the channel.
func (f *Fake) Messages(channelID string) []*SentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*SentMessage(nil), f.messages[channelID]...)
}

// Overrides returns the permission overrides applied to the channel after it
// was created.
func (f *Fake) Overrides(channelID string) []gateway.PermissionOverride {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]gateway.PermissionOverride(nil), f.overrides[channelID]...)
}
