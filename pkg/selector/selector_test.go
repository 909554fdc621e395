package selector

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/databounty/warden/pkg/dataaccess"
	"github.com/databounty/warden/pkg/entities"
	"github.com/databounty/warden/pkg/gateway"
	"github.com/databounty/warden/pkg/gateway/gatewaytest"
	"github.com/databounty/warden/pkg/logging"
	"github.com/databounty/warden/pkg/messages"
	"github.com/databounty/warden/pkg/sessions"
	"github.com/stretchr/testify/require"
)

const (
	roleSelectorMsg    = "role-selector-msg"
	channelSelectorMsg = "channel-selector-msg"
	participantRole    = "participant-role"
	organisateurRole   = "organisateur-role"
	gamingRole         = "gaming-role"
	gamingChannel      = "gaming-channel"
	gamingEmoji        = "🎮"
)

func newTestEngine(t *testing.T) (*Engine, *gatewaytest.Fake, *sessions.Manager) {
	t.Helper()

	// Setup logger
	l, err := logging.CommonLogger(logging.NewConfig(`tests`))
	require.NoError(t, err, "Failed to create logger")

	store := dataaccess.NewFileStore(filepath.Join(t.TempDir(), "bot_config.json"), l)
	require.NoError(t, store.Update(context.Background(), func(doc *entities.ConfigDocument) error {
		doc.RoleSelector = &entities.RoleSelector{
			MessageID:          roleSelectorMsg,
			ChannelID:          "selector-channel",
			ParticipantRoleID:  participantRole,
			OrganisateurRoleID: organisateurRole,
		}
		doc.ChannelSelector = &entities.ChannelSelector{
			MessageID: channelSelectorMsg,
			ChannelID: "selector-channel",
			Entries: map[string]*entities.ChannelSelectorEntry{
				gamingEmoji: {RoleID: gamingRole, ChannelID: gamingChannel},
			},
		}
		return nil
	}))

	gw := gatewaytest.New()
	sm := sessions.NewManager(gw, l)
	return NewEngine(store, gw, sm, l), gw, sm
}

func reaction(messageID, userID, emoji string) *gateway.ReactionEvent {
	return &gateway.ReactionEvent{
		GuildID:   "guild-1",
		MessageID: messageID,
		UserID:    userID,
		EmojiName: emoji,
	}
}

func TestEngine_HandleReactionAdd_ChannelSelector(t *testing.T) {
	e, gw, _ := newTestEngine(t)

	handled, err := e.HandleReactionAdd(context.Background(), reaction(channelSelectorMsg, "user-1", gamingEmoji))
	require.NoError(t, err)
	require.True(t, handled)
	require.True(t, gw.HasRole("user-1", gamingRole))
	require.Equal(t, []string{fmt.Sprintf("You now have access to the <#%s> channel!", gamingChannel)}, gw.DirectMessages("user-1"))
}

func TestEngine_HandleReactionAdd_Ignored(t *testing.T) {
	tests := []struct {
		name string
		ev   *gateway.ReactionEvent
	}{
		{
			name: "UnknownMessage",
			ev:   reaction("some-other-msg", "user-1", gamingEmoji),
		},
		{
			name: "UnknownEmojiOnChannelSelector",
			ev:   reaction(channelSelectorMsg, "user-1", "🎲"),
		},
		{
			name: "UnknownEmojiOnRoleSelector",
			ev:   reaction(roleSelectorMsg, "user-1", "🎲"),
		},
		{
			name: "BotReaction",
			ev: &gateway.ReactionEvent{
				GuildID:   "guild-1",
				MessageID: channelSelectorMsg,
				UserID:    "bot-1",
				EmojiName: gamingEmoji,
				IsBot:     true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, gw, _ := newTestEngine(t)

			handled, err := e.HandleReactionAdd(context.Background(), tt.ev)
			require.NoError(t, err)
			require.False(t, handled)
			require.Empty(t, gw.UserRoles(tt.ev.UserID))
			require.Empty(t, gw.DirectMessages(tt.ev.UserID))
		})
	}
}

func TestEngine_HandleReactionAdd_Participant(t *testing.T) {
	e, gw, _ := newTestEngine(t)

	handled, err := e.HandleReactionAdd(context.Background(), reaction(roleSelectorMsg, "user-1", ParticipantEmoji))
	require.NoError(t, err)
	require.True(t, handled)
	require.True(t, gw.HasRole("user-1", participantRole))
	require.Equal(t, []string{messages.ParticipantAssigned}, gw.DirectMessages("user-1"))
}

func TestEngine_HandleReactionAdd_PermissionDeniedSwallowed(t *testing.T) {
	e, gw, _ := newTestEngine(t)
	gw.GrantRoleErr = gateway.ErrPermissionDenied

	handled, err := e.HandleReactionAdd(context.Background(), reaction(roleSelectorMsg, "user-1", ParticipantEmoji))
	require.NoError(t, err, "a permission failure is logged, not propagated")
	require.True(t, handled)
	require.False(t, gw.HasRole("user-1", participantRole))
}

func TestEngine_HandleReactionAdd_OrganisateurNewTeam(t *testing.T) {
	e, gw, sm := newTestEngine(t)

	go func() {
		require.Eventually(t, func() bool {
			return len(gw.DirectMessages("user-1")) > 0
		}, time.Second, time.Millisecond)
		sm.HandleDirectMessage(&gateway.DirectMessage{AuthorID: "user-1", Content: "Falcons"})
	}()

	handled, err := e.HandleReactionAdd(context.Background(), reaction(roleSelectorMsg, "user-1", OrganisateurEmoji))
	require.NoError(t, err)
	require.True(t, handled)

	require.True(t, gw.HasRole("user-1", organisateurRole))

	roles := gw.RolesNamed("Falcons")
	require.Len(t, roles, 1)
	require.Equal(t, teamRoleColor, roles[0].Color)
	require.True(t, gw.HasRole("user-1", roles[0].ID))

	require.Equal(t, []string{
		messages.TeamNamePrompt,
		"Created new team: Falcons",
		"You have been added to team: Falcons",
	}, gw.DirectMessages("user-1"))
}

func TestEngine_HandleReactionAdd_OrganisateurExistingTeam(t *testing.T) {
	e, gw, sm := newTestEngine(t)
	existing := gw.SeedRole("Falcons")

	go func() {
		require.Eventually(t, func() bool {
			return len(gw.DirectMessages("user-1")) > 0
		}, time.Second, time.Millisecond)
		sm.HandleDirectMessage(&gateway.DirectMessage{AuthorID: "user-1", Content: "Falcons"})
	}()

	handled, err := e.HandleReactionAdd(context.Background(), reaction(roleSelectorMsg, "user-1", OrganisateurEmoji))
	require.NoError(t, err)
	require.True(t, handled)

	// The existing role is reused, not duplicated.
	require.Len(t, gw.RolesNamed("Falcons"), 1)
	require.True(t, gw.HasRole("user-1", existing.ID))
	require.Equal(t, []string{
		messages.TeamNamePrompt,
		"You have been added to team: Falcons",
	}, gw.DirectMessages("user-1"))
}

func TestEngine_HandleReactionAdd_OrganisateurTimeout(t *testing.T) {
	e, gw, _ := newTestEngine(t)
	e.SetSessionTimeout(10 * time.Millisecond)

	handled, err := e.HandleReactionAdd(context.Background(), reaction(roleSelectorMsg, "user-1", OrganisateurEmoji))
	require.NoError(t, err)
	require.True(t, handled)

	// The organiser role is granted; the timeout only abandons the team exchange.
	require.True(t, gw.HasRole("user-1", organisateurRole))
	require.Empty(t, gw.RolesNamed("Falcons"))
	require.Equal(t, []string{
		messages.TeamNamePrompt,
		messages.TeamNameTimeout,
	}, gw.DirectMessages("user-1"))
}

func TestEngine_HandleReactionAdd_OrganisateurEmptyReply(t *testing.T) {
	e, gw, sm := newTestEngine(t)

	go func() {
		require.Eventually(t, func() bool {
			return len(gw.DirectMessages("user-1")) > 0
		}, time.Second, time.Millisecond)
		sm.HandleDirectMessage(&gateway.DirectMessage{AuthorID: "user-1", Content: "   "})
	}()

	handled, err := e.HandleReactionAdd(context.Background(), reaction(roleSelectorMsg, "user-1", OrganisateurEmoji))
	require.NoError(t, err)
	require.True(t, handled)

	// A blank reply creates nothing.
	require.Equal(t, []string{messages.TeamNamePrompt}, gw.DirectMessages("user-1"))
	require.Equal(t, []string{organisateurRole}, gw.UserRoles("user-1"), "only the organiser role is granted")
}

func TestEngine_HandleReactionRemove_RoundTrip(t *testing.T) {
	e, gw, _ := newTestEngine(t)
	ctx := context.Background()

	handled, err := e.HandleReactionAdd(ctx, reaction(roleSelectorMsg, "user-1", ParticipantEmoji))
	require.NoError(t, err)
	require.True(t, handled)
	require.True(t, gw.HasRole("user-1", participantRole))

	handled, err = e.HandleReactionRemove(ctx, reaction(roleSelectorMsg, "user-1", ParticipantEmoji))
	require.NoError(t, err)
	require.True(t, handled)

	// Reacting and unreacting restores the original role set.
	require.Empty(t, gw.UserRoles("user-1"))
}

func TestEngine_HandleReactionRemove_ChannelSelector(t *testing.T) {
	e, gw, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := e.HandleReactionAdd(ctx, reaction(channelSelectorMsg, "user-1", gamingEmoji))
	require.NoError(t, err)

	handled, err := e.HandleReactionRemove(ctx, reaction(channelSelectorMsg, "user-1", gamingEmoji))
	require.NoError(t, err)
	require.True(t, handled)
	require.False(t, gw.HasRole("user-1", gamingRole))
}

func TestEngine_HandleReactionRemove_Ignored(t *testing.T) {
	e, gw, _ := newTestEngine(t)

	handled, err := e.HandleReactionRemove(context.Background(), reaction("some-other-msg", "user-1", gamingEmoji))
	require.NoError(t, err)
	require.False(t, handled)
	require.Empty(t, gw.UserRoles("user-1"))
}
