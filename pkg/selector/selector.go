// Package selector maps emoji reactions on registered messages to role
// grants and revocations. Two registries are supported: the ad-hoc channel
// selector, where each emoji grants access to one channel, and the fixed
// participant/organiser selector.
package selector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/databounty/warden/pkg/dataaccess"
	"github.com/databounty/warden/pkg/entities"
	"github.com/databounty/warden/pkg/gateway"
	"github.com/databounty/warden/pkg/logging"
	"github.com/databounty/warden/pkg/messages"
	"github.com/databounty/warden/pkg/sessions"
	"github.com/databounty/warden/pkg/teams"
	"golang.org/x/time/rate"
)

const (
	// ParticipantEmoji is the reaction that grants the participant role. (Blue circle)
	ParticipantEmoji = "\U0001F535"

	// OrganisateurEmoji is the reaction that grants the organiser role. (Red circle)
	OrganisateurEmoji = "\U0001F534"
)

const (
	// teamRoleColor is the colour of team roles created through the
	// organiser flow. (Green)
	teamRoleColor = 0x2ECC71

	// defaultSessionTimeout bounds the team name exchange.
	defaultSessionTimeout = 10 * time.Second
)

// Engine handles reaction add and remove events.
type Engine struct {
	// l is the logger.
	l *slog.Logger

	// store is the config store.
	store dataaccess.ConfigStore

	// gw is the platform gateway.
	gw gateway.Gateway

	// sessions runs the team name exchange for new organisers.
	sessions *sessions.Manager

	// teams resolves team names to roles.
	teams *teams.Ensurer

	// sessionTimeout bounds the team name exchange.
	sessionTimeout time.Duration

	// mut guards limiters.
	mut sync.Mutex

	// limiters rate limits reaction processing per user, protecting the
	// store from reaction spam.
	limiters map[string]*rate.Limiter
}

// NewEngine creates a reaction role engine.
func NewEngine(store dataaccess.ConfigStore, gw gateway.Gateway, sm *sessions.Manager, logger *slog.Logger) *Engine {
	return &Engine{
		l:              logger.With(slog.String("component", "selector")),
		store:          store,
		gw:             gw,
		sessions:       sm,
		teams:          teams.NewEnsurer(gw),
		sessionTimeout: defaultSessionTimeout,
		limiters:       make(map[string]*rate.Limiter),
	}
}

// SetSessionTimeout overrides the team name session timeout.
func (e *Engine) SetSessionTimeout(d time.Duration) {
	e.sessionTimeout = d
}

func (e *Engine) allow(userID string) bool {
	e.mut.Lock()
	defer e.mut.Unlock()

	lim, ok := e.limiters[userID]
	if !ok {
		lim = rate.NewLimiter(rate.Every(500*time.Millisecond), 10)
		e.limiters[userID] = lim
	}
	return lim.Allow()
}

// HandleReactionAdd processes a reaction added to any message and reports
// whether the reaction matched a registered selector. Reactions on messages
// that are not a registered selector, unknown emoji on a registered message,
// and bot reactions are all ignored.
func (e *Engine) HandleReactionAdd(ctx context.Context, ev *gateway.ReactionEvent) (bool, error) {
	if ev.IsBot {
		return false, nil
	}

	if !e.allow(ev.UserID) {
		e.l.Debug("Dropping reaction, user rate limited", slog.String(logging.KeyUser, ev.UserID))
		return false, nil
	}

	doc, err := e.store.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("error loading config: %w", err)
	}

	if cs := doc.ChannelSelector; cs != nil && cs.MessageID == ev.MessageID {
		entry := cs.Entry(ev.EmojiKey())
		if entry == nil {
			// Unknown emoji within the selector message.
			return false, nil
		}
		return true, e.channelSelectorAdd(ctx, entry, ev)
	}

	if rs := doc.RoleSelector; rs != nil && rs.MessageID == ev.MessageID {
		if ev.EmojiName != ParticipantEmoji && ev.EmojiName != OrganisateurEmoji {
			return false, nil
		}
		return true, e.roleSelectorAdd(ctx, rs, ev)
	}

	// Not a selector message.
	return false, nil
}

func (e *Engine) channelSelectorAdd(ctx context.Context, entry *entities.ChannelSelectorEntry, ev *gateway.ReactionEvent) error {
	if err := e.gw.GrantRole(ctx, ev.GuildID, ev.UserID, entry.RoleID, "Channel selection"); err != nil {
		if errors.Is(err, gateway.ErrPermissionDenied) {
			e.l.Warn("Missing permissions to grant channel role",
				slog.String("role_id", entry.RoleID),
				slog.String(logging.KeyError, err.Error()))
			return nil
		}
		return fmt.Errorf("error granting channel role: %w", err)
	}

	// Best effort confirmation; the user may not accept direct messages.
	notice := fmt.Sprintf("You now have access to the <#%s> channel!", entry.ChannelID)
	if err := e.gw.SendDirectMessage(ctx, ev.UserID, notice); err != nil {
		e.l.Debug("Could not send channel access notice", slog.String(logging.KeyError, err.Error()))
	}
	return nil
}

func (e *Engine) roleSelectorAdd(ctx context.Context, rs *entities.RoleSelector, ev *gateway.ReactionEvent) error {
	switch ev.EmojiName {
	case ParticipantEmoji:
		if err := e.gw.GrantRole(ctx, ev.GuildID, ev.UserID, rs.ParticipantRoleID, "Selected Participant role"); err != nil {
			if errors.Is(err, gateway.ErrPermissionDenied) {
				e.l.Warn("Missing permissions to grant Participant role", slog.String(logging.KeyError, err.Error()))
				return nil
			}
			return fmt.Errorf("error granting participant role: %w", err)
		}

		if err := e.gw.SendDirectMessage(ctx, ev.UserID, messages.ParticipantAssigned); err != nil {
			e.l.Debug("Could not send participant notice", slog.String(logging.KeyError, err.Error()))
		}
		return nil

	case OrganisateurEmoji:
		if err := e.gw.GrantRole(ctx, ev.GuildID, ev.UserID, rs.OrganisateurRoleID, "Selected Organisateur role"); err != nil {
			if errors.Is(err, gateway.ErrPermissionDenied) {
				e.l.Warn("Missing permissions to grant Organisateur role", slog.String(logging.KeyError, err.Error()))
				return nil
			}
			return fmt.Errorf("error granting organisateur role: %w", err)
		}

		return e.collectTeamName(ctx, ev)

	default:
		// Unknown emoji on the selector message.
		return nil
	}
}

// collectTeamName runs the direct message exchange that follows an organiser
// grant: ask for a team name, then create and grant the matching team role.
func (e *Engine) collectTeamName(ctx context.Context, ev *gateway.ReactionEvent) error {
	teamName, err := e.sessions.Request(ctx, ev.UserID, messages.TeamNamePrompt, e.sessionTimeout)
	if err != nil {
		switch {
		case errors.Is(err, sessions.ErrTimeout):
			if err := e.gw.SendDirectMessage(ctx, ev.UserID, messages.TeamNameTimeout); err != nil {
				e.l.Debug("Could not send timeout notice", slog.String(logging.KeyError, err.Error()))
			}
			return nil
		case errors.Is(err, sessions.ErrSessionActive):
			e.l.Debug("Team name session already active", slog.String(logging.KeyUser, ev.UserID))
			return nil
		case errors.Is(err, gateway.ErrPermissionDenied):
			// The user does not accept direct messages.
			return nil
		default:
			return fmt.Errorf("error collecting team name: %w", err)
		}
	}

	if teamName == "" {
		return nil
	}

	role, created, err := e.teams.Ensure(ctx, ev.GuildID, teamName, teamRoleColor)
	if err != nil {
		if errors.Is(err, gateway.ErrPermissionDenied) {
			e.l.Warn("Missing permissions to create team role", slog.String(logging.KeyError, err.Error()))
			return nil
		}
		return err
	}

	if created {
		if err := e.gw.SendDirectMessage(ctx, ev.UserID, fmt.Sprintf("Created new team: %s", teamName)); err != nil {
			e.l.Debug("Could not send team created notice", slog.String(logging.KeyError, err.Error()))
		}
	}

	if err := e.gw.GrantRole(ctx, ev.GuildID, ev.UserID, role.ID, fmt.Sprintf("Joined team %s", teamName)); err != nil {
		if errors.Is(err, gateway.ErrPermissionDenied) {
			e.l.Warn("Missing permissions to grant team role", slog.String(logging.KeyError, err.Error()))
			return nil
		}
		return fmt.Errorf("error granting team role: %w", err)
	}

	if err := e.gw.SendDirectMessage(ctx, ev.UserID, fmt.Sprintf("You have been added to team: %s", teamName)); err != nil {
		e.l.Debug("Could not send team joined notice", slog.String(logging.KeyError, err.Error()))
	}
	return nil
}

// HandleReactionRemove processes a removed reaction: the symmetric role
// revocation. No conversation is started on removal.
func (e *Engine) HandleReactionRemove(ctx context.Context, ev *gateway.ReactionEvent) (bool, error) {
	if ev.IsBot {
		return false, nil
	}

	if !e.allow(ev.UserID) {
		e.l.Debug("Dropping reaction, user rate limited", slog.String(logging.KeyUser, ev.UserID))
		return false, nil
	}

	doc, err := e.store.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("error loading config: %w", err)
	}

	if cs := doc.ChannelSelector; cs != nil && cs.MessageID == ev.MessageID {
		entry := cs.Entry(ev.EmojiKey())
		if entry == nil {
			return false, nil
		}
		return true, e.revoke(ctx, ev, entry.RoleID, "Channel selection removed")
	}

	if rs := doc.RoleSelector; rs != nil && rs.MessageID == ev.MessageID {
		switch ev.EmojiName {
		case ParticipantEmoji:
			return true, e.revoke(ctx, ev, rs.ParticipantRoleID, "Removed Participant role")
		case OrganisateurEmoji:
			return true, e.revoke(ctx, ev, rs.OrganisateurRoleID, "Removed Organisateur role")
		}
	}

	return false, nil
}

func (e *Engine) revoke(ctx context.Context, ev *gateway.ReactionEvent, roleID, reason string) error {
	if err := e.gw.RevokeRole(ctx, ev.GuildID, ev.UserID, roleID, reason); err != nil {
		if errors.Is(err, gateway.ErrPermissionDenied) {
			e.l.Warn("Missing permissions to revoke role",
				slog.String("role_id", roleID),
				slog.String(logging.KeyError, err.Error()))
			return nil
		}
		return fmt.Errorf("error revoking role: %w", err)
	}
	return nil
}
