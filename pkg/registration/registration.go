// Package registration processes team registration form submissions and the
// read-only CSV projection of the registration log.
package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/databounty/warden/pkg/custom"
	"github.com/databounty/warden/pkg/dataaccess"
	"github.com/databounty/warden/pkg/entities"
	"github.com/databounty/warden/pkg/gateway"
	"github.com/databounty/warden/pkg/logging"
	"github.com/databounty/warden/pkg/teams"
)

var (
	// ErrTeamRoleCreate is returned when the team role cannot be created.
	// The registration record has already been appended when it is returned.
	ErrTeamRoleCreate = errors.New("registration: cannot create team role")

	// ErrTeamRoleGrant is returned when the team role cannot be granted.
	// Distinct from ErrTeamRoleCreate so the user sees which step failed.
	ErrTeamRoleGrant = errors.New("registration: cannot grant team role")
)

// Result is the outcome of a successful submission.
type Result struct {
	// TeamName is the team the user registered for.
	TeamName string

	// ProvidedName is the full name the user entered.
	ProvidedName string

	// TeamCreated is whether the team role was newly created by this
	// submission, as opposed to already existing.
	TeamCreated bool
}

// Manager processes registrations.
type Manager struct {
	// l is the logger.
	l *slog.Logger

	// store is the config store.
	store dataaccess.ConfigStore

	// gw is the platform gateway.
	gw gateway.Gateway

	// teams resolves team names to roles.
	teams *teams.Ensurer
}

// NewManager creates a registration manager.
func NewManager(store dataaccess.ConfigStore, gw gateway.Gateway, logger *slog.Logger) *Manager {
	return &Manager{
		l:     logger.With(slog.String("component", "registration")),
		store: store,
		gw:    gw,
		teams: teams.NewEnsurer(gw),
	}
}

// Submit records the registration and grants the team role, creating the
// role on first use. The record is appended before any platform call and is
// retained even when a later step fails: the log is a superset of attempts,
// not only of successes.
func (m *Manager) Submit(ctx context.Context, guildID, userID, username, providedName, teamName string) (*Result, error) {
	err := m.store.Update(ctx, func(doc *entities.ConfigDocument) error {
		doc.Registrations = append(doc.Registrations, &entities.Registration{
			UserID:       userID,
			DiscordName:  username,
			ProvidedName: providedName,
			TeamName:     teamName,
			Timestamp:    custom.Now(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error recording registration: %w", err)
	}

	role, created, err := m.teams.Ensure(ctx, guildID, teamName, rand.Intn(0xFFFFFF))
	if err != nil {
		if errors.Is(err, gateway.ErrPermissionDenied) {
			return nil, fmt.Errorf("%w: %w", ErrTeamRoleCreate, err)
		}
		return nil, err
	}

	if err := m.gw.GrantRole(ctx, guildID, userID, role.ID, fmt.Sprintf("Registered for team %s", teamName)); err != nil {
		if errors.Is(err, gateway.ErrPermissionDenied) {
			return nil, fmt.Errorf("%w: %w", ErrTeamRoleGrant, err)
		}
		return nil, fmt.Errorf("error granting team role: %w", err)
	}

	m.l.Info("Registration processed",
		slog.String(logging.KeyUser, userID),
		slog.String("team", teamName),
		slog.Bool("team_created", created))

	return &Result{
		TeamName:     teamName,
		ProvidedName: providedName,
		TeamCreated:  created,
	}, nil
}
