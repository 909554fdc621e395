// Package teams resolves team names to platform roles, creating the role on
// first use.
package teams

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/databounty/warden/pkg/gateway"
)

// Ensurer lazily creates team roles. The role name is the identity key for a
// team, compared case-sensitively; the lookup and create are serialized so a
// given name is only ever created once, first writer wins.
type Ensurer struct {
	// gw is the platform gateway.
	gw gateway.Gateway

	// mut serializes lookup-then-create.
	mut sync.Mutex
}

// NewEnsurer creates a team role ensurer.
func NewEnsurer(gw gateway.Gateway) *Ensurer {
	return &Ensurer{
		gw: gw,
	}
}

// Ensure returns the role named after the team, creating it with the given
// colour when it does not exist yet. It reports whether the role was newly
// created.
func (e *Ensurer) Ensure(ctx context.Context, guildID, teamName string, color int) (*gateway.Role, bool, error) {
	e.mut.Lock()
	defer e.mut.Unlock()

	role, err := e.gw.RoleByName(ctx, guildID, teamName)
	if err == nil {
		return role, false, nil
	}
	if !errors.Is(err, gateway.ErrNotFound) {
		return nil, false, fmt.Errorf("error looking up team role: %w", err)
	}

	role, err = e.gw.CreateRole(ctx, guildID, teamName, color, fmt.Sprintf("Team %s created", teamName))
	if err != nil {
		return nil, false, fmt.Errorf("error creating team role: %w", err)
	}
	return role, true, nil
}
