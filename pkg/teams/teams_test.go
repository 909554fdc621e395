package teams

import (
	"context"
	"sync"
	"testing"

	"github.com/databounty/warden/pkg/gateway"
	"github.com/databounty/warden/pkg/gateway/gatewaytest"
	"github.com/stretchr/testify/require"
)

func TestEnsurer_Ensure(t *testing.T) {
	gw := gatewaytest.New()
	e := NewEnsurer(gw)
	ctx := context.Background()

	role, created, err := e.Ensure(ctx, "guild-1", "Falcons", 0x2ECC71)
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, "Falcons", role.Name)
	require.Equal(t, 0x2ECC71, role.Color)

	again, created, err := e.Ensure(ctx, "guild-1", "Falcons", 0x2ECC71)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, role.ID, again.ID)
}

func TestEnsurer_Ensure_CaseSensitive(t *testing.T) {
	gw := gatewaytest.New()
	e := NewEnsurer(gw)
	ctx := context.Background()

	_, created, err := e.Ensure(ctx, "guild-1", "Falcons", 0)
	require.NoError(t, err)
	require.True(t, created)

	// "falcons" is a different team from "Falcons".
	_, created, err = e.Ensure(ctx, "guild-1", "falcons", 0)
	require.NoError(t, err)
	require.True(t, created)

	require.Len(t, gw.RolesNamed("Falcons"), 1)
	require.Len(t, gw.RolesNamed("falcons"), 1)
}

func TestEnsurer_Ensure_ConcurrentSameName(t *testing.T) {
	gw := gatewaytest.New()
	e := NewEnsurer(gw)
	ctx := context.Background()

	const callers = 10

	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			_, _, err := e.Ensure(ctx, "guild-1", "Falcons", 0)
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	// Lookup and create are serialized, so exactly one role exists.
	require.Len(t, gw.RolesNamed("Falcons"), 1)
}

func TestEnsurer_Ensure_CreateDenied(t *testing.T) {
	gw := gatewaytest.New()
	gw.CreateRoleErr = gateway.ErrPermissionDenied
	e := NewEnsurer(gw)

	_, _, err := e.Ensure(context.Background(), "guild-1", "Falcons", 0)
	require.ErrorIs(t, err, gateway.ErrPermissionDenied)
	require.Empty(t, gw.RolesNamed("Falcons"))
}
