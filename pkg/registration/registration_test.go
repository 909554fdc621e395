package registration

import (
	"context"
	"encoding/csv"
	"path/filepath"
	"strings"
	"testing"

	"github.com/databounty/warden/pkg/dataaccess"
	"github.com/databounty/warden/pkg/gateway"
	"github.com/databounty/warden/pkg/gateway/gatewaytest"
	"github.com/databounty/warden/pkg/logging"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*Manager, *gatewaytest.Fake, dataaccess.ConfigStore) {
	t.Helper()

	// Setup logger
	l, err := logging.CommonLogger(logging.NewConfig(`tests`))
	require.NoError(t, err, "Failed to create logger")

	store := dataaccess.NewFileStore(filepath.Join(t.TempDir(), "bot_config.json"), l)
	gw := gatewaytest.New()
	return NewManager(store, gw, l), gw, store
}

func TestManager_Submit_NewTeam(t *testing.T) {
	m, gw, store := newTestManager(t)
	ctx := context.Background()

	res, err := m.Submit(ctx, "guild-1", "user-1", "alice", "Alice Example", "Falcons")
	require.NoError(t, err)
	require.True(t, res.TeamCreated)
	require.Equal(t, "Falcons", res.TeamName)
	require.Equal(t, "Alice Example", res.ProvidedName)

	roles := gw.RolesNamed("Falcons")
	require.Len(t, roles, 1)
	require.True(t, gw.HasRole("user-1", roles[0].ID))

	doc, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, doc.Registrations, 1)
	require.Equal(t, "user-1", doc.Registrations[0].UserID)
	require.Equal(t, "alice", doc.Registrations[0].DiscordName)
	require.Equal(t, "Alice Example", doc.Registrations[0].ProvidedName)
	require.Equal(t, "Falcons", doc.Registrations[0].TeamName)
	require.False(t, doc.Registrations[0].Timestamp.IsZero())
}

func TestManager_Submit_ExistingTeam(t *testing.T) {
	m, gw, _ := newTestManager(t)
	existing := gw.SeedRole("Falcons")

	res, err := m.Submit(context.Background(), "guild-1", "user-1", "alice", "Alice Example", "Falcons")
	require.NoError(t, err)
	require.False(t, res.TeamCreated)

	// The existing role is reused, not duplicated.
	require.Len(t, gw.RolesNamed("Falcons"), 1)
	require.True(t, gw.HasRole("user-1", existing.ID))
}

func TestManager_Submit_RoleCreateDenied(t *testing.T) {
	m, gw, store := newTestManager(t)
	gw.CreateRoleErr = gateway.ErrPermissionDenied

	_, err := m.Submit(context.Background(), "guild-1", "user-1", "alice", "Alice Example", "Falcons")
	require.ErrorIs(t, err, ErrTeamRoleCreate)

	// The registration record is retained even though the role work failed.
	doc, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, doc.Registrations, 1)
}

func TestManager_Submit_RoleGrantDenied(t *testing.T) {
	m, gw, store := newTestManager(t)
	gw.GrantRoleErr = gateway.ErrPermissionDenied

	_, err := m.Submit(context.Background(), "guild-1", "user-1", "alice", "Alice Example", "Falcons")
	require.ErrorIs(t, err, ErrTeamRoleGrant)

	doc, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, doc.Registrations, 1)
}

func TestManager_ExportCSV(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.Submit(ctx, "guild-1", "user-1", "alice", "Alice Example", "Falcons")
	require.NoError(t, err)
	_, err = m.Submit(ctx, "guild-1", "user-2", "bob", "Bob Example", "Hawks")
	require.NoError(t, err)

	data, err := m.ExportCSV(ctx)
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, exportHeader, records[0])
	require.Equal(t, "user-1", records[1][0])
	require.Equal(t, "alice", records[1][1])
	require.Equal(t, "Alice Example", records[1][2])
	require.Equal(t, "Falcons", records[1][3])
	require.NotEmpty(t, records[1][4])
	require.Equal(t, "Hawks", records[2][3])
}

func TestManager_ExportCSV_Empty(t *testing.T) {
	m, _, _ := newTestManager(t)

	_, err := m.ExportCSV(context.Background())
	require.ErrorIs(t, err, ErrNoRegistrations)
}
