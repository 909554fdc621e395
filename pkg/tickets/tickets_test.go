package tickets

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/databounty/warden/pkg/dataaccess"
	"github.com/databounty/warden/pkg/entities"
	"github.com/databounty/warden/pkg/gateway"
	"github.com/databounty/warden/pkg/gateway/gatewaytest"
	"github.com/databounty/warden/pkg/logging"
	"github.com/stretchr/testify/require"
)

const botUserID = "bot-user"

func newTestManager(t *testing.T) (*Manager, *gatewaytest.Fake, dataaccess.ConfigStore) {
	t.Helper()

	// Setup logger
	l, err := logging.CommonLogger(logging.NewConfig(`tests`))
	require.NoError(t, err, "Failed to create logger")

	store := dataaccess.NewFileStore(filepath.Join(t.TempDir(), "bot_config.json"), l)
	gw := gatewaytest.New()
	return NewManager(store, gw, botUserID, l), gw, store
}

func TestManager_Create(t *testing.T) {
	m, gw, _ := newTestManager(t)

	res, err := m.Create(context.Background(), "guild-1", "user-1", "alice", "Broken build", "The build fails on main.")
	require.NoError(t, err)
	require.False(t, res.AlreadyOpen)
	require.Equal(t, 1, res.Ticket.ID)
	require.Equal(t, "ticket-0001-alice", res.Ticket.ChannelName())

	ch := gw.Channel(res.Ticket.ChannelID)
	require.NotNil(t, ch)
	require.Equal(t, "ticket-0001-alice", ch.Name)

	// Visible to the creator and the bot only; no support role is configured.
	require.Len(t, ch.Overrides, 2)
	require.Equal(t, "user-1", ch.Overrides[0].TargetID)
	require.Equal(t, botUserID, ch.Overrides[1].TargetID)

	// The control message mentions the creator and carries the close control.
	msgs := gw.Messages(res.Ticket.ChannelID)
	require.Len(t, msgs, 1)
	require.Contains(t, msgs[0].Content, "<@user-1>")
	require.Contains(t, msgs[0].Content, "Broken build")
	require.Contains(t, msgs[0].Content, "The build fails on main.")
	require.Equal(t, []gateway.ControlKind{gateway.ControlCloseTicket}, msgs[0].Controls)
	require.Equal(t, msgs[0].ID, res.Ticket.ControlMessageID)
}

func TestManager_Create_SupportRoleOverride(t *testing.T) {
	m, gw, store := newTestManager(t)

	require.NoError(t, store.Update(context.Background(), func(doc *entities.ConfigDocument) error {
		doc.SupportRoleID = "support-role"
		return nil
	}))

	res, err := m.Create(context.Background(), "guild-1", "user-1", "alice", "Help", "")
	require.NoError(t, err)

	ch := gw.Channel(res.Ticket.ChannelID)
	require.Len(t, ch.Overrides, 3)
	require.Equal(t, "support-role", ch.Overrides[2].TargetID)
	require.Equal(t, gateway.OverrideRole, ch.Overrides[2].Type)
}

func TestManager_Create_AlreadyOpen(t *testing.T) {
	m, gw, _ := newTestManager(t)
	ctx := context.Background()

	first, err := m.Create(ctx, "guild-1", "user-1", "alice", "First", "")
	require.NoError(t, err)

	second, err := m.Create(ctx, "guild-1", "user-1", "alice", "Second", "")
	require.NoError(t, err)
	require.True(t, second.AlreadyOpen)
	require.Equal(t, first.Ticket.ID, second.Ticket.ID)

	// No second channel was created.
	require.Nil(t, gw.Channel("channel-2"))
}

func TestManager_Create_ConcurrentSameUser(t *testing.T) {
	m, _, store := newTestManager(t)
	ctx := context.Background()

	const attempts = 10

	var wg sync.WaitGroup
	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			defer wg.Done()
			_, err := m.Create(ctx, "guild-1", "user-1", "alice", "Race", "")
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	// The duplicate check and insert are one serialized transition, so exactly
	// one ticket exists.
	doc, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, doc.Tickets, 1)
}

func TestManager_Create_MonotonicIDs(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		res, err := m.Create(ctx, "guild-1", fmt.Sprintf("user-%d", i), "user", "Subject", "")
		require.NoError(t, err)
		require.Equal(t, i, res.Ticket.ID)
	}
}

func TestManager_Create_ChannelFailureKeepsNoRecord(t *testing.T) {
	m, gw, store := newTestManager(t)
	ctx := context.Background()
	gw.CreateChanErr = gateway.ErrPermissionDenied

	_, err := m.Create(ctx, "guild-1", "user-1", "alice", "Subject", "")
	require.ErrorIs(t, err, gateway.ErrPermissionDenied)

	// No record exists for the failed create, and the next create still gets ID 1.
	doc, err := store.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, doc.Tickets)

	res, err := m.Create(ctx, "guild-1", "user-1", "alice", "Subject", "")
	require.NoError(t, err)
	require.Equal(t, 1, res.Ticket.ID)
}

func TestManager_CloseFlow(t *testing.T) {
	m, gw, store := newTestManager(t)
	m.SetDeleteDelay(10 * time.Millisecond)
	ctx := context.Background()

	res, err := m.Create(ctx, "guild-1", "user-1", "alice", "Subject", "")
	require.NoError(t, err)

	ttl, err := m.RequestClose(ctx, res.Ticket.ID, "user-1")
	require.NoError(t, err)
	require.Equal(t, defaultConfirmTTL, ttl)

	closed, err := m.ConfirmClose(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, closed.Closed)
	require.Equal(t, "user-1", closed.ClosedBy)

	// The closed state is persisted.
	doc, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, doc.Ticket(res.Ticket.ID).Closed)

	// The creator's visibility override was replaced with a deny.
	overrides := gw.Overrides(res.Ticket.ChannelID)
	require.Len(t, overrides, 1)
	require.Equal(t, "user-1", overrides[0].TargetID)
	require.False(t, overrides[0].ViewChannel)

	// The close control is disabled and the closure notice posted.
	msgs := gw.Messages(res.Ticket.ChannelID)
	require.Len(t, msgs, 2)
	require.True(t, msgs[0].Disabled)
	require.Contains(t, msgs[1].Content, "closed by <@user-1>")

	// The channel is deleted after the grace delay.
	require.Eventually(t, func() bool {
		return gw.Channel(res.Ticket.ChannelID).Deleted
	}, time.Second, time.Millisecond)
}

func TestManager_ConfirmClose_Expired(t *testing.T) {
	m, _, store := newTestManager(t)
	m.SetConfirmTTL(10 * time.Millisecond)
	ctx := context.Background()

	res, err := m.Create(ctx, "guild-1", "user-1", "alice", "Subject", "")
	require.NoError(t, err)

	_, err = m.RequestClose(ctx, res.Ticket.ID, "user-1")
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	_, err = m.ConfirmClose(ctx, "user-1")
	require.ErrorIs(t, err, ErrConfirmExpired)

	// Nothing changed.
	doc, err := store.Load(ctx)
	require.NoError(t, err)
	require.False(t, doc.Ticket(res.Ticket.ID).Closed)
}

func TestManager_ConfirmClose_NoPending(t *testing.T) {
	m, _, _ := newTestManager(t)

	_, err := m.ConfirmClose(context.Background(), "user-1")
	require.ErrorIs(t, err, ErrConfirmExpired)
}

func TestManager_CancelClose(t *testing.T) {
	m, _, store := newTestManager(t)
	ctx := context.Background()

	res, err := m.Create(ctx, "guild-1", "user-1", "alice", "Subject", "")
	require.NoError(t, err)

	_, err = m.RequestClose(ctx, res.Ticket.ID, "user-1")
	require.NoError(t, err)

	m.CancelClose("user-1")

	_, err = m.ConfirmClose(ctx, "user-1")
	require.ErrorIs(t, err, ErrConfirmExpired)

	doc, err := store.Load(ctx)
	require.NoError(t, err)
	require.False(t, doc.Ticket(res.Ticket.ID).Closed)
}

func TestManager_DoubleClose(t *testing.T) {
	m, _, _ := newTestManager(t)
	m.SetDeleteDelay(time.Hour)
	ctx := context.Background()

	res, err := m.Create(ctx, "guild-1", "user-1", "alice", "Subject", "")
	require.NoError(t, err)

	_, err = m.RequestClose(ctx, res.Ticket.ID, "user-1")
	require.NoError(t, err)
	_, err = m.ConfirmClose(ctx, "user-1")
	require.NoError(t, err)

	// A second close of the same ticket is rejected before any state change.
	_, err = m.RequestClose(ctx, res.Ticket.ID, "user-2")
	require.ErrorIs(t, err, ErrAlreadyClosed)
}

func TestManager_RequestClose_NotFound(t *testing.T) {
	m, _, _ := newTestManager(t)

	_, err := m.RequestClose(context.Background(), 42, "user-1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestManager_TicketByChannel(t *testing.T) {
	m, _, _ := newTestManager(t)
	m.SetDeleteDelay(time.Hour)
	ctx := context.Background()

	res, err := m.Create(ctx, "guild-1", "user-1", "alice", "Subject", "")
	require.NoError(t, err)

	found, err := m.TicketByChannel(ctx, res.Ticket.ChannelID)
	require.NoError(t, err)
	require.Equal(t, res.Ticket.ID, found.ID)

	_, err = m.TicketByChannel(ctx, "no-such-channel")
	require.ErrorIs(t, err, ErrNotFound)

	// Closed tickets are not resolved by channel.
	_, err = m.RequestClose(ctx, res.Ticket.ID, "user-1")
	require.NoError(t, err)
	_, err = m.ConfirmClose(ctx, "user-1")
	require.NoError(t, err)

	_, err = m.TicketByChannel(ctx, res.Ticket.ChannelID)
	require.ErrorIs(t, err, ErrNotFound)
}

// NewTicketAfterClose verifies a user can open a fresh ticket once the previous
// one is closed, and that the old ID is never reused.
func TestManager_NewTicketAfterClose(t *testing.T) {
	m, _, _ := newTestManager(t)
	m.SetDeleteDelay(time.Hour)
	ctx := context.Background()

	first, err := m.Create(ctx, "guild-1", "user-1", "alice", "First", "")
	require.NoError(t, err)

	_, err = m.RequestClose(ctx, first.Ticket.ID, "user-1")
	require.NoError(t, err)
	_, err = m.ConfirmClose(ctx, "user-1")
	require.NoError(t, err)

	second, err := m.Create(ctx, "guild-1", "user-1", "alice", "Second", "")
	require.NoError(t, err)
	require.False(t, second.AlreadyOpen)
	require.Equal(t, 2, second.Ticket.ID)
}
