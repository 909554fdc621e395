// Package tickets manages the support ticket lifecycle: a private channel
// per ticket, at most one open ticket per user, a confirmed close transition
// and delayed channel deletion.
package tickets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/databounty/warden/pkg/custom"
	"github.com/databounty/warden/pkg/dataaccess"
	"github.com/databounty/warden/pkg/entities"
	"github.com/databounty/warden/pkg/gateway"
	"github.com/databounty/warden/pkg/logging"
)

var (
	// ErrNotFound is returned when a ticket ID does not exist.
	ErrNotFound = errors.New("tickets: ticket not found")

	// ErrAlreadyClosed is returned when closing a ticket that has already
	// been closed. Handlers treat it as a no-op; a second closure record is
	// never written.
	ErrAlreadyClosed = errors.New("tickets: ticket already closed")

	// ErrConfirmExpired is returned when a close confirmation arrives after
	// the confirmation window has elapsed, or without a pending request.
	ErrConfirmExpired = errors.New("tickets: close confirmation expired")
)

const (
	// defaultDeleteDelay is the grace window between closing a ticket and
	// deleting its channel. The delay is a courtesy window, not a
	// transactional guarantee: a restart during the delay abandons the
	// deletion.
	defaultDeleteDelay = 10 * time.Second

	// defaultConfirmTTL is how long a close confirmation stays valid.
	defaultConfirmTTL = 10 * time.Second
)

// CreateResult is the outcome of a create request.
type CreateResult struct {
	// Ticket is the new ticket, or the user's existing open ticket when
	// AlreadyOpen is set.
	Ticket *entities.Ticket

	// AlreadyOpen is whether the user already had an open ticket. No new
	// ticket is created in that case.
	AlreadyOpen bool
}

// pendingClose is an outstanding close confirmation.
type pendingClose struct {
	ticketID int
	expires  time.Time
}

// Manager runs the ticket lifecycle.
type Manager struct {
	// l is the logger.
	l *slog.Logger

	// store is the config store.
	store dataaccess.ConfigStore

	// gw is the platform gateway.
	gw gateway.Gateway

	// botUserID is the bot's own user ID, granted visibility of every
	// ticket channel.
	botUserID string

	// deleteDelay is the grace window before channel deletion.
	deleteDelay time.Duration

	// confirmTTL is how long a close confirmation stays valid.
	confirmTTL time.Duration

	// mut guards pending.
	mut sync.Mutex

	// pending maps a user ID to their outstanding close confirmation. A new
	// close request replaces any previous one for the same user.
	pending map[string]pendingClose
}

// NewManager creates a ticket manager.
func NewManager(store dataaccess.ConfigStore, gw gateway.Gateway, botUserID string, logger *slog.Logger) *Manager {
	return &Manager{
		l:           logger.With(slog.String("component", "tickets")),
		store:       store,
		gw:          gw,
		botUserID:   botUserID,
		deleteDelay: defaultDeleteDelay,
		confirmTTL:  defaultConfirmTTL,
		pending:     make(map[string]pendingClose),
	}
}

// SetDeleteDelay overrides the channel deletion grace window.
func (m *Manager) SetDeleteDelay(d time.Duration) {
	m.deleteDelay = d
}

// SetConfirmTTL overrides the close confirmation window.
func (m *Manager) SetConfirmTTL(d time.Duration) {
	m.confirmTTL = d
}

// Create opens a new ticket for the user: a private channel visible only to
// the creator, the bot and the configured support role. When the user
// already has an open ticket no new ticket is created and the existing one
// is returned instead. The duplicate check, ID allocation and record insert
// run as one serialized store transition, so concurrent creates cannot both
// pass the check.
func (m *Manager) Create(ctx context.Context, guildID, userID, username, subject, description string) (*CreateResult, error) {
	res := new(CreateResult)

	err := m.store.Update(ctx, func(doc *entities.ConfigDocument) error {
		if existing := doc.OpenTicketFor(userID); existing != nil {
			res.Ticket = existing
			res.AlreadyOpen = true
			return nil
		}

		ticket := &entities.Ticket{
			ID:          doc.NextTicketID(),
			CreatorID:   userID,
			CreatorName: username,
			Subject:     subject,
			OpenedAt:    custom.Now(),
		}

		overrides := []gateway.PermissionOverride{
			{TargetID: userID, Type: gateway.OverrideMember, ViewChannel: true},
			{TargetID: m.botUserID, Type: gateway.OverrideMember, ViewChannel: true},
		}
		if doc.SupportRoleID != "" {
			overrides = append(overrides, gateway.PermissionOverride{
				TargetID:    doc.SupportRoleID,
				Type:        gateway.OverrideRole,
				ViewChannel: true,
			})
		}

		// The channel is created inside the transition: if it fails, no
		// record is written and the document on disk is untouched.
		topic := fmt.Sprintf("Support ticket for %s | Subject: %s", username, subject)
		channelID, err := m.gw.CreateChannel(ctx, guildID, ticket.ChannelName(), topic, overrides)
		if err != nil {
			return fmt.Errorf("error creating ticket channel: %w", err)
		}
		ticket.ChannelID = channelID

		doc.PutTicket(ticket)
		res.Ticket = ticket
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.AlreadyOpen {
		return res, nil
	}

	m.l.Info("Ticket created",
		slog.Int(logging.KeyTicket, res.Ticket.ID),
		slog.String(logging.KeyUser, userID))

	// Post the initial message with the close control, then record its ID so
	// the control can be disabled on closure.
	if err := m.postControls(ctx, res.Ticket, description); err != nil {
		m.l.Error("Error setting up ticket channel", slog.String(logging.KeyError, err.Error()))
	}

	return res, nil
}

func (m *Manager) postControls(ctx context.Context, ticket *entities.Ticket, description string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "<@%s>\n", ticket.CreatorID)
	fmt.Fprintf(&b, "**%s**\n", ticket.Title())
	if description != "" {
		fmt.Fprintf(&b, "%s\n", description)
	}
	b.WriteString("Use the buttons below to manage this ticket.")

	msgID, err := m.gw.SendMessage(ctx, ticket.ChannelID, b.String(), gateway.ControlCloseTicket)
	if err != nil {
		return fmt.Errorf("error sending ticket message: %w", err)
	}
	ticket.ControlMessageID = msgID

	return m.store.Update(ctx, func(doc *entities.ConfigDocument) error {
		t := doc.Ticket(ticket.ID)
		if t == nil {
			return ErrNotFound
		}
		t.ControlMessageID = msgID
		return nil
	})
}

// RequestClose records a close request for the ticket and returns the window
// within which it must be confirmed. The confirmation auto-expires with no
// state change.
func (m *Manager) RequestClose(ctx context.Context, ticketID int, userID string) (time.Duration, error) {
	doc, err := m.store.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("error loading config: %w", err)
	}

	t := doc.Ticket(ticketID)
	if t == nil {
		return 0, ErrNotFound
	}
	if t.Closed {
		return 0, ErrAlreadyClosed
	}

	m.mut.Lock()
	m.pending[userID] = pendingClose{
		ticketID: ticketID,
		expires:  time.Now().Add(m.confirmTTL),
	}
	m.mut.Unlock()

	return m.confirmTTL, nil
}

// CancelClose discards the user's pending close request, if any.
func (m *Manager) CancelClose(userID string) {
	m.mut.Lock()
	delete(m.pending, userID)
	m.mut.Unlock()
}

// ConfirmClose closes the ticket the user requested to close. The transition
// is irreversible: the record is marked closed, the creator loses channel
// visibility, the close control is disabled and the channel is deleted after
// the grace delay. A confirmation after the window has expired fails with
// ErrConfirmExpired and changes nothing.
func (m *Manager) ConfirmClose(ctx context.Context, userID string) (*entities.Ticket, error) {
	m.mut.Lock()
	p, ok := m.pending[userID]
	if ok {
		delete(m.pending, userID)
	}
	m.mut.Unlock()

	if !ok || time.Now().After(p.expires) {
		return nil, ErrConfirmExpired
	}

	return m.close(ctx, p.ticketID, userID)
}

func (m *Manager) close(ctx context.Context, ticketID int, closedBy string) (*entities.Ticket, error) {
	var closed *entities.Ticket

	err := m.store.Update(ctx, func(doc *entities.ConfigDocument) error {
		t := doc.Ticket(ticketID)
		if t == nil {
			return ErrNotFound
		}
		if t.Closed {
			return ErrAlreadyClosed
		}

		t.Closed = true
		t.ClosedBy = closedBy
		t.ClosedAt = custom.Now()
		closed = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.l.Info("Ticket closed",
		slog.Int(logging.KeyTicket, ticketID),
		slog.String(logging.KeyUser, closedBy))

	// Archive the channel: the creator loses visibility, staff keep it.
	if err := m.gw.SetChannelPermission(ctx, closed.ChannelID, gateway.PermissionOverride{
		TargetID: closed.CreatorID,
		Type:     gateway.OverrideMember,
	}); err != nil {
		m.l.Error("Error revoking creator channel visibility", slog.String(logging.KeyError, err.Error()))
	}

	if closed.ControlMessageID != "" {
		if err := m.gw.DisableMessageComponents(ctx, closed.ChannelID, closed.ControlMessageID); err != nil {
			m.l.Error("Error disabling close control", slog.String(logging.KeyError, err.Error()))
		}
	}

	notice := fmt.Sprintf("This ticket has been closed by <@%s>.\nThis channel will be deleted in %d seconds.",
		closedBy, int(m.deleteDelay.Seconds()))
	if _, err := m.gw.SendMessage(ctx, closed.ChannelID, notice); err != nil {
		m.l.Error("Error sending closure notice", slog.String(logging.KeyError, err.Error()))
	}

	// The grace delay has no cancellation path once confirmed. It is not
	// resumed if the process restarts during the window.
	channelID := closed.ChannelID
	time.AfterFunc(m.deleteDelay, func() {
		reason := fmt.Sprintf("Ticket #%04d closed", ticketID)
		if err := m.gw.DeleteChannel(context.Background(), channelID, reason); err != nil {
			m.l.Error("Error deleting ticket channel",
				slog.Int(logging.KeyTicket, ticketID),
				slog.String(logging.KeyError, err.Error()))
		}
	})

	return closed, nil
}

// TicketByChannel returns the open ticket backed by the given channel.
func (m *Manager) TicketByChannel(ctx context.Context, channelID string) (*entities.Ticket, error) {
	doc, err := m.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	for _, t := range doc.Tickets {
		if t.ChannelID == channelID && !t.Closed {
			return t, nil
		}
	}
	return nil, ErrNotFound
}
