// Package sessions runs short-lived request/response exchanges with single
// users over direct messages. A session is an explicit waiter keyed by user
// ID: the direct message event handler routes inbound messages to the waiter
// rather than suspending the event that started the exchange.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/databounty/warden/pkg/gateway"
	"github.com/databounty/warden/pkg/logging"
)

var (
	// ErrTimeout is returned when the user does not reply before the session
	// deadline. No state has been written when it is returned.
	ErrTimeout = errors.New("sessions: no response before timeout")

	// ErrSessionActive is returned when a session is already outstanding for
	// the user. Sessions are never queued or merged.
	ErrSessionActive = errors.New("sessions: session already active for user")
)

// Manager tracks the outstanding sessions.
type Manager struct {
	// l is the logger.
	l *slog.Logger

	// gw is used to send the prompt.
	gw gateway.Gateway

	// mut guards waiting.
	mut sync.Mutex

	// waiting maps a user ID to the channel its next direct message is
	// delivered on. At most one entry per user.
	waiting map[string]chan string
}

// NewManager creates a session manager.
func NewManager(gw gateway.Gateway, logger *slog.Logger) *Manager {
	return &Manager{
		l:       logger.With(slog.String("component", "sessions")),
		gw:      gw,
		waiting: make(map[string]chan string),
	}
}

// Request sends the prompt to the user as a direct message and waits for the
// user's next direct message, or until the timeout elapses. The reply is
// returned with surrounding whitespace trimmed. A second Request for a user
// with an outstanding session fails with ErrSessionActive.
func (m *Manager) Request(ctx context.Context, userID, prompt string, timeout time.Duration) (string, error) {
	m.mut.Lock()
	if _, ok := m.waiting[userID]; ok {
		m.mut.Unlock()
		return "", ErrSessionActive
	}

	reply := make(chan string, 1)
	m.waiting[userID] = reply
	m.mut.Unlock()

	defer func() {
		m.mut.Lock()
		delete(m.waiting, userID)
		m.mut.Unlock()
	}()

	if err := m.gw.SendDirectMessage(ctx, userID, prompt); err != nil {
		return "", fmt.Errorf("error sending prompt: %w", err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case text := <-reply:
		return strings.TrimSpace(text), nil
	case <-timer.C:
		m.l.Debug("Session timed out", slog.String(logging.KeyUser, userID))
		return "", ErrTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// HandleDirectMessage routes an inbound direct message to the author's
// outstanding session, if any. It reports whether the message was consumed
// by a session.
func (m *Manager) HandleDirectMessage(msg *gateway.DirectMessage) bool {
	if msg.IsBot {
		return false
	}

	m.mut.Lock()
	reply, ok := m.waiting[msg.AuthorID]
	if ok {
		delete(m.waiting, msg.AuthorID)
	}
	m.mut.Unlock()

	if !ok {
		return false
	}

	// The channel is buffered; if the session has already timed out the
	// message is simply dropped.
	reply <- msg.Content
	return true
}
