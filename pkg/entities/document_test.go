package entities

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigDocument_NextTicketID(t *testing.T) {
	doc := NewConfigDocument()
	require.Equal(t, 1, doc.NextTicketID())

	doc.PutTicket(&Ticket{ID: 1, CreatorID: "user-1"})
	require.Equal(t, 2, doc.NextTicketID())

	// Closed tickets keep their slot; IDs are never reused.
	doc.Tickets["1"].Closed = true
	require.Equal(t, 2, doc.NextTicketID())
}

func TestConfigDocument_OpenTicketFor(t *testing.T) {
	doc := NewConfigDocument()
	require.Nil(t, doc.OpenTicketFor("user-1"))

	doc.PutTicket(&Ticket{ID: 1, CreatorID: "user-1"})
	doc.PutTicket(&Ticket{ID: 2, CreatorID: "user-2"})

	open := doc.OpenTicketFor("user-1")
	require.NotNil(t, open)
	require.Equal(t, 1, open.ID)

	doc.Tickets["1"].Closed = true
	require.Nil(t, doc.OpenTicketFor("user-1"))
}

func TestTicket_ChannelName(t *testing.T) {
	tests := []struct {
		name   string
		ticket *Ticket
		want   string
	}{
		{
			name:   "SingleDigit",
			ticket: &Ticket{ID: 3, CreatorName: "falcon"},
			want:   "ticket-0003-falcon",
		},
		{
			name:   "FourDigits",
			ticket: &Ticket{ID: 1234, CreatorName: "alice"},
			want:   "ticket-1234-alice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.ticket.ChannelName())
		})
	}
}

func TestChannelSelector_Entry(t *testing.T) {
	var cs *ChannelSelector
	require.Nil(t, cs.Entry("🎮"))

	cs = &ChannelSelector{
		Entries: map[string]*ChannelSelectorEntry{
			"🎮": {RoleID: "role-1", ChannelID: "chan-1"},
		},
	}
	require.NotNil(t, cs.Entry("🎮"))
	require.Nil(t, cs.Entry("🎲"))
}
