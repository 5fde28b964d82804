package realtime

import (
	"encoding/json"
	"testing"

	"github.com/Dosada05/tictactoe-arena/game"
	"github.com/Dosada05/tictactoe-arena/models"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, hub *Hub, userID int, nickname string) *Client {
	t.Helper()
	return NewClient(hub, nil, nil, userID, nickname)
}

func receiveEvent(t *testing.T, c *Client) ServerEvent {
	t.Helper()
	select {
	case data := <-c.send:
		var event ServerEvent
		require.NoError(t, json.Unmarshal(data, &event))
		return event
	default:
		t.Fatal("no event queued for client")
		return ServerEvent{}
	}
}

func requireNoEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.send:
		t.Fatalf("unexpected event queued: %s", data)
	default:
	}
}

func TestHub_BroadcastToRoom(t *testing.T) {
	hub := NewHub()

	alice := newTestClient(t, hub, 1, "alice")
	bob := newTestClient(t, hub, 2, "bob")
	carol := newTestClient(t, hub, 3, "carol")
	for _, c := range []*Client{alice, bob, carol} {
		hub.Register(c)
	}

	hub.JoinRoom(7, alice)
	hub.JoinRoom(7, bob)
	hub.JoinRoom(8, carol)

	hub.BroadcastToRoom(7, ServerEvent{Type: EventUpdate})

	require.Equal(t, EventUpdate, receiveEvent(t, alice).Type)
	require.Equal(t, EventUpdate, receiveEvent(t, bob).Type)
	requireNoEvent(t, carol)
}

func TestHub_BroadcastToRoomExcept(t *testing.T) {
	hub := NewHub()

	alice := newTestClient(t, hub, 1, "alice")
	bob := newTestClient(t, hub, 2, "bob")
	hub.Register(alice)
	hub.Register(bob)
	hub.JoinRoom(7, alice)
	hub.JoinRoom(7, bob)

	hub.BroadcastToRoomExcept(7, ServerEvent{Type: EventParticipantJoined}, alice)

	requireNoEvent(t, alice)
	require.Equal(t, EventParticipantJoined, receiveEvent(t, bob).Type)
}

func TestHub_LeaveRoom(t *testing.T) {
	hub := NewHub()

	alice := newTestClient(t, hub, 1, "alice")
	hub.Register(alice)
	hub.JoinRoom(7, alice)

	require.True(t, hub.LeaveRoom(7, alice))
	require.False(t, hub.LeaveRoom(7, alice), "second leave must be a no-op")

	hub.BroadcastToRoom(7, ServerEvent{Type: EventUpdate})
	requireNoEvent(t, alice)
}

func TestHub_UnregisterNotifiesRemainingMembers(t *testing.T) {
	hub := NewHub()

	alice := newTestClient(t, hub, 1, "alice")
	bob := newTestClient(t, hub, 2, "bob")
	hub.Register(alice)
	hub.Register(bob)
	hub.JoinRoom(7, alice)
	hub.JoinRoom(7, bob)

	hub.Unregister(bob)

	event := receiveEvent(t, alice)
	require.Equal(t, EventParticipantLeft, event.Type)

	payload, err := json.Marshal(event.Payload)
	require.NoError(t, err)
	var presence PresencePayload
	require.NoError(t, json.Unmarshal(payload, &presence))
	require.Equal(t, "bob", presence.Nickname)
	require.Equal(t, 2, presence.UserID)

	// The departed client's channel is closed and no longer reachable.
	_, open := <-bob.send
	require.False(t, open)

	// Broadcasting after unregister must not deliver to bob.
	hub.BroadcastToRoom(7, ServerEvent{Type: EventUpdate})
	require.Equal(t, EventUpdate, receiveEvent(t, alice).Type)
}

func TestHub_MatchUpdatedFansOutToMatchRoom(t *testing.T) {
	hub := NewHub()

	alice := newTestClient(t, hub, 1, "alice")
	hub.Register(alice)
	hub.JoinRoom(42, alice)

	hub.MatchUpdated(&models.Match{ID: 42, Status: models.MatchStatusPlaying, Board: game.NewBoard()})

	event := receiveEvent(t, alice)
	require.Equal(t, EventUpdate, event.Type)

	payload, err := json.Marshal(event.Payload)
	require.NoError(t, err)
	var update UpdatePayload
	require.NoError(t, json.Unmarshal(payload, &update))
	require.Equal(t, 42, update.Match.ID)
}
