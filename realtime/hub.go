package realtime

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/Dosada05/tictactoe-arena/models"
)

// Hub owns all live connections and the match-room membership map. Room
// membership is process-local: it only controls fan-out, the durable match
// state lives in the store.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	rooms   map[int]map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		rooms:   make(map[int]map[*Client]bool),
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()
	log.Printf("client %s registered (user %d)", client.ID, client.UserID)
}

// Unregister removes the client from every room and closes its send
// channel. Remaining room members get a best-effort participant_left.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	delete(h.clients, client)
	var left []int
	for matchID, members := range h.rooms {
		if members[client] {
			delete(members, client)
			if len(members) == 0 {
				delete(h.rooms, matchID)
			} else {
				left = append(left, matchID)
			}
		}
	}
	h.mu.Unlock()

	client.shutdown()

	for _, matchID := range left {
		h.BroadcastToRoom(matchID, ServerEvent{
			Type:    EventParticipantLeft,
			Payload: PresencePayload{UserID: client.UserID, Nickname: client.Nickname},
		})
	}
	log.Printf("client %s unregistered (user %d)", client.ID, client.UserID)
}

func (h *Hub) JoinRoom(matchID int, client *Client) {
	h.mu.Lock()
	if _, ok := h.rooms[matchID]; !ok {
		h.rooms[matchID] = make(map[*Client]bool)
	}
	h.rooms[matchID][client] = true
	size := len(h.rooms[matchID])
	h.mu.Unlock()
	log.Printf("client %s joined room %d, members: %d", client.ID, matchID, size)
}

// LeaveRoom reports whether the client was actually a member.
func (h *Hub) LeaveRoom(matchID int, client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[matchID]
	if !ok || !members[client] {
		return false
	}
	delete(members, client)
	if len(members) == 0 {
		delete(h.rooms, matchID)
	}
	return true
}

func (h *Hub) BroadcastToRoom(matchID int, event ServerEvent) {
	h.broadcast(matchID, event, nil)
}

func (h *Hub) BroadcastToRoomExcept(matchID int, event ServerEvent, except *Client) {
	h.broadcast(matchID, event, except)
}

func (h *Hub) broadcast(matchID int, event ServerEvent, except *Client) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("failed to marshal %s event for room %d: %v", event.Type, matchID, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[matchID] {
		if client == except {
			continue
		}
		client.enqueue(data)
	}
}

// MatchUpdated and ParticipantJoined satisfy services.MatchNotifier, so
// committed transitions fan out to every connection in the match room.

func (h *Hub) MatchUpdated(match *models.Match) {
	h.BroadcastToRoom(match.ID, ServerEvent{
		Type:    EventUpdate,
		Payload: UpdatePayload{Match: match},
	})
}

func (h *Hub) ParticipantJoined(matchID int, nickname string) {
	h.BroadcastToRoom(matchID, ServerEvent{
		Type:    EventParticipantJoined,
		Payload: PresencePayload{Nickname: nickname},
	})
}
