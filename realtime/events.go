package realtime

import "github.com/Dosada05/tictactoe-arena/models"

// Inbound event types.
const (
	EventJoin  = "join"
	EventLeave = "leave"
	EventMove  = "move"
)

// Outbound event types.
const (
	EventJoined            = "joined"
	EventUpdate            = "update"
	EventParticipantJoined = "participant_joined"
	EventParticipantLeft   = "participant_left"
	EventError             = "error"
)

// ClientEvent is the envelope for everything a connection sends us.
type ClientEvent struct {
	Type    string `json:"type"`
	MatchID int    `json:"match_id,omitempty"`
	Cell    *int   `json:"cell,omitempty"`
}

// ServerEvent is the envelope for everything we send to a connection.
type ServerEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

type JoinedPayload struct {
	MatchID int           `json:"match_id"`
	Match   *models.Match `json:"match"`
}

type UpdatePayload struct {
	Match *models.Match `json:"match"`
}

type PresencePayload struct {
	UserID   int    `json:"user_id,omitempty"`
	Nickname string `json:"nickname"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
