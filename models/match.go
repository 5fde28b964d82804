package models

import (
	"time"

	"github.com/Dosada05/tictactoe-arena/game"
)

type MatchStatus string

const (
	MatchStatusWaiting  MatchStatus = "waiting"
	MatchStatusPlaying  MatchStatus = "playing"
	MatchStatusFinished MatchStatus = "finished"
)

type Match struct {
	ID            int         `json:"id"`
	Player1ID     int         `json:"player1_id"`
	Player2ID     *int        `json:"player2_id,omitempty"`
	Board         game.Board  `json:"board"`
	Status        MatchStatus `json:"status"`
	CurrentTurnID *int        `json:"current_turn,omitempty"`
	WinnerID      *int        `json:"winner_id,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	FinishedAt    *time.Time  `json:"finished_at,omitempty"`

	// Display fields populated by joins, never used for identity checks.
	Player1Nickname string  `json:"player1_nickname,omitempty"`
	Player2Nickname *string `json:"player2_nickname,omitempty"`
	WinnerNickname  *string `json:"winner_nickname,omitempty"`

	// Moves is the audit log, populated only on the match detail view.
	Moves []*Move `json:"moves,omitempty"`
}

// IsParticipant reports whether the user occupies one of the two player slots.
func (m *Match) IsParticipant(userID int) bool {
	if m.Player1ID == userID {
		return true
	}
	return m.Player2ID != nil && *m.Player2ID == userID
}

// Move is one accepted move. Rows are append-only.
type Move struct {
	ID        int       `json:"id"`
	MatchID   int       `json:"match_id"`
	PlayerID  int       `json:"player_id"`
	Cell      int       `json:"cell"`
	Sequence  int       `json:"sequence"`
	CreatedAt time.Time `json:"created_at"`
}
