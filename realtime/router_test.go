package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/Dosada05/tictactoe-arena/game"
	"github.com/Dosada05/tictactoe-arena/models"
	"github.com/Dosada05/tictactoe-arena/services"
	"github.com/stretchr/testify/require"
)

type fakeMatchService struct {
	getMatch  *models.Match
	getErr    error
	joinMatch *models.Match
	joinErr   error
	moveErr   error

	joinCalls []int
	moveCells []int
}

func (f *fakeMatchService) Create(ctx context.Context, creatorID int) (*models.Match, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeMatchService) Join(ctx context.Context, matchID, joinerID int) (*models.Match, error) {
	f.joinCalls = append(f.joinCalls, matchID)
	return f.joinMatch, f.joinErr
}

func (f *fakeMatchService) Get(ctx context.Context, matchID, callerID int) (*models.Match, error) {
	return f.getMatch, f.getErr
}

func (f *fakeMatchService) ListJoinable(ctx context.Context) ([]*models.Match, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeMatchService) ListForUser(ctx context.Context, userID int) ([]*models.Match, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeMatchService) MakeMove(ctx context.Context, matchID, moverID, cell int) (*models.Match, error) {
	f.moveCells = append(f.moveCells, cell)
	if f.moveErr != nil {
		return nil, f.moveErr
	}
	return &models.Match{ID: matchID}, nil
}

func newTestRouter(matches services.MatchService) (*Router, *Hub) {
	hub := NewHub()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(hub, matches, logger), hub
}

func errorMessage(t *testing.T, event ServerEvent) string {
	t.Helper()
	require.Equal(t, EventError, event.Type)
	data, err := json.Marshal(event.Payload)
	require.NoError(t, err)
	var payload ErrorPayload
	require.NoError(t, json.Unmarshal(data, &payload))
	return payload.Message
}

func TestRouter_JoinAsParticipant(t *testing.T) {
	matches := &fakeMatchService{getMatch: &models.Match{ID: 5, Player1ID: 1, Board: game.NewBoard()}}
	router, hub := newTestRouter(matches)

	opponent := newTestClient(t, hub, 2, "bob")
	hub.Register(opponent)
	hub.JoinRoom(5, opponent)

	client := newTestClient(t, hub, 1, "alice")
	hub.Register(client)

	router.Dispatch(context.Background(), client, ClientEvent{Type: EventJoin, MatchID: 5})

	require.Empty(t, matches.joinCalls, "existing participants must not take a seat again")
	require.Equal(t, EventJoined, receiveEvent(t, client).Type)
	require.Equal(t, EventParticipantJoined, receiveEvent(t, opponent).Type)

	// Room membership is live: updates now reach the client.
	hub.BroadcastToRoom(5, ServerEvent{Type: EventUpdate})
	require.Equal(t, EventUpdate, receiveEvent(t, client).Type)
}

func TestRouter_JoinTakesEmptySeat(t *testing.T) {
	two := 2
	matches := &fakeMatchService{
		getErr:    services.ErrAccessDenied,
		joinMatch: &models.Match{ID: 5, Player1ID: 1, Player2ID: &two, Status: models.MatchStatusPlaying, Board: game.NewBoard()},
	}
	router, hub := newTestRouter(matches)

	client := newTestClient(t, hub, 2, "bob")
	hub.Register(client)

	router.Dispatch(context.Background(), client, ClientEvent{Type: EventJoin, MatchID: 5})

	require.Equal(t, []int{5}, matches.joinCalls)

	event := receiveEvent(t, client)
	require.Equal(t, EventJoined, event.Type)
	data, err := json.Marshal(event.Payload)
	require.NoError(t, err)
	var payload JoinedPayload
	require.NoError(t, json.Unmarshal(data, &payload))
	require.Equal(t, 5, payload.MatchID)
	require.Equal(t, models.MatchStatusPlaying, payload.Match.Status)

	// The seat-taking path relies on the match service to announce the
	// new participant, so the router itself queues nothing else.
	requireNoEvent(t, client)
}

func TestRouter_JoinFullMatch(t *testing.T) {
	matches := &fakeMatchService{
		getErr:  services.ErrAccessDenied,
		joinErr: services.ErrMatchNotJoinable,
	}
	router, hub := newTestRouter(matches)

	client := newTestClient(t, hub, 3, "carol")
	hub.Register(client)

	router.Dispatch(context.Background(), client, ClientEvent{Type: EventJoin, MatchID: 5})

	require.Equal(t, services.ErrMatchNotJoinable.Error(), errorMessage(t, receiveEvent(t, client)))

	hub.BroadcastToRoom(5, ServerEvent{Type: EventUpdate})
	requireNoEvent(t, client)
}

func TestRouter_MoveRequiresCell(t *testing.T) {
	matches := &fakeMatchService{}
	router, hub := newTestRouter(matches)

	client := newTestClient(t, hub, 1, "alice")
	hub.Register(client)

	router.Dispatch(context.Background(), client, ClientEvent{Type: EventMove, MatchID: 5})

	require.Equal(t, "cell is required", errorMessage(t, receiveEvent(t, client)))
	require.Empty(t, matches.moveCells)
}

func TestRouter_MoveSuccessIsSilent(t *testing.T) {
	matches := &fakeMatchService{}
	router, hub := newTestRouter(matches)

	client := newTestClient(t, hub, 1, "alice")
	hub.Register(client)

	cell := 4
	router.Dispatch(context.Background(), client, ClientEvent{Type: EventMove, MatchID: 5, Cell: &cell})

	require.Equal(t, []int{4}, matches.moveCells)
	requireNoEvent(t, client)
}

func TestRouter_MoveDomainErrorGoesToSenderOnly(t *testing.T) {
	matches := &fakeMatchService{moveErr: services.ErrOutOfTurn}
	router, hub := newTestRouter(matches)

	client := newTestClient(t, hub, 1, "alice")
	other := newTestClient(t, hub, 2, "bob")
	hub.Register(client)
	hub.Register(other)
	hub.JoinRoom(5, client)
	hub.JoinRoom(5, other)

	cell := 0
	router.Dispatch(context.Background(), client, ClientEvent{Type: EventMove, MatchID: 5, Cell: &cell})

	require.Equal(t, services.ErrOutOfTurn.Error(), errorMessage(t, receiveEvent(t, client)))
	requireNoEvent(t, other)
}

func TestRouter_UnexpectedErrorIsMasked(t *testing.T) {
	matches := &fakeMatchService{moveErr: errors.New("pq: connection reset")}
	router, hub := newTestRouter(matches)

	client := newTestClient(t, hub, 1, "alice")
	hub.Register(client)

	cell := 0
	router.Dispatch(context.Background(), client, ClientEvent{Type: EventMove, MatchID: 5, Cell: &cell})

	require.Equal(t, "internal error", errorMessage(t, receiveEvent(t, client)))
}

func TestRouter_LeaveBroadcastsDeparture(t *testing.T) {
	matches := &fakeMatchService{}
	router, hub := newTestRouter(matches)

	client := newTestClient(t, hub, 1, "alice")
	other := newTestClient(t, hub, 2, "bob")
	hub.Register(client)
	hub.Register(other)
	hub.JoinRoom(5, client)
	hub.JoinRoom(5, other)

	router.Dispatch(context.Background(), client, ClientEvent{Type: EventLeave, MatchID: 5})

	require.Equal(t, EventParticipantLeft, receiveEvent(t, other).Type)
	requireNoEvent(t, client)

	// Leaving a room the client is not in stays silent.
	router.Dispatch(context.Background(), client, ClientEvent{Type: EventLeave, MatchID: 5})
	requireNoEvent(t, other)
}

func TestRouter_UnknownEventType(t *testing.T) {
	matches := &fakeMatchService{}
	router, hub := newTestRouter(matches)

	client := newTestClient(t, hub, 1, "alice")
	hub.Register(client)

	router.Dispatch(context.Background(), client, ClientEvent{Type: "shout", MatchID: 5})

	require.Equal(t, "unknown event type", errorMessage(t, receiveEvent(t, client)))
}
