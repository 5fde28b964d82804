package realtime

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Dosada05/tictactoe-arena/services"
)

// Router maps inbound connection events onto match transitions and room
// membership. Failures are signalled privately to the originating
// connection and never broadcast.
type Router struct {
	hub     *Hub
	matches services.MatchService
	logger  *slog.Logger
}

func NewRouter(hub *Hub, matches services.MatchService, logger *slog.Logger) *Router {
	return &Router{
		hub:     hub,
		matches: matches,
		logger:  logger,
	}
}

func (r *Router) Dispatch(ctx context.Context, client *Client, event ClientEvent) {
	switch event.Type {
	case EventJoin:
		r.handleJoin(ctx, client, event)
	case EventLeave:
		r.handleLeave(client, event)
	case EventMove:
		r.handleMove(ctx, client, event)
	default:
		client.SendEvent(ServerEvent{Type: EventError, Payload: ErrorPayload{Message: "unknown event type"}})
	}
}

func (r *Router) handleJoin(ctx context.Context, client *Client, event ClientEvent) {
	match, err := r.matches.Get(ctx, event.MatchID, client.UserID)

	tookSeat := false
	if errors.Is(err, services.ErrAccessDenied) {
		// Not a participant yet: the caller may still be eligible to fill
		// the empty second slot.
		match, err = r.matches.Join(ctx, event.MatchID, client.UserID)
		tookSeat = true
	}
	if err != nil {
		r.sendError(client, err)
		return
	}

	r.hub.JoinRoom(event.MatchID, client)
	client.SendEvent(ServerEvent{
		Type:    EventJoined,
		Payload: JoinedPayload{MatchID: event.MatchID, Match: match},
	})

	// The join transition already notified the room through the service;
	// only a returning participant needs announcing here.
	if !tookSeat {
		r.hub.BroadcastToRoomExcept(event.MatchID, ServerEvent{
			Type:    EventParticipantJoined,
			Payload: PresencePayload{UserID: client.UserID, Nickname: client.Nickname},
		}, client)
	}

	r.logger.Info("client joined match room",
		slog.String("client_id", client.ID),
		slog.Int("user_id", client.UserID),
		slog.Int("match_id", event.MatchID))
}

func (r *Router) handleLeave(client *Client, event ClientEvent) {
	if !r.hub.LeaveRoom(event.MatchID, client) {
		return
	}
	r.hub.BroadcastToRoom(event.MatchID, ServerEvent{
		Type:    EventParticipantLeft,
		Payload: PresencePayload{UserID: client.UserID, Nickname: client.Nickname},
	})
}

func (r *Router) handleMove(ctx context.Context, client *Client, event ClientEvent) {
	if event.Cell == nil {
		client.SendEvent(ServerEvent{Type: EventError, Payload: ErrorPayload{Message: "cell is required"}})
		return
	}

	// On success the service broadcasts the committed state to the room;
	// nothing more to do here.
	if _, err := r.matches.MakeMove(ctx, event.MatchID, client.UserID, *event.Cell); err != nil {
		r.sendError(client, err)
		return
	}
}

// sendError routes a failure to the originating client. Expected domain
// errors carry their own message; anything else is logged and masked.
func (r *Router) sendError(client *Client, err error) {
	message := "internal error"
	if isUserFacing(err) {
		message = err.Error()
	} else {
		r.logger.Error("realtime event failed",
			slog.String("client_id", client.ID),
			slog.Int("user_id", client.UserID),
			slog.Any("error", err))
	}
	client.SendEvent(ServerEvent{Type: EventError, Payload: ErrorPayload{Message: message}})
}

func isUserFacing(err error) bool {
	for _, known := range []error{
		services.ErrValidationFailed,
		services.ErrInvalidPosition,
		services.ErrMatchNotFound,
		services.ErrMatchNotJoinable,
		services.ErrMatchNotPlayable,
		services.ErrOutOfTurn,
		services.ErrCellOccupied,
		services.ErrMoveConflict,
		services.ErrAccessDenied,
		services.ErrUserNotFound,
	} {
		if errors.Is(err, known) {
			return true
		}
	}
	return false
}
