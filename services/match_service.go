package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/tictactoe-arena/game"
	"github.com/Dosada05/tictactoe-arena/models"
	"github.com/Dosada05/tictactoe-arena/repositories"
	"golang.org/x/sync/errgroup"
)

const (
	listJoinableLimit    = 20
	listParticipantLimit = 50
)

// MatchNotifier receives committed state changes for realtime fan-out.
// Implemented by the realtime hub; notifications are fired only after the
// transaction that produced them has committed.
type MatchNotifier interface {
	MatchUpdated(match *models.Match)
	ParticipantJoined(matchID int, nickname string)
}

type MatchService interface {
	Create(ctx context.Context, creatorID int) (*models.Match, error)
	Join(ctx context.Context, matchID, joinerID int) (*models.Match, error)
	Get(ctx context.Context, matchID, callerID int) (*models.Match, error)
	ListJoinable(ctx context.Context) ([]*models.Match, error)
	ListForUser(ctx context.Context, userID int) ([]*models.Match, error)
	MakeMove(ctx context.Context, matchID, moverID, cell int) (*models.Match, error)
}

type matchService struct {
	db        *sql.DB
	matchRepo repositories.MatchRepository
	userRepo  repositories.UserRepository
	notifier  MatchNotifier
}

func NewMatchService(
	db *sql.DB,
	matchRepo repositories.MatchRepository,
	userRepo repositories.UserRepository,
	notifier MatchNotifier,
) MatchService {
	return &matchService{
		db:        db,
		matchRepo: matchRepo,
		userRepo:  userRepo,
		notifier:  notifier,
	}
}

func (s *matchService) Create(ctx context.Context, creatorID int) (*models.Match, error) {
	match, err := s.matchRepo.Create(ctx, s.db, creatorID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchPlayerInvalid) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	// Reload with nicknames for the response payload.
	full, err := s.matchRepo.GetByID(ctx, s.db, match.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load created match %d: %w", match.ID, err)
	}
	return full, nil
}

func (s *matchService) Join(ctx context.Context, matchID, joinerID int) (*models.Match, error) {
	joiner, err := s.userRepo.GetByID(ctx, joinerID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load joining user %d: %w", joinerID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin join transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	match, err := s.matchRepo.GetByIDForUpdate(ctx, tx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to lock match %d: %w", matchID, err)
	}

	if err := applyJoin(match, joinerID); err != nil {
		return nil, err
	}

	if err := s.matchRepo.Update(ctx, tx, match); err != nil {
		return nil, fmt.Errorf("failed to persist join for match %d: %w", matchID, err)
	}

	full, err := s.matchRepo.GetByID(ctx, tx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload match %d: %w", matchID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit join transaction: %w", err)
	}

	if s.notifier != nil {
		s.notifier.MatchUpdated(full)
		s.notifier.ParticipantJoined(full.ID, joiner.Nickname)
	}
	return full, nil
}

func (s *matchService) Get(ctx context.Context, matchID, callerID int) (*models.Match, error) {
	var (
		match *models.Match
		moves []*models.Move
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := s.matchRepo.GetByID(gCtx, s.db, matchID)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				return ErrMatchNotFound
			}
			return fmt.Errorf("failed to load match %d: %w", matchID, err)
		}
		match = m
		return nil
	})
	g.Go(func() error {
		list, err := s.matchRepo.ListMoves(gCtx, matchID)
		if err != nil {
			return fmt.Errorf("failed to load moves for match %d: %w", matchID, err)
		}
		moves = list
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if !match.IsParticipant(callerID) {
		return nil, ErrAccessDenied
	}

	match.Moves = moves
	return match, nil
}

func (s *matchService) ListJoinable(ctx context.Context) ([]*models.Match, error) {
	matches, err := s.matchRepo.ListJoinable(ctx, listJoinableLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list joinable matches: %w", err)
	}
	return matches, nil
}

func (s *matchService) ListForUser(ctx context.Context, userID int) ([]*models.Match, error) {
	matches, err := s.matchRepo.ListByParticipant(ctx, userID, listParticipantLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for user %d: %w", userID, err)
	}
	return matches, nil
}

func (s *matchService) MakeMove(ctx context.Context, matchID, moverID, cell int) (*models.Match, error) {
	// Malformed input is rejected before the store is touched.
	if cell < 0 || cell >= game.Cells {
		return nil, ErrInvalidPosition
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin move transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// The row lock taken here serializes every transition on this match:
	// of two racing movers, the second validates against the committed
	// state of the first and fails cleanly.
	match, err := s.matchRepo.GetByIDForUpdate(ctx, tx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to lock match %d: %w", matchID, err)
	}

	move, err := applyMove(match, moverID, cell, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.matchRepo.Update(ctx, tx, match); err != nil {
		return nil, fmt.Errorf("failed to persist move for match %d: %w", matchID, err)
	}
	if err := s.matchRepo.InsertMove(ctx, tx, move); err != nil {
		if errors.Is(err, repositories.ErrMoveSequenceConflict) {
			return nil, ErrMoveConflict
		}
		return nil, fmt.Errorf("failed to record move for match %d: %w", matchID, err)
	}

	full, err := s.matchRepo.GetByID(ctx, tx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload match %d: %w", matchID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit move transaction: %w", err)
	}

	if s.notifier != nil {
		s.notifier.MatchUpdated(full)
	}
	return full, nil
}

// applyJoin performs the waiting -> playing transition in place.
func applyJoin(match *models.Match, joinerID int) error {
	if match.Status != models.MatchStatusWaiting || match.Player2ID != nil {
		return ErrMatchNotJoinable
	}
	if match.Player1ID == joinerID {
		return ErrMatchNotJoinable
	}
	match.Player2ID = &joinerID
	match.Status = models.MatchStatusPlaying
	return nil
}

// applyMove validates a move against the current match state in the order
// required by the state machine, applies it in place and returns the audit
// record. The caller persists both or neither.
func applyMove(match *models.Match, moverID, cell int, now time.Time) (*models.Move, error) {
	if match.Status != models.MatchStatusPlaying {
		return nil, ErrMatchNotPlayable
	}
	if match.CurrentTurnID == nil || *match.CurrentTurnID != moverID {
		return nil, ErrOutOfTurn
	}
	if cell < 0 || cell >= game.Cells {
		return nil, ErrInvalidPosition
	}
	if match.Board[cell] != game.MarkEmpty {
		return nil, ErrCellOccupied
	}

	mark := game.MarkX
	if match.Player2ID != nil && moverID == *match.Player2ID {
		mark = game.MarkO
	}

	board, err := match.Board.Apply(cell, mark)
	if err != nil {
		return nil, ErrInvalidPosition
	}
	match.Board = board

	switch result, winner := board.Outcome(); result {
	case game.ResultWin:
		match.Status = models.MatchStatusFinished
		if winner == game.MarkX {
			winnerID := match.Player1ID
			match.WinnerID = &winnerID
		} else {
			match.WinnerID = match.Player2ID
		}
		match.CurrentTurnID = nil
		match.FinishedAt = &now
	case game.ResultDraw:
		match.Status = models.MatchStatusFinished
		match.WinnerID = nil
		match.CurrentTurnID = nil
		match.FinishedAt = &now
	default:
		if moverID == match.Player1ID {
			match.CurrentTurnID = match.Player2ID
		} else {
			playerID := match.Player1ID
			match.CurrentTurnID = &playerID
		}
	}

	return &models.Move{
		MatchID:  match.ID,
		PlayerID: moverID,
		Cell:     cell,
		Sequence: board.Occupied(),
	}, nil
}
