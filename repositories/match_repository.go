package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tictactoe-arena/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound        = errors.New("match not found")
	ErrMatchPlayerInvalid   = errors.New("match references an unknown player")
	ErrMoveSequenceConflict = errors.New("move sequence already recorded for this match")
)

// matchColumns is the joined projection used everywhere a match is read
// for presentation. Nicknames are display-only.
const matchColumns = `
	m.id, m.player1_id, m.player2_id, m.board, m.status, m.current_turn,
	m.winner_id, m.created_at, m.finished_at,
	u1.nickname, u2.nickname, uw.nickname`

const matchJoins = `
	FROM matches m
	JOIN users u1 ON m.player1_id = u1.id
	LEFT JOIN users u2 ON m.player2_id = u2.id
	LEFT JOIN users uw ON m.winner_id = uw.id`

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, creatorID int) (*models.Match, error)
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	// GetByIDForUpdate loads the bare match row under a row lock. It must be
	// called with a *sql.Tx executor; the lock is the serialization point for
	// all join/move transitions on the match.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	Update(ctx context.Context, exec SQLExecutor, match *models.Match) error
	InsertMove(ctx context.Context, exec SQLExecutor, move *models.Move) error
	ListJoinable(ctx context.Context, limit int) ([]*models.Match, error)
	ListByParticipant(ctx context.Context, userID, limit int) ([]*models.Match, error)
	ListMoves(ctx context.Context, matchID int) ([]*models.Move, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, creatorID int) (*models.Match, error) {
	query := `
		INSERT INTO matches (player1_id, current_turn)
		VALUES ($1, $1)
		RETURNING id, player1_id, player2_id, board, status, current_turn,
		          winner_id, created_at, finished_at`

	match := &models.Match{}
	err := exec.QueryRowContext(ctx, query, creatorID).Scan(
		&match.ID,
		&match.Player1ID,
		&match.Player2ID,
		&match.Board,
		&match.Status,
		&match.CurrentTurnID,
		&match.WinnerID,
		&match.CreatedAt,
		&match.FinishedAt,
	)
	if err != nil {
		return nil, r.handleMatchError(err)
	}
	return match, nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	query := `SELECT` + matchColumns + matchJoins + ` WHERE m.id = $1`

	match, err := scanJoinedMatch(exec.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match %d: %w", id, err)
	}
	return match, nil
}

func (r *postgresMatchRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	// No joins here: FOR UPDATE must lock exactly the matches row.
	query := `
		SELECT id, player1_id, player2_id, board, status, current_turn,
		       winner_id, created_at, finished_at
		FROM matches
		WHERE id = $1
		FOR UPDATE`

	match := &models.Match{}
	err := exec.QueryRowContext(ctx, query, id).Scan(
		&match.ID,
		&match.Player1ID,
		&match.Player2ID,
		&match.Board,
		&match.Status,
		&match.CurrentTurnID,
		&match.WinnerID,
		&match.CreatedAt,
		&match.FinishedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to lock match %d: %w", id, err)
	}
	return match, nil
}

func (r *postgresMatchRepository) Update(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		UPDATE matches
		SET player2_id = $1, board = $2, status = $3, current_turn = $4,
		    winner_id = $5, finished_at = $6
		WHERE id = $7`

	result, err := exec.ExecContext(ctx, query,
		match.Player2ID,
		match.Board,
		match.Status,
		match.CurrentTurnID,
		match.WinnerID,
		match.FinishedAt,
		match.ID,
	)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) InsertMove(ctx context.Context, exec SQLExecutor, move *models.Move) error {
	query := `
		INSERT INTO match_moves (match_id, player_id, cell, sequence)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		move.MatchID,
		move.PlayerID,
		move.Cell,
		move.Sequence,
	).Scan(&move.ID, &move.CreatedAt)
	if err != nil {
		return r.handleMatchError(err)
	}
	return nil
}

func (r *postgresMatchRepository) ListJoinable(ctx context.Context, limit int) ([]*models.Match, error) {
	query := `SELECT` + matchColumns + matchJoins + `
		WHERE m.status = 'waiting'
		ORDER BY m.created_at ASC
		LIMIT $1`

	return r.queryMatches(ctx, query, limit)
}

func (r *postgresMatchRepository) ListByParticipant(ctx context.Context, userID, limit int) ([]*models.Match, error) {
	query := `SELECT` + matchColumns + matchJoins + `
		WHERE m.player1_id = $1 OR m.player2_id = $1
		ORDER BY m.created_at DESC
		LIMIT $2`

	return r.queryMatches(ctx, query, userID, limit)
}

func (r *postgresMatchRepository) ListMoves(ctx context.Context, matchID int) ([]*models.Move, error) {
	query := `
		SELECT id, match_id, player_id, cell, sequence, created_at
		FROM match_moves
		WHERE match_id = $1
		ORDER BY sequence ASC`

	rows, err := r.db.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query moves for match %d: %w", matchID, err)
	}
	defer rows.Close()

	moves := make([]*models.Move, 0)
	for rows.Next() {
		move := &models.Move{}
		if scanErr := rows.Scan(
			&move.ID,
			&move.MatchID,
			&move.PlayerID,
			&move.Cell,
			&move.Sequence,
			&move.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan move row: %w", scanErr)
		}
		moves = append(moves, move)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during move rows iteration: %w", err)
	}
	return moves, nil
}

func (r *postgresMatchRepository) queryMatches(ctx context.Context, query string, args ...interface{}) ([]*models.Match, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		match, scanErr := scanJoinedMatch(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, match)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJoinedMatch(row rowScanner) (*models.Match, error) {
	match := &models.Match{}
	err := row.Scan(
		&match.ID,
		&match.Player1ID,
		&match.Player2ID,
		&match.Board,
		&match.Status,
		&match.CurrentTurnID,
		&match.WinnerID,
		&match.CreatedAt,
		&match.FinishedAt,
		&match.Player1Nickname,
		&match.Player2Nickname,
		&match.WinnerNickname,
	)
	if err != nil {
		return nil, err
	}
	return match, nil
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Constraint {
		case "matches_player1_id_fkey", "matches_player2_id_fkey",
			"matches_current_turn_fkey", "matches_winner_id_fkey",
			"match_moves_player_id_fkey":
			return ErrMatchPlayerInvalid
		case "match_moves_match_id_fkey":
			return ErrMatchNotFound
		case "match_moves_match_id_sequence_key":
			return ErrMoveSequenceConflict
		}
	}
	return err
}
