package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/emberapp/ember-backend/internal/domain"
	"github.com/emberapp/ember-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type votingRepository struct {
	db *sqlx.DB
}

func NewVotingRepository(db *sqlx.DB) repository.VotingRepository {
	return &votingRepository{db: db}
}

func (r *votingRepository) Create(ctx context.Context, round *domain.VotingRound) error {
	query := `
		INSERT INTO voting_rounds (id, connection_id, options, votes, voting_ends_at, resolved, reopened)
		VALUES ($1, $2, $3, $4, $5, FALSE, FALSE)
		RETURNING created_at
	`
	return r.db.QueryRowContext(
		ctx, query,
		round.ID, round.ConnectionID, round.Options, round.Votes, round.VotingEndsAt,
	).Scan(&round.CreatedAt)
}

func (r *votingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.VotingRound, error) {
	var round domain.VotingRound
	query := `SELECT * FROM voting_rounds WHERE id = $1`
	err := r.db.GetContext(ctx, &round, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRoundNotFound
		}
		return nil, err
	}
	return &round, nil
}

func (r *votingRepository) GetOpenByConnection(ctx context.Context, connectionID int) (*domain.VotingRound, error) {
	var round domain.VotingRound
	query := `
		SELECT * FROM voting_rounds
		WHERE connection_id = $1 AND resolved = FALSE
		ORDER BY created_at DESC
		LIMIT 1
	`
	err := r.db.GetContext(ctx, &round, query, connectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRoundNotFound
		}
		return nil, err
	}
	return &round, nil
}

func (r *votingRepository) SaveVotes(ctx context.Context, id uuid.UUID, votes domain.VoteMap) error {
	query := `UPDATE voting_rounds SET votes = $1 WHERE id = $2 AND resolved = FALSE`
	result, err := r.db.ExecContext(ctx, query, votes, id)
	if err != nil {
		return err
	}
	return requireRow(result, domain.ErrRoundClosed)
}

func (r *votingRepository) MarkResolved(ctx context.Context, id uuid.UUID, missionID *int) (bool, error) {
	query := `
		UPDATE voting_rounds SET resolved = TRUE, resolved_mission_id = $1
		WHERE id = $2 AND resolved = FALSE
	`
	result, err := r.db.ExecContext(ctx, query, missionID, id)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (r *votingRepository) Reopen(ctx context.Context, id uuid.UUID, votingEndsAt time.Time) (bool, error) {
	query := `
		UPDATE voting_rounds SET voting_ends_at = $1, reopened = TRUE
		WHERE id = $2 AND resolved = FALSE
	`
	result, err := r.db.ExecContext(ctx, query, votingEndsAt, id)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (r *votingRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*domain.VotingRound, error) {
	var rounds []*domain.VotingRound
	query := `
		SELECT * FROM voting_rounds
		WHERE resolved = FALSE AND voting_ends_at <= $1
		ORDER BY voting_ends_at
		LIMIT $2
	`
	err := r.db.SelectContext(ctx, &rounds, query, now, limit)
	return rounds, err
}

func (r *votingRepository) CancelOpenByConnection(ctx context.Context, connectionID int) error {
	query := `
		UPDATE voting_rounds SET resolved = TRUE, resolved_mission_id = NULL
		WHERE connection_id = $1 AND resolved = FALSE
	`
	_, err := r.db.ExecContext(ctx, query, connectionID)
	return err
}
