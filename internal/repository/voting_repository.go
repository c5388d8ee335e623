package repository

import (
	"context"
	"time"

	"github.com/emberapp/ember-backend/internal/domain"
	"github.com/google/uuid"
)

type VotingRepository interface {
	Create(ctx context.Context, round *domain.VotingRound) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.VotingRound, error)
	// GetOpenByConnection returns the unresolved round for a connection, or
	// domain.ErrRoundNotFound.
	GetOpenByConnection(ctx context.Context, connectionID int) (*domain.VotingRound, error)
	SaveVotes(ctx context.Context, id uuid.UUID, votes domain.VoteMap) error
	// MarkResolved resolves the round exactly once. missionID may be nil for a
	// cancelled round. Returns true only for the call that resolved it.
	MarkResolved(ctx context.Context, id uuid.UUID, missionID *int) (bool, error)
	// Reopen pushes the deadline of an unresolved round and flags it as
	// reopened. Returns false if the round was already resolved.
	Reopen(ctx context.Context, id uuid.UUID, votingEndsAt time.Time) (bool, error)
	// ListDue returns unresolved rounds whose deadline has passed.
	ListDue(ctx context.Context, now time.Time, limit int) ([]*domain.VotingRound, error)
	// CancelOpenByConnection resolves any open round of the connection with no
	// mission.
	CancelOpenByConnection(ctx context.Context, connectionID int) error
}
