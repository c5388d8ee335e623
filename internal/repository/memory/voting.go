package memory

import (
	"context"
	"sync"
	"time"

	"github.com/emberapp/ember-backend/internal/domain"
	"github.com/emberapp/ember-backend/internal/repository"
	"github.com/google/uuid"
)

type VotingRepository struct {
	mu     sync.Mutex
	rounds map[uuid.UUID]*domain.VotingRound
}

func NewVotingRepository() *VotingRepository {
	return &VotingRepository{rounds: make(map[uuid.UUID]*domain.VotingRound)}
}

var _ repository.VotingRepository = (*VotingRepository)(nil)

func (r *VotingRepository) Create(ctx context.Context, round *domain.VotingRound) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	round.CreatedAt = time.Now().UTC()
	if round.Votes == nil {
		round.Votes = domain.VoteMap{}
	}
	r.rounds[round.ID] = cloneRound(round)
	return nil
}

func (r *VotingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.VotingRound, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	round, ok := r.rounds[id]
	if !ok {
		return nil, domain.ErrRoundNotFound
	}
	return cloneRound(round), nil
}

func (r *VotingRepository) GetOpenByConnection(ctx context.Context, connectionID int) (*domain.VotingRound, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *domain.VotingRound
	for _, round := range r.rounds {
		if round.ConnectionID != connectionID || round.Resolved {
			continue
		}
		if latest == nil || round.CreatedAt.After(latest.CreatedAt) {
			latest = round
		}
	}
	if latest == nil {
		return nil, domain.ErrRoundNotFound
	}
	return cloneRound(latest), nil
}

func (r *VotingRepository) SaveVotes(ctx context.Context, id uuid.UUID, votes domain.VoteMap) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	round, ok := r.rounds[id]
	if !ok {
		return domain.ErrRoundNotFound
	}
	if round.Resolved {
		return domain.ErrRoundClosed
	}
	round.Votes = make(domain.VoteMap, len(votes))
	for k, v := range votes {
		round.Votes[k] = v
	}
	return nil
}

func (r *VotingRepository) MarkResolved(ctx context.Context, id uuid.UUID, missionID *int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	round, ok := r.rounds[id]
	if !ok {
		return false, domain.ErrRoundNotFound
	}
	if round.Resolved {
		return false, nil
	}
	round.Resolved = true
	round.ResolvedMissionID = missionID
	return true, nil
}

func (r *VotingRepository) Reopen(ctx context.Context, id uuid.UUID, votingEndsAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	round, ok := r.rounds[id]
	if !ok {
		return false, domain.ErrRoundNotFound
	}
	if round.Resolved {
		return false, nil
	}
	round.VotingEndsAt = votingEndsAt
	round.Reopened = true
	return true, nil
}

func (r *VotingRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*domain.VotingRound, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.VotingRound
	for _, round := range r.rounds {
		if len(out) >= limit {
			break
		}
		if !round.Resolved && !round.VotingEndsAt.After(now) {
			out = append(out, cloneRound(round))
		}
	}
	return out, nil
}

func (r *VotingRepository) CancelOpenByConnection(ctx context.Context, connectionID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, round := range r.rounds {
		if round.ConnectionID == connectionID && !round.Resolved {
			round.Resolved = true
			round.ResolvedMissionID = nil
		}
	}
	return nil
}

func cloneRound(round *domain.VotingRound) *domain.VotingRound {
	clone := *round
	clone.Options = append(domain.VoteOptionList(nil), round.Options...)
	clone.Votes = make(domain.VoteMap, len(round.Votes))
	for k, v := range round.Votes {
		clone.Votes[k] = v
	}
	return &clone
}
