package voting

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/emberapp/ember-backend/internal/config"
	"github.com/emberapp/ember-backend/internal/domain"
	"github.com/emberapp/ember-backend/internal/engine"
	"github.com/emberapp/ember-backend/internal/events"
	"github.com/emberapp/ember-backend/internal/infrastructure/cache"
	"github.com/emberapp/ember-backend/internal/repository"
	"github.com/emberapp/ember-backend/internal/usecase/catalog"
	"github.com/google/uuid"
)

const sharedInterestTTL = 15 * time.Minute

// VotingUseCase runs the dual-vote mission selection protocol: one open round
// per connection, one immutable vote per member, exactly-once resolution by
// either the second vote or the deadline.
type VotingUseCase struct {
	votingRepo   repository.VotingRepository
	connRepo     repository.ConnectionRepository
	profileRepo  repository.ProfileRepository
	responseRepo repository.ResponseRepository
	catalogUC    *catalog.CatalogUseCase
	cacheSvc     *cache.Service
	publisher    events.Publisher
	locks        *engine.ConnectionLocks
	cfg          config.EngineConfig
	now          func() time.Time
}

func NewVotingUseCase(
	votingRepo repository.VotingRepository,
	connRepo repository.ConnectionRepository,
	profileRepo repository.ProfileRepository,
	responseRepo repository.ResponseRepository,
	catalogUC *catalog.CatalogUseCase,
	cacheSvc *cache.Service,
	publisher events.Publisher,
	locks *engine.ConnectionLocks,
	cfg config.EngineConfig,
) *VotingUseCase {
	return &VotingUseCase{
		votingRepo:   votingRepo,
		connRepo:     connRepo,
		profileRepo:  profileRepo,
		responseRepo: responseRepo,
		catalogUC:    catalogUC,
		cacheSvc:     cacheSvc,
		publisher:    publisher,
		locks:        locks,
		cfg:          cfg,
		now:          time.Now,
	}
}

// RoundView is the active round as seen by one member.
type RoundView struct {
	*domain.VotingRound
	YourVote   *int `json:"your_vote,omitempty"`
	OtherVoted bool `json:"other_voted"`
}

// StartRound opens a voting round for an active connection that has no open
// round and no active mission. Idempotent: an existing open round is returned
// as-is. Returns (nil, nil) when the journey is complete and there is nothing
// left to vote on.
func (uc *VotingUseCase) StartRound(ctx context.Context, connectionID int) (*domain.VotingRound, error) {
	defer uc.locks.Lock(connectionID)()
	return uc.startRoundLocked(ctx, connectionID)
}

func (uc *VotingUseCase) startRoundLocked(ctx context.Context, connectionID int) (*domain.VotingRound, error) {
	conn, err := uc.connRepo.GetByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if conn.Status != domain.ConnectionActive {
		return nil, fmt.Errorf("%w: connection is %s", domain.ErrInvalidTransition, conn.Status)
	}
	if existing, err := uc.votingRepo.GetOpenByConnection(ctx, connectionID); err == nil {
		return existing, nil
	} else if err != domain.ErrRoundNotFound {
		return nil, fmt.Errorf("failed to check open round: %w", err)
	}
	if conn.CurrentMissionID != nil {
		return nil, fmt.Errorf("%w: a mission is already active", domain.ErrInvalidTransition)
	}
	if conn.Progress >= domain.MaxProgress {
		return nil, nil
	}

	shared, err := uc.sharedInterests(ctx, conn)
	if err != nil {
		return nil, err
	}
	completed, err := uc.responseRepo.CompletedMissionIDs(ctx, connectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load completed missions: %w", err)
	}
	options, err := uc.catalogUC.Candidates(ctx, shared, completed, uc.cfg.CandidateCount)
	if err != nil {
		return nil, err
	}
	if len(options) < 2 {
		return nil, fmt.Errorf("catalog exhausted for connection %d", connectionID)
	}

	round := &domain.VotingRound{
		ID:           uuid.New(),
		ConnectionID: connectionID,
		Options:      options,
		Votes:        domain.VoteMap{},
		VotingEndsAt: uc.now().UTC().Add(uc.cfg.RoundDuration),
	}
	if err := uc.votingRepo.Create(ctx, round); err != nil {
		return nil, fmt.Errorf("failed to create voting round: %w", err)
	}

	uc.publish(ctx, domain.NewEvent(domain.EventRoundStarted, conn, round))
	return round, nil
}

// StartRoundFor is StartRound gated on membership, for member-initiated
// starts over HTTP.
func (uc *VotingUseCase) StartRoundFor(ctx context.Context, connectionID, userID int) (*domain.VotingRound, error) {
	conn, err := uc.connRepo.GetByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if !conn.HasUser(userID) {
		return nil, domain.ErrForbidden
	}
	return uc.StartRound(ctx, connectionID)
}

// GetActive returns the open round of a connection from one member's point of
// view.
func (uc *VotingUseCase) GetActive(ctx context.Context, connectionID, userID int) (*RoundView, error) {
	conn, err := uc.connRepo.GetByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if !conn.HasUser(userID) {
		return nil, domain.ErrForbidden
	}
	round, err := uc.votingRepo.GetOpenByConnection(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	view := &RoundView{VotingRound: round}
	if missionID, ok := round.Votes[userID]; ok {
		view.YourVote = &missionID
	}
	if otherID, ok := conn.OtherUserID(userID); ok {
		_, view.OtherVoted = round.Votes[otherID]
	}
	return view, nil
}

// CastVote records a member's single, immutable vote. The second vote
// resolves the round immediately.
func (uc *VotingUseCase) CastVote(ctx context.Context, roundID uuid.UUID, userID, missionID int) (*domain.VotingRound, error) {
	// Resolve the connection first so the vote serializes with everything
	// else touching it.
	peek, err := uc.votingRepo.GetByID(ctx, roundID)
	if err != nil {
		return nil, err
	}
	defer uc.locks.Lock(peek.ConnectionID)()

	round, err := uc.votingRepo.GetByID(ctx, roundID)
	if err != nil {
		return nil, err
	}
	conn, err := uc.connRepo.GetByID(ctx, round.ConnectionID)
	if err != nil {
		return nil, err
	}
	if !conn.HasUser(userID) {
		return nil, domain.ErrForbidden
	}
	if round.Resolved {
		return nil, domain.ErrRoundClosed
	}
	if _, voted := round.Votes[userID]; voted {
		return nil, domain.ErrAlreadyVoted
	}
	if _, ok := round.Option(missionID); !ok {
		return nil, domain.ErrInvalidOption
	}

	votes := make(domain.VoteMap, len(round.Votes)+1)
	for k, v := range round.Votes {
		votes[k] = v
	}
	votes[userID] = missionID
	if err := uc.votingRepo.SaveVotes(ctx, roundID, votes); err != nil {
		return nil, fmt.Errorf("failed to save vote: %w", err)
	}
	round.Votes = votes

	if len(votes) >= 2 {
		if err := uc.resolveLocked(ctx, conn, round); err != nil {
			return nil, err
		}
	}
	return round, nil
}

// resolveLocked resolves a round exactly once; losers of the MarkResolved
// race leave the round untouched. Caller holds the connection lock.
func (uc *VotingUseCase) resolveLocked(ctx context.Context, conn *domain.Connection, round *domain.VotingRound) error {
	missionID, ok := domain.WinningOption(round.Options, round.Votes)
	if !ok {
		missionID, ok = domain.DefaultOption(round.Options)
		if !ok {
			return fmt.Errorf("round %s has no options", round.ID)
		}
	}

	resolved, err := uc.votingRepo.MarkResolved(ctx, round.ID, &missionID)
	if err != nil {
		return fmt.Errorf("failed to resolve round: %w", err)
	}
	if !resolved {
		return nil
	}
	round.Resolved = true
	round.ResolvedMissionID = &missionID

	if err := uc.connRepo.SetCurrentMission(ctx, conn.ID, &missionID); err != nil {
		return fmt.Errorf("failed to set current mission: %w", err)
	}

	uc.publish(ctx, domain.NewEvent(domain.EventRoundResolved, conn, domain.RoundResolvedPayload{
		RoundID:   round.ID,
		MissionID: &missionID,
	}))
	return nil
}

// ExpireDue resolves every round whose deadline has passed. Safe to run
// concurrently with votes and with itself; the resolved flag makes each round
// resolve at most once. Returns how many rounds were acted on.
func (uc *VotingUseCase) ExpireDue(ctx context.Context) (int, error) {
	due, err := uc.votingRepo.ListDue(ctx, uc.now().UTC(), 100)
	if err != nil {
		return 0, fmt.Errorf("failed to list due rounds: %w", err)
	}

	acted := 0
	for _, stale := range due {
		if err := uc.expireOne(ctx, stale.ID, stale.ConnectionID); err != nil {
			log.Printf("voting: expiry of round %s failed: %v", stale.ID, err)
			continue
		}
		acted++
	}
	return acted, nil
}

func (uc *VotingUseCase) expireOne(ctx context.Context, roundID uuid.UUID, connectionID int) error {
	defer uc.locks.Lock(connectionID)()

	round, err := uc.votingRepo.GetByID(ctx, roundID)
	if err != nil {
		return err
	}
	if round.Resolved || round.VotingEndsAt.After(uc.now().UTC()) {
		return nil
	}
	conn, err := uc.connRepo.GetByID(ctx, connectionID)
	if err != nil {
		return err
	}
	if conn.Status != domain.ConnectionActive {
		_, err := uc.votingRepo.MarkResolved(ctx, roundID, nil)
		return err
	}

	// A voteless first expiry re-opens the round instead of picking a mission
	// nobody asked for.
	if len(round.Votes) == 0 && uc.cfg.ReopenOnNoVotes && !round.Reopened {
		deadline := uc.now().UTC().Add(uc.cfg.RoundDuration)
		reopened, err := uc.votingRepo.Reopen(ctx, roundID, deadline)
		if err != nil {
			return fmt.Errorf("failed to reopen round: %w", err)
		}
		if reopened {
			round.VotingEndsAt = deadline
			round.Reopened = true
			uc.publish(ctx, domain.NewEvent(domain.EventRoundStarted, conn, round))
		}
		return nil
	}

	return uc.resolveLocked(ctx, conn, round)
}

func (uc *VotingUseCase) sharedInterests(ctx context.Context, conn *domain.Connection) ([]domain.SharedInterest, error) {
	key := fmt.Sprintf("ember.shared.%d", conn.ID)

	var shared []domain.SharedInterest
	if hit, err := uc.cacheSvc.GetJSON(ctx, key, &shared); err != nil {
		log.Printf("voting: shared-interest cache read failed for %d: %v", conn.ID, err)
	} else if hit {
		return shared, nil
	}

	profileA, err := uc.profileRepo.GetByUserID(ctx, conn.UserAID)
	if err != nil {
		return nil, err
	}
	profileB, err := uc.profileRepo.GetByUserID(ctx, conn.UserBID)
	if err != nil {
		return nil, err
	}
	shared = domain.SharedInterests(profileA.Interests, profileB.Interests)

	if err := uc.cacheSvc.SetJSON(ctx, key, shared, sharedInterestTTL); err != nil {
		log.Printf("voting: shared-interest cache write failed for %d: %v", conn.ID, err)
	}
	return shared, nil
}

// SharedFor exposes the cached shared interests of a connection to sibling
// use cases (the response aggregator uses it for the interest bonus).
func (uc *VotingUseCase) SharedFor(ctx context.Context, conn *domain.Connection) ([]domain.SharedInterest, error) {
	return uc.sharedInterests(ctx, conn)
}

func (uc *VotingUseCase) publish(ctx context.Context, event domain.Event) {
	if err := uc.publisher.Publish(ctx, event); err != nil {
		log.Printf("voting: failed to publish %s for %d: %v", event.Type, event.ConnectionID, err)
	}
}
