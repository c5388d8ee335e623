package response

import (
	"context"
	"fmt"
	"log"

	"github.com/emberapp/ember-backend/internal/domain"
	"github.com/emberapp/ember-backend/internal/engine"
	"github.com/emberapp/ember-backend/internal/events"
	"github.com/emberapp/ember-backend/internal/repository"
	"github.com/emberapp/ember-backend/internal/usecase/connection"
	"github.com/emberapp/ember-backend/internal/usecase/voting"
)

// ResponseUseCase collects each member's answer to the active mission,
// reveals the comparison once both exist, awards the points and schedules the
// next voting round.
type ResponseUseCase struct {
	responseRepo repository.ResponseRepository
	connRepo     repository.ConnectionRepository
	missionRepo  repository.MissionRepository
	connUC       *connection.ConnectionUseCase
	votingUC     *voting.VotingUseCase
	publisher    events.Publisher
	locks        *engine.ConnectionLocks
}

func NewResponseUseCase(
	responseRepo repository.ResponseRepository,
	connRepo repository.ConnectionRepository,
	missionRepo repository.MissionRepository,
	connUC *connection.ConnectionUseCase,
	votingUC *voting.VotingUseCase,
	publisher events.Publisher,
	locks *engine.ConnectionLocks,
) *ResponseUseCase {
	return &ResponseUseCase{
		responseRepo: responseRepo,
		connRepo:     connRepo,
		missionRepo:  missionRepo,
		connUC:       connUC,
		votingUC:     votingUC,
		publisher:    publisher,
		locks:        locks,
	}
}

// SubmitResult is what a submitter gets back: their stored response and, when
// theirs was the second answer, the revealed pair.
type SubmitResult struct {
	Response  *domain.MissionResponse   `json:"response"`
	Completed bool                      `json:"completed"`
	Revealed  []*domain.MissionResponse `json:"revealed,omitempty"`
}

type completionInfo struct {
	mission        *domain.Mission
	sharedInterest bool
	responses      []*domain.MissionResponse
}

// SubmitResponse validates and stores one member's answer. The second answer
// completes the mission: points are awarded once, both payloads are revealed,
// and the next voting round is scheduled.
func (uc *ResponseUseCase) SubmitResponse(ctx context.Context, connectionID, missionID, userID int, payload domain.ResponsePayload) (*SubmitResult, error) {
	unlock := uc.locks.Lock(connectionID)
	result, completion, err := uc.submitLocked(ctx, connectionID, missionID, userID, payload)
	unlock()
	if err != nil {
		return nil, err
	}

	// Progress award and round scheduling take the connection lock themselves,
	// so they run after the guarded section. The completion row already
	// guarantees the points are counted exactly once.
	if completion != nil {
		conn, err := uc.connUC.ApplyProgressDelta(ctx, connectionID, completion.mission.Points, completion.sharedInterest)
		if err != nil {
			return nil, fmt.Errorf("failed to award points: %w", err)
		}
		if conn.Status == domain.ConnectionActive && conn.Progress < domain.MaxProgress {
			if _, err := uc.votingUC.StartRound(ctx, connectionID); err != nil {
				log.Printf("response: failed to schedule next round for %d: %v", connectionID, err)
			}
		}
	}
	return result, nil
}

func (uc *ResponseUseCase) submitLocked(ctx context.Context, connectionID, missionID, userID int, payload domain.ResponsePayload) (*SubmitResult, *completionInfo, error) {
	conn, err := uc.connRepo.GetByID(ctx, connectionID)
	if err != nil {
		return nil, nil, err
	}
	if !conn.HasUser(userID) {
		return nil, nil, domain.ErrForbidden
	}
	if conn.Status != domain.ConnectionActive {
		return nil, nil, fmt.Errorf("%w: connection is %s", domain.ErrInvalidTransition, conn.Status)
	}
	if conn.CurrentMissionID == nil || *conn.CurrentMissionID != missionID {
		return nil, nil, fmt.Errorf("%w: mission is not active for this connection", domain.ErrMissionNotFound)
	}

	completed, err := uc.responseRepo.IsCompleted(ctx, connectionID, missionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check completion: %w", err)
	}
	if completed {
		return nil, nil, domain.ErrAlreadyResponded
	}
	if _, err := uc.responseRepo.GetByUser(ctx, connectionID, missionID, userID); err == nil {
		return nil, nil, domain.ErrAlreadyResponded
	}

	mission, err := uc.missionRepo.GetByID(ctx, missionID)
	if err != nil {
		return nil, nil, err
	}
	if err := domain.ValidateResponse(mission, payload); err != nil {
		return nil, nil, err
	}

	resp := &domain.MissionResponse{
		ConnectionID: connectionID,
		MissionID:    missionID,
		UserID:       userID,
		Payload:      payload,
	}
	if err := uc.responseRepo.Create(ctx, resp); err != nil {
		return nil, nil, fmt.Errorf("failed to store response: %w", err)
	}

	result := &SubmitResult{Response: resp}

	responses, err := uc.responseRepo.ListByMission(ctx, connectionID, missionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load responses: %w", err)
	}
	if len(responses) < 2 {
		return result, nil, nil
	}

	sharedInterest := uc.missionMatchesSharedInterest(ctx, conn, mission)
	awarded := domain.NormalizePoints(mission.Points, sharedInterest)

	created, err := uc.responseRepo.CreateCompletion(ctx, &domain.MissionCompletion{
		ConnectionID:  connectionID,
		MissionID:     missionID,
		PointsAwarded: awarded,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to record completion: %w", err)
	}
	if !created {
		// Lost the race against a concurrent completion; points were already
		// counted there.
		return result, nil, nil
	}

	if err := uc.connRepo.SetCurrentMission(ctx, connectionID, nil); err != nil {
		return nil, nil, fmt.Errorf("failed to clear current mission: %w", err)
	}

	reveal := make([]domain.MissionResponse, 0, len(responses))
	for _, r := range responses {
		reveal = append(reveal, *r)
	}
	uc.publish(ctx, domain.NewEvent(domain.EventBothResponded, conn, domain.BothRespondedPayload{
		MissionID:     missionID,
		Responses:     reveal,
		PointsAwarded: awarded,
	}))

	result.Completed = true
	result.Revealed = responses
	return result, &completionInfo{mission: mission, sharedInterest: sharedInterest, responses: responses}, nil
}

// GetRevealed returns both responses of a completed mission. Until the
// mission is completed the pair stays hidden.
func (uc *ResponseUseCase) GetRevealed(ctx context.Context, connectionID, missionID, userID int) ([]*domain.MissionResponse, error) {
	conn, err := uc.connRepo.GetByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if !conn.HasUser(userID) {
		return nil, domain.ErrForbidden
	}
	completed, err := uc.responseRepo.IsCompleted(ctx, connectionID, missionID)
	if err != nil {
		return nil, fmt.Errorf("failed to check completion: %w", err)
	}
	if !completed {
		return nil, fmt.Errorf("%w: responses are not revealed yet", domain.ErrMissionNotFound)
	}
	return uc.responseRepo.ListByMission(ctx, connectionID, missionID)
}

func (uc *ResponseUseCase) missionMatchesSharedInterest(ctx context.Context, conn *domain.Connection, mission *domain.Mission) bool {
	shared, err := uc.votingUC.SharedFor(ctx, conn)
	if err != nil {
		log.Printf("response: shared-interest lookup failed for %d: %v", conn.ID, err)
		return false
	}
	return domain.ContainsInterest(shared, mission.Category)
}

func (uc *ResponseUseCase) publish(ctx context.Context, event domain.Event) {
	if err := uc.publisher.Publish(ctx, event); err != nil {
		log.Printf("response: failed to publish %s for %d: %v", event.Type, event.ConnectionID, err)
	}
}
