package response

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/emberapp/ember-backend/internal/config"
	"github.com/emberapp/ember-backend/internal/domain"
	"github.com/emberapp/ember-backend/internal/engine"
	"github.com/emberapp/ember-backend/internal/events"
	"github.com/emberapp/ember-backend/internal/infrastructure/cache"
	"github.com/emberapp/ember-backend/internal/repository/memory"
	"github.com/emberapp/ember-backend/internal/usecase/catalog"
	"github.com/emberapp/ember-backend/internal/usecase/connection"
	"github.com/emberapp/ember-backend/internal/usecase/voting"
)

type fixture struct {
	uc           *ResponseUseCase
	votingUC     *voting.VotingUseCase
	connRepo     *memory.ConnectionRepository
	responseRepo *memory.ResponseRepository
	recorder     *events.Recorder
}

func strPtr(s string) *string { return &s }

func testMissions() []*domain.Mission {
	return []*domain.Mission{
		{
			ID: 1, Type: domain.MissionQuestion, Title: "Comfort food", Category: "food", Points: 40,
			Content: domain.MissionContent{Question: &domain.QuestionContent{Prompt: "What dish?", MaxLength: 300}},
		},
		{
			ID: 2, Type: domain.MissionQuestion, Title: "Dream trip", Category: "travel", Points: 10,
			Content: domain.MissionContent{Question: &domain.QuestionContent{Prompt: "Where to?", MaxLength: 300}},
		},
		{
			ID: 3, Type: domain.MissionChoice, Title: "Evening plans", Category: "lifestyle", Points: 8,
			Content: domain.MissionContent{Choice: &domain.ChoiceContent{Prompt: "Pick one", Options: []string{"Concert", "Walk"}}},
		},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	connRepo := memory.NewConnectionRepository()
	profileRepo := memory.NewProfileRepository()
	votingRepo := memory.NewVotingRepository()
	responseRepo := memory.NewResponseRepository()
	missionRepo := memory.NewMissionRepository(testMissions()...)
	recorder := &events.Recorder{}
	locks := engine.NewConnectionLocks()
	catalogUC := catalog.NewCatalogUseCase(missionRepo)

	connUC := connection.NewConnectionUseCase(connRepo, profileRepo, missionRepo, votingRepo, recorder, locks, nil)
	votingUC := voting.NewVotingUseCase(
		votingRepo,
		connRepo,
		profileRepo,
		responseRepo,
		catalogUC,
		cache.NewService(nil),
		recorder,
		locks,
		config.EngineConfig{RoundDuration: time.Hour, CandidateCount: 3, ReopenOnNoVotes: true},
	)
	uc := NewResponseUseCase(responseRepo, connRepo, missionRepo, connUC, votingUC, recorder, locks)

	for userID, interests := range map[int][]string{
		1: {"food", "travel"},
		2: {"food", "music"},
	} {
		err := profileRepo.Create(context.Background(), &domain.Profile{
			UserID:      userID,
			DisplayName: "user",
			Interests:   interests,
		})
		if err != nil {
			t.Fatalf("failed to seed profile: %v", err)
		}
	}

	return &fixture{uc: uc, votingUC: votingUC, connRepo: connRepo, responseRepo: responseRepo, recorder: recorder}
}

// connectionOnMission seeds an active connection working on the given mission.
func (f *fixture) connectionOnMission(t *testing.T, missionID int) *domain.Connection {
	t.Helper()
	conn := &domain.Connection{UserAID: 1, UserBID: 2, Status: domain.ConnectionActive, Temperature: domain.TemperatureCold}
	if err := f.connRepo.Create(context.Background(), conn); err != nil {
		t.Fatalf("failed to seed connection: %v", err)
	}
	if err := f.connRepo.SetCurrentMission(context.Background(), conn.ID, &missionID); err != nil {
		t.Fatalf("failed to set mission: %v", err)
	}
	return conn
}

func TestSubmitResponseGuards(t *testing.T) {
	f := newFixture(t)
	conn := f.connectionOnMission(t, 1)

	// Mission 2 is not the active mission.
	if _, err := f.uc.SubmitResponse(context.Background(), conn.ID, 2, 1, domain.ResponsePayload{Text: strPtr("hi")}); !errors.Is(err, domain.ErrMissionNotFound) {
		t.Errorf("response to a non-active mission must fail, got %v", err)
	}
	if _, err := f.uc.SubmitResponse(context.Background(), conn.ID, 1, 42, domain.ResponsePayload{Text: strPtr("hi")}); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("non-member response must fail, got %v", err)
	}
	if _, err := f.uc.SubmitResponse(context.Background(), conn.ID, 1, 1, domain.ResponsePayload{}); !errors.Is(err, domain.ErrInvalidResponse) {
		t.Errorf("payload without text must fail, got %v", err)
	}

	if _, err := f.uc.SubmitResponse(context.Background(), conn.ID, 1, 1, domain.ResponsePayload{Text: strPtr("borscht")}); err != nil {
		t.Fatalf("valid response failed: %v", err)
	}
	if _, err := f.uc.SubmitResponse(context.Background(), conn.ID, 1, 1, domain.ResponsePayload{Text: strPtr("again")}); !errors.Is(err, domain.ErrAlreadyResponded) {
		t.Errorf("double response by the same member must fail, got %v", err)
	}
}

func TestSubmitResponseCompletesMission(t *testing.T) {
	f := newFixture(t)
	conn := f.connectionOnMission(t, 1)

	first, err := f.uc.SubmitResponse(context.Background(), conn.ID, 1, 1, domain.ResponsePayload{Text: strPtr("borscht")})
	if err != nil {
		t.Fatalf("first response failed: %v", err)
	}
	if first.Completed || first.Revealed != nil {
		t.Error("the first response must not complete nor reveal")
	}

	second, err := f.uc.SubmitResponse(context.Background(), conn.ID, 1, 2, domain.ResponsePayload{Text: strPtr("ramen")})
	if err != nil {
		t.Fatalf("second response failed: %v", err)
	}
	if !second.Completed || len(second.Revealed) != 2 {
		t.Fatalf("the second response must complete and reveal both, got %+v", second)
	}

	// Mission 1 matches the shared interest "food": 40 points + 20% bonus.
	got, err := f.connRepo.GetByID(context.Background(), conn.ID)
	if err != nil {
		t.Fatalf("get connection failed: %v", err)
	}
	if got.Progress != 48 {
		t.Errorf("expected progress 48 (40 + bonus), got %d", got.Progress)
	}
	if got.Temperature != domain.TemperatureCool {
		t.Errorf("expected cool at 48, got %s", got.Temperature)
	}
	if got.ChatUnlocked {
		t.Error("48 is below the unlock threshold")
	}
	if got.CurrentMissionID != nil {
		t.Error("completion must clear the current mission")
	}

	published := f.recorder.ByType(domain.EventBothResponded)
	if len(published) != 1 {
		t.Fatalf("expected one both_responded event, got %d", len(published))
	}
	payload, ok := published[0].Payload.(domain.BothRespondedPayload)
	if !ok {
		t.Fatalf("unexpected payload type %T", published[0].Payload)
	}
	if payload.PointsAwarded != 48 || len(payload.Responses) != 2 {
		t.Errorf("unexpected payload %+v", payload)
	}

	// The next round opens automatically and excludes the completed mission.
	view, err := f.votingUC.GetActive(context.Background(), conn.ID, 1)
	if err != nil {
		t.Fatalf("expected an open round after completion: %v", err)
	}
	if _, hasCompleted := view.Option(1); hasCompleted {
		t.Error("the next round must not offer the completed mission again")
	}

	// The completed mission stays closed.
	if _, err := f.uc.SubmitResponse(context.Background(), conn.ID, 1, 1, domain.ResponsePayload{Text: strPtr("late")}); !errors.Is(err, domain.ErrAlreadyResponded) {
		t.Errorf("response after completion must fail, got %v", err)
	}
}

func TestSubmitResponseUnlocksChatAcrossMissions(t *testing.T) {
	f := newFixture(t)
	conn := f.connectionOnMission(t, 1)

	// First mission: 40 + 20% shared bonus = 48.
	if _, err := f.uc.SubmitResponse(context.Background(), conn.ID, 1, 1, domain.ResponsePayload{Text: strPtr("borscht")}); err != nil {
		t.Fatalf("response failed: %v", err)
	}
	if _, err := f.uc.SubmitResponse(context.Background(), conn.ID, 1, 2, domain.ResponsePayload{Text: strPtr("ramen")}); err != nil {
		t.Fatalf("response failed: %v", err)
	}

	// Second mission: travel is not shared, plain 10 points pushes 48 -> 58.
	missionID := 2
	if err := f.connRepo.SetCurrentMission(context.Background(), conn.ID, &missionID); err != nil {
		t.Fatalf("set mission failed: %v", err)
	}
	if _, err := f.uc.SubmitResponse(context.Background(), conn.ID, 2, 1, domain.ResponsePayload{Text: strPtr("Lisbon")}); err != nil {
		t.Fatalf("response failed: %v", err)
	}
	if _, err := f.uc.SubmitResponse(context.Background(), conn.ID, 2, 2, domain.ResponsePayload{Text: strPtr("Kyoto")}); err != nil {
		t.Fatalf("response failed: %v", err)
	}

	got, err := f.connRepo.GetByID(context.Background(), conn.ID)
	if err != nil {
		t.Fatalf("get connection failed: %v", err)
	}
	if got.Progress != 58 || got.Temperature != domain.TemperatureWarm {
		t.Errorf("expected 58/warm, got %d/%s", got.Progress, got.Temperature)
	}
	if !got.ChatUnlocked {
		t.Error("crossing 50 must unlock chat")
	}
}

func TestGetRevealed(t *testing.T) {
	f := newFixture(t)
	conn := f.connectionOnMission(t, 1)

	if _, err := f.uc.SubmitResponse(context.Background(), conn.ID, 1, 1, domain.ResponsePayload{Text: strPtr("borscht")}); err != nil {
		t.Fatalf("response failed: %v", err)
	}

	// One answer in: nothing is revealed yet.
	if _, err := f.uc.GetRevealed(context.Background(), conn.ID, 1, 2); !errors.Is(err, domain.ErrMissionNotFound) {
		t.Errorf("reveal before completion must fail, got %v", err)
	}

	if _, err := f.uc.SubmitResponse(context.Background(), conn.ID, 1, 2, domain.ResponsePayload{Text: strPtr("ramen")}); err != nil {
		t.Fatalf("response failed: %v", err)
	}

	revealed, err := f.uc.GetRevealed(context.Background(), conn.ID, 1, 2)
	if err != nil {
		t.Fatalf("reveal failed: %v", err)
	}
	if len(revealed) != 2 {
		t.Errorf("expected both responses, got %d", len(revealed))
	}

	if _, err := f.uc.GetRevealed(context.Background(), conn.ID, 1, 42); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("non-member reveal must fail, got %v", err)
	}
}
