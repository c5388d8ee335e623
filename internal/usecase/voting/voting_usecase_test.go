package voting

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
)

type fixture struct {
	uc       *VotingUseCase
	connRepo *memory.ConnectionRepository
	recorder *events.Recorder
	clock    *fakeClock
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func testMissions() []*domain.Mission {
	return []*domain.Mission{
		{ID: 1, Type: domain.MissionQuestion, Title: "Comfort food", Category: "food", Points: 8},
		{ID: 2, Type: domain.MissionQuestion, Title: "Dream trip", Category: "travel", Points: 10},
		{ID: 3, Type: domain.MissionChoice, Title: "Evening plans", Category: "lifestyle", Points: 8},
		{ID: 4, Type: domain.MissionRanking, Title: "Weekend priorities", Category: "lifestyle", Points: 12},
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
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}

	uc := NewVotingUseCase(
		votingRepo,
		connRepo,
		profileRepo,
		responseRepo,
		catalog.NewCatalogUseCase(missionRepo),
		cache.NewService(nil),
		recorder,
		engine.NewConnectionLocks(),
		config.EngineConfig{
			RoundDuration:   time.Hour,
			CandidateCount:  3,
			ReopenOnNoVotes: true,
		},
	)
	uc.now = clock.Now

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

	return &fixture{uc: uc, connRepo: connRepo, recorder: recorder, clock: clock}
}

func (f *fixture) activeConnection(t *testing.T) *domain.Connection {
	t.Helper()
	conn := &domain.Connection{UserAID: 1, UserBID: 2, Status: domain.ConnectionActive}
	if err := f.connRepo.Create(context.Background(), conn); err != nil {
		t.Fatalf("failed to seed connection: %v", err)
	}
	return conn
}

func TestStartRoundIsIdempotent(t *testing.T) {
	f := newFixture(t)
	conn := f.activeConnection(t)

	round, err := f.uc.StartRound(context.Background(), conn.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if len(round.Options) != 3 {
		t.Errorf("expected 3 options, got %d", len(round.Options))
	}
	if round.VotingEndsAt != f.clock.Now().Add(time.Hour) {
		t.Errorf("unexpected deadline %v", round.VotingEndsAt)
	}

	// Both members share "food", so the food mission must be flagged.
	opt, ok := round.Option(1)
	if !ok || !opt.IsSharedInterest || !opt.IsMainInterest {
		t.Errorf("food option must carry shared and main interest flags, got %+v", opt)
	}

	again, err := f.uc.StartRound(context.Background(), conn.ID)
	if err != nil {
		t.Fatalf("second start failed: %v", err)
	}
	if again.ID != round.ID {
		t.Error("starting twice must return the same open round")
	}
	if len(f.recorder.ByType(domain.EventRoundStarted)) != 1 {
		t.Error("idempotent start must emit exactly one round.started event")
	}
}

func TestStartRoundRequiresActiveConnection(t *testing.T) {
	f := newFixture(t)
	conn := &domain.Connection{UserAID: 1, UserBID: 2, Status: domain.ConnectionPending}
	if err := f.connRepo.Create(context.Background(), conn); err != nil {
		t.Fatalf("failed to seed connection: %v", err)
	}

	if _, err := f.uc.StartRound(context.Background(), conn.ID); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("round on a pending connection must fail, got %v", err)
	}
}

func TestStartRoundRejectsActiveMission(t *testing.T) {
	f := newFixture(t)
	conn := f.activeConnection(t)

	missionID := 2
	if err := f.connRepo.SetCurrentMission(context.Background(), conn.ID, &missionID); err != nil {
		t.Fatalf("set mission failed: %v", err)
	}

	if _, err := f.uc.StartRound(context.Background(), conn.ID); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("round with an active mission must fail, got %v", err)
	}
}

func TestStartRoundNilWhenJourneyComplete(t *testing.T) {
	f := newFixture(t)
	conn := f.activeConnection(t)

	if err := f.connRepo.UpdateProgress(context.Background(), conn.ID, domain.MaxProgress, domain.TemperatureHot); err != nil {
		t.Fatalf("update progress failed: %v", err)
	}

	round, err := f.uc.StartRound(context.Background(), conn.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if round != nil {
		t.Error("a completed journey must not open a round")
	}
}

func TestCastVoteSecondVoteResolves(t *testing.T) {
	f := newFixture(t)
	conn := f.activeConnection(t)

	round, err := f.uc.StartRound(context.Background(), conn.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	after, err := f.uc.CastVote(context.Background(), round.ID, 1, 2)
	if err != nil {
		t.Fatalf("first vote failed: %v", err)
	}
	if after.Resolved {
		t.Fatal("one vote must not resolve the round")
	}

	view, err := f.uc.GetActive(context.Background(), conn.ID, 2)
	if err != nil {
		t.Fatalf("get active failed: %v", err)
	}
	if view.YourVote != nil || !view.OtherVoted {
		t.Errorf("member 2 should see the other's vote but not their own, got %+v", view)
	}

	after, err = f.uc.CastVote(context.Background(), round.ID, 2, 2)
	if err != nil {
		t.Fatalf("second vote failed: %v", err)
	}
	if !after.Resolved || after.ResolvedMissionID == nil || *after.ResolvedMissionID != 2 {
		t.Fatalf("unanimous vote must resolve to mission 2, got %+v", after)
	}

	got, err := f.connRepo.GetByID(context.Background(), conn.ID)
	if err != nil {
		t.Fatalf("get connection failed: %v", err)
	}
	if got.CurrentMissionID == nil || *got.CurrentMissionID != 2 {
		t.Error("resolution must set the connection's current mission")
	}
	if len(f.recorder.ByType(domain.EventRoundResolved)) != 1 {
		t.Error("expected exactly one round.resolved event")
	}
}

func TestCastVoteSplitPrefersSharedInterest(t *testing.T) {
	f := newFixture(t)
	conn := f.activeConnection(t)

	round, err := f.uc.StartRound(context.Background(), conn.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	// Mission 1 (food) is the shared-interest option.
	if _, err := f.uc.CastVote(context.Background(), round.ID, 1, 2); err != nil {
		t.Fatalf("vote failed: %v", err)
	}
	after, err := f.uc.CastVote(context.Background(), round.ID, 2, 1)
	if err != nil {
		t.Fatalf("vote failed: %v", err)
	}
	if after.ResolvedMissionID == nil || *after.ResolvedMissionID != 1 {
		t.Errorf("split vote must resolve to the shared-interest option, got %v", after.ResolvedMissionID)
	}
}

func TestCastVoteGuards(t *testing.T) {
	f := newFixture(t)
	conn := f.activeConnection(t)

	round, err := f.uc.StartRound(context.Background(), conn.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	if _, err := f.uc.CastVote(context.Background(), round.ID, 42, 1); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("non-member vote must fail, got %v", err)
	}
	if _, err := f.uc.CastVote(context.Background(), round.ID, 1, 99); !errors.Is(err, domain.ErrInvalidOption) {
		t.Errorf("vote for an unknown option must fail, got %v", err)
	}

	if _, err := f.uc.CastVote(context.Background(), round.ID, 1, 1); err != nil {
		t.Fatalf("vote failed: %v", err)
	}
	if _, err := f.uc.CastVote(context.Background(), round.ID, 1, 2); !errors.Is(err, domain.ErrAlreadyVoted) {
		t.Errorf("second vote by the same member must fail, got %v", err)
	}

	if _, err := f.uc.CastVote(context.Background(), round.ID, 2, 1); err != nil {
		t.Fatalf("vote failed: %v", err)
	}
	if _, err := f.uc.CastVote(context.Background(), round.ID, 2, 2); !errors.Is(err, domain.ErrRoundClosed) {
		t.Errorf("vote on a resolved round must fail, got %v", err)
	}
}

func TestExpiryReopensVotelessRoundOnce(t *testing.T) {
	f := newFixture(t)
	conn := f.activeConnection(t)

	round, err := f.uc.StartRound(context.Background(), conn.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	f.clock.Advance(2 * time.Hour)
	acted, err := f.uc.ExpireDue(context.Background())
	if err != nil || acted != 1 {
		t.Fatalf("expire failed: acted=%d err=%v", acted, err)
	}

	view, err := f.uc.GetActive(context.Background(), conn.ID, 1)
	if err != nil {
		t.Fatalf("get active failed: %v", err)
	}
	if view.ID != round.ID || !view.Reopened || view.Resolved {
		t.Fatalf("voteless first expiry must reopen the round, got %+v", view.VotingRound)
	}
	if !view.VotingEndsAt.After(f.clock.Now()) {
		t.Error("reopening must extend the deadline")
	}

	// Second voteless expiry falls back to the default option (main interest).
	f.clock.Advance(2 * time.Hour)
	if _, err := f.uc.ExpireDue(context.Background()); err != nil {
		t.Fatalf("second expire failed: %v", err)
	}

	got, err := f.connRepo.GetByID(context.Background(), conn.ID)
	if err != nil {
		t.Fatalf("get connection failed: %v", err)
	}
	if got.CurrentMissionID == nil || *got.CurrentMissionID != 1 {
		t.Errorf("default resolution must pick the main-interest option, got %v", got.CurrentMissionID)
	}
}

func TestExpiryResolvesSingleVote(t *testing.T) {
	f := newFixture(t)
	conn := f.activeConnection(t)

	round, err := f.uc.StartRound(context.Background(), conn.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := f.uc.CastVote(context.Background(), round.ID, 1, 3); err != nil {
		t.Fatalf("vote failed: %v", err)
	}

	f.clock.Advance(2 * time.Hour)
	if _, err := f.uc.ExpireDue(context.Background()); err != nil {
		t.Fatalf("expire failed: %v", err)
	}

	got, err := f.connRepo.GetByID(context.Background(), conn.ID)
	if err != nil {
		t.Fatalf("get connection failed: %v", err)
	}
	if got.CurrentMissionID == nil || *got.CurrentMissionID != 3 {
		t.Errorf("expiry with one vote must resolve to that vote, got %v", got.CurrentMissionID)
	}
}

func TestExpiryCancelsRoundOfEndedConnection(t *testing.T) {
	f := newFixture(t)
	conn := f.activeConnection(t)

	round, err := f.uc.StartRound(context.Background(), conn.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	now := f.clock.Now()
	if err := f.connRepo.UpdateStatus(context.Background(), conn.ID, domain.ConnectionEnded, &now); err != nil {
		t.Fatalf("end failed: %v", err)
	}

	f.clock.Advance(2 * time.Hour)
	if _, err := f.uc.ExpireDue(context.Background()); err != nil {
		t.Fatalf("expire failed: %v", err)
	}

	if _, err := f.uc.GetActive(context.Background(), conn.ID, 1); !errors.Is(err, domain.ErrRoundNotFound) {
		t.Errorf("round of an ended connection must be gone after expiry, got %v", err)
	}
	_ = round
}
