package connection

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/emberapp/ember-backend/internal/domain"
	"github.com/emberapp/ember-backend/internal/engine"
	"github.com/emberapp/ember-backend/internal/events"
	"github.com/emberapp/ember-backend/internal/repository/memory"
)

type fixture struct {
	uc          *ConnectionUseCase
	connRepo    *memory.ConnectionRepository
	profileRepo *memory.ProfileRepository
	votingRepo  *memory.VotingRepository
	recorder    *events.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	connRepo := memory.NewConnectionRepository()
	profileRepo := memory.NewProfileRepository()
	missionRepo := memory.NewMissionRepository()
	votingRepo := memory.NewVotingRepository()
	recorder := &events.Recorder{}

	uc := NewConnectionUseCase(connRepo, profileRepo, missionRepo, votingRepo, recorder, engine.NewConnectionLocks(), nil)

	for userID, interests := range map[int][]string{
		1: {"travel", "food"},
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

	return &fixture{uc: uc, connRepo: connRepo, profileRepo: profileRepo, votingRepo: votingRepo, recorder: recorder}
}

func (f *fixture) activeConnection(t *testing.T) *domain.Connection {
	t.Helper()
	conn, err := f.uc.Request(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	conn, err = f.uc.Accept(context.Background(), conn.ID, 2)
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	return conn
}

func TestRequestCreatesPendingConnection(t *testing.T) {
	f := newFixture(t)

	conn, err := f.uc.Request(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if conn.Status != domain.ConnectionPending {
		t.Errorf("expected pending, got %s", conn.Status)
	}
	if conn.Progress != 0 || conn.Temperature != domain.TemperatureCold {
		t.Errorf("new connection must start cold at 0, got %d/%s", conn.Progress, conn.Temperature)
	}
	if got := f.recorder.ByType(domain.EventConnectionRequested); len(got) != 1 {
		t.Errorf("expected 1 requested event, got %d", len(got))
	}
}

func TestRequestRejectsSelf(t *testing.T) {
	f := newFixture(t)
	if _, err := f.uc.Request(context.Background(), 1, 1); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("self-connection must fail, got %v", err)
	}
}

func TestRequestRejectsDuplicate(t *testing.T) {
	f := newFixture(t)

	if _, err := f.uc.Request(context.Background(), 1, 2); err != nil {
		t.Fatalf("first request failed: %v", err)
	}
	if _, err := f.uc.Request(context.Background(), 1, 2); !errors.Is(err, domain.ErrDuplicateConnection) {
		t.Errorf("duplicate request must fail, got %v", err)
	}
	// Same pair, reversed direction.
	if _, err := f.uc.Request(context.Background(), 2, 1); !errors.Is(err, domain.ErrDuplicateConnection) {
		t.Errorf("reversed duplicate must fail, got %v", err)
	}
}

func TestRequestRejectsUnknownTarget(t *testing.T) {
	f := newFixture(t)
	if _, err := f.uc.Request(context.Background(), 1, 99); !errors.Is(err, domain.ErrProfileNotFound) {
		t.Errorf("unknown target must fail, got %v", err)
	}
}

func TestAcceptOnlyByRecipient(t *testing.T) {
	f := newFixture(t)

	conn, err := f.uc.Request(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if _, err := f.uc.Accept(context.Background(), conn.ID, 1); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("initiator accepting must fail, got %v", err)
	}

	accepted, err := f.uc.Accept(context.Background(), conn.ID, 2)
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if accepted.Status != domain.ConnectionActive {
		t.Errorf("expected active, got %s", accepted.Status)
	}

	// A second accept is not a valid transition.
	if _, err := f.uc.Accept(context.Background(), conn.ID, 2); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("double accept must fail, got %v", err)
	}
}

func TestDeclineEndsPendingConnection(t *testing.T) {
	f := newFixture(t)

	conn, err := f.uc.Request(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if err := f.uc.Decline(context.Background(), conn.ID, 2); err != nil {
		t.Fatalf("decline failed: %v", err)
	}

	got, err := f.connRepo.GetByID(context.Background(), conn.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status != domain.ConnectionEnded || got.EndedAt == nil {
		t.Errorf("declined connection must be ended with a timestamp, got %s", got.Status)
	}

	// The pair can try again after a decline.
	if _, err := f.uc.Request(context.Background(), 1, 2); err != nil {
		t.Errorf("new request after decline must succeed, got %v", err)
	}
}

func TestEndCancelsOpenRound(t *testing.T) {
	f := newFixture(t)
	conn := f.activeConnection(t)

	round := &domain.VotingRound{
		ID:           uuid.New(),
		ConnectionID: conn.ID,
		Options:      domain.VoteOptionList{{MissionID: 1}, {MissionID: 2}},
		VotingEndsAt: time.Now().Add(time.Hour),
	}
	if err := f.votingRepo.Create(context.Background(), round); err != nil {
		t.Fatalf("failed to seed round: %v", err)
	}

	if err := f.uc.End(context.Background(), conn.ID, 1); err != nil {
		t.Fatalf("end failed: %v", err)
	}

	got, err := f.votingRepo.GetByID(context.Background(), round.ID)
	if err != nil {
		t.Fatalf("get round failed: %v", err)
	}
	if !got.Resolved || got.ResolvedMissionID != nil {
		t.Errorf("ending the connection must cancel the open round, resolved=%v mission=%v", got.Resolved, got.ResolvedMissionID)
	}
	if len(f.recorder.ByType(domain.EventConnectionEnded)) != 1 {
		t.Error("expected a connection.ended event")
	}
}

func TestEndRejectsNonMember(t *testing.T) {
	f := newFixture(t)
	conn := f.activeConnection(t)

	if err := f.uc.End(context.Background(), conn.ID, 42); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("non-member ending must fail, got %v", err)
	}
	// actor 0 is the moderation path.
	if err := f.uc.End(context.Background(), conn.ID, 0); err != nil {
		t.Errorf("moderation end must succeed, got %v", err)
	}
}

func TestApplyProgressDelta(t *testing.T) {
	f := newFixture(t)
	conn := f.activeConnection(t)

	got, err := f.uc.ApplyProgressDelta(context.Background(), conn.ID, 40, false)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if got.Progress != 40 || got.Temperature != domain.TemperatureCool {
		t.Errorf("expected 40/cool, got %d/%s", got.Progress, got.Temperature)
	}
	if got.ChatUnlocked {
		t.Error("chat must stay locked below the threshold")
	}

	got, err = f.uc.ApplyProgressDelta(context.Background(), conn.ID, 15, false)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if got.Progress != 55 || got.Temperature != domain.TemperatureWarm {
		t.Errorf("expected 55/warm, got %d/%s", got.Progress, got.Temperature)
	}
	if !got.ChatUnlocked {
		t.Error("crossing the threshold must unlock chat")
	}

	// Clamp at 100.
	got, err = f.uc.ApplyProgressDelta(context.Background(), conn.ID, 80, false)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if got.Progress != domain.MaxProgress || got.Temperature != domain.TemperatureHot {
		t.Errorf("expected 100/hot, got %d/%s", got.Progress, got.Temperature)
	}
}

func TestApplyProgressDeltaSharedInterestBonus(t *testing.T) {
	f := newFixture(t)
	conn := f.activeConnection(t)

	got, err := f.uc.ApplyProgressDelta(context.Background(), conn.ID, 10, true)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if got.Progress != 12 {
		t.Errorf("expected 12 with shared-interest bonus, got %d", got.Progress)
	}
}

func TestApplyProgressDeltaRequiresActive(t *testing.T) {
	f := newFixture(t)

	conn, err := f.uc.Request(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if _, err := f.uc.ApplyProgressDelta(context.Background(), conn.ID, 10, false); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("progress on a pending connection must fail, got %v", err)
	}
}

func TestGetRestrictedToMembers(t *testing.T) {
	f := newFixture(t)
	conn := f.activeConnection(t)

	if _, err := f.uc.Get(context.Background(), conn.ID, 42); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("non-member read must fail, got %v", err)
	}

	view, err := f.uc.Get(context.Background(), conn.ID, 1)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if view.OtherUser == nil || view.OtherUser.UserID != 2 {
		t.Errorf("expected counterpart user 2 in the view, got %+v", view.OtherUser)
	}
}
