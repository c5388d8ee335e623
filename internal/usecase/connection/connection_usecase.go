package connection

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/emberapp/ember-backend/internal/domain"
	"github.com/emberapp/ember-backend/internal/engine"
	"github.com/emberapp/ember-backend/internal/events"
	"github.com/emberapp/ember-backend/internal/infrastructure/gemini"
	"github.com/emberapp/ember-backend/internal/repository"
)

// ConnectionUseCase is the authoritative record and transition gate for
// connection state: lifecycle, progress, temperature and chat unlock.
type ConnectionUseCase struct {
	connRepo     repository.ConnectionRepository
	profileRepo  repository.ProfileRepository
	missionRepo  repository.MissionRepository
	votingRepo   repository.VotingRepository
	publisher    events.Publisher
	locks        *engine.ConnectionLocks
	geminiClient *gemini.GeminiClient
	now          func() time.Time
}

func NewConnectionUseCase(
	connRepo repository.ConnectionRepository,
	profileRepo repository.ProfileRepository,
	missionRepo repository.MissionRepository,
	votingRepo repository.VotingRepository,
	publisher events.Publisher,
	locks *engine.ConnectionLocks,
	geminiClient *gemini.GeminiClient,
) *ConnectionUseCase {
	return &ConnectionUseCase{
		connRepo:     connRepo,
		profileRepo:  profileRepo,
		missionRepo:  missionRepo,
		votingRepo:   votingRepo,
		publisher:    publisher,
		locks:        locks,
		geminiClient: geminiClient,
		now:          time.Now,
	}
}

// OtherUserSummary is the counterpart member as shown in connection listings.
type OtherUserSummary struct {
	UserID      int      `json:"user_id"`
	DisplayName string   `json:"display_name"`
	Bio         *string  `json:"bio"`
	City        *string  `json:"city"`
	Age         int      `json:"age,omitempty"`
	PhotoURLs   []string `json:"photo_urls"`
}

// ConnectionView is one entry of a user's connection list.
type ConnectionView struct {
	*domain.Connection
	OtherUser      *OtherUserSummary `json:"other_user,omitempty"`
	CurrentMission *domain.Mission   `json:"current_mission,omitempty"`
}

// Request creates a PENDING connection from initiator to target.
func (uc *ConnectionUseCase) Request(ctx context.Context, initiatorID, targetID int) (*domain.Connection, error) {
	if initiatorID == targetID {
		return nil, fmt.Errorf("%w: cannot connect to yourself", domain.ErrInvalidTransition)
	}
	if _, err := uc.profileRepo.GetByUserID(ctx, targetID); err != nil {
		return nil, err
	}

	if _, err := uc.connRepo.GetActiveByUsers(ctx, initiatorID, targetID); err == nil {
		return nil, domain.ErrDuplicateConnection
	} else if err != domain.ErrConnectionNotFound {
		return nil, fmt.Errorf("failed to check existing connection: %w", err)
	}

	conn := &domain.Connection{
		UserAID:     initiatorID,
		UserBID:     targetID,
		Status:      domain.ConnectionPending,
		Progress:    0,
		Temperature: domain.TemperatureFor(0),
	}
	if err := uc.connRepo.Create(ctx, conn); err != nil {
		return nil, fmt.Errorf("failed to create connection: %w", err)
	}

	uc.publish(ctx, domain.NewEvent(domain.EventConnectionRequested, conn, nil))
	return conn, nil
}

// Accept transitions PENDING -> ACTIVE. Only the recipient may accept.
func (uc *ConnectionUseCase) Accept(ctx context.Context, connectionID, responderID int) (*domain.Connection, error) {
	defer uc.locks.Lock(connectionID)()

	conn, err := uc.connRepo.GetByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if conn.UserBID != responderID {
		return nil, fmt.Errorf("%w: only the recipient can accept", domain.ErrInvalidTransition)
	}
	if !conn.CanTransition(domain.ConnectionActive) {
		return nil, fmt.Errorf("%w: connection is %s", domain.ErrInvalidTransition, conn.Status)
	}

	if err := uc.connRepo.UpdateStatus(ctx, connectionID, domain.ConnectionActive, nil); err != nil {
		return nil, fmt.Errorf("failed to activate connection: %w", err)
	}
	conn.Status = domain.ConnectionActive

	uc.publish(ctx, domain.NewEvent(domain.EventConnectionAccepted, conn, nil))
	return conn, nil
}

// Decline ends a PENDING connection. Only the recipient may decline.
func (uc *ConnectionUseCase) Decline(ctx context.Context, connectionID, responderID int) error {
	defer uc.locks.Lock(connectionID)()

	conn, err := uc.connRepo.GetByID(ctx, connectionID)
	if err != nil {
		return err
	}
	if conn.UserBID != responderID {
		return fmt.Errorf("%w: only the recipient can decline", domain.ErrInvalidTransition)
	}
	if conn.Status != domain.ConnectionPending {
		return fmt.Errorf("%w: connection is %s", domain.ErrInvalidTransition, conn.Status)
	}
	return uc.endLocked(ctx, conn)
}

// End terminates a non-ended connection. Either member may end it; a
// moderation actor passes actorID 0.
func (uc *ConnectionUseCase) End(ctx context.Context, connectionID, actorID int) error {
	defer uc.locks.Lock(connectionID)()

	conn, err := uc.connRepo.GetByID(ctx, connectionID)
	if err != nil {
		return err
	}
	if actorID != 0 && !conn.HasUser(actorID) {
		return domain.ErrForbidden
	}
	if !conn.CanTransition(domain.ConnectionEnded) {
		return fmt.Errorf("%w: connection already ended", domain.ErrInvalidTransition)
	}
	return uc.endLocked(ctx, conn)
}

func (uc *ConnectionUseCase) endLocked(ctx context.Context, conn *domain.Connection) error {
	now := uc.now().UTC()
	if err := uc.connRepo.UpdateStatus(ctx, conn.ID, domain.ConnectionEnded, &now); err != nil {
		return fmt.Errorf("failed to end connection: %w", err)
	}
	// An open voting round dies with the connection.
	if err := uc.votingRepo.CancelOpenByConnection(ctx, conn.ID); err != nil {
		return fmt.Errorf("failed to cancel voting round: %w", err)
	}
	conn.Status = domain.ConnectionEnded
	conn.EndedAt = &now

	uc.publish(ctx, domain.NewEvent(domain.EventConnectionEnded, conn, nil))
	return nil
}

// Get returns a single connection; only its members may read it.
func (uc *ConnectionUseCase) Get(ctx context.Context, connectionID, userID int) (*ConnectionView, error) {
	conn, err := uc.connRepo.GetByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if !conn.HasUser(userID) {
		return nil, domain.ErrForbidden
	}
	return uc.buildView(ctx, conn, userID), nil
}

// List returns all connections of a user, newest first.
func (uc *ConnectionUseCase) List(ctx context.Context, userID int) ([]*ConnectionView, error) {
	conns, err := uc.connRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	views := make([]*ConnectionView, 0, len(conns))
	for _, conn := range conns {
		views = append(views, uc.buildView(ctx, conn, userID))
	}
	return views, nil
}

func (uc *ConnectionUseCase) buildView(ctx context.Context, conn *domain.Connection, userID int) *ConnectionView {
	view := &ConnectionView{Connection: conn}

	if otherID, ok := conn.OtherUserID(userID); ok {
		if profile, err := uc.profileRepo.GetByUserID(ctx, otherID); err == nil {
			view.OtherUser = &OtherUserSummary{
				UserID:      profile.UserID,
				DisplayName: profile.DisplayName,
				Bio:         profile.Bio,
				City:        profile.City,
				Age:         profile.Age(uc.now()),
				PhotoURLs:   profile.PhotoURLs,
			}
		}
	}
	if conn.CurrentMissionID != nil {
		if mission, err := uc.missionRepo.GetByID(ctx, *conn.CurrentMissionID); err == nil {
			view.CurrentMission = mission
		}
	}
	return view
}

// ApplyProgressDelta awards mission points to an active connection. Progress
// is monotonic and clamped to 100; the chat-unlock event fires exactly once
// per connection, deduplicated here.
func (uc *ConnectionUseCase) ApplyProgressDelta(ctx context.Context, connectionID, points int, sharedInterest bool) (*domain.Connection, error) {
	defer uc.locks.Lock(connectionID)()

	conn, err := uc.connRepo.GetByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if conn.Status != domain.ConnectionActive {
		return nil, fmt.Errorf("%w: connection is %s", domain.ErrInvalidTransition, conn.Status)
	}

	delta := domain.NormalizePoints(points, sharedInterest)
	update := domain.ApplyPoints(conn.Progress, conn.ChatUnlocked, delta)
	if update.Progress < conn.Progress {
		return nil, fmt.Errorf("progress would regress from %d to %d", conn.Progress, update.Progress)
	}

	if err := uc.connRepo.UpdateProgress(ctx, connectionID, update.Progress, update.Temperature); err != nil {
		return nil, fmt.Errorf("failed to update progress: %w", err)
	}
	conn.Progress = update.Progress
	conn.Temperature = update.Temperature

	if update.JustUnlocked {
		flipped, err := uc.connRepo.MarkChatUnlocked(ctx, connectionID)
		if err != nil {
			return nil, fmt.Errorf("failed to unlock chat: %w", err)
		}
		if flipped {
			conn.ChatUnlocked = true
			uc.emitChatUnlocked(*conn)
		}
	}
	return conn, nil
}

// emitChatUnlocked publishes the unlock event, decorated with AI icebreakers
// when Gemini is configured. Runs async so the submit path never waits on the
// model.
func (uc *ConnectionUseCase) emitChatUnlocked(conn domain.Connection) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		payload := domain.ChatUnlockedPayload{Progress: conn.Progress}
		if uc.geminiClient != nil {
			if shared := uc.sharedInterestNames(ctx, &conn); len(shared) > 0 {
				icebreakers, err := uc.geminiClient.GenerateIcebreakers(ctx, shared)
				if err != nil {
					log.Printf("connection: icebreaker generation failed for %d: %v", conn.ID, err)
				} else {
					payload.Icebreakers = icebreakers
				}
			}
		}
		uc.publish(ctx, domain.NewEvent(domain.EventChatUnlocked, &conn, payload))
	}()
}

func (uc *ConnectionUseCase) sharedInterestNames(ctx context.Context, conn *domain.Connection) []string {
	profileA, errA := uc.profileRepo.GetByUserID(ctx, conn.UserAID)
	profileB, errB := uc.profileRepo.GetByUserID(ctx, conn.UserBID)
	if errA != nil || errB != nil {
		return nil
	}
	shared := domain.SharedInterests(profileA.Interests, profileB.Interests)
	names := make([]string, 0, len(shared))
	for _, s := range shared {
		names = append(names, s.Interest)
	}
	return names
}

func (uc *ConnectionUseCase) publish(ctx context.Context, event domain.Event) {
	if err := uc.publisher.Publish(ctx, event); err != nil {
		log.Printf("connection: failed to publish %s for %d: %v", event.Type, event.ConnectionID, err)
	}
}
