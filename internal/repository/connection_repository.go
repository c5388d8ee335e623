package repository

import (
	"context"
	"time"

	"github.com/emberapp/ember-backend/internal/domain"
)

type ConnectionRepository interface {
	Create(ctx context.Context, conn *domain.Connection) error
	GetByID(ctx context.Context, id int) (*domain.Connection, error)
	// GetActiveByUsers returns the non-ended connection between the pair in
	// either direction, or domain.ErrConnectionNotFound.
	GetActiveByUsers(ctx context.Context, userAID, userBID int) (*domain.Connection, error)
	ListForUser(ctx context.Context, userID int) ([]*domain.Connection, error)
	UpdateStatus(ctx context.Context, id int, status domain.ConnectionStatus, endedAt *time.Time) error
	SetCurrentMission(ctx context.Context, id int, missionID *int) error
	// UpdateProgress persists a new progress value and temperature. The value
	// must already satisfy the monotonicity invariant.
	UpdateProgress(ctx context.Context, id int, progress int, temperature domain.Temperature) error
	// MarkChatUnlocked flips chat_unlocked exactly once. Returns true only for
	// the call that actually flipped it.
	MarkChatUnlocked(ctx context.Context, id int) (bool, error)
}
