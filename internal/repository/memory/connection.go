// Package memory provides in-memory repository implementations backing unit
// tests and local development without Postgres.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/emberapp/ember-backend/internal/domain"
	"github.com/emberapp/ember-backend/internal/repository"
)

type ConnectionRepository struct {
	mu     sync.Mutex
	nextID int
	conns  map[int]*domain.Connection
}

func NewConnectionRepository() *ConnectionRepository {
	return &ConnectionRepository{nextID: 1, conns: make(map[int]*domain.Connection)}
}

var _ repository.ConnectionRepository = (*ConnectionRepository)(nil)

func (r *ConnectionRepository) Create(ctx context.Context, conn *domain.Connection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn.ID = r.nextID
	r.nextID++
	conn.CreatedAt = time.Now().UTC()
	clone := *conn
	r.conns[conn.ID] = &clone
	return nil
}

func (r *ConnectionRepository) GetByID(ctx context.Context, id int) (*domain.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.conns[id]
	if !ok {
		return nil, domain.ErrConnectionNotFound
	}
	clone := *conn
	return &clone, nil
}

func (r *ConnectionRepository) GetActiveByUsers(ctx context.Context, userAID, userBID int) (*domain.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, conn := range r.conns {
		if conn.Status == domain.ConnectionEnded {
			continue
		}
		if (conn.UserAID == userAID && conn.UserBID == userBID) ||
			(conn.UserAID == userBID && conn.UserBID == userAID) {
			clone := *conn
			return &clone, nil
		}
	}
	return nil, domain.ErrConnectionNotFound
}

func (r *ConnectionRepository) ListForUser(ctx context.Context, userID int) ([]*domain.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Connection
	for _, conn := range r.conns {
		if conn.HasUser(userID) {
			clone := *conn
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *ConnectionRepository) UpdateStatus(ctx context.Context, id int, status domain.ConnectionStatus, endedAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.conns[id]
	if !ok {
		return domain.ErrConnectionNotFound
	}
	conn.Status = status
	conn.EndedAt = endedAt
	return nil
}

func (r *ConnectionRepository) SetCurrentMission(ctx context.Context, id int, missionID *int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.conns[id]
	if !ok {
		return domain.ErrConnectionNotFound
	}
	conn.CurrentMissionID = missionID
	return nil
}

func (r *ConnectionRepository) UpdateProgress(ctx context.Context, id int, progress int, temperature domain.Temperature) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.conns[id]
	if !ok {
		return domain.ErrConnectionNotFound
	}
	if progress >= conn.Progress {
		conn.Progress = progress
		conn.Temperature = temperature
	}
	return nil
}

func (r *ConnectionRepository) MarkChatUnlocked(ctx context.Context, id int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.conns[id]
	if !ok {
		return false, domain.ErrConnectionNotFound
	}
	if conn.ChatUnlocked {
		return false, nil
	}
	conn.ChatUnlocked = true
	return true, nil
}
