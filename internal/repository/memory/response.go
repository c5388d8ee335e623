package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/emberapp/ember-backend/internal/domain"
	"github.com/emberapp/ember-backend/internal/repository"
)

type responseKey struct {
	connectionID int
	missionID    int
	userID       int
}

type completionKey struct {
	connectionID int
	missionID    int
}

type ResponseRepository struct {
	mu          sync.Mutex
	nextID      int
	responses   map[responseKey]*domain.MissionResponse
	completions map[completionKey]*domain.MissionCompletion
}

func NewResponseRepository() *ResponseRepository {
	return &ResponseRepository{
		nextID:      1,
		responses:   make(map[responseKey]*domain.MissionResponse),
		completions: make(map[completionKey]*domain.MissionCompletion),
	}
}

var _ repository.ResponseRepository = (*ResponseRepository)(nil)

func (r *ResponseRepository) Create(ctx context.Context, response *domain.MissionResponse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := responseKey{response.ConnectionID, response.MissionID, response.UserID}
	if _, exists := r.responses[key]; exists {
		return domain.ErrAlreadyResponded
	}
	response.ID = r.nextID
	r.nextID++
	response.SubmittedAt = time.Now().UTC()
	clone := *response
	r.responses[key] = &clone
	return nil
}

func (r *ResponseRepository) GetByUser(ctx context.Context, connectionID, missionID, userID int) (*domain.MissionResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	response, ok := r.responses[responseKey{connectionID, missionID, userID}]
	if !ok {
		return nil, domain.ErrMissionNotFound
	}
	clone := *response
	return &clone, nil
}

func (r *ResponseRepository) ListByMission(ctx context.Context, connectionID, missionID int) ([]*domain.MissionResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.MissionResponse
	for key, response := range r.responses {
		if key.connectionID == connectionID && key.missionID == missionID {
			clone := *response
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *ResponseRepository) CreateCompletion(ctx context.Context, completion *domain.MissionCompletion) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := completionKey{completion.ConnectionID, completion.MissionID}
	if _, exists := r.completions[key]; exists {
		return false, nil
	}
	completion.CompletedAt = time.Now().UTC()
	clone := *completion
	r.completions[key] = &clone
	return true, nil
}

func (r *ResponseRepository) IsCompleted(ctx context.Context, connectionID, missionID int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.completions[completionKey{connectionID, missionID}]
	return ok, nil
}

func (r *ResponseRepository) CompletedMissionIDs(ctx context.Context, connectionID int) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []int
	for key := range r.completions {
		if key.connectionID == connectionID {
			ids = append(ids, key.missionID)
		}
	}
	sort.Ints(ids)
	return ids, nil
}
