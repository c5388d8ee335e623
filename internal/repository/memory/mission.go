package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/emberapp/ember-backend/internal/domain"
	"github.com/emberapp/ember-backend/internal/repository"
)

type MissionRepository struct {
	mu       sync.Mutex
	missions map[int]*domain.Mission
}

func NewMissionRepository(missions ...*domain.Mission) *MissionRepository {
	r := &MissionRepository{missions: make(map[int]*domain.Mission)}
	for _, m := range missions {
		clone := *m
		r.missions[m.ID] = &clone
	}
	return r
}

var _ repository.MissionRepository = (*MissionRepository)(nil)

func (r *MissionRepository) GetByID(ctx context.Context, id int) (*domain.Mission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.missions[id]
	if !ok {
		return nil, domain.ErrMissionNotFound
	}
	clone := *m
	return &clone, nil
}

func (r *MissionRepository) List(ctx context.Context, category string, missionType domain.MissionType) ([]*domain.Mission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Mission
	for _, m := range r.sorted() {
		if category != "" && m.Category != category {
			continue
		}
		if missionType != "" && m.Type != missionType {
			continue
		}
		clone := *m
		out = append(out, &clone)
	}
	return out, nil
}

func (r *MissionRepository) ListByCategories(ctx context.Context, categories []string, excludeIDs []int, limit int) ([]*domain.Mission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := make(map[string]bool, len(categories))
	for _, c := range categories {
		wanted[c] = true
	}
	excluded := toSet(excludeIDs)
	var out []*domain.Mission
	for _, m := range r.sorted() {
		if len(out) >= limit {
			break
		}
		if !wanted[m.Category] || excluded[m.ID] {
			continue
		}
		clone := *m
		out = append(out, &clone)
	}
	return out, nil
}

func (r *MissionRepository) ListAny(ctx context.Context, excludeIDs []int, limit int) ([]*domain.Mission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	excluded := toSet(excludeIDs)
	var out []*domain.Mission
	for _, m := range r.sorted() {
		if len(out) >= limit {
			break
		}
		if excluded[m.ID] {
			continue
		}
		clone := *m
		out = append(out, &clone)
	}
	return out, nil
}

func (r *MissionRepository) sorted() []*domain.Mission {
	out := make([]*domain.Mission, 0, len(r.missions))
	for _, m := range r.missions {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func toSet(ids []int) map[int]bool {
	set := make(map[int]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
