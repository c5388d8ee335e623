package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/emberapp/ember-backend/internal/domain"
	"github.com/emberapp/ember-backend/internal/repository"
)

// CatalogUseCase is the engine's read-only access to mission templates, plus
// candidate selection for voting rounds biased by the pair's shared
// interests.
type CatalogUseCase struct {
	missionRepo repository.MissionRepository
}

func NewCatalogUseCase(missionRepo repository.MissionRepository) *CatalogUseCase {
	return &CatalogUseCase{missionRepo: missionRepo}
}

func (uc *CatalogUseCase) Get(ctx context.Context, id int) (*domain.Mission, error) {
	return uc.missionRepo.GetByID(ctx, id)
}

func (uc *CatalogUseCase) List(ctx context.Context, category string, missionType domain.MissionType) ([]*domain.Mission, error) {
	return uc.missionRepo.List(ctx, category, missionType)
}

// Candidates picks up to limit missions for a voting round. Missions matching
// a shared interest come first; the rest of the set is filled from the whole
// catalog. Already-completed missions are excluded.
func (uc *CatalogUseCase) Candidates(ctx context.Context, shared []domain.SharedInterest, excludeIDs []int, limit int) ([]domain.VoteOption, error) {
	mains := make(map[string]bool)
	categories := make([]string, 0, len(shared))
	for _, s := range shared {
		categories = append(categories, s.Interest)
		if s.IsMain {
			mains[s.Interest] = true
		}
	}

	var picked []*domain.Mission
	if len(categories) > 0 {
		byInterest, err := uc.missionRepo.ListByCategories(ctx, categories, excludeIDs, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to list missions by interest: %w", err)
		}
		picked = byInterest
	}

	if len(picked) < limit {
		exclude := append([]int(nil), excludeIDs...)
		for _, m := range picked {
			exclude = append(exclude, m.ID)
		}
		fill, err := uc.missionRepo.ListAny(ctx, exclude, limit-len(picked))
		if err != nil {
			return nil, fmt.Errorf("failed to list fill missions: %w", err)
		}
		picked = append(picked, fill...)
	}

	options := make([]domain.VoteOption, 0, len(picked))
	for i, m := range picked {
		options = append(options, domain.VoteOption{
			MissionID:        m.ID,
			Title:            m.Title,
			Category:         m.Category,
			Points:           m.Points,
			Position:         i,
			IsSharedInterest: domain.ContainsInterest(shared, m.Category),
			IsMainInterest:   mains[strings.ToLower(strings.TrimSpace(m.Category))],
		})
	}
	return options, nil
}
