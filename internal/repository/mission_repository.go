package repository

import (
	"context"

	"github.com/emberapp/ember-backend/internal/domain"
)

type MissionRepository interface {
	GetByID(ctx context.Context, id int) (*domain.Mission, error)
	// List returns published missions, optionally filtered by category and
	// type (empty string means no filter).
	List(ctx context.Context, category string, missionType domain.MissionType) ([]*domain.Mission, error)
	// ListByCategories returns up to limit missions whose category is in the
	// given set, excluding the given mission ids, in catalog order.
	ListByCategories(ctx context.Context, categories []string, excludeIDs []int, limit int) ([]*domain.Mission, error)
	// ListAny returns up to limit missions excluding the given ids, in
	// catalog order.
	ListAny(ctx context.Context, excludeIDs []int, limit int) ([]*domain.Mission, error)
}
