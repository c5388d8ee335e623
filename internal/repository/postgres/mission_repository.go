package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/emberapp/ember-backend/internal/domain"
	"github.com/emberapp/ember-backend/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type missionRepository struct {
	db *sqlx.DB
}

func NewMissionRepository(db *sqlx.DB) repository.MissionRepository {
	return &missionRepository{db: db}
}

func (r *missionRepository) GetByID(ctx context.Context, id int) (*domain.Mission, error) {
	var mission domain.Mission
	query := `SELECT * FROM missions WHERE id = $1`
	err := r.db.GetContext(ctx, &mission, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMissionNotFound
		}
		return nil, err
	}
	return &mission, nil
}

func (r *missionRepository) List(ctx context.Context, category string, missionType domain.MissionType) ([]*domain.Mission, error) {
	var missions []*domain.Mission
	query := `
		SELECT * FROM missions
		WHERE ($1 = '' OR category = $1)
		  AND ($2 = '' OR type = $2)
		ORDER BY id
	`
	err := r.db.SelectContext(ctx, &missions, query, category, string(missionType))
	return missions, err
}

func (r *missionRepository) ListByCategories(ctx context.Context, categories []string, excludeIDs []int, limit int) ([]*domain.Mission, error) {
	var missions []*domain.Mission
	query := `
		SELECT * FROM missions
		WHERE category = ANY($1)
		  AND NOT (id = ANY($2))
		ORDER BY id
		LIMIT $3
	`
	err := r.db.SelectContext(ctx, &missions, query, pq.Array(categories), pq.Array(excludeIDs), limit)
	return missions, err
}

func (r *missionRepository) ListAny(ctx context.Context, excludeIDs []int, limit int) ([]*domain.Mission, error) {
	var missions []*domain.Mission
	query := `
		SELECT * FROM missions
		WHERE NOT (id = ANY($1))
		ORDER BY id
		LIMIT $2
	`
	err := r.db.SelectContext(ctx, &missions, query, pq.Array(excludeIDs), limit)
	return missions, err
}
