package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/emberapp/ember-backend/internal/domain"
	"github.com/emberapp/ember-backend/internal/repository"
	"github.com/jmoiron/sqlx"
)

type responseRepository struct {
	db *sqlx.DB
}

func NewResponseRepository(db *sqlx.DB) repository.ResponseRepository {
	return &responseRepository{db: db}
}

func (r *responseRepository) Create(ctx context.Context, response *domain.MissionResponse) error {
	query := `
		INSERT INTO mission_responses (connection_id, mission_id, user_id, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING id, submitted_at
	`
	return r.db.QueryRowContext(
		ctx, query,
		response.ConnectionID, response.MissionID, response.UserID, response.Payload,
	).Scan(&response.ID, &response.SubmittedAt)
}

func (r *responseRepository) GetByUser(ctx context.Context, connectionID, missionID, userID int) (*domain.MissionResponse, error) {
	var response domain.MissionResponse
	query := `
		SELECT * FROM mission_responses
		WHERE connection_id = $1 AND mission_id = $2 AND user_id = $3
	`
	err := r.db.GetContext(ctx, &response, query, connectionID, missionID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMissionNotFound
		}
		return nil, err
	}
	return &response, nil
}

func (r *responseRepository) ListByMission(ctx context.Context, connectionID, missionID int) ([]*domain.MissionResponse, error) {
	var responses []*domain.MissionResponse
	query := `
		SELECT * FROM mission_responses
		WHERE connection_id = $1 AND mission_id = $2
		ORDER BY submitted_at
	`
	err := r.db.SelectContext(ctx, &responses, query, connectionID, missionID)
	return responses, err
}

func (r *responseRepository) CreateCompletion(ctx context.Context, completion *domain.MissionCompletion) (bool, error) {
	query := `
		INSERT INTO mission_completions (connection_id, mission_id, points_awarded)
		VALUES ($1, $2, $3)
		ON CONFLICT (connection_id, mission_id) DO NOTHING
	`
	result, err := r.db.ExecContext(ctx, query, completion.ConnectionID, completion.MissionID, completion.PointsAwarded)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (r *responseRepository) IsCompleted(ctx context.Context, connectionID, missionID int) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM mission_completions WHERE connection_id = $1 AND mission_id = $2
		)
	`
	err := r.db.GetContext(ctx, &exists, query, connectionID, missionID)
	return exists, err
}

func (r *responseRepository) CompletedMissionIDs(ctx context.Context, connectionID int) ([]int, error) {
	var ids []int
	query := `SELECT mission_id FROM mission_completions WHERE connection_id = $1`
	err := r.db.SelectContext(ctx, &ids, query, connectionID)
	return ids, err
}
