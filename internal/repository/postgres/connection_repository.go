package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/emberapp/ember-backend/internal/domain"
	"github.com/emberapp/ember-backend/internal/repository"
	"github.com/jmoiron/sqlx"
)

type connectionRepository struct {
	db *sqlx.DB
}

func NewConnectionRepository(db *sqlx.DB) repository.ConnectionRepository {
	return &connectionRepository{db: db}
}

func (r *connectionRepository) Create(ctx context.Context, conn *domain.Connection) error {
	query := `
		INSERT INTO connections (user_a_id, user_b_id, status, progress, temperature, chat_unlocked)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	return r.db.QueryRowContext(
		ctx, query,
		conn.UserAID, conn.UserBID, conn.Status, conn.Progress, conn.Temperature, conn.ChatUnlocked,
	).Scan(&conn.ID, &conn.CreatedAt)
}

func (r *connectionRepository) GetByID(ctx context.Context, id int) (*domain.Connection, error) {
	var conn domain.Connection
	query := `SELECT * FROM connections WHERE id = $1`
	err := r.db.GetContext(ctx, &conn, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrConnectionNotFound
		}
		return nil, err
	}
	return &conn, nil
}

func (r *connectionRepository) GetActiveByUsers(ctx context.Context, userAID, userBID int) (*domain.Connection, error) {
	var conn domain.Connection
	query := `
		SELECT * FROM connections
		WHERE ((user_a_id = $1 AND user_b_id = $2) OR (user_a_id = $2 AND user_b_id = $1))
		  AND status != 'ended'
		LIMIT 1
	`
	err := r.db.GetContext(ctx, &conn, query, userAID, userBID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrConnectionNotFound
		}
		return nil, err
	}
	return &conn, nil
}

func (r *connectionRepository) ListForUser(ctx context.Context, userID int) ([]*domain.Connection, error) {
	var conns []*domain.Connection
	query := `
		SELECT * FROM connections
		WHERE user_a_id = $1 OR user_b_id = $1
		ORDER BY created_at DESC
	`
	err := r.db.SelectContext(ctx, &conns, query, userID)
	return conns, err
}

func (r *connectionRepository) UpdateStatus(ctx context.Context, id int, status domain.ConnectionStatus, endedAt *time.Time) error {
	query := `UPDATE connections SET status = $1, ended_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, status, endedAt, id)
	if err != nil {
		return err
	}
	return requireRow(result, domain.ErrConnectionNotFound)
}

func (r *connectionRepository) SetCurrentMission(ctx context.Context, id int, missionID *int) error {
	query := `UPDATE connections SET current_mission_id = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, missionID, id)
	if err != nil {
		return err
	}
	return requireRow(result, domain.ErrConnectionNotFound)
}

func (r *connectionRepository) UpdateProgress(ctx context.Context, id int, progress int, temperature domain.Temperature) error {
	// progress is monotonic; the WHERE clause is a belt against a stale write.
	query := `
		UPDATE connections SET progress = $1, temperature = $2
		WHERE id = $3 AND progress <= $1
	`
	result, err := r.db.ExecContext(ctx, query, progress, temperature, id)
	if err != nil {
		return err
	}
	return requireRow(result, domain.ErrConnectionNotFound)
}

func (r *connectionRepository) MarkChatUnlocked(ctx context.Context, id int) (bool, error) {
	query := `UPDATE connections SET chat_unlocked = TRUE WHERE id = $1 AND chat_unlocked = FALSE`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func requireRow(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
