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

type profileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) repository.ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	query := `
		INSERT INTO profiles (user_id, display_name, bio, city, gender, birth_date, interests, photo_urls)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowContext(
		ctx, query,
		profile.UserID, profile.DisplayName, profile.Bio, profile.City, profile.Gender,
		profile.BirthDate, pq.Array(profile.Interests), pq.Array(profile.PhotoURLs),
	).Scan(&profile.ID, &profile.CreatedAt, &profile.UpdatedAt)
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID int) (*domain.Profile, error) {
	var profile domain.Profile
	query := `
		SELECT id, user_id, display_name, bio, city, gender, birth_date, interests, photo_urls,
		       created_at, updated_at
		FROM profiles WHERE user_id = $1
	`
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&profile.ID, &profile.UserID, &profile.DisplayName, &profile.Bio, &profile.City,
		&profile.Gender, &profile.BirthDate, pq.Array(&profile.Interests),
		pq.Array(&profile.PhotoURLs), &profile.CreatedAt, &profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) Update(ctx context.Context, profile *domain.Profile) error {
	query := `
		UPDATE profiles
		SET display_name = $1, bio = $2, city = $3, gender = $4, birth_date = $5,
		    interests = $6, photo_urls = $7, updated_at = NOW()
		WHERE user_id = $8
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(
		ctx, query,
		profile.DisplayName, profile.Bio, profile.City, profile.Gender, profile.BirthDate,
		pq.Array(profile.Interests), pq.Array(profile.PhotoURLs), profile.UserID,
	).Scan(&profile.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrProfileNotFound
	}
	return err
}
