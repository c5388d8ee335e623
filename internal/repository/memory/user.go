package memory

import (
	"context"
	"sync"
	"time"

	"github.com/emberapp/ember-backend/internal/domain"
	"github.com/emberapp/ember-backend/internal/repository"
)

type UserRepository struct {
	mu     sync.Mutex
	nextID int
	users  map[int]*domain.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{nextID: 1, users: make(map[int]*domain.User)}
}

var _ repository.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return domain.ErrEmailTaken
		}
	}
	user.ID = r.nextID
	r.nextID++
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

type ProfileRepository struct {
	mu       sync.Mutex
	nextID   int
	profiles map[int]*domain.Profile // keyed by user id
}

func NewProfileRepository() *ProfileRepository {
	return &ProfileRepository{nextID: 1, profiles: make(map[int]*domain.Profile)}
}

var _ repository.ProfileRepository = (*ProfileRepository)(nil)

func (r *ProfileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	profile.ID = r.nextID
	r.nextID++
	profile.CreatedAt = time.Now().UTC()
	profile.UpdatedAt = profile.CreatedAt
	clone := *profile
	r.profiles[profile.UserID] = &clone
	return nil
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID int) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	profile, ok := r.profiles[userID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	clone := *profile
	clone.Interests = append([]string(nil), profile.Interests...)
	clone.PhotoURLs = append([]string(nil), profile.PhotoURLs...)
	return &clone, nil
}

func (r *ProfileRepository) Update(ctx context.Context, profile *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[profile.UserID]; !ok {
		return domain.ErrProfileNotFound
	}
	profile.UpdatedAt = time.Now().UTC()
	clone := *profile
	r.profiles[profile.UserID] = &clone
	return nil
}

type SessionRepository struct {
	mu       sync.Mutex
	nextID   int
	sessions map[string]*domain.Session // keyed by refresh token
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{nextID: 1, sessions: make(map[string]*domain.Session)}
}

var _ repository.SessionRepository = (*SessionRepository)(nil)

func (r *SessionRepository) Create(ctx context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session.ID = r.nextID
	r.nextID++
	session.CreatedAt = time.Now().UTC()
	clone := *session
	r.sessions[session.RefreshToken] = &clone
	return nil
}

func (r *SessionRepository) GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[token]
	if !ok || session.RevokedAt != nil || session.ExpiresAt.Before(time.Now()) {
		return nil, domain.ErrSessionNotFound
	}
	clone := *session
	return &clone, nil
}

func (r *SessionRepository) Revoke(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.sessions[token]; ok && session.RevokedAt == nil {
		now := time.Now().UTC()
		session.RevokedAt = &now
	}
	return nil
}
