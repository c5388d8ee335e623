package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/emberapp/ember-backend/internal/config"
	"github.com/emberapp/ember-backend/internal/domain"
	"github.com/emberapp/ember-backend/internal/repository"
)

// AuthUseCase handles registration, login and the refresh-token session
// lifecycle. Access tokens are short-lived HS256 JWTs; refresh tokens are
// opaque UUIDs stored server-side so they can be revoked.
type AuthUseCase struct {
	userRepo    repository.UserRepository
	profileRepo repository.ProfileRepository
	sessionRepo repository.SessionRepository
	cfg         config.JWTConfig
	now         func() time.Time
}

func NewAuthUseCase(
	userRepo repository.UserRepository,
	profileRepo repository.ProfileRepository,
	sessionRepo repository.SessionRepository,
	cfg config.JWTConfig,
) *AuthUseCase {
	return &AuthUseCase{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		sessionRepo: sessionRepo,
		cfg:         cfg,
		now:         time.Now,
	}
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

type AuthResult struct {
	User   *domain.User `json:"user"`
	Tokens TokenPair    `json:"tokens"`
}

type accessClaims struct {
	UserID int `json:"user_id"`
	jwt.RegisteredClaims
}

// Register creates a user with a bcrypt-hashed password plus an empty profile,
// and logs them in.
func (uc *AuthUseCase) Register(ctx context.Context, email, password, displayName, userAgent, ip string) (*AuthResult, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	profile := &domain.Profile{
		UserID:      user.ID,
		DisplayName: displayName,
		Interests:   []string{},
		PhotoURLs:   []string{},
	}
	if err := uc.profileRepo.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	tokens, err := uc.issueTokens(ctx, user.ID, userAgent, ip)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Tokens: tokens}, nil
}

// Login verifies credentials and opens a new session.
func (uc *AuthUseCase) Login(ctx context.Context, email, password, userAgent, ip string) (*AuthResult, error) {
	user, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if err == domain.ErrUserNotFound {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	tokens, err := uc.issueTokens(ctx, user.ID, userAgent, ip)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Tokens: tokens}, nil
}

// Refresh rotates a refresh token: the old session is revoked and a new pair
// is issued.
func (uc *AuthUseCase) Refresh(ctx context.Context, refreshToken, userAgent, ip string) (*TokenPair, error) {
	session, err := uc.sessionRepo.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if session.RevokedAt != nil || session.ExpiresAt.Before(uc.now().UTC()) {
		return nil, domain.ErrInvalidToken
	}
	if err := uc.sessionRepo.Revoke(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to revoke session: %w", err)
	}

	tokens, err := uc.issueTokens(ctx, session.UserID, userAgent, ip)
	if err != nil {
		return nil, err
	}
	return &tokens, nil
}

// Logout revokes the session behind a refresh token.
func (uc *AuthUseCase) Logout(ctx context.Context, refreshToken string) error {
	return uc.sessionRepo.Revoke(ctx, refreshToken)
}

// ParseAccessToken validates an access token and returns the user ID.
func (uc *AuthUseCase) ParseAccessToken(tokenString string) (int, error) {
	claims := &accessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(uc.cfg.AccessSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, domain.ErrInvalidToken
	}
	return claims.UserID, nil
}

func (uc *AuthUseCase) issueTokens(ctx context.Context, userID int, userAgent, ip string) (TokenPair, error) {
	now := uc.now().UTC()
	accessTTL := time.Duration(uc.cfg.AccessExpiryMin) * time.Minute

	claims := accessClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(accessTTL)),
		},
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(uc.cfg.AccessSecret))
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to sign access token: %w", err)
	}

	session := &domain.Session{
		UserID:       userID,
		RefreshToken: uuid.NewString(),
		UserAgent:    userAgent,
		IPAddress:    ip,
		ExpiresAt:    now.AddDate(0, 0, uc.cfg.RefreshExpiryDay),
	}
	if err := uc.sessionRepo.Create(ctx, session); err != nil {
		return TokenPair{}, fmt.Errorf("failed to create session: %w", err)
	}

	return TokenPair{
		AccessToken:  access,
		RefreshToken: session.RefreshToken,
		ExpiresIn:    int(accessTTL.Seconds()),
	}, nil
}
