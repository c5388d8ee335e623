package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/emberapp/ember-backend/internal/config"
	"github.com/emberapp/ember-backend/internal/domain"
	"github.com/emberapp/ember-backend/internal/repository/memory"
)

func newAuthUseCase() (*AuthUseCase, *memory.ProfileRepository) {
	profileRepo := memory.NewProfileRepository()
	uc := NewAuthUseCase(
		memory.NewUserRepository(),
		profileRepo,
		memory.NewSessionRepository(),
		config.JWTConfig{
			AccessSecret:     "test-secret-test-secret-test-secret!",
			AccessExpiryMin:  30,
			RefreshExpiryDay: 30,
		},
	)
	return uc, profileRepo
}

func TestRegisterCreatesUserAndProfile(t *testing.T) {
	uc, profileRepo := newAuthUseCase()

	result, err := uc.Register(context.Background(), "ember@example.com", "password123", "Ember", "test-agent", "127.0.0.1")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if result.User.PasswordHash == "password123" {
		t.Error("password must be hashed")
	}
	if result.Tokens.AccessToken == "" || result.Tokens.RefreshToken == "" {
		t.Error("registration must issue a token pair")
	}

	profile, err := profileRepo.GetByUserID(context.Background(), result.User.ID)
	if err != nil {
		t.Fatalf("profile not created: %v", err)
	}
	if profile.DisplayName != "Ember" {
		t.Errorf("unexpected display name %q", profile.DisplayName)
	}

	userID, err := uc.ParseAccessToken(result.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("access token must parse: %v", err)
	}
	if userID != result.User.ID {
		t.Errorf("token user %d, want %d", userID, result.User.ID)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	uc, _ := newAuthUseCase()

	if _, err := uc.Register(context.Background(), "ember@example.com", "password123", "A", "", ""); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := uc.Register(context.Background(), "ember@example.com", "password456", "B", "", ""); !errors.Is(err, domain.ErrEmailTaken) {
		t.Errorf("duplicate email must fail, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	uc, _ := newAuthUseCase()

	if _, err := uc.Register(context.Background(), "ember@example.com", "password123", "Ember", "", ""); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	result, err := uc.Login(context.Background(), "ember@example.com", "password123", "", "")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if result.Tokens.AccessToken == "" {
		t.Error("login must issue an access token")
	}

	if _, err := uc.Login(context.Background(), "ember@example.com", "wrong", "", ""); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("wrong password must fail with ErrInvalidCredentials, got %v", err)
	}
	if _, err := uc.Login(context.Background(), "nobody@example.com", "password123", "", ""); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("unknown email must fail with ErrInvalidCredentials, got %v", err)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	uc, _ := newAuthUseCase()

	registered, err := uc.Register(context.Background(), "ember@example.com", "password123", "Ember", "", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	rotated, err := uc.Refresh(context.Background(), registered.Tokens.RefreshToken, "", "")
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if rotated.RefreshToken == registered.Tokens.RefreshToken {
		t.Error("refresh must rotate the refresh token")
	}

	// The old token is revoked; replaying it must fail.
	if _, err := uc.Refresh(context.Background(), registered.Tokens.RefreshToken, "", ""); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("replayed refresh token must fail, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	uc, _ := newAuthUseCase()

	registered, err := uc.Register(context.Background(), "ember@example.com", "password123", "Ember", "", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := uc.Logout(context.Background(), registered.Tokens.RefreshToken); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if _, err := uc.Refresh(context.Background(), registered.Tokens.RefreshToken, "", ""); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("refresh after logout must fail, got %v", err)
	}
}

func TestParseAccessTokenRejectsGarbage(t *testing.T) {
	uc, _ := newAuthUseCase()
	if _, err := uc.ParseAccessToken("not.a.token"); !errors.Is(err, domain.ErrInvalidToken) {
		t.Errorf("garbage token must fail with ErrInvalidToken, got %v", err)
	}
}
