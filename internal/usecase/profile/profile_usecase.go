package profile

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/emberapp/ember-backend/internal/domain"
	"github.com/emberapp/ember-backend/internal/repository"
)

// ProfileUseCase reads and updates member profiles. Interests matter to the
// engine: the first interest is the member's main one.
type ProfileUseCase struct {
	profileRepo repository.ProfileRepository
	userRepo    repository.UserRepository
	validate    *validator.Validate
	now         func() time.Time
}

func NewProfileUseCase(profileRepo repository.ProfileRepository, userRepo repository.UserRepository) *ProfileUseCase {
	return &ProfileUseCase{
		profileRepo: profileRepo,
		userRepo:    userRepo,
		validate:    validator.New(),
		now:         time.Now,
	}
}

// PublicProfile is the profile as shown to other members.
type PublicProfile struct {
	UserID      int      `json:"user_id"`
	DisplayName string   `json:"display_name"`
	Bio         *string  `json:"bio"`
	City        *string  `json:"city"`
	Gender      *string  `json:"gender"`
	Age         int      `json:"age,omitempty"`
	Interests   []string `json:"interests"`
	PhotoURLs   []string `json:"photo_urls"`
}

type UpdateProfileInput struct {
	DisplayName *string  `json:"display_name" validate:"omitempty,min=1,max=64"`
	Bio         *string  `json:"bio" validate:"omitempty,max=500"`
	City        *string  `json:"city" validate:"omitempty,max=64"`
	Gender      *string  `json:"gender" validate:"omitempty,oneof=male female other"`
	BirthDate   *string  `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	Interests   []string `json:"interests" validate:"omitempty,max=20,dive,min=1,max=32"`
	PhotoURLs   []string `json:"photo_urls" validate:"omitempty,max=10,dive,url"`
}

// GetPublic returns another member's public profile.
func (uc *ProfileUseCase) GetPublic(ctx context.Context, userID int) (*PublicProfile, error) {
	profile, err := uc.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &PublicProfile{
		UserID:      profile.UserID,
		DisplayName: profile.DisplayName,
		Bio:         profile.Bio,
		City:        profile.City,
		Gender:      profile.Gender,
		Age:         profile.Age(uc.now()),
		Interests:   profile.Interests,
		PhotoURLs:   profile.PhotoURLs,
	}, nil
}

// GetMy returns the caller's own full profile.
func (uc *ProfileUseCase) GetMy(ctx context.Context, userID int) (*domain.Profile, error) {
	return uc.profileRepo.GetByUserID(ctx, userID)
}

// UpdateMy applies a partial update to the caller's profile.
func (uc *ProfileUseCase) UpdateMy(ctx context.Context, userID int, input UpdateProfileInput) (*domain.Profile, error) {
	if err := uc.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("invalid profile: %w", err)
	}

	profile, err := uc.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.DisplayName != nil {
		profile.DisplayName = *input.DisplayName
	}
	if input.Bio != nil {
		profile.Bio = input.Bio
	}
	if input.City != nil {
		profile.City = input.City
	}
	if input.Gender != nil {
		profile.Gender = input.Gender
	}
	if input.BirthDate != nil {
		birthDate, err := time.Parse("2006-01-02", *input.BirthDate)
		if err != nil {
			return nil, fmt.Errorf("invalid birth date: %w", err)
		}
		profile.BirthDate = &birthDate
	}
	if input.Interests != nil {
		profile.Interests = input.Interests
	}
	if input.PhotoURLs != nil {
		profile.PhotoURLs = input.PhotoURLs
	}

	if err := uc.profileRepo.Update(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return profile, nil
}
