package domain

import "time"

// Profile is the public-facing identity of a user. The first entry of
// Interests is treated as the main interest when computing shared interests.
type Profile struct {
	ID          int        `json:"id" db:"id"`
	UserID      int        `json:"user_id" db:"user_id"`
	DisplayName string     `json:"display_name" db:"display_name"`
	Bio         *string    `json:"bio" db:"bio"`
	City        *string    `json:"city" db:"city"`
	Gender      *string    `json:"gender" db:"gender"`
	BirthDate   *time.Time `json:"birth_date" db:"birth_date"`
	Interests   []string   `json:"interests" db:"interests"`
	PhotoURLs   []string   `json:"photo_urls" db:"photo_urls"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// Age in full years at the given instant; 0 when no birth date is set.
func (p *Profile) Age(now time.Time) int {
	if p.BirthDate == nil {
		return 0
	}
	age := now.Year() - p.BirthDate.Year()
	if now.YearDay() < p.BirthDate.YearDay() {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}
