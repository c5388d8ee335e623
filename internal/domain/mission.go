package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type MissionType string

const (
	MissionQuestion       MissionType = "question"
	MissionChoice         MissionType = "choice"
	MissionThisOrThat     MissionType = "this_or_that"
	MissionWouldYouRather MissionType = "would_you_rather"
	MissionRanking        MissionType = "ranking"
)

// Mission is an immutable template describing a shared interactive task.
// Content carries the type-specific schema as a tagged union.
type Mission struct {
	ID          int            `json:"id" db:"id"`
	Type        MissionType    `json:"type" db:"type"`
	Title       string         `json:"title" db:"title"`
	Description string         `json:"description" db:"description"`
	Category    string         `json:"category" db:"category"`
	Points      int            `json:"points" db:"points"`
	Difficulty  int            `json:"difficulty" db:"difficulty"`
	Content     MissionContent `json:"content" db:"content"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
}

// MissionContent is a tagged union keyed by the mission type. Exactly one
// variant is set for a published mission.
type MissionContent struct {
	Question       *QuestionContent `json:"question,omitempty"`
	Choice         *ChoiceContent   `json:"choice,omitempty"`
	ThisOrThat     *PairListContent `json:"this_or_that,omitempty"`
	WouldYouRather *PairListContent `json:"would_you_rather,omitempty"`
	Ranking        *RankingContent  `json:"ranking,omitempty"`
}

type QuestionContent struct {
	Prompt    string `json:"prompt"`
	MaxLength int    `json:"max_length"`
}

type ChoiceContent struct {
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

type OptionPair struct {
	OptionA string `json:"option_a"`
	OptionB string `json:"option_b"`
}

// PairListContent backs both this-or-that and would-you-rather missions: a
// list of binary choices the user answers one by one.
type PairListContent struct {
	Pairs []OptionPair `json:"pairs"`
}

type RankingContent struct {
	Prompt string   `json:"prompt"`
	Items  []string `json:"items"`
}

func (c MissionContent) Value() (driver.Value, error) {
	return json.Marshal(c)
}

func (c *MissionContent) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	case nil:
		*c = MissionContent{}
		return nil
	default:
		return fmt.Errorf("unsupported type for mission content: %T", src)
	}
}

// ResponsePayload is a member's answer to a mission, shaped by the mission
// type: Text for question, Selection for choice, Picks ("a"/"b" per pair) for
// this-or-that and would-you-rather, Ranking for ranking.
type ResponsePayload struct {
	Text      *string  `json:"text,omitempty"`
	Selection *string  `json:"selection,omitempty"`
	Picks     []string `json:"picks,omitempty"`
	Ranking   []string `json:"ranking,omitempty"`
}

func (p ResponsePayload) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *ResponsePayload) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	case nil:
		*p = ResponsePayload{}
		return nil
	default:
		return fmt.Errorf("unsupported type for response payload: %T", src)
	}
}

// ValidateResponse checks a payload against the mission's content schema.
// Every failure wraps ErrInvalidResponse.
func ValidateResponse(m *Mission, p ResponsePayload) error {
	switch m.Type {
	case MissionQuestion:
		if m.Content.Question == nil {
			return fmt.Errorf("%w: mission has no question content", ErrInvalidResponse)
		}
		if p.Text == nil || strings.TrimSpace(*p.Text) == "" {
			return fmt.Errorf("%w: text is required", ErrInvalidResponse)
		}
		if max := m.Content.Question.MaxLength; max > 0 && len([]rune(*p.Text)) > max {
			return fmt.Errorf("%w: text exceeds %d characters", ErrInvalidResponse, max)
		}
	case MissionChoice:
		if m.Content.Choice == nil {
			return fmt.Errorf("%w: mission has no choice content", ErrInvalidResponse)
		}
		if p.Selection == nil {
			return fmt.Errorf("%w: selection is required", ErrInvalidResponse)
		}
		for _, opt := range m.Content.Choice.Options {
			if opt == *p.Selection {
				return nil
			}
		}
		return fmt.Errorf("%w: selection is not one of the options", ErrInvalidResponse)
	case MissionThisOrThat, MissionWouldYouRather:
		pairs := m.Content.ThisOrThat
		if m.Type == MissionWouldYouRather {
			pairs = m.Content.WouldYouRather
		}
		if pairs == nil {
			return fmt.Errorf("%w: mission has no pair content", ErrInvalidResponse)
		}
		if len(p.Picks) != len(pairs.Pairs) {
			return fmt.Errorf("%w: expected %d picks, got %d", ErrInvalidResponse, len(pairs.Pairs), len(p.Picks))
		}
		for i, pick := range p.Picks {
			if pick != "a" && pick != "b" {
				return fmt.Errorf("%w: pick %d must be \"a\" or \"b\"", ErrInvalidResponse, i)
			}
		}
	case MissionRanking:
		if m.Content.Ranking == nil {
			return fmt.Errorf("%w: mission has no ranking content", ErrInvalidResponse)
		}
		items := m.Content.Ranking.Items
		if len(p.Ranking) != len(items) {
			return fmt.Errorf("%w: ranking must order all %d items", ErrInvalidResponse, len(items))
		}
		seen := make(map[string]bool, len(items))
		for _, it := range items {
			seen[it] = false
		}
		for _, r := range p.Ranking {
			used, ok := seen[r]
			if !ok {
				return fmt.Errorf("%w: unknown item %q", ErrInvalidResponse, r)
			}
			if used {
				return fmt.Errorf("%w: duplicate item %q", ErrInvalidResponse, r)
			}
			seen[r] = true
		}
	default:
		return fmt.Errorf("%w: unknown mission type %q", ErrInvalidResponse, m.Type)
	}
	return nil
}
