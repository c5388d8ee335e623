package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// VoteOption is one candidate mission in a voting round. Position is the
// catalog order of the option within the round and breaks ties as a last
// resort.
type VoteOption struct {
	MissionID        int    `json:"mission_id"`
	Title            string `json:"title"`
	Category         string `json:"category"`
	Points           int    `json:"points"`
	Position         int    `json:"position"`
	IsMainInterest   bool   `json:"is_main_interest"`
	IsSharedInterest bool   `json:"is_shared_interest"`
}

type VoteOptionList []VoteOption

func (l VoteOptionList) Value() (driver.Value, error) {
	return json.Marshal(l)
}

func (l *VoteOptionList) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	case nil:
		*l = nil
		return nil
	default:
		return fmt.Errorf("unsupported type for vote options: %T", src)
	}
}

// VoteMap maps a user id to the mission id they voted for.
type VoteMap map[int]int

func (m VoteMap) Value() (driver.Value, error) {
	if m == nil {
		m = VoteMap{}
	}
	return json.Marshal(m)
}

func (m *VoteMap) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	case nil:
		*m = VoteMap{}
		return nil
	default:
		return fmt.Errorf("unsupported type for votes: %T", src)
	}
}

// VotingRound is the ephemeral dual-vote decision process selecting the next
// mission for a connection. A round resolves exactly once; a cancelled round
// is resolved with a nil mission.
type VotingRound struct {
	ID                uuid.UUID      `json:"id" db:"id"`
	ConnectionID      int            `json:"connection_id" db:"connection_id"`
	Options           VoteOptionList `json:"options" db:"options"`
	Votes             VoteMap        `json:"votes" db:"votes"`
	VotingEndsAt      time.Time      `json:"voting_ends_at" db:"voting_ends_at"`
	Resolved          bool           `json:"resolved" db:"resolved"`
	ResolvedMissionID *int           `json:"resolved_mission_id" db:"resolved_mission_id"`
	Reopened          bool           `json:"reopened" db:"reopened"`
	CreatedAt         time.Time      `json:"created_at" db:"created_at"`
}

func (r *VotingRound) Option(missionID int) (VoteOption, bool) {
	for _, opt := range r.Options {
		if opt.MissionID == missionID {
			return opt, true
		}
	}
	return VoteOption{}, false
}

// WinningOption picks the mission for a set of votes: most votes first, ties
// broken by the shared-interest flag, then by option position. Returns false
// when there are no votes at all.
func WinningOption(options VoteOptionList, votes VoteMap) (int, bool) {
	if len(votes) == 0 {
		return 0, false
	}
	counts := make(map[int]int, len(votes))
	for _, missionID := range votes {
		counts[missionID]++
	}
	best := -1
	var winner VoteOption
	for _, opt := range options {
		n := counts[opt.MissionID]
		if n == 0 {
			continue
		}
		if n > best || (n == best && betterTieBreak(opt, winner)) {
			best = n
			winner = opt
		}
	}
	if best < 0 {
		return 0, false
	}
	return winner.MissionID, true
}

// betterTieBreak reports whether a beats b at equal vote counts.
func betterTieBreak(a, b VoteOption) bool {
	if a.IsSharedInterest != b.IsSharedInterest {
		return a.IsSharedInterest
	}
	return a.Position < b.Position
}

// DefaultOption is the fallback mission for a round that expired without
// enough votes: the option matching the pair's main shared interest if one is
// flagged, otherwise the first option.
func DefaultOption(options VoteOptionList) (int, bool) {
	if len(options) == 0 {
		return 0, false
	}
	for _, opt := range options {
		if opt.IsMainInterest {
			return opt.MissionID, true
		}
	}
	return options[0].MissionID, true
}
