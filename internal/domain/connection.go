package domain

import "time"

type ConnectionStatus string

const (
	ConnectionPending ConnectionStatus = "pending"
	ConnectionActive  ConnectionStatus = "active"
	ConnectionEnded   ConnectionStatus = "ended"
)

// Connection is the pairwise relationship between two users. UserAID is always
// the initiator of the original request, UserBID the recipient.
type Connection struct {
	ID               int              `json:"id" db:"id"`
	UserAID          int              `json:"user_a_id" db:"user_a_id"`
	UserBID          int              `json:"user_b_id" db:"user_b_id"`
	Status           ConnectionStatus `json:"status" db:"status"`
	Progress         int              `json:"progress" db:"progress"`
	Temperature      Temperature      `json:"temperature" db:"temperature"`
	ChatUnlocked     bool             `json:"chat_unlocked" db:"chat_unlocked"`
	CurrentMissionID *int             `json:"current_mission_id" db:"current_mission_id"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
	EndedAt          *time.Time       `json:"ended_at" db:"ended_at"`
}

func (c *Connection) HasUser(userID int) bool {
	return c.UserAID == userID || c.UserBID == userID
}

func (c *Connection) OtherUserID(userID int) (int, bool) {
	if c.UserAID == userID {
		return c.UserBID, true
	}
	if c.UserBID == userID {
		return c.UserAID, true
	}
	return 0, false
}

// CanTransition reports whether the status change is allowed by the lifecycle:
// pending -> active, and any non-ended state -> ended. Ended is terminal.
func (c *Connection) CanTransition(to ConnectionStatus) bool {
	if c.Status == ConnectionEnded {
		return false
	}
	switch to {
	case ConnectionActive:
		return c.Status == ConnectionPending
	case ConnectionEnded:
		return true
	default:
		return false
	}
}
