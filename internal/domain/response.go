package domain

import "time"

// MissionResponse is one member's answer to the active mission of a
// connection. Immutable after submission; at most one per
// (mission, connection, user).
type MissionResponse struct {
	ID           int             `json:"id" db:"id"`
	ConnectionID int             `json:"connection_id" db:"connection_id"`
	MissionID    int             `json:"mission_id" db:"mission_id"`
	UserID       int             `json:"user_id" db:"user_id"`
	Payload      ResponsePayload `json:"payload" db:"payload"`
	SubmittedAt  time.Time       `json:"submitted_at" db:"submitted_at"`
}

// MissionCompletion records that a mission has been completed by a connection
// (both members responded) and the points that were awarded for it. The row
// is the exactly-once gate for awarding progress.
type MissionCompletion struct {
	ConnectionID  int       `json:"connection_id" db:"connection_id"`
	MissionID     int       `json:"mission_id" db:"mission_id"`
	PointsAwarded int       `json:"points_awarded" db:"points_awarded"`
	CompletedAt   time.Time `json:"completed_at" db:"completed_at"`
}
