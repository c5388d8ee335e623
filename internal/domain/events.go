package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event types published to clients.
const (
	EventConnectionRequested = "connection.requested"
	EventConnectionAccepted  = "connection.accepted"
	EventConnectionEnded     = "connection.ended"
	EventRoundStarted        = "round.started"
	EventRoundResolved       = "round.resolved"
	EventBothResponded       = "mission.both_responded"
	EventChatUnlocked        = "chat.unlocked"
)

// Event is a fact about a connection delivered to both members.
type Event struct {
	ID           uuid.UUID   `json:"id"`
	Type         string      `json:"type"`
	ConnectionID int         `json:"connection_id"`
	UserIDs      []int       `json:"user_ids"`
	Payload      interface{} `json:"payload,omitempty"`
	OccurredAt   time.Time   `json:"occurred_at"`
}

func NewEvent(eventType string, conn *Connection, payload interface{}) Event {
	return Event{
		ID:           uuid.New(),
		Type:         eventType,
		ConnectionID: conn.ID,
		UserIDs:      []int{conn.UserAID, conn.UserBID},
		Payload:      payload,
		OccurredAt:   time.Now().UTC(),
	}
}

// RoundResolvedPayload accompanies EventRoundResolved.
type RoundResolvedPayload struct {
	RoundID   uuid.UUID `json:"round_id"`
	MissionID *int      `json:"mission_id"`
}

// BothRespondedPayload carries both answers so the client can render the
// comparison view.
type BothRespondedPayload struct {
	MissionID     int               `json:"mission_id"`
	Responses     []MissionResponse `json:"responses"`
	PointsAwarded int               `json:"points_awarded"`
}

// ChatUnlockedPayload accompanies EventChatUnlocked. Icebreakers are optional
// AI-generated conversation starters.
type ChatUnlockedPayload struct {
	Progress    int      `json:"progress"`
	Icebreakers []string `json:"icebreakers,omitempty"`
}
