package repository

import (
	"context"

	"github.com/emberapp/ember-backend/internal/domain"
)

type ResponseRepository interface {
	Create(ctx context.Context, response *domain.MissionResponse) error
	GetByUser(ctx context.Context, connectionID, missionID, userID int) (*domain.MissionResponse, error)
	ListByMission(ctx context.Context, connectionID, missionID int) ([]*domain.MissionResponse, error)
	// CreateCompletion records a mission completion exactly once per
	// (connection, mission). Returns true only for the call that inserted it.
	CreateCompletion(ctx context.Context, completion *domain.MissionCompletion) (bool, error)
	IsCompleted(ctx context.Context, connectionID, missionID int) (bool, error)
	CompletedMissionIDs(ctx context.Context, connectionID int) ([]int, error)
}
