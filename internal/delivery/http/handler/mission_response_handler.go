package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emberapp/ember-backend/internal/domain"
	"github.com/emberapp/ember-backend/internal/usecase/connection"
	"github.com/emberapp/ember-backend/internal/usecase/response"
)

type MissionResponseHandler struct {
	responseUseCase   *response.ResponseUseCase
	connectionUseCase *connection.ConnectionUseCase
}

func NewMissionResponseHandler(responseUseCase *response.ResponseUseCase, connectionUseCase *connection.ConnectionUseCase) *MissionResponseHandler {
	return &MissionResponseHandler{
		responseUseCase:   responseUseCase,
		connectionUseCase: connectionUseCase,
	}
}

// SubmitResponseRequest carries one member's answer to the active mission
type SubmitResponseRequest struct {
	MissionID int                    `json:"mission_id" binding:"required"`
	Payload   domain.ResponsePayload `json:"payload" binding:"required"`
}

// GetCurrentMission returns the mission the pair is working on
// @Summary Get current mission
// @Tags missions
// @Security BearerAuth
// @Produce json
// @Param connection_id path int true "Connection ID"
// @Success 200 {object} domain.Mission
// @Failure 404 {object} ErrorResponse
// @Router /connections/{connection_id}/mission [get]
func (h *MissionResponseHandler) GetCurrentMission(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	connectionID, ok := pathID(c, "connection_id")
	if !ok {
		return
	}

	view, err := h.connectionUseCase.Get(c.Request.Context(), connectionID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if view.CurrentMission == nil {
		respondError(c, domain.ErrMissionNotFound)
		return
	}

	c.JSON(http.StatusOK, view.CurrentMission)
}

// SubmitResponse records the caller's answer; the second answer completes the
// mission and reveals both
// @Summary Submit mission response
// @Tags missions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param connection_id path int true "Connection ID"
// @Param request body SubmitResponseRequest true "Answer"
// @Success 200 {object} response.SubmitResult
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /connections/{connection_id}/mission/response [post]
func (h *MissionResponseHandler) SubmitResponse(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	connectionID, ok := pathID(c, "connection_id")
	if !ok {
		return
	}

	var req SubmitResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.responseUseCase.SubmitResponse(c.Request.Context(), connectionID, req.MissionID, userID, req.Payload)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetResponses returns both revealed answers of a completed mission
// @Summary Get revealed responses
// @Tags missions
// @Security BearerAuth
// @Produce json
// @Param connection_id path int true "Connection ID"
// @Param mission_id query int true "Mission ID"
// @Success 200 {array} domain.MissionResponse
// @Failure 404 {object} ErrorResponse
// @Router /connections/{connection_id}/mission/responses [get]
func (h *MissionResponseHandler) GetResponses(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	connectionID, ok := pathID(c, "connection_id")
	if !ok {
		return
	}
	missionID, ok := queryID(c, "mission_id")
	if !ok {
		return
	}

	responses, err := h.responseUseCase.GetRevealed(c.Request.Context(), connectionID, missionID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"responses": responses})
}
