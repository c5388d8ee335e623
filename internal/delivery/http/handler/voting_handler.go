package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/emberapp/ember-backend/internal/usecase/voting"
)

type VotingHandler struct {
	votingUseCase *voting.VotingUseCase
}

func NewVotingHandler(votingUseCase *voting.VotingUseCase) *VotingHandler {
	return &VotingHandler{
		votingUseCase: votingUseCase,
	}
}

// CastVoteRequest represents one member's vote
type CastVoteRequest struct {
	RoundID   string `json:"round_id" binding:"required,uuid"`
	MissionID int    `json:"mission_id" binding:"required"`
}

// GetRound returns the open voting round as seen by the caller
// @Summary Get active round
// @Tags voting
// @Security BearerAuth
// @Produce json
// @Param connection_id path int true "Connection ID"
// @Success 200 {object} voting.RoundView
// @Failure 404 {object} ErrorResponse
// @Router /connections/{connection_id}/round [get]
func (h *VotingHandler) GetRound(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	connectionID, ok := pathID(c, "connection_id")
	if !ok {
		return
	}

	view, err := h.votingUseCase.GetActive(c.Request.Context(), connectionID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// StartRound opens a voting round when none is active
// @Summary Start round
// @Tags voting
// @Security BearerAuth
// @Produce json
// @Param connection_id path int true "Connection ID"
// @Success 201 {object} domain.VotingRound
// @Failure 409 {object} ErrorResponse
// @Router /connections/{connection_id}/round [post]
func (h *VotingHandler) StartRound(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	connectionID, ok := pathID(c, "connection_id")
	if !ok {
		return
	}

	round, err := h.votingUseCase.StartRoundFor(c.Request.Context(), connectionID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if round == nil {
		c.JSON(http.StatusOK, SuccessResponse{Message: "journey complete, nothing left to vote on"})
		return
	}

	c.JSON(http.StatusCreated, round)
}

// CastVote records the caller's vote
// @Summary Cast vote
// @Tags voting
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param connection_id path int true "Connection ID"
// @Param request body CastVoteRequest true "Vote"
// @Success 200 {object} domain.VotingRound
// @Failure 409 {object} ErrorResponse
// @Router /connections/{connection_id}/round/vote [post]
func (h *VotingHandler) CastVote(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CastVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	roundID, err := uuid.Parse(req.RoundID)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid round id"})
		return
	}

	round, err := h.votingUseCase.CastVote(c.Request.Context(), roundID, userID, req.MissionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, round)
}
