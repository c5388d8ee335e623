package handler

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/emberapp/ember-backend/internal/usecase/connection"
	"github.com/emberapp/ember-backend/internal/usecase/voting"
)

type ConnectionHandler struct {
	connectionUseCase *connection.ConnectionUseCase
	votingUseCase     *voting.VotingUseCase
}

func NewConnectionHandler(connectionUseCase *connection.ConnectionUseCase, votingUseCase *voting.VotingUseCase) *ConnectionHandler {
	return &ConnectionHandler{
		connectionUseCase: connectionUseCase,
		votingUseCase:     votingUseCase,
	}
}

// CreateConnectionRequest represents a connection request
type CreateConnectionRequest struct {
	TargetUserID int `json:"target_user_id" binding:"required"`
}

// CreateConnection sends a connection request to another member
// @Summary Request connection
// @Tags connections
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body CreateConnectionRequest true "Target user"
// @Success 201 {object} domain.Connection
// @Failure 409 {object} ErrorResponse
// @Router /connections [post]
func (h *ConnectionHandler) CreateConnection(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CreateConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	conn, err := h.connectionUseCase.Request(c.Request.Context(), userID, req.TargetUserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, conn)
}

// ListConnections lists the caller's connections
// @Summary List connections
// @Tags connections
// @Security BearerAuth
// @Produce json
// @Success 200 {array} connection.ConnectionView
// @Router /connections [get]
func (h *ConnectionHandler) ListConnections(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	views, err := h.connectionUseCase.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"connections": views})
}

// GetConnection returns one connection with its counterpart and active mission
// @Summary Get connection
// @Tags connections
// @Security BearerAuth
// @Produce json
// @Param connection_id path int true "Connection ID"
// @Success 200 {object} connection.ConnectionView
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /connections/{connection_id} [get]
func (h *ConnectionHandler) GetConnection(c *gin.Context) {
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

	c.JSON(http.StatusOK, view)
}

// AcceptConnection activates a pending connection and opens the first voting
// round
// @Summary Accept connection
// @Tags connections
// @Security BearerAuth
// @Produce json
// @Param connection_id path int true "Connection ID"
// @Success 200 {object} domain.Connection
// @Failure 409 {object} ErrorResponse
// @Router /connections/{connection_id}/accept [post]
func (h *ConnectionHandler) AcceptConnection(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	connectionID, ok := pathID(c, "connection_id")
	if !ok {
		return
	}

	conn, err := h.connectionUseCase.Accept(c.Request.Context(), connectionID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	// The first round opens with the connection. A failure here is not fatal:
	// the expiry worker and the next submit both retry round scheduling.
	if _, err := h.votingUseCase.StartRound(c.Request.Context(), connectionID); err != nil {
		log.Printf("connection: first round for %d not started: %v", connectionID, err)
	}

	c.JSON(http.StatusOK, conn)
}

// DeclineConnection declines a pending connection
// @Summary Decline connection
// @Tags connections
// @Security BearerAuth
// @Produce json
// @Param connection_id path int true "Connection ID"
// @Success 200 {object} SuccessResponse
// @Failure 409 {object} ErrorResponse
// @Router /connections/{connection_id}/decline [post]
func (h *ConnectionHandler) DeclineConnection(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	connectionID, ok := pathID(c, "connection_id")
	if !ok {
		return
	}

	if err := h.connectionUseCase.Decline(c.Request.Context(), connectionID, userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "connection declined"})
}

// EndConnection ends a connection
// @Summary End connection
// @Tags connections
// @Security BearerAuth
// @Produce json
// @Param connection_id path int true "Connection ID"
// @Success 200 {object} SuccessResponse
// @Failure 409 {object} ErrorResponse
// @Router /connections/{connection_id}/end [post]
func (h *ConnectionHandler) EndConnection(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	connectionID, ok := pathID(c, "connection_id")
	if !ok {
		return
	}

	if err := h.connectionUseCase.End(c.Request.Context(), connectionID, userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "connection ended"})
}

func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + name})
		return 0, false
	}
	return id, true
}

func queryID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Query(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + name})
		return 0, false
	}
	return id, true
}
