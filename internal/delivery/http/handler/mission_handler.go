package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/emberapp/ember-backend/internal/domain"
	"github.com/emberapp/ember-backend/internal/usecase/catalog"
)

type MissionHandler struct {
	catalogUseCase *catalog.CatalogUseCase
}

func NewMissionHandler(catalogUseCase *catalog.CatalogUseCase) *MissionHandler {
	return &MissionHandler{
		catalogUseCase: catalogUseCase,
	}
}

// ListMissions lists the mission catalog, optionally filtered
// @Summary List missions
// @Tags missions
// @Produce json
// @Param category query string false "Interest category"
// @Param type query string false "Mission type"
// @Success 200 {array} domain.Mission
// @Router /missions [get]
func (h *MissionHandler) ListMissions(c *gin.Context) {
	category := c.Query("category")
	missionType := domain.MissionType(c.Query("type"))

	missions, err := h.catalogUseCase.List(c.Request.Context(), category, missionType)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"missions": missions})
}

// GetMission returns a single mission template
// @Summary Get mission
// @Tags missions
// @Produce json
// @Param mission_id path int true "Mission ID"
// @Success 200 {object} domain.Mission
// @Failure 404 {object} ErrorResponse
// @Router /missions/{mission_id} [get]
func (h *MissionHandler) GetMission(c *gin.Context) {
	missionID, err := strconv.Atoi(c.Param("mission_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid mission id"})
		return
	}

	mission, err := h.catalogUseCase.Get(c.Request.Context(), missionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, mission)
}
