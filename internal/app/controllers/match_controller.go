package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yigit/studygraph/internal/app/models/dto"
	"github.com/yigit/studygraph/internal/app/services"
	"github.com/yigit/studygraph/internal/middleware"
)

// MatchController serves ranked matches
type MatchController struct {
	matchService *services.MatchService
	logger       zerolog.Logger
}

// NewMatchController creates a new MatchController
func NewMatchController(matchService *services.MatchService, logger zerolog.Logger) *MatchController {
	return &MatchController{matchService: matchService, logger: logger}
}

// List returns users sharing courses with the current user, most shared first
// @Summary Ranked matches
// @Tags matches
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.MatchListResponse}
// @Router /matches [get]
func (c *MatchController) List(ctx *gin.Context) {
	matches, err := c.matchService.Matches(ctx.Request.Context(), ctx.GetString(middleware.ContextUserKey))
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to compute matches")
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.MatchListResponse{Matches: matches}, ""))
}
