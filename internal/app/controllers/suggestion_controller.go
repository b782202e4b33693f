package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yigit/studygraph/internal/app/models/dto"
	"github.com/yigit/studygraph/internal/app/services"
	"github.com/yigit/studygraph/internal/middleware"
)

// SuggestionController runs the study suggestion pipeline
type SuggestionController struct {
	suggestionService *services.SuggestionService
	logger            zerolog.Logger
}

// NewSuggestionController creates a new SuggestionController
func NewSuggestionController(suggestionService *services.SuggestionService, logger zerolog.Logger) *SuggestionController {
	return &SuggestionController{suggestionService: suggestionService, logger: logger}
}

// Select picks a match to plan study spaces with. Payloads without a
// username or a sharedCourses array are ignored and the current state is
// returned unchanged.
// @Summary Select a match for study suggestions
// @Tags suggestions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SelectRequest true "Selected match"
// @Success 202 {object} dto.APIResponse{data=planner.State}
// @Router /suggestions/select [post]
func (c *SuggestionController) Select(ctx *gin.Context) {
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")))
		return
	}

	var req dto.SelectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Debug().Err(err).Msg("Unreadable selection payload")
	}

	state, accepted := c.suggestionService.Select(user, services.Selection{
		Username:      req.Username,
		SharedCourses: req.Courses(),
	})

	message := "Selection accepted"
	if !accepted {
		message = "Selection ignored"
	}
	ctx.JSON(http.StatusAccepted, dto.NewSuccessResponse(state, message))
}

// State returns the current suggestion state
// @Summary Current study suggestions
// @Tags suggestions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=planner.State}
// @Router /suggestions [get]
func (c *SuggestionController) State(ctx *gin.Context) {
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")))
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(c.suggestionService.State(user), ""))
}

// Preview runs the pipeline synchronously for the given courses
// @Summary Preview study suggestions
// @Tags suggestions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.PreviewRequest true "Courses and origin"
// @Success 200 {object} dto.APIResponse{data=dto.SuggestionListResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Router /suggestions/preview [post]
func (c *SuggestionController) Preview(ctx *gin.Context) {
	var req dto.PreviewRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	origin := req.Origin
	if origin == "" {
		if user, ok := middleware.CurrentUser(ctx); ok {
			origin = user.Origin
		}
	}

	suggestions, err := c.suggestionService.Preview(ctx.Request.Context(), req.Courses, origin)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Suggestion preview failed")
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SuggestionListResponse{Suggestions: suggestions}, ""))
}
