package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yigit/studygraph/internal/app/models/dto"
	"github.com/yigit/studygraph/internal/app/services"
	"github.com/yigit/studygraph/internal/middleware"
	"github.com/yigit/studygraph/internal/pkg/helpers"
)

// ProfileController serves the current profile and the user directory
type ProfileController struct {
	authService *services.AuthService
	feed        *services.ProfileFeed
	logger      zerolog.Logger
}

// NewProfileController creates a new ProfileController
func NewProfileController(authService *services.AuthService, feed *services.ProfileFeed, logger zerolog.Logger) *ProfileController {
	return &ProfileController{authService: authService, feed: feed, logger: logger}
}

// Me returns the current profile
// @Summary Current profile
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 401 {object} dto.ErrorResponse
// @Router /me [get]
func (c *ProfileController) Me(ctx *gin.Context) {
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")))
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewUserResponse(user), ""))
}

// UpdateOrigin sets where the user walks from
// @Summary Update walking origin
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateOriginRequest true "New origin, empty resets to the default"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Router /me/origin [put]
func (c *ProfileController) UpdateOrigin(ctx *gin.Context) {
	var req dto.UpdateOriginRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	user, err := c.authService.UpdateOrigin(ctx.Request.Context(), ctx.GetString(middleware.ContextUserID), req.Origin)
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to update origin")
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewUserResponse(user), "Origin updated"))
}

// Directory lists usernames with their course counts, in registration order
// @Summary User directory
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (1-based)"
// @Param size query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=[]dto.DirectoryEntry,pagination=dto.PaginationInfo}
// @Router /users [get]
func (c *ProfileController) Directory(ctx *gin.Context) {
	snap, err := c.feed.Current(ctx.Request.Context())
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to load profiles")
		middleware.HandleAPIError(ctx, err)
		return
	}

	page, size := helpers.ParsePaginationParams(ctx)
	start, end := helpers.CalculateSliceIndices(page, size, len(snap.Users))

	entries := make([]dto.DirectoryEntry, 0, end-start)
	for _, u := range snap.Users[start:end] {
		entries = append(entries, dto.DirectoryEntry{Username: u.Key(), CourseCount: len(u.Courses)})
	}

	ctx.JSON(http.StatusOK, dto.NewPaginatedResponse(entries, helpers.NewPaginationInfo(int64(len(snap.Users)), page, size)))
}
