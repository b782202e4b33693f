package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yigit/studygraph/internal/app/models/dto"
	"github.com/yigit/studygraph/internal/app/services"
	"github.com/yigit/studygraph/internal/middleware"
)

// FriendController confirms and lists friendships
type FriendController struct {
	friendService     *services.FriendshipService
	suggestionService *services.SuggestionService
	logger            zerolog.Logger
}

// NewFriendController creates a new FriendController
func NewFriendController(friendService *services.FriendshipService, suggestionService *services.SuggestionService, logger zerolog.Logger) *FriendController {
	return &FriendController{friendService: friendService, suggestionService: suggestionService, logger: logger}
}

// List returns the current user's friends
// @Summary List friends
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.FriendsResponse}
// @Router /friends [get]
func (c *FriendController) List(ctx *gin.Context) {
	friends, err := c.friendService.List(ctx.Request.Context(), ctx.GetString(middleware.ContextUserKey))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.FriendsResponse{Friends: friends}, ""))
}

// Add confirms a friendship and selects that user for study suggestions
// @Summary Add a friend
// @Tags friends
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.AddFriendRequest true "Friend to add"
// @Success 200 {object} dto.APIResponse{data=dto.FriendsResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "Unknown user"
// @Router /friends [post]
func (c *FriendController) Add(ctx *gin.Context) {
	var req dto.AddFriendRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")))
		return
	}

	friend, friends, err := c.friendService.Confirm(ctx.Request.Context(), user.Key(), req.Username)
	if err != nil {
		c.logger.Warn().Err(err).Str("friend", req.Username).Msg("Failed to confirm friendship")
		middleware.HandleAPIError(ctx, err)
		return
	}

	if _, err := c.suggestionService.SelectMatch(ctx.Request.Context(), user, friend); err != nil {
		c.logger.Warn().Err(err).Str("friend", friend).Msg("Failed to start suggestions for new friend")
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.FriendsResponse{Friends: friends}, "Friendship confirmed"))
}
