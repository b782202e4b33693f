package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yigit/studygraph/internal/app/models/dto"
	"github.com/yigit/studygraph/internal/app/services"
	"github.com/yigit/studygraph/internal/middleware"
)

// CourseController handles schedule uploads
type CourseController struct {
	courseService *services.CourseService
	logger        zerolog.Logger
}

// NewCourseController creates a new CourseController
func NewCourseController(courseService *services.CourseService, logger zerolog.Logger) *CourseController {
	return &CourseController{courseService: courseService, logger: logger}
}

// Upload replaces the current user's courses with a CSV schedule
// @Summary Upload a schedule CSV
// @Description Parses the CSV, stores a copy and replaces the course list with the rows that parsed.
// @Tags courses
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Schedule CSV"
// @Success 200 {object} dto.APIResponse{data=dto.UploadResponse}
// @Failure 400 {object} dto.ErrorResponse "File missing"
// @Failure 413 {object} dto.ErrorResponse "File too large"
// @Failure 422 {object} dto.ErrorResponse "No valid course rows"
// @Router /courses/upload [post]
func (c *CourseController) Upload(ctx *gin.Context) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "A CSV file is required.").WithField("file")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to open uploaded file")
		middleware.HandleAPIError(ctx, err)
		return
	}
	defer file.Close()

	userID := ctx.GetString(middleware.ContextUserID)
	res, err := c.courseService.Upload(ctx.Request.Context(), userID, fileHeader.Filename, file)
	if err != nil {
		c.logger.Warn().Err(err).Str("userId", userID).Msg("Schedule upload rejected")
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp := dto.UploadResponse{Courses: res.Courses, Statuses: res.Statuses}
	if res.Attachment != nil {
		resp.FileName = res.Attachment.FileName
		resp.FileURL = res.Attachment.URL
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, "Schedule uploaded"))
}

// List returns the current user's courses
// @Summary List my courses
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.CourseListResponse}
// @Router /courses [get]
func (c *CourseController) List(ctx *gin.Context) {
	courses, err := c.courseService.List(ctx.Request.Context(), ctx.GetString(middleware.ContextUserID))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.CourseListResponse{Courses: courses}, ""))
}
