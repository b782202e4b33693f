package dto

import (
	"github.com/yigit/studygraph/internal/app/models"
	"github.com/yigit/studygraph/internal/pkg/schedule"
)

// UploadResponse reports the outcome of a schedule upload
type UploadResponse struct {
	Courses  []models.Course      `json:"courses"`
	Statuses []schedule.RowStatus `json:"statuses"`
	FileName string               `json:"fileName,omitempty"`
	FileURL  string               `json:"fileUrl,omitempty"`
}

// CourseListResponse lists the stored courses of the current user
type CourseListResponse struct {
	Courses []models.Course `json:"courses"`
}
