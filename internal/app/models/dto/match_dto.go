package dto

import (
	"encoding/json"

	"github.com/yigit/studygraph/internal/app/models"
)

// MatchListResponse lists ranked matches of the current user
type MatchListResponse struct {
	Matches []models.MatchResult `json:"matches"`
}

// AddFriendRequest confirms a friendship
type AddFriendRequest struct {
	Username string `json:"username" binding:"required" example:"rahul"`
}

// FriendsResponse lists friend keys of the current user
type FriendsResponse struct {
	Friends []string `json:"friends"`
}

// SelectRequest picks a match to plan study spaces with. SharedCourses is
// kept raw so an absent or non-array value can be told apart from an empty list.
type SelectRequest struct {
	Username      string          `json:"username" example:"rahul"`
	SharedCourses json.RawMessage `json:"sharedCourses" swaggertype:"array,object"`
}

// Courses decodes SharedCourses. It returns nil when the field is missing,
// null or not an array of courses.
func (r SelectRequest) Courses() []models.SharedCourse {
	if len(r.SharedCourses) == 0 {
		return nil
	}
	var courses []models.SharedCourse
	if err := json.Unmarshal(r.SharedCourses, &courses); err != nil || courses == nil {
		return nil
	}
	return courses
}

// PreviewRequest runs the suggestion pipeline for arbitrary courses
type PreviewRequest struct {
	Courses []models.Course `json:"courses" binding:"required"`
	Origin  string          `json:"origin" example:"Purdue Memorial Union, West Lafayette, IN"`
}

// SuggestionListResponse carries the result of a preview run
type SuggestionListResponse struct {
	Suggestions []models.StudySuggestion `json:"suggestions"`
}
