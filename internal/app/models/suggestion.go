package models

// StudySuggestion is one ranked study space for one shared course
type StudySuggestion struct {
	ID             string   `json:"id"`
	CourseName     string   `json:"courseName"`
	ClassLocation  string   `json:"classLocation"`
	LocationName   string   `json:"locationName"`
	Pros           []string `json:"pros"`
	DistanceText   string   `json:"distanceText"`
	MapsURL        string   `json:"mapsUrl"`
	DistanceSource string   `json:"distanceSource"`
	CourseContext  string   `json:"courseContext"`
}

// MatchResult is another user sharing at least one course with the current user
type MatchResult struct {
	Username      string         `json:"username"`
	SharedCourses []SharedCourse `json:"sharedCourses"`
	Score         int            `json:"score"`
}
