package models

// Course is one enrolled class of one user, as produced by schedule ingestion.
// Absent text fields are stored as empty strings, never null.
type Course struct {
	ID         string `json:"id" bson:"id" db:"id" example:"cs180-amelia"`
	CourseName string `json:"courseName" bson:"courseName" db:"course_name" example:"CS 18000 - Problem Solving and Object-Oriented Programming"`
	Professor  string `json:"professor" bson:"professor" db:"professor" example:"Prof. Li"`
	Location   string `json:"location" bson:"location" db:"location" example:"Lawson 1142"`
	Time       string `json:"time" bson:"time" db:"time_slot" example:"MWF · 10:30a-11:20a"`
}

// SharedCourse is a course of the current user paired with the equivalent
// course found in another user's schedule.
type SharedCourse struct {
	Course
	MatchedCourse Course `json:"matchedCourse"`
}

// CourseIDs returns the ids of the given shared courses in order.
func CourseIDs(courses []SharedCourse) []string {
	ids := make([]string, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
	}
	return ids
}
