// Package matching decides when two course records denote the same class
// and ranks other users by how many classes they share with the current user.
package matching

import (
	"strings"

	"github.com/yigit/studygraph/internal/app/models"
)

// Normalize lowercases s and trims surrounding whitespace.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// fieldMatch is true only when both values are present and equal after normalization.
func fieldMatch(a, b string) bool {
	return a != "" && b != "" && Normalize(a) == Normalize(b)
}

// CoursesOverlap reports whether a and b refer to the same class: the same
// name, or the same room together with the same time or professor.
func CoursesOverlap(a, b models.Course) bool {
	nameMatch := fieldMatch(a.CourseName, b.CourseName)
	locationMatch := fieldMatch(a.Location, b.Location)
	professorMatch := fieldMatch(a.Professor, b.Professor)
	timeMatch := fieldMatch(a.Time, b.Time)

	return nameMatch ||
		(locationMatch && timeMatch) ||
		(nameMatch && professorMatch) ||
		(locationMatch && professorMatch)
}

// FindSharedCourses returns, in the order of current, every course that has an
// equivalent in other. Each entry carries the first equivalent found in other;
// later candidates are never considered.
func FindSharedCourses(current, other []models.Course) []models.SharedCourse {
	shared := make([]models.SharedCourse, 0)
	for _, course := range current {
		for _, candidate := range other {
			if CoursesOverlap(course, candidate) {
				shared = append(shared, models.SharedCourse{Course: course, MatchedCourse: candidate})
				break
			}
		}
	}
	return shared
}
