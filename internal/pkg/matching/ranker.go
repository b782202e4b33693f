package matching

import (
	"math"
	"sort"

	"github.com/yigit/studygraph/internal/app/models"
)

// ComputeMatches ranks every other user in courseMap by the number of courses
// they share with currentUserKey. Users without overlap are left out. Ties keep
// the insertion order of courseMap.
func ComputeMatches(currentUserKey string, courseMap *CourseMap) []models.MatchResult {
	matches := make([]models.MatchResult, 0)
	if currentUserKey == "" {
		return matches
	}
	currentCourses, ok := courseMap.Get(currentUserKey)
	if !ok || len(currentCourses) == 0 {
		return matches
	}

	for _, username := range courseMap.Keys() {
		if username == currentUserKey {
			continue
		}
		courses, _ := courseMap.Get(username)
		shared := FindSharedCourses(currentCourses, courses)
		if len(shared) == 0 {
			continue
		}
		matches = append(matches, models.MatchResult{
			Username:      username,
			SharedCourses: shared,
			Score:         score(len(shared), len(currentCourses)),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return len(matches[i].SharedCourses) > len(matches[j].SharedCourses)
	})
	return matches
}

// score rounds half away from zero; shares are never negative so this equals Math.round.
func score(shared, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(shared) / float64(total) * 100))
}
