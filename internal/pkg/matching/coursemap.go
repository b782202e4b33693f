package matching

import "github.com/yigit/studygraph/internal/app/models"

// CourseMap maps user keys to their course lists and remembers the order in
// which keys were first set. Setting an existing key replaces its courses but
// keeps its position.
type CourseMap struct {
	keys    []string
	courses map[string][]models.Course
}

// NewCourseMap creates an empty CourseMap
func NewCourseMap() *CourseMap {
	return &CourseMap{courses: make(map[string][]models.Course)}
}

// Set stores the courses for key
func (m *CourseMap) Set(key string, courses []models.Course) {
	if _, ok := m.courses[key]; !ok {
		m.keys = append(m.keys, key)
	}
	if courses == nil {
		courses = []models.Course{}
	}
	m.courses[key] = courses
}

// Get returns the courses stored for key
func (m *CourseMap) Get(key string) ([]models.Course, bool) {
	if m == nil {
		return nil, false
	}
	courses, ok := m.courses[key]
	return courses, ok
}

// Keys returns the user keys in insertion order
func (m *CourseMap) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of users in the map
func (m *CourseMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// CourseMapFromUsers builds a CourseMap keyed by each user's match key, in the given order.
func CourseMapFromUsers(users []*models.User) *CourseMap {
	m := NewCourseMap()
	for _, u := range users {
		if u == nil {
			continue
		}
		m.Set(u.Key(), u.Courses)
	}
	return m
}
