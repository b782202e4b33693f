package matching

import (
	"sync"

	"github.com/yigit/studygraph/internal/app/models"
)

// Memo caches ComputeMatches results per user for one snapshot version.
// A lookup with a different version recomputes, so results never outlive the
// snapshot they were computed from.
type Memo struct {
	mu      sync.Mutex
	version uint64
	results map[string][]models.MatchResult
}

// NewMemo creates an empty Memo
func NewMemo() *Memo {
	return &Memo{results: make(map[string][]models.MatchResult)}
}

// Matches returns the ranked matches of userKey against courseMap, which must
// be the snapshot identified by version.
func (m *Memo) Matches(userKey string, version uint64, courseMap *CourseMap) []models.MatchResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	if version != m.version {
		m.version = version
		m.results = make(map[string][]models.MatchResult)
	}
	if cached, ok := m.results[userKey]; ok {
		return cached
	}

	result := ComputeMatches(userKey, courseMap)
	m.results[userKey] = result
	return result
}
