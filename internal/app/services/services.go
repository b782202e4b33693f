package services

// Services defined in this package:
// - ProfileFeed: loads profile snapshots and pushes them to subscribers
// - AuthService: register-or-sign-in, login and profile updates
// - CourseService: schedule CSV ingestion
// - MatchService: ranked course-overlap matches
// - FriendshipService: friendship ledger
// - SuggestionService: study-space suggestions per user session

// Services holds all service instances
type Services struct {
	Feed        *ProfileFeed
	Auth        *AuthService
	Courses     *CourseService
	Matches     *MatchService
	Friends     *FriendshipService
	Suggestions *SuggestionService
}

// Close releases background resources held by the services
func (s *Services) Close() {
	if s.Suggestions != nil {
		s.Suggestions.Close()
	}
	if s.Matches != nil {
		s.Matches.Close()
	}
}
