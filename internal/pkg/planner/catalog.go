package planner

// candidate is one study space proposed for a course
type candidate struct {
	LocationName string
	Pros         []string
	Anchor       string
	Context      string
}

// mockPicks is how many catalog entries the mock returns per course
const mockPicks = 3

// catalog lists the study spaces offered when no AI answer is available
var catalog = []candidate{
	{
		LocationName: "Hicks Undergraduate Library",
		Pros:         []string{"24/7 access", "Group study rooms", "Whiteboard walls"},
		Anchor:       "Hicks Undergraduate Library, West Lafayette, IN",
	},
	{
		LocationName: "Wilmeth Active Learning Center (WALC)",
		Pros:         []string{"Reservable huddle rooms", "Built-in power at every seat", "Cafe on level 1"},
		Anchor:       "Wilmeth Active Learning Center, West Lafayette, IN",
	},
	{
		LocationName: "Krach Leadership Center",
		Pros:         []string{"Large tables for teams", "Late hours", "Nearby dining options"},
		Anchor:       "Krach Leadership Center, West Lafayette, IN",
	},
	{
		LocationName: "Honors College & Residences Study Lounges",
		Pros:         []string{"Natural lighting", "Quiet zones and collaboration pods"},
		Anchor:       "1101 3rd Street, West Lafayette, IN",
	},
}

// CatalogNames returns the names of the built-in study spaces
func CatalogNames() []string {
	names := make([]string, len(catalog))
	for i, c := range catalog {
		names[i] = c.LocationName
	}
	return names
}
