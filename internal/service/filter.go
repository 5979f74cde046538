package service

import (
	"strings"

	"github.com/safestreets/safemap/internal/models"
)

// FilterIncidents returns the incidents matching both the category predicate
// and the free-text predicate, preserving input order. An empty category set
// matches all types; an empty query matches everything.
func FilterIncidents(incidents []*models.Incident, selectedTypes []string, query string) []*models.Incident {
	out := make([]*models.Incident, 0, len(incidents))
	for _, inc := range incidents {
		if matchesType(inc, selectedTypes) && matchesQuery(inc, query) {
			out = append(out, inc)
		}
	}
	return out
}

func matchesType(inc *models.Incident, selectedTypes []string) bool {
	if len(selectedTypes) == 0 {
		return true
	}
	for _, t := range selectedTypes {
		if inc.Type == t {
			return true
		}
	}
	return false
}

func matchesQuery(inc *models.Incident, query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(inc.Location), q) ||
		strings.Contains(strings.ToLower(inc.Description), q) ||
		strings.Contains(strings.ToLower(inc.Postcode), q)
}

// CountByType counts the incidents of a single category. Counts are always
// taken over the full, unfiltered list so badge counts do not shift with the
// active filter or search.
func CountByType(incidents []*models.Incident, category string) int {
	n := 0
	for _, inc := range incidents {
		if inc.Type == category {
			n++
		}
	}
	return n
}

// CountsByType returns the per-category counts over the full list, with an
// entry for every known category, including zero counts.
func CountsByType(incidents []*models.Incident) map[string]int {
	counts := make(map[string]int, len(models.Categories))
	for _, c := range models.Categories {
		counts[c] = 0
	}
	for _, inc := range incidents {
		counts[inc.Type]++
	}
	return counts
}
