package showcase

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// SortOrder is a gallery sort option.
type SortOrder string

const (
	// SortFeatured puts featured projects first, then projects with
	// screenshots, then the newest.
	SortFeatured     SortOrder = "featured"
	SortNewest       SortOrder = "newest"
	SortUpdated      SortOrder = "updated"
	SortStars        SortOrder = "stars"
	SortAlphabetical SortOrder = "alphabetical"
)

// SortOrders lists the accepted sort options.
var SortOrders = []SortOrder{SortFeatured, SortNewest, SortUpdated, SortStars, SortAlphabetical}

func ParseSortOrder(s string) (SortOrder, error) {
	if s == "" {
		return SortFeatured, nil
	}
	if slices.Contains(SortOrders, SortOrder(s)) {
		return SortOrder(s), nil
	}
	return "", fmt.Errorf("unknown sort order %q", s)
}

// Query selects and orders projects.
type Query struct {
	Search   string
	Category string
	Sort     SortOrder
}

// Matches reports whether p contains search, case-insensitively, in its
// name, summary, description, author name or tags.
func (p Project) Matches(search string) bool {
	if search == "" {
		return true
	}
	s := strings.ToLower(search)
	if strings.Contains(strings.ToLower(p.Name), s) ||
		strings.Contains(strings.ToLower(p.Summary), s) ||
		strings.Contains(strings.ToLower(p.Description), s) ||
		strings.Contains(strings.ToLower(p.Author.Name), s) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), s) {
			return true
		}
	}
	return false
}

// Filter returns the projects matching q in q's order. The input slice is
// not modified.
func Filter(projects []Project, q Query) []Project {
	out := make([]Project, 0, len(projects))
	for _, p := range projects {
		if !p.Matches(q.Search) {
			continue
		}
		if q.Category != "" && !slices.Contains(p.Categories, q.Category) {
			continue
		}
		out = append(out, p)
	}
	slices.SortStableFunc(out, compareFunc(q.Sort))
	return out
}

func compareFunc(order SortOrder) func(a, b Project) int {
	newest := func(a, b Project) int {
		return b.DateAdded.Compare(a.DateAdded.Time)
	}
	switch order {
	case SortNewest:
		return newest
	case SortUpdated:
		return func(a, b Project) int {
			return b.DateUpdated.Compare(a.DateUpdated.Time)
		}
	case SortStars:
		return func(a, b Project) int {
			return b.Stars() - a.Stars()
		}
	case SortAlphabetical:
		return func(a, b Project) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	}
	return func(a, b Project) int {
		if a.Featured != b.Featured {
			if a.Featured {
				return -1
			}
			return 1
		}
		as, bs := len(a.Screenshots) > 0, len(b.Screenshots) > 0
		if as != bs {
			if as {
				return -1
			}
			return 1
		}
		return newest(a, b)
	}
}

// Split separates featured projects from the rest, keeping order.
func Split(projects []Project) (featured, regular []Project) {
	for _, p := range projects {
		if p.Featured {
			featured = append(featured, p)
		} else {
			regular = append(regular, p)
		}
	}
	return featured, regular
}

// Categories returns the distinct categories of projects, sorted.
func Categories(projects []Project) []string {
	set := map[string]bool{}
	for _, p := range projects {
		for _, c := range p.Categories {
			set[c] = true
		}
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
