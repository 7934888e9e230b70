package news

import "strings"

// Matcher selects articles whose text contains every query term.
type Matcher struct {
	terms []string
}

// NewMatcher splits query into lowercase terms.
func NewMatcher(query string) *Matcher {
	fields := strings.Fields(strings.ToLower(query))
	return &Matcher{terms: fields}
}

// Empty reports whether the query had no terms.
func (m *Matcher) Empty() bool {
	return len(m.terms) == 0
}

// Matches returns true if the article's title or description contains all terms.
func (m *Matcher) Matches(a Article) bool {
	if m.Empty() {
		return false
	}
	lower := strings.ToLower(a.Title + " " + a.Description)
	for _, t := range m.terms {
		if !strings.Contains(lower, t) {
			return false
		}
	}
	return true
}

// Filter keeps matching articles, dropping duplicate links.
func (m *Matcher) Filter(articles []Article) []Article {
	seen := make(map[string]bool)
	var out []Article
	for _, a := range articles {
		if !m.Matches(a) || seen[a.Link] {
			continue
		}
		seen[a.Link] = true
		out = append(out, a)
	}
	return out
}
