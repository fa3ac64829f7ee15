package cleaner

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Cleaner sanitizes search terms before they are sent to job boards
type Cleaner struct {
	policy *bluemonday.Policy
}

// NewCleaner creates a cleaner that strips all HTML
func NewCleaner() *Cleaner {
	return &Cleaner{policy: bluemonday.StrictPolicy()}
}

// CleanTerm removes markup and collapses whitespace.
// Entities escaped by the sanitizer are decoded again so "C++" or "R&D" survive.
func (c *Cleaner) CleanTerm(term string) string {
	text := html.UnescapeString(c.policy.Sanitize(term))
	return strings.Join(strings.Fields(text), " ")
}

// CleanTerms cleans every term, dropping empty results and repeats.
// Order of first appearance is kept.
func (c *Cleaner) CleanTerms(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		cleaned := c.CleanTerm(t)
		if cleaned == "" {
			continue
		}
		if _, dup := seen[cleaned]; dup {
			continue
		}
		seen[cleaned] = struct{}{}
		out = append(out, cleaned)
	}
	return out
}
