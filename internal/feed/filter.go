// Package feed implements the feed aggregation and filter pipeline: live
// subscription handling, normalization and enrichment of post records, and
// the composable filter model shared by every feed variant.
package feed

import (
	"strings"

	"github.com/samber/lo"

	"whatsgood/internal/core"
)

// LegacyBrandAll is the sentinel the old single-brand selector used for
// "no restriction".
const LegacyBrandAll = "All"

// FilterState is the ephemeral, session-scoped filter a viewer has applied.
// Empty fields mean no restriction on that clause.
type FilterState struct {
	Query          string   `json:"query,omitempty"`
	SelectedBrands []string `json:"selectedBrands,omitempty"`
	SelectedTags   []string `json:"selectedTags,omitempty"`

	// LegacyBrand is the old single-brand selector. It only applies when
	// SelectedBrands is empty, and the "All" sentinel means unset.
	LegacyBrand string `json:"brand,omitempty"`
}

// Empty reports whether no clause restricts anything.
func (f FilterState) Empty() bool {
	return strings.TrimSpace(f.Query) == "" &&
		len(f.SelectedBrands) == 0 &&
		len(f.SelectedTags) == 0 &&
		len(f.effectiveBrands()) == 0
}

func (f FilterState) effectiveBrands() []string {
	if len(f.SelectedBrands) > 0 {
		return f.SelectedBrands
	}
	if f.LegacyBrand != "" && f.LegacyBrand != LegacyBrandAll {
		return []string{f.LegacyBrand}
	}
	return nil
}

// Matches evaluates one post against the filter. Pure: no I/O, no side
// effects, never panics on absent fields. The three clauses are AND-ed;
// within a clause membership is OR.
func Matches(post core.Post, f FilterState) bool {
	return matchesQuery(post, f.Query) &&
		matchesBrands(post, f.effectiveBrands()) &&
		matchesTags(post, f.SelectedTags)
}

func matchesQuery(post core.Post, query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}

	haystack := strings.ToLower(post.Content + " " + post.AuthorName + " " + post.Title)
	return strings.Contains(haystack, query)
}

func matchesBrands(post core.Post, brands []string) bool {
	if len(brands) == 0 {
		return true
	}
	return lo.Contains(brands, post.Brand)
}

func matchesTags(post core.Post, tags []string) bool {
	if len(tags) == 0 {
		return true
	}
	return len(lo.Intersect(tags, post.Tags)) > 0
}

// ApplyFilter returns the posts matching the filter, preserving order.
func ApplyFilter(posts []core.Post, f FilterState) []core.Post {
	return lo.Filter(posts, func(post core.Post, _ int) bool {
		return Matches(post, f)
	})
}
