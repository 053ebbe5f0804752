package feed

import (
	"sort"

	"whatsgood/internal/core"
)

// FilterOptions is the derived option space the filter bar offers. It
// characterizes the data, not the current selection, so applying a filter
// never collapses its own choices.
type FilterOptions struct {
	Brands    []string       `json:"brands"`
	Tags      []string       `json:"tags"`
	TagCounts map[string]int `json:"tagCounts,omitempty"`
}

// DeriveOptions computes the distinct brands and tags present in the post
// set. Brands keep first-seen order; tags are sorted descending by
// frequency, ties broken by first-seen order. Recomputed once per post-set
// update, not per filter change.
func DeriveOptions(posts []core.Post) FilterOptions {
	options := FilterOptions{
		Brands:    []string{},
		Tags:      []string{},
		TagCounts: map[string]int{},
	}

	seenBrand := map[string]bool{}
	tagOrder := map[string]int{}

	for _, post := range posts {
		if post.Brand != "" && !seenBrand[post.Brand] {
			seenBrand[post.Brand] = true
			options.Brands = append(options.Brands, post.Brand)
		}

		for _, tag := range post.Tags {
			if tag == "" {
				continue
			}
			if _, ok := tagOrder[tag]; !ok {
				tagOrder[tag] = len(tagOrder)
				options.Tags = append(options.Tags, tag)
			}
			options.TagCounts[tag]++
		}
	}

	sort.SliceStable(options.Tags, func(i, j int) bool {
		ti, tj := options.Tags[i], options.Tags[j]
		if options.TagCounts[ti] != options.TagCounts[tj] {
			return options.TagCounts[ti] > options.TagCounts[tj]
		}
		return tagOrder[ti] < tagOrder[tj]
	})

	return options
}
