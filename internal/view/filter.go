// Package view holds pure helpers for assembling post listings: category
// filtering and the category chips shown above the blog index.
package view

import (
	"slices"

	"github.com/inkwellapp/inkwell/internal/model"
)

// AllCategories is the pseudo-category that disables filtering.
const AllCategories = "All"

// FilterByCategory returns the subset of posts whose category list contains
// the selected category, preserving the input order. Selecting "All" (any
// case for the leading letter) returns the input unchanged.
func FilterByCategory(posts []*model.Post, selected string) []*model.Post {
	if selected == "" || selected == AllCategories || selected == "all" {
		return posts
	}

	filtered := make([]*model.Post, 0, len(posts))
	for _, post := range posts {
		if post.Category.Contains(selected) {
			filtered = append(filtered, post)
		}
	}
	return filtered
}

// CategoryChips builds the filter bar entries: "All" first, then the known
// category order, then any extra categories found in the posts.
func CategoryChips(posts []*model.Post) []string {
	seen := make(map[string]bool)
	for _, post := range posts {
		for _, c := range post.Category {
			seen[c] = true
		}
	}

	chips := []string{AllCategories}
	for _, c := range model.KnownCategories {
		if seen[c] {
			chips = append(chips, c)
			delete(seen, c)
		}
	}

	extras := make([]string, 0, len(seen))
	for c := range seen {
		extras = append(extras, c)
	}
	slices.Sort(extras)
	return append(chips, extras...)
}

// PublishedOnly drops drafts from a listing, preserving order.
func PublishedOnly(posts []*model.Post) []*model.Post {
	published := make([]*model.Post, 0, len(posts))
	for _, post := range posts {
		if post.Status != model.StatusDraft {
			published = append(published, post)
		}
	}
	return published
}
