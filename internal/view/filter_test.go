package view

import (
	"reflect"
	"testing"

	"github.com/inkwellapp/inkwell/internal/model"
)

func makePosts() []*model.Post {
	return []*model.Post{
		{ID: "1", Title: "First", Category: model.Categories{"Technology"}},
		{ID: "2", Title: "Second", Category: model.Categories{"Design", "Career"}},
		{ID: "3", Title: "Third", Category: model.Categories{"Technology", "Lifestyle"}},
		{ID: "4", Title: "Fourth", Category: nil},
	}
}

func ids(posts []*model.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = string(p.ID)
	}
	return out
}

func TestFilterByCategory(t *testing.T) {
	posts := makePosts()

	testCases := []struct {
		name     string
		selected string
		expected []string
	}{
		{name: "Scalar category", selected: "Design", expected: []string{"2"}},
		{name: "Member of a multi-category post", selected: "Technology", expected: []string{"1", "3"}},
		{name: "Second member matches too", selected: "Career", expected: []string{"2"}},
		{name: "No matches", selected: "Personal", expected: []string{}},
		{name: "All passes through", selected: "All", expected: []string{"1", "2", "3", "4"}},
		{name: "Lowercase all passes through", selected: "all", expected: []string{"1", "2", "3", "4"}},
		{name: "Empty selection passes through", selected: "", expected: []string{"1", "2", "3", "4"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ids(FilterByCategory(posts, tc.selected))
			if len(got) == 0 && len(tc.expected) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("Expected %v, got %v", tc.expected, got)
			}
		})
	}

	t.Run("All returns the same slice", func(t *testing.T) {
		filtered := FilterByCategory(posts, "All")
		if &filtered[0] != &posts[0] {
			t.Error("Expected the unfiltered listing to be returned as-is")
		}
	})

	t.Run("Category matching is case sensitive", func(t *testing.T) {
		if got := FilterByCategory(posts, "technology"); len(got) != 0 {
			t.Errorf("Expected no matches for lowercased category, got %d", len(got))
		}
	})
}

func TestCategoryChips(t *testing.T) {
	posts := makePosts()
	posts = append(posts, &model.Post{ID: "5", Category: model.Categories{"Gardening"}})

	chips := CategoryChips(posts)

	expected := []string{"All", "Technology", "Design", "Lifestyle", "Career", "Gardening"}
	if !reflect.DeepEqual(chips, expected) {
		t.Errorf("Expected %v, got %v", expected, chips)
	}
}

func TestPublishedOnly(t *testing.T) {
	posts := []*model.Post{
		{ID: "1", Status: model.StatusPublished},
		{ID: "2", Status: model.StatusDraft},
		{ID: "3"},
	}

	got := ids(PublishedOnly(posts))
	expected := []string{"1", "3"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}
