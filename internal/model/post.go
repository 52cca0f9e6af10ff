// Package model defines core data structures and types for the blog client.
package model

import (
	"strings"
	"time"
	"unicode"
)

type PostID string

type UserID string

// Post status values as stored by the PostStore.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Categories a post may belong to. The editor offers exactly this set.
var KnownCategories = []string{
	"Technology",
	"Design",
	"Development",
	"Lifestyle",
	"Career",
	"Personal",
}

// Post is the persisted entity, owned by the external PostStore. The
// client never holds a Post beyond the lifetime of a page render or a
// cached snapshot.
type Post struct {
	ID PostID `json:"id,omitempty"`

	Title    string     `json:"title"`
	Category Categories `json:"category,omitempty"`
	Content  string     `json:"content"`
	Excerpt  string     `json:"excerpt,omitempty"`
	Tags     []string   `json:"tags,omitempty"`

	CoverImage  string `json:"coverImage,omitempty"`
	AuthorImage string `json:"authorImage,omitempty"`

	Status string `json:"status"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

const excerptRuneLimit = 160

// Summary returns the stored excerpt, or derives one by truncating the
// content at a word boundary.
func (p *Post) Summary() string {
	if p.Excerpt != "" {
		return p.Excerpt
	}

	content := strings.TrimSpace(p.Content)
	runes := []rune(content)
	if len(runes) <= excerptRuneLimit {
		return content
	}

	cut := excerptRuneLimit
	for cut > 0 && !unicode.IsSpace(runes[cut]) {
		cut--
	}
	if cut == 0 {
		cut = excerptRuneLimit
	}

	return strings.TrimRight(string(runes[:cut]), " \t\n") + "…"
}

// Edited reports whether the post was modified after creation. Readers only
// see the updated date when it differs from the created date.
func (p *Post) Edited() bool {
	return !p.UpdatedAt.IsZero() && !p.UpdatedAt.Equal(p.CreatedAt)
}

func (p *Post) DisplayTitle() string {
	if p.Title == "" {
		return "Untitled Post"
	}
	return p.Title
}
