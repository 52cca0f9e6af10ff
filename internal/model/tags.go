package model

import "strings"

// SplitTags converts the editor's comma-separated tag text into a tag
// sequence: split on comma, trim whitespace, drop empty entries. Order and
// duplicates are preserved so the text form round-trips.
func SplitTags(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	parts := strings.Split(text, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}

	if len(tags) == 0 {
		return nil
	}
	return tags
}

// JoinTags is the inverse of SplitTags, used when hydrating the editor
// from a persisted post.
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}
