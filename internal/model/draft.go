package model

// Draft is the client-local working copy of a post plus editor-only
// transient state. It holds every writable Post field in its editor form:
// tags live as comma-separated text until submission normalizes them.
type Draft struct {
	Title    string
	Category string
	Content  string
	Excerpt  string
	TagsText string

	// CoverImage is the persisted asset-host URL, untouched until a
	// successful submission replaces it.
	CoverImage string

	// CoverImageFile holds locally selected bytes between file selection
	// and a successful upload.
	CoverImageFile []byte
	CoverImageName string

	// CoverImagePreview is a locally renderable representation of the
	// pending file, or the persisted URL when no file is pending.
	CoverImagePreview string
}

// ActiveImage returns the image source the editor should render. A pending
// local file takes precedence over an already-persisted URL.
func (d *Draft) ActiveImage() string {
	if d.CoverImagePreview != "" {
		return d.CoverImagePreview
	}
	return d.CoverImage
}

func (d *Draft) HasPendingUpload() bool {
	return len(d.CoverImageFile) > 0
}

// IsEmpty reports whether every user-editable field is blank.
func (d *Draft) IsEmpty() bool {
	return d.Title == "" && d.Category == "" && d.Content == "" &&
		d.Excerpt == "" && d.TagsText == "" && d.CoverImage == "" &&
		len(d.CoverImageFile) == 0
}
