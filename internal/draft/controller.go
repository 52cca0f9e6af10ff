// Package draft owns the in-progress editable copy of a post and the
// submission protocol that turns it into a persisted record. One
// Controller exists per editing session and is the only component allowed
// to mutate its Draft.
package draft

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/inkwellapp/inkwell/internal/config"
	"github.com/inkwellapp/inkwell/internal/model"
	"github.com/inkwellapp/inkwell/internal/store"
	"github.com/inkwellapp/inkwell/internal/uploader"
)

var draftLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	draftLogger = l.With().Str("component", "draft").Logger()
}

// Mode is the editor display mode. Toggling it never mutates field values.
type Mode string

const (
	ModeEdit    Mode = "edit"
	ModePreview Mode = "preview"
)

// Intent selects the status a submission writes.
type Intent string

const (
	IntentPublish   Intent = "publish"
	IntentSaveDraft Intent = "draft"
)

// Phase of the submission state machine:
// Idle -> Submitting -> {Success, Error} -> Idle.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseSubmitting Phase = "submitting"
	PhaseSuccess    Phase = "success"
	PhaseError      Phase = "error"
)

// Cause names the step a failed operation originated from so pages can
// render an appropriate message.
type Cause string

const (
	CauseLoadFailed    Cause = "LoadFailed"
	CauseUploadFailed  Cause = "UploadFailed"
	CauseStoreRejected Cause = "StoreRejected"
)

type SubmitError struct {
	Cause   Cause
	Message string
	Err     error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("%s: %v", e.Cause, e.Err)
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// ErrSubmissionInFlight rejects a second submit while one is pending.
// Callers treat it as a no-op; it exists to stop double-clicks from
// creating duplicate records.
var ErrSubmissionInFlight = errors.New("a submission is already in flight")

var ErrFieldUnknown = errors.New("unknown draft field")

type Controller struct {
	store    store.PostStore
	uploader uploader.AssetUploader

	// successWindow is how long terminal phases stay visible before
	// auto-returning to idle.
	successWindow time.Duration

	mu      sync.Mutex
	postID  model.PostID
	fields  model.Draft
	mode    Mode
	phase   Phase
	lastErr *SubmitError

	// generation invalidates in-flight async completions: it is bumped on
	// Discard and on the post-publish reset, so a late upload or store
	// response can never mutate a discarded or reused draft.
	generation uint64
}

func NewController(s store.PostStore, u uploader.AssetUploader, successWindow time.Duration) *Controller {
	return &Controller{
		store:         s,
		uploader:      u,
		successWindow: successWindow,
		mode:          ModeEdit,
		phase:         PhaseIdle,
	}
}

// LoadForEdit hydrates the draft from an existing post. On failure the
// controller stays empty and the caller gets a LoadFailed error; there is
// no automatic retry.
func (c *Controller) LoadForEdit(ctx context.Context, id model.PostID) error {
	post, err := c.store.Get(ctx, id)
	if err != nil {
		draftLogger.Warn().Err(err).Str("post_id", string(id)).Msg("Failed to load post for editing")
		return &SubmitError{
			Cause:   CauseLoadFailed,
			Message: config.ErrLoadPostFailed,
			Err:     err,
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.postID = post.ID
	c.fields = model.Draft{
		Title:      post.Title,
		Category:   post.Category.Primary(),
		Content:    post.Content,
		Excerpt:    post.Excerpt,
		TagsText:   model.JoinTags(post.Tags),
		CoverImage: post.CoverImage,
	}
	if post.CoverImage != "" {
		c.fields.CoverImagePreview = post.CoverImage
	}
	return nil
}

// SetField updates exactly one draft field. Safe at any time, including
// mid-submission: the last write before the store call wins.
func (c *Controller) SetField(name, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch name {
	case "title":
		c.fields.Title = value
	case "category":
		c.fields.Category = value
	case "content":
		c.fields.Content = value
	case "excerpt":
		c.fields.Excerpt = value
	case "tags":
		c.fields.TagsText = value
	default:
		return fmt.Errorf("%w: %s", ErrFieldUnknown, name)
	}
	return nil
}

// SelectCoverImage stages locally selected image bytes and derives a
// renderable preview from them. Any previously persisted cover URL stays
// untouched until a successful submission replaces it.
func (c *Controller) SelectCoverImage(filename string, data []byte) {
	preview := previewDataURL(data)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.fields.CoverImageFile = data
	c.fields.CoverImageName = filename
	c.fields.CoverImagePreview = preview
}

// RemoveCoverImage clears the pending file, the preview and the persisted
// URL in one step; no partial-clear state is observable.
func (c *Controller) RemoveCoverImage() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.fields.CoverImageFile = nil
	c.fields.CoverImageName = ""
	c.fields.CoverImagePreview = ""
	c.fields.CoverImage = ""
}

// TogglePreview flips the display mode and returns the new mode. Pure with
// respect to field values, reversible at any time.
func (c *Controller) TogglePreview() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode == ModeEdit {
		c.mode = ModePreview
	} else {
		c.mode = ModeEdit
	}
	return c.mode
}

// Submit runs the submission protocol: upload a pending cover image,
// normalize tags, set status from the intent, then create or update the
// record. Any failure aborts the remaining steps and preserves every field
// for correction. Only one submission may be in flight.
func (c *Controller) Submit(ctx context.Context, intent Intent) (*model.Post, error) {
	c.mu.Lock()
	if c.phase == PhaseSubmitting {
		c.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	c.phase = PhaseSubmitting
	c.lastErr = nil
	gen := c.generation
	working := c.fields
	postID := c.postID
	c.mu.Unlock()

	// Step 1: upload the pending cover image. The store write must never
	// observe a pre-upload placeholder, and must not happen at all if the
	// upload fails.
	if len(working.CoverImageFile) > 0 {
		url, err := c.uploader.Upload(ctx, working.CoverImageName, working.CoverImageFile)
		if err != nil {
			return nil, c.fail(gen, &SubmitError{
				Cause:   CauseUploadFailed,
				Message: config.ErrGenericUploadMessage,
				Err:     err,
			})
		}

		working.CoverImage = url

		c.mu.Lock()
		if c.generation == gen {
			c.fields.CoverImage = url
			c.fields.CoverImageFile = nil
			c.fields.CoverImageName = ""
			c.fields.CoverImagePreview = url
		}
		c.mu.Unlock()
	}

	// Steps 2 and 3: normalize tags and set the status.
	post := &model.Post{
		ID:         postID,
		Title:      working.Title,
		Content:    working.Content,
		Excerpt:    working.Excerpt,
		Tags:       model.SplitTags(working.TagsText),
		CoverImage: working.CoverImage,
		Status:     statusFor(intent),
	}
	if working.Category != "" {
		post.Category = model.Categories{working.Category}
	}

	// Step 4: write the record.
	var saved *model.Post
	var err error
	if postID == "" {
		saved, err = c.store.Create(ctx, post)
	} else {
		saved, err = c.store.Update(ctx, postID, post)
	}
	if err != nil {
		message := config.ErrGenericStoreMessage
		var storeErr *store.StoreError
		if errors.As(err, &storeErr) {
			message = storeErr.UserMessage()
		}
		return nil, c.fail(gen, &SubmitError{
			Cause:   CauseStoreRejected,
			Message: message,
			Err:     err,
		})
	}

	c.mu.Lock()
	if c.generation != gen {
		// The draft was discarded while the write was in flight; the
		// result is inert.
		c.mu.Unlock()
		return saved, nil
	}

	isNew := postID == ""
	c.postID = saved.ID
	c.phase = PhaseSuccess
	c.mu.Unlock()

	draftLogger.Info().
		Str("post_id", string(saved.ID)).
		Str("intent", string(intent)).
		Bool("created", isNew).
		Msg("Draft submitted")

	// Terminal states are time-bounded: Success returns to Idle after the
	// display window, and publishing a brand-new post resets the editor
	// for the next one. Editing an existing post never auto-resets.
	reset := isNew && intent == IntentPublish
	time.AfterFunc(c.successWindow, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.generation != gen || c.phase != PhaseSuccess {
			return
		}
		c.phase = PhaseIdle
		if reset {
			c.postID = ""
			c.fields = model.Draft{}
			c.mode = ModeEdit
			c.generation++
		}
	})

	return saved, nil
}

// fail transitions to the Error phase with a cause, leaving every field
// value untouched so the user can correct and retry. The phase
// auto-returns to Idle after the display window; the error itself stays
// visible until the next submission.
func (c *Controller) fail(gen uint64, submitErr *SubmitError) error {
	draftLogger.Warn().Err(submitErr.Err).Str("cause", string(submitErr.Cause)).Msg("Submission failed")

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		return submitErr
	}
	c.phase = PhaseError
	c.lastErr = submitErr

	time.AfterFunc(c.successWindow, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.generation == gen && c.phase == PhaseError {
			c.phase = PhaseIdle
		}
	})

	return submitErr
}

// Discard abandons the draft. Any in-flight submission result arriving
// afterwards is dropped by the generation check.
func (c *Controller) Discard() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.fields = model.Draft{}
	c.postID = ""
	c.phase = PhaseIdle
	c.lastErr = nil
}

// Snapshot is a point-in-time copy of the controller state for rendering.
type Snapshot struct {
	PostID model.PostID
	Draft  model.Draft
	Mode   Mode
	Phase  Phase
	Err    *SubmitError
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		PostID: c.postID,
		Draft:  c.fields,
		Mode:   c.mode,
		Phase:  c.phase,
		Err:    c.lastErr,
	}
}

func statusFor(intent Intent) string {
	if intent == IntentPublish {
		return model.StatusPublished
	}
	return model.StatusDraft
}

// previewDataURL builds a locally renderable representation of the
// selected image bytes for the editor preview pane.
func previewDataURL(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	mime := http.DetectContentType(data)
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
