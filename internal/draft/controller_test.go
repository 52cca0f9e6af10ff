package draft

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/inkwellapp/inkwell/internal/model"
	"github.com/inkwellapp/inkwell/internal/store"
)

// fakeStore is an in-memory PostStore with hooks for failing or blocking
// writes.
type fakeStore struct {
	mu          sync.Mutex
	posts       map[model.PostID]*model.Post
	nextID      int
	createCalls int
	updateCalls int
	lastWritten *model.Post

	failWith error
	// blockWrites, when non-nil, makes writes wait until it is closed.
	blockWrites chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{posts: make(map[model.PostID]*model.Post)}
}

func (f *fakeStore) List(ctx context.Context) ([]model.Post, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeStore) Get(ctx context.Context, id model.PostID) (*model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if post, ok := f.posts[id]; ok {
		copied := *post
		return &copied, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) write(post *model.Post, assignID bool) (*model.Post, error) {
	f.mu.Lock()
	block := f.blockWrites
	f.mu.Unlock()
	if block != nil {
		<-block
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failWith != nil {
		return nil, f.failWith
	}

	saved := *post
	if assignID {
		f.nextID++
		saved.ID = model.PostID(fmt.Sprintf("id-%d", f.nextID))
	}
	saved.CreatedAt = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	saved.UpdatedAt = saved.CreatedAt
	f.posts[saved.ID] = &saved
	f.lastWritten = &saved
	copied := saved
	return &copied, nil
}

func (f *fakeStore) Create(ctx context.Context, post *model.Post) (*model.Post, error) {
	f.mu.Lock()
	f.createCalls++
	f.mu.Unlock()
	return f.write(post, true)
}

func (f *fakeStore) Update(ctx context.Context, id model.PostID, post *model.Post) (*model.Post, error) {
	f.mu.Lock()
	f.updateCalls++
	f.mu.Unlock()
	withID := *post
	withID.ID = id
	return f.write(&withID, false)
}

func (f *fakeStore) Delete(ctx context.Context, id model.PostID) error {
	return errors.New("not implemented")
}

func (f *fakeStore) writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createCalls + f.updateCalls
}

type fakeUploader struct {
	mu       sync.Mutex
	calls    int
	failWith error
	url      string
}

func (f *fakeUploader) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failWith != nil {
		return "", f.failWith
	}
	if f.url != "" {
		return f.url, nil
	}
	return "https://assets.example/" + filename, nil
}

const testWindow = 25 * time.Millisecond

func newTestController(s store.PostStore, u *fakeUploader) *Controller {
	if u == nil {
		u = &fakeUploader{}
	}
	return NewController(s, u, testWindow)
}

// waitFor polls until the condition holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestLoadForEdit(t *testing.T) {
	t.Run("Hydrates draft from post", func(t *testing.T) {
		fake := newFakeStore()
		fake.posts["p1"] = &model.Post{
			ID:         "p1",
			Title:      "Existing",
			Category:   model.Categories{"Design"},
			Content:    "Body",
			Excerpt:    "Short",
			Tags:       []string{"go", "web"},
			CoverImage: "https://assets.example/old.png",
			Status:     model.StatusPublished,
		}

		ctl := newTestController(fake, nil)
		if err := ctl.LoadForEdit(context.Background(), "p1"); err != nil {
			t.Fatalf("LoadForEdit failed: %v", err)
		}

		snap := ctl.Snapshot()
		if snap.PostID != "p1" {
			t.Errorf("Expected post id to be adopted, got %q", snap.PostID)
		}
		if snap.Draft.TagsText != "go, web" {
			t.Errorf("Expected tags hydrated as comma text, got %q", snap.Draft.TagsText)
		}
		if snap.Draft.Category != "Design" {
			t.Errorf("Expected category hydrated, got %q", snap.Draft.Category)
		}
		if snap.Draft.CoverImagePreview != "https://assets.example/old.png" {
			t.Errorf("Expected preview set to persisted URL, got %q", snap.Draft.CoverImagePreview)
		}
	})

	t.Run("Missing post surfaces LoadFailed", func(t *testing.T) {
		ctl := newTestController(newFakeStore(), nil)

		err := ctl.LoadForEdit(context.Background(), "missing")
		var submitErr *SubmitError
		if !errors.As(err, &submitErr) || submitErr.Cause != CauseLoadFailed {
			t.Fatalf("Expected LoadFailed, got %v", err)
		}

		if snap := ctl.Snapshot(); !snap.Draft.IsEmpty() {
			t.Error("Failed load must leave the draft empty")
		}
	})
}

func TestSetField(t *testing.T) {
	ctl := newTestController(newFakeStore(), nil)

	fields := map[string]string{
		"title":    "A title",
		"category": "Technology",
		"content":  "Some content",
		"excerpt":  "A summary",
		"tags":     "go, web",
	}
	for name, value := range fields {
		if err := ctl.SetField(name, value); err != nil {
			t.Fatalf("SetField(%q) failed: %v", name, err)
		}
	}

	snap := ctl.Snapshot()
	if snap.Draft.Title != "A title" || snap.Draft.Category != "Technology" ||
		snap.Draft.Content != "Some content" || snap.Draft.Excerpt != "A summary" ||
		snap.Draft.TagsText != "go, web" {
		t.Errorf("Unexpected draft after SetField: %+v", snap.Draft)
	}

	if err := ctl.SetField("bogus", "x"); !errors.Is(err, ErrFieldUnknown) {
		t.Errorf("Expected ErrFieldUnknown, got %v", err)
	}
}

func TestCoverImageSelection(t *testing.T) {
	png := []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}

	t.Run("Select derives preview, keeps persisted URL", func(t *testing.T) {
		fake := newFakeStore()
		fake.posts["p1"] = &model.Post{ID: "p1", CoverImage: "https://assets.example/old.png"}
		ctl := newTestController(fake, nil)
		if err := ctl.LoadForEdit(context.Background(), "p1"); err != nil {
			t.Fatalf("LoadForEdit failed: %v", err)
		}

		ctl.SelectCoverImage("new.png", png)

		snap := ctl.Snapshot()
		if snap.Draft.CoverImage != "https://assets.example/old.png" {
			t.Error("Persisted URL must stay untouched until submission")
		}
		if !strings.HasPrefix(snap.Draft.CoverImagePreview, "data:image/png;base64,") {
			t.Errorf("Expected data URL preview, got %q", snap.Draft.CoverImagePreview)
		}
		if snap.Draft.ActiveImage() != snap.Draft.CoverImagePreview {
			t.Error("Pending file must take precedence as the active image")
		}
	})

	t.Run("Remove clears everything at once", func(t *testing.T) {
		ctl := newTestController(newFakeStore(), nil)
		ctl.SelectCoverImage("new.png", png)

		ctl.RemoveCoverImage()

		snap := ctl.Snapshot()
		if snap.Draft.CoverImage != "" || snap.Draft.CoverImagePreview != "" ||
			snap.Draft.CoverImageFile != nil || snap.Draft.CoverImageName != "" {
			t.Errorf("Expected fully cleared image state, got %+v", snap.Draft)
		}
	})
}

func TestTogglePreviewIsPure(t *testing.T) {
	ctl := newTestController(newFakeStore(), nil)
	ctl.SetField("title", "A title")
	ctl.SetField("content", "Body text")
	ctl.SetField("tags", "a, b")
	ctl.SelectCoverImage("c.png", []byte{0x89, 0x50, 0x4e, 0x47})

	before := ctl.Snapshot().Draft

	for i := 0; i < 7; i++ {
		ctl.TogglePreview()
	}

	after := ctl.Snapshot()
	if !reflect.DeepEqual(before, after.Draft) {
		t.Error("Toggling preview must not mutate any draft field")
	}
	// Odd number of toggles starting from edit mode.
	if after.Mode != ModePreview {
		t.Errorf("Expected preview mode after 7 toggles, got %s", after.Mode)
	}
}

func TestSubmit_CreateAndPublishResets(t *testing.T) {
	fake := newFakeStore()
	ctl := newTestController(fake, nil)
	ctl.SetField("title", "Brand new")
	ctl.SetField("tags", "go, web")

	saved, err := ctl.Submit(context.Background(), IntentPublish)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("Expected store-assigned id")
	}
	if saved.Status != model.StatusPublished {
		t.Errorf("Expected published status, got %q", saved.Status)
	}
	if !reflect.DeepEqual(fake.lastWritten.Tags, []string{"go", "web"}) {
		t.Errorf("Expected normalized tags, got %v", fake.lastWritten.Tags)
	}

	if ctl.Snapshot().Phase != PhaseSuccess {
		t.Error("Expected success phase right after submission")
	}

	// A brand-new published draft resets to empty after the display window.
	waitFor(t, func() bool {
		snap := ctl.Snapshot()
		return snap.Phase == PhaseIdle && snap.Draft.IsEmpty() && snap.PostID == ""
	}, "Expected the draft to reset after the success window")
}

func TestSubmit_SaveDraftAdoptsID(t *testing.T) {
	fake := newFakeStore()
	ctl := newTestController(fake, nil)
	ctl.SetField("title", "Work in progress")

	saved, err := ctl.Submit(context.Background(), IntentSaveDraft)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if saved.Status != model.StatusDraft {
		t.Errorf("Expected draft status, got %q", saved.Status)
	}

	waitFor(t, func() bool { return ctl.Snapshot().Phase == PhaseIdle },
		"Expected phase to return to idle")

	snap := ctl.Snapshot()
	if snap.PostID != saved.ID {
		t.Error("Saving a draft must adopt the assigned id")
	}
	if snap.Draft.Title != "Work in progress" {
		t.Error("Saving a draft must not reset the fields")
	}

	// A second submission updates instead of creating a duplicate.
	if _, err := ctl.Submit(context.Background(), IntentPublish); err != nil {
		t.Fatalf("Second submit failed: %v", err)
	}
	if fake.createCalls != 1 || fake.updateCalls != 1 {
		t.Errorf("Expected one create and one update, got %d/%d", fake.createCalls, fake.updateCalls)
	}
}

func TestSubmit_EditNeverAutoResets(t *testing.T) {
	fake := newFakeStore()
	fake.posts["p1"] = &model.Post{ID: "p1", Title: "Existing", Status: model.StatusPublished}

	ctl := newTestController(fake, nil)
	if err := ctl.LoadForEdit(context.Background(), "p1"); err != nil {
		t.Fatalf("LoadForEdit failed: %v", err)
	}
	ctl.SetField("title", "Edited title")

	if _, err := ctl.Submit(context.Background(), IntentPublish); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	waitFor(t, func() bool { return ctl.Snapshot().Phase == PhaseIdle },
		"Expected phase to return to idle")

	snap := ctl.Snapshot()
	if snap.Draft.Title != "Edited title" || snap.PostID != "p1" {
		t.Error("Editing an existing post must never auto-reset the draft")
	}
}

func TestSubmit_SingleInFlight(t *testing.T) {
	fake := newFakeStore()
	fake.blockWrites = make(chan struct{})

	ctl := newTestController(fake, nil)
	ctl.SetField("title", "Once")

	done := make(chan error, 1)
	go func() {
		_, err := ctl.Submit(context.Background(), IntentPublish)
		done <- err
	}()

	waitFor(t, func() bool { return ctl.Snapshot().Phase == PhaseSubmitting },
		"Expected first submission to reach the submitting phase")

	if _, err := ctl.Submit(context.Background(), IntentPublish); !errors.Is(err, ErrSubmissionInFlight) {
		t.Fatalf("Expected ErrSubmissionInFlight, got %v", err)
	}

	close(fake.blockWrites)
	if err := <-done; err != nil {
		t.Fatalf("First submission failed: %v", err)
	}

	if fake.writes() != 1 {
		t.Errorf("Expected exactly one store write, got %d", fake.writes())
	}
}

func TestSubmit_UploadPrecedesWrite(t *testing.T) {
	png := []byte{0x89, 0x50, 0x4e, 0x47}

	t.Run("Store observes uploaded URL", func(t *testing.T) {
		fake := newFakeStore()
		up := &fakeUploader{url: "https://assets.example/uploaded.png"}

		ctl := newTestController(fake, up)
		ctl.SetField("title", "With cover")
		ctl.SelectCoverImage("cover.png", png)

		if _, err := ctl.Submit(context.Background(), IntentPublish); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}

		if fake.lastWritten.CoverImage != "https://assets.example/uploaded.png" {
			t.Errorf("Store observed %q, expected the post-upload URL", fake.lastWritten.CoverImage)
		}

		snap := ctl.Snapshot()
		if snap.Draft.HasPendingUpload() {
			t.Error("Pending file must be discarded after a successful upload")
		}
	})

	t.Run("Upload failure aborts before any store write", func(t *testing.T) {
		fake := newFakeStore()
		up := &fakeUploader{failWith: errors.New("host unreachable")}

		ctl := newTestController(fake, up)
		ctl.SetField("title", "With cover")
		ctl.SelectCoverImage("cover.png", png)

		_, err := ctl.Submit(context.Background(), IntentPublish)
		var submitErr *SubmitError
		if !errors.As(err, &submitErr) || submitErr.Cause != CauseUploadFailed {
			t.Fatalf("Expected UploadFailed, got %v", err)
		}

		if fake.writes() != 0 {
			t.Error("No store write may happen after a failed upload")
		}

		// The pending file is preserved so the user can retry.
		snap := ctl.Snapshot()
		if !snap.Draft.HasPendingUpload() {
			t.Error("Failed upload must preserve the pending file")
		}
	})
}

func TestSubmit_ErrorPreservesInput(t *testing.T) {
	fake := newFakeStore()
	fake.failWith = &store.StoreError{StatusCode: 422, Message: "title too long"}

	ctl := newTestController(fake, nil)
	ctl.SetField("title", "Precious input")
	ctl.SetField("content", "Hours of writing")
	ctl.SetField("tags", "a, b, c")
	before := ctl.Snapshot().Draft

	_, err := ctl.Submit(context.Background(), IntentPublish)
	var submitErr *SubmitError
	if !errors.As(err, &submitErr) || submitErr.Cause != CauseStoreRejected {
		t.Fatalf("Expected StoreRejected, got %v", err)
	}
	if submitErr.Message != "title too long" {
		t.Errorf("Expected the store's own message, got %q", submitErr.Message)
	}

	after := ctl.Snapshot()
	if !reflect.DeepEqual(before, after.Draft) {
		t.Error("A failed submission must never discard user input")
	}
	if after.Err == nil || after.Err.Cause != CauseStoreRejected {
		t.Error("Expected the error to stay visible on the snapshot")
	}

	// The phase returns to idle so a retry is accepted, while the error
	// remains visible until the next submission.
	waitFor(t, func() bool { return ctl.Snapshot().Phase == PhaseIdle },
		"Expected phase to return to idle after the display window")
	if ctl.Snapshot().Err == nil {
		t.Error("Error must persist past the display window")
	}

	fake.mu.Lock()
	fake.failWith = nil
	fake.mu.Unlock()
	if _, err := ctl.Submit(context.Background(), IntentPublish); err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	if ctl.Snapshot().Err != nil {
		t.Error("A new submission must clear the previous error")
	}
}

func TestDiscard_LateResponseIsInert(t *testing.T) {
	fake := newFakeStore()
	fake.blockWrites = make(chan struct{})

	ctl := newTestController(fake, nil)
	ctl.SetField("title", "Abandoned")

	done := make(chan struct{})
	go func() {
		ctl.Submit(context.Background(), IntentPublish)
		close(done)
	}()

	waitFor(t, func() bool { return ctl.Snapshot().Phase == PhaseSubmitting },
		"Expected submission to start")

	ctl.Discard()
	close(fake.blockWrites)
	<-done

	snap := ctl.Snapshot()
	if !snap.Draft.IsEmpty() || snap.PostID != "" || snap.Phase != PhaseIdle {
		t.Errorf("Late response mutated a discarded draft: %+v", snap)
	}
}

func TestSessions(t *testing.T) {
	sessions := NewSessions()
	ctl := newTestController(newFakeStore(), nil)

	id := sessions.Create(ctl)
	if id == "" {
		t.Fatal("Expected a session id")
	}

	got, ok := sessions.Get(id)
	if !ok || got != ctl {
		t.Fatal("Expected to retrieve the registered controller")
	}

	if _, ok := sessions.Get(""); ok {
		t.Error("Empty session id must not resolve")
	}

	sessions.Drop(id)
	if _, ok := sessions.Get(id); ok {
		t.Error("Dropped session must not resolve")
	}
}
