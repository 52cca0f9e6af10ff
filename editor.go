package main

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/inkwellapp/inkwell/internal/config"
	"github.com/inkwellapp/inkwell/internal/draft"
	"github.com/inkwellapp/inkwell/internal/model"
	"github.com/inkwellapp/inkwell/internal/render"
	"github.com/inkwellapp/inkwell/internal/theme"
	"github.com/inkwellapp/inkwell/internal/util"
)

// successWindow converts the configured display window for terminal
// submission states.
func successWindow() time.Duration {
	return time.Duration(config.AppConfig.Editor.SuccessDisplaySeconds) * time.Second
}

// sessionController resolves the request's editor session cookie to its
// draft controller.
func sessionController(r *http.Request) (*draft.Controller, bool) {
	cookie, err := r.Cookie(config.CookieEditorSession)
	if err != nil {
		return nil, false
	}
	return sessions.Get(cookie.Value)
}

func startEditorSession(w http.ResponseWriter, ctl *draft.Controller) {
	id := sessions.Create(ctl)
	http.SetCookie(w, &http.Cookie{
		Name:     config.CookieEditorSession,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
	})
}

type editorPageData struct {
	*model.PageData
	Snapshot draft.Snapshot

	// ActiveImage may be a data URL for a staged local file, which the
	// template URL filter would otherwise reject.
	ActiveImage  template.URL
	Categories   []string
	SyntaxThemes []string
	LoadError    string
	IsNew        bool
}

func renderEditorPage(w http.ResponseWriter, r *http.Request, ctl *draft.Controller, loadError string) {
	var snap draft.Snapshot
	if ctl != nil {
		snap = ctl.Snapshot()
	}

	data := editorPageData{
		PageData:    model.NewPageData(r),
		Snapshot:    snap,
		ActiveImage:  template.URL(snap.Draft.ActiveImage()),
		Categories:   model.KnownCategories,
		SyntaxThemes: theme.GetSyntaxThemes(),
		LoadError:    loadError,
		IsNew:        snap.PostID == "",
	}
	renderPage(w, config.TemplateEditor, data)
}

// serveWrite opens a fresh editor for a new post.
func serveWrite(w http.ResponseWriter, r *http.Request) {
	ctl := draft.NewController(posts.Upstream(), assets, successWindow())
	startEditorSession(w, ctl)
	renderEditorPage(w, r, ctl, "")
}

// serveEditPost opens an editor hydrated from an existing post. A failed
// load leaves the editor empty with an error; the user navigates back and
// retries by reopening the page.
func serveEditPost(w http.ResponseWriter, r *http.Request) {
	id := model.PostID(r.PathValue("id"))
	if id == "" {
		http.NotFound(w, r)
		return
	}

	ctl := draft.NewController(posts.Upstream(), assets, successWindow())

	loadError := ""
	if err := ctl.LoadForEdit(r.Context(), id); err != nil {
		var submitErr *draft.SubmitError
		if errors.As(err, &submitErr) {
			loadError = submitErr.Message
		} else {
			loadError = config.ErrLoadPostFailed
		}
	}

	startEditorSession(w, ctl)
	renderEditorPage(w, r, ctl, loadError)
}

func handleEditorField(w http.ResponseWriter, r *http.Request) {
	ctl, ok := sessionController(r)
	if !ok {
		http.Error(w, config.ErrEditorSessionExpired, http.StatusGone)
		return
	}

	if err := ctl.SetField(r.FormValue("name"), r.FormValue("value")); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func handleEditorCover(w http.ResponseWriter, r *http.Request) {
	ctl, ok := sessionController(r)
	if !ok {
		http.Error(w, config.ErrEditorSessionExpired, http.StatusGone)
		return
	}

	maxBytes := int64(config.AppConfig.Editor.MaxCoverImageMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		http.Error(w, "Cover image too large", http.StatusRequestEntityTooLarge)
		return
	}

	file, header, err := r.FormFile("cover")
	if err != nil {
		http.Error(w, "Cover image required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Failed to read cover image", http.StatusBadRequest)
		return
	}

	ctl.SelectCoverImage(header.Filename, data)

	snap := ctl.Snapshot()
	w.Header().Set(config.HCType, config.CTypeHTML)
	fmt.Fprintf(w, `<img id="cover-preview" src="%s" alt="Cover preview">`,
		template.HTMLEscapeString(snap.Draft.ActiveImage()))
}

func handleEditorCoverRemove(w http.ResponseWriter, r *http.Request) {
	ctl, ok := sessionController(r)
	if !ok {
		http.Error(w, config.ErrEditorSessionExpired, http.StatusGone)
		return
	}

	ctl.RemoveCoverImage()
	w.WriteHeader(http.StatusNoContent)
}

// handleEditorToggle flips between editing and preview. In preview mode the
// response body carries the rendered markdown so the page can swap it in.
func handleEditorToggle(w http.ResponseWriter, r *http.Request) {
	ctl, ok := sessionController(r)
	if !ok {
		http.Error(w, config.ErrEditorSessionExpired, http.StatusGone)
		return
	}

	mode := ctl.TogglePreview()
	w.Header().Set(config.HCType, config.CTypeHTML)
	w.Header().Set("X-Editor-Mode", string(mode))

	if mode != draft.ModePreview {
		w.WriteHeader(http.StatusOK)
		return
	}

	snap := ctl.Snapshot()
	md := snap.Draft.Content
	if md == "" {
		md = "Start typing in the editor to see a preview here."
	}

	w.Write(render.RenderMarkdownCached(
		[]byte(md),
		util.ContentHashString(md),
		theme.GetSyntaxThemeFromRequest(r),
	))
}

func handleEditorSubmit(w http.ResponseWriter, r *http.Request) {
	ctl, ok := sessionController(r)
	if !ok {
		http.Error(w, config.ErrEditorSessionExpired, http.StatusGone)
		return
	}

	intent := draft.IntentSaveDraft
	if r.FormValue("intent") == string(draft.IntentPublish) {
		intent = draft.IntentPublish
	}

	_, err := ctl.Submit(r.Context(), intent)
	if errors.Is(err, draft.ErrSubmissionInFlight) {
		// A second click while saving is a no-op; report current state.
		writeEditorStatus(w, ctl.Snapshot())
		return
	}
	if err == nil {
		go posts.Reload(context.Background())
	}

	writeEditorStatus(w, ctl.Snapshot())
}

func handleEditorStatus(w http.ResponseWriter, r *http.Request) {
	ctl, ok := sessionController(r)
	if !ok {
		http.Error(w, config.ErrEditorSessionExpired, http.StatusGone)
		return
	}
	writeEditorStatus(w, ctl.Snapshot())
}

func handleEditorDiscard(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(config.CookieEditorSession); err == nil {
		sessions.Drop(cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:   config.CookieEditorSession,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	http.Redirect(w, r, "/blog", http.StatusSeeOther)
}

// writeEditorStatus renders the submission state banner.
func writeEditorStatus(w http.ResponseWriter, snap draft.Snapshot) {
	w.Header().Set(config.HCType, config.CTypeHTML)

	switch snap.Phase {
	case draft.PhaseSubmitting:
		fmt.Fprint(w, `<div class="editor-status saving">Saving…</div>`)
	case draft.PhaseSuccess:
		fmt.Fprint(w, `<div class="editor-status success">Saved successfully.</div>`)
	case draft.PhaseError:
		fmt.Fprintf(w, `<div class="editor-status error">%s</div>`,
			template.HTMLEscapeString(snap.Err.Message))
	default:
		if snap.Err != nil {
			fmt.Fprintf(w, `<div class="editor-status error">%s</div>`,
				template.HTMLEscapeString(snap.Err.Message))
			return
		}
		fmt.Fprint(w, `<div class="editor-status"></div>`)
	}
}
