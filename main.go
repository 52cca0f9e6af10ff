package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/zerolog"

	"github.com/inkwellapp/inkwell/internal/cache"
	"github.com/inkwellapp/inkwell/internal/config"
	"github.com/inkwellapp/inkwell/internal/draft"
	"github.com/inkwellapp/inkwell/internal/logger"
	"github.com/inkwellapp/inkwell/internal/model"
	"github.com/inkwellapp/inkwell/internal/render"
	"github.com/inkwellapp/inkwell/internal/sse"
	"github.com/inkwellapp/inkwell/internal/store"
	"github.com/inkwellapp/inkwell/internal/theme"
	"github.com/inkwellapp/inkwell/internal/uploader"
	"github.com/inkwellapp/inkwell/internal/util"
	"github.com/inkwellapp/inkwell/internal/view"
)

//go:embed static/* templates/*
var content embed.FS

var appLog zerolog.Logger

var posts *store.Cached
var assets uploader.AssetUploader

var sessions = draft.NewSessions()
var clients = sse.NewClients()

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file loaded")
	}

	// Bootstrap logging at info so config loading itself is logged, then
	// reconfigure with the configured level.
	appLog = logger.New("info")
	setLoggers(appLog)

	if err := config.LoadConfig("config.yaml"); err != nil {
		appLog.Fatal().Err(err).Msg("Failed to load config")
	}
	applyEnvOverrides(config.AppConfig)

	appLog = logger.New(config.AppConfig.Logging.Level)
	setLoggers(appLog)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.AppConfig

	rest := store.NewRESTClient(cfg.Store.BaseURL, time.Duration(cfg.Store.TimeoutSeconds)*time.Second)
	posts = store.NewCached(rest, time.Duration(cfg.Store.ReloadSeconds)*time.Second)
	posts.SetReloadNotifier(handleReloadPost)

	if err := posts.Init(ctx); err != nil {
		// The store may simply not be up yet; the poller keeps retrying.
		appLog.Warn().Err(err).Str("store", cfg.Store.BaseURL).Msg(fmt.Sprintf(config.ErrInitializePostsFmt, err))
	}
	go posts.Run(ctx)

	var err error
	assets, err = newUploader(cfg)
	if err != nil {
		appLog.Fatal().Err(err).Msg("Failed to initialize the asset uploader")
	}

	// Calculate the hash of static content for ETag responses.
	static, _ := fs.Sub(content, config.StaticLocalDir)
	fs.WalkDir(static, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(static, path)
		if err != nil {
			return err
		}
		cache.SetStaticHash(config.StaticUrlPath+path, util.ContentHash(data))
		return nil
	})

	mux := newMux(static)

	securedMux := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" { // Ignore robots.txt
			mux.ServeHTTP(w, r)
		} else {
			secureHeaders(mux.ServeHTTP)(w, r)
		}
	})

	server := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.Port,
		Handler: gzhttp.GzipHandler(cacheIt(securedMux)),
	}

	go func() {
		appLog.Info().Str("addr", server.Addr).Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	appLog.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLog.Error().Err(err).Msg("Shutdown error")
	}
}

func newMux(static fs.FS) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(config.HCType, "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("User-agent: *\nDisallow:"))
	})

	mux.Handle(config.StaticUrlPath, http.StripPrefix(config.StaticUrlPath, http.FileServer(http.FS(static))))

	mux.HandleFunc("/{$}", serveIndex)
	mux.HandleFunc("/blog", serveBlog)
	mux.HandleFunc("/posts/{id}", servePost)
	mux.HandleFunc("POST /posts/{id}/delete", servePostDelete)
	mux.HandleFunc("/about", serveAbout)
	mux.HandleFunc("/contact", serveContact)

	mux.HandleFunc("/write", serveWrite)
	mux.HandleFunc("/edit/post/{id}", serveEditPost)
	mux.HandleFunc("POST /editor/field", handleEditorField)
	mux.HandleFunc("POST /editor/cover", handleEditorCover)
	mux.HandleFunc("POST /editor/cover/remove", handleEditorCoverRemove)
	mux.HandleFunc("POST /editor/toggle", handleEditorToggle)
	mux.HandleFunc("POST /editor/submit", handleEditorSubmit)
	mux.HandleFunc("GET /editor/status", handleEditorStatus)
	mux.HandleFunc("POST /editor/discard", handleEditorDiscard)

	mux.HandleFunc("/theme/toggle", serveThemePostToggle)
	mux.HandleFunc("POST /syntax-theme/set", serveSyntaxThemePostSet)
	mux.HandleFunc("GET /syntax-theme/{theme}", serveSyntaxThemeGetTheme)
	mux.HandleFunc("/sse", eventsHandler)

	return mux
}

func setLoggers(l zerolog.Logger) {
	config.SetLogger(l)
	store.SetLogger(l)
	uploader.SetLogger(l)
	draft.SetLogger(l)
	render.SetLogger(l)
}

// applyEnvOverrides layers secrets and deployment endpoints from the
// environment over the YAML file.
func applyEnvOverrides(cfg *config.Config) {
	if v := os.Getenv(config.EnvStoreBaseURL); v != "" {
		cfg.Store.BaseURL = v
	}
	if v := os.Getenv(config.EnvUploadEndpoint); v != "" {
		cfg.Uploads.HTTP.Endpoint = v
	}
	if v := os.Getenv(config.EnvUploadPreset); v != "" {
		cfg.Uploads.HTTP.Preset = v
	}
}

func newUploader(cfg *config.Config) (uploader.AssetUploader, error) {
	switch cfg.Uploads.Backend {
	case "s3":
		return uploader.NewS3Uploader(
			os.Getenv(config.EnvS3AccessKeyID),
			os.Getenv(config.EnvS3SecretKey),
			cfg.Uploads.S3.Endpoint,
			cfg.Uploads.S3.Bucket,
			cfg.Uploads.S3.KeyPrefix,
			cfg.Uploads.S3.PublicBaseURL,
		)
	default:
		return uploader.NewHTTPUploader(
			cfg.Uploads.HTTP.Endpoint,
			cfg.Uploads.HTTP.Preset,
			time.Duration(cfg.Uploads.HTTP.TimeoutSeconds)*time.Second,
		), nil
	}
}

func renderPage(w http.ResponseWriter, page string, data any) {
	tmpl, err := template.ParseFS(content,
		config.TemplatesLocalDir+"/"+config.TemplateLayout,
		config.TemplatesLocalDir+"/"+page,
	)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := tmpl.ExecuteTemplate(w, config.TemplateLayout, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// postList adapts the current snapshot for rendering.
func postList() []*model.Post {
	snapshot := posts.PostList()
	list := make([]*model.Post, len(snapshot))
	for i := range snapshot {
		list[i] = &snapshot[i]
	}
	return list
}

func serveIndex(w http.ResponseWriter, r *http.Request) {
	recent := view.PublishedOnly(postList())
	if len(recent) > 3 {
		recent = recent[:3]
	}

	data := struct {
		*model.PageData
		PostsPath string
		Posts     []*model.Post
	}{
		PageData:  model.NewPageData(r),
		PostsPath: config.PostsUrlPath,
		Posts:     recent,
	}

	w.Header().Set(config.HETag, util.ContentHashString(data.Theme+data.SyntaxTheme))
	renderPage(w, config.TemplateIndex, data)
}

func serveBlog(w http.ResponseWriter, r *http.Request) {
	selected := r.URL.Query().Get("category")
	if selected == "" {
		selected = view.AllCategories
	}

	published := view.PublishedOnly(postList())

	data := struct {
		*model.PageData
		PostsPath  string
		Posts      []*model.Post
		Categories []string
		Selected   string
	}{
		PageData:   model.NewPageData(r),
		PostsPath:  config.PostsUrlPath,
		Posts:      view.FilterByCategory(published, selected),
		Categories: view.CategoryChips(published),
		Selected:   selected,
	}

	renderPage(w, config.TemplateBlog, data)
}

func servePost(w http.ResponseWriter, r *http.Request) {
	id := model.PostID(r.PathValue("id"))
	if id == "" {
		http.NotFound(w, r)
		return
	}

	post, err := posts.ReadPost(r.Context(), id)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	htmlContent := render.RenderMarkdownCached(
		[]byte(post.Content),
		util.ContentHashString(post.Content),
		theme.GetSyntaxThemeFromRequest(r),
	)

	data := struct {
		*model.PageData
		Post        *model.Post
		Content     template.HTML
		Created     string
		Updated     string
		DeletePath  string
		WatchedPath string
	}{
		PageData:    model.NewPageData(r),
		Post:        post,
		Content:     template.HTML(htmlContent),
		Created:     util.FormatDate(post.CreatedAt),
		Updated:     util.FormatDate(post.UpdatedAt),
		DeletePath:  config.PostsUrlPath + string(post.ID) + "/delete",
		WatchedPath: "/sse?post=" + string(post.ID),
	}

	renderPage(w, config.TemplatePost, data)
}

func servePostDelete(w http.ResponseWriter, r *http.Request) {
	id := model.PostID(r.PathValue("id"))
	if id == "" {
		http.NotFound(w, r)
		return
	}

	if err := posts.Upstream().Delete(r.Context(), id); err != nil {
		appLog.Error().Err(err).Str("post_id", string(id)).Msg("Failed to delete post")
		http.Error(w, config.ErrDeletePostFailed, http.StatusBadGateway)
		return
	}

	appLog.Info().Str("post_id", string(id)).Msg("Post deleted")
	go posts.Reload(context.Background())
	http.Redirect(w, r, "/blog", http.StatusSeeOther)
}

func serveAbout(w http.ResponseWriter, r *http.Request) {
	data := struct {
		*model.PageData
		Author      string
		Description string
	}{
		PageData:    model.NewPageData(r),
		Author:      config.AppConfig.Site.Author,
		Description: config.AppConfig.Site.Description,
	}
	renderPage(w, config.TemplateAbout, data)
}

func serveContact(w http.ResponseWriter, r *http.Request) {
	sent := false
	if r.Method == http.MethodPost {
		// There is no outbound mail integration; messages land in the log
		// for the operator.
		appLog.Info().
			Str("from", r.FormValue("email")).
			Str("subject", r.FormValue("subject")).
			Str("message", r.FormValue("message")).
			Msg("Contact form submission")
		sent = true
	}

	data := struct {
		*model.PageData
		Sent bool
	}{
		PageData: model.NewPageData(r),
		Sent:     sent,
	}
	renderPage(w, config.TemplateContact, data)
}

func serveThemePostToggle(w http.ResponseWriter, r *http.Request) {
	currentTheme := theme.GetThemeFromRequest(r)

	newTheme := config.DefaultTheme
	if currentTheme == config.DarkTheme {
		newTheme = config.LightTheme
	}

	http.SetCookie(w, &http.Cookie{
		Name:  config.CookieTheme,
		Value: newTheme,
		Path:  "/",
	})

	syntaxTheme := theme.GetDefaultSyntaxTheme(newTheme)
	if cookie, err := r.Cookie(config.CookieSyntaxTheme); err == nil {
		syntaxTheme = cookie.Value
	}

	w.Header().Set("Hx-Trigger", fmt.Sprintf(`{"themeChanged":{"value":"%s","syntaxTheme":"%s"}}`, newTheme, syntaxTheme))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(theme.GetThemeIcon(newTheme)))
}

func serveSyntaxThemePostSet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, config.HTTPErrMethodNotAllowed, http.StatusMethodNotAllowed)
		return
	}

	currTheme := r.FormValue("syntax-theme-select")
	if currTheme == "" {
		http.Error(w, "theme required", http.StatusBadRequest)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     config.CookieSyntaxTheme,
		Value:    currTheme,
		Path:     "/",
		HttpOnly: true,
	})

	themeStyle := []byte(theme.GenerateSyntaxCSS(currTheme))
	w.Header().Set(config.HCType, config.CTypeCSS)
	w.Header().Set(config.HETag, util.ContentHash(themeStyle))
	w.WriteHeader(http.StatusOK)
	w.Write(themeStyle)
}

func serveSyntaxThemeGetTheme(w http.ResponseWriter, r *http.Request) {
	currTheme := r.PathValue("theme")

	themeStyle := []byte(theme.GenerateSyntaxCSS(currTheme))
	w.Header().Set(config.HCType, config.CTypeCSS)
	w.Header().Set(config.HETag, util.ContentHash(themeStyle))
	w.WriteHeader(http.StatusOK)
	w.Write(themeStyle)
}

func eventsHandler(w http.ResponseWriter, r *http.Request) {
	postID := r.URL.Query().Get("post")
	if postID == "" {
		http.Error(w, "Post parameter required", http.StatusBadRequest)
		return
	}

	w.Header().Set(config.HCType, "text/event-stream")
	w.Header().Set(config.HCacheControl, "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Del("X-Content-Type-Options")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	fmt.Fprintf(w, "event: connected\ndata: SSE connection established\n\n")
	flusher.Flush()

	client := &sse.Client{
		Msg:    make(chan string),
		PostID: model.PostID(postID),
	}

	clients.Add(client)
	appLog.Debug().Str("post_id", postID).Msg("SSE client connected")

	defer func() {
		clients.Delete(client)
		appLog.Debug().Str("post_id", postID).Msg("SSE client disconnected")
	}()

	notify := r.Context().Done()
	for {
		select {
		case msg := <-client.Msg:
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		case <-notify:
			return
		}
	}
}

func handleReloadPost(postID model.PostID) {
	go clients.Broadcast(postID, "reload")
}

func cacheIt(h http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(config.HCacheControl, "no-cache")
		w.Header().Set("Vary", "Cookie")

		// Add etag header to response if it's a static file
		if hash, ok := cache.GetStaticHash(r.URL.Path); ok {
			w.Header().Set(config.HCacheControl, "public, max-age=3600")
			w.Header().Set(config.HETag, hash)
		}

		h.ServeHTTP(w, r)
	}
}

func secureHeaders(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "deny")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-XSS-Protection", "1; mode=block")

		h(w, r)
	}
}
