package model

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/inkwellapp/inkwell/internal/config"
	"github.com/inkwellapp/inkwell/internal/theme"
)

type PageData struct {
	SiteName string
	Tagline  string

	PageURL string

	Theme string

	SyntaxCSS   template.CSS
	SyntaxTheme string

	IsEditorPage *bool
}

func NewPageData(r *http.Request) *PageData {
	syntaxTheme := theme.GetSyntaxThemeFromRequest(r)
	return &PageData{
		SiteName:    config.AppConfig.Site.Name,
		Tagline:     config.AppConfig.Site.Tagline,
		PageURL:     r.URL.Path,
		Theme:       theme.GetThemeFromRequest(r),
		SyntaxTheme: syntaxTheme,
		SyntaxCSS:   theme.GenerateSyntaxCSS(syntaxTheme),
	}
}

func (pd *PageData) IsEditor() bool {
	if pd.IsEditorPage == nil {
		return strings.HasPrefix(pd.PageURL, "/write") || strings.HasPrefix(pd.PageURL, "/edit/post/")
	}
	return *pd.IsEditorPage
}
