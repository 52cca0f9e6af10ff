package cache

import "html/template"

var syntaxCSSCache = NewCache[string, template.CSS]()

func GetSyntaxCSS(theme string) (template.CSS, bool) {
	return syntaxCSSCache.Get(theme)
}

func SetSyntaxCSS(theme string, css template.CSS) {
	syntaxCSSCache.Set(theme, css)
}

func ClearSyntaxCSSCache() {
	syntaxCSSCache.Clear()
}
