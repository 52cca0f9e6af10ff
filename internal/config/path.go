package config

const (
	//? These paths must match the paths in the embed directive

	StaticLocalDir = "static"
	StaticUrlPath  = "/" + StaticLocalDir + "/"

	PostsUrlPath = "/posts/"

	TemplatesLocalDir = "templates"

	TemplateLayout  = "layout.html"
	TemplateIndex   = "index.html"
	TemplateBlog    = "blog.html"
	TemplatePost    = "post.html"
	TemplateEditor  = "editor.html"
	TemplateAbout   = "about.html"
	TemplateContact = "contact.html"
)
