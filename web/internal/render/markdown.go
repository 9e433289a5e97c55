package render

import (
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"
)

// Club and activity descriptions are typed into plain textareas, so single
// newlines are kept as line breaks.
const markdownExtensions = blackfriday.CommonExtensions | blackfriday.HardLineBreak

var descriptionPolicy = newDescriptionPolicy()

func newDescriptionPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// Markdown converts a user-written description to safe HTML for templates.
func Markdown(markdown string) template.HTML {
	if strings.TrimSpace(markdown) == "" {
		return ""
	}
	unsafe := blackfriday.Run([]byte(markdown), blackfriday.WithExtensions(markdownExtensions))
	return template.HTML(descriptionPolicy.SanitizeBytes(unsafe))
}
