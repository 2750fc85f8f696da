// Package render turns digest Markdown into HTML pages.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"gitlab.com/golang-commonmark/markdown"
)

// Renderer is safe for concurrent use.
type Renderer struct {
	md   *markdown.Markdown
	page *template.Template
}

type PageData struct {
	Title        string
	Body         template.HTML
	Personalized bool
	Mode         string
}

func New() *Renderer {
	return &Renderer{
		// raw HTML in the source stays escaped
		md:   markdown.New(markdown.XHTMLOutput(true), markdown.Breaks(true), markdown.HTML(false), markdown.Tables(true)),
		page: template.Must(template.New("digest").Parse(pageTemplate)),
	}
}

// HTML renders Markdown to an HTML fragment.
func (r *Renderer) HTML(src string) template.HTML {
	return template.HTML(r.md.RenderToString([]byte(src)))
}

func (r *Renderer) Page(w io.Writer, data PageData) error {
	if err := r.page.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	return nil
}

// DigestPage renders a full HTML page for a Markdown digest.
func (r *Renderer) DigestPage(src, mode string, personalized bool) ([]byte, error) {
	title := "CompetitiveRadar – Weekly Digest"
	if personalized {
		title = "Your Personalized CompetitiveRadar Digest"
	}

	var buf bytes.Buffer
	err := r.Page(&buf, PageData{
		Title:        title,
		Body:         r.HTML(src),
		Personalized: personalized,
		Mode:         mode,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body{font-family:system-ui,-apple-system,sans-serif;max-width:760px;margin:2rem auto;padding:0 1rem;line-height:1.6;color:#1f2933}
h1{font-size:1.8rem}h2{margin-top:2rem}h3{margin-bottom:.25rem}
hr{border:0;border-top:1px solid #e4e7eb;margin:1.5rem 0}
.mode{display:inline-block;font-size:.8rem;padding:.1rem .5rem;border-radius:4px;background:#e6f6ff;color:#035388}
</style>
</head>
<body>
{{if .Mode}}<span class="mode">{{.Mode}}</span>{{end}}
<article class="digest{{if .Personalized}} personalized{{end}}">
{{.Body}}
</article>
</body>
</html>
`
