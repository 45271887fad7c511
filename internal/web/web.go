// Package web embeds the page template and its static assets.
package web

import (
	"embed"
	"html/template"
	"io"
	"io/fs"
	"net/http"

	"vehicledetect/internal/dto"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

type Page struct {
	tmpl *template.Template
}

func NewPage() (*Page, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, err
	}
	return &Page{tmpl: tmpl}, nil
}

func (p *Page) Render(w io.Writer, data dto.PageData) error {
	return p.tmpl.ExecuteTemplate(w, "index.html", data)
}

// Static serves the embedded css, js and icon under the stripped prefix.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
