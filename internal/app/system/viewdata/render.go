// internal/app/system/viewdata/render.go
package viewdata

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
)

// Renderer writes named templates. Handlers hold one so tests can render
// real pages from a parsed template set without booting the engine.
type Renderer interface {
	Render(w http.ResponseWriter, r *http.Request, name string, data any)
	RenderSnippet(w http.ResponseWriter, name string, data any)
}

// Engine renders through the booted waffle template engine.
type Engine struct{}

func (Engine) Render(w http.ResponseWriter, r *http.Request, name string, data any) {
	templates.Render(w, r, name, data)
}

func (Engine) RenderSnippet(w http.ResponseWriter, name string, data any) {
	templates.RenderSnippet(w, name, data)
}

// TemplateRenderer renders from an already parsed template set.
type TemplateRenderer struct {
	T *template.Template
}

func (tr TemplateRenderer) Render(w http.ResponseWriter, _ *http.Request, name string, data any) {
	tr.RenderSnippet(w, name, data)
}

func (tr TemplateRenderer) RenderSnippet(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := tr.T.ExecuteTemplate(&buf, name, data); err != nil {
		http.Error(w, "template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
