package httpserver

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

// HandoffField is one hidden form field on the handoff page.
type HandoffField struct {
	Name  string
	Value string
}

// HandoffData holds data for rendering the auto-submitting handoff form.
type HandoffData struct {
	Action string
	Fields []HandoffField
}

// ErrorData holds data for rendering error pages.
type ErrorData struct {
	Title   string
	Message string
}

// TemplateRenderer renders the handoff and error pages.
type TemplateRenderer struct {
	handoff *template.Template
	err     *template.Template
}

// NewTemplateRenderer creates a renderer using the embedded templates.
func NewTemplateRenderer() (*TemplateRenderer, error) {
	handoff, err := template.ParseFS(embeddedTemplates, "templates/handoff.html")
	if err != nil {
		return nil, fmt.Errorf("parse embedded handoff.html: %w", err)
	}
	errTmpl, err := template.ParseFS(embeddedTemplates, "templates/error.html")
	if err != nil {
		return nil, fmt.Errorf("parse embedded error.html: %w", err)
	}
	return &TemplateRenderer{handoff: handoff, err: errTmpl}, nil
}

// RenderHandoff renders the auto-submitting handoff form.
func (r *TemplateRenderer) RenderHandoff(w io.Writer, data HandoffData) error {
	return r.handoff.Execute(w, data)
}

// RenderError renders an error page.
func (r *TemplateRenderer) RenderError(w io.Writer, data ErrorData) error {
	return r.err.Execute(w, data)
}
