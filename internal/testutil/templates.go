package testutil

import (
	"html/template"
	"io/fs"
	"testing"

	"github.com/dalemusser/mychessstyle/internal/app/resources"
)

// ParseTemplates parses the shared layout templates together with a
// feature's templates, so handler tests can render real pages without
// booting the template engine.
func ParseTemplates(t *testing.T, fsys fs.FS, patterns ...string) *template.Template {
	t.Helper()

	tmpl, err := template.ParseFS(resources.FS, resources.Patterns...)
	if err != nil {
		t.Fatalf("parse shared templates: %v", err)
	}
	if len(patterns) > 0 {
		if tmpl, err = tmpl.ParseFS(fsys, patterns...); err != nil {
			t.Fatalf("parse feature templates: %v", err)
		}
	}
	return tmpl
}
