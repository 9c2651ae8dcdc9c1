// internal/app/features/analyze/templates.go
package analyze

import (
	"embed"

	"github.com/dalemusser/waffle/pantry/templates"
)

//go:embed templates/*.gohtml
var FS embed.FS

func init() {
	templates.Register(templates.Set{
		Name:     "analyze",
		FS:       FS,
		Patterns: []string{"templates/*.gohtml"},
	})
}
