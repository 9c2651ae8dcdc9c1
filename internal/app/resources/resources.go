// internal/app/resources/resources.go
package resources

import (
	"embed"
	"sync"

	"github.com/dalemusser/waffle/pantry/templates"
)

// Embed the shared template files: the page layout and the toast stack.
//
//go:embed templates/*.gohtml
var FS embed.FS

// Patterns matches the shared templates inside FS.
var Patterns = []string{"templates/*.gohtml"}

var registerOnce sync.Once

func LoadSharedTemplates() {
	registerOnce.Do(func() {
		templates.Register(templates.Set{
			Name:     "shared",
			FS:       FS,
			Patterns: Patterns,
		})
	})
}
