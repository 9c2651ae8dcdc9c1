// internal/app/system/viewdata/viewdata.go
package viewdata

import (
	"net/http"

	"github.com/dalemusser/mychessstyle/internal/app/system/notify"
	"github.com/dalemusser/mychessstyle/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/gorilla/csrf"
)

// BaseVM contains common fields for all view models.
// Embed this struct in your feature-specific view models.
//
// Usage:
//
//	type myPageData struct {
//	    viewdata.BaseVM
//	    // page-specific fields...
//	}
//
//	data := myPageData{
//	    BaseVM: viewdata.NewBaseVM(w, r, h.Notify, "Page Title", "/"),
//	}
type BaseVM struct {
	SiteName string

	// Page context
	Title       string
	BackURL     string
	CurrentPath string

	// CSRF protection
	CSRFToken string

	// Toasts queued for this browser session, oldest first.
	Toasts []notify.Notification
}

// NewBaseVM creates a fully populated BaseVM for a page. Rendering a page
// consumes the session's toast queue; pass a nil dispatcher for pages that
// must not (JSON, snippets).
func NewBaseVM(w http.ResponseWriter, r *http.Request, d *notify.Dispatcher, title, backDefault string) BaseVM {
	vm := BaseVM{
		SiteName:    models.DefaultSiteName,
		Title:       title,
		BackURL:     httpnav.ResolveBackURL(r, backDefault),
		CurrentPath: httpnav.CurrentPath(r),
		CSRFToken:   csrf.Token(r),
	}
	if d != nil {
		vm.Toasts = d.Drain(w, r)
	}
	return vm
}
