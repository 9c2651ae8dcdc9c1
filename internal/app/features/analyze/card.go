// internal/app/features/analyze/card.go
package analyze

import (
	"net/http"
	"net/url"

	"github.com/dalemusser/mychessstyle/internal/app/system/actiongate"
	"github.com/dalemusser/mychessstyle/internal/app/system/viewdata"
	"github.com/dalemusser/mychessstyle/internal/app/system/websession"
	"github.com/dalemusser/mychessstyle/internal/domain/models"
)

type tabLink struct {
	Label    string
	Href     string
	Selected bool
}

type platformOption struct {
	Value    string
	Selected bool
}

// actionData is the model of the "analyze_action" snippet.
type actionData struct {
	Button actiongate.Button
}

type cardData struct {
	viewdata.BaseVM

	Tabs        []tabLink
	IsUpload    bool
	IsUsername  bool
	IsTrack     bool
	MaxUploadMB int64

	Username     string
	TrackingID   string
	Platforms    []platformOption
	IncludeRoast bool

	Action actionData
}

// buildCard derives the card's view model from the form state. The page
// fields (BaseVM) are filled in by the caller.
func (h *Handler) buildCard(s actiongate.FormState, platform string, includeRoast bool) cardData {
	if platform == "" {
		platform = models.DefaultPlatform
	}

	data := cardData{
		IsUpload:     s.Tab == actiongate.TabUploadPGN,
		IsUsername:   s.Tab == actiongate.TabEnterUsername,
		IsTrack:      s.Tab == actiongate.TabTrackProgress,
		MaxUploadMB:  h.MaxUploadMB,
		Username:     s.Username,
		TrackingID:   s.TrackingID,
		IncludeRoast: includeRoast,
		Action:       actionData{Button: actiongate.ButtonFor(s)},
	}
	for _, t := range actiongate.Tabs {
		data.Tabs = append(data.Tabs, tabLink{
			Label:    t.Label(),
			Href:     "/?tab=" + url.QueryEscape(string(t)),
			Selected: t == s.Tab,
		})
	}
	for _, p := range models.Platforms {
		data.Platforms = append(data.Platforms, platformOption{Value: p, Selected: p == platform})
	}
	return data
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET / – the analysis card                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s := actiongate.FormState{
		Tab:        actiongate.ParseTab(q.Get("tab")),
		Username:   q.Get("username"),
		TrackingID: q.Get("tracking_id"),
		Pending:    h.Pending.Snapshot(websession.SessionID(r)),
	}

	data := h.buildCard(s, q.Get("platform"), false)
	data.BaseVM = viewdata.NewBaseVM(w, r, h.Notify, "Analyze", "/")

	h.Views.Render(w, r, "analyze_card", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /analyze/gate – live re-evaluation of the selected tab's action         |
*─────────────────────────────────────────────────────────────────────────────*/

// Gate re-renders the action snippet for the posted form state. It is hit
// on every input or change event in the card.
func (h *Handler) Gate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes()+formOverhead)

	s := actiongate.FromRequest(r)
	s.Pending = h.Pending.Snapshot(websession.SessionID(r))

	h.Views.RenderSnippet(w, "analyze_action", actionData{Button: actiongate.ButtonFor(s)})
}
