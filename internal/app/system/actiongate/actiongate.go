// Package actiongate decides which submit actions on the analysis card are
// currently permittable.
//
// Evaluation is a pure function of FormState. It never fails and has no side
// effects, so handlers call it on every render and on every input change.
// Each tab exposes exactly one action, and an action's flag depends only on
// the inputs that action needs, so switching tabs can never surface a flag
// computed for another tab's inputs.
package actiongate

import (
	"net/http"
	"strings"
)

// Tab identifies a panel of the analysis card.
type Tab string

const (
	TabUploadPGN     Tab = "upload"
	TabEnterUsername Tab = "username"
	TabTrackProgress Tab = "track"
)

// Tabs is the display order of the card's panels.
var Tabs = []Tab{TabUploadPGN, TabEnterUsername, TabTrackProgress}

// ParseTab maps a query/form value to a Tab. Anything unrecognised selects
// the upload tab, which is the card's landing panel.
func ParseTab(s string) Tab {
	switch Tab(strings.ToLower(strings.TrimSpace(s))) {
	case TabEnterUsername:
		return TabEnterUsername
	case TabTrackProgress:
		return TabTrackProgress
	default:
		return TabUploadPGN
	}
}

// Label is the tab caption.
func (t Tab) Label() string {
	switch t {
	case TabEnterUsername:
		return "Enter Username"
	case TabTrackProgress:
		return "Track Progress"
	default:
		return "Upload PGN"
	}
}

// Action identifies a submit action.
type Action string

const (
	ActionAnalyzePGN   Action = "analyze_pgn"
	ActionAnalyzeGames Action = "analyze_games"
	ActionTrack        Action = "track_progress"
)

// Label is the button caption.
func (a Action) Label() string {
	switch a {
	case ActionAnalyzePGN:
		return "Analyze PGN File"
	case ActionAnalyzeGames:
		return "Analyze Games"
	case ActionTrack:
		return "Track Progress by ID"
	}
	return string(a)
}

// ActionFor returns the single action shown on a tab.
func ActionFor(t Tab) Action {
	switch t {
	case TabEnterUsername:
		return ActionAnalyzeGames
	case TabTrackProgress:
		return ActionTrack
	default:
		return ActionAnalyzePGN
	}
}

// FileRef describes a selected file. Only its presence matters to the gate.
type FileRef struct {
	Name string
	Size int64
}

// FormState is the card's input state for one view.
type FormState struct {
	Tab        Tab
	File       *FileRef
	Username   string
	TrackingID string

	// Pending holds actions with a request in flight for this session.
	Pending map[Action]bool
}

// HasFile reports whether a file has been selected.
func (s FormState) HasFile() bool {
	return s.File != nil && s.File.Name != ""
}

// Availability is the derived enablement of every action.
type Availability struct {
	Upload           bool
	UsernameAnalysis bool
	Tracking         bool
}

// Evaluate derives action availability from the form state.
// Whitespace-only text counts as absent.
func Evaluate(s FormState) Availability {
	hasUsername := present(s.Username)
	return Availability{
		Upload:           s.HasFile() && hasUsername && !s.Pending[ActionAnalyzePGN],
		UsernameAnalysis: hasUsername && !s.Pending[ActionAnalyzeGames],
		Tracking:         present(s.TrackingID) && !s.Pending[ActionTrack],
	}
}

// Enabled reads the flag for a single action.
func (a Availability) Enabled(act Action) bool {
	switch act {
	case ActionAnalyzePGN:
		return a.Upload
	case ActionAnalyzeGames:
		return a.UsernameAnalysis
	case ActionTrack:
		return a.Tracking
	}
	return false
}

// Button is what the view needs to render the selected tab's action.
type Button struct {
	Action   Action
	Label    string
	Disabled bool
	Pending  bool
}

// ButtonFor returns the button for the state's selected tab.
func ButtonFor(s FormState) Button {
	act := ActionFor(s.Tab)
	return Button{
		Action:   act,
		Label:    act.Label(),
		Disabled: !Evaluate(s).Enabled(act),
		Pending:  s.Pending[act],
	}
}

// FromRequest builds a FormState from query and form values. The file is
// taken from a multipart part named "pgn_file" when present; otherwise a
// non-empty "pgn_file" value (the file name sent by a live re-evaluation)
// counts as a selection.
func FromRequest(r *http.Request) FormState {
	s := FormState{
		Tab:        ParseTab(r.FormValue("tab")),
		Username:   r.FormValue("username"),
		TrackingID: r.FormValue("tracking_id"),
	}

	if r.MultipartForm != nil {
		if fhs := r.MultipartForm.File["pgn_file"]; len(fhs) > 0 && fhs[0].Filename != "" {
			s.File = &FileRef{Name: fhs[0].Filename, Size: fhs[0].Size}
			return s
		}
	}
	if name := strings.TrimSpace(r.FormValue("pgn_file")); name != "" {
		s.File = &FileRef{Name: baseName(name)}
	}
	return s
}

func present(s string) bool {
	return strings.TrimSpace(s) != ""
}

// baseName strips browser path prefixes such as C:\fakepath\.
func baseName(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		return name[i+1:]
	}
	return name
}
