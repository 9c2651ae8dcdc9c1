// internal/domain/models/analysis.go
package models

import (
	"encoding/json"
	"fmt"
)

// Time controls reported by the analysis server for opponent ratings.
const (
	TimeControlBullet    = "bullet"
	TimeControlBlitz     = "blitz"
	TimeControlRapid     = "rapid"
	TimeControlClassical = "classical"
)

// TimeControls is the display order for per-time-control statistics.
var TimeControls = []string{
	TimeControlBullet,
	TimeControlBlitz,
	TimeControlRapid,
	TimeControlClassical,
}

// Supported external chess platforms.
const (
	PlatformLichess  = "lichess"
	PlatformChessCom = "chess.com"
)

// DefaultPlatform matches the analysis server's default for username analysis.
const DefaultPlatform = PlatformChessCom

// Platforms lists the platforms offered in the username form.
var Platforms = []string{PlatformChessCom, PlatformLichess}

// AnalysisDataResult is the result payload returned by the analysis server
// for a tracking ID. Every field is optional: the server fills stages in as
// they complete, so any subset may be present.
type AnalysisDataResult struct {
	FileUpload   *string           `json:"file_upload,omitempty"`
	Game         *GameData         `json:"game,omitempty"`
	RoastingUser *RoastingUserData `json:"roasting_user,omitempty"`
	ChessStyle   map[string]any    `json:"chess_style,omitempty"`
}

// IsEmpty reports whether no stage has produced output yet.
func (r AnalysisDataResult) IsEmpty() bool {
	return r.FileUpload == nil && r.Game == nil && r.RoastingUser == nil && len(r.ChessStyle) == 0
}

// GameData holds aggregated statistics over the analysed games.
type GameData struct {
	Count              int                `json:"count"`
	WinCount           int                `json:"win_count"`
	DrawCount          int                `json:"draw_count"`
	LossCount          int                `json:"loss_count"`
	OpponentsAvgRating map[string]float64 `json:"opponents_avg_rating,omitempty"`
	Openings           []OpeningEntry     `json:"openings,omitempty"`
}

// OpeningData is the per-opening frequency entry.
type OpeningData struct {
	Total    int      `json:"total"`
	ECOCodes []string `json:"eco_codes"`
}

// OpeningEntry is one row of the opening frequency table. On the wire it is
// a two-element array: [name, {total, eco_codes}].
type OpeningEntry struct {
	Name string
	OpeningData
}

// UnmarshalJSON decodes the [name, data] pair form.
func (e *OpeningEntry) UnmarshalJSON(b []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(b, &pair); err != nil {
		return fmt.Errorf("opening entry: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("opening entry: want 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &e.Name); err != nil {
		return fmt.Errorf("opening entry name: %w", err)
	}
	if err := json.Unmarshal(pair[1], &e.OpeningData); err != nil {
		return fmt.Errorf("opening entry data: %w", err)
	}
	return nil
}

// MarshalJSON encodes the entry back into the [name, data] pair form.
func (e OpeningEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{e.Name, e.OpeningData})
}

// RoastingUserData is the free-form text produced by the roast stage.
type RoastingUserData struct {
	Tip           string `json:"tip"`
	Roast         string `json:"roast"`
	Encouragement string `json:"encouragement"`
}

// ExternalUser is the request body for username analysis.
type ExternalUser struct {
	Username     string `json:"username"`
	Platform     string `json:"platform"`
	IncludeRoast bool   `json:"include_roast"`
}
