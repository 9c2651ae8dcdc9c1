// internal/app/features/results/view.go
package results

import (
	"encoding/json"
	"fmt"
	"html/template"
	"sort"
	"strings"

	"github.com/dalemusser/mychessstyle/internal/app/analysisapi"
	"github.com/dalemusser/mychessstyle/internal/app/system/htmlsanitize"
	"github.com/dalemusser/mychessstyle/internal/app/system/viewdata"
	"github.com/dalemusser/mychessstyle/internal/domain/models"
)

// View is the results page model. Every section is optional.
type View struct {
	viewdata.BaseVM

	TrackingID string
	Empty      bool

	FileUpload string
	Game       *GameView
	Roast      *RoastView
	Style      []StyleEntry
}

type GameView struct {
	Count   int
	Wins    int
	Draws   int
	Losses  int
	WinPct  string
	DrawPct string
	LossPct string

	Ratings  []RatingView
	Openings []OpeningView
}

type RatingView struct {
	TimeControl string
	Label       string
	Average     string
}

type OpeningView struct {
	Name     string
	Total    int
	ECOCodes string
}

type RoastView struct {
	Roast         template.HTML
	Encouragement template.HTML
	Tip           template.HTML
}

type StyleEntry struct {
	Key   string
	Label string
	Value string
}

// BuildView shapes an analysis result for display.
func BuildView(id analysisapi.TrackingID, res models.AnalysisDataResult) View {
	v := View{
		TrackingID: id.String(),
		Empty:      res.IsEmpty(),
	}
	if res.FileUpload != nil {
		v.FileUpload = *res.FileUpload
	}
	if res.Game != nil {
		v.Game = buildGame(*res.Game)
	}
	if ru := res.RoastingUser; ru != nil {
		rv := RoastView{
			Roast:         htmlsanitize.PrepareForDisplay(ru.Roast),
			Encouragement: htmlsanitize.PrepareForDisplay(ru.Encouragement),
			Tip:           htmlsanitize.PrepareForDisplay(ru.Tip),
		}
		if rv.Roast != "" || rv.Encouragement != "" || rv.Tip != "" {
			v.Roast = &rv
		}
	}
	v.Style = buildStyle(res.ChessStyle)
	return v
}

func buildGame(g models.GameData) *GameView {
	gv := &GameView{
		Count:   g.Count,
		Wins:    g.WinCount,
		Draws:   g.DrawCount,
		Losses:  g.LossCount,
		WinPct:  percent(g.WinCount, g.Count),
		DrawPct: percent(g.DrawCount, g.Count),
		LossPct: percent(g.LossCount, g.Count),
	}

	for _, tc := range models.TimeControls {
		avg, ok := g.OpponentsAvgRating[tc]
		if !ok {
			continue
		}
		gv.Ratings = append(gv.Ratings, RatingView{
			TimeControl: tc,
			Label:       humanize(tc),
			Average:     fmt.Sprintf("%.0f", avg),
		})
	}

	openings := make([]models.OpeningEntry, len(g.Openings))
	copy(openings, g.Openings)
	sort.SliceStable(openings, func(i, j int) bool {
		if openings[i].Total != openings[j].Total {
			return openings[i].Total > openings[j].Total
		}
		return openings[i].Name < openings[j].Name
	})
	for _, o := range openings {
		gv.Openings = append(gv.Openings, OpeningView{
			Name:     o.Name,
			Total:    o.Total,
			ECOCodes: strings.Join(o.ECOCodes, ", "),
		})
	}
	return gv
}

func percent(part, total int) string {
	if total <= 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", float64(part)*100/float64(total))
}

// buildStyle flattens the free-form chess_style object into sorted rows.
func buildStyle(cs map[string]any) []StyleEntry {
	if len(cs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(cs))
	for k := range cs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]StyleEntry, 0, len(keys))
	for _, k := range keys {
		val := styleValue(cs[k])
		if val == "" {
			continue
		}
		out = append(out, StyleEntry{Key: k, Label: humanize(k), Value: val})
	}
	return out
}

func styleValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return htmlsanitize.Text(t)
	case float64:
		return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", t), "0"), ".")
	case bool:
		if t {
			return "Yes"
		}
		return "No"
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// humanize turns "opening_style" into "Opening style".
func humanize(key string) string {
	s := strings.TrimSpace(strings.ReplaceAll(key, "_", " "))
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
