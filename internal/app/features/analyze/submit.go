// internal/app/features/analyze/submit.go
package analyze

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/dalemusser/mychessstyle/internal/app/analysisapi"
	"github.com/dalemusser/mychessstyle/internal/app/system/actiongate"
	"github.com/dalemusser/mychessstyle/internal/app/system/inputval"
	"github.com/dalemusser/mychessstyle/internal/app/system/timeouts"
	"github.com/dalemusser/mychessstyle/internal/app/system/websession"
	"github.com/dalemusser/mychessstyle/internal/domain/models"
	"go.uber.org/zap"
)

const (
	// formOverhead is the allowance for non-file multipart fields.
	formOverhead = 1 << 20
	// multipartMemory is how much of an upload is held in memory before
	// spilling to a temp file.
	multipartMemory = 8 << 20
)

type pgnForm struct {
	Usernames string `validate:"required,max=200,chessusers" label:"Username"`
	FileName  string `validate:"required,max=255" label:"PGN file"`
}

type usernameForm struct {
	Username string `validate:"required,max=50,chessuser" label:"Username"`
	Platform string `validate:"required,platform" label:"Platform"`
}

type trackForm struct {
	TrackingID string `validate:"required,trackingid" label:"Tracking ID"`
}

func tabURL(t actiongate.Tab) string {
	return "/?tab=" + string(t)
}

func trackURL(id analysisapi.TrackingID) string {
	return tabURL(actiongate.TabTrackProgress) + "&tracking_id=" + url.QueryEscape(id.String())
}

// admit runs the checks shared by every submit flow. Disabled actions
// (crafted requests) go back without a toast; throttled or duplicate
// submissions get a warning. On success the returned release func must be
// called once the upstream call is done.
func (h *Handler) admit(w http.ResponseWriter, r *http.Request, s actiongate.FormState) (func(), bool) {
	act := actiongate.ActionFor(s.Tab)
	back := tabURL(s.Tab)

	if !actiongate.Evaluate(s).Enabled(act) {
		h.Log.Debug("disabled action submitted", zap.String("action", string(act)))
		redirect(w, r, back)
		return nil, false
	}

	if h.Limiter != nil {
		if ok, msg := h.Limiter.Check(r); !ok {
			h.Log.Warn("submission throttled", zap.String("action", string(act)))
			h.Notify.Warn(w, r, "Slow down", msg)
			redirect(w, r, back)
			return nil, false
		}
	}

	sid := websession.SessionID(r)
	if !h.Pending.Begin(sid, act) {
		h.Log.Warn("duplicate submission", zap.String("action", string(act)))
		h.Notify.Warn(w, r, "Already in progress", act.Label()+" is still running. Please wait for it to finish.")
		redirect(w, r, back)
		return nil, false
	}
	return func() { h.Pending.End(sid, act) }, true
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /analyze/pgn – upload a PGN file                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) AnalyzePGN(w http.ResponseWriter, r *http.Request) {
	back := tabURL(actiongate.TabUploadPGN)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes()+formOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.Notify.Error(w, r, "File too large", fmt.Sprintf("PGN uploads are limited to %d MB.", h.MaxUploadMB))
		}
		redirect(w, r, back)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	s := actiongate.FromRequest(r)
	s.Tab = actiongate.TabUploadPGN

	file, hdr, err := r.FormFile("pgn_file")
	if err != nil {
		// Only a file name was posted; the gate cannot hold for a real upload.
		redirect(w, r, back)
		return
	}
	defer file.Close()

	release, ok := h.admit(w, r, s)
	if !ok {
		return
	}
	defer release()

	if hdr.Size > h.maxUploadBytes() {
		h.Notify.Error(w, r, "File too large", fmt.Sprintf("PGN uploads are limited to %d MB.", h.MaxUploadMB))
		redirect(w, r, back)
		return
	}

	form := pgnForm{Usernames: s.Username, FileName: hdr.Filename}
	if res := inputval.Validate(form); res.HasErrors() {
		h.Notify.Error(w, r, "Check your input", res.First())
		redirect(w, r, back)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "upload pgn")
	defer cancel()

	usernames := strings.Join(inputval.SplitUsernames(form.Usernames), ",")
	id, err := h.API.UploadPGN(ctx, usernames, hdr.Filename, file)
	if err != nil {
		h.Log.Error("pgn upload failed", zap.String("file", hdr.Filename), zap.Error(err))
		h.Notify.Error(w, r, "Upload failed", analysisapi.UserMessage(err))
		redirect(w, r, back)
		return
	}

	h.Log.Info("pgn upload accepted", zap.String("tracking_id", id.String()), zap.Int64("size", hdr.Size))
	h.Notify.Success(w, r, "Analysis started", "Your Tracking ID is "+id.String()+". Keep it to check progress later.")
	redirect(w, r, trackURL(id))
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /analyze/username – analyse a player's online games                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) AnalyzeUsername(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirect(w, r, tabURL(actiongate.TabEnterUsername))
		return
	}

	s := actiongate.FromRequest(r)
	s.Tab = actiongate.TabEnterUsername
	back := tabURL(actiongate.TabEnterUsername)

	release, ok := h.admit(w, r, s)
	if !ok {
		return
	}
	defer release()

	form := usernameForm{
		Username: strings.TrimSpace(s.Username),
		Platform: strings.TrimSpace(r.PostFormValue("platform")),
	}
	if form.Platform == "" {
		form.Platform = models.DefaultPlatform
	}
	if res := inputval.Validate(form); res.HasErrors() {
		h.Notify.Error(w, r, "Check your input", res.First())
		redirect(w, r, back)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "analyze username")
	defer cancel()

	id, err := h.API.AnalyzeUser(ctx, models.ExternalUser{
		Username:     form.Username,
		Platform:     form.Platform,
		IncludeRoast: checked(r.PostFormValue("include_roast")),
	})
	if err != nil {
		h.Log.Error("username analysis failed",
			zap.String("username", form.Username),
			zap.String("platform", form.Platform),
			zap.Error(err))
		h.Notify.Error(w, r, "Analysis failed", analysisapi.UserMessage(err))
		redirect(w, r, back)
		return
	}

	h.Log.Info("username analysis accepted",
		zap.String("tracking_id", id.String()),
		zap.String("platform", form.Platform))
	h.Notify.Success(w, r, "Analysis started", "Your Tracking ID is "+id.String()+". Keep it to check progress later.")
	redirect(w, r, trackURL(id))
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /analyze/track – open the results for a tracking ID                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) Track(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirect(w, r, tabURL(actiongate.TabTrackProgress))
		return
	}

	s := actiongate.FromRequest(r)
	s.Tab = actiongate.TabTrackProgress
	back := tabURL(actiongate.TabTrackProgress)

	if !actiongate.Evaluate(s).Tracking {
		redirect(w, r, back)
		return
	}

	form := trackForm{TrackingID: strings.TrimSpace(s.TrackingID)}
	if res := inputval.Validate(form); res.HasErrors() {
		h.Notify.Error(w, r, "Invalid Tracking ID", res.First())
		redirect(w, r, back+"&tracking_id="+url.QueryEscape(form.TrackingID))
		return
	}

	id, err := analysisapi.ParseTrackingID(form.TrackingID)
	if err != nil {
		h.Notify.Error(w, r, "Invalid Tracking ID", analysisapi.UserMessage(err))
		redirect(w, r, back)
		return
	}
	redirect(w, r, "/results/"+id.String())
}

func checked(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
