package httpapi

import (
	"net/http"

	"github.com/tallink-tennis/fuss-tracker/internal/domain/feedback"
)

type playerFeedbackRequest struct {
	Intensity int `json:"intensity" validate:"min=0,max=10"`
	Support   int `json:"support" validate:"required,min=1,max=5"`
	Clarity   int `json:"clarity" validate:"required,min=1,max=5"`
}

type coachRecordRequest struct {
	CoachFeedback    *float64 `json:"coachFeedback" validate:"omitempty,min=0,max=10"`
	Effort           *float64 `json:"effort" validate:"omitempty,min=0,max=10"`
	MissedCoach      *float64 `json:"missedCoach" validate:"omitempty,min=0,max=10"`
	ObjectiveClarity *float64 `json:"objectiveClarity" validate:"omitempty,min=0,max=10"`
	Comment          string   `json:"comment" validate:"max=2000"`
}

type coachFeedbackRequest struct {
	Records map[string]coachRecordRequest `json:"records" validate:"required,dive"`
}

func (h *Handler) SubmitPlayerFeedback(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitPlayerFeedback")
	defer span.End()

	var req playerFeedbackRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	player, date := r.PathValue("player"), r.PathValue("date")
	fb := feedback.PlayerFeedback{Intensity: req.Intensity, Support: req.Support, Clarity: req.Clarity}
	res, err := h.Feedback.SubmitPlayerFeedback(ctx, sessionFromContext(ctx), player, date, fb)
	if err != nil {
		h.fail(ctx, w, "submit player feedback failed", err, "player", player, "date", date)
		return
	}
	writeWrite(ctx, w, r, h.writeWait, res, fb)
}

func (h *Handler) PlayerFeedback(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PlayerFeedback")
	defer span.End()

	player := r.PathValue("player")
	items, err := h.Feedback.PlayerFeedback(ctx, sessionFromContext(ctx), player)
	if err != nil {
		h.fail(ctx, w, "read player feedback failed", err, "player", player)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListSessions")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, h.Feedback.Sessions(ctx))
}

func (h *Handler) ReviewSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ReviewSession")
	defer span.End()

	date, kind, tag := r.PathValue("date"), r.PathValue("kind"), r.PathValue("group")
	review, err := h.Feedback.Review(ctx, date, kind, tag)
	if err != nil {
		h.fail(ctx, w, "review session failed", err, "date", date, "kind", kind, "group", tag)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, review)
}

func (h *Handler) SubmitCoachFeedback(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitCoachFeedback")
	defer span.End()

	var req coachFeedbackRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	records := make(map[string]feedback.CoachFeedback, len(req.Records))
	for player, rec := range req.Records {
		records[player] = feedback.CoachFeedback{
			CoachFeedback:    rec.CoachFeedback,
			Effort:           rec.Effort,
			MissedCoach:      rec.MissedCoach,
			ObjectiveClarity: rec.ObjectiveClarity,
			Comment:          rec.Comment,
		}
	}

	date, kind, tag := r.PathValue("date"), r.PathValue("kind"), r.PathValue("group")
	res, err := h.Feedback.SubmitCoachFeedback(ctx, date, kind, tag, records)
	if err != nil {
		h.fail(ctx, w, "submit coach feedback failed", err, "date", date, "kind", kind, "group", tag)
		return
	}
	writeWrite(ctx, w, r, h.writeWait, res, map[string]int{"players": len(records)})
}
