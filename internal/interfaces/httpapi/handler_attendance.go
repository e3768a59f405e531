package httpapi

import (
	"net/http"
)

type markRequest struct {
	Mark string `json:"mark" validate:"required,oneof=Jah Ei"`
}

type effortRequest struct {
	// Value nil clears the rating.
	Value *int `json:"value" validate:"omitempty,min=1,max=5"`
}

func (h *Handler) AttendanceTable(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AttendanceTable")
	defer span.End()

	kind := r.PathValue("kind")
	table, err := h.Attendance.Table(ctx, sessionFromContext(ctx), kind, queryBool(r, "past"))
	if err != nil {
		h.fail(ctx, w, "attendance table failed", err, "kind", kind)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, table)
}

func (h *Handler) SetAttendance(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetAttendance")
	defer span.End()

	var req markRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	kind, date, player := r.PathValue("kind"), r.PathValue("date"), r.PathValue("player")
	res, err := h.Attendance.SetMark(ctx, sessionFromContext(ctx), kind, date, player, req.Mark)
	if err != nil {
		h.fail(ctx, w, "set attendance failed", err, "kind", kind, "date", date, "player", player)
		return
	}
	writeWrite(ctx, w, r, h.writeWait, res, map[string]string{"player": player, "date": date, "mark": req.Mark})
}

func (h *Handler) ToggleAttendance(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ToggleAttendance")
	defer span.End()

	kind, date, player := r.PathValue("kind"), r.PathValue("date"), r.PathValue("player")
	mark, res, err := h.Attendance.Toggle(ctx, sessionFromContext(ctx), kind, date, player)
	if err != nil {
		h.fail(ctx, w, "toggle attendance failed", err, "kind", kind, "date", date, "player", player)
		return
	}
	writeWrite(ctx, w, r, h.writeWait, res, map[string]string{"player": player, "date": date, "mark": string(mark)})
}

func (h *Handler) SetEffort(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetEffort")
	defer span.End()

	var req effortRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	date, player := r.PathValue("date"), r.PathValue("player")
	res, err := h.Attendance.SetEffort(ctx, sessionFromContext(ctx), date, player, req.Value)
	if err != nil {
		h.fail(ctx, w, "set effort failed", err, "date", date, "player", player)
		return
	}
	writeWrite(ctx, w, r, h.writeWait, res, map[string]any{"player": player, "date": date, "value": req.Value})
}
