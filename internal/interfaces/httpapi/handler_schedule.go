package httpapi

import (
	"net/http"

	"github.com/tallink-tennis/fuss-tracker/internal/usecase"
)

type slotRequest struct {
	Time string `json:"time" validate:"required"`
}

type dateRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

func slotFromPath(r *http.Request) usecase.SlotInput {
	return usecase.SlotInput{
		Kind:    r.PathValue("kind"),
		Group:   r.PathValue("group"),
		Weekday: r.PathValue("weekday"),
	}
}

func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSchedule")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, scheduleToDTO(h.Schedule.Schedule(ctx)))
}

func (h *Handler) SetSlot(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetSlot")
	defer span.End()

	var req slotRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	input := slotFromPath(r)
	input.Time = req.Time
	tr, res, err := h.Schedule.SetSlot(ctx, input)
	if err != nil {
		h.fail(ctx, w, "set slot failed", err, "kind", input.Kind, "group", input.Group, "weekday", input.Weekday)
		return
	}
	writeWrite(ctx, w, r, h.writeWait, res, map[string]string{"time": tr.String()})
}

func (h *Handler) RemoveSlot(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RemoveSlot")
	defer span.End()

	input := slotFromPath(r)
	res, err := h.Schedule.RemoveSlot(ctx, input)
	if err != nil {
		h.fail(ctx, w, "remove slot failed", err, "kind", input.Kind, "group", input.Group, "weekday", input.Weekday)
		return
	}
	writeWrite(ctx, w, r, h.writeWait, res, nil)
}

func (h *Handler) ListDates(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListDates")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, h.Schedule.Dates(ctx, queryBool(r, "past")))
}

func (h *Handler) AddDate(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AddDate")
	defer span.End()

	var req dateRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	day, res, err := h.Schedule.AddDate(ctx, req.Date)
	if err != nil {
		h.fail(ctx, w, "add date failed", err, "date", req.Date)
		return
	}
	writeWrite(ctx, w, r, h.writeWait, res, day)
}

func (h *Handler) RemoveDate(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RemoveDate")
	defer span.End()

	date := r.PathValue("date")
	res, err := h.Schedule.RemoveDate(ctx, date)
	if err != nil {
		h.fail(ctx, w, "remove date failed", err, "date", date)
		return
	}
	writeWrite(ctx, w, r, h.writeWait, res, nil)
}
