package httpapi

import (
	"net/http"
	"strconv"

	"github.com/valyala/bytebufferpool"
)

func (h *Handler) GroupStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GroupStats")
	defer span.End()

	kind := r.PathValue("kind")
	groups, err := h.Stats.Groups(ctx, kind)
	if err != nil {
		h.fail(ctx, w, "group stats failed", err, "kind", kind)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, groups)
}

func (h *Handler) PlayerStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PlayerStats")
	defer span.End()

	player := r.PathValue("player")
	summary, err := h.Stats.Player(ctx, sessionFromContext(ctx), player)
	if err != nil {
		h.fail(ctx, w, "player stats failed", err, "player", player)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, summary)
}

func (h *Handler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SyncStatus")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, h.Sync.Status(ctx))
}

func (h *Handler) SyncRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SyncRefresh")
	defer span.End()

	report, err := h.Sync.Refresh(ctx)
	if err != nil {
		h.fail(ctx, w, "sync refresh failed", err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, report)
}

// ExportAttendance streams the workbook as a download. It is rendered into
// memory first so a failed export still gets a JSON error.
func (h *Handler) ExportAttendance(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ExportAttendance")
	defer span.End()

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if err := h.Export.Export(ctx, buf, queryBool(r, "past")); err != nil {
		h.fail(ctx, w, "export attendance failed", err)
		return
	}

	w.Header().Set("Content-Type", h.Export.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+h.Export.FileName()+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
