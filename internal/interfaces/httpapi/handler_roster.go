package httpapi

import (
	"net/http"

	"github.com/tallink-tennis/fuss-tracker/internal/usecase"
)

type addPlayerRequest struct {
	Name           string `json:"name" validate:"required,max=80"`
	Password       string `json:"password" validate:"required"`
	ParentPassword string `json:"parentPassword"`
	TennisGroup    string `json:"tennisGroup"`
	FussGroup      string `json:"fussGroup"`
}

type assignGroupRequest struct {
	Group string `json:"group" validate:"required"`
}

func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListPlayers")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, h.Roster.ListPlayers(ctx))
}

func (h *Handler) AddPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AddPlayer")
	defer span.End()

	var req addPlayerRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	member, res, err := h.Roster.AddPlayer(ctx, usecase.AddPlayerInput{
		Name:           req.Name,
		Password:       req.Password,
		ParentPassword: req.ParentPassword,
		TennisGroup:    req.TennisGroup,
		FussGroup:      req.FussGroup,
	})
	if err != nil {
		h.fail(ctx, w, "add player failed", err, "player", req.Name)
		return
	}
	writeWrite(ctx, w, r, h.writeWait, res, member)
}

func (h *Handler) ArchivePlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ArchivePlayer")
	defer span.End()

	player := r.PathValue("player")
	rec, res, err := h.Roster.ArchivePlayer(ctx, player)
	if err != nil {
		h.fail(ctx, w, "archive player failed", err, "player", player)
		return
	}
	writeWrite(ctx, w, r, h.writeWait, res, archivedToDTO(rec))
}

func (h *Handler) ListArchived(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListArchived")
	defer span.End()

	archived := h.Roster.ListArchived(ctx)
	items := make([]archivedPlayerDTO, 0, len(archived))
	for _, rec := range archived {
		items = append(items, archivedToDTO(rec))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) RestorePlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RestorePlayer")
	defer span.End()

	player := r.PathValue("player")
	member, res, err := h.Roster.RestorePlayer(ctx, player)
	if err != nil {
		h.fail(ctx, w, "restore player failed", err, "player", player)
		return
	}
	writeWrite(ctx, w, r, h.writeWait, res, member)
}

func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListGroups")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, h.Groups.List(ctx))
}

func (h *Handler) AssignGroup(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AssignGroup")
	defer span.End()

	var req assignGroupRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	kind, player := r.PathValue("kind"), r.PathValue("player")
	res, err := h.Groups.Assign(ctx, kind, player, req.Group)
	if err != nil {
		h.fail(ctx, w, "assign group failed", err, "kind", kind, "player", player)
		return
	}
	writeWrite(ctx, w, r, h.writeWait, res, map[string]string{"player": player, "kind": kind, "group": req.Group})
}

func (h *Handler) GroupNotice(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GroupNotice")
	defer span.End()

	notice, err := h.Groups.Notice(ctx, sessionFromContext(ctx))
	if err != nil {
		h.fail(ctx, w, "group notice failed", err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, notice)
}

func (h *Handler) AcknowledgeGroupNotice(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AcknowledgeGroupNotice")
	defer span.End()

	if err := h.Groups.Acknowledge(ctx, sessionFromContext(ctx)); err != nil {
		h.fail(ctx, w, "acknowledge group notice failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
