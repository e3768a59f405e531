package httpapi

import (
	"context"
	"net/http"

	"github.com/tallink-tennis/fuss-tracker/internal/domain/auth"
	"github.com/tallink-tennis/fuss-tracker/internal/mirror"
)

type loginRequest struct {
	Name     string `json:"name" validate:"required,max=80"`
	Password string `json:"password" validate:"required"`
}

type coachLoginRequest struct {
	Password string `json:"password" validate:"required"`
}

type passwordRequest struct {
	Password string `json:"password" validate:"required,max=128"`
}

type sessionDTO struct {
	Token  string    `json:"token,omitempty"`
	Role   auth.Role `json:"role"`
	Player string    `json:"player,omitempty"`
}

func sessionToDTO(token string, sess auth.Session) sessionDTO {
	player, _ := auth.Subject(sess)
	return sessionDTO{Token: token, Role: sess.Role(), Player: player}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Login")
	defer span.End()

	var req loginRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	res, err := h.Auth.Login(ctx, req.Name, req.Password)
	if err != nil {
		h.fail(ctx, w, "login failed", err, "client_ip", clientIP(r), "country", clientCountry(r))
		return
	}
	writeSuccess(ctx, w, http.StatusOK, sessionToDTO(res.Token, res.Session))
}

func (h *Handler) ParentLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ParentLogin")
	defer span.End()

	var req loginRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	res, err := h.Auth.ParentLogin(ctx, req.Name, req.Password)
	if err != nil {
		h.fail(ctx, w, "parent login failed", err, "client_ip", clientIP(r), "country", clientCountry(r))
		return
	}
	writeSuccess(ctx, w, http.StatusOK, sessionToDTO(res.Token, res.Session))
}

func (h *Handler) CoachLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CoachLogin")
	defer span.End()

	var req coachLoginRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	res, err := h.Auth.CoachLogin(ctx, req.Password)
	if err != nil {
		h.fail(ctx, w, "coach login failed", err, "client_ip", clientIP(r), "country", clientCountry(r))
		return
	}
	writeSuccess(ctx, w, http.StatusOK, sessionToDTO(res.Token, res.Session))
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Logout")
	defer span.End()

	h.Auth.Logout(ctx, tokenFromContext(ctx))
	writeSuccess(ctx, w, http.StatusOK, sessionToDTO("", auth.LoggedOut{}))
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Me")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, sessionToDTO("", sessionFromContext(ctx)))
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	h.changePassword(w, r, "httpapi.Handler.ChangePassword", h.Auth.ChangePassword)
}

func (h *Handler) ChangeParentPassword(w http.ResponseWriter, r *http.Request) {
	h.changePassword(w, r, "httpapi.Handler.ChangeParentPassword", h.Auth.ChangeParentPassword)
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request, span string, change passwordChanger) {
	ctx, sp := startSpan(r.Context(), span)
	defer sp.End()

	var req passwordRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	player := r.PathValue("player")
	res, err := change(ctx, sessionFromContext(ctx), player, req.Password)
	if err != nil {
		h.fail(ctx, w, "change password failed", err, "player", player)
		return
	}
	writeWrite(ctx, w, r, h.writeWait, res, map[string]string{"player": player})
}

type passwordChanger = func(ctx context.Context, sess auth.Session, player, password string) (*mirror.WriteResult, error)
